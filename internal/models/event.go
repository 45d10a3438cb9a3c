package models

import (
	"strings"
	"time"
)

// EventKind enumerates the recognized user interactions with an ad.
type EventKind string

const (
	EventView  EventKind = "view"
	EventClick EventKind = "click"
	EventSkip  EventKind = "skip"
	EventExit  EventKind = "exit"
)

// EventKinds lists all recognized kinds in a stable order.
var EventKinds = []EventKind{EventView, EventClick, EventSkip, EventExit}

// Valid reports whether k is a recognized interaction kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventView, EventClick, EventSkip, EventExit:
		return true
	}
	return false
}

// Event is an immutable interaction fact. PerformerID is denormalized from
// the ad at ingest time so aggregation never joins against the catalog.
// Timestamp is the client-supplied ISO-8601 string, stored as received and
// never used for day bucketing; Day and CreatedAt come from the server
// clock at ingest.
type Event struct {
	ID            string    `json:"eventId"`
	AdID          string    `json:"adId"`
	PerformerID   string    `json:"performerId"`
	PackageName   string    `json:"packageName"`
	Timestamp     string    `json:"timestamp"`
	Kind          EventKind `json:"eventType"`
	WatchDuration float64   `json:"watchDuration"`
	Day           string    `json:"date"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EventDetails is the nested object of the POST /ad_event body.
type EventDetails struct {
	PackageName   string   `json:"packageName"`
	EventType     string   `json:"eventType"`
	WatchDuration *float64 `json:"watchDuration"`
}

// EventRequest is the wire shape of POST /ad_event.
type EventRequest struct {
	AdID         string        `json:"adId"`
	Timestamp    string        `json:"timestamp"`
	EventDetails *EventDetails `json:"eventDetails"`
}

// ValidationError marks client input problems. Callers surface it as a 400
// and never retry.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks and normalizes an event submission without touching
// storage. The referential check against the ad catalog happens later, on
// the ingest path.
func (r *EventRequest) Validate() error {
	r.AdID = strings.TrimSpace(r.AdID)
	if r.AdID == "" {
		return &ValidationError{Message: "adId is required"}
	}
	if strings.TrimSpace(r.Timestamp) == "" {
		return &ValidationError{Message: "timestamp is required"}
	}
	if r.EventDetails == nil {
		return &ValidationError{Message: "eventDetails is required"}
	}

	d := r.EventDetails
	d.PackageName = strings.TrimSpace(d.PackageName)
	if d.PackageName == "" {
		return &ValidationError{Message: "eventDetails.packageName is required"}
	}
	d.EventType = strings.ToLower(strings.TrimSpace(d.EventType))
	if !EventKind(d.EventType).Valid() {
		return &ValidationError{Message: "unrecognized eventType"}
	}
	if d.WatchDuration == nil {
		return &ValidationError{Message: "eventDetails.watchDuration is required"}
	}
	if *d.WatchDuration < 0 {
		return &ValidationError{Message: "watchDuration must be non-negative"}
	}
	return nil
}

// Kind returns the validated event kind.
func (r *EventRequest) Kind() EventKind {
	return EventKind(r.EventDetails.EventType)
}

// DayKey formats t as the UTC calendar-date bucket key.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
