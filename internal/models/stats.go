package models

import (
	"math"
	"time"
)

// DailyStat is the write-time aggregation record: one per
// (performer, ad, UTC date). Mutated only through atomic increments on the
// ingest path; the query side reads and never writes.
type DailyStat struct {
	PerformerID      string    `json:"performerId"`
	AdID             string    `json:"adId"`
	Day              string    `json:"date"`
	Views            int64     `json:"views"`
	Clicks           int64     `json:"clicks"`
	Skips            int64     `json:"skips"`
	Exits            int64     `json:"exits"`
	WatchDurationSum float64   `json:"watchDurationSum"`
	CreatedAt        time.Time `json:"createdAt"`
}

// StatDelta is the increment set computed from a single event: exactly one
// kind counter bumped by one, and the watch-duration sum raised only for
// view events.
type StatDelta struct {
	Views            int64
	Clicks           int64
	Skips            int64
	Exits            int64
	WatchDurationSum float64
}

// DeltaFor computes the increment set for one event.
func DeltaFor(kind EventKind, watchDuration float64) StatDelta {
	var d StatDelta
	switch kind {
	case EventView:
		d.Views = 1
		d.WatchDurationSum = watchDuration
	case EventClick:
		d.Clicks = 1
	case EventSkip:
		d.Skips = 1
	case EventExit:
		d.Exits = 1
	}
	return d
}

// StatTotals is a sum of daily stat records over a date range.
type StatTotals struct {
	Views            int64
	Clicks           int64
	Skips            int64
	Exits            int64
	WatchDurationSum float64
}

// Add folds one record into the running totals.
func (t *StatTotals) Add(s *DailyStat) {
	t.Views += s.Views
	t.Clicks += s.Clicks
	t.Skips += s.Skips
	t.Exits += s.Exits
	t.WatchDurationSum += s.WatchDurationSum
}

// AvgWatchDuration is watchDurationSum/views, 0 when there are no views.
func (t StatTotals) AvgWatchDuration() float64 {
	if t.Views == 0 {
		return 0
	}
	return round2(t.WatchDurationSum / float64(t.Views))
}

// ClickThroughRate is clicks/views*100, 0 when there are no views.
func (t StatTotals) ClickThroughRate() float64 {
	if t.Views == 0 {
		return 0
	}
	return round2(float64(t.Clicks) / float64(t.Views) * 100)
}

// ConversionRate is clicks/budgetWeight*100, 0 when there are no views.
// A deliberately simplified model, not a probabilistic conversion estimate.
func (t StatTotals) ConversionRate(budget string) float64 {
	if t.Views == 0 {
		return 0
	}
	return round2(float64(t.Clicks) / BudgetWeight(budget) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AdTotals pairs an ad id with its summed counters, used when grouping a
// performer's records by ad.
type AdTotals struct {
	AdID   string
	Totals StatTotals
}

// DateRange bounds a stats query; empty strings mean unbounded. Bounds are
// inclusive on both sides.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// AdStats is the derived metric set of GET /ads/{adId}/stats.
type AdStats struct {
	Views            int64   `json:"views"`
	Clicks           int64   `json:"clicks"`
	Skips            int64   `json:"skips"`
	AvgWatchDuration float64 `json:"avgWatchDuration"`
	ClickThroughRate float64 `json:"clickThroughRate"`
	ConversionRate   float64 `json:"conversionRate"`
}

// AdStatsResponse is the body of GET /ads/{adId}/stats.
type AdStatsResponse struct {
	AdID      string    `json:"adId"`
	DateRange DateRange `json:"dateRange"`
	AdStats   AdStats   `json:"adStats"`
}

// PerformerAdStats is one per-ad entry of GET /performers/{id}/stats.
type PerformerAdStats struct {
	AdID             string  `json:"adId"`
	Views            int64   `json:"views"`
	Clicks           int64   `json:"clicks"`
	Skips            int64   `json:"skips"`
	Exits            int64   `json:"exits"`
	AvgWatchDuration float64 `json:"avgWatchDuration"`
	ClickThroughRate float64 `json:"clickThroughRate"`
}

// PerformerStatsResponse is the body of GET /performers/{id}/stats.
type PerformerStatsResponse struct {
	PerformerID string             `json:"performerId"`
	AdsStats    []PerformerAdStats `json:"adsStats"`
}
