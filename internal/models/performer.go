package models

import (
	"regexp"
	"strings"
	"time"
)

// Performer is an advertiser: the owner of ads and the grouping key for
// daily stat records. Ads holds the ids of owned ads, derived from the ad
// catalog rather than stored as a denormalized array.
type Performer struct {
	ID        string    `json:"performerId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Ads       []string  `json:"ads"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatePerformerRequest is the wire shape of POST /performers.
type CreatePerformerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// NormalizeEmail trims and lowercases an email for the uniqueness check.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate checks and normalizes a create request.
func (r *CreatePerformerRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" || strings.TrimSpace(r.Email) == "" {
		return &ValidationError{Message: "name and email are required"}
	}
	if !ValidEmail(r.Email) {
		return &ValidationError{Message: "invalid email format"}
	}
	r.Email = NormalizeEmail(r.Email)
	return nil
}
