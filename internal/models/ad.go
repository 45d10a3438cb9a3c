package models

import (
	"strings"
	"time"
)

// Budget tiers an advertiser can choose when creating an ad. The tier is
// only used as the weighting divisor in the conversion-rate formula.
const (
	BudgetLow    = "low"
	BudgetMedium = "medium"
	BudgetHigh   = "high"
)

// AdDetails holds the mutable delivery parameters of an ad.
type AdDetails struct {
	VideoURL  string  `json:"videoUrl"`
	TargetURL string  `json:"targetUrl"`
	Budget    string  `json:"budget"`
	SkipTime  float64 `json:"skipTime"`
	ExitTime  float64 `json:"exitTime"`
}

// Ad is a catalog entry. Identity is immutable; delivery parameters are
// mutable through the catalog CRUD. PerformerID is denormalized onto every
// event at ingest time, so reassigning ownership does not rewrite history.
type Ad struct {
	ID            string    `json:"adId"`
	Name          string    `json:"name"`
	PerformerID   string    `json:"performerId"`
	PerformerName string    `json:"performerName"`
	Details       AdDetails `json:"adDetails"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateAdRequest is the wire shape of POST /ads.
type CreateAdRequest struct {
	AdName         string     `json:"adName"`
	PerformerEmail string     `json:"performerEmail"`
	AdDetails      *AdDetails `json:"adDetails"`
}

// Validate normalizes and checks a create request. The budget tier is
// lowercased before the membership check, matching how BudgetWeight treats
// unrecognized tiers at read time.
func (r *CreateAdRequest) Validate() error {
	r.AdName = strings.TrimSpace(r.AdName)
	r.PerformerEmail = strings.TrimSpace(r.PerformerEmail)
	if r.AdName == "" || r.PerformerEmail == "" || r.AdDetails == nil {
		return &ValidationError{Message: "missing adName, performerEmail or adDetails"}
	}

	d := r.AdDetails
	d.VideoURL = strings.TrimSpace(d.VideoURL)
	d.TargetURL = strings.TrimSpace(d.TargetURL)
	d.Budget = strings.ToLower(strings.TrimSpace(d.Budget))

	if !strings.HasPrefix(d.VideoURL, "http") || !strings.HasPrefix(d.TargetURL, "http") {
		return &ValidationError{Message: "videoUrl and targetUrl must be http(s) URLs"}
	}
	switch d.Budget {
	case BudgetLow, BudgetMedium, BudgetHigh:
	default:
		return &ValidationError{Message: "budget must be one of low, medium, high"}
	}
	if d.SkipTime < 0 || d.ExitTime < 0 {
		return &ValidationError{Message: "skipTime and exitTime must be non-negative"}
	}
	return nil
}

// AdDetailsPatch carries the optional fields of an ad update; nil fields
// are left untouched.
type AdDetailsPatch struct {
	VideoURL  *string  `json:"videoUrl"`
	TargetURL *string  `json:"targetUrl"`
	Budget    *string  `json:"budget"`
	SkipTime  *float64 `json:"skipTime"`
	ExitTime  *float64 `json:"exitTime"`
}

// UpdateAdRequest is the wire shape of PUT /ads/{adId}. Identity fields are
// immutable; only the display name and delivery parameters can change.
type UpdateAdRequest struct {
	AdName    *string         `json:"adName"`
	AdDetails *AdDetailsPatch `json:"adDetails"`
}

// Apply validates the patch and folds it into the ad, bumping UpdatedAt.
func (r *UpdateAdRequest) Apply(ad *Ad, now time.Time) error {
	if r.AdName != nil {
		name := strings.TrimSpace(*r.AdName)
		if name == "" {
			return &ValidationError{Message: "adName cannot be empty"}
		}
		ad.Name = name
	}
	if p := r.AdDetails; p != nil {
		if p.VideoURL != nil {
			u := strings.TrimSpace(*p.VideoURL)
			if !strings.HasPrefix(u, "http") {
				return &ValidationError{Message: "videoUrl must be an http(s) URL"}
			}
			ad.Details.VideoURL = u
		}
		if p.TargetURL != nil {
			u := strings.TrimSpace(*p.TargetURL)
			if !strings.HasPrefix(u, "http") {
				return &ValidationError{Message: "targetUrl must be an http(s) URL"}
			}
			ad.Details.TargetURL = u
		}
		if p.Budget != nil {
			b := strings.ToLower(strings.TrimSpace(*p.Budget))
			switch b {
			case BudgetLow, BudgetMedium, BudgetHigh:
				ad.Details.Budget = b
			default:
				return &ValidationError{Message: "budget must be one of low, medium, high"}
			}
		}
		if p.SkipTime != nil {
			if *p.SkipTime < 0 {
				return &ValidationError{Message: "skipTime must be non-negative"}
			}
			ad.Details.SkipTime = *p.SkipTime
		}
		if p.ExitTime != nil {
			if *p.ExitTime < 0 {
				return &ValidationError{Message: "exitTime must be non-negative"}
			}
			ad.Details.ExitTime = *p.ExitTime
		}
	}
	ad.UpdatedAt = now
	return nil
}

// BudgetWeight maps a budget tier to the divisor used by the conversion-rate
// formula. Unrecognized or missing tiers weigh 1.
func BudgetWeight(budget string) float64 {
	switch strings.ToLower(strings.TrimSpace(budget)) {
	case BudgetMedium:
		return 2
	case BudgetHigh:
		return 3
	default:
		return 1
	}
}
