package storage

import (
	"context"
	"time"

	"github.com/adpulse-io/adpulse/internal/models"
)

// =============================================
// AD CATALOG
// =============================================

// AdRepo defines operations on the ad catalog. Lookups return (nil, nil)
// when the id is unknown.
type AdRepo interface {
	ListAll(ctx context.Context) ([]*models.Ad, error)
	GetByID(ctx context.Context, id string) (*models.Ad, error)
	Insert(ctx context.Context, ad *models.Ad) error
	Update(ctx context.Context, ad *models.Ad) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// =============================================
// PERFORMER CATALOG
// =============================================

// PerformerRepo defines operations on the performer catalog. The Ads field
// of returned performers is derived from the ad catalog. Emails are stored
// normalized and unique.
type PerformerRepo interface {
	ListAll(ctx context.Context) ([]*models.Performer, error)
	GetByID(ctx context.Context, id string) (*models.Performer, error)
	GetByEmail(ctx context.Context, email string) (*models.Performer, error)
	Insert(ctx context.Context, p *models.Performer) error
}

// =============================================
// EVENT STORE
// =============================================

// EventStore is the append-only record of interaction events, partitioned
// by UTC calendar day. Append creates the day's log on first use without
// touching its metadata on later appends.
type EventStore interface {
	Append(ctx context.Context, ev *models.Event) error

	// SeenAdIDs returns the distinct ad ids that appear in any event
	// submitted by the given application, across all days.
	SeenAdIDs(ctx context.Context, packageName string) ([]string, error)

	// DeleteByAd removes every event referencing the ad (catalog cascade).
	DeleteByAd(ctx context.Context, adID string) error
}

// =============================================
// DAILY STATS
// =============================================

// StatsRepo owns the per-(performer, ad, day) counter records. Increment is
// the only write and must be atomic with respect to concurrent increments
// on the same key: arithmetic addition, never read-modify-write.
type StatsRepo interface {
	// Increment applies the delta to the (performerID, adID, day) record,
	// creating it with the delta as initial values (and createdAt as its
	// creation timestamp) when absent.
	Increment(ctx context.Context, performerID, adID, day string, delta models.StatDelta, createdAt time.Time) error

	// ForAd sums the ad's records over an optional inclusive date range.
	ForAd(ctx context.Context, adID string, r models.DateRange) (models.StatTotals, error)

	// ForPerformer sums the performer's records grouped by ad, ordered by
	// ad id. Ads with no records do not appear.
	ForPerformer(ctx context.Context, performerID string, r models.DateRange) ([]models.AdTotals, error)

	// DeleteByAd removes the ad's stat records (catalog cascade).
	DeleteByAd(ctx context.Context, adID string) error
}
