package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/models"
	"github.com/adpulse-io/adpulse/internal/storage"
)

// AdService manages the ad catalog.
type AdService struct {
	ads        storage.AdRepo
	performers storage.PerformerRepo
	events     storage.EventStore
	stats      storage.StatsRepo
	logger     *zap.Logger
	now        func() time.Time
}

// NewAdService creates an ad catalog service.
func NewAdService(ads storage.AdRepo, performers storage.PerformerRepo, events storage.EventStore, stats storage.StatsRepo, logger *zap.Logger) *AdService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdService{
		ads:        ads,
		performers: performers,
		events:     events,
		stats:      stats,
		logger:     logger,
		now:        time.Now,
	}
}

// Create registers a new ad under the performer identified by email.
// Returns ErrNotFound when no performer has that email.
func (s *AdService) Create(ctx context.Context, req *models.CreateAdRequest) (*models.Ad, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	performer, err := s.performers.GetByEmail(ctx, models.NormalizeEmail(req.PerformerEmail))
	if err != nil {
		return nil, fmt.Errorf("looking up performer: %w", err)
	}
	if performer == nil {
		return nil, ErrNotFound
	}

	now := s.now().UTC()
	ad := &models.Ad{
		ID:            uuid.New().String(),
		Name:          req.AdName,
		PerformerID:   performer.ID,
		PerformerName: performer.Name,
		Details:       *req.AdDetails,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.ads.Insert(ctx, ad); err != nil {
		return nil, fmt.Errorf("inserting ad: %w", err)
	}

	s.logger.Info("ad created",
		zap.String("ad_id", ad.ID),
		zap.String("performer_id", performer.ID))
	return ad, nil
}

// Get returns one ad, or ErrNotFound.
func (s *AdService) Get(ctx context.Context, adID string) (*models.Ad, error) {
	ad, err := s.ads.GetByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("looking up ad: %w", err)
	}
	if ad == nil {
		return nil, ErrNotFound
	}
	return ad, nil
}

// List returns the full catalog.
func (s *AdService) List(ctx context.Context) ([]*models.Ad, error) {
	ads, err := s.ads.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing ads: %w", err)
	}
	return ads, nil
}

// Update applies a partial update to an ad's delivery parameters.
func (s *AdService) Update(ctx context.Context, adID string, req *models.UpdateAdRequest) (*models.Ad, error) {
	ad, err := s.ads.GetByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("looking up ad: %w", err)
	}
	if ad == nil {
		return nil, ErrNotFound
	}

	if err := req.Apply(ad, s.now().UTC()); err != nil {
		return nil, err
	}
	ok, err := s.ads.Update(ctx, ad)
	if err != nil {
		return nil, fmt.Errorf("updating ad: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	s.logger.Info("ad updated", zap.String("ad_id", ad.ID))
	return ad, nil
}

// Delete removes an ad together with its events and stat records.
func (s *AdService) Delete(ctx context.Context, adID string) error {
	ok, err := s.ads.Delete(ctx, adID)
	if err != nil {
		return fmt.Errorf("deleting ad: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	if err := s.events.DeleteByAd(ctx, adID); err != nil {
		return fmt.Errorf("deleting ad events: %w", err)
	}
	if err := s.stats.DeleteByAd(ctx, adID); err != nil {
		return fmt.Errorf("deleting ad stats: %w", err)
	}

	s.logger.Info("ad deleted", zap.String("ad_id", adID))
	return nil
}

// PerformerService manages performer accounts.
type PerformerService struct {
	performers storage.PerformerRepo
	logger     *zap.Logger
	now        func() time.Time
}

// NewPerformerService creates a performer service.
func NewPerformerService(performers storage.PerformerRepo, logger *zap.Logger) *PerformerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformerService{
		performers: performers,
		logger:     logger,
		now:        time.Now,
	}
}

// Create registers a performer. When the email is already registered the
// existing performer is returned and created is false.
func (s *PerformerService) Create(ctx context.Context, req *models.CreatePerformerRequest) (performer *models.Performer, created bool, err error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	email := models.NormalizeEmail(req.Email)
	existing, err := s.performers.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("looking up performer: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	performer = &models.Performer{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     email,
		Ads:       []string{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.performers.Insert(ctx, performer); err != nil {
		return nil, false, fmt.Errorf("inserting performer: %w", err)
	}

	s.logger.Info("performer created", zap.String("performer_id", performer.ID))
	return performer, true, nil
}

// CheckEmail reports whether the email belongs to a registered performer.
func (s *PerformerService) CheckEmail(ctx context.Context, email string) (*models.Performer, error) {
	if !models.ValidEmail(email) {
		return nil, &models.ValidationError{Message: "invalid email format"}
	}
	performer, err := s.performers.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("looking up performer: %w", err)
	}
	return performer, nil
}

// List returns all performers.
func (s *PerformerService) List(ctx context.Context) ([]*models.Performer, error) {
	performers, err := s.performers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing performers: %w", err)
	}
	return performers, nil
}
