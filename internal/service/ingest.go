package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/metrics"
	"github.com/adpulse-io/adpulse/internal/models"
	"github.com/adpulse-io/adpulse/internal/storage"
)

// IngestService records ad events and folds them into the daily stat
// records at write time.
type IngestService struct {
	ads     storage.AdRepo
	events  storage.EventStore
	stats   storage.StatsRepo
	cache   *ExposureCache
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewIngestService creates an ingest service. cache and m may be nil.
func NewIngestService(ads storage.AdRepo, events storage.EventStore, stats storage.StatsRepo, cache *ExposureCache, m *metrics.Metrics, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		ads:     ads,
		events:  events,
		stats:   stats,
		cache:   cache,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Record validates the event request, verifies the referenced ad exists,
// appends the event to the day log, and increments the daily stat record.
// Validation failures return *models.ValidationError; an unknown ad
// returns ErrNotFound.
func (s *IngestService) Record(ctx context.Context, req *models.EventRequest) (*models.Event, error) {
	start := s.now()

	if err := req.Validate(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordRejection("validation")
		}
		return nil, err
	}

	ad, err := s.ads.GetByID(ctx, req.AdID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageError("ad_lookup")
		}
		return nil, fmt.Errorf("looking up ad: %w", err)
	}
	if ad == nil {
		if s.metrics != nil {
			s.metrics.RecordRejection("unknown_ad")
		}
		return nil, ErrNotFound
	}

	now := s.now().UTC()
	event := &models.Event{
		ID:            uuid.New().String(),
		AdID:          ad.ID,
		PerformerID:   ad.PerformerID,
		PackageName:   req.EventDetails.PackageName,
		Timestamp:     req.Timestamp,
		Kind:          req.Kind(),
		WatchDuration: *req.EventDetails.WatchDuration,
		Day:           models.DayKey(now),
		CreatedAt:     now,
	}

	if err := s.events.Append(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageError("event_append")
		}
		return nil, fmt.Errorf("appending event: %w", err)
	}

	delta := models.DeltaFor(event.Kind, event.WatchDuration)
	if err := s.stats.Increment(ctx, event.PerformerID, event.AdID, event.Day, delta, now); err != nil {
		// The event is already durable. Surface the error so the client
		// can retry, accepting a possible double count on the stat side.
		if s.metrics != nil {
			s.metrics.RecordStorageError("stats_increment")
		}
		return nil, fmt.Errorf("incrementing stats: %w", err)
	}

	s.cache.Add(ctx, event.PackageName, event.AdID)

	if s.metrics != nil {
		s.metrics.RecordEvent(string(event.Kind), s.now().Sub(start))
	}
	s.logger.Debug("event recorded",
		zap.String("event_id", event.ID),
		zap.String("ad_id", event.AdID),
		zap.String("event_type", string(event.Kind)),
		zap.String("day", event.Day))

	return event, nil
}
