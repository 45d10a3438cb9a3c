package service

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/metrics"
	"github.com/adpulse-io/adpulse/internal/models"
	"github.com/adpulse-io/adpulse/internal/storage"
)

// SelectorService picks ads for delivery. Ads the requesting app package
// has not seen yet are preferred; once every ad has been seen the full
// catalog is eligible again.
type SelectorService struct {
	ads     storage.AdRepo
	events  storage.EventStore
	cache   *ExposureCache
	metrics *metrics.Metrics
	logger  *zap.Logger
	randFn  func(n int) int
}

// NewSelectorService creates a selector. cache and m may be nil.
func NewSelectorService(ads storage.AdRepo, events storage.EventStore, cache *ExposureCache, m *metrics.Metrics, logger *zap.Logger) *SelectorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectorService{
		ads:     ads,
		events:  events,
		cache:   cache,
		metrics: m,
		logger:  logger,
		randFn:  rand.Intn,
	}
}

// SelectRandom returns a uniformly random ad for the package, preferring
// ads the package has not produced any event for. Returns (nil, nil)
// when the catalog is empty.
func (s *SelectorService) SelectRandom(ctx context.Context, packageName string) (*models.Ad, error) {
	catalog, err := s.ads.ListAll(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageError("ad_list")
		}
		return nil, fmt.Errorf("listing ads: %w", err)
	}
	if len(catalog) == 0 {
		if s.metrics != nil {
			s.metrics.RecordSelection(metrics.SelectionNone)
		}
		return nil, nil
	}

	seen, err := s.seenAdIDs(ctx, packageName)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageError("seen_lookup")
		}
		return nil, fmt.Errorf("resolving seen ads: %w", err)
	}

	unseen := make([]*models.Ad, 0, len(catalog))
	for _, ad := range catalog {
		if _, ok := seen[ad.ID]; !ok {
			unseen = append(unseen, ad)
		}
	}

	pool := unseen
	outcome := metrics.SelectionUnseen
	if len(pool) == 0 {
		pool = catalog
		outcome = metrics.SelectionFallback
	}

	ad := pool[s.randFn(len(pool))]
	if s.metrics != nil {
		s.metrics.RecordSelection(outcome)
	}
	s.logger.Debug("ad selected",
		zap.String("package_name", packageName),
		zap.String("ad_id", ad.ID),
		zap.String("outcome", outcome))
	return ad, nil
}

// seenAdIDs resolves the set of ads the package has events for, cache
// first, falling back to the event store and repopulating the cache.
func (s *SelectorService) seenAdIDs(ctx context.Context, packageName string) (map[string]struct{}, error) {
	if ids, ok := s.cache.Seen(ctx, packageName); ok {
		return toSet(ids), nil
	}
	ids, err := s.events.SeenAdIDs(ctx, packageName)
	if err != nil {
		return nil, err
	}
	s.cache.Populate(ctx, packageName, ids)
	return toSet(ids), nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
