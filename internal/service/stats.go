package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/metrics"
	"github.com/adpulse-io/adpulse/internal/models"
	"github.com/adpulse-io/adpulse/internal/storage"
)

// StatsService answers aggregate stats queries from the daily stat
// records written at ingest time.
type StatsService struct {
	ads        storage.AdRepo
	performers storage.PerformerRepo
	stats      storage.StatsRepo
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewStatsService creates a stats service. m may be nil.
func NewStatsService(ads storage.AdRepo, performers storage.PerformerRepo, stats storage.StatsRepo, m *metrics.Metrics, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		ads:        ads,
		performers: performers,
		stats:      stats,
		metrics:    m,
		logger:     logger,
	}
}

// StatsForAd returns aggregate stats for one ad over an inclusive date
// range. Returns ErrNotFound when the ad does not exist.
func (s *StatsService) StatsForAd(ctx context.Context, adID string, dr models.DateRange) (*models.AdStatsResponse, error) {
	ad, err := s.ads.GetByID(ctx, adID)
	if err != nil {
		return nil, fmt.Errorf("looking up ad: %w", err)
	}
	if ad == nil {
		return nil, ErrNotFound
	}

	totals, err := s.stats.ForAd(ctx, adID, dr)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageError("stats_for_ad")
		}
		return nil, fmt.Errorf("aggregating ad stats: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordStatsQuery("ad")
	}
	return &models.AdStatsResponse{
		AdID:      ad.ID,
		DateRange: dr,
		AdStats: models.AdStats{
			Views:            totals.Views,
			Clicks:           totals.Clicks,
			Skips:            totals.Skips,
			AvgWatchDuration: totals.AvgWatchDuration(),
			ClickThroughRate: totals.ClickThroughRate(),
			ConversionRate:   totals.ConversionRate(ad.Details.Budget),
		},
	}, nil
}

// StatsForPerformer returns per-ad aggregate stats for every ad of the
// performer that has at least one recorded event in the range. Returns
// ErrNotFound when the performer does not exist.
func (s *StatsService) StatsForPerformer(ctx context.Context, performerID string, dr models.DateRange) (*models.PerformerStatsResponse, error) {
	performer, err := s.performers.GetByID(ctx, performerID)
	if err != nil {
		return nil, fmt.Errorf("looking up performer: %w", err)
	}
	if performer == nil {
		return nil, ErrNotFound
	}

	adTotals, err := s.stats.ForPerformer(ctx, performerID, dr)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStorageError("stats_for_performer")
		}
		return nil, fmt.Errorf("aggregating performer stats: %w", err)
	}

	adsStats := make([]models.PerformerAdStats, 0, len(adTotals))
	for _, at := range adTotals {
		adsStats = append(adsStats, models.PerformerAdStats{
			AdID:             at.AdID,
			Views:            at.Totals.Views,
			Clicks:           at.Totals.Clicks,
			Skips:            at.Totals.Skips,
			Exits:            at.Totals.Exits,
			AvgWatchDuration: at.Totals.AvgWatchDuration(),
			ClickThroughRate: at.Totals.ClickThroughRate(),
		})
	}

	if s.metrics != nil {
		s.metrics.RecordStatsQuery("performer")
	}
	return &models.PerformerStatsResponse{
		PerformerID: performer.ID,
		AdsStats:    adsStats,
	}, nil
}
