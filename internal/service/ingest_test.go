package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/models"
	"github.com/adpulse-io/adpulse/internal/storage"
)

func wd(v float64) *float64 { return &v }

type fixture struct {
	ads        *storage.InMemoryAdRepo
	performers *storage.InMemoryPerformerRepo
	events     *storage.InMemoryEventStore
	stats      *storage.InMemoryStatsRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ads := storage.NewInMemoryAdRepo()
	return &fixture{
		ads:        ads,
		performers: storage.NewInMemoryPerformerRepo(ads),
		events:     storage.NewInMemoryEventStore(),
		stats:      storage.NewInMemoryStatsRepo(),
	}
}

func (f *fixture) seedAd(t *testing.T, id, performerID, budget string) *models.Ad {
	t.Helper()
	ad := &models.Ad{
		ID:          id,
		Name:        "ad " + id,
		PerformerID: performerID,
		Details: models.AdDetails{
			VideoURL:  "http://cdn.example.com/" + id + ".mp4",
			TargetURL: "http://example.com",
			Budget:    budget,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.ads.Insert(context.Background(), ad))
	return ad
}

func (f *fixture) ingest() *IngestService {
	return NewIngestService(f.ads, f.events, f.stats, nil, nil, zap.NewNop())
}

func eventReq(adID, eventType string, watchDuration float64) *models.EventRequest {
	return &models.EventRequest{
		AdID:      adID,
		Timestamp: "2026-03-14T12:00:00Z",
		EventDetails: &models.EventDetails{
			PackageName:   "com.example.app",
			EventType:     eventType,
			WatchDuration: wd(watchDuration),
		},
	}
}

func TestRecordStoresEventAndIncrementsStats(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)
	svc := f.ingest()

	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	event, err := svc.Record(context.Background(), eventReq("ad-1", "view", 10))
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)
	require.Equal(t, "perf-1", event.PerformerID)
	require.Equal(t, "2026-03-14", event.Day)

	logged, createdAt := f.events.DayLog("2026-03-14")
	require.Len(t, logged, 1)
	require.Equal(t, fixed, createdAt)

	rec := f.stats.Record("perf-1", "ad-1", "2026-03-14")
	require.NotNil(t, rec)
	require.EqualValues(t, 1, rec.Views)
	require.Equal(t, 10.0, rec.WatchDurationSum)
}

func TestRecordDayLogCreatedAtSetOnce(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)
	svc := f.ingest()

	first := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	_, err := svc.Record(context.Background(), eventReq("ad-1", "view", 5))
	require.NoError(t, err)

	later := first.Add(6 * time.Hour)
	svc.now = func() time.Time { return later }
	_, err = svc.Record(context.Background(), eventReq("ad-1", "click", 0))
	require.NoError(t, err)

	logged, createdAt := f.events.DayLog("2026-03-14")
	require.Len(t, logged, 2)
	require.Equal(t, first, createdAt)
}

func TestRecordUnknownAd(t *testing.T) {
	f := newFixture(t)
	svc := f.ingest()

	_, err := svc.Record(context.Background(), eventReq("no-such-ad", "view", 5))
	require.ErrorIs(t, err, ErrNotFound)

	logged, _ := f.events.DayLog(models.DayKey(time.Now()))
	require.Empty(t, logged)
}

func TestRecordInvalidEventTypeTouchesNothing(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)
	svc := f.ingest()

	_, err := svc.Record(context.Background(), eventReq("ad-1", "hover", 5))
	require.Error(t, err)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	logged, _ := f.events.DayLog(models.DayKey(time.Now()))
	require.Empty(t, logged)
	require.Nil(t, f.stats.Record("perf-1", "ad-1", models.DayKey(time.Now())))
}

func TestRecordConcurrentCountsAreExact(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetMedium)
	svc := f.ingest()

	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	const perKind = 50
	var wg sync.WaitGroup
	for _, kind := range []string{"view", "click", "skip", "exit"} {
		for i := 0; i < perKind; i++ {
			wg.Add(1)
			go func(kind string) {
				defer wg.Done()
				_, err := svc.Record(context.Background(), eventReq("ad-1", kind, 2))
				require.NoError(t, err)
			}(kind)
		}
	}
	wg.Wait()

	rec := f.stats.Record("perf-1", "ad-1", "2026-03-14")
	require.NotNil(t, rec)
	require.EqualValues(t, perKind, rec.Views)
	require.EqualValues(t, perKind, rec.Clicks)
	require.EqualValues(t, perKind, rec.Skips)
	require.EqualValues(t, perKind, rec.Exits)
	require.Equal(t, float64(perKind*2), rec.WatchDurationSum)

	logged, _ := f.events.DayLog("2026-03-14")
	require.Len(t, logged, perKind*4)
}
