package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/models"
)

func (f *fixture) selector() *SelectorService {
	return NewSelectorService(f.ads, f.events, nil, nil, zap.NewNop())
}

func (f *fixture) markSeen(t *testing.T, packageName, adID string) {
	t.Helper()
	_, err := f.ingest().Record(context.Background(), &models.EventRequest{
		AdID:      adID,
		Timestamp: "2026-03-14T12:00:00Z",
		EventDetails: &models.EventDetails{
			PackageName:   packageName,
			EventType:     "view",
			WatchDuration: wd(1),
		},
	})
	require.NoError(t, err)
}

func TestSelectRandomEmptyCatalog(t *testing.T) {
	f := newFixture(t)

	ad, err := f.selector().SelectRandom(context.Background(), "com.example.app")
	require.NoError(t, err)
	require.Nil(t, ad)
}

func TestSelectRandomPrefersUnseen(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)
	f.seedAd(t, "ad-2", "perf-1", models.BudgetLow)
	f.seedAd(t, "ad-3", "perf-1", models.BudgetLow)
	f.markSeen(t, "com.example.app", "ad-1")
	f.markSeen(t, "com.example.app", "ad-2")

	svc := f.selector()
	// Whatever index the RNG picks, only the unseen ad is eligible.
	for i := 0; i < 20; i++ {
		ad, err := svc.SelectRandom(context.Background(), "com.example.app")
		require.NoError(t, err)
		require.NotNil(t, ad)
		require.Equal(t, "ad-3", ad.ID)
	}
}

func TestSelectRandomUnseenOnlyFromCatalog(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)
	f.seedAd(t, "ad-2", "perf-1", models.BudgetLow)

	svc := f.selector()
	for i := 0; i < 20; i++ {
		ad, err := svc.SelectRandom(context.Background(), "com.fresh.app")
		require.NoError(t, err)
		require.NotNil(t, ad)
		require.Contains(t, []string{"ad-1", "ad-2"}, ad.ID)
	}
}

func TestSelectRandomFallbackWhenAllSeen(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)
	f.seedAd(t, "ad-2", "perf-1", models.BudgetLow)
	f.markSeen(t, "com.example.app", "ad-1")
	f.markSeen(t, "com.example.app", "ad-2")

	svc := f.selector()
	for i := 0; i < 20; i++ {
		ad, err := svc.SelectRandom(context.Background(), "com.example.app")
		require.NoError(t, err)
		require.NotNil(t, ad, "fallback must pick from the full catalog, never none")
	}
}

func TestSelectRandomSeenIsolatedPerPackage(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)
	f.seedAd(t, "ad-2", "perf-1", models.BudgetLow)
	f.markSeen(t, "com.app.one", "ad-1")

	svc := f.selector()
	svc.randFn = func(n int) int { return 0 }

	// com.app.one already saw ad-1, so only ad-2 remains.
	ad, err := svc.SelectRandom(context.Background(), "com.app.one")
	require.NoError(t, err)
	require.Equal(t, "ad-2", ad.ID)

	// A different package still has the full catalog unseen.
	ad, err = svc.SelectRandom(context.Background(), "com.app.two")
	require.NoError(t, err)
	require.Equal(t, "ad-1", ad.ID)
}
