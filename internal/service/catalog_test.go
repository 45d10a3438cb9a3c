package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/models"
)

func (f *fixture) adSvc() *AdService {
	return NewAdService(f.ads, f.performers, f.events, f.stats, zap.NewNop())
}

func (f *fixture) performerSvc() *PerformerService {
	return NewPerformerService(f.performers, zap.NewNop())
}

func adDetails() *models.AdDetails {
	return &models.AdDetails{
		VideoURL:  "http://cdn.example.com/spot.mp4",
		TargetURL: "https://example.com/landing",
		Budget:    models.BudgetMedium,
		SkipTime:  5,
		ExitTime:  30,
	}
}

func TestPerformerCreateAndDedupe(t *testing.T) {
	f := newFixture(t)
	svc := f.performerSvc()

	p, created, err := svc.Create(context.Background(), &models.CreatePerformerRequest{
		Name:  "Acme",
		Email: "Ads@Acme.COM",
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "ads@acme.com", p.Email)

	// Same email, different case: no second account.
	again, created, err := svc.Create(context.Background(), &models.CreatePerformerRequest{
		Name:  "Acme Again",
		Email: "ads@acme.com",
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, p.ID, again.ID)
}

func TestPerformerCreateInvalidEmail(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.performerSvc().Create(context.Background(), &models.CreatePerformerRequest{
		Name:  "Acme",
		Email: "not-an-email",
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCheckEmail(t *testing.T) {
	f := newFixture(t)
	svc := f.performerSvc()

	p, _, err := svc.Create(context.Background(), &models.CreatePerformerRequest{
		Name:  "Acme",
		Email: "ads@acme.com",
	})
	require.NoError(t, err)

	found, err := svc.CheckEmail(context.Background(), "ADS@acme.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, p.ID, found.ID)

	found, err = svc.CheckEmail(context.Background(), "nobody@acme.com")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestAdCreateUnknownPerformer(t *testing.T) {
	f := newFixture(t)

	_, err := f.adSvc().Create(context.Background(), &models.CreateAdRequest{
		AdName:         "spot",
		PerformerEmail: "nobody@acme.com",
		AdDetails:      adDetails(),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdCreateDenormalizesPerformer(t *testing.T) {
	f := newFixture(t)
	f.seedPerformer(t, "perf-1", "ads@acme.com")

	ad, err := f.adSvc().Create(context.Background(), &models.CreateAdRequest{
		AdName:         "spot",
		PerformerEmail: "ads@acme.com",
		AdDetails:      adDetails(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, ad.ID)
	require.Equal(t, "perf-1", ad.PerformerID)

	// The performer's owned ad list reflects the new ad.
	p, err := f.performers.GetByID(context.Background(), "perf-1")
	require.NoError(t, err)
	require.Equal(t, []string{ad.ID}, p.Ads)
}

func TestAdUpdatePartial(t *testing.T) {
	f := newFixture(t)
	f.seedPerformer(t, "perf-1", "ads@acme.com")
	ad := f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)

	name := "renamed"
	budget := models.BudgetHigh
	updated, err := f.adSvc().Update(context.Background(), "ad-1", &models.UpdateAdRequest{
		AdName:    &name,
		AdDetails: &models.AdDetailsPatch{Budget: &budget},
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Name)
	require.Equal(t, models.BudgetHigh, updated.Details.Budget)
	// Untouched fields survive.
	require.Equal(t, ad.Details.VideoURL, updated.Details.VideoURL)
	require.True(t, updated.UpdatedAt.After(ad.UpdatedAt) || updated.UpdatedAt.Equal(ad.UpdatedAt))
}

func TestAdDeleteCascades(t *testing.T) {
	f := newFixture(t)
	f.seedAd(t, "ad-1", "perf-1", models.BudgetLow)
	f.markSeen(t, "com.example.app", "ad-1")

	require.NoError(t, f.adSvc().Delete(context.Background(), "ad-1"))

	ad, err := f.ads.GetByID(context.Background(), "ad-1")
	require.NoError(t, err)
	require.Nil(t, ad)

	seen, err := f.events.SeenAdIDs(context.Background(), "com.example.app")
	require.NoError(t, err)
	require.Empty(t, seen)

	require.Nil(t, f.stats.Record("perf-1", "ad-1", "2026-03-14"))
}

func TestAdDeleteUnknown(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.adSvc().Delete(context.Background(), "no-such-ad"), ErrNotFound)
}
