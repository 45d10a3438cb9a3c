package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/config"
	"github.com/adpulse-io/adpulse/internal/models"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return NewServer(&Dependencies{
		Config: &config.Config{},
		Logger: zap.NewNop(),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func createPerformer(t *testing.T, h http.Handler, email string) models.Performer {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/performers", map[string]string{
		"name":  "Acme",
		"email": email,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p models.Performer
	decode(t, rec, &p)
	return p
}

func createAd(t *testing.T, h http.Handler, email string) models.Ad {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/ads", map[string]interface{}{
		"adName":         "spot",
		"performerEmail": email,
		"adDetails": map[string]interface{}{
			"videoUrl":  "http://cdn.example.com/spot.mp4",
			"targetUrl": "https://example.com",
			"budget":    "medium",
			"skipTime":  5,
			"exitTime":  30,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var ad models.Ad
	decode(t, rec, &ad)
	return ad
}

func eventBody(adID, eventType string, watchDuration float64) map[string]interface{} {
	return map[string]interface{}{
		"adId":      adID,
		"timestamp": "2026-03-14T12:00:00Z",
		"eventDetails": map[string]interface{}{
			"packageName":   "com.example.app",
			"eventType":     eventType,
			"watchDuration": watchDuration,
		},
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPostAdEvent(t *testing.T) {
	h := newTestServer(t)
	createPerformer(t, h, "ads@acme.com")
	ad := createAd(t, h, "ads@acme.com")

	rec := doJSON(t, h, http.MethodPost, "/ad_event", eventBody(ad.ID, "view", 12))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	decode(t, rec, &resp)
	require.NotEmpty(t, resp["eventId"])
}

func TestPostAdEventInvalidType(t *testing.T) {
	h := newTestServer(t)
	createPerformer(t, h, "ads@acme.com")
	ad := createAd(t, h, "ads@acme.com")

	rec := doJSON(t, h, http.MethodPost, "/ad_event", eventBody(ad.ID, "hover", 12))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	decode(t, rec, &resp)
	require.NotEmpty(t, resp["error"])

	// No counter was touched: stats for the ad are still all zero.
	stats := doJSON(t, h, http.MethodGet, fmt.Sprintf("/ads/%s/stats", ad.ID), nil)
	require.Equal(t, http.StatusOK, stats.Code)
	var body models.AdStatsResponse
	decode(t, stats, &body)
	require.Zero(t, body.AdStats.Views)
	require.Zero(t, body.AdStats.Clicks)
}

func TestPostAdEventUnknownAd(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/ad_event", eventBody("no-such-ad", "view", 12))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRandomAdEmptyCatalog(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/ads/random?packageName=com.example.app", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.Bytes())
}

func TestRandomAdMissingPackageName(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/ads/random", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRandomAdReturnsFullDocument(t *testing.T) {
	h := newTestServer(t)
	createPerformer(t, h, "ads@acme.com")
	ad := createAd(t, h, "ads@acme.com")

	rec := doJSON(t, h, http.MethodGet, "/ads/random?packageName=com.example.app", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Ad
	decode(t, rec, &got)
	require.Equal(t, ad.ID, got.ID)
	require.Equal(t, "http://cdn.example.com/spot.mp4", got.Details.VideoURL)
}

func TestAdStatsScenario(t *testing.T) {
	h := newTestServer(t)
	createPerformer(t, h, "ads@acme.com")
	ad := createAd(t, h, "ads@acme.com")

	for _, wd := range []float64{10, 20} {
		rec := doJSON(t, h, http.MethodPost, "/ad_event", eventBody(ad.ID, "view", wd))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/ad_event", eventBody(ad.ID, "click", 0))
	require.Equal(t, http.StatusCreated, rec.Code)

	stats := doJSON(t, h, http.MethodGet, fmt.Sprintf("/ads/%s/stats", ad.ID), nil)
	require.Equal(t, http.StatusOK, stats.Code)

	var body models.AdStatsResponse
	decode(t, stats, &body)
	require.Equal(t, ad.ID, body.AdID)
	require.EqualValues(t, 2, body.AdStats.Views)
	require.EqualValues(t, 1, body.AdStats.Clicks)
	require.Equal(t, 15.0, body.AdStats.AvgWatchDuration)
	require.Equal(t, 50.0, body.AdStats.ClickThroughRate)
	// One click over the medium budget weight of 2.
	require.Equal(t, 50.0, body.AdStats.ConversionRate)
}

func TestAdStatsUnknownAd(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/ads/no-such-ad/stats", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdStatsMalformedDate(t *testing.T) {
	h := newTestServer(t)
	createPerformer(t, h, "ads@acme.com")
	ad := createAd(t, h, "ads@acme.com")

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/ads/%s/stats?from=14-03-2026", ad.ID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPerformerStats(t *testing.T) {
	h := newTestServer(t)
	p := createPerformer(t, h, "ads@acme.com")
	ad := createAd(t, h, "ads@acme.com")

	rec := doJSON(t, h, http.MethodPost, "/ad_event", eventBody(ad.ID, "view", 8))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/ad_event", eventBody(ad.ID, "exit", 0))
	require.Equal(t, http.StatusCreated, rec.Code)

	stats := doJSON(t, h, http.MethodGet, "/performers/"+p.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, stats.Code)

	var body models.PerformerStatsResponse
	decode(t, stats, &body)
	require.Equal(t, p.ID, body.PerformerID)
	require.Len(t, body.AdsStats, 1)
	require.Equal(t, ad.ID, body.AdsStats[0].AdID)
	require.EqualValues(t, 1, body.AdsStats[0].Views)
	require.EqualValues(t, 1, body.AdsStats[0].Exits)
}

func TestPerformerStatsUnknown(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/performers/no-such-performer/stats", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckEmail(t *testing.T) {
	h := newTestServer(t)
	p := createPerformer(t, h, "ads@acme.com")

	rec := doJSON(t, h, http.MethodPost, "/performers/check-email", map[string]string{"email": "ADS@acme.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	decode(t, rec, &resp)
	require.Equal(t, true, resp["exists"])
	require.Equal(t, p.ID, resp["performerId"])

	rec = doJSON(t, h, http.MethodPost, "/performers/check-email", map[string]string{"email": "nobody@acme.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	require.Equal(t, false, resp["exists"])
}

func TestCreatePerformerDuplicateReturnsExisting(t *testing.T) {
	h := newTestServer(t)
	p := createPerformer(t, h, "ads@acme.com")

	rec := doJSON(t, h, http.MethodPost, "/performers", map[string]string{
		"name":  "Acme Again",
		"email": "ads@acme.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var again models.Performer
	decode(t, rec, &again)
	require.Equal(t, p.ID, again.ID)
}

func TestCreateAdUnknownPerformer(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/ads", map[string]interface{}{
		"adName":         "spot",
		"performerEmail": "nobody@acme.com",
		"adDetails": map[string]interface{}{
			"videoUrl":  "http://cdn.example.com/spot.mp4",
			"targetUrl": "https://example.com",
			"budget":    "low",
		},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAdRemovesStats(t *testing.T) {
	h := newTestServer(t)
	createPerformer(t, h, "ads@acme.com")
	ad := createAd(t, h, "ads@acme.com")

	rec := doJSON(t, h, http.MethodPost, "/ad_event", eventBody(ad.ID, "view", 5))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/ads/"+ad.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/ads/"+ad.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/ads/%s/stats", ad.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
