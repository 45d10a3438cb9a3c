package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adpulse-io/adpulse/internal/models"
)

// In-memory implementations back the server when PostgreSQL is not
// available and double as fixtures in tests. All mutation happens under a
// single mutex per repo, so the increment-or-initialize and
// append-or-create contracts hold here too.

// =============================================
// Ads
// =============================================

// InMemoryAdRepo provides in-memory storage for the ad catalog.
type InMemoryAdRepo struct {
	mu  sync.RWMutex
	ads map[string]*models.Ad
}

func NewInMemoryAdRepo() *InMemoryAdRepo {
	return &InMemoryAdRepo{ads: make(map[string]*models.Ad)}
}

func (r *InMemoryAdRepo) ListAll(ctx context.Context) ([]*models.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Ad, 0, len(r.ads))
	for _, a := range r.ads {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryAdRepo) GetByID(ctx context.Context, id string) (*models.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.ads[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *InMemoryAdRepo) Insert(ctx context.Context, ad *models.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *ad
	r.ads[ad.ID] = &cp
	return nil
}

func (r *InMemoryAdRepo) Update(ctx context.Context, ad *models.Ad) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.ads[ad.ID]
	if !ok {
		return false, nil
	}
	cp := *ad
	cp.CreatedAt = existing.CreatedAt
	r.ads[ad.ID] = &cp
	return true, nil
}

func (r *InMemoryAdRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ads[id]; !ok {
		return false, nil
	}
	delete(r.ads, id)
	return true, nil
}

// =============================================
// Performers
// =============================================

// InMemoryPerformerRepo provides in-memory storage for performers. Owned ad
// ids are derived from the ad repo, mirroring the SQL join.
type InMemoryPerformerRepo struct {
	mu         sync.RWMutex
	performers map[string]*models.Performer
	byEmail    map[string]string
	ads        *InMemoryAdRepo
}

func NewInMemoryPerformerRepo(ads *InMemoryAdRepo) *InMemoryPerformerRepo {
	return &InMemoryPerformerRepo{
		performers: make(map[string]*models.Performer),
		byEmail:    make(map[string]string),
		ads:        ads,
	}
}

func (r *InMemoryPerformerRepo) ownedAds(performerID string) []string {
	owned := []string{}
	if r.ads == nil {
		return owned
	}
	r.ads.mu.RLock()
	defer r.ads.mu.RUnlock()
	for id, a := range r.ads.ads {
		if a.PerformerID == performerID {
			owned = append(owned, id)
		}
	}
	sort.Strings(owned)
	return owned
}

func (r *InMemoryPerformerRepo) ListAll(ctx context.Context) ([]*models.Performer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Performer, 0, len(r.performers))
	for _, p := range r.performers {
		cp := *p
		cp.Ads = r.ownedAds(p.ID)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *InMemoryPerformerRepo) GetByID(ctx context.Context, id string) (*models.Performer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.performers[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Ads = r.ownedAds(id)
	return &cp, nil
}

func (r *InMemoryPerformerRepo) GetByEmail(ctx context.Context, email string) (*models.Performer, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *InMemoryPerformerRepo) Insert(ctx context.Context, p *models.Performer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.performers[p.ID] = &cp
	r.byEmail[p.Email] = p.ID
	return nil
}

// =============================================
// Events
// =============================================

type dayLog struct {
	createdAt time.Time
	events    []*models.Event
}

// InMemoryEventStore provides in-memory storage for daily event logs.
type InMemoryEventStore struct {
	mu   sync.RWMutex
	days map[string]*dayLog

	// Index for selection lookups: package_name -> set of ad ids.
	seenByPackage map[string]map[string]struct{}
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		days:          make(map[string]*dayLog),
		seenByPackage: make(map[string]map[string]struct{}),
	}
}

func (s *InMemoryEventStore) Append(ctx context.Context, ev *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.days[ev.Day]
	if !ok {
		log = &dayLog{createdAt: ev.CreatedAt}
		s.days[ev.Day] = log
	}
	cp := *ev
	log.events = append(log.events, &cp)

	seen, ok := s.seenByPackage[ev.PackageName]
	if !ok {
		seen = make(map[string]struct{})
		s.seenByPackage[ev.PackageName] = seen
	}
	seen[ev.AdID] = struct{}{}
	return nil
}

func (s *InMemoryEventStore) SeenAdIDs(ctx context.Context, packageName string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen, ok := s.seenByPackage[packageName]
	if !ok {
		return nil, nil
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *InMemoryEventStore) DeleteByAd(ctx context.Context, adID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, log := range s.days {
		kept := log.events[:0]
		for _, ev := range log.events {
			if ev.AdID != adID {
				kept = append(kept, ev)
			}
		}
		log.events = kept
	}
	for _, seen := range s.seenByPackage {
		delete(seen, adID)
	}
	return nil
}

// DayLog returns the events of one day in append order, for tests.
func (s *InMemoryEventStore) DayLog(day string) ([]*models.Event, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.days[day]
	if !ok {
		return nil, time.Time{}
	}
	out := make([]*models.Event, len(log.events))
	copy(out, log.events)
	return out, log.createdAt
}

// =============================================
// Daily stats
// =============================================

type statKey struct {
	performerID string
	adID        string
	day         string
}

// InMemoryStatsRepo provides in-memory storage for daily stat records.
type InMemoryStatsRepo struct {
	mu      sync.RWMutex
	records map[statKey]*models.DailyStat
}

func NewInMemoryStatsRepo() *InMemoryStatsRepo {
	return &InMemoryStatsRepo{records: make(map[statKey]*models.DailyStat)}
}

func (r *InMemoryStatsRepo) Increment(ctx context.Context, performerID, adID, day string, delta models.StatDelta, createdAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := statKey{performerID: performerID, adID: adID, day: day}
	rec, ok := r.records[key]
	if !ok {
		rec = &models.DailyStat{
			PerformerID: performerID,
			AdID:        adID,
			Day:         day,
			CreatedAt:   createdAt,
		}
		r.records[key] = rec
	}
	rec.Views += delta.Views
	rec.Clicks += delta.Clicks
	rec.Skips += delta.Skips
	rec.Exits += delta.Exits
	rec.WatchDurationSum += delta.WatchDurationSum
	return nil
}

func inRange(day string, dr models.DateRange) bool {
	if dr.From != "" && day < dr.From {
		return false
	}
	if dr.To != "" && day > dr.To {
		return false
	}
	return true
}

func (r *InMemoryStatsRepo) ForAd(ctx context.Context, adID string, dr models.DateRange) (models.StatTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var t models.StatTotals
	for key, rec := range r.records {
		if key.adID == adID && inRange(key.day, dr) {
			t.Add(rec)
		}
	}
	return t, nil
}

func (r *InMemoryStatsRepo) ForPerformer(ctx context.Context, performerID string, dr models.DateRange) ([]models.AdTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byAd := make(map[string]*models.StatTotals)
	for key, rec := range r.records {
		if key.performerID != performerID || !inRange(key.day, dr) {
			continue
		}
		t, ok := byAd[key.adID]
		if !ok {
			t = &models.StatTotals{}
			byAd[key.adID] = t
		}
		t.Add(rec)
	}

	out := make([]models.AdTotals, 0, len(byAd))
	for adID, t := range byAd {
		out = append(out, models.AdTotals{AdID: adID, Totals: *t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdID < out[j].AdID })
	return out, nil
}

func (r *InMemoryStatsRepo) DeleteByAd(ctx context.Context, adID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.records {
		if key.adID == adID {
			delete(r.records, key)
		}
	}
	return nil
}

// Record returns a copy of one stat record, for tests.
func (r *InMemoryStatsRepo) Record(performerID, adID, day string) *models.DailyStat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[statKey{performerID: performerID, adID: adID, day: day}]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}
