package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adpulse-io/adpulse/internal/config"
	"github.com/adpulse-io/adpulse/internal/database"
	"github.com/adpulse-io/adpulse/internal/metrics"
	"github.com/adpulse-io/adpulse/internal/models"
	"github.com/adpulse-io/adpulse/internal/service"
	"github.com/adpulse-io/adpulse/internal/storage"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB      *database.PostgresDB
	Redis   *database.RedisDB
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Server wraps HTTP handlers and the ad serving services.
type Server struct {
	ingestService    *service.IngestService
	selectorService  *service.SelectorService
	statsService     *service.StatsService
	adService        *service.AdService
	performerService *service.PerformerService
	logger           *zap.Logger
	config           *config.Config
	metrics          *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	// Initialize repositories
	var adRepo storage.AdRepo
	var performerRepo storage.PerformerRepo
	var eventStore storage.EventStore
	var statsRepo storage.StatsRepo

	if deps.DB != nil {
		adRepo = storage.NewPostgresAdRepo(deps.DB.Pool)
		performerRepo = storage.NewPostgresPerformerRepo(deps.DB.Pool)
		eventStore = storage.NewPostgresEventStore(deps.DB.Pool)
		statsRepo = storage.NewPostgresStatsRepo(deps.DB.Pool)
	} else {
		memAds := storage.NewInMemoryAdRepo()
		adRepo = memAds
		performerRepo = storage.NewInMemoryPerformerRepo(memAds)
		eventStore = storage.NewInMemoryEventStore()
		statsRepo = storage.NewInMemoryStatsRepo()
	}

	// Exposure cache is optional; selection falls back to the event store.
	var cache *service.ExposureCache
	if deps.Redis != nil {
		cache = service.NewExposureCache(deps.Redis.Client, deps.Config.Redis.ExposureTTL, deps.Logger)
	}

	s := &Server{
		ingestService:    service.NewIngestService(adRepo, eventStore, statsRepo, cache, deps.Metrics, deps.Logger),
		selectorService:  service.NewSelectorService(adRepo, eventStore, cache, deps.Metrics, deps.Logger),
		statsService:     service.NewStatsService(adRepo, performerRepo, statsRepo, deps.Metrics, deps.Logger),
		adService:        service.NewAdService(adRepo, performerRepo, eventStore, statsRepo, deps.Logger),
		performerService: service.NewPerformerService(performerRepo, deps.Logger),
		logger:           deps.Logger,
		config:           deps.Config,
		metrics:          deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Event ingestion
	mux.HandleFunc("/ad_event", s.handleAdEvent)

	// Ad catalog and selection
	mux.HandleFunc("/ads", s.handleAds)
	mux.HandleFunc("/ads/random", s.handleRandomAd)
	mux.HandleFunc("/ads/", s.handleAdByID)

	// Performers
	mux.HandleFunc("/performers", s.handlePerformers)
	mux.HandleFunc("/performers/check-email", s.handleCheckEmail)
	mux.HandleFunc("/performers/", s.handlePerformerByID)

	return mux
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Event Ingestion ----

func (s *Server) handleAdEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	event, err := s.ingestService.Record(r.Context(), &req)
	if err != nil {
		s.serviceError(w, err, "record event")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"eventId": event.ID})
}

// ---- Ad Selection ----

func (s *Server) handleRandomAd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	packageName := r.URL.Query().Get("packageName")
	if packageName == "" {
		s.errorResponse(w, "packageName query parameter is required", http.StatusBadRequest)
		return
	}

	ad, err := s.selectorService.SelectRandom(r.Context(), packageName)
	if err != nil {
		s.serviceError(w, err, "select ad")
		return
	}
	if ad == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.jsonResponse(w, ad)
}

// ---- Ad Catalog ----

func (s *Server) handleAds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ads, err := s.adService.List(r.Context())
		if err != nil {
			s.serviceError(w, err, "list ads")
			return
		}
		s.jsonResponse(w, map[string]interface{}{"ads": ads})

	case http.MethodPost:
		var req models.CreateAdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		ad, err := s.adService.Create(r.Context(), &req)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				s.errorResponse(w, "performer not found", http.StatusNotFound)
				return
			}
			s.serviceError(w, err, "create ad")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ad)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/ads/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleAd(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "stats":
		s.handleAdStats(w, r, parts[0])
	default:
		s.errorResponse(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleAd(w http.ResponseWriter, r *http.Request, adID string) {
	switch r.Method {
	case http.MethodGet:
		ad, err := s.adService.Get(r.Context(), adID)
		if err != nil {
			s.serviceError(w, err, "get ad")
			return
		}
		s.jsonResponse(w, ad)

	case http.MethodPut:
		var req models.UpdateAdRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		ad, err := s.adService.Update(r.Context(), adID, &req)
		if err != nil {
			s.serviceError(w, err, "update ad")
			return
		}
		s.jsonResponse(w, ad)

	case http.MethodDelete:
		if err := s.adService.Delete(r.Context(), adID); err != nil {
			s.serviceError(w, err, "delete ad")
			return
		}
		s.jsonResponse(w, map[string]string{"deleted": adID})

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Stats Queries ----

func (s *Server) handleAdStats(w http.ResponseWriter, r *http.Request, adID string) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dr, err := parseDateRange(r)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.statsService.StatsForAd(r.Context(), adID, dr)
	if err != nil {
		s.serviceError(w, err, "ad stats")
		return
	}
	s.jsonResponse(w, resp)
}

func (s *Server) handlePerformerByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/performers/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	if len(parts) != 2 || parts[1] != "stats" {
		s.errorResponse(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dr, err := parseDateRange(r)
	if err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.statsService.StatsForPerformer(r.Context(), parts[0], dr)
	if err != nil {
		s.serviceError(w, err, "performer stats")
		return
	}
	s.jsonResponse(w, resp)
}

// ---- Performers ----

func (s *Server) handlePerformers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		performers, err := s.performerService.List(r.Context())
		if err != nil {
			s.serviceError(w, err, "list performers")
			return
		}
		s.jsonResponse(w, map[string]interface{}{"performers": performers})

	case http.MethodPost:
		var req models.CreatePerformerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		performer, created, err := s.performerService.Create(r.Context(), &req)
		if err != nil {
			s.serviceError(w, err, "create performer")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if created {
			w.WriteHeader(http.StatusCreated)
		}
		_ = json.NewEncoder(w).Encode(performer)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	performer, err := s.performerService.CheckEmail(r.Context(), req.Email)
	if err != nil {
		s.serviceError(w, err, "check email")
		return
	}

	resp := map[string]interface{}{"exists": performer != nil}
	if performer != nil {
		resp["performerId"] = performer.ID
	}
	s.jsonResponse(w, resp)
}

// ---- Helpers ----

// parseDateRange reads optional inclusive from/to bounds in YYYY-MM-DD form.
func parseDateRange(r *http.Request) (models.DateRange, error) {
	var dr models.DateRange
	q := r.URL.Query()

	if from := q.Get("from"); from != "" {
		if _, err := time.Parse("2006-01-02", from); err != nil {
			return dr, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		dr.From = from
	}
	if to := q.Get("to"); to != "" {
		if _, err := time.Parse("2006-01-02", to); err != nil {
			return dr, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		dr.To = to
	}
	return dr, nil
}

// serviceError maps service-layer errors onto HTTP status codes.
func (s *Server) serviceError(w http.ResponseWriter, err error, op string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		s.errorResponse(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, service.ErrNotFound):
		s.errorResponse(w, "not found", http.StatusNotFound)
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
