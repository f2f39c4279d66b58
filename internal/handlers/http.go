package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rehabit/internal/cache"
	"rehabit/internal/insight"
	"rehabit/internal/metrics"
	"rehabit/internal/models"
	"rehabit/internal/store"
)

// Handler wires the HTTP API to the store, the analytics service, and
// the cache. Model unavailability degrades responses; it is never
// reported as a request error.
type Handler struct {
	store    *store.Store
	insights *insight.Service
	cache    *cache.InsightCache
}

// New creates a Handler.
func New(st *store.Store, insights *insight.Service, ch *cache.InsightCache) *Handler {
	return &Handler{store: st, insights: insights, cache: ch}
}

// Register attaches all API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/users/create", h.CreateUser)
	mux.HandleFunc("/api/users/get", h.GetUser)
	mux.HandleFunc("/api/activities/log", h.LogActivity)
	mux.HandleFunc("/api/activities", h.ListActivities)
	mux.HandleFunc("/api/dashboard", h.Dashboard)
	mux.HandleFunc("/api/predictions", h.Predictions)
	mux.HandleFunc("/api/pattern", h.Pattern)
	mux.HandleFunc("/api/anomaly", h.Anomaly)
	mux.HandleFunc("/api/recommendations", h.Recommendations)
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/stats", h.GetStats)
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateUser handles POST /api/users/create.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/users/create")()

	if r.Method != http.MethodPost {
		h.error(w, r, "/api/users/create", http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, r, "/api/users/create", http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" {
		h.error(w, r, "/api/users/create", http.StatusBadRequest, "name is required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		h.error(w, r, "/api/users/create", http.StatusBadRequest, "valid email is required")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Name, req.Email)
	if errors.Is(err, store.ErrEmailTaken) {
		h.error(w, r, "/api/users/create", http.StatusBadRequest, "email already registered")
		return
	}
	if err != nil {
		log.Printf("create user: %v", err)
		h.error(w, r, "/api/users/create", http.StatusInternalServerError, "failed to create user")
		return
	}

	h.json(w, r, "/api/users/create", http.StatusOK, user)
}

// GetUser handles GET /api/users/get?user_id=.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/users/get")()

	userID, ok := h.userID(w, r, "/api/users/get")
	if !ok {
		return
	}

	user, err := h.store.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		h.error(w, r, "/api/users/get", http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("get user: %v", err)
		h.error(w, r, "/api/users/get", http.StatusInternalServerError, "failed to get user")
		return
	}

	h.json(w, r, "/api/users/get", http.StatusOK, user)
}

type logActivityRequest struct {
	UserID            int64      `json:"user_id"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
	ActivityType      string     `json:"activity_type"`
	Duration          int        `json:"duration"`
	ProductivityScore int        `json:"productivity_score"`
	FocusLevel        string     `json:"focus_level"`
	Notes             string     `json:"notes,omitempty"`
}

// LogActivity handles POST /api/activities/log.
func (h *Handler) LogActivity(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/activities/log")()

	if r.Method != http.MethodPost {
		h.error(w, r, "/api/activities/log", http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req logActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, r, "/api/activities/log", http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg, ok := validateActivity(req); !ok {
		h.error(w, r, "/api/activities/log", http.StatusBadRequest, msg)
		return
	}

	rec := models.ActivityRecord{
		UserID:            req.UserID,
		ActivityType:      models.ActivityType(req.ActivityType),
		DurationMinutes:   req.Duration,
		ProductivityScore: req.ProductivityScore,
		FocusLevel:        models.FocusLevel(req.FocusLevel),
		Notes:             req.Notes,
	}
	if req.Timestamp != nil {
		rec.Timestamp = *req.Timestamp
	}

	stored, err := h.store.LogActivity(r.Context(), rec)
	if errors.Is(err, store.ErrNotFound) {
		h.error(w, r, "/api/activities/log", http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Printf("log activity: %v", err)
		h.error(w, r, "/api/activities/log", http.StatusInternalServerError, "failed to log activity")
		return
	}

	metrics.ActivitiesLogged.WithLabelValues(string(stored.ActivityType)).Inc()

	// Yesterday's dashboard is stale the moment new activity lands.
	// The request context is done once we respond, so cache writes run
	// on their own context.
	go func(userID int64) {
		if err := h.cache.InvalidateDashboard(context.Background(), userID); err == nil {
			metrics.CacheOperations.WithLabelValues("invalidate_dashboard", "success").Inc()
		} else {
			metrics.CacheOperations.WithLabelValues("invalidate_dashboard", "error").Inc()
		}
	}(stored.UserID)

	h.json(w, r, "/api/activities/log", http.StatusOK, stored)
}

func validateActivity(req logActivityRequest) (string, bool) {
	switch {
	case req.UserID <= 0:
		return "user_id is required", false
	case !models.ValidActivityType(models.ActivityType(req.ActivityType)):
		return "activity_type must be one of work, break, exercise, meeting", false
	case req.Duration < 0:
		return "duration must not be negative", false
	case req.ProductivityScore < 1 || req.ProductivityScore > 10:
		return "productivity_score must be between 1 and 10", false
	case !models.ValidFocusLevel(models.FocusLevel(req.FocusLevel)):
		return "focus_level must be one of low, medium, high", false
	}
	return "", true
}

// ListActivities handles GET /api/activities?user_id=&limit=.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/activities")()

	userID, ok := h.userID(w, r, "/api/activities")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.store.RecentActivities(r.Context(), userID, limit)
	if err != nil {
		log.Printf("list activities: %v", err)
		h.error(w, r, "/api/activities", http.StatusInternalServerError, "failed to list activities")
		return
	}
	if records == nil {
		records = []models.ActivityRecord{}
	}

	h.json(w, r, "/api/activities", http.StatusOK, records)
}

// Dashboard handles GET /api/dashboard?user_id=. The payload is cached
// per user; on a miss the full pipeline runs against the user's history.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/dashboard")()

	userID, ok := h.userID(w, r, "/api/dashboard")
	if !ok {
		return
	}

	if data, hit, err := h.cache.GetDashboard(r.Context(), userID); err == nil && hit {
		metrics.CacheOperations.WithLabelValues("get_dashboard", "hit").Inc()
		metrics.RequestsTotal.WithLabelValues(r.Method, "/api/dashboard", "200").Inc()
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}
	metrics.CacheOperations.WithLabelValues("get_dashboard", "miss").Inc()

	records, err := h.history(w, r, "/api/dashboard", userID)
	if err != nil {
		return
	}

	start := time.Now()
	dashboard := h.insights.BuildDashboard(records)
	metrics.DashboardLatency.Observe(time.Since(start).Seconds())

	h.observeInsights(userID, dashboard)

	payload := map[string]any{"status": "success", "data": dashboard}

	go func() {
		if err := h.cache.StoreDashboard(context.Background(), userID, payload); err == nil {
			metrics.CacheOperations.WithLabelValues("store_dashboard", "success").Inc()
		} else {
			metrics.CacheOperations.WithLabelValues("store_dashboard", "error").Inc()
		}
	}()

	h.json(w, r, "/api/dashboard", http.StatusOK, payload)
}

func (h *Handler) observeInsights(userID int64, d insight.Dashboard) {
	for _, rec := range d.Recommendations {
		metrics.RecommendationsGenerated.WithLabelValues(string(rec.Type)).Inc()
	}
	if d.Anomaly != nil && d.Anomaly.IsAnomaly {
		metrics.AnomaliesDetected.WithLabelValues(string(d.Anomaly.RiskLevel)).Inc()
		go func(report models.AnomalyReport) {
			if err := h.cache.StoreAnomaly(context.Background(), userID, time.Now(), report); err == nil {
				metrics.CacheOperations.WithLabelValues("store_anomaly", "success").Inc()
				log.Printf("ANOMALY DETECTED: user=%d risk=%s score=%.3f alerts=%d",
					userID, report.RiskLevel, report.AnomalyScore, len(report.Alerts))
			} else {
				metrics.CacheOperations.WithLabelValues("store_anomaly", "error").Inc()
			}
		}(*d.Anomaly)
	}
}

// Predictions handles GET /api/predictions?user_id=&periods=.
func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/predictions")()

	userID, ok := h.userID(w, r, "/api/predictions")
	if !ok {
		return
	}
	periods, _ := strconv.Atoi(r.URL.Query().Get("periods"))

	points, err := h.insights.Forecast(periods)
	if err != nil {
		// Model unavailable is a degraded state, not a caller mistake.
		h.json(w, r, "/api/predictions", http.StatusOK, map[string]any{
			"user_id":     userID,
			"available":   false,
			"predictions": []models.ForecastPoint{},
		})
		return
	}

	h.json(w, r, "/api/predictions", http.StatusOK, map[string]any{
		"user_id":     userID,
		"available":   true,
		"predictions": points,
	})
}

// Pattern handles GET /api/pattern?user_id=.
func (h *Handler) Pattern(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/pattern")()

	userID, ok := h.userID(w, r, "/api/pattern")
	if !ok {
		return
	}
	records, err := h.history(w, r, "/api/pattern", userID)
	if err != nil {
		return
	}

	profile, err := h.insights.Pattern(records)
	if err != nil {
		h.json(w, r, "/api/pattern", http.StatusOK, map[string]any{
			"user_id":   userID,
			"available": false,
		})
		return
	}

	h.json(w, r, "/api/pattern", http.StatusOK, map[string]any{
		"user_id":   userID,
		"available": true,
		"pattern":   profile,
	})
}

// Anomaly handles GET /api/anomaly?user_id=.
func (h *Handler) Anomaly(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/anomaly")()

	userID, ok := h.userID(w, r, "/api/anomaly")
	if !ok {
		return
	}
	records, err := h.history(w, r, "/api/anomaly", userID)
	if err != nil {
		return
	}

	report, err := h.insights.Anomaly(records)
	if err != nil {
		h.json(w, r, "/api/anomaly", http.StatusOK, map[string]any{
			"user_id":   userID,
			"available": false,
		})
		return
	}
	if report.IsAnomaly {
		metrics.AnomaliesDetected.WithLabelValues(string(report.RiskLevel)).Inc()
	}

	h.json(w, r, "/api/anomaly", http.StatusOK, map[string]any{
		"user_id":   userID,
		"available": true,
		"anomaly":   report,
	})
}

// Recommendations handles GET /api/recommendations?user_id=.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/api/recommendations")()

	userID, ok := h.userID(w, r, "/api/recommendations")
	if !ok {
		return
	}
	records, err := h.history(w, r, "/api/recommendations", userID)
	if err != nil {
		return
	}

	recs := h.insights.Recommendations(records)
	for _, rec := range recs {
		metrics.RecommendationsGenerated.WithLabelValues(string(rec.Type)).Inc()
	}

	h.json(w, r, "/api/recommendations", http.StatusOK, map[string]any{
		"user_id":         userID,
		"recommendations": recs,
		"generated_at":    time.Now(),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	redisOK := h.cache.Ping(r.Context()) == nil
	dbOK := h.store.Ping(r.Context()) == nil
	available := h.insights.Available()

	status := "healthy"
	httpStatus := http.StatusOK
	if !redisOK || !dbOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"redis":     redisOK,
		"database":  dbOK,
		"models":    available,
		"timestamp": time.Now(),
	})
}

// GetStats handles GET /stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	defer track(r, "/stats")()

	h.json(w, r, "/stats", http.StatusOK, map[string]any{
		"models":    h.insights.Available(),
		"redis":     h.cache.Stats(),
		"timestamp": time.Now(),
	})
}

// userID parses the required user_id query parameter.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request, endpoint string) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		h.error(w, r, endpoint, http.StatusBadRequest, "user_id parameter is required")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.error(w, r, endpoint, http.StatusBadRequest, "user_id must be a positive integer")
		return 0, false
	}
	return id, true
}

// history loads the user's full ordered record history, writing the
// error response itself on failure.
func (h *Handler) history(w http.ResponseWriter, r *http.Request, endpoint string, userID int64) ([]models.ActivityRecord, error) {
	records, err := h.store.History(r.Context(), userID)
	if err != nil {
		log.Printf("load history: %v", err)
		h.error(w, r, endpoint, http.StatusInternalServerError, "failed to load activity history")
		return nil, err
	}
	return records, nil
}

func (h *Handler) json(w http.ResponseWriter, r *http.Request, endpoint string, status int, payload any) {
	metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *Handler) error(w http.ResponseWriter, r *http.Request, endpoint string, status int, msg string) {
	metrics.RequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// track records request latency on return.
func track(r *http.Request, endpoint string) func() {
	start := time.Now()
	return func() {
		metrics.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// CORS allows the web frontend to call the API from another origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
