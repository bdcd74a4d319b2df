package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/prompt-favorites/internal/favorites/domain"
	"github.com/tair/prompt-favorites/internal/favorites/usecase/command"
	"github.com/tair/prompt-favorites/internal/favorites/usecase/query"
	"github.com/tair/prompt-favorites/pkg/logger"
)

// FavoriteHandler handles HTTP requests for favorites
type FavoriteHandler struct {
	// Command handlers
	createHandler *command.CreateFavoriteHandler
	deleteHandler *command.DeleteFavoriteHandler

	// Query handlers
	listHandler *query.ListFavoritesHandler

	repo domain.FavoriteRepository

	// degraded disables writes when the schema could not be reconciled
	// at boot. Set once before the server starts serving.
	degraded bool

	requestCounter  *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	storedFavorites prometheus.Gauge
}

// NewFavoriteHandler creates a new favorite handler with metrics on the
// default Prometheus registerer
func NewFavoriteHandler(repo domain.FavoriteRepository) *FavoriteHandler {
	return NewFavoriteHandlerWithRegistry(repo, prometheus.DefaultRegisterer)
}

// NewFavoriteHandlerWithRegistry creates a new favorite handler with
// metrics registered on the given registerer
func NewFavoriteHandlerWithRegistry(repo domain.FavoriteRepository, reg prometheus.Registerer) *FavoriteHandler {
	// Initialize command handlers
	createHandler := command.NewCreateFavoriteHandler(repo)
	deleteHandler := command.NewDeleteFavoriteHandler(repo)

	// Initialize query handlers
	listHandler := query.NewListFavoritesHandler(repo)

	// Initialize Prometheus metrics
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favorites_service_requests_total",
			Help: "Total number of requests to favorites service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "favorites_service_request_duration_seconds",
			Help:    "Duration of favorites service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	storedFavorites := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "favorites_service_stored_favorites",
			Help: "Number of favorite records currently stored",
		},
	)

	reg.MustRegister(requestCounter)
	reg.MustRegister(requestLatency)
	reg.MustRegister(storedFavorites)

	return &FavoriteHandler{
		createHandler:   createHandler,
		deleteHandler:   deleteHandler,
		listHandler:     listHandler,
		repo:            repo,
		requestCounter:  requestCounter,
		requestLatency:  requestLatency,
		storedFavorites: storedFavorites,
	}
}

// SetDegraded switches the handler into read-only mode. Called at boot
// when schema reconciliation fails; writes return 503 until resolved.
func (h *FavoriteHandler) SetDegraded(degraded bool) {
	h.degraded = degraded
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *FavoriteHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// CreateFavorite handles POST /api/favorites
func (h *FavoriteHandler) CreateFavorite(w http.ResponseWriter, r *http.Request) {
	if h.degraded {
		h.respondError(w, http.StatusServiceUnavailable, domain.KindSchemaReconciliation,
			"Service is read-only until schema reconciliation succeeds")
		return
	}

	var req struct {
		UserID     string   `json:"userId"`
		Prompt     string   `json:"prompt"`
		Categories []string `json:"categories"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, domain.KindValidation, "Invalid request body")
		return
	}

	cmd := command.CreateFavoriteCommand{
		UserID:     req.UserID,
		Prompt:     req.Prompt,
		Categories: req.Categories,
	}

	favorite, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	h.updateStoredFavoritesMetric(r.Context())
	h.respondJSON(w, http.StatusCreated, favorite)
}

// ListFavorites handles GET /api/favorites?userId=<id>
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.respondError(w, http.StatusBadRequest, domain.KindValidation, "userId query parameter is required")
		return
	}

	q := query.ListFavoritesQuery{UserID: userID}
	favorites, err := h.listHandler.Handle(r.Context(), q)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, favorites)
}

// DeleteFavorite handles DELETE /api/favorites/{id}
func (h *FavoriteHandler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	if h.degraded {
		h.respondError(w, http.StatusServiceUnavailable, domain.KindSchemaReconciliation,
			"Service is read-only until schema reconciliation succeeds")
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, domain.KindValidation, "Invalid favorite ID")
		return
	}

	cmd := command.DeleteFavoriteCommand{ID: id}
	deleted, err := h.deleteHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	h.updateStoredFavoritesMetric(r.Context())
	h.respondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// HealthCheck handles GET /health
func (h *FavoriteHandler) HealthCheck(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		// Check database connectivity
		if err := db.PingContext(ctx); err != nil {
			h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
			})
			return
		}

		h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// updateStoredFavoritesMetric updates the stored favorites gauge
func (h *FavoriteHandler) updateStoredFavoritesMetric(ctx context.Context) {
	count, err := h.repo.Count(ctx)
	if err == nil {
		h.storedFavorites.Set(float64(count))
	}
}

// respondDomainError maps a domain error to a status code and a uniform
// payload. Store failures are logged server-side and never forwarded.
func (h *FavoriteHandler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch domain.Kind(err) {
	case domain.KindValidation:
		h.respondError(w, http.StatusBadRequest, domain.KindValidation, domain.Detail(err))
	case domain.KindSchemaReconciliation:
		h.respondError(w, http.StatusServiceUnavailable, domain.KindSchemaReconciliation,
			"Service is read-only until schema reconciliation succeeds")
	default:
		logger.Error(r.Context()).Err(err).Msg("Store operation failed")
		h.respondError(w, http.StatusServiceUnavailable, domain.KindStoreUnavailable, "Store unavailable")
	}
}

// respondJSON sends a JSON response
func (h *FavoriteHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func (h *FavoriteHandler) respondError(w http.ResponseWriter, status int, kind, message string) {
	h.respondJSON(w, status, map[string]string{"error": kind, "message": message})
}

// RegisterRoutes registers all favorite routes behind the API key gate
func (h *FavoriteHandler) RegisterRoutes(router *mux.Router, gate func(http.HandlerFunc) http.HandlerFunc) {
	router.HandleFunc("/api/favorites", h.metricsMiddleware("/api/favorites", gate(h.CreateFavorite))).Methods("POST")
	router.HandleFunc("/api/favorites", h.metricsMiddleware("/api/favorites", gate(h.ListFavorites))).Methods("GET")
	router.HandleFunc("/api/favorites/{id}", h.metricsMiddleware("/api/favorites/{id}", gate(h.DeleteFavorite))).Methods("DELETE")
}

// RegisterHealthCheck registers health check endpoint
func (h *FavoriteHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", h.HealthCheck(db)).Methods("GET")
}
