package handler

import (
	"log/slog"
	"net/http"
	"time"

	"wikidash/internal/endpoints"
	"wikidash/internal/httputil"
)

// IndexHandler serves the service status routes
type IndexHandler struct {
	registry *endpoints.Registry
	started  time.Time
	now      func() time.Time
	logger   *slog.Logger
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(registry *endpoints.Registry, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{
		registry: registry,
		started:  time.Now(),
		now:      time.Now,
		logger:   logger,
	}
}

// IndexResponse lists what the API serves
type IndexResponse struct {
	Status    string               `json:"status"`
	Message   string               `json:"message"`
	Endpoints []endpoints.Endpoint `json:"endpoints"`
}

// Routes returns the index and health handlers
func (h *IndexHandler) Routes() map[endpoints.Kind]http.HandlerFunc {
	return map[endpoints.Kind]http.HandlerFunc{
		endpoints.KindIndex:  h.Index,
		endpoints.KindHealth: h.Health,
	}
}

// Index lists every endpoint
// GET /
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, IndexResponse{
		Status:    "online",
		Message:   "WikiDash API is running",
		Endpoints: h.registry.List(),
	})
}

// Health is a simple health check endpoint
// GET /health
func (h *IndexHandler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"time":           now,
		"uptime_seconds": int64(now.Sub(h.started).Seconds()),
	})
}
