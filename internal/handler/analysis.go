package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"wikidash/internal/domain"
	wikiSvc "wikidash/internal/domain/services/wiki"
	"wikidash/internal/endpoints"
	"wikidash/internal/httputil"
)

// completable is implemented by every analysis view
type completable interface {
	IsComplete() bool
}

// AnalysisHandler serves the analysis endpoints. Each request kind runs
// exactly one pipeline; handlers hold no analysis logic.
type AnalysisHandler struct {
	pipelines map[endpoints.Kind]wikiSvc.Pipeline
	registry  *endpoints.Registry
	logger    *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(pipelines map[endpoints.Kind]wikiSvc.Pipeline, registry *endpoints.Registry, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		pipelines: pipelines,
		registry:  registry,
		logger:    logger,
	}
}

// Routes returns one handler per analysis kind that has a pipeline
func (h *AnalysisHandler) Routes() map[endpoints.Kind]http.HandlerFunc {
	routes := make(map[endpoints.Kind]http.HandlerFunc, len(h.pipelines))
	for kind, run := range h.pipelines {
		ep, _ := h.registry.Get(kind)
		routes[kind] = h.serve(ep, run)
	}
	return routes
}

// serve runs the pipeline for one endpoint
// GET /api/{kind}?title=...
func (h *AnalysisHandler) serve(ep endpoints.Endpoint, run wikiSvc.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseAnalysisRequest(r)
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		view, err := run(r.Context(), req)
		if err != nil {
			handleError(w, r, h.logger, err)
			return
		}

		// Strict endpoints never hand out a degraded view
		if c, ok := view.(completable); ok && !c.IsComplete() {
			if !ep.Partial {
				h.logger.Warn("incomplete view on strict endpoint", "kind", ep.Kind, "title", req.Title)
				httputil.RespondError(w, r, http.StatusServiceUnavailable, "upstream data incomplete")
				return
			}
			h.logger.Debug("partial view served", "kind", ep.Kind, "title", req.Title)
		}

		httputil.RespondJSON(w, http.StatusOK, view)
	}
}

// parseAnalysisRequest reads the shared query parameters. Range checks are
// left to the service.
func parseAnalysisRequest(r *http.Request) (*wikiSvc.AnalysisRequest, error) {
	req := &wikiSvc.AnalysisRequest{
		Title:    httputil.QueryString(r, "title"),
		Timezone: httputil.QueryString(r, "tz"),
		Start:    httputil.QueryString(r, "start"),
		End:      httputil.QueryString(r, "end"),
		Gaps:     httputil.QueryString(r, "gaps"),
	}
	if req.Title == "" {
		return nil, &domain.ValidationError{Message: "title query parameter is required"}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"limit", &req.Limit},
		{"max_revisions", &req.MaxRevisions},
		{"max_age_days", &req.MaxAgeDays},
	}
	for _, p := range ints {
		n, err := httputil.QueryInt(r, p.key)
		if err != nil {
			return nil, &domain.ValidationError{Message: err.Error()}
		}
		if n < 0 {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("%s must not be negative", p.key)}
		}
		*p.dst = n
	}
	return req, nil
}
