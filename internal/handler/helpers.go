package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"wikidash/internal/domain"
	"wikidash/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var srcErr *domain.SourceError
	var extras map[string]interface{}
	if errors.As(err, &srcErr) {
		extras = map[string]interface{}{"source": srcErr.Source}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrArticleNotFound):
		httputil.RespondErrorWithExtras(w, r, http.StatusNotFound, err.Error(), extras)
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSourceInconsistency):
		logger.Error("upstream inconsistency", "path", r.URL.Path, "error", err)
		httputil.RespondErrorWithExtras(w, r, http.StatusBadGateway, err.Error(), extras)
	// before unavailable: a source that gave up on a deadline wraps it
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", "path", r.URL.Path, "error", err)
		httputil.RespondErrorWithExtras(w, r, http.StatusGatewayTimeout, "analysis did not finish in time", extras)
	case errors.Is(err, domain.ErrSourceUnavailable):
		logger.Warn("upstream unavailable", "path", r.URL.Path, "error", err)
		httputil.RespondErrorWithExtras(w, r, http.StatusServiceUnavailable, err.Error(), extras)
	default:
		logger.Error("unhandled error", "path", r.URL.Path, "error", err)
		httputil.RespondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
