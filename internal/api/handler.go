// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github-repo-tracker/internal/errors"
	"github-repo-tracker/internal/model"
)

// QueryService is the validated read layer the handlers delegate to.
type QueryService interface {
	TopRepositories(ctx context.Context, sortBy, order string) ([]model.Repository, error)
	Activity(ctx context.Context, owner, name string, since, until time.Time) ([]model.Commit, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	queries QueryService
	logger  *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(queries QueryService, logger *slog.Logger) http.Handler {
	h := &Handler{
		queries: queries,
		logger:  logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/repos/top", h.getTopRepositories)
		r.Get("/repos/{owner}/{name}/activity", h.getActivity)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getTopRepositories handles the ranked top-repositories query.
// GET /v1/repos/top?sort_by=stars&order=DESC
func (h *Handler) getTopRepositories(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort_by")
	order := r.URL.Query().Get("order")

	repos, err := h.queries.TopRepositories(r.Context(), sortBy, order)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidSortField) || errors.Is(err, apperrors.ErrInvalidOrder) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to query top repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, repos)
}

// getActivity handles the windowed commit-activity query. since and until
// are inclusive calendar dates.
// GET /v1/repos/{owner}/{name}/activity?since=2023-01-01&until=2023-01-31
func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	since, err := parseDateParam(r, "since")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	until, err := parseDateParam(r, "until")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	// The until date is inclusive: extend it to the last instant of the day.
	until = until.AddDate(0, 0, 1).Add(-time.Nanosecond)

	commits, err := h.queries.Activity(r.Context(), owner, name, since, until)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRange) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to query activity", "owner", owner, "repo", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, commits)
}

func parseDateParam(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, errors.New("missing required query parameter '" + key + "' (YYYY-MM-DD)")
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("invalid '" + key + "' date: expected YYYY-MM-DD")
	}
	return t, nil
}
