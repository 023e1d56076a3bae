package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/hangman/internal/domain/types"
	"github.com/okian/hangman/pkg/logger"
)

// UserDependencies defines the per-user read operations.
type UserDependencies interface {
	UserBest(ctx context.Context, userID string) (Entry, error)
	UserRecent(ctx context.Context, userID string, n int) ([]Entry, error)
	UserRank(ctx context.Context, userID string) (types.RankResponse, error)
}

// UsersHandler handles /users/{id} requests.
type UsersHandler struct {
	deps     UserDependencies
	maxLimit int
	logger   logger.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies, maxLimit int, log logger.Logger) *UsersHandler {
	return &UsersHandler{deps: deps, maxLimit: maxLimit, logger: log}
}

// HandleBest handles GET /users/{id}/best.
func (h *UsersHandler) HandleBest(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_best"
	entry, err := h.deps.UserBest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleRecent handles GET /users/{id}/recent?limit=N.
func (h *UsersHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_recent"
	n, err := parseLimit(r, op, defaultLimit, h.maxLimit)
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	entries, err := h.deps.UserRecent(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleRank handles GET /users/{id}/rank.
func (h *UsersHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.user_rank"
	rank, err := h.deps.UserRank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}
