package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/hangman/internal/domain/types"
	"github.com/okian/hangman/pkg/logger"
)

// GamesHandler serves live-session routes under /games.
type GamesHandler struct {
	deps   GameDependencies
	logger logger.Logger
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GameDependencies, log logger.Logger) *GamesHandler {
	return &GamesHandler{deps: deps, logger: log}
}

type guessRequest struct {
	Letter string `json:"letter"`
}

// HandleStart handles POST /games.
func (h *GamesHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_game"
	g, err := h.deps.StartGame(r.Context(), PlayerFrom(r.Context()))
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// HandleGet handles GET /games/{id}.
func (h *GamesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_game"
	g, err := h.deps.Game(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleGuess handles POST /games/{id}/guess.
func (h *GamesHandler) HandleGuess(w http.ResponseWriter, r *http.Request) {
	const op = "api.guess"
	var req guessRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, h.logger, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	g, err := h.deps.Guess(r.Context(), chi.URLParam(r, "id"), userID(r), req.Letter)
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleAdvance handles POST /games/{id}/advance.
func (h *GamesHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	const op = "api.advance"
	g, err := h.deps.Advance(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleSubmit handles POST /games/{id}/score. The route requires a token.
func (h *GamesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"
	id, err := h.deps.SubmitSession(r.Context(), chi.URLParam(r, "id"), PlayerFrom(r.Context()))
	if err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, types.SubmitResponse{ID: id})
}

// HandleDiscard handles DELETE /games/{id}.
func (h *GamesHandler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	const op = "api.discard_game"
	if err := h.deps.Discard(r.Context(), chi.URLParam(r, "id"), userID(r)); err != nil {
		fail(w, r, h.logger, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
