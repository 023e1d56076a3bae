package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/hangman/internal/domain/types"
	"github.com/okian/hangman/pkg/logger"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: publicMessage(status, code, err)})
}

// fail classifies err, logs server-side failures and writes the reply.
func fail(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("code", code),
			logger.Error(Wrap(op, err)),
		)
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// parseLimit reads ?limit=N. A missing value yields def; values below 1
// or above maxLimit are rejected.
func parseLimit(r *http.Request, op string, def, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(def, maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, NewKind(op, ErrBadRequest)
	}
	if n > maxLimit {
		return 0, NewKind(op, ErrLimitExceeded)
	}
	return n, nil
}
