package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okian/hangman/internal/adapters/chat"
	"github.com/okian/hangman/internal/adapters/mq/queue"
	"github.com/okian/hangman/internal/adapters/repository"
	service "github.com/okian/hangman/internal/app"
	"github.com/okian/hangman/internal/domain/game"
)

func TestClassify(t *testing.T) {
	submission := func(err error) error { return fmt.Errorf("%w: %w", repository.ErrSubmission, err) }

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid letter", game.ErrInvalidLetter, http.StatusBadRequest, "invalid_letter"},
		{"round over", fmt.Errorf("guess: %w", game.ErrRoundOver), http.StatusConflict, "round_over"},
		{"not awaiting", game.ErrNotAwaitingAdvance, http.StatusConflict, "not_awaiting_advance"},
		{"missing session", service.ErrSessionNotFound, http.StatusNotFound, "not_found"},
		{"other owner", service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"guest submit", submission(service.ErrUnauthenticated), http.StatusUnauthorized, "unauthenticated"},
		{"full queue", submission(fmt.Errorf("%w: %w", service.ErrBackpressure, queue.ErrFull)), http.StatusTooManyRequests, "backpressure"},
		{"duplicate", submission(service.ErrAlreadySubmitted), http.StatusConflict, "already_submitted"},
		{"store failure", submission(errors.New("disk full")), http.StatusServiceUnavailable, "submission_failed"},
		{"no records", repository.ErrNotFound, http.StatusNotFound, "not_found"},
		{"bad limit", NewKind("op", ErrBadRequest), http.StatusBadRequest, "bad_request"},
		{"big limit", NewKind("op", ErrLimitExceeded), http.StatusBadRequest, "limit_exceeded"},
		{"chat down", fmt.Errorf("%w: timeout", chat.ErrUnavailable), http.StatusBadGateway, "chat_unavailable"},
		{"chat off", chat.ErrNotConfigured, http.StatusServiceUnavailable, "chat_unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := classify(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.code, code)
		})
	}
}

func TestPublicMessage(t *testing.T) {
	require.Equal(t, chatUnavailableMessage,
		publicMessage(http.StatusBadGateway, "chat_unavailable", errors.New("upstream said 500")))
	require.Equal(t, "Internal Server Error",
		publicMessage(http.StatusInternalServerError, "internal_error", errors.New("pq: secret detail")))
	require.Equal(t, game.ErrInvalidLetter.Error(),
		publicMessage(http.StatusBadRequest, "invalid_letter", game.ErrInvalidLetter))
}

func TestErrorUnwrap(t *testing.T) {
	err := WrapKind("api.guess", ErrBadRequest, errors.New("unexpected EOF"))
	require.ErrorIs(t, err, ErrBadRequest)
	require.Equal(t, "api.guess: bad request: unexpected EOF", err.Error())
	require.Equal(t, "api.x: boom", Wrap("api.x", errors.New("boom")).Error())
}
