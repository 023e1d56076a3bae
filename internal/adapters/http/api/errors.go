package api

import (
	"errors"
	"net/http"

	"github.com/okian/hangman/internal/adapters/chat"
	"github.com/okian/hangman/internal/adapters/repository"
	service "github.com/okian/hangman/internal/app"
	"github.com/okian/hangman/internal/domain/game"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrLimitExceeded   = errors.New("limit exceeds the maximum")
	ErrUnauthenticated = errors.New("missing or invalid bearer token")
	ErrHijack          = errors.New("connection does not support hijacking")
)

// chatUnavailableMessage is the one message players see for any chat
// collaborator failure.
const chatUnavailableMessage = "The study assistant is unavailable right now. Please try again later."

// Error is an operation-scoped API error.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op
	}
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error { return &Error{Op: op, Kind: kind} }

// Wrap scopes err to op.
func Wrap(op string, err error) error { return &Error{Op: op, Err: err} }

// WrapKind scopes err to op and tags it with kind.
func WrapKind(op string, kind, err error) error { return &Error{Op: op, Kind: kind, Err: err} }

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins, so specific kinds come before the
// generic ones they wrap.
var errorMappings = []errorMapping{
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrLimitExceeded, http.StatusBadRequest, "limit_exceeded"},
	{ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{game.ErrInvalidLetter, http.StatusBadRequest, "invalid_letter"},
	{game.ErrRoundOver, http.StatusConflict, "round_over"},
	{game.ErrNotAwaitingAdvance, http.StatusConflict, "not_awaiting_advance"},
	{game.ErrEmptyCatalogue, http.StatusServiceUnavailable, "no_words"},
	{service.ErrSessionNotFound, http.StatusNotFound, "not_found"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrNotFinished, http.StatusConflict, "not_finished"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{service.ErrBackpressure, http.StatusTooManyRequests, "backpressure"},
	{service.ErrAlreadySubmitted, http.StatusConflict, "already_submitted"},
	{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
	{repository.ErrSubmission, http.StatusServiceUnavailable, "submission_failed"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrInvalidLimit, http.StatusBadRequest, "bad_request"},
	{chat.ErrEmptyMessage, http.StatusBadRequest, "empty_message"},
	{chat.ErrNotConfigured, http.StatusServiceUnavailable, "chat_unavailable"},
	{chat.ErrUnavailable, http.StatusBadGateway, "chat_unavailable"},
}

// classify maps err to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// publicMessage is the text shown to clients for err.
func publicMessage(status int, code string, err error) string {
	switch {
	case code == "chat_unavailable":
		return chatUnavailableMessage
	case status >= http.StatusInternalServerError && code == "internal_error":
		return http.StatusText(status)
	case err == nil:
		return http.StatusText(status)
	default:
		return err.Error()
	}
}
