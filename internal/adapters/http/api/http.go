// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/okian/hangman/internal/adapters/chat"
	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/internal/domain/presence"
	"github.com/okian/hangman/internal/domain/types"
	"github.com/okian/hangman/pkg/logger"
)

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// GameDependencies drive live sessions.
type GameDependencies interface {
	StartGame(ctx context.Context, player *model.Player) (types.Game, error)
	Game(ctx context.Context, id, userID string) (types.Game, error)
	Guess(ctx context.Context, id, userID, letter string) (types.Game, error)
	Advance(ctx context.Context, id, userID string) (types.Game, error)
	SubmitSession(ctx context.Context, id string, player *model.Player) (string, error)
	Discard(ctx context.Context, id, userID string) error
}

// ChatDependencies forward study-assistant conversations.
type ChatDependencies interface {
	Chat(ctx context.Context, message string, history []chat.Turn) (string, error)
	ChatStream(ctx context.Context, message string, history []chat.Turn, onChunk func(string) error) error
}

// PresenceDependencies expose the online counter and the number of users
// who ever saved a score.
type PresenceDependencies interface {
	Presence() presence.Counter
	TotalPlayers(ctx context.Context) (int, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GameDependencies
	LeaderboardDependencies
	UserDependencies
	ChatDependencies
	PresenceDependencies
	StatsProvider
}

// Option configures a Server.
type Option func(*Server)

// WithAuthSecret sets the HS256 secret used to verify bearer tokens.
func WithAuthSecret(secret string) Option {
	return func(s *Server) { s.auth = NewAuthenticator(secret) }
}

// WithMaxLimit caps ?limit= on list endpoints.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRequestTimeout bounds REST handlers. Websockets and chat are exempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithChatTimeout bounds one chat reply.
func WithChatTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.chatTimeout = d
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	auth           *Authenticator
	maxLimit       int
	requestTimeout time.Duration
	chatTimeout    time.Duration
	logger         logger.Logger

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	gamesHandler       *GamesHandler
	leaderboardHandler *LeaderboardHandler
	usersHandler       *UsersHandler
	chatHandler        *ChatHandler
	presenceHandler    *PresenceHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		auth:           NewAuthenticator(""),
		maxLimit:       100,
		requestTimeout: 10 * time.Second,
		chatTimeout:    30 * time.Second,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("api")

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.gamesHandler = NewGamesHandler(deps, s.logger)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit, s.logger)
	s.usersHandler = NewUsersHandler(deps, s.maxLimit, s.logger)
	s.chatHandler = NewChatHandler(deps, s.chatTimeout, s.logger)
	s.presenceHandler = NewPresenceHandler(deps, s.logger)
	return s
}

// Router returns a chi router with middleware and every API route.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

// Register attaches middleware and all API routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.healthHandler.HandleHealth)
	r.Get("/stats", s.statsHandler.HandleStats)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.requestTimeout))
		r.Use(s.auth.Optional)

		r.Post("/games", s.gamesHandler.HandleStart)
		r.Route("/games/{id}", func(r chi.Router) {
			r.Get("/", s.gamesHandler.HandleGet)
			r.Delete("/", s.gamesHandler.HandleDiscard)
			r.Post("/guess", s.gamesHandler.HandleGuess)
			r.Post("/advance", s.gamesHandler.HandleAdvance)
			r.With(s.auth.Require).Post("/score", s.gamesHandler.HandleSubmit)
		})

		r.Get("/leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/best", s.usersHandler.HandleBest)
			r.Get("/recent", s.usersHandler.HandleRecent)
			r.Get("/rank", s.usersHandler.HandleRank)
		})

		r.Get("/presence", s.presenceHandler.HandleCount)
	})

	r.Post("/chat", s.chatHandler.HandleChat)
	r.Get("/chat/ws", s.chatHandler.HandleStream)
	r.With(s.auth.Optional).Get("/presence/ws", s.presenceHandler.HandleStream)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
}
