package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/okian/hangman/internal/adapters/chat"
	"github.com/okian/hangman/internal/adapters/http/api"
	"github.com/okian/hangman/internal/adapters/http/site"
	"github.com/okian/hangman/internal/adapters/http/swagger"
	service "github.com/okian/hangman/internal/app"
	"github.com/okian/hangman/internal/config"
	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

type serveFlags struct {
	configFile string
	addr       string
}

func newServeCmd(root *rootFlags) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, play page and docs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.configFile != "" {
				if err := os.Setenv("HANGMAN_CONFIG", flags.configFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if flags.addr != "" {
				cfg.Addr = flags.addr
			}
			if root.logLevel == "" {
				if err := logger.SetLevelString(cfg.LogLevel); err != nil {
					_ = logger.SetLevelString("info")
				}
			}
			if root.logFormat == "" && cfg.LogFormat != "" {
				if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "YAML config file (env: HANGMAN_CONFIG)")
	cmd.Flags().StringVarP(&flags.addr, "addr", "a", "", "listen address, overrides config (env: HANGMAN_ADDR)")
	return cmd
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config, log logger.Logger) []service.Option {
	opts := []service.Option{
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithStoreDriver(cfg.StoreDriver, cfg.StoreDSN),
		service.WithCataloguePath(cfg.CataloguePath),
		service.WithSessionTTL(cfg.SessionTTL),
		service.WithSweepInterval(cfg.SessionSweepInterval),
		service.WithPresenceStaleAfter(cfg.PresenceStaleAfter),
	}
	if cfg.GeminiAPIKey != "" {
		opts = append(opts, service.WithChat(chat.NewGeminiClient(cfg.GeminiAPIKey,
			chat.WithModel(cfg.GeminiModel),
			chat.WithBaseURL(cfg.GeminiBaseURL),
			chat.WithTimeout(cfg.ChatTimeout),
			chat.WithSystemPrompt(cfg.ChatSystemPrompt),
			chat.WithLogger(log),
		)))
	}
	return opts
}

// newHandler mounts the API, the docs and the play page on one router.
func newHandler(ctx context.Context, cfg *config.Config, svc api.Dependencies, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	// The API registers the router middleware, so it goes first.
	api.NewServer(svc,
		api.WithAuthSecret(cfg.AuthSecret),
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithRequestTimeout(cfg.RequestTimeout),
		api.WithChatTimeout(cfg.ChatTimeout),
		api.WithLogger(log),
	).Register(ctx, r)
	swagger.Register(ctx, r)
	site.Register(ctx, r)
	return r
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	metrics.RegisterRuntimeCollectors()

	if cfg.AuthSecret == "" {
		log.Warn(ctx, "auth_secret is empty; every player is a guest and scores cannot be saved")
	}

	svc := service.New(serviceOptions(cfg, log)...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startServiceMetricsUpdater refreshes the gauges GetStats maintains.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
