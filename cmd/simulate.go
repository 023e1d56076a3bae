package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/hangman/internal/simulate"
)

func newSimulateCmd() *cobra.Command {
	cfg := simulate.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play bot games against a running server and verify the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.AuthSecret == "" {
				cfg.AuthSecret = os.Getenv("HANGMAN_AUTH_SECRET")
			}
			_, err := simulate.Run(cmd.Context(), cfg)
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	fs.StringVar(&cfg.AuthSecret, "secret", "", "token signing secret (env: HANGMAN_AUTH_SECRET)")
	fs.IntVar(&cfg.Players, "players", cfg.Players, "number of bot players")
	fs.IntVar(&cfg.GamesPerPlayer, "games", cfg.GamesPerPlayer, "games per bot")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent games")
	fs.IntVar(&cfg.TopN, "top", cfg.TopN, "leaderboard entries to verify")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	fs.DurationVar(&cfg.PersistWait, "persist-wait", cfg.PersistWait, "how long to wait for scores to be saved")
	fs.Int64Var(&cfg.Seed, "seed", 0, "seed for bot letter choices; 0 picks one")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every finished game")
	return cmd
}
