// Package simulate drives bot players against a running quiz server and
// checks that their scores land on the leaderboard.
package simulate

import (
	"errors"
	"runtime"
	"time"
)

// Error constants.
var (
	ErrNoPlayers    = errors.New("at least one player is required")
	ErrNoSecret     = errors.New("auth secret is required to save scores")
	ErrHealth       = errors.New("service health check failed")
	ErrVerification = errors.New("leaderboard verification failed")
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL        string        // Base URL of the service
	AuthSecret     string        // HS256 secret shared with the service
	Players        int           // Number of distinct bot players
	GamesPerPlayer int           // Games each bot plays
	Workers        int           // Concurrent games in flight
	TopN           int           // Leaderboard entries fetched for verification
	Timeout        time.Duration // HTTP request timeout
	PersistWait    time.Duration // How long to wait for scores to be stored
	Seed           int64         // Seed for bot letter choices; 0 picks one
	Verbose        bool          // Log every finished game
}

// DefaultConfig returns the settings used when flags are not given.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:9080",
		Players:        20,
		GamesPerPlayer: 3,
		Workers:        runtime.NumCPU() * 2,
		TopN:           10,
		Timeout:        10 * time.Second,
		PersistWait:    30 * time.Second,
	}
}

func (c *Config) validate() error {
	switch {
	case c.Players < 1:
		return ErrNoPlayers
	case c.AuthSecret == "":
		return ErrNoSecret
	}
	if c.GamesPerPlayer < 1 {
		c.GamesPerPlayer = 1
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.TopN < 1 {
		c.TopN = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.PersistWait <= 0 {
		c.PersistWait = 30 * time.Second
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	GamesPlayed     int
	GamesFailed     int
	RoundsWon       int
	RoundsLost      int
	Guesses         int
	ScoresQueued    int
	ScoresRetried   int
	PlayersVerified int
	BestScore       int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
