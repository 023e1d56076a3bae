package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hangman/internal/adapters/http/api"
	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/pkg/logger"
)

const tokenTTL = time.Hour

type job struct {
	index  int
	player model.Player
	token  string
}

// Run plays the configured games and verifies the leaderboard afterwards.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("gamesPerPlayer", cfg.GamesPerPlayer),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	// Step 1: check service health
	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, err
	}

	// Step 2: sign in the bots
	players, tokens, err := signPlayers(cfg)
	if err != nil {
		return stats, err
	}

	// Step 3: play every game
	results := playGames(ctx, cfg, players, tokens, stats, log)

	// Step 4: wait until every saved best score is readable
	best := bestScores(results)
	if err := waitForScores(ctx, cfg, best, stats, log); err != nil {
		return stats, err
	}

	// Step 5: check the leaderboard agrees with the per-user view
	if err := verifyLeaderboard(ctx, cfg, best, log); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func checkServiceHealth(ctx context.Context, cfg Config) error {
	client := newHTTPClient(cfg.BaseURL, "", cfg.Timeout)
	if err := client.do(ctx, http.MethodGet, "/stats", nil, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrHealth, err)
	}
	return nil
}

// signPlayers issues tokens for bots named uniquely for this run so earlier
// runs against a persistent store do not skew verification.
func signPlayers(cfg Config) ([]model.Player, []string, error) {
	run := uuid.NewString()[:8]
	players := make([]model.Player, cfg.Players)
	tokens := make([]string, cfg.Players)
	for i := range players {
		players[i] = model.Player{
			UserID:      fmt.Sprintf("bot-%s-%03d", run, i),
			DisplayName: fmt.Sprintf("Bot %03d", i),
		}
		tok, err := api.SignToken(cfg.AuthSecret, players[i], tokenTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("sign token: %w", err)
		}
		tokens[i] = tok
	}
	return players, tokens, nil
}

func playGames(ctx context.Context, cfg Config, players []model.Player, tokens []string, stats *Stats, log logger.Logger) []gameResult {
	total := len(players) * cfg.GamesPerPlayer
	jobs := make(chan job, cfg.Workers*2)
	out := make(chan gameResult, total)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				b := &bot{
					userID: j.player.UserID,
					client: newHTTPClient(cfg.BaseURL, j.token, cfg.Timeout),
					rng:    rand.New(rand.NewSource(cfg.Seed + int64(j.index))), //nolint:gosec // bot choices need no crypto
				}
				res, err := b.play(ctx)
				if err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					log.Warn(ctx, "game failed", logger.String("user", j.player.UserID), logger.Error(err))
					continue
				}
				if cfg.Verbose {
					log.Info(ctx, "game finished",
						logger.String("user", res.userID),
						logger.Int("score", res.score),
						logger.Int("won", res.won),
					)
				}
				out <- res
			}
		}()
	}

	go func() {
		defer close(jobs)
		for n := 0; n < total; n++ {
			i := n % len(players)
			select {
			case <-ctx.Done():
				return
			case jobs <- job{index: n, player: players[i], token: tokens[i]}:
			}
		}
	}()

	wg.Wait()
	close(out)

	results := make([]gameResult, 0, total)
	for res := range out {
		results = append(results, res)
		stats.GamesPlayed++
		stats.RoundsWon += res.won
		stats.RoundsLost += res.lost
		stats.Guesses += res.guesses
		if res.scoreID != "" {
			stats.ScoresQueued++
		}
		if res.retries > 1 {
			stats.ScoresRetried++
		}
		stats.BestScore = max(stats.BestScore, res.score)
	}
	stats.GamesFailed = failed
	return results
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var gamesPerSecond float64
	if stats.Duration > 0 {
		gamesPerSecond = float64(stats.GamesPlayed) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("gamesPlayed", stats.GamesPlayed),
		logger.Int("gamesFailed", stats.GamesFailed),
		logger.Int("roundsWon", stats.RoundsWon),
		logger.Int("roundsLost", stats.RoundsLost),
		logger.Int("guesses", stats.Guesses),
		logger.Int("scoresQueued", stats.ScoresQueued),
		logger.Int("scoresRetried", stats.ScoresRetried),
		logger.Int("playersVerified", stats.PlayersVerified),
		logger.Int("bestScore", stats.BestScore),
		logger.Duration("duration", stats.Duration),
		logger.Any("gamesPerSecond", gamesPerSecond),
	)
}
