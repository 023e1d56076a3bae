package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/okian/hangman/internal/domain/types"
	"github.com/okian/hangman/pkg/logger"
)

const pollInterval = 100 * time.Millisecond

// bestScores returns each user's highest saved score.
func bestScores(results []gameResult) map[string]int {
	best := make(map[string]int)
	for _, r := range results {
		if r.scoreID == "" {
			continue
		}
		if cur, ok := best[r.userID]; !ok || r.score > cur {
			best[r.userID] = r.score
		}
	}
	return best
}

// waitForScores polls /users/{id}/best until it matches for every user.
func waitForScores(ctx context.Context, cfg Config, best map[string]int, stats *Stats, log logger.Logger) error {
	client := newHTTPClient(cfg.BaseURL, "", cfg.Timeout)
	pending := make(map[string]int, len(best))
	for id, score := range best {
		pending[id] = score
	}

	deadline := time.Now().Add(cfg.PersistWait)
	for len(pending) > 0 {
		for id, want := range pending {
			var got types.Entry
			err := client.do(ctx, http.MethodGet, "/users/"+id+"/best", nil, &got)
			var apiErr *apiError
			switch {
			case err == nil && got.Score == want:
				delete(pending, id)
			case err == nil && got.Score > want:
				return fmt.Errorf("%w: %s best is %d, only %d was played", ErrVerification, id, got.Score, want)
			case err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound):
				return fmt.Errorf("%w: %s: %w", ErrVerification, id, err)
			}
		}
		if len(pending) == 0 {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d players missing saved scores after %s", ErrVerification, len(pending), cfg.PersistWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	stats.PlayersVerified = len(best)
	log.Info(ctx, "saved scores verified", logger.Int("players", len(best)))
	return nil
}

// verifyLeaderboard checks ordering and that the top bot's rank points at
// a leaderboard row with its score.
func verifyLeaderboard(ctx context.Context, cfg Config, best map[string]int, log logger.Logger) error {
	client := newHTTPClient(cfg.BaseURL, "", cfg.Timeout)

	var board []types.Entry
	if err := client.do(ctx, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", cfg.TopN), nil, &board); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if err := checkOrdering(board); err != nil {
		return err
	}
	if len(best) == 0 {
		return nil
	}

	ids := make([]string, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if best[ids[i]] != best[ids[j]] {
			return best[ids[i]] > best[ids[j]]
		}
		return ids[i] < ids[j]
	})
	top := ids[0]

	var rank types.RankResponse
	if err := client.do(ctx, http.MethodGet, "/users/"+top+"/rank", nil, &rank); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if rank.Rank <= len(board) && board[rank.Rank-1].Score != best[top] {
		return fmt.Errorf("%w: %s has rank %d but row %d scores %d, want %d",
			ErrVerification, top, rank.Rank, rank.Rank, board[rank.Rank-1].Score, best[top])
	}

	for i := 0; i < min(len(board), 5); i++ {
		e := board[i]
		log.Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("player", e.DisplayName),
			logger.Int("score", e.Score),
		)
	}
	log.Info(ctx, "leaderboard verified", logger.Int("entries", len(board)), logger.Int("topBotRank", rank.Rank))
	return nil
}

// checkOrdering requires non-increasing scores and consecutive ranks.
func checkOrdering(board []types.Entry) error {
	for i, e := range board {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: row %d has rank %d", ErrVerification, i, e.Rank)
		}
		if i > 0 && e.Score > board[i-1].Score {
			return fmt.Errorf("%w: row %d outscores row %d", ErrVerification, i, i-1)
		}
	}
	return nil
}
