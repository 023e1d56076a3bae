package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/okian/hangman/internal/domain/types"
)

// letterOrder ranks letters by how often they appear in catalogue words.
const letterOrder = "AENHIOTUGCMRLDSBVKPYQXWFJZ"

const (
	// greedyShare is how often a bot takes the most likely letter.
	greedyShare = 0.8

	submitAttempts = 4
	submitBackoff  = 100 * time.Millisecond
)

// bot plays games for one signed-in player.
type bot struct {
	userID string
	client *httpClient
	rng    *rand.Rand
}

// gameResult is what one finished game reports back to the runner.
type gameResult struct {
	userID  string
	score   int
	won     int
	lost    int
	guesses int
	scoreID string
	retries int
}

// pick returns the next letter to try.
func (b *bot) pick(guessed string) string {
	var open []byte
	for i := 0; i < len(letterOrder); i++ {
		if !strings.ContainsRune(guessed, rune(letterOrder[i])) {
			open = append(open, letterOrder[i])
		}
	}
	if len(open) == 0 {
		return ""
	}
	if b.rng.Float64() < greedyShare {
		return string(open[0])
	}
	return string(open[b.rng.Intn(len(open))])
}

// play runs one game from start to finish.
func (b *bot) play(ctx context.Context) (gameResult, error) {
	res := gameResult{userID: b.userID}

	var g types.Game
	if err := b.client.do(ctx, http.MethodPost, "/games", nil, &g); err != nil {
		return res, fmt.Errorf("start: %w", err)
	}

	for g.Phase != "finished" {
		for g.Phase == "in_round" {
			letter := b.pick(g.Guessed)
			if letter == "" {
				return res, fmt.Errorf("round %d: ran out of letters", g.Round)
			}
			if err := b.client.do(ctx, http.MethodPost, "/games/"+g.ID+"/guess", map[string]string{"letter": letter}, &g); err != nil {
				return res, fmt.Errorf("guess %s: %w", letter, err)
			}
			res.guesses++
		}
		switch g.RoundStatus {
		case "won":
			res.won++
		case "lost":
			res.lost++
		}
		if err := b.client.do(ctx, http.MethodPost, "/games/"+g.ID+"/advance", nil, &g); err != nil {
			return res, fmt.Errorf("advance: %w", err)
		}
	}
	res.score = g.Score

	if g.Submission != nil && g.Submission.State == types.SubmissionQueued {
		res.scoreID = g.Submission.ID
		return res, nil
	}

	// Finishing queues the score on its own; retry when that was refused.
	id, retries, err := b.submit(ctx, g.ID)
	res.scoreID, res.retries = id, retries
	return res, err
}

// submit posts the score, backing off while the server is saturated. It
// returns the record id and the number of attempts made.
func (b *bot) submit(ctx context.Context, gameID string) (string, int, error) {
	backoff := submitBackoff
	var lastErr error
	attempts := 0
	for attempts < submitAttempts {
		attempts++
		var resp types.SubmitResponse
		err := b.client.do(ctx, http.MethodPost, "/games/"+gameID+"/score", nil, &resp)
		if err == nil {
			return resp.ID, attempts, nil
		}
		lastErr = err

		var apiErr *apiError
		if !errors.As(err, &apiErr) || (apiErr.Status != http.StatusTooManyRequests && apiErr.Status != http.StatusServiceUnavailable) {
			break
		}
		select {
		case <-ctx.Done():
			return "", attempts, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return "", attempts, fmt.Errorf("submit: %w", lastErr)
}
