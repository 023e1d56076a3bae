// Package types contains the JSON shapes shared by the HTTP API and its clients.
package types

import (
	"time"

	"github.com/okian/hangman/internal/domain/model"
)

// Entry is one leaderboard row as served over HTTP. Rank is zero outside
// leaderboard listings.
type Entry struct {
	Rank         int       `json:"rank,omitempty"`
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Score        int       `json:"score"`
	TotalRounds  int       `json:"total_rounds"`
	CorrectCount int       `json:"correct_count"`
	BestStreak   int       `json:"best_streak"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromRecord converts a stored record into its wire form.
func FromRecord(rank int, r model.ScoreRecord) Entry {
	return Entry{
		Rank:         rank,
		ID:           r.ID,
		UserID:       r.UserID,
		DisplayName:  r.DisplayName,
		AvatarURL:    r.AvatarURL,
		Score:        r.Score,
		TotalRounds:  r.TotalRounds,
		CorrectCount: r.CorrectCount,
		BestStreak:   r.BestStreak,
		CreatedAt:    r.CreatedAt,
	}
}

// RankResponse answers GET /users/{id}/rank.
type RankResponse struct {
	UserID string `json:"user_id"`
	Rank   int    `json:"rank"`
	Best   Entry  `json:"best"`
}

// SubmitResponse answers an accepted score submission.
type SubmitResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Game is the client view of a live session. Word is only set once the
// current round has ended.
type Game struct {
	ID           string      `json:"id"`
	Phase        string      `json:"phase"`
	Round        int         `json:"round"`
	TotalRounds  int         `json:"total_rounds"`
	Masked       string      `json:"masked"`
	Hint         string      `json:"hint"`
	Category     string      `json:"category"`
	Guessed      string      `json:"guessed"`
	WrongCount   int         `json:"wrong_count"`
	Remaining    int         `json:"remaining"`
	RoundStatus  string      `json:"round_status"`
	RoundPoints  int         `json:"round_points"`
	Word         string      `json:"word,omitempty"`
	Score        int         `json:"score"`
	Streak       int         `json:"streak"`
	BestStreak   int         `json:"best_streak"`
	CorrectCount int         `json:"correct_count"`
	Outcome      string      `json:"outcome,omitempty"`
	Submission   *Submission `json:"submission,omitempty"`
}

// Submission reports what happened to a finished session's score.
type Submission struct {
	ID    string `json:"id,omitempty"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// Submission states.
const (
	SubmissionQueued = "queued"
	SubmissionFailed = "failed"
)
