// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecord is returned by Validate for records a store must refuse.
var ErrInvalidRecord = errors.New("invalid score record")

// Player identifies the authenticated user behind a session.
type Player struct {
	UserID      string
	DisplayName string
	AvatarURL   string // optional
}

// ScoreRecord is one leaderboard row: the summary of a finished session.
type ScoreRecord struct {
	ID           string
	UserID       string
	DisplayName  string
	AvatarURL    string
	Score        int
	TotalRounds  int
	CorrectCount int
	BestStreak   int
	CreatedAt    time.Time
}

// Validate rejects records that cannot be ranked.
func (r ScoreRecord) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	case r.UserID == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidRecord)
	case r.Score < 0:
		return fmt.Errorf("%w: negative score %d", ErrInvalidRecord, r.Score)
	case r.CorrectCount < 0 || r.CorrectCount > r.TotalRounds:
		return fmt.Errorf("%w: correct count %d outside [0, %d]", ErrInvalidRecord, r.CorrectCount, r.TotalRounds)
	case r.BestStreak < 0 || r.BestStreak > r.CorrectCount:
		return fmt.Errorf("%w: best streak %d outside [0, %d]", ErrInvalidRecord, r.BestStreak, r.CorrectCount)
	}
	return nil
}

// RanksAbove orders the leaderboard: higher score first, then the more
// recent record, then the lower id so the order is total.
func RanksAbove(a, b ScoreRecord) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Submission is a queued request to persist a record. SessionID keys
// idempotency so a finished session lands on the board at most once.
type Submission struct {
	SessionID string
	Record    ScoreRecord
}
