// Package repository persists finished-session score records and answers
// leaderboard queries.
package repository

import (
	"context"

	"github.com/okian/hangman/internal/domain/model"
)

// Store provides read/write access to score records. Records are append
// only; resubmitting a session under a new id adds a second row.
type Store interface {
	// Insert adds rec. It returns ErrDuplicateID if rec.ID is taken.
	Insert(ctx context.Context, rec model.ScoreRecord) error

	// TopScores returns at most n records ordered by model.RanksAbove.
	// Returns ErrInvalidLimit if n < 1.
	TopScores(ctx context.Context, n int) ([]model.ScoreRecord, error)

	// UserBest returns the user's highest ranked record, or ErrNotFound.
	UserBest(ctx context.Context, userID string) (model.ScoreRecord, error)

	// UserRecent returns at most n of the user's records, newest first.
	UserRecent(ctx context.Context, userID string, n int) ([]model.ScoreRecord, error)

	// UserRank returns 1 + the number of records scoring strictly more than
	// the user's best. Returns ErrNotFound if the user has no records.
	UserRank(ctx context.Context, userID string) (int, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Users returns the number of distinct users with at least one record.
	Users(ctx context.Context) (int, error)

	Close() error
}
