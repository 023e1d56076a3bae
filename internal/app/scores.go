package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/hangman/internal/adapters/chat"
	"github.com/okian/hangman/internal/adapters/repository"
	"github.com/okian/hangman/internal/domain/game"
	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/internal/domain/types"
	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

func submissionError(err error) error {
	return fmt.Errorf("%w: %w", repository.ErrSubmission, err)
}

// Submit queues a score record for sessionID and returns its id. A session
// id is accepted once; a failed enqueue or persist releases it for retry.
func (s *Service) Submit(ctx context.Context, sessionID string, player model.Player, sum game.Summary) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if player.UserID == "" {
		metrics.RecordSubmission("rejected")
		return "", submissionError(ErrUnauthenticated)
	}

	rec := model.ScoreRecord{
		ID:           uuid.NewString(),
		UserID:       player.UserID,
		DisplayName:  player.DisplayName,
		AvatarURL:    player.AvatarURL,
		Score:        sum.Score,
		TotalRounds:  sum.TotalRounds,
		CorrectCount: sum.CorrectCount,
		BestStreak:   sum.BestStreak,
		CreatedAt:    s.now().UTC(),
	}
	if err := rec.Validate(); err != nil {
		metrics.RecordSubmission("rejected")
		return "", submissionError(err)
	}

	if s.deduper.SeenAndRecord(ctx, sessionID) {
		metrics.RecordSubmission("duplicate")
		return "", submissionError(ErrAlreadySubmitted)
	}

	if err := s.queue.Enqueue(ctx, model.Submission{SessionID: sessionID, Record: rec}); err != nil {
		s.deduper.Unrecord(ctx, sessionID)
		metrics.RecordSubmission("rejected")
		s.logger.Warn(ctx, "submission refused",
			logger.String("session", sessionID),
			logger.Error(err),
		)
		return "", submissionError(fmt.Errorf("%w: %w", ErrBackpressure, err))
	}

	metrics.RecordSubmission("accepted")
	s.logger.Debug(ctx, "submission queued",
		logger.String("session", sessionID),
		logger.String("record", rec.ID),
		logger.Int("score", rec.Score),
	)
	return rec.ID, nil
}

// onPersistFailure runs on a worker when a record could not be stored. It
// frees the session id so the player can submit again.
func (s *Service) onPersistFailure(sub model.Submission, err error) {
	ctx := context.Background()
	s.deduper.Unrecord(ctx, sub.SessionID)
	s.logger.Error(ctx, "score not saved",
		logger.String("session", sub.SessionID),
		logger.String("record", sub.Record.ID),
		logger.Error(err),
	)

	ls, ok := s.sessions.get(sub.SessionID)
	if !ok {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.scoreID == sub.Record.ID {
		ls.scoreID = ""
		ls.submitErr = submissionError(err).Error()
	}
}

// TopScores returns the best n records with their leaderboard positions.
func (s *Service) TopScores(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	records, err := s.store.TopScores(ctx, n)
	if err != nil {
		return nil, err
	}
	entries := make([]types.Entry, len(records))
	for i, rec := range records {
		entries[i] = types.FromRecord(i+1, rec)
	}
	return entries, nil
}

// UserBest returns the user's best record with its rank.
func (s *Service) UserBest(ctx context.Context, userID string) (types.Entry, error) {
	rank, err := s.UserRank(ctx, userID)
	if err != nil {
		return types.Entry{}, err
	}
	return rank.Best, nil
}

// UserRecent returns at most n of the user's records, newest first.
func (s *Service) UserRecent(ctx context.Context, userID string, n int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	records, err := s.store.UserRecent(ctx, userID, n)
	if err != nil {
		return nil, err
	}
	entries := make([]types.Entry, len(records))
	for i, rec := range records {
		entries[i] = types.FromRecord(0, rec)
	}
	return entries, nil
}

// UserRank returns 1 + the number of records scoring strictly more than the
// user's best, and that best record.
func (s *Service) UserRank(ctx context.Context, userID string) (types.RankResponse, error) {
	if err := s.ready(); err != nil {
		return types.RankResponse{}, err
	}
	best, err := s.store.UserBest(ctx, userID)
	if err != nil {
		return types.RankResponse{}, err
	}
	rank, err := s.store.UserRank(ctx, userID)
	if err != nil {
		return types.RankResponse{}, err
	}
	return types.RankResponse{
		UserID: userID,
		Rank:   rank,
		Best:   types.FromRecord(rank, best),
	}, nil
}

// TotalPlayers returns how many distinct users have saved a score.
func (s *Service) TotalPlayers(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.store.Users(ctx)
}

// Chat forwards one message and its prior turns to the chat collaborator.
func (s *Service) Chat(ctx context.Context, message string, history []chat.Turn) (string, error) {
	if s.chat == nil {
		return "", chat.ErrNotConfigured
	}
	return s.chat.Send(ctx, message, history)
}

// ChatStream is Chat with the reply delivered in chunks.
func (s *Service) ChatStream(ctx context.Context, message string, history []chat.Turn, onChunk func(string) error) error {
	if s.chat == nil {
		return chat.ErrNotConfigured
	}
	err := s.chat.Stream(ctx, message, history, onChunk)
	if err != nil && !errors.Is(err, chat.ErrUnavailable) && !errors.Is(err, chat.ErrEmptyMessage) {
		s.logger.Debug(ctx, "chat stream aborted", logger.Error(err))
	}
	return err
}
