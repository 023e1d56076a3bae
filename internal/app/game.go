package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/okian/hangman/internal/domain/game"
	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/internal/domain/types"
	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

// StartGame opens a new session at round 1. player may be nil for an
// anonymous session.
func (s *Service) StartGame(ctx context.Context, player *model.Player) (types.Game, error) {
	if err := s.ready(); err != nil {
		return types.Game{}, err
	}
	state, err := s.engine.Start()
	if err != nil {
		return types.Game{}, err
	}

	ls := &liveSession{id: uuid.NewString(), state: state}
	if player != nil && player.UserID != "" {
		owner := *player
		ls.owner = &owner
	}
	ls.touch(s.now())
	s.sessions.add(ls)
	metrics.RecordSessionStarted()

	s.logger.Debug(ctx, "session started",
		logger.String("session", ls.id),
		logger.Bool("anonymous", ls.owner == nil),
	)
	return s.view(ls, ""), nil
}

// Game returns the current view of a session.
func (s *Service) Game(_ context.Context, id, userID string) (types.Game, error) {
	ls, err := s.acquire(id, userID)
	if err != nil {
		return types.Game{}, err
	}
	defer ls.mu.Unlock()
	ls.touch(s.now())
	return s.view(ls, ""), nil
}

// Guess applies letter to the session's current round.
func (s *Service) Guess(ctx context.Context, id, userID, letter string) (types.Game, error) {
	ls, err := s.acquire(id, userID)
	if err != nil {
		return types.Game{}, err
	}
	defer ls.mu.Unlock()
	ls.touch(s.now())

	prev := ls.state
	next, err := s.engine.Guess(prev, letter)
	if err != nil {
		metrics.RecordGuess("rejected")
		return s.view(ls, ""), err
	}
	ls.state = next

	outcome := game.Classify(prev, next)
	metrics.RecordGuess(string(outcome))
	if !prev.Round.Status.Terminal() && next.Round.Status.Terminal() {
		metrics.RecordRound(next.Round.Status.String())
		s.logger.Debug(ctx, "round ended",
			logger.String("session", id),
			logger.Int("round", next.RoundIndex),
			logger.String("result", next.Round.Status.String()),
			logger.Int("points", next.Round.Points),
		)
	}
	return s.view(ls, string(outcome)), nil
}

// Advance moves past a finished round. When the session finishes and has
// an owner its score is submitted; a failed submission is reported in the
// view and can be retried with SubmitSession.
func (s *Service) Advance(ctx context.Context, id, userID string) (types.Game, error) {
	ls, err := s.acquire(id, userID)
	if err != nil {
		return types.Game{}, err
	}
	defer ls.mu.Unlock()
	ls.touch(s.now())

	next, err := s.engine.Advance(ls.state)
	if err != nil {
		return s.view(ls, ""), err
	}
	ls.state = next

	if next.Phase == game.Finished {
		metrics.RecordSessionFinished(next.Score)
		s.logger.Info(ctx, "session finished",
			logger.String("session", id),
			logger.Int("score", next.Score),
			logger.Int("rounds", next.RoundIndex),
		)
		if ls.owner != nil {
			// The error is surfaced through the view.
			_, _ = s.submitLocked(ctx, ls, *ls.owner)
		}
	}
	return s.view(ls, ""), nil
}

// SubmitSession submits a finished session's score for player. It is
// idempotent: a session already queued returns the same record id.
// Submitting an anonymous session claims it for player.
func (s *Service) SubmitSession(ctx context.Context, id string, player *model.Player) (string, error) {
	if player == nil || player.UserID == "" {
		return "", submissionError(ErrUnauthenticated)
	}
	ls, err := s.acquire(id, player.UserID)
	if err != nil {
		return "", err
	}
	defer ls.mu.Unlock()
	ls.touch(s.now())

	if ls.state.Phase != game.Finished {
		return "", ErrNotFinished
	}
	if ls.scoreID != "" {
		return ls.scoreID, nil
	}
	if ls.owner == nil {
		owner := *player
		ls.owner = &owner
	}
	return s.submitLocked(ctx, ls, *player)
}

// Discard drops a session, e.g. when the player starts over or leaves.
func (s *Service) Discard(ctx context.Context, id, userID string) error {
	ls, err := s.acquire(id, userID)
	if err != nil {
		return err
	}
	ls.mu.Unlock()
	if s.sessions.remove(id) {
		metrics.RecordSessionDiscarded()
		s.logger.Debug(ctx, "session discarded", logger.String("session", id))
	}
	return nil
}

// acquire returns the session locked for userID. The caller unlocks it.
func (s *Service) acquire(id, userID string) (*liveSession, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ls, ok := s.sessions.get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	ls.mu.Lock()
	if !ls.ownedBy(userID) {
		ls.mu.Unlock()
		return nil, ErrForbidden
	}
	return ls, nil
}

// submitLocked queues the session's summary. ls.mu must be held.
func (s *Service) submitLocked(ctx context.Context, ls *liveSession, player model.Player) (string, error) {
	scoreID, err := s.Submit(ctx, ls.id, player, ls.state.Summary())
	switch {
	case err == nil:
		ls.scoreID, ls.submitErr = scoreID, ""
	case errors.Is(err, ErrAlreadySubmitted):
		// Queued by a concurrent path; keep whatever id we already know.
		ls.submitErr = ""
	default:
		ls.submitErr = err.Error()
	}
	return scoreID, err
}

// view renders ls for clients. ls.mu must be held.
func (s *Service) view(ls *liveSession, outcome string) types.Game {
	st := ls.state
	r := st.Round
	g := types.Game{
		ID:           ls.id,
		Phase:        st.Phase.String(),
		Round:        st.RoundIndex,
		TotalRounds:  s.engine.TotalRounds(),
		Masked:       r.Masked(),
		Hint:         r.Entry.Hint,
		Category:     r.Entry.Category,
		Guessed:      r.Guessed.String(),
		WrongCount:   r.WrongCount,
		Remaining:    r.Remaining(),
		RoundStatus:  r.Status.String(),
		RoundPoints:  r.Points,
		Score:        st.Score,
		Streak:       st.Streak,
		BestStreak:   st.BestStreak,
		CorrectCount: st.CorrectCount,
		Outcome:      outcome,
	}
	if r.Status.Terminal() {
		g.Word = r.Entry.Word
	}
	switch {
	case ls.scoreID != "":
		g.Submission = &types.Submission{ID: ls.scoreID, State: types.SubmissionQueued}
	case ls.submitErr != "":
		g.Submission = &types.Submission{State: types.SubmissionFailed, Error: ls.submitErr}
	}
	return g
}
