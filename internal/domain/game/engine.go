// Package game implements the Hangman round and session state machine as a
// pure transition function over Session values.
package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/hangman/internal/domain/normalize"
	"github.com/okian/hangman/internal/domain/scoring"
	"github.com/okian/hangman/internal/domain/wordbank"
)

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the source used to draw words. Tests pass a seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithTotalRounds overrides the session length. Values outside
// [1, scoring.TotalRounds] are ignored.
func WithTotalRounds(n int) Option {
	return func(e *Engine) {
		if n >= 1 && n <= scoring.TotalRounds {
			e.totalRounds = n
		}
	}
}

// Engine evaluates sessions against a fixed catalogue. It holds no session
// state and is safe for concurrent use.
type Engine struct {
	catalogue   wordbank.Catalogue
	totalRounds int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New returns an Engine for catalogue.
func New(catalogue wordbank.Catalogue, opts ...Option) (*Engine, error) {
	if len(catalogue) == 0 {
		return nil, ErrEmptyCatalogue
	}
	e := &Engine{
		catalogue:   append(wordbank.Catalogue(nil), catalogue...),
		totalRounds: scoring.TotalRounds,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // word choice is not security sensitive
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// TotalRounds returns the session length.
func (e *Engine) TotalRounds() int { return e.totalRounds }

// CatalogueSize returns the number of playable entries.
func (e *Engine) CatalogueSize() int { return len(e.catalogue) }

func (e *Engine) pick(used wordbank.Used) (wordbank.WordEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return wordbank.PickUnused(e.catalogue, used, e.rng)
}

// Start begins a session at round 1.
func (e *Engine) Start() (Session, error) {
	entry, ok := e.pick(nil)
	if !ok {
		return Session{}, ErrEmptyCatalogue
	}
	return Session{
		RoundIndex: 1,
		Used:       wordbank.Used{}.With(entry.Word),
		Phase:      InRound,
		Round:      newRound(entry),
	}, nil
}

// Guess applies one letter to the current round. A letter already guessed
// returns s unchanged with a nil error.
func (e *Engine) Guess(s Session, letter string) (Session, error) {
	l, ok := normalize.Letter(letter)
	if !ok {
		return s, ErrInvalidLetter
	}
	if s.Phase != InRound || s.Round.Status != Playing {
		return s, ErrRoundOver
	}
	if s.Round.Guessed.Has(l) {
		return s, nil
	}

	next := s
	next.Round.Guessed = s.Round.Guessed.With(l)

	if !strings.ContainsRune(s.Round.Target(), l) {
		next.Round.WrongCount++
		if next.Round.WrongCount >= scoring.MaxWrong {
			next.Round.WrongCount = scoring.MaxWrong
			next.Round.Status = Lost
			next.Streak = 0
			next.Phase = AwaitingAdvance
		}
		return next, nil
	}

	if next.Round.complete() {
		points := scoring.RoundPoints(s.Streak, next.Round.WrongCount)
		next.Round.Status = Won
		next.Round.Points = points
		next.Score += points
		next.Streak++
		next.CorrectCount++
		next.BestStreak = max(next.BestStreak, next.Streak)
		next.Phase = AwaitingAdvance
	}
	return next, nil
}

// Advance moves a session past a finished round. It finishes the session
// after the last round or when the catalogue has no unused word left.
func (e *Engine) Advance(s Session) (Session, error) {
	if s.Phase != AwaitingAdvance {
		return s, ErrNotAwaitingAdvance
	}

	next := s
	if s.RoundIndex >= e.totalRounds {
		next.Phase = Finished
		return next, nil
	}

	entry, ok := e.pick(s.Used)
	if !ok {
		next.Phase = Finished
		return next, nil
	}
	next.RoundIndex++
	next.Used = s.Used.With(entry.Word)
	next.Round = newRound(entry)
	next.Phase = InRound
	return next, nil
}

// Event is an input to Apply.
type Event interface {
	isEvent()
}

// GuessEvent submits one letter.
type GuessEvent struct {
	Letter string
}

// AdvanceEvent moves to the next round.
type AdvanceEvent struct{}

func (GuessEvent) isEvent()   {}
func (AdvanceEvent) isEvent() {}

// Apply is the single transition entry point: (session, event) -> session.
func (e *Engine) Apply(s Session, ev Event) (Session, error) {
	switch ev := ev.(type) {
	case GuessEvent:
		return e.Guess(s, ev.Letter)
	case AdvanceEvent:
		return e.Advance(s)
	default:
		return s, ErrUnknownEvent
	}
}

// Outcome classifies a guess by comparing the sessions around it.
type Outcome string

const (
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeHit       Outcome = "hit"
	OutcomeMiss      Outcome = "miss"
)

// Classify reports what a successful Guess did to prev.
func Classify(prev, next Session) Outcome {
	switch {
	case prev.Round.Guessed == next.Round.Guessed:
		return OutcomeDuplicate
	case next.Round.WrongCount > prev.Round.WrongCount:
		return OutcomeMiss
	default:
		return OutcomeHit
	}
}
