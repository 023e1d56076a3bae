package game

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/hangman/internal/domain/normalize"
	"github.com/okian/hangman/internal/domain/scoring"
	"github.com/okian/hangman/internal/domain/wordbank"
)

// Status is the outcome of a round.
type Status int

const (
	Playing Status = iota
	Won
	Lost
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "unknown"
	}
}

// Terminal reports whether the round has ended.
func (s Status) Terminal() bool { return s == Won || s == Lost }

// MarshalText renders the status as its lower-case name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Phase is the session-level position in the round cycle.
type Phase int

const (
	InRound Phase = iota
	AwaitingAdvance
	Finished
)

func (p Phase) String() string {
	switch p {
	case InRound:
		return "in_round"
	case AwaitingAdvance:
		return "awaiting_advance"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase as its snake-case name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Round is one word-guessing attempt.
type Round struct {
	Entry      wordbank.WordEntry
	Guessed    LetterSet
	WrongCount int
	Status     Status
	// Points awarded when the round was won; zero otherwise.
	Points int
}

func newRound(e wordbank.WordEntry) Round {
	return Round{Entry: e, Status: Playing}
}

// Target is the normalized form of the round's word.
func (r Round) Target() string { return normalize.String(r.Entry.Word) }

// Remaining returns the lives left in the round.
func (r Round) Remaining() int { return scoring.MaxWrong - r.WrongCount }

func (r Round) complete() bool {
	for _, c := range r.Target() {
		if c != ' ' && !r.Guessed.Has(c) {
			return false
		}
	}
	return true
}

// Masked renders the word with unguessed letters replaced by '_'. Revealed
// letters keep their original diacritics and spaces are preserved. Once the
// round is lost the whole word is revealed.
func (r Round) Masked() string {
	var b strings.Builder
	b.Grow(len(r.Entry.Word))
	revealPrev := false
	for _, c := range r.Entry.Word {
		if c == ' ' {
			b.WriteRune(' ')
			revealPrev = false
			continue
		}
		n := normalize.String(string(c))
		if n == "" {
			// A detached combining mark sticks to the letter before it.
			if revealPrev {
				b.WriteRune(c)
			}
			continue
		}
		l, _ := utf8.DecodeRuneInString(n)
		revealPrev = r.Status == Lost || r.Guessed.Has(l)
		if revealPrev {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Session is one full play-through. Sessions are values: every transition
// returns a new Session and never writes through to its input.
type Session struct {
	// RoundIndex is 1-based and never exceeds scoring.TotalRounds.
	RoundIndex   int
	Used         wordbank.Used
	Score        int
	Streak       int
	BestStreak   int
	CorrectCount int
	Phase        Phase
	Round        Round
}

// Summary holds the leaderboard fields computed by the engine.
type Summary struct {
	Score        int
	TotalRounds  int
	CorrectCount int
	BestStreak   int
}

// Summary reports the session totals. TotalRounds counts rounds actually
// presented, which is below scoring.TotalRounds when the catalogue ran out.
func (s Session) Summary() Summary {
	return Summary{
		Score:        s.Score,
		TotalRounds:  s.RoundIndex,
		CorrectCount: s.CorrectCount,
		BestStreak:   s.BestStreak,
	}
}
