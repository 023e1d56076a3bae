// Package wordbank holds the quiz catalogue and draws words without repetition.
package wordbank

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/okian/hangman/internal/domain/normalize"
)

// WordEntry is one playable catalogue item.
type WordEntry struct {
	Word     string `koanf:"word" json:"word"`
	Hint     string `koanf:"hint" json:"hint"`
	Category string `koanf:"category" json:"category"`
}

// Catalogue is an ordered list of entries. Order carries no meaning.
type Catalogue []WordEntry

// Used is the set of words already drawn in a session, keyed by WordEntry.Word.
type Used map[string]struct{}

// Has reports whether word was already drawn.
func (u Used) Has(word string) bool {
	_, ok := u[word]
	return ok
}

// With returns a copy of u that also contains word.
func (u Used) With(word string) Used {
	out := make(Used, len(u)+1)
	for w := range u {
		out[w] = struct{}{}
	}
	out[word] = struct{}{}
	return out
}

// PickUnused draws uniformly among entries whose word is not in used.
// It returns false once every entry has been drawn. used is not modified.
// A nil rng falls back to the package-level source.
func PickUnused(c Catalogue, used Used, rng *rand.Rand) (WordEntry, bool) {
	candidates := make([]int, 0, len(c))
	for i, e := range c {
		if !used.Has(e.Word) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return WordEntry{}, false
	}

	var n int
	if rng != nil {
		n = rng.Intn(len(candidates))
	} else {
		n = rand.Intn(len(candidates)) //nolint:gosec // word choice is not security sensitive
	}
	return c[candidates[n]], true
}

// Validate checks every entry and rejects duplicates by normalized word.
func (c Catalogue) Validate() error {
	seen := make(map[string]int, len(c))
	for i, e := range c {
		if err := ValidateEntry(e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		key := normalize.String(e.Word)
		if j, dup := seen[key]; dup {
			return fmt.Errorf("%w: entry %d %q duplicates entry %d", ErrInvalidEntry, i, e.Word, j)
		}
		seen[key] = i
	}
	return nil
}

// ValidateEntry checks that the word is upper-case letters separated by
// single spaces and that its normalized form is A-Z only.
func ValidateEntry(e WordEntry) error {
	w := e.Word
	switch {
	case strings.TrimSpace(w) == "":
		return fmt.Errorf("%w: empty word", ErrInvalidEntry)
	case w != strings.TrimSpace(w) || strings.Contains(w, "  "):
		return fmt.Errorf("%w: %q has stray spaces", ErrInvalidEntry, w)
	}
	for _, r := range w {
		if r == ' ' || unicode.IsUpper(r) || unicode.Is(unicode.Mn, r) {
			continue
		}
		return fmt.Errorf("%w: %q contains %q", ErrInvalidEntry, w, r)
	}
	if !normalize.Solvable(w) {
		return fmt.Errorf("%w: %q cannot be typed on a Latin keyboard", ErrInvalidEntry, w)
	}
	return nil
}
