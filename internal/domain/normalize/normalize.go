// Package normalize canonicalizes text so that guesses and target words
// compare case- and diacritic-insensitively.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stroked and barred Latin letters have no canonical decomposition, so NFD
// leaves them intact. They map to their plain base letter.
var baseLetters = map[rune]rune{
	'Đ': 'D', 'đ': 'D',
	'Ø': 'O', 'ø': 'O',
	'Ł': 'L', 'ł': 'L',
	'Ħ': 'H', 'ħ': 'H',
	'Ŧ': 'T', 'ŧ': 'T',
	'Ɨ': 'I', 'ɨ': 'I',
	'Ƶ': 'Z', 'ƶ': 'Z',
}

func substitute(r rune) rune {
	if b, ok := baseLetters[r]; ok {
		return b
	}
	return r
}

func newTransformer() transform.Transformer {
	return transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(substitute),
		runes.Map(unicode.ToUpper),
	)
}

// String returns the canonical form of text: decomposed, combining marks
// removed, stroked letters replaced, upper-cased and trimmed.
func String(text string) string {
	out, _, err := transform.String(newTransformer(), text)
	if err != nil {
		// Per-rune fallback: case and stroked letters only.
		out = strings.Map(func(r rune) rune { return unicode.ToUpper(substitute(r)) }, text)
	}
	return strings.TrimSpace(out)
}

// Letter normalizes a single guess. ok is false unless the result is exactly
// one letter in A-Z.
func Letter(s string) (rune, bool) {
	n := String(s)
	if len(n) != 1 {
		return 0, false
	}
	r := rune(n[0])
	if r < 'A' || r > 'Z' {
		return 0, false
	}
	return r, true
}

// Solvable reports whether the normalized form of word contains only A-Z
// letters and single inner spaces, so a Latin keyboard can complete it.
func Solvable(word string) bool {
	n := String(word)
	if n == "" {
		return false
	}
	letters := 0
	for _, r := range n {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
		case r == ' ':
		default:
			return false
		}
	}
	return letters > 0
}
