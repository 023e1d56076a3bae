package game

import "strings"

// LetterSet is a set of normalized letters A-Z. It is a plain value so that
// copying a Round copies its guesses.
type LetterSet uint32

func bit(r rune) LetterSet {
	if r < 'A' || r > 'Z' {
		return 0
	}
	return 1 << uint(r-'A')
}

// Has reports whether r is in the set.
func (s LetterSet) Has(r rune) bool {
	b := bit(r)
	return b != 0 && s&b != 0
}

// With returns the set plus r.
func (s LetterSet) With(r rune) LetterSet { return s | bit(r) }

// Len returns the number of letters in the set.
func (s LetterSet) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Letters returns the members in alphabetical order.
func (s LetterSet) Letters() []rune {
	out := make([]rune, 0, s.Len())
	for r := 'A'; r <= 'Z'; r++ {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s LetterSet) String() string {
	var b strings.Builder
	for _, r := range s.Letters() {
		b.WriteRune(r)
	}
	return b.String()
}
