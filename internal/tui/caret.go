package tui

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Carets are rune offsets. Movement and rendering work on grapheme clusters so
// combined characters and emoji move as one unit.

// graphemeBoundaries returns the rune offsets at which grapheme clusters start,
// plus the total rune count.
func graphemeBoundaries(text string) []int {
	out := []int{0}
	n := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		n += len(g.Runes())
		out = append(out, n)
	}
	return out
}

func nextCaret(text string, caret int) int {
	for _, b := range graphemeBoundaries(text) {
		if b > caret {
			return b
		}
	}
	return utf8.RuneCountInString(text)
}

func prevCaret(text string, caret int) int {
	bs := graphemeBoundaries(text)
	for i := len(bs) - 1; i >= 0; i-- {
		if bs[i] < caret {
			return bs[i]
		}
	}
	return 0
}

// splitAtCaret cuts text into the part before the caret, the grapheme under the
// caret ("" at end of text), and the rest.
func splitAtCaret(text string, caret int) (before, under, after string) {
	runes := []rune(text)
	if caret < 0 {
		caret = 0
	}
	if caret >= len(runes) {
		return text, "", ""
	}
	end := nextCaret(text, caret)
	return string(runes[:caret]), string(runes[caret:end]), string(runes[end:])
}
