// Package textwrap fits display text into Discord's two-line presence
// area using display-cell widths rather than character counts.
//
// Discord truncates each presence line by rendered width, where East Asian
// wide and full-width characters occupy two cells and most others occupy
// one. [Wrap] splits a string across the two available lines so that
// neither line overflows its cell budget and no wide character is ever
// split across the boundary. Widths come from the range tables in
// github.com/mattn/go-runewidth.
package textwrap

import (
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// ///////////////////////////////////////////////
// Wrap
// ///////////////////////////////////////////////

// Wrap splits text into two lines of at most maxCells display cells each.
//
// Line one is filled greedily. When the fill boundary would land inside a
// word, the split backs up to the last space inside the budget so the word
// moves whole to line two; if line one contains no space the word is split
// hard at the boundary. Whitespace at the split point is consumed. A wide
// rune that would straddle the boundary is pushed whole to line two; a rune
// whose own width exceeds maxCells is dropped entirely. Line two is
// truncated to maxCells with a hard cut and no ellipsis.
//
// Wrap is pure and deterministic.
func Wrap(text string, maxCells int) (line1, line2 string) {
	if maxCells <= 0 || text == "" {
		return "", ""
	}

	runes := []rune(text)

	// Greedy fill of line one. taken holds indices into runes so the
	// split can back up without re-measuring widths.
	var taken []int
	used := 0
	i := 0
	for i < len(runes) {
		w := runewidth.RuneWidth(runes[i])
		if w > maxCells {
			// Wider than the whole budget; cannot render on either line.
			i++
			continue
		}
		if used+w > maxCells {
			break
		}
		taken = append(taken, i)
		used += w
		i++
	}

	if i >= len(runes) {
		return trimRight(runes, taken), ""
	}

	// The boundary landed mid-word: back up to the last space in line
	// one so the word moves whole to line two.
	if !unicode.IsSpace(runes[i]) && len(taken) > 0 && !unicode.IsSpace(runes[taken[len(taken)-1]]) {
		for j := len(taken) - 1; j >= 0; j-- {
			if unicode.IsSpace(runes[taken[j]]) {
				i = taken[j] + 1
				taken = taken[:j]
				break
			}
		}
	}

	line1 = trimRight(runes, taken)

	// Consume whitespace at the split point.
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}

	// Greedy fill of line two with a hard cut at the budget.
	var rest []int
	used = 0
	for ; i < len(runes); i++ {
		w := runewidth.RuneWidth(runes[i])
		if w > maxCells {
			continue
		}
		if used+w > maxCells {
			break
		}
		rest = append(rest, i)
		used += w
	}

	return line1, trimRight(runes, rest)
}

// trimRight assembles the runes at the given indices, dropping trailing
// whitespace.
func trimRight(runes []rune, idx []int) string {
	end := len(idx)
	for end > 0 && unicode.IsSpace(runes[idx[end-1]]) {
		end--
	}
	out := make([]rune, 0, end)
	for _, j := range idx[:end] {
		out = append(out, runes[j])
	}
	return string(out)
}

// ///////////////////////////////////////////////
// TruncateBytes
// ///////////////////////////////////////////////

// TruncateBytes caps s at max encoded bytes, cutting only at rune
// boundaries so the result stays valid UTF-8. Discord rejects details and
// state fields above 128 bytes; callers truncate rather than error.
func TruncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for n < len(s) {
		_, size := utf8.DecodeRuneInString(s[n:])
		if n+size > max {
			break
		}
		n += size
	}
	return s[:n]
}
