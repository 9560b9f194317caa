package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

const (
	// defaultWrapWidth is used when the client never reported its window size.
	defaultWrapWidth = 80
	minWrapWidth     = 20
)

// cleanInput drops control characters from a client line, including the bidi
// overrides that would reorder other players' output. Tabs and all printable
// text pass through untouched.
func cleanInput(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return r
		case unicode.IsControl(r), isBidiControl(r):
			return -1
		}
		return r
	}, s)
}

func isBidiControl(r rune) bool {
	return (r >= '\u202a' && r <= '\u202e') || (r >= '\u2066' && r <= '\u2069')
}

// runeCells is the number of terminal columns r occupies.
func runeCells(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

func textCells(s string) int {
	n := 0
	for _, r := range s {
		n += runeCells(r)
	}
	return n
}

// splitCells cuts s after at most cols columns, always taking at least one rune.
func splitCells(s string, cols int) (string, string) {
	used := 0
	for i, r := range s {
		c := runeCells(r)
		if used+c > cols && i > 0 {
			return s[:i], s[i:]
		}
		used += c
	}
	return s, ""
}

// WrapText breaks text into lines of at most cols terminal columns. Existing
// line breaks are kept. Words wider than a whole line are split. Widths below
// 20 columns are raised to 20.
func WrapText(text string, cols int) string {
	if cols <= 0 {
		return text
	}
	cols = max(cols, minWrapWidth)
	paragraphs := strings.Split(text, "\n")
	for i, p := range paragraphs {
		paragraphs[i] = wrapWords(strings.Fields(p), cols)
	}
	return strings.Join(paragraphs, "\n")
}

func wrapWords(words []string, cols int) string {
	var b strings.Builder
	col := 0
	for _, word := range words {
		w := textCells(word)
		if col > 0 {
			if col+1+w <= cols {
				b.WriteByte(' ')
				col++
			} else {
				b.WriteByte('\n')
				col = 0
			}
		}
		for w > cols {
			head, rest := splitCells(word, cols)
			b.WriteString(head)
			b.WriteByte('\n')
			word, w = rest, textCells(rest)
		}
		b.WriteString(word)
		col += w
	}
	return b.String()
}

// resolveName finds the entry of names that target refers to. An exact
// case-folded match wins; otherwise target must prefix exactly one name, or
// with byWord, any word of exactly one name.
func resolveName(target string, names []string, byWord bool) (int, bool) {
	key := NameKey(target)
	if key == "" {
		return -1, false
	}
	found, ambiguous := -1, false
	for i, name := range names {
		candidate := NameKey(name)
		if candidate == key {
			return i, true
		}
		if !prefixes(candidate, key, byWord) {
			continue
		}
		if found >= 0 {
			ambiguous = true
			continue
		}
		found = i
	}
	if found < 0 || ambiguous {
		return -1, false
	}
	return found, true
}

func prefixes(candidate, key string, byWord bool) bool {
	if strings.HasPrefix(candidate, key) {
		return true
	}
	if !byWord {
		return false
	}
	for _, word := range strings.Fields(candidate) {
		if strings.HasPrefix(word, key) {
			return true
		}
	}
	return false
}
