package chunker

import (
	"strings"
	"unicode"
)

// span is a chunk of section text and its rune offset within the section.
type span struct {
	offset int
	text   string
}

// splitBoundary cuts text into chunks of at most size runes. Each cut prefers,
// in order, a paragraph break, a sentence end, then whitespace within slack
// runes of the target, and falls back to a hard cut. Consecutive chunks share
// overlap runes. Whitespace-only chunks are dropped.
func splitBoundary(text string, size, overlap, slack int) []span {
	r := []rune(text)
	n := len(r)

	var out []span
	start := 0
	for start < n {
		end := start + size
		if end >= n {
			end = n
		} else {
			end = breakPoint(r, start, end, slack)
		}

		piece := string(r[start:end])
		if strings.TrimSpace(piece) != "" {
			out = append(out, span{offset: start, text: piece})
		}
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// breakPoint returns the cut position in (start, end] closest to end.
func breakPoint(r []rune, start, end, slack int) int {
	lo := max(end-slack, start+1)

	for _, isBreak := range []func(r []rune, i int) bool{paragraphEnd, sentenceEnd, wordEnd} {
		for i := end; i >= lo; i-- {
			if isBreak(r, i) {
				return i
			}
		}
	}
	return end
}

func paragraphEnd(r []rune, i int) bool {
	return i >= 2 && r[i-1] == '\n' && r[i-2] == '\n'
}

func sentenceEnd(r []rune, i int) bool {
	switch r[i-1] {
	case '\n':
		return true
	case '.', '!', '?', ';':
		return i == len(r) || unicode.IsSpace(r[i])
	}
	return false
}

func wordEnd(r []rune, i int) bool {
	return unicode.IsSpace(r[i-1])
}
