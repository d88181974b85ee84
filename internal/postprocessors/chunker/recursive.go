package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// splitRecursive uses langchaingo's recursive character splitter and recovers
// each piece's offset by scanning forward through the source text. Pieces the
// splitter altered beyond recognition keep the offset of the previous piece.
func splitRecursive(text string, size, overlap int) ([]span, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	out := make([]span, 0, len(pieces))
	cursor, last := 0, 0
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		at := last
		if i := strings.Index(text[cursor:], piece); i >= 0 {
			at = cursor + i
			// Overlapping pieces may start inside this one.
			cursor = at + 1
			for cursor < len(text) && !utf8.RuneStart(text[cursor]) {
				cursor++
			}
		}
		last = at
		out = append(out, span{offset: utf8.RuneCountInString(text[:at]), text: piece})
	}
	return out, nil
}
