// Package chunk splits document text into bounded segments on paragraph
// boundaries so each segment can be annotated in a single pass.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the default chunk size limit, counted in characters.
const DefaultMaxChars = 200_000

const paragraphBreak = "\n\n"

// Chunk is one trimmed segment of the source text.
type Chunk struct {
	Index int    // position in the chunk sequence
	Text  string // trimmed segment text
	Start int    // byte offset of the untrimmed segment in the source
	End   int    // byte offset one past the untrimmed segment
}

// Split cuts text into chunks of at most maxChars characters. A chunk ends
// at the last paragraph break before the limit; when no break lies after the
// chunk start it is cut hard at the limit. The remainder always forms the
// final chunk. Segments that are blank after trimming are folded into the
// following chunk's raw range and never emitted.
func Split(text string, maxChars int) []Chunk {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks []Chunk
	pending := 0 // raw start carried over from skipped blank segments
	start := 0
	for start < len(text) {
		limit, last := advance(text, start, maxChars)

		boundary := limit
		if !last {
			if i := strings.LastIndex(text[start:limit], paragraphBreak); i > 0 {
				boundary = start + i
			}
		}

		trimmed := strings.TrimSpace(text[start:boundary])
		if trimmed != "" {
			chunks = append(chunks, Chunk{
				Index: len(chunks),
				Text:  trimmed,
				Start: pending,
				End:   boundary,
			})
			pending = boundary
		}
		start = boundary
	}

	if n := len(chunks); n > 0 {
		chunks[n-1].End = len(text)
	}
	return chunks
}

// advance returns the byte offset reached after n runes from start, and
// whether that offset is the end of text.
func advance(text string, start, n int) (int, bool) {
	pos := start
	for i := 0; i < n; i++ {
		if pos >= len(text) {
			return len(text), true
		}
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
	return pos, pos >= len(text)
}
