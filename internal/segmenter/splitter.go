package segmenter

import "strings"

// SplitOverlapping splits text into chunks of at most size characters, each
// chunk after the first sharing overlap characters with the previous chunk's
// tail. Cuts prefer paragraph breaks, then sentence ends, then whitespace,
// and fall back to a hard cut. Sizes and cuts are measured in runes so a cut
// never lands inside a multi-byte character. The chunks are exact slices of
// the input: concatenating them with the overlap removed reproduces it.
func SplitOverlapping(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := breakPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		next := cut - overlap
		if next <= start {
			// Overlap would stall; drop it for this boundary.
			next = cut
		}
		start = next
	}
	return chunks
}

// breakPoint returns the cut position in (start, end] closest to end that
// lands after a structural boundary. Boundaries closer than half the window
// to start are ignored so chunks stay reasonably full.
func breakPoint(runes []rune, start, end int) int {
	window := runes[start:end]
	floor := len(window) / 2

	for i := len(window) - 2; i >= floor; i-- {
		if window[i] == '\n' && window[i+1] == '\n' {
			return start + i + 2
		}
	}
	for i := len(window) - 2; i >= floor; i-- {
		if isSentenceEnd(window[i]) && isSpace(window[i+1]) {
			return start + i + 2
		}
	}
	for i := len(window) - 1; i >= floor; i-- {
		if isSpace(window[i]) {
			return start + i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
