package segmenter

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitOverlappingShortText(t *testing.T) {
	chunks := SplitOverlapping("short section", 150, 20)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "short section" {
		t.Errorf("got %q", chunks[0])
	}
}

func TestSplitOverlappingEmpty(t *testing.T) {
	if chunks := SplitOverlapping("   \n ", 100, 10); chunks != nil {
		t.Errorf("expected nil for blank input, got %v", chunks)
	}
}

func TestSplitOverlappingSizeBound(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 40)
	chunks := SplitOverlapping(text, 150, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch) > 150 {
			t.Errorf("chunk %d exceeds size: %d chars", i, len(ch))
		}
	}
}

func TestSplitOverlappingOverlapShared(t *testing.T) {
	text := strings.Repeat("one two three four five six seven eight nine ten. ", 20)
	chunks := SplitOverlapping(text, 120, 30)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-30:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not start with previous chunk's 30-char tail", i)
		}
	}
}

func TestSplitOverlappingReconstructs(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 25))
	overlap := 20
	chunks := SplitOverlapping(text, 160, overlap)
	var b strings.Builder
	b.WriteString(chunks[0])
	for _, ch := range chunks[1:] {
		b.WriteString(ch[overlap:])
	}
	if b.String() != text {
		t.Error("concatenating chunks minus overlap should reproduce the input")
	}
}

func TestSplitOverlappingPrefersSentenceBreaks(t *testing.T) {
	text := strings.Repeat("A complete sentence lives here. ", 30)
	chunks := SplitOverlapping(text, 100, 10)
	// All non-final cuts should land just after a sentence end.
	for i := 0; i < len(chunks)-1; i++ {
		trimmed := strings.TrimRight(chunks[i], " \n")
		if !strings.HasSuffix(trimmed, ".") {
			t.Errorf("chunk %d should end at a sentence boundary, got %q", i, chunks[i][len(chunks[i])-12:])
		}
	}
}

func TestSplitOverlappingMultiByteText(t *testing.T) {
	text := strings.Repeat("日本語の研究論文の本文", 40)
	overlap := 20
	chunks := SplitOverlapping(text, 100, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if !utf8.ValidString(ch) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, ch)
		}
		if n := utf8.RuneCountInString(ch); n > 100 {
			t.Errorf("chunk %d exceeds size: %d runes", i, n)
		}
	}
	var b strings.Builder
	b.WriteString(chunks[0])
	for _, ch := range chunks[1:] {
		b.WriteString(string([]rune(ch)[overlap:]))
	}
	if b.String() != text {
		t.Error("concatenating chunks minus overlap should reproduce the input")
	}
}

func TestSplitOverlappingMultiByteSentences(t *testing.T) {
	text := strings.Repeat("これは完全な文です. ", 30)
	chunks := SplitOverlapping(text, 80, 10)
	for i, ch := range chunks {
		if !utf8.ValidString(ch) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
	for i := 0; i < len(chunks)-1; i++ {
		trimmed := strings.TrimRight(chunks[i], " \n")
		if !strings.HasSuffix(trimmed, ".") {
			t.Errorf("chunk %d should end at a sentence boundary", i)
		}
	}
}

func TestSplitOverlappingHardCutFallback(t *testing.T) {
	text := strings.Repeat("x", 500)
	chunks := SplitOverlapping(text, 100, 10)
	for i, ch := range chunks {
		if len(ch) > 100 {
			t.Errorf("chunk %d exceeds size on unbreakable text", i)
		}
	}
	if len(chunks) < 5 {
		t.Errorf("expected at least 5 chunks, got %d", len(chunks))
	}
}
