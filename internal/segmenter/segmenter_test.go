package segmenter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hyperjump/ronbun/internal/models"
)

const samplePaper = `Preamble text before any heading is dropped.

# 1. Introduction

This paper studies retrieval. It proposes a pipeline. The pipeline chunks text.

## 2. Methods

We segment documents into sections. Sections become overlapping chunks.

### Acknowledgments

Thanks to everyone involved.

## 3. Results

The approach works well in practice.

# References

[1] Some citation that should never be indexed.
`

func TestTitleToID(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"1. Introduction", "introduction"},
		{"3 Experimental Results", "experimental_results"},
		{"Related   Work", "related_work"},
		{"Pre-trained Models!", "pre_trained_models"},
		{"2.", ""},
	}
	for _, tt := range tests {
		if got := TitleToID(tt.title); got != tt.want {
			t.Errorf("TitleToID(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSectionsScan(t *testing.T) {
	s := New(500, 50)
	sections := s.Sections(samplePaper)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].ID != "introduction" || sections[0].Level != 1 {
		t.Errorf("unexpected first section: %+v", sections[0])
	}
	if sections[1].ID != "methods" || sections[1].Level != 2 {
		t.Errorf("unexpected second section: %+v", sections[1])
	}
	if sections[2].ID != "results" {
		t.Errorf("unexpected third section: %+v", sections[2])
	}
	for _, sec := range sections {
		if strings.Contains(sec.Content, "Thanks to everyone") {
			t.Error("acknowledgments content leaked into a section")
		}
		if strings.Contains(sec.Content, "citation") {
			t.Error("references content leaked into a section")
		}
	}
	if sections[2].Position != 2 {
		t.Errorf("position should be ordinal, got %d", sections[2].Position)
	}
}

func TestSectionsNoHeadings(t *testing.T) {
	s := New(500, 50)
	if sections := s.Sections("just a plain paragraph\nwith no structure"); len(sections) != 0 {
		t.Errorf("expected no sections, got %d", len(sections))
	}
}

func TestSectionsExcludedAtEndOfDocument(t *testing.T) {
	s := New(500, 50)
	text := "# Intro\n\ncontent here\n\n## Acknowledgements\n\nthank you notes"
	sections := s.Sections(text)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].ID != "intro" {
		t.Errorf("got %q", sections[0].ID)
	}
}

func TestSegmentMetadata(t *testing.T) {
	s := New(150, 20)
	chunks := s.Segment(samplePaper, "My Project", "paper.pdf")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has global index %d", i, ch.Index)
		}
		if ch.SectionID == "" {
			t.Errorf("chunk %d missing section id", i)
		}
		if ch.Text == "" {
			t.Errorf("chunk %d has empty text", i)
		}
		md := ch.Metadata
		if md[models.MetaProjectTitle] != "My Project" || md[models.MetaPaperName] != "paper.pdf" {
			t.Errorf("chunk %d metadata missing ownership context: %v", i, md)
		}
		if md[models.MetaSectionTitle] == "" || md[models.MetaSectionLevel] == "" {
			t.Errorf("chunk %d metadata missing section context: %v", i, md)
		}
		if md[models.MetaChunkPosition] == "" || md[models.MetaSectionChunks] == "" {
			t.Errorf("chunk %d metadata missing position context: %v", i, md)
		}
	}
}

func TestSegmentPositionWithinSection(t *testing.T) {
	s := New(100, 10)
	long := "# Only\n\n" + strings.Repeat("a sentence that repeats. ", 30)
	chunks := s.Segment(long, "p", "n")
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	total := chunks[0].Metadata[models.MetaSectionChunks]
	for i, ch := range chunks {
		if ch.Metadata[models.MetaSectionChunks] != total {
			t.Errorf("chunk %d disagrees on section total", i)
		}
	}
	if chunks[0].Metadata[models.MetaChunkPosition] != "1" {
		t.Error("positions should be 1-based")
	}
}

func TestSegmentNoHeadingsYieldsNoChunks(t *testing.T) {
	s := New(150, 20)
	if chunks := s.Segment("plain text, no headings at all", "p", "n"); len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestSegmentDeterministic(t *testing.T) {
	intro := "# Intro\n\n" + strings.Repeat("Retrieval systems index documents. ", 40)
	method := "## Method\n\n" + strings.Repeat("We evaluate chunking strategies carefully. ", 60)
	text := intro + "\n" + method
	s := New(150, 20)
	a := s.Segment(text, "p", "n")
	b := s.Segment(text, "p", "n")
	if len(a) != len(b) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Text != b[i].Text {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSectionCoverageReconstruction(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("Coverage must be exact for retrieval. ", 30))
	text := "# Solo\n\n" + content
	s := New(120, 15)
	sections := s.Sections(text)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	parts := SplitOverlapping(sections[0].Content, 120, 15)
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		b.WriteString(p[15:])
	}
	if b.String() != sections[0].Content {
		t.Error("chunks minus overlap should reconstruct the section content")
	}
}

func TestSegmentMultiByteSectionValidUTF8(t *testing.T) {
	text := "# Setting\n\n" + strings.Repeat("日本語の研究論文の本文", 40)
	s := New(100, 20)
	chunks := s.Segment(text, "p", "paper.md")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d text is not valid UTF-8: %q", i, ch.Text)
		}
	}
}
