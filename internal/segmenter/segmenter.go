// Package segmenter splits converted paper text into section-tagged,
// overlapping chunks for retrieval indexing.
package segmenter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/ronbun/internal/models"
)

var (
	// headingRe matches markdown headings levels 1-4.
	headingRe = regexp.MustCompile(`^(#{1,4})\s+(.+)$`)
	// leadingOrdinalRe strips a numbering prefix like "3." or "2" from titles.
	leadingOrdinalRe = regexp.MustCompile(`^\d+\.?\s*`)
	nonWordRe        = regexp.MustCompile(`[^\w\s-]`)
	spaceDashRe      = regexp.MustCompile(`[-\s]+`)
	// trailingBoilerplateRe matches a references/bibliography heading; that
	// heading and everything after it is dropped before sectioning.
	trailingBoilerplateRe = regexp.MustCompile(`(?im)^#{1,4}\s+\**\d*\.?\s*(references|bibliography)\b.*$`)
	// excludedTitleRe matches section titles that never become chunks.
	excludedTitleRe = regexp.MustCompile(`(?i)^(acknowledge?ments?|references|bibliography)\b`)
)

// Section is a heading-delimited region of a paper's text. Sections are
// transient: recomputed on every segmentation, never persisted.
type Section struct {
	ID       string
	Title    string
	Level    int
	Content  string
	Position int
}

// Segmenter turns a block of markdown-like paper text into ordered chunks
// tagged with section context.
type Segmenter struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a segmenter. chunkSize and chunkOverlap are in characters;
// overlap must be smaller than size, or it is clamped.
func New(chunkSize, chunkOverlap int) *Segmenter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 4
	}
	return &Segmenter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// TitleToID derives a stable slug from a section title: the leading ordinal
// is stripped, the rest lower-cased, non-word characters removed, and
// whitespace/dash runs collapsed to underscores.
func TitleToID(title string) string {
	clean := leadingOrdinalRe.ReplaceAllString(title, "")
	id := nonWordRe.ReplaceAllString(strings.ToLower(clean), "")
	id = spaceDashRe.ReplaceAllString(id, "_")
	return strings.Trim(id, "_")
}

// Sections scans text into heading-delimited sections. Text before the first
// heading has no section context and is dropped; excluded sections
// (acknowledgments, references, bibliography) close the running section and
// discard their own content.
func (s *Segmenter) Sections(text string) []Section {
	if loc := trailingBoilerplateRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	var sections []Section
	var current *Section
	var buf strings.Builder
	discarding := false

	flush := func() {
		if current == nil {
			return
		}
		content := strings.TrimSpace(buf.String())
		if content != "" {
			sec := *current
			sec.Content = content
			sec.Position = len(sections)
			sections = append(sections, sec)
		}
		current = nil
		buf.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			if current != nil && !discarding {
				buf.WriteString(line)
				buf.WriteByte('\n')
			}
			continue
		}
		flush()
		title := strings.TrimSpace(m[2])
		if excludedTitleRe.MatchString(leadingOrdinalRe.ReplaceAllString(title, "")) {
			discarding = true
			continue
		}
		discarding = false
		current = &Section{
			ID:    TitleToID(title),
			Title: title,
			Level: len(m[1]),
		}
	}
	flush()
	return sections
}

// Segment splits text into section-scoped overlapping chunks. projectTitle
// and paperName are carried in every chunk's metadata. The returned chunks
// are ordered by position in the paper; Index is the global order. A paper
// with no headings yields no chunks.
func (s *Segmenter) Segment(text, projectTitle, paperName string) []models.Chunk {
	var chunks []models.Chunk
	for _, sec := range s.Sections(text) {
		parts := SplitOverlapping(sec.Content, s.chunkSize, s.chunkOverlap)
		for i, part := range parts {
			chunks = append(chunks, models.Chunk{
				SectionID: sec.ID,
				Text:      part,
				Index:     len(chunks),
				Metadata: map[string]string{
					models.MetaProjectTitle:  projectTitle,
					models.MetaPaperName:     paperName,
					models.MetaSectionTitle:  sec.Title,
					models.MetaSectionLevel:  strconv.Itoa(sec.Level),
					models.MetaChunkPosition: strconv.Itoa(i + 1),
					models.MetaSectionChunks: strconv.Itoa(len(parts)),
				},
			})
		}
	}
	return chunks
}
