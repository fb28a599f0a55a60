// Package models defines core data structures for projects, papers, chunks, and search results.
package models

import "time"

// Project groups papers and owns one vector collection.
type Project struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Paper is an ingested document. It is immutable once stored; chunks
// reference it by ID.
type Paper struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Name      string    `json:"name" db:"name"`
	Size      int64     `json:"size" db:"size"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chunk is the unit of retrieval: a bounded span of a paper's text tagged
// with section context. Index gives global order within the paper.
type Chunk struct {
	ID        string            `json:"id" db:"id"`
	ProjectID string            `json:"project_id" db:"project_id"`
	PaperID   string            `json:"paper_id" db:"paper_id"`
	SectionID string            `json:"section_id" db:"section_id"`
	Text      string            `json:"text" db:"text"`
	Metadata  map[string]string `json:"metadata" db:"metadata"`
	Index     int               `json:"index" db:"chunk_index"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// Metadata keys attached to every chunk by the segmenter.
const (
	MetaProjectTitle  = "project_title"
	MetaPaperName     = "paper_name"
	MetaSectionTitle  = "section_title"
	MetaSectionLevel  = "section_level"
	MetaChunkPosition = "chunk_position"
	MetaSectionChunks = "section_chunks"
)

// SectionChunks groups one section's chunks in reading order. The summarizer
// consumes papers section by section rather than chunk by chunk.
type SectionChunks struct {
	SectionID string   `json:"section_id"`
	Title     string   `json:"title"`
	Chunks    []*Chunk `json:"chunks"`
}

// Summary is the metadata record for a generated paper summary. The summary
// text itself is stored as a markdown file at Path.
type Summary struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	PaperID   string    `json:"paper_id" db:"paper_id"`
	Name      string    `json:"name" db:"name"`
	Path      string    `json:"path" db:"path"`
	Size      int64     `json:"size" db:"size"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SearchResult is a single retrieval hit. Score is similarity, higher is
// more relevant. Metadata is the stored chunk payload when requested.
type SearchResult struct {
	Score    float64           `json:"score"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Answer is the result of a RAG answering request. FullPrompt is returned
// for caller-side auditing of what the generator saw. Text is empty when
// retrieval produced no grounding.
type Answer struct {
	Text       string `json:"answer"`
	FullPrompt string `json:"full_prompt"`
}
