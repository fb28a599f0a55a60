// Package storage defines the persistence interface for projects, papers,
// chunks, and summary records.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/ronbun/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage defines relational persistence operations. Vector data lives in
// the vector store; this layer is the system of record for everything else.
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// Paper operations
	CreatePaper(ctx context.Context, paper *models.Paper) error
	GetPaper(ctx context.Context, id string) (*models.Paper, error)
	GetPaperByName(ctx context.Context, projectID, name string) (*models.Paper, error)
	ListPapers(ctx context.Context, projectID string) ([]*models.Paper, error)
	DeletePaper(ctx context.Context, id string) error

	// Chunk operations
	BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error
	GetChunksByPaperID(ctx context.Context, paperID string) ([]*models.Chunk, error)
	GetChunksGroupedBySection(ctx context.Context, paperID string) ([]*models.SectionChunks, error)
	DeleteChunksByPaperID(ctx context.Context, paperID string) error

	// Summary operations
	CreateSummary(ctx context.Context, summary *models.Summary) error
	GetSummaryByPaperID(ctx context.Context, paperID string) (*models.Summary, error)
	DeleteSummaryByPaperID(ctx context.Context, paperID string) error

	// Stats
	CountPapers(ctx context.Context, projectID string) (int64, error)
	CountChunks(ctx context.Context, projectID string) (int64, error)

	Close() error
}
