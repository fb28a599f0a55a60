// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ronbun/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if needed.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
		UNIQUE (project_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_papers_project_id ON papers(project_id);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		paper_id TEXT NOT NULL,
		section_id TEXT NOT NULL,
		text TEXT NOT NULL,
		metadata TEXT,
		chunk_index INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (paper_id) REFERENCES papers(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_paper_id ON chunks(paper_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_paper_order ON chunks(paper_id, chunk_index);
	CREATE INDEX IF NOT EXISTS idx_chunks_project_id ON chunks(project_id);

	CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		paper_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (paper_id) REFERENCES papers(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateProject inserts a project.
func (s *SQLiteStorage) CreateProject(ctx context.Context, project *models.Project) error {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		project.ID, project.Title, project.CreatedAt, project.UpdatedAt,
	)
	return err
}

// GetProject returns a project by ID.
func (s *SQLiteStorage) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM projects WHERE id = ?`, id,
	).Scan(&project.ID, &project.Title, &project.CreatedAt, &project.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns all projects, newest first.
func (s *SQLiteStorage) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var project models.Project
		if err := rows.Scan(&project.ID, &project.Title, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, &project)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project and, via cascade, its papers, chunks, and
// summary records.
func (s *SQLiteStorage) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreatePaper inserts a paper.
func (s *SQLiteStorage) CreatePaper(ctx context.Context, paper *models.Paper) error {
	paper.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (id, project_id, name, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		paper.ID, paper.ProjectID, paper.Name, paper.Size, paper.CreatedAt,
	)
	return err
}

// GetPaper returns a paper by ID.
func (s *SQLiteStorage) GetPaper(ctx context.Context, id string) (*models.Paper, error) {
	var paper models.Paper
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, size, created_at FROM papers WHERE id = ?`, id,
	).Scan(&paper.ID, &paper.ProjectID, &paper.Name, &paper.Size, &paper.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("paper %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// GetPaperByName returns a paper by its name within a project.
func (s *SQLiteStorage) GetPaperByName(ctx context.Context, projectID, name string) (*models.Paper, error) {
	var paper models.Paper
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, size, created_at FROM papers WHERE project_id = ? AND name = ?`,
		projectID, name,
	).Scan(&paper.ID, &paper.ProjectID, &paper.Name, &paper.Size, &paper.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("paper %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// ListPapers returns a project's papers, newest first.
func (s *SQLiteStorage) ListPapers(ctx context.Context, projectID string) ([]*models.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, size, created_at
		 FROM papers WHERE project_id = ? ORDER BY created_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []*models.Paper
	for rows.Next() {
		var paper models.Paper
		if err := rows.Scan(&paper.ID, &paper.ProjectID, &paper.Name, &paper.Size, &paper.CreatedAt); err != nil {
			return nil, err
		}
		papers = append(papers, &paper)
	}
	return papers, rows.Err()
}

// DeletePaper removes a paper and, via cascade, its chunks and summary record.
func (s *SQLiteStorage) DeletePaper(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("paper %s: %w", id, ErrNotFound)
	}
	return nil
}

// BatchCreateChunks inserts chunks in one transaction.
func (s *SQLiteStorage) BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, project_id, paper_id, section_id, text, metadata, chunk_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		chunk.CreatedAt = now
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.ProjectID, chunk.PaperID, chunk.SectionID,
			chunk.Text, string(metadataJSON), chunk.Index, chunk.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetChunksByPaperID returns a paper's chunks ordered by chunk_index.
func (s *SQLiteStorage) GetChunksByPaperID(ctx context.Context, paperID string) ([]*models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, paper_id, section_id, text, metadata, chunk_index, created_at
		 FROM chunks WHERE paper_id = ? ORDER BY chunk_index`,
		paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// GetChunksGroupedBySection returns a paper's chunks grouped into sections in
// reading order. Section order follows the first chunk of each section.
func (s *SQLiteStorage) GetChunksGroupedBySection(ctx context.Context, paperID string) ([]*models.SectionChunks, error) {
	chunks, err := s.GetChunksByPaperID(ctx, paperID)
	if err != nil {
		return nil, err
	}

	var sections []*models.SectionChunks
	index := make(map[string]*models.SectionChunks)
	for _, chunk := range chunks {
		section, ok := index[chunk.SectionID]
		if !ok {
			section = &models.SectionChunks{
				SectionID: chunk.SectionID,
				Title:     chunk.Metadata[models.MetaSectionTitle],
			}
			index[chunk.SectionID] = section
			sections = append(sections, section)
		}
		section.Chunks = append(section.Chunks, chunk)
	}
	return sections, nil
}

// DeleteChunksByPaperID removes all chunks for a paper.
func (s *SQLiteStorage) DeleteChunksByPaperID(ctx context.Context, paperID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE paper_id = ?`, paperID)
	return err
}

// CreateSummary inserts a summary record, replacing any previous record for
// the same paper.
func (s *SQLiteStorage) CreateSummary(ctx context.Context, summary *models.Summary) error {
	summary.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (id, project_id, paper_id, name, path, size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
			id = excluded.id, name = excluded.name, path = excluded.path,
			size = excluded.size, created_at = excluded.created_at`,
		summary.ID, summary.ProjectID, summary.PaperID, summary.Name, summary.Path, summary.Size, summary.CreatedAt,
	)
	return err
}

// GetSummaryByPaperID returns the summary record for a paper.
func (s *SQLiteStorage) GetSummaryByPaperID(ctx context.Context, paperID string) (*models.Summary, error) {
	var summary models.Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, paper_id, name, path, size, created_at
		 FROM summaries WHERE paper_id = ?`, paperID,
	).Scan(&summary.ID, &summary.ProjectID, &summary.PaperID, &summary.Name, &summary.Path, &summary.Size, &summary.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("summary for paper %s: %w", paperID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// DeleteSummaryByPaperID removes the summary record for a paper.
func (s *SQLiteStorage) DeleteSummaryByPaperID(ctx context.Context, paperID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM summaries WHERE paper_id = ?`, paperID)
	return err
}

// CountPapers returns the number of papers, scoped to a project when
// projectID is non-empty.
func (s *SQLiteStorage) CountPapers(ctx context.Context, projectID string) (int64, error) {
	var count int64
	var err error
	if projectID == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers WHERE project_id = ?`, projectID).Scan(&count)
	}
	return count, err
}

// CountChunks returns the number of chunks, scoped to a project when
// projectID is non-empty.
func (s *SQLiteStorage) CountChunks(ctx context.Context, projectID string) (int64, error) {
	var count int64
	var err error
	if projectID == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE project_id = ?`, projectID).Scan(&count)
	}
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func scanChunk(rows *sql.Rows) (*models.Chunk, error) {
	var chunk models.Chunk
	var metadataJSON string
	if err := rows.Scan(
		&chunk.ID, &chunk.ProjectID, &chunk.PaperID, &chunk.SectionID,
		&chunk.Text, &metadataJSON, &chunk.Index, &chunk.CreatedAt,
	); err != nil {
		return nil, err
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &chunk, nil
}
