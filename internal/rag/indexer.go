package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/embedding"
	"github.com/hyperjump/ronbun/internal/extract"
	"github.com/hyperjump/ronbun/internal/llm"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/segmenter"
	"github.com/hyperjump/ronbun/internal/storage"
	"github.com/hyperjump/ronbun/internal/vectordb"
)

// Indexer runs the ingestion pipeline: extract text, segment into chunks,
// embed, and upsert into the project's collection. Chunk rows are persisted
// only after their vectors land, so the database never references vectors
// that do not exist.
type Indexer struct {
	storage   storage.Storage
	extractor *extract.Extractor
	segmenter *segmenter.Segmenter
	batch     *embedding.BatchRunner
	gateway   *Gateway
	logger    *zap.Logger
}

// NewIndexer creates an indexer over the given components.
func NewIndexer(st storage.Storage, seg *segmenter.Segmenter, batch *embedding.BatchRunner, gw *Gateway, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		storage:   st,
		extractor: extract.NewExtractor(),
		segmenter: seg,
		batch:     batch,
		gateway:   gw,
		logger:    logger,
	}
}

// IndexPaper ingests one paper's raw content into project. Returns the number
// of chunks indexed. A paper with no recognizable sections indexes zero
// chunks and is not an error. Any embedding or upsert failure aborts the
// whole paper with nothing persisted.
func (ix *Indexer) IndexPaper(ctx context.Context, project *models.Project, paper *models.Paper, content []byte) (int, error) {
	ext := strings.ToLower(filepath.Ext(paper.Name))
	text, err := ix.extractor.ExtractBytes(content, ext)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", paper.Name, err)
	}

	chunks := ix.segmenter.Segment(text, project.Title, paper.Name)
	if len(chunks) == 0 {
		ix.logger.Warn("paper yielded no chunks",
			zap.String("paper", paper.Name),
			zap.String("project_id", project.ID))
		return 0, nil
	}
	for i := range chunks {
		chunks[i].ID = uuid.NewString()
		chunks[i].ProjectID = project.ID
		chunks[i].PaperID = paper.ID
	}

	if err := ix.upsertChunks(ctx, project.ID, chunks, false); err != nil {
		return 0, err
	}

	// Replace any previous rows for this paper, then persist the new ones.
	if err := ix.storage.DeleteChunksByPaperID(ctx, paper.ID); err != nil {
		return 0, fmt.Errorf("clear chunks for %s: %w", paper.Name, err)
	}
	rows := make([]*models.Chunk, len(chunks))
	for i := range chunks {
		rows[i] = &chunks[i]
	}
	if err := ix.storage.BatchCreateChunks(ctx, rows); err != nil {
		return 0, fmt.Errorf("store chunks for %s: %w", paper.Name, err)
	}

	ix.logger.Info("paper indexed",
		zap.String("paper", paper.Name),
		zap.String("project_id", project.ID),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// ReindexProject re-embeds every stored chunk of a project and rebuilds its
// collection. With reset, the collection is dropped first so stale points
// from removed papers disappear. Returns the number of chunks reindexed.
func (ix *Indexer) ReindexProject(ctx context.Context, project *models.Project, reset bool) (int, error) {
	papers, err := ix.storage.ListPapers(ctx, project.ID)
	if err != nil {
		return 0, fmt.Errorf("list papers: %w", err)
	}

	var all []models.Chunk
	for _, paper := range papers {
		rows, err := ix.storage.GetChunksByPaperID(ctx, paper.ID)
		if err != nil {
			return 0, fmt.Errorf("load chunks for %s: %w", paper.Name, err)
		}
		for _, row := range rows {
			all = append(all, *row)
		}
	}
	if len(all) == 0 {
		return 0, nil
	}

	if err := ix.upsertChunks(ctx, project.ID, all, reset); err != nil {
		return 0, err
	}
	ix.logger.Info("project reindexed",
		zap.String("project_id", project.ID),
		zap.Int("chunks", len(all)),
		zap.Bool("reset", reset))
	return len(all), nil
}

func (ix *Indexer) upsertChunks(ctx context.Context, projectID string, chunks []models.Chunk, reset bool) error {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := ix.batch.EmbedBatch(ctx, texts, llm.EmbedDocument)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	name := CollectionName(projectID)
	if err := ix.gateway.EnsureCollection(ctx, name, len(vectors[0]), reset); err != nil {
		return err
	}

	records := make([]vectordb.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = vectordb.Record{
			ID:       chunk.ID,
			Vector:   vectors[i],
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
		}
	}
	return ix.gateway.UpsertRecords(ctx, name, records)
}
