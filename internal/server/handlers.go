package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/rag"
	"github.com/hyperjump/ronbun/internal/storage"
	"github.com/hyperjump/ronbun/internal/summarizer"
	"github.com/hyperjump/ronbun/pkg/utils"
)

const maxUploadBytes = 64 << 20

type createProjectRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	project := &models.Project{ID: uuid.NewString(), Title: req.Title}
	if err := s.storage.CreateProject(r.Context(), project); err != nil {
		s.logger.Error("create project failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.storage.ListProjects(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.storage.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "project not found")
		return
	}
	s.respondJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteProject(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "project not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.gateway.DropCollection(ctx, rag.CollectionName(id)); err != nil {
		// The relational rows are gone; a missing collection is fine.
		s.logger.Warn("drop collection failed", zap.String("project_id", id), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleUploadPaper accepts a multipart upload (field "file") or a JSON body
// with name and content, stores the raw file, and indexes it.
func (s *Server) handleUploadPaper(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := s.storage.GetProject(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "project not found")
		return
	}

	name, content, err := readPaperUpload(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.storage.GetPaperByName(ctx, project.ID, name); err == nil {
		s.respondError(w, http.StatusConflict, "paper already exists in project")
		return
	}

	dir := filepath.Join(s.cfg.Storage.UploadsDir, project.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	paper := &models.Paper{ID: uuid.NewString(), ProjectID: project.ID, Name: name, Size: int64(len(content))}
	if err := s.storage.CreatePaper(ctx, paper); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	chunks, err := s.indexer.IndexPaper(ctx, project, paper, content)
	if err != nil {
		s.logger.Error("paper indexing failed",
			zap.String("paper", name),
			zap.Error(err))
		_ = s.storage.DeletePaper(ctx, paper.ID)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"paper": paper, "chunks": chunks})
}

func readPaperUpload(r *http.Request) (string, []byte, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return "", nil, errors.New("invalid multipart body")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.New("file field is required")
		}
		defer file.Close()
		content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return "", nil, err
		}
		return filepath.Base(header.Filename), content, nil
	}

	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Content == "" {
		return "", nil, errors.New("name and content are required")
	}
	return filepath.Base(req.Name), []byte(req.Content), nil
}

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "id")
	if _, err := s.storage.GetProject(ctx, projectID); err != nil {
		s.respondError(w, http.StatusNotFound, "project not found")
		return
	}
	papers, err := s.storage.ListPapers(ctx, projectID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if papers == nil {
		papers = []*models.Paper{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"papers": papers})
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	paper, err := s.storage.GetPaper(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}
	s.respondJSON(w, http.StatusOK, paper)
}

// handleDeletePaper removes a paper and its rows. Its vectors leave the
// collection on the next reindex with reset.
func (s *Server) handleDeletePaper(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paper, err := s.storage.GetPaper(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}
	if err := s.storage.DeletePaper(ctx, paper.ID); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = os.Remove(filepath.Join(s.cfg.Storage.UploadsDir, paper.ProjectID, paper.Name))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type reindexRequest struct {
	Reset bool `json:"reset"`
}

func (s *Server) handleReindexProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := s.storage.GetProject(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "project not found")
		return
	}
	var req reindexRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	chunks, err := s.indexer.ReindexProject(ctx, project, req.Reset)
	if err != nil {
		s.logger.Error("reindex failed", zap.String("project_id", project.ID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"chunks": chunks, "reset": req.Reset})
}

type queryRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Fusion *bool  `json:"fusion,omitempty"`
}

func (q *queryRequest) fusionOrDefault(def bool) bool {
	if q.Fusion != nil {
		return *q.Fusion
	}
	return def
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "id")
	if _, err := s.storage.GetProject(ctx, projectID); err != nil {
		s.respondError(w, http.StatusNotFound, "project not found")
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = s.cfg.RAG.DefaultLimit
	}
	results, err := s.retriever.Search(ctx, projectID, req.Query, req.Limit, req.fusionOrDefault(s.cfg.RAG.FusionOrDefault()))
	if err != nil {
		s.logger.Error("search failed", zap.String("project_id", projectID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "id")
	if _, err := s.storage.GetProject(ctx, projectID); err != nil {
		s.respondError(w, http.StatusNotFound, "project not found")
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = s.cfg.RAG.DefaultLimit
	}
	answer, results, err := s.retriever.Answer(ctx, projectID, req.Query, req.Limit, req.fusionOrDefault(s.cfg.RAG.FusionOrDefault()))
	if err != nil {
		s.logger.Error("answer failed", zap.String("project_id", projectID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	if answer == nil {
		s.respondJSON(w, http.StatusOK, map[string]any{"found": false, "results": results})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"found":   true,
		"answer":  answer.Text,
		"results": results,
	})
}

type explainRequest struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	explanation, err := s.explainer.Explain(r.Context(), req.Text, req.Context)
	if err != nil {
		s.logger.Error("explain failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"explanation": explanation})
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.translator.Validate(req.Text, req.TargetLanguage); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	translation, err := s.translator.Translate(r.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		s.logger.Error("translate failed",
			zap.String("target_language", req.TargetLanguage),
			zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"translated_text": translation,
		"target_language": req.TargetLanguage,
	})
}

func (s *Server) handleCreateSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paper, err := s.storage.GetPaper(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}
	sections, err := s.storage.GetChunksGroupedBySection(ctx, paper.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(sections) == 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "paper has no indexed content")
		return
	}

	text, err := s.summarizer.Summarize(ctx, sections)
	if err != nil {
		s.logger.Error("summarization failed", zap.String("paper", paper.Name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	path, size, err := s.saveSummary(paper, text)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary := &models.Summary{
		ID:        uuid.NewString(),
		ProjectID: paper.ProjectID,
		PaperID:   paper.ID,
		Name:      utils.CleanFilename(paper.Name),
		Path:      path,
		Size:      size,
	}
	if err := s.storage.CreateSummary(ctx, summary); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"summary": summary, "text": text})
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := s.storage.GetSummaryByPaperID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "summary not found")
		return
	}
	text, err := os.ReadFile(summary.Path)
	if err != nil {
		s.logger.Error("summary artifact missing", zap.String("path", summary.Path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "summary file unreadable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"summary": summary, "text": string(text)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projects, err := s.storage.ListProjects(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	papers, err := s.storage.CountPapers(ctx, "")
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunks, err := s.storage.CountChunks(ctx, "")
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"projects": len(projects),
		"papers":   papers,
		"chunks":   chunks,
		"config": map[string]any{
			"llm_provider":   s.cfg.LLM.Provider,
			"vectordb_type":  s.cfg.VectorDB.Type,
			"chunk_size":     s.cfg.RAG.ChunkSize,
			"chunk_overlap":  s.cfg.RAG.ChunkOverlap,
			"min_score":      s.cfg.RAG.MinScore,
			"fusion_queries": s.cfg.RAG.FusionQueries,
		},
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.cfg.Storage.DatabasePath,
		s.cfg.Storage.UploadsDir,
		s.cfg.Storage.SummariesDir,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) saveSummary(paper *models.Paper, text string) (string, int64, error) {
	dir := filepath.Join(s.cfg.Storage.SummariesDir, paper.ProjectID)
	return summarizer.SaveArtifact(dir, paper.Name, text)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
