// Package main is the ronbun CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/cli"
	"github.com/hyperjump/ronbun/internal/config"
	"github.com/hyperjump/ronbun/internal/embedding"
	"github.com/hyperjump/ronbun/internal/explainer"
	"github.com/hyperjump/ronbun/internal/llm"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/prompts"
	"github.com/hyperjump/ronbun/internal/rag"
	"github.com/hyperjump/ronbun/internal/segmenter"
	"github.com/hyperjump/ronbun/internal/server"
	"github.com/hyperjump/ronbun/internal/storage"
	"github.com/hyperjump/ronbun/internal/summarizer"
	"github.com/hyperjump/ronbun/internal/translator"
	"github.com/hyperjump/ronbun/internal/vectordb"
	"github.com/hyperjump/ronbun/internal/watcher"
	"github.com/hyperjump/ronbun/pkg/utils"
)

var version = "dev"

func newPaperID() string { return uuid.NewString() }

const defaultConfigPath = "/usr/local/etc/ronbun/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "ronbun server" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// API keys may live in a local .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "index":
		runIndex()
	case "search":
		runSearch()
	case "answer":
		runAnswer()
	case "summarize":
		runSummarize()
	case "explain":
		runExplain()
	case "translate":
		runTranslate()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ronbun version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if cfg.Watch.Enabled {
		watchSvc = watcher.New(
			cfg.Storage.UploadsDir,
			cfg.Watch.Extensions,
			ingestFunc(components, logger),
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start uploads watcher", zap.Error(err))
		}
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(
		components.Storage,
		components.Indexer,
		components.Retriever,
		components.Gateway,
		components.Summarizer,
		components.Explainer,
		components.Translator,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// ingestFunc builds the watcher callback: a file dropped into
// uploads/<project-id>/ is registered as a paper (if new) and indexed.
func ingestFunc(components *Components, logger *zap.Logger) watcher.IngestFunc {
	return func(projectID, path string) {
		ctx := context.Background()
		project, err := components.Storage.GetProject(ctx, projectID)
		if err != nil {
			logger.Warn("upload for unknown project skipped",
				zap.String("project_id", projectID),
				zap.String("path", path))
			return
		}
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("read upload failed", zap.String("path", path), zap.Error(err))
			return
		}
		name := filepath.Base(path)
		paper, err := components.Storage.GetPaperByName(ctx, project.ID, name)
		if err != nil {
			paper = &models.Paper{
				ID:        newPaperID(),
				ProjectID: project.ID,
				Name:      name,
				Size:      int64(len(content)),
			}
			if err := components.Storage.CreatePaper(ctx, paper); err != nil {
				logger.Warn("register uploaded paper failed",
					zap.String("paper", name), zap.Error(err))
				return
			}
		}
		if _, err := components.Indexer.IndexPaper(ctx, project, paper, content); err != nil {
			logger.Warn("index uploaded paper failed",
				zap.String("paper", name), zap.Error(err))
		}
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	projectID := fs.String("project", "", "project ID to index into (required)")
	_ = fs.Parse(os.Args[2:])

	if *projectID == "" || fs.NArg() < 1 {
		fmt.Println("Usage: ronbun index --project <id> <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	ctx := context.Background()
	project, err := components.Storage.GetProject(ctx, *projectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Project not found: %s\n", *projectID)
		os.Exit(1)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}
	name := filepath.Base(path)
	paper, err := components.Storage.GetPaperByName(ctx, project.ID, name)
	if err != nil {
		paper = &models.Paper{ID: newPaperID(), ProjectID: project.ID, Name: name, Size: int64(len(content))}
		if err := components.Storage.CreatePaper(ctx, paper); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register paper: %v\n", err)
			os.Exit(1)
		}
	}
	chunks, err := components.Indexer.IndexPaper(ctx, project, paper, content)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %s: %d chunks\n", name, chunks)
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parseOutputFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct storage access)")
	projectID := fs.String("project", "", "project ID to search (required)")
	limit := fs.Int("limit", 10, "number of results")
	fusion := fs.Bool("fusion", true, "expand the query into variants before searching")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *projectID == "" || fs.NArg() < 1 {
		fmt.Println("Usage: ronbun search --project <id> [flags] <query>")
		os.Exit(1)
	}
	query := buildQuery(fs.Args())
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		results, err := searchViaHTTP(*serverURL, *projectID, query, *limit, *fusion)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, results, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	results, err := components.Retriever.Search(context.Background(), *projectID, query, *limit, *fusion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runAnswer() {
	fs := flag.NewFlagSet("answer", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct storage access)")
	projectID := fs.String("project", "", "project ID to answer from (required)")
	limit := fs.Int("limit", 10, "number of chunks to ground the answer on")
	fusion := fs.Bool("fusion", true, "expand the query into variants before searching")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *projectID == "" || fs.NArg() < 1 {
		fmt.Println("Usage: ronbun answer --project <id> [flags] <question>")
		os.Exit(1)
	}
	query := buildQuery(fs.Args())
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var (
		answer  *models.Answer
		results []models.SearchResult
	)
	if *serverURL != "" {
		answer, results, err = answerViaHTTP(*serverURL, *projectID, query, *limit, *fusion)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Answer failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, logger := mustInitialize(*configPath)
		defer components.Close()
		defer logger.Sync()
		answer, results, err = components.Retriever.Answer(context.Background(), *projectID, query, *limit, *fusion)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Answer failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteAnswer(os.Stdout, answer, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSummarize() {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	projectID := fs.String("project", "", "project ID the paper belongs to (required)")
	_ = fs.Parse(os.Args[2:])

	if *projectID == "" || fs.NArg() < 1 {
		fmt.Println("Usage: ronbun summarize --project <id> <paper-name>")
		os.Exit(1)
	}
	paperName := fs.Arg(0)

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	ctx := context.Background()
	paper, err := components.Storage.GetPaperByName(ctx, *projectID, paperName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Paper not found in project: %s\n", paperName)
		os.Exit(1)
	}
	sections, err := components.Storage.GetChunksGroupedBySection(ctx, paper.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load sections: %v\n", err)
		os.Exit(1)
	}
	if len(sections) == 0 {
		fmt.Fprintln(os.Stderr, "Paper has no indexed content; index it first")
		os.Exit(1)
	}
	text, err := components.Summarizer.Summarize(ctx, sections)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Summarization failed: %v\n", err)
		os.Exit(1)
	}
	dir := filepath.Join(components.Config.Storage.SummariesDir, *projectID)
	path, size, err := summarizer.SaveArtifact(dir, paper.Name, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save summary: %v\n", err)
		os.Exit(1)
	}
	summary := &models.Summary{
		ID:        newPaperID(),
		ProjectID: *projectID,
		PaperID:   paper.ID,
		Name:      filepath.Base(path),
		Path:      path,
		Size:      size,
	}
	if err := components.Storage.CreateSummary(ctx, summary); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to record summary: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Summary written to %s\n\n%s\n", path, text)
}

func runExplain() {
	fs := flag.NewFlagSet("explain", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	contextText := fs.String("context", "", "optional surrounding context for the explanation")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ronbun explain [flags] <text>")
		os.Exit(1)
	}
	text := buildQuery(fs.Args())

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	explanation, err := components.Explainer.Explain(context.Background(), text, *contextText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Explain failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(explanation)
}

func runTranslate() {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	target := fs.String("to", "English", "target language name or ISO 639-1 code")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: ronbun translate --to <language> <text>")
		os.Exit(1)
	}
	text := buildQuery(fs.Args())
	targetLanguage := *target
	if len(targetLanguage) == 2 {
		targetLanguage = translator.MapLanguage(targetLanguage)
	}

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	translation, err := components.Translator.Translate(context.Background(), text, targetLanguage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translate failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(translation)
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Projects       int64          `json:"projects"`
	Papers         int64          `json:"papers"`
	Chunks         int64          `json:"chunks"`
	DiskUsageBytes *int64         `json:"disk_usage_bytes,omitempty"`
	Config         map[string]any `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = direct storage access)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		components, logger := mustInitialize(*configPath)
		defer components.Close()
		defer logger.Sync()

		ctx := context.Background()
		projects, err := components.Storage.ListProjects(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List projects failed: %v\n", err)
			os.Exit(1)
		}
		papers, err := components.Storage.CountPapers(ctx, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count papers failed: %v\n", err)
			os.Exit(1)
		}
		chunks, err := components.Storage.CountChunks(ctx, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Projects: int64(len(projects)),
			Papers:   papers,
			Chunks:   chunks,
		}
		if diskBytes, err := storage.DiskUsageBytes(
			components.Config.Storage.DatabasePath,
			components.Config.Storage.UploadsDir,
			components.Config.Storage.SummariesDir,
		); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("projects:          %d\n", status.Projects)
		fmt.Printf("papers:            %d\n", status.Papers)
		fmt.Printf("chunks:            %d\n", status.Chunks)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:  %d\n", *status.DiskUsageBytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, projectID, query string, limit int, fusion bool) ([]models.SearchResult, error) {
	body, _ := json.Marshal(map[string]any{"query": query, "limit": limit, "fusion": fusion})
	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/projects/%s/search", serverURL, projectID),
		"application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Results []models.SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Results, nil
}

func answerViaHTTP(serverURL, projectID, query string, limit int, fusion bool) (*models.Answer, []models.SearchResult, error) {
	body, _ := json.Marshal(map[string]any{"query": query, "limit": limit, "fusion": fusion})
	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/projects/%s/answer", serverURL, projectID),
		"application/json", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Found   bool                  `json:"found"`
		Answer  string                `json:"answer"`
		Results []models.SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, nil, fmt.Errorf("decode response: %w", err)
	}
	if !out.Found {
		return nil, out.Results, nil
	}
	return &models.Answer{Text: out.Answer}, out.Results, nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Config     *config.Config
	Storage    storage.Storage
	Provider   llm.Provider
	VectorDB   vectordb.Store
	Gateway    *rag.Gateway
	Indexer    *rag.Indexer
	Retriever  *rag.Retriever
	Summarizer *summarizer.Summarizer
	Explainer  *explainer.Explainer
	Translator *translator.Translator
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Provider != nil {
		_ = c.Provider.Close()
	}
	if c.VectorDB != nil {
		_ = c.VectorDB.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	provider, err := llm.NewProvider(llm.Config{
		Provider:        cfg.LLM.Provider,
		BaseURL:         cfg.LLM.BaseURL,
		APIKey:          cfg.LLM.APIKey(),
		GenerationModel: cfg.LLM.GenerationModel,
		EmbeddingModel:  cfg.LLM.EmbeddingModel,
		Dimensions:      cfg.LLM.Dimensions,
		MaxInputChars:   cfg.LLM.MaxInputChars,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Timeout:         cfg.LLM.Timeout.Std(),
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize llm provider: %w", err)
	}

	vdb, err := vectordb.New(vectordb.Config{
		Type:   cfg.VectorDB.Type,
		URL:    cfg.VectorDB.URL,
		APIKey: cfg.VectorDB.APIKey(),
	})
	if err != nil {
		_ = store.Close()
		_ = provider.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	gateway := rag.NewGateway(vdb,
		rag.WithUpsertBatchSize(cfg.RAG.UpsertBatchSize),
		rag.WithGatewayLogger(logger),
	)
	batch := embedding.NewBatchRunner(provider,
		embedding.WithConcurrency(cfg.RAG.EmbedConcurrency),
		embedding.WithLogger(logger),
	)
	seg := segmenter.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	registry := prompts.NewRegistry(cfg.Locale)

	indexer := rag.NewIndexer(store, seg, batch, gateway, logger)
	retriever := rag.NewRetriever(provider, gateway, registry,
		rag.WithMinScore(cfg.RAG.MinScore),
		rag.WithNumQueries(cfg.RAG.FusionQueries),
		rag.WithRetrieverLogger(logger),
	)
	sum := summarizer.New(provider, registry,
		summarizer.WithMode(cfg.Summarizer.Mode),
		summarizer.WithDelay(cfg.Summarizer.SectionDelay.Std()),
		summarizer.WithLogger(logger),
	)
	exp := explainer.New(provider, registry, explainer.WithLogger(logger))
	trans := translator.New(provider, registry, translator.WithLogger(logger))

	return &Components{
		Config:     cfg,
		Storage:    store,
		Provider:   provider,
		VectorDB:   vdb,
		Gateway:    gateway,
		Indexer:    indexer,
		Retriever:  retriever,
		Summarizer: sum,
		Explainer:  exp,
		Translator: trans,
	}, nil
}

// mustInitialize loads config, builds a logger, and wires components for
// direct-access subcommands. Exits on failure.
func mustInitialize(configPath string) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components, logger
}

func printUsage() {
	fmt.Println(`ronbun - Research paper RAG service

Usage:
  ronbun server [flags]                         Start the HTTP server
  ronbun index --project <id> <file>            Ingest a paper into a project
  ronbun search --project <id> [flags] <query>  Retrieve matching chunks
  ronbun answer --project <id> [flags] <query>  Answer a question from project papers
  ronbun summarize --project <id> <paper-name>  Summarize an indexed paper
  ronbun explain [flags] <text>                 Explain a text passage
  ronbun translate --to <language> <text>       Translate a text passage
  ronbun status [flags]                         Show storage and index status
  ronbun version                                Show version
  ronbun help                                   Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/ronbun/config.yaml)
  --debug            Enable debug logging

Search/Answer Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --project string   Project ID (required)
  --limit int        Number of results (default: 10)
  --fusion           Expand the query into variants before searching (default: true)
  --output string    Output format: text or json (default: text)

Examples:
  ronbun server
  ronbun index --project p1 attention.pdf
  ronbun search --project p1 "scaled dot product attention"
  ronbun answer --project p1 "how are positional encodings computed?"
  ronbun summarize --project p1 attention.pdf
  ronbun explain "scaled dot product attention"
  ronbun translate --to German "the model attends to all positions"
  ronbun status --output json`)
}
