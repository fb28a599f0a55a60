package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/ronbun/data/db/ronbun.db"
	}
	if cfg.Storage.UploadsDir == "" {
		cfg.Storage.UploadsDir = "/usr/local/var/ronbun/data/uploads"
	}
	if cfg.Storage.SummariesDir == "" {
		cfg.Storage.SummariesDir = "/usr/local/var/ronbun/data/summaries"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "LLM_API_KEY"
	}
	if cfg.LLM.GenerationModel == "" {
		cfg.LLM.GenerationModel = "gpt-4o-mini"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.LLM.Dimensions == 0 {
		cfg.LLM.Dimensions = 1536
	}
	if cfg.LLM.MaxInputChars == 0 {
		cfg.LLM.MaxInputChars = 8000
	}
	if cfg.LLM.MaxOutputTokens == 0 {
		cfg.LLM.MaxOutputTokens = 1000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = Duration(60 * time.Second)
	}
	if cfg.VectorDB.Type == "" {
		cfg.VectorDB.Type = "qdrant"
	}
	if cfg.VectorDB.URL == "" {
		cfg.VectorDB.URL = "http://localhost:6333"
	}
	if cfg.VectorDB.APIKeyEnv == "" {
		cfg.VectorDB.APIKeyEnv = "QDRANT_API_KEY"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 100
	}
	if cfg.RAG.DefaultLimit == 0 {
		cfg.RAG.DefaultLimit = 10
	}
	if cfg.RAG.MinScore == 0 {
		cfg.RAG.MinScore = 0.7
	}
	if cfg.RAG.FusionQueries == 0 {
		cfg.RAG.FusionQueries = 3
	}
	if cfg.RAG.EmbedConcurrency == 0 {
		cfg.RAG.EmbedConcurrency = 8
	}
	if cfg.RAG.UpsertBatchSize == 0 {
		cfg.RAG.UpsertBatchSize = 50
	}
	if cfg.Summarizer.Mode == "" {
		cfg.Summarizer.Mode = "hierarchical"
	}
	if cfg.Summarizer.SectionDelay == 0 {
		cfg.Summarizer.SectionDelay = Duration(time.Second)
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".docx", ".txt", ".md"}
	}
}
