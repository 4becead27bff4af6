package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		GeminiAPIKey:       "key",
		EmbeddingProvider:  "gemini",
		EmbeddingBatch:     100,
		GenerationProvider: "gemini",
		ChunkSize:          1000,
		ChunkOverlap:       200,
		ChunkWorkers:       4,
		SearchMaxResults:   30,
		RelevanceThreshold: 0.6,
		MinDownloads:       10,
		DownloadWorkers:    5,
		TopK:               5,
		ContextCharBudget:  8000,
		VectorBackend:      "sqlite",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsOverlapAtChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkOverlap = cfg.ChunkSize
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RS_CHUNK_OVERLAP")
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.RelevanceThreshold = 1.5
	require.Error(t, cfg.Validate())

	cfg.RelevanceThreshold = -0.1
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.VectorBackend = "pinecone"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RS_VECTOR_BACKEND")
}

func TestValidateRequiresProviderKeys(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	require.Error(t, cfg.Validate())

	cfg.EmbeddingProvider = "openai"
	cfg.GenerationProvider = "openai"
	require.Error(t, cfg.Validate())

	cfg.OpenAIAPIKey = "key"
	require.NoError(t, cfg.Validate())
}

func TestValidateOllamaNeedsNoKey(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	cfg.EmbeddingProvider = "ollama"
	cfg.GenerationProvider = "ollama"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.EmbeddingProvider = "cohere"
	require.Error(t, cfg.Validate())
}

func TestValidateWorkerBounds(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkWorkers = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.DownloadWorkers = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.MinDownloads = 0
	require.Error(t, cfg.Validate())
}
