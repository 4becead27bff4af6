package pipeline

import (
	"context"
	"fmt"

	"github.com/ragscout/ragscout/internal/config"
	"github.com/ragscout/ragscout/internal/domain/repository"
	"github.com/ragscout/ragscout/internal/embedding"
	"github.com/ragscout/ragscout/internal/llm"
	"github.com/ragscout/ragscout/internal/vectorstore"
)

// buildEmbedder constructs the configured embedding backend wrapped in
// a batcher. The returned closer may be nil.
func buildEmbedder(ctx context.Context, cfg *config.Config) (repository.EmbeddingClient, func() error, error) {
	var (
		client repository.EmbeddingClient
		closer func() error
	)
	switch cfg.EmbeddingProvider {
	case "gemini":
		g, err := embedding.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		client, closer = g, g.Close
	case "openai":
		o, err := embedding.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		client = o
	case "ollama":
		client = embedding.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel)
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
	return embedding.NewBatcher(client, cfg.EmbeddingBatch), closer, nil
}

// buildStore constructs the configured vector store backend.
func buildStore(cfg *config.Config, embedder repository.EmbeddingClient) (repository.VectorRepository, func() error, error) {
	switch cfg.VectorBackend {
	case "sqlite":
		s, err := vectorstore.NewSQLiteStore(cfg.PersistDirectory, cfg.CollectionName, embedder)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "qdrant":
		s, err := vectorstore.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, cfg.CollectionName, embedder)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

// buildRouter wires the local and cloud LLM backends. The local client
// is always available (Ollama needs no key); the cloud client follows
// the generation provider setting.
func buildRouter(ctx context.Context, cfg *config.Config) (*llm.Router, func() error, error) {
	local := llm.NewOllamaClient(cfg.OllamaHost, cfg.LocalModel)

	var (
		cloud  repository.LLMClient
		closer func() error
	)
	switch cfg.GenerationProvider {
	case "gemini":
		g, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GenerationModel)
		if err != nil {
			return nil, nil, err
		}
		cloud, closer = g, g.Close
	case "openai":
		o, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.GenerationModel)
		if err != nil {
			return nil, nil, err
		}
		cloud = o
	case "ollama":
		cloud = llm.NewOllamaClient(cfg.OllamaHost, cfg.GenerationModel)
	default:
		return nil, nil, fmt.Errorf("unknown generation provider %q", cfg.GenerationProvider)
	}
	return llm.NewRouter(local, cloud), closer, nil
}
