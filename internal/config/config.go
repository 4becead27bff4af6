package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	// Providers
	TavilyAPIKey string `env:"RS_TAVILY_API_KEY"`
	OpenAIAPIKey string `env:"RS_OPENAI_API_KEY"`
	GeminiAPIKey string `env:"RS_GEMINI_API_KEY"`
	OllamaHost   string `env:"RS_OLLAMA_HOST" envDefault:"http://localhost:11434"`

	EmbeddingProvider string `env:"RS_EMBEDDING_PROVIDER" envDefault:"gemini"`
	EmbeddingModel    string `env:"RS_EMBEDDING_MODEL"`
	EmbeddingBatch    int    `env:"RS_EMBEDDING_BATCH" envDefault:"100"`

	GenerationProvider string `env:"RS_GENERATION_PROVIDER" envDefault:"gemini"`
	GenerationModel    string `env:"RS_GENERATION_MODEL"`
	LocalModel         string `env:"RS_LOCAL_MODEL" envDefault:"llama3"`

	// Chunking
	ChunkSize    int `env:"RS_CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap int `env:"RS_CHUNK_OVERLAP" envDefault:"200"`
	ChunkWorkers int `env:"RS_CHUNK_WORKERS" envDefault:"4"`

	// Search and download
	SearchMaxResults   int     `env:"RS_SEARCH_MAX_RESULTS" envDefault:"30"`
	SearchDepth        string  `env:"RS_SEARCH_DEPTH" envDefault:"advanced"`
	RelevanceThreshold float64 `env:"RS_RELEVANCE_THRESHOLD" envDefault:"0.6"`
	MinDownloads       int     `env:"RS_MIN_DOWNLOADS" envDefault:"10"`
	DownloadWorkers    int     `env:"RS_DOWNLOAD_WORKERS" envDefault:"5"`
	HTTPTimeoutSecs    int     `env:"RS_HTTP_TIMEOUT_SECS" envDefault:"15"`
	TranscriptLanguage string  `env:"RS_TRANSCRIPT_LANGUAGE" envDefault:"en"`

	// Retrieval and generation
	TopK              int     `env:"RS_TOP_K" envDefault:"5"`
	ContextCharBudget int     `env:"RS_CONTEXT_CHAR_BUDGET" envDefault:"8000"`
	Temperature       float64 `env:"RS_TEMPERATURE" envDefault:"0.2"`
	MaxTokens         int     `env:"RS_MAX_TOKENS" envDefault:"2000"`
	MultiQuery        bool    `env:"RS_MULTI_QUERY" envDefault:"false"`

	// Storage
	DataDir          string `env:"RS_DATA_DIR" envDefault:"./data"`
	PersistDirectory string `env:"RS_PERSIST_DIRECTORY" envDefault:"./data/vectorstore"`
	CollectionName   string `env:"RS_COLLECTION_NAME" envDefault:"ragscout"`
	VectorBackend    string `env:"RS_VECTOR_BACKEND" envDefault:"sqlite"`
	QdrantHost       string `env:"RS_QDRANT_HOST" envDefault:"localhost"`
	QdrantPort       int    `env:"RS_QDRANT_PORT" envDefault:"6334"`
}

// Load reads .env (when present) and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ChunkSize < 1 {
		return fmt.Errorf("RS_CHUNK_SIZE must be at least 1")
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("RS_CHUNK_OVERLAP cannot be negative")
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("RS_CHUNK_OVERLAP (%d) must be smaller than RS_CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.ChunkWorkers < 1 {
		return fmt.Errorf("RS_CHUNK_WORKERS must be at least 1")
	}
	if c.DownloadWorkers < 1 {
		return fmt.Errorf("RS_DOWNLOAD_WORKERS must be at least 1")
	}
	if c.MinDownloads < 1 {
		return fmt.Errorf("RS_MIN_DOWNLOADS must be at least 1")
	}
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("RS_RELEVANCE_THRESHOLD must be between 0 and 1")
	}
	if c.TopK < 1 {
		return fmt.Errorf("RS_TOP_K must be at least 1")
	}
	if c.ContextCharBudget < 1 {
		return fmt.Errorf("RS_CONTEXT_CHAR_BUDGET must be at least 1")
	}

	switch c.VectorBackend {
	case "sqlite", "qdrant":
	default:
		return fmt.Errorf("RS_VECTOR_BACKEND must be sqlite or qdrant, got %q", c.VectorBackend)
	}

	switch c.EmbeddingProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("RS_GEMINI_API_KEY is required when RS_EMBEDDING_PROVIDER is gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("RS_OPENAI_API_KEY is required when RS_EMBEDDING_PROVIDER is openai")
		}
	case "ollama":
	default:
		return fmt.Errorf("RS_EMBEDDING_PROVIDER must be gemini, openai or ollama, got %q", c.EmbeddingProvider)
	}

	switch c.GenerationProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("RS_GEMINI_API_KEY is required when RS_GENERATION_PROVIDER is gemini")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("RS_OPENAI_API_KEY is required when RS_GENERATION_PROVIDER is openai")
		}
	case "ollama":
	default:
		return fmt.Errorf("RS_GENERATION_PROVIDER must be gemini, openai or ollama, got %q", c.GenerationProvider)
	}

	return nil
}
