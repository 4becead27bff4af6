// Package repository declares the ports the pipeline depends on. The
// core depends only on these interfaces; providers live under
// internal/embedding, internal/llm and internal/vectorstore.
package repository

import (
	"context"

	"github.com/ragscout/ragscout/internal/document"
)

// EmbeddingClient turns text into vectors. The same client (same model,
// same dimensionality) must be used for a collection's inserts and its
// query-time searches; mixing models silently corrupts neighbor geometry.
type EmbeddingClient interface {
	// EmbedDocuments embeds a batch of texts in one call, returning one
	// vector per input in input order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TokenUsage reports the token accounting of a single LLM call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient is an opaque text-completion service.
type LLMClient interface {
	Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, TokenUsage, error)
	Name() string
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
// Score is in [0,1]: 1.0 identical, 0.0 maximally dissimilar.
type ScoredChunk struct {
	Chunk document.Chunk
	Score float64
}

// CollectionStats describes a vector collection.
type CollectionStats struct {
	CollectionName string
	TotalDocuments int
}

// VectorRepository is a named persistent vector collection. Entries are
// never deduplicated: adding the same chunks twice doubles them.
type VectorRepository interface {
	// Add embeds all chunk texts in one batched call and persists
	// (id, embedding, text, metadata) as a single batch write. IDs are
	// sequential doc_{n}, continuing from the current collection size.
	Add(ctx context.Context, chunks []document.Chunk) error
	// Search embeds the query and returns the k nearest entries by
	// cosine distance, as similarity scores (1 - distance). The optional
	// filter restricts results to entries whose metadata exactly matches
	// every key. An empty collection yields an empty slice, not an error.
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]ScoredChunk, error)
	Stats(ctx context.Context) (CollectionStats, error)
	// Clear irreversibly empties the collection.
	Clear(ctx context.Context) error
}
