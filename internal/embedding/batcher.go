package embedding

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ragscout/ragscout/internal/domain/repository"
)

// Batcher wraps an EmbeddingClient and splits large document sets into
// bounded batches executed concurrently, keeping each upstream request
// within provider payload limits.
type Batcher struct {
	client    repository.EmbeddingClient
	batchSize int
}

// NewBatcher creates an embedding batcher. A batch size of 100 keeps
// requests comfortably under typical provider limits.
func NewBatcher(client repository.EmbeddingClient, batchSize int) *Batcher {
	if batchSize < 1 {
		batchSize = 100
	}
	return &Batcher{client: client, batchSize: batchSize}
}

// EmbedDocuments splits texts into batches, embeds them concurrently
// and reassembles the vectors in input order.
func (b *Batcher) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) <= b.batchSize {
		return b.client.EmbedDocuments(ctx, texts)
	}

	numBatches := (len(texts) + b.batchSize - 1) / b.batchSize
	log.Printf("[Batcher] Splitting %d texts into %d batches (max %d/batch)", len(texts), numBatches, b.batchSize)

	vectors := make([][]float32, len(texts))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numBatches; i++ {
		start := i * b.batchSize
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]
		g.Go(func() error {
			embedded, err := b.client.EmbedDocuments(ctx, batch)
			if err != nil {
				return fmt.Errorf("batch starting at %d failed: %w", start, err)
			}
			mu.Lock()
			copy(vectors[start:end], embedded)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery delegates to the wrapped client.
func (b *Batcher) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return b.client.EmbedQuery(ctx, text)
}
