package chunker

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ragscout/ragscout/internal/document"
)

// ChunkParallel fans the document list out over `workers` contiguous
// batches, chunks each batch in its own goroutine and concatenates the
// results in batch order. Output order is deterministic for a fixed
// document list and worker count; citation numbering downstream relies
// on that.
func ChunkParallel(ctx context.Context, docs []document.Document, chunkSize, chunkOverlap, workers int) ([]document.Chunk, error) {
	if len(docs) == 0 {
		return []document.Chunk{}, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(docs) {
		workers = len(docs)
	}
	if workers == 1 {
		return New(chunkSize, chunkOverlap).Chunk(docs), nil
	}

	log.Printf("[Chunker] Parallel chunking %d documents across %d workers", len(docs), workers)

	batches := partition(docs, workers)
	results := make([][]document.Chunk, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = New(chunkSize, chunkOverlap).Chunk(batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []document.Chunk
	for _, r := range results {
		chunks = append(chunks, r...)
	}
	if chunks == nil {
		chunks = []document.Chunk{}
	}
	return chunks, nil
}

// partition splits docs into n contiguous near-equal batches; the
// remainder is spread over the leading batches.
func partition(docs []document.Document, n int) [][]document.Document {
	batches := make([][]document.Document, 0, n)
	size := len(docs) / n
	rem := len(docs) % n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rem {
			end++
		}
		if start == end {
			continue
		}
		batches = append(batches, docs[start:end])
		start = end
	}
	return batches
}
