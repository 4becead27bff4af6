package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragscout/ragscout/internal/document"
	"github.com/ragscout/ragscout/internal/domain/repository"
)

// stubStore returns canned search results.
type stubStore struct {
	results []repository.ScoredChunk
	err     error
}

func (s *stubStore) Add(ctx context.Context, chunks []document.Chunk) error { return nil }

func (s *stubStore) Search(ctx context.Context, query string, k int, filter map[string]string) ([]repository.ScoredChunk, error) {
	return s.results, s.err
}

func (s *stubStore) Stats(ctx context.Context) (repository.CollectionStats, error) {
	return repository.CollectionStats{}, nil
}

func (s *stubStore) Clear(ctx context.Context) error { return nil }

func scoredChunks(n, textLen int) []repository.ScoredChunk {
	out := make([]repository.ScoredChunk, n)
	for i := range out {
		out[i] = repository.ScoredChunk{
			Chunk: document.Chunk{
				Text:     strings.Repeat(string(rune('a'+i)), textLen),
				Metadata: document.Metadata{Source: fmt.Sprintf("https://example.com/%d", i)},
			},
			Score: 1 - float64(i)*0.1,
		}
	}
	return out
}

func TestAssembleContextNumbersBlocks(t *testing.T) {
	store := &stubStore{results: scoredChunks(3, 40)}
	a := NewAssembler(store, 8000)

	text, sources, err := a.AssembleContext(context.Background(), "query", 3)
	require.NoError(t, err)
	require.Len(t, sources, 3)

	assert.Contains(t, text, "[1] "+strings.Repeat("a", 40))
	assert.Contains(t, text, "[2] "+strings.Repeat("b", 40))
	assert.Contains(t, text, "[3] "+strings.Repeat("c", 40))
	assert.Equal(t, 2, strings.Count(text, "\n---\n"))
	assert.Equal(t, "https://example.com/0", sources[0])
}

func TestAssembleContextRespectsBudget(t *testing.T) {
	store := &stubStore{results: scoredChunks(10, 200)}
	a := NewAssembler(store, 500)

	text, sources, err := a.AssembleContext(context.Background(), "query", 10)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(text), 500)
	assert.NotEmpty(t, sources)
	assert.Less(t, len(sources), 10)

	// Chunks are whole or absent, never truncated.
	for i := range sources {
		assert.Contains(t, text, strings.Repeat(string(rune('a'+i)), 200))
	}
}

func TestAssembleContextNoResults(t *testing.T) {
	a := NewAssembler(&stubStore{}, 8000)

	text, sources, err := a.AssembleContext(context.Background(), "query", 5)
	require.NoError(t, err)
	assert.Equal(t, NoContextSentinel, text)
	require.NotNil(t, sources)
	assert.Empty(t, sources)
}

func TestAssembleContextNothingFits(t *testing.T) {
	store := &stubStore{results: scoredChunks(2, 300)}
	a := NewAssembler(store, 50)

	text, sources, err := a.AssembleContext(context.Background(), "query", 2)
	require.NoError(t, err)
	assert.Equal(t, NoContextSentinel, text)
	assert.Empty(t, sources)
}

func TestAssembleContextSearchError(t *testing.T) {
	a := NewAssembler(&stubStore{err: fmt.Errorf("backend down")}, 8000)

	_, _, err := a.AssembleContext(context.Background(), "query", 5)
	require.Error(t, err)
}
