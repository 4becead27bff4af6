package embedding

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder emits one-element vectors encoding each text's
// global index and counts upstream calls.
type countingEmbedder struct {
	calls int32
	fail  bool
}

func (c *countingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.fail {
		return nil, fmt.Errorf("backend down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		var idx int
		_, _ = fmt.Sscanf(text, "text-%d", &idx)
		out[i] = []float32{float32(idx)}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{42}, nil
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("text-%d", i)
	}
	return out
}

func TestBatcherPreservesOrder(t *testing.T) {
	upstream := &countingEmbedder{}
	b := NewBatcher(upstream, 10)

	vectors, err := b.EmbedDocuments(context.Background(), texts(35))
	require.NoError(t, err)
	require.Len(t, vectors, 35)

	for i, vec := range vectors {
		require.Len(t, vec, 1)
		assert.Equal(t, float32(i), vec[0], "vector %d out of order", i)
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&upstream.calls))
}

func TestBatcherSmallInputSingleCall(t *testing.T) {
	upstream := &countingEmbedder{}
	b := NewBatcher(upstream, 100)

	vectors, err := b.EmbedDocuments(context.Background(), texts(5))
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, int32(1), atomic.LoadInt32(&upstream.calls))
}

func TestBatcherEmptyInput(t *testing.T) {
	b := NewBatcher(&countingEmbedder{}, 10)
	vectors, err := b.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, vectors)
	assert.Empty(t, vectors)
}

func TestBatcherPropagatesFailure(t *testing.T) {
	b := NewBatcher(&countingEmbedder{fail: true}, 10)
	_, err := b.EmbedDocuments(context.Background(), texts(25))
	require.Error(t, err)
}

func TestBatcherEmbedQueryDelegates(t *testing.T) {
	b := NewBatcher(&countingEmbedder{}, 10)
	vec, err := b.EmbedQuery(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []float32{42}, vec)
}
