package generation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragscout/ragscout/internal/domain/repository"
)

// stubLLM records the last request and returns a canned answer.
type stubLLM struct {
	answer     string
	err        error
	lastSystem string
	lastUser   string
}

func (s *stubLLM) Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, repository.TokenUsage, error) {
	s.lastSystem = system
	s.lastUser = user
	if s.err != nil {
		return "", repository.TokenUsage{}, s.err
	}
	return s.answer, repository.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

func (s *stubLLM) Name() string { return "stub" }

func TestGenerateEmbedsContextAndQuestion(t *testing.T) {
	llm := &stubLLM{answer: "Grounded answer [1]."}
	g := NewAnswerGenerator(llm, 0.2, 1000)

	result, err := g.Generate(context.Background(), "What is X?", "\n[1] X is a thing\n", []string{"https://example.com/x"})
	require.NoError(t, err)

	assert.Contains(t, llm.lastSystem, "[1] X is a thing")
	assert.NotContains(t, llm.lastSystem, "{context}")
	assert.Equal(t, "What is X?", llm.lastUser)

	assert.True(t, strings.HasPrefix(result.Answer, "Grounded answer [1]."))
	assert.Contains(t, result.Answer, "## Sources")
	assert.Contains(t, result.Answer, "[1] https://example.com/x")
	assert.Equal(t, 15, result.TokensUsed.TotalTokens)
	assert.Equal(t, "stub", result.Model)
}

func TestGenerateWithoutSourcesOmitsSection(t *testing.T) {
	llm := &stubLLM{answer: "I cannot answer from the context."}
	g := NewAnswerGenerator(llm, 0.2, 1000)

	result, err := g.Generate(context.Background(), "What is X?", "No context available.", nil)
	require.NoError(t, err)
	assert.NotContains(t, result.Answer, "## Sources")
}

func TestGenerateBackendError(t *testing.T) {
	g := NewAnswerGenerator(&stubLLM{err: fmt.Errorf("quota exceeded")}, 0.2, 1000)
	_, err := g.Generate(context.Background(), "q", "ctx", nil)
	require.Error(t, err)
}

func TestGenerateNilClient(t *testing.T) {
	g := NewAnswerGenerator(nil, 0.2, 1000)
	_, err := g.Generate(context.Background(), "q", "ctx", nil)
	require.Error(t, err)
}

func TestExpandQueryIncludesOriginalFirst(t *testing.T) {
	llm := &stubLLM{answer: "alternative phrasing of the question\nshort\nanother angle on the question\nthird rewrite of the question\nfourth rewrite of the question\nfifth rewrite of the question"}

	queries := ExpandQuery(context.Background(), llm, "original question")
	require.NotEmpty(t, queries)
	assert.Equal(t, "original question", queries[0])
	assert.LessOrEqual(t, len(queries), 5)
	assert.NotContains(t, queries, "short")
}

func TestExpandQueryFallsBackOnError(t *testing.T) {
	queries := ExpandQuery(context.Background(), &stubLLM{err: fmt.Errorf("down")}, "the question")
	assert.Equal(t, []string{"the question"}, queries)
}

func TestExpandQueryNilClient(t *testing.T) {
	queries := ExpandQuery(context.Background(), nil, "the question")
	assert.Equal(t, []string{"the question"}, queries)
}
