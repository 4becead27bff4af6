package generation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ragscout/ragscout/internal/domain/repository"
)

// ragSystemPrompt grounds the model in the retrieved context and asks
// for numbered citations matching the context blocks.
const ragSystemPrompt = `You are a research assistant. Answer the user's question using ONLY the provided context.

Guidelines:
- Base every claim on the context. If the context does not contain the answer, say so plainly.
- Cite sources inline with their bracketed numbers, e.g. [1] or [2], matching the numbered context blocks.
- Be concise and factual. Do not speculate beyond the context.

Context:
{context}`

// GeneratedAnswer is the result of one answer synthesis.
type GeneratedAnswer struct {
	Answer     string
	Sources    []string
	TokensUsed repository.TokenUsage
	Model      string
}

// AnswerGenerator produces grounded answers from assembled context.
type AnswerGenerator struct {
	client      repository.LLMClient
	temperature float32
	maxTokens   int
}

// NewAnswerGenerator creates a generator with the sampling settings
// applied to every request.
func NewAnswerGenerator(client repository.LLMClient, temperature float32, maxTokens int) *AnswerGenerator {
	return &AnswerGenerator{client: client, temperature: temperature, maxTokens: maxTokens}
}

// Generate answers the question against the assembled context and
// appends a Sources section listing the cited URLs in context order.
func (g *AnswerGenerator) Generate(ctx context.Context, question, contextText string, sources []string) (GeneratedAnswer, error) {
	if g.client == nil {
		return GeneratedAnswer{}, fmt.Errorf("no generation backend configured")
	}
	log.Printf("[Generator] Generating answer with %s (%d sources)", g.client.Name(), len(sources))

	system := strings.Replace(ragSystemPrompt, "{context}", contextText, 1)
	answer, usage, err := g.client.Generate(ctx, system, question, g.temperature, g.maxTokens)
	if err != nil {
		return GeneratedAnswer{}, fmt.Errorf("answer generation failed: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if len(sources) > 0 {
		var b strings.Builder
		b.WriteString(answer)
		b.WriteString("\n\n## Sources\n")
		for i, src := range sources {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, src)
		}
		answer = strings.TrimSpace(b.String())
	}

	return GeneratedAnswer{
		Answer:     answer,
		Sources:    sources,
		TokensUsed: usage,
		Model:      g.client.Name(),
	}, nil
}
