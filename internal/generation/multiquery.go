package generation

import (
	"context"
	"log"
	"strings"

	"github.com/ragscout/ragscout/internal/domain/repository"
)

const multiQueryPrompt = `Rewrite the following question as up to 4 alternative search queries that approach it from different angles. Output one query per line with no numbering or extra text.`

// minQueryChars filters out junk lines in model output.
const minQueryChars = 10

// maxQueries bounds the expansion including the original question.
const maxQueries = 5

// ExpandQuery rewrites a question into several retrieval queries. The
// original question is always first. On any failure the original
// question alone is returned; expansion is best effort.
func ExpandQuery(ctx context.Context, client repository.LLMClient, question string) []string {
	queries := []string{question}
	if client == nil {
		return queries
	}

	out, _, err := client.Generate(ctx, multiQueryPrompt, question, 0.7, 256)
	if err != nil {
		log.Printf("[MultiQuery] Expansion failed, using original query only: %v", err)
		return queries
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= minQueryChars || strings.EqualFold(line, question) {
			continue
		}
		queries = append(queries, line)
		if len(queries) >= maxQueries {
			break
		}
	}
	log.Printf("[MultiQuery] Expanded question into %d queries", len(queries))
	return queries
}
