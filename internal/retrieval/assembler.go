package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ragscout/ragscout/internal/domain/repository"
)

// NoContextSentinel is returned as the context string when retrieval
// yields nothing usable.
const NoContextSentinel = "No context available."

const blockSeparator = "\n---\n"

// Assembler retrieves chunks for a query and packs them into a single
// numbered context string under a character budget.
type Assembler struct {
	store      repository.VectorRepository
	charBudget int
}

// NewAssembler creates an assembler with the given context character
// budget (8000 if not positive).
func NewAssembler(store repository.VectorRepository, charBudget int) *Assembler {
	if charBudget <= 0 {
		charBudget = 8000
	}
	return &Assembler{store: store, charBudget: charBudget}
}

// AssembleContext searches for the top k chunks and joins them as
// numbered blocks separated by "---". Chunks are included whole or not
// at all; a chunk that would push the assembled string past the budget
// is dropped along with everything after it. The returned sources list
// the chunk origins in block order.
func (a *Assembler) AssembleContext(ctx context.Context, query string, k int) (string, []string, error) {
	results, err := a.store.Search(ctx, query, k, nil)
	if err != nil {
		return "", nil, fmt.Errorf("retrieval failed: %w", err)
	}
	text, sources := FormatContext(results, a.charBudget)
	return text, sources, nil
}

// FormatContext packs scored chunks into a numbered context string
// under the character budget. Chunks are included whole or not at all;
// the first chunk that would overflow the budget ends the packing.
func FormatContext(results []repository.ScoredChunk, charBudget int) (string, []string) {
	if len(results) == 0 {
		log.Printf("[Retrieval] No results for query")
		return NoContextSentinel, []string{}
	}

	var (
		blocks  []string
		sources []string
		used    int
	)
	for _, result := range results {
		block := fmt.Sprintf("\n[%d] %s\n", len(sources)+1, result.Chunk.Text)
		cost := len(block)
		if len(blocks) > 0 {
			cost += len(blockSeparator)
		}
		if used+cost > charBudget {
			break
		}
		used += cost
		blocks = append(blocks, block)
		sources = append(sources, result.Chunk.Metadata.Source)
	}
	if len(blocks) == 0 {
		log.Printf("[Retrieval] No chunk fits the %d character budget", charBudget)
		return NoContextSentinel, []string{}
	}

	log.Printf("[Retrieval] Assembled %d/%d chunks (%d characters)", len(blocks), len(results), used)
	return strings.Join(blocks, blockSeparator), sources
}
