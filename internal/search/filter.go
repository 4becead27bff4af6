package search

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/ragscout/ragscout/internal/document"
	"github.com/ragscout/ragscout/internal/domain/repository"
	"github.com/ragscout/ragscout/internal/vector"
)

// FilterByRelevance keeps sources whose snippet is semantically close to
// the query. Query and snippets are embedded in a single batched call;
// each surviving source's Score is overwritten with its similarity and
// the output is sorted by score descending.
//
// With a nil embedder it falls back to pure keyword overlap. If the
// embedding call fails, all sources are returned unfiltered: relevance
// filtering is an optimization, not a correctness requirement.
func FilterByRelevance(ctx context.Context, query string, sources []Result, embedder repository.EmbeddingClient, threshold float64) []Result {
	if len(sources) == 0 {
		log.Printf("[Filter] No sources to filter")
		return []Result{}
	}

	if embedder == nil {
		log.Printf("[Filter] No embedder configured, using keyword-based filtering")
		return filterByKeywords(query, sources, threshold)
	}

	log.Printf("[Filter] Filtering %d sources with threshold %.2f", len(sources), threshold)

	texts := make([]string, 0, len(sources)+1)
	texts = append(texts, query)
	for _, s := range sources {
		texts = append(texts, s.ContentSnippet)
	}

	embeddings, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil || len(embeddings) != len(texts) {
		log.Printf("[Filter] Embedding failed (%v), returning all %d sources unfiltered", err, len(sources))
		return sources
	}

	queryVec := embeddings[0]
	var kept []Result
	for i, s := range sources {
		sim, err := vector.CosineSimilarity(queryVec, embeddings[i+1])
		if err != nil {
			continue
		}
		if sim >= threshold {
			s.Score = sim
			kept = append(kept, s)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	log.Printf("[Filter] Kept %d of %d sources", len(kept), len(sources))
	return kept
}

// filterByKeywords scores each source by the fraction of query words
// present in its snippet. Pure and dependency-free so it can run without
// network access.
func filterByKeywords(query string, sources []Result, threshold float64) []Result {
	queryWords := wordSet(query)

	var kept []Result
	for _, s := range sources {
		snippetWords := wordSet(s.ContentSnippet)
		overlap := 0
		for w := range queryWords {
			if snippetWords[w] {
				overlap++
			}
		}
		denom := len(queryWords)
		if denom == 0 {
			denom = 1
		}
		score := float64(overlap) / float64(denom)
		if score >= threshold {
			s.Score = score
			kept = append(kept, s)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	log.Printf("[Filter] Keyword filtering kept %d of %d sources", len(kept), len(sources))
	return kept
}

func wordSet(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// NormalizeURL strips the query string, fragment and trailing slash so
// that cosmetic URL variants compare equal.
func NormalizeURL(url string) string {
	if i := strings.IndexByte(url, '#'); i >= 0 {
		url = url[:i]
	}
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	return strings.TrimRight(url, "/")
}

// Deduplicate drops sources whose normalized URL was already seen,
// preserving first-seen input order (not score order).
func Deduplicate(sources []Result) []Result {
	if len(sources) == 0 {
		return []Result{}
	}

	seen := make(map[string]bool, len(sources))
	unique := make([]Result, 0, len(sources))
	for _, s := range sources {
		key := NormalizeURL(s.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, s)
	}

	if removed := len(sources) - len(unique); removed > 0 {
		log.Printf("[Filter] Removed %d duplicate sources", removed)
	}
	return unique
}

// RankBySourceType reorders sources by type preference (earlier types
// first), breaking ties by score descending.
func RankBySourceType(sources []Result, preferred []document.SourceType) []Result {
	if len(preferred) == 0 {
		preferred = []document.SourceType{document.SourcePDF, document.SourceArticle, document.SourceVideo}
	}
	priority := make(map[document.SourceType]int, len(preferred))
	for i, t := range preferred {
		priority[t] = i
	}
	rank := func(t document.SourceType) int {
		if p, ok := priority[t]; ok {
			return p
		}
		return len(preferred)
	}

	out := make([]Result, len(sources))
	copy(out, sources)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := rank(out[i].SourceType), rank(out[j].SourceType)
		if pi != pj {
			return pi < pj
		}
		return out[i].Score > out[j].Score
	})
	return out
}
