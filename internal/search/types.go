// Package search finds candidate sources on the web and filters them
// before any expensive fetch work is spent on them.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragscout/ragscout/internal/document"
)

// Result is a discovered candidate source before its content is
// fetched. URL is the unique key for deduplication. Score starts as the
// search backend's relevance and is overwritten by the relevance filter;
// a Result is never mutated after it passes filtering.
type Result struct {
	Title          string              `json:"title"`
	URL            string              `json:"url"`
	ContentSnippet string              `json:"content_snippet"`
	SourceType     document.SourceType `json:"source_type"`
	Score          float64             `json:"score"`
	PublishedDate  string              `json:"published_date,omitempty"`
}

func (r Result) String() string {
	title := r.Title
	if len(title) > 50 {
		title = title[:50] + "..."
	}
	return fmt.Sprintf("Result(title=%q, type=%s, score=%.2f)", title, r.SourceType, r.Score)
}

// Client is the online search service. depth is backend-specific
// ("basic" or "advanced" for Tavily).
type Client interface {
	Search(ctx context.Context, query string, maxResults int, depth string) ([]Result, error)
}

var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com"}

// DetectSourceType classifies a URL as video, pdf or article.
func DetectSourceType(url string) document.SourceType {
	lower := strings.ToLower(url)
	for _, host := range videoHosts {
		if strings.Contains(lower, host) {
			return document.SourceVideo
		}
	}
	if strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "/pdf/") {
		return document.SourcePDF
	}
	return document.SourceArticle
}
