package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const defaultTavilyURL = "https://api.tavily.com"

// TavilyClient implements Client against the Tavily search API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTavilyClient creates a Tavily search client.
func NewTavilyClient(apiKey string) (*TavilyClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("tavily API key must not be empty")
	}
	return &TavilyClient{
		apiKey:  apiKey,
		baseURL: defaultTavilyURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// Search queries Tavily and maps the response onto Results with a
// detected source type. Full content is fetched later by the loaders,
// so raw content and the AI answer are excluded from the request.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int, depth string) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	if depth == "" {
		depth = "advanced"
	}
	log.Printf("[Search] Tavily: %q (max_results=%d, depth=%s)", query, maxResults, depth)

	body, err := json.Marshal(tavilyRequest{
		APIKey:      c.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: depth,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tavily returned status %d: %s", resp.StatusCode, string(msg))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tavily response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		results = append(results, Result{
			Title:          title,
			URL:            item.URL,
			ContentSnippet: item.Content,
			SourceType:     DetectSourceType(item.URL),
			Score:          item.Score,
			PublishedDate:  item.PublishedDate,
		})
	}

	log.Printf("[Search] Found %d results for %q", len(results), query)
	return results, nil
}
