package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragscout/ragscout/internal/search"
)

// newDownloadServer serves fake PDFs under /papers/, long articles
// under /articles/ and 404s everything else.
func newDownloadServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/papers/"):
			_, _ = w.Write([]byte("%PDF-1.4\n" + strings.Repeat("x", 2048)))
		case strings.HasPrefix(r.URL.Path, "/articles/"):
			_, _ = w.Write([]byte(articlePage(longParagraphs(5))))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestDownloadUntilQuotaStopsAtQuota(t *testing.T) {
	server := newDownloadServer()
	defer server.Close()

	var candidates []search.Result
	for i := 0; i < 15; i++ {
		candidates = append(candidates, search.Result{
			Title: fmt.Sprintf("paper-%d", i),
			URL:   fmt.Sprintf("%s/papers/%d.pdf", server.URL, i),
		})
	}
	for i := 0; i < 5; i++ {
		candidates = append(candidates, search.Result{
			Title: fmt.Sprintf("broken-%d", i),
			URL:   fmt.Sprintf("%s/missing/%d", server.URL, i),
		})
	}

	d := NewDownloader(t.TempDir(), 5, 5*time.Second)
	downloaded, err := d.DownloadUntilQuota(context.Background(), candidates, "test query", 10)
	require.NoError(t, err)
	require.Len(t, downloaded, 10)

	for _, item := range downloaded {
		info, err := os.Stat(item.Path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(minPDFBytes))
		assert.Equal(t, ".pdf", filepath.Ext(item.Path))
	}
}

func TestDownloadUntilQuotaPartialResult(t *testing.T) {
	server := newDownloadServer()
	defer server.Close()

	candidates := []search.Result{
		{Title: "a", URL: server.URL + "/missing/a"},
		{Title: "b", URL: server.URL + "/missing/b"},
		{Title: "c", URL: server.URL + "/missing/c"},
	}

	d := NewDownloader(t.TempDir(), 3, 5*time.Second)
	downloaded, err := d.DownloadUntilQuota(context.Background(), candidates, "nothing works", 5)
	require.NoError(t, err)
	assert.Empty(t, downloaded)
}

func TestDownloadUntilQuotaSavesArticlesAsText(t *testing.T) {
	server := newDownloadServer()
	defer server.Close()

	candidates := []search.Result{
		{Title: "Good Article", URL: server.URL + "/articles/one"},
	}

	d := NewDownloader(t.TempDir(), 2, 5*time.Second)
	downloaded, err := d.DownloadUntilQuota(context.Background(), candidates, "articles", 1)
	require.NoError(t, err)
	require.Len(t, downloaded, 1)
	assert.Equal(t, ".txt", filepath.Ext(downloaded[0].Path))

	// The saved file round-trips through the text loader with its
	// source URL intact.
	doc, err := LoadTextFile(downloaded[0].Path, "")
	require.NoError(t, err)
	assert.Equal(t, candidates[0].URL, doc.Metadata.Source)
	assert.Contains(t, doc.PageContent, "Paragraph 0")
}

func TestDownloadUntilQuotaCapsPool(t *testing.T) {
	server := newDownloadServer()
	defer server.Close()

	var candidates []search.Result
	for i := 0; i < 10; i++ {
		candidates = append(candidates, search.Result{
			Title: fmt.Sprintf("p%d", i),
			URL:   fmt.Sprintf("%s/papers/%d.pdf", server.URL, i),
		})
	}

	d := NewDownloader(t.TempDir(), 2, 5*time.Second)
	downloaded, err := d.DownloadUntilQuota(context.Background(), candidates, "capped", 2)
	require.NoError(t, err)
	assert.Len(t, downloaded, 2)
}

func TestDownloadUntilQuotaTopsUpAfterSuccess(t *testing.T) {
	server := newDownloadServer()
	defer server.Close()

	// Quota above the worker count: reaching it requires dispatching
	// replacements as successes complete, not just on failures.
	var candidates []search.Result
	for i := 0; i < 10; i++ {
		candidates = append(candidates, search.Result{
			Title: fmt.Sprintf("paper-%d", i),
			URL:   fmt.Sprintf("%s/papers/%d.pdf", server.URL, i),
		})
	}

	d := NewDownloader(t.TempDir(), 2, 5*time.Second)
	downloaded, err := d.DownloadUntilQuota(context.Background(), candidates, "top up", 6)
	require.NoError(t, err)
	assert.Len(t, downloaded, 6)
}

func TestDownloadUntilQuotaDistinctFilesForDuplicateTitles(t *testing.T) {
	server := newDownloadServer()
	defer server.Close()

	candidates := []search.Result{
		{Title: "Untitled", URL: server.URL + "/papers/first.pdf"},
		{Title: "Untitled", URL: server.URL + "/papers/second.pdf"},
	}

	d := NewDownloader(t.TempDir(), 2, 5*time.Second)
	downloaded, err := d.DownloadUntilQuota(context.Background(), candidates, "same title", 2)
	require.NoError(t, err)
	require.Len(t, downloaded, 2)

	require.NotEqual(t, downloaded[0].Path, downloaded[1].Path)
	for _, item := range downloaded {
		info, err := os.Stat(item.Path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(minPDFBytes))
	}
}

func TestIsDownloadableDocument(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/paper.pdf":          true,
		"https://arxiv.org/abs/2301.00001":       true,
		"https://www.nature.com/articles/s41586": true,
		"https://sub.springer.com/chapter/10.1":  true,
		"https://example.com/blog/post":          false,
		"https://notarxiv.org.evil.com/x":        false,
	}
	for url, want := range cases {
		assert.Equal(t, want, isDownloadableDocument(url), "url %q", url)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c", sanitizeFilename(`a/b\c`))
	assert.Equal(t, "title_ with_ chars_", sanitizeFilename(`title: with? chars*`))
	assert.Equal(t, "untitled", sanitizeFilename("..."))
	assert.LessOrEqual(t, len(sanitizeFilename(strings.Repeat("long", 100))), 120)
}
