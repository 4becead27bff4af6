package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragscout/ragscout/internal/document"
)

func articlePage(body string) string {
	return fmt.Sprintf(`<html>
<head><title>Test Article</title></head>
<body>
<nav>Home About Contact Privacy Settings</nav>
<script>console.log("tracking")</script>
<article>%s</article>
<footer>Copyright Notice 2026</footer>
</body>
</html>`, body)
}

func longParagraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>Paragraph %d explains the main subject of this article in reasonable depth and detail.</p>\n", i)
	}
	return b.String()
}

func TestArticleLoaderExtractsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage(longParagraphs(5))))
	}))
	defer server.Close()

	doc, err := NewArticleLoader(5*time.Second).Load(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Test Article", doc.Metadata.Title)
	assert.Equal(t, document.SourceArticle, doc.Metadata.SourceType)
	assert.Equal(t, server.URL, doc.Metadata.Source)
	assert.Equal(t, len(doc.PageContent), doc.Metadata.ContentLength)

	assert.Contains(t, doc.PageContent, "Paragraph 0")
	assert.Contains(t, doc.PageContent, "Paragraph 4")
	assert.NotContains(t, doc.PageContent, "tracking")
	assert.NotContains(t, doc.PageContent, "Copyright Notice")
}

func TestArticleLoaderRejectsShortContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage("<p>too short</p>")))
	}))
	defer server.Close()

	_, err := NewArticleLoader(5*time.Second).Load(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrExtraction)
}

func TestArticleLoaderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewArticleLoader(5*time.Second).Load(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrFetch)
}

func TestArticleLoaderFallsBackToBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>Bare</title></head><body>" + longParagraphs(5) + "</body></html>"))
	}))
	defer server.Close()

	doc, err := NewArticleLoader(5*time.Second).Load(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, doc.PageContent, "Paragraph 3")
}
