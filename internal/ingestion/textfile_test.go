package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragscout/ragscout/internal/document"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTextFileWithHeaders(t *testing.T) {
	content := "Source: https://example.com/article\nTitle: Example Article\n====\n\nThe body of the article."
	path := writeTempFile(t, "article.txt", content)

	doc, err := LoadTextFile(path, "")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/article", doc.Metadata.Source)
	assert.Equal(t, "Example Article", doc.Metadata.Title)
	assert.Equal(t, document.SourceArticle, doc.Metadata.SourceType)
	assert.Equal(t, path, doc.Metadata.FilePath)
	assert.Contains(t, doc.PageContent, "The body of the article.")
}

func TestLoadTextFileSourceURLWins(t *testing.T) {
	path := writeTempFile(t, "a.txt", "Source: https://header.example.com\n\nbody text")

	doc, err := LoadTextFile(path, "https://explicit.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://explicit.example.com", doc.Metadata.Source)
}

func TestLoadTextFileWithoutHeaders(t *testing.T) {
	path := writeTempFile(t, "plain.txt", "just some plain text content")

	doc, err := LoadTextFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, path, doc.Metadata.Source)
	assert.Empty(t, doc.Metadata.Title)
}

func TestLoadTextFileEmpty(t *testing.T) {
	path := writeTempFile(t, "empty.txt", "   \n\n  ")

	_, err := LoadTextFile(path, "")
	require.ErrorIs(t, err, ErrExtraction)
}
