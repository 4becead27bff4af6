package ingestion

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ragscout/ragscout/internal/document"
)

// Header keys written by the downloader's parse-and-save path and read
// back by LoadTextFile.
const (
	textHeaderSource = "Source: "
	textHeaderTitle  = "Title: "
)

// LoadTextFile reads a saved article text file as a Document. Files
// written by the downloader start with "Source:" and "Title:" lines;
// when present they are surfaced as metadata.
func LoadTextFile(path, sourceURL string) (document.Document, error) {
	log.Printf("[Text] Loading: %s", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(raw)
	if strings.TrimSpace(content) == "" {
		return document.Document{}, fmt.Errorf("%w: empty text file %s", ErrExtraction, path)
	}

	var title, headerSource string
	for _, line := range strings.SplitN(content, "\n", 8) {
		switch {
		case strings.HasPrefix(line, textHeaderTitle):
			title = strings.TrimSpace(strings.TrimPrefix(line, textHeaderTitle))
		case strings.HasPrefix(line, textHeaderSource):
			headerSource = strings.TrimSpace(strings.TrimPrefix(line, textHeaderSource))
		}
	}

	source := sourceURL
	if source == "" {
		source = headerSource
	}
	if source == "" {
		source = path
	}

	doc := document.Document{
		PageContent: content,
		Metadata: document.Metadata{
			Source:        source,
			SourceType:    document.SourceArticle,
			Title:         title,
			ContentLength: len(content),
			FilePath:      path,
		},
	}
	log.Printf("[Text] Loaded %d characters from %s", len(content), path)
	return doc, nil
}
