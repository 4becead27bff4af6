package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/ragscout/ragscout/internal/document"
)

// ScanDocuments walks dir recursively and returns the paths of all
// loadable files (.pdf and .txt), sorted by the walk order.
func ScanDocuments(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf", ".txt":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return paths, nil
}

// LoadLocalDocuments loads every .pdf and .txt file under dir. Files
// that fail to load are skipped and counted, not fatal.
func LoadLocalDocuments(ctx context.Context, dir string) ([]document.Document, int, error) {
	paths, err := ScanDocuments(dir)
	if err != nil {
		return nil, 0, err
	}
	log.Printf("[Local] Found %d documents under %s", len(paths), dir)

	docs := make([]document.Document, 0, len(paths))
	skipped := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return docs, skipped, err
		}
		var (
			doc     document.Document
			loadErr error
		)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf":
			doc, loadErr = LoadPDFFile(path, "")
		case ".txt":
			doc, loadErr = LoadTextFile(path, "")
		}
		if loadErr != nil {
			log.Printf("[Local] Skipping %s: %v", path, loadErr)
			skipped++
			continue
		}
		docs = append(docs, doc)
	}
	log.Printf("[Local] Loaded %d documents, skipped %d", len(docs), skipped)
	return docs, skipped, nil
}
