package ingestion

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	ltpdf "github.com/ledongthuc/pdf"
	rscpdf "rsc.io/pdf"

	"github.com/ragscout/ragscout/internal/document"
)

// minPDFChars is the extraction threshold below which a PDF is treated
// as unreadable (scanned images, DRM, corrupt file).
const minPDFChars = 100

type pdfInfo struct {
	NumPages int
	Title    string
	Author   string
}

// pdfStrategy is one extraction backend. Strategies are tried in order;
// the first one returning usable text wins.
type pdfStrategy struct {
	name    string
	extract func(path string) (string, pdfInfo, error)
}

var pdfStrategies = []pdfStrategy{
	{name: "ledongthuc", extract: extractPDFPrimary},
	{name: "rsc", extract: extractPDFFallback},
}

// LoadPDFFile extracts text from a local PDF and returns it as a
// Document. sourceURL, when non-empty, is recorded as the document
// source instead of the file path.
func LoadPDFFile(path, sourceURL string) (document.Document, error) {
	log.Printf("[PDF] Loading: %s", path)

	var (
		text string
		info pdfInfo
		errs []string
	)
	for _, strategy := range pdfStrategies {
		t, i, err := strategy.extract(path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", strategy.name, err))
			continue
		}
		t = cleanPDFText(t)
		if len(t) < minPDFChars {
			errs = append(errs, fmt.Sprintf("%s: only %d characters", strategy.name, len(t)))
			continue
		}
		text, info = t, i
		break
	}
	if text == "" {
		return document.Document{}, fmt.Errorf("%w: %s (%s)", ErrExtraction, path, strings.Join(errs, "; "))
	}

	source := sourceURL
	if source == "" {
		source = path
	}
	doc := document.Document{
		PageContent: text,
		Metadata: document.Metadata{
			Source:        source,
			SourceType:    document.SourcePDF,
			Title:         info.Title,
			Author:        info.Author,
			ContentLength: len(text),
			NumPages:      info.NumPages,
			FilePath:      path,
		},
	}
	log.Printf("[PDF] Extracted %d characters from %d pages: %s", len(text), info.NumPages, path)
	return doc, nil
}

// LoadPDFURL downloads a PDF to a temporary file, extracts it and
// removes the temporary file.
func LoadPDFURL(ctx context.Context, url string, timeout time.Duration) (document.Document, error) {
	log.Printf("[PDF] Downloading: %s", url)

	tmp, err := os.CreateTemp("", "ragscout-*.pdf")
	if err != nil {
		return document.Document{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := downloadToFile(ctx, newHTTPClient(timeout), url, tmp); err != nil {
		_ = tmp.Close()
		return document.Document{}, err
	}
	if err := tmp.Close(); err != nil {
		return document.Document{}, fmt.Errorf("closing temp file: %w", err)
	}

	return LoadPDFFile(tmpPath, url)
}

// downloadToFile streams a GET response into w.
func downloadToFile(ctx context.Context, client *http.Client, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d from %s", ErrFetch, resp.StatusCode, url)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: streaming body: %v", ErrFetch, err)
	}
	return nil
}

// extractPDFPrimary uses ledongthuc/pdf, which preserves layout better
// than the fallback.
func extractPDFPrimary(path string) (string, pdfInfo, error) {
	f, r, err := ltpdf.Open(path)
	if err != nil {
		return "", pdfInfo{}, err
	}
	defer func() { _ = f.Close() }()

	info := pdfInfo{NumPages: r.NumPage()}
	trailer := r.Trailer().Key("Info")
	if !trailer.IsNull() {
		info.Title = trailer.Key("Title").Text()
		info.Author = trailer.Key("Author").Text()
	}

	var parts []string
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("[PDF] Failed to extract page %d of %s: %v", n, path, err)
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			parts = append(parts, fmt.Sprintf("\n--- Page %d ---\n%s", n, pageText))
		}
	}
	return strings.Join(parts, "\n"), info, nil
}

// extractPDFFallback uses rsc.io/pdf, which copes with some files the
// primary backend rejects. It joins positioned text runs with spaces,
// losing layout but recovering content.
func extractPDFFallback(path string) (string, pdfInfo, error) {
	r, err := rscpdf.Open(path)
	if err != nil {
		return "", pdfInfo{}, err
	}

	info := pdfInfo{NumPages: r.NumPage()}
	var parts []string
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		var b strings.Builder
		for _, t := range content.Text {
			b.WriteString(t.S)
			b.WriteByte(' ')
		}
		if strings.TrimSpace(b.String()) != "" {
			parts = append(parts, fmt.Sprintf("\n--- Page %d ---\n%s", n, b.String()))
		}
	}
	return strings.Join(parts, "\n"), info, nil
}

var (
	multiSpace   = regexp.MustCompile(` +`)
	multiNewline = regexp.MustCompile(`\n\n+`)
)

// cleanPDFText normalizes whitespace in raw extractor output.
func cleanPDFText(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
