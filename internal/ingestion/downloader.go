package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ragscout/ragscout/internal/search"
)

// Domains known to serve downloadable papers and reports. Sources
// outside this list that do not end in .pdf are skipped by the
// downloader; the regular article loaders handle them instead.
var academicDomains = []string{
	"arxiv.org",
	"doi.org",
	"ncbi.nlm.nih.gov",
	"springer.com",
	"sciencedirect.com",
	"wiley.com",
	"nature.com",
	"science.org",
	"ieee.org",
	"acm.org",
	"jstor.org",
	"researchgate.net",
	"biorxiv.org",
	"medrxiv.org",
	"ssrn.com",
}

// minPDFBytes rejects bodies too small to be a real PDF (error pages
// served with a 200 status).
const minPDFBytes = 1024

// minSavedChars is the extraction floor for the parse-and-save path.
const minSavedChars = 200

// poolFactor bounds the candidate pool relative to the success quota.
const poolFactor = 3

// Downloaded records one successfully saved source.
type Downloaded struct {
	Source search.Result
	Path   string
}

// Downloader fetches search results to disk in parallel until a target
// number of successes is reached. PDFs are saved as-is; HTML pages are
// parsed and saved as headed text files that LoadTextFile can read back.
type Downloader struct {
	baseDir    string
	maxWorkers int
	timeout    time.Duration
	articles   *ArticleLoader
}

// NewDownloader creates a downloader writing under baseDir/downloads.
func NewDownloader(baseDir string, maxWorkers int, timeout time.Duration) *Downloader {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Downloader{
		baseDir:    baseDir,
		maxWorkers: maxWorkers,
		timeout:    timeout,
		articles:   NewArticleLoader(timeout),
	}
}

type downloadResult struct {
	candidate search.Result
	path      string
	err       error
}

// DownloadUntilQuota works through candidates until minSuccesses of them
// have been saved, keeping up to maxWorkers downloads in flight and
// submitting replacements as attempts fail. Exhausting the pool before
// the quota is met is not an error; the partial result is returned.
func (d *Downloader) DownloadUntilQuota(ctx context.Context, candidates []search.Result, query string, minSuccesses int) ([]Downloaded, error) {
	if minSuccesses < 1 {
		minSuccesses = 1
	}

	dir := filepath.Join(d.baseDir, "downloads", sanitizeFilename(query))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}

	pool := candidates
	if limit := poolFactor * minSuccesses; len(pool) > limit {
		pool = pool[:limit]
	}
	log.Printf("[Downloader] Target %d documents from a pool of %d candidates (%d workers)",
		minSuccesses, len(pool), d.maxWorkers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered to the pool size so workers abandoned after the quota is
	// reached can always deliver and exit.
	results := make(chan downloadResult, len(pool))

	next := 0
	inFlight := 0
	dispatch := func() {
		for inFlight < d.maxWorkers && next < len(pool) {
			candidate := pool[next]
			next++
			inFlight++
			go func() {
				path, err := d.downloadOne(ctx, dir, candidate)
				results <- downloadResult{candidate: candidate, path: path, err: err}
			}()
		}
	}
	dispatch()

	var (
		downloaded []Downloaded
		pdfCount   int
		txtCount   int
		failures   int
	)
	for inFlight > 0 && len(downloaded) < minSuccesses {
		res := <-results
		inFlight--

		if res.err != nil {
			failures++
			log.Printf("[Downloader] Failed %s: %v", res.candidate.URL, res.err)
		} else {
			downloaded = append(downloaded, Downloaded{Source: res.candidate, Path: res.path})
			if strings.HasSuffix(res.path, ".pdf") {
				pdfCount++
			} else {
				txtCount++
			}
			log.Printf("[Downloader] Saved (%d/%d): %s", len(downloaded), minSuccesses, res.path)
		}

		// Every completion frees a slot; keep the pool full until the
		// quota is met or the candidates run out.
		if len(downloaded) < minSuccesses {
			dispatch()
		}
	}
	cancel()

	log.Printf("[Downloader] Done: %d saved (%d pdf, %d txt), %d failed, %d unused candidates",
		len(downloaded), pdfCount, txtCount, failures, len(pool)-next)
	if len(downloaded) < minSuccesses {
		log.Printf("[Downloader] Pool exhausted below target of %d", minSuccesses)
	}
	return downloaded, nil
}

// downloadOne saves a single candidate and returns the file path. PDF
// candidates that turn out not to be PDFs fall through to the
// parse-and-save path.
func (d *Downloader) downloadOne(ctx context.Context, dir string, candidate search.Result) (string, error) {
	if isDownloadableDocument(candidate.URL) {
		path, err := d.savePDF(ctx, dir, candidate)
		if err == nil {
			return path, nil
		}
		log.Printf("[Downloader] Direct download failed for %s, trying page extraction: %v", candidate.URL, err)
	}
	return d.saveArticle(ctx, dir, candidate)
}

// isDownloadableDocument reports whether the URL points at a document
// worth fetching as a binary: an explicit .pdf path or a known
// academic host.
func isDownloadableDocument(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lowerPath := strings.ToLower(u.Path)
	if strings.HasSuffix(lowerPath, ".pdf") || strings.Contains(lowerPath, "/pdf/") {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range academicDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// candidateFilename derives a per-candidate file name. A short URL hash
// keeps concurrent tasks with identical titles (Tavily's "Untitled"
// fallback) from racing on the same path.
func candidateFilename(candidate search.Result, ext string) string {
	sum := sha256.Sum256([]byte(candidate.URL))
	return fmt.Sprintf("%s-%x%s", sanitizeFilename(candidate.Title), sum[:4], ext)
}

func (d *Downloader) savePDF(ctx context.Context, dir string, candidate search.Result) (string, error) {
	path := filepath.Join(dir, candidateFilename(candidate, ".pdf"))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := downloadToFile(ctx, newHTTPClient(d.timeout), candidate.URL, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if stat.Size() < minPDFBytes {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: body too small for a PDF (%d bytes)", ErrExtraction, stat.Size())
	}
	return path, nil
}

// saveArticle extracts the page text and writes it as a headed .txt
// file so LoadTextFile can recover the source URL and title later.
func (d *Downloader) saveArticle(ctx context.Context, dir string, candidate search.Result) (string, error) {
	text, title, err := d.articles.extract(ctx, candidate.URL)
	if err != nil {
		return "", err
	}
	if len(text) < minSavedChars {
		return "", fmt.Errorf("%w: only %d characters extracted", ErrExtraction, len(text))
	}
	if title == "" {
		title = candidate.Title
	}

	path := filepath.Join(dir, candidateFilename(candidate, ".txt"))
	var b strings.Builder
	b.WriteString(textHeaderSource + candidate.URL + "\n")
	b.WriteString(textHeaderTitle + title + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(text)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// sanitizeFilename makes a string safe to use as a file name on common
// filesystems, truncating to a reasonable length.
func sanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "untitled"
	}
	if len(name) > 120 {
		name = name[:120]
	}
	return name
}
