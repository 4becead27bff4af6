package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ragscout/ragscout/internal/document"
)

// Content containers tried in order; the first one holding a
// substantial amount of text wins.
var contentSelectors = []string{
	"article",
	"[role=main]",
	"main",
	".article-content",
	".post-content",
	".entry-content",
	"#content",
	".content",
}

const strippedElements = "script, style, nav, header, footer, aside, form, iframe, noscript"

// minArticleChars is the extraction threshold: anything shorter is an
// error page or a paywall stub, not an article.
const minArticleChars = 200

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ArticleLoader fetches web pages and extracts their readable text.
type ArticleLoader struct {
	client  *http.Client
	timeout time.Duration
}

// NewArticleLoader creates an article loader with the given request
// timeout (15s if zero).
func NewArticleLoader(timeout time.Duration) *ArticleLoader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ArticleLoader{client: newHTTPClient(timeout), timeout: timeout}
}

// Load fetches the URL and returns the extracted article as a Document.
// It fails with ErrExtraction when less than minArticleChars of body
// text survives cleaning.
func (l *ArticleLoader) Load(ctx context.Context, url string) (document.Document, error) {
	log.Printf("[Article] Loading: %s", url)

	text, title, err := l.extract(ctx, url)
	if err != nil {
		return document.Document{}, err
	}

	doc := document.Document{
		PageContent: text,
		Metadata: document.Metadata{
			Source:        url,
			SourceType:    document.SourceArticle,
			Title:         title,
			ContentLength: len(text),
		},
	}
	log.Printf("[Article] Loaded %d characters from %s", len(text), url)
	return doc, nil
}

// extract returns the cleaned body text and page title. Shared with the
// downloader's parse-and-save path.
func (l *ArticleLoader) extract(ctx context.Context, url string) (text, title string, err error) {
	body, err := fetch(ctx, l.client, url)
	if err != nil {
		return "", "", err
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("%w: parsing HTML: %v", ErrExtraction, err)
	}

	title = strings.TrimSpace(page.Find("title").First().Text())
	page.Find(strippedElements).Remove()

	var content *goquery.Selection
	for _, selector := range contentSelectors {
		sel := page.Find(selector).First()
		if sel.Length() > 0 && len(strings.TrimSpace(sel.Text())) > minArticleChars {
			content = sel
			break
		}
	}
	if content == nil {
		content = page.Find("body").First()
		if content.Length() == 0 {
			content = page.Selection
		}
	}

	text = cleanLines(flattenText(content))
	if len(text) < minArticleChars {
		return "", "", fmt.Errorf("%w: only %d characters extracted from %s", ErrExtraction, len(text), url)
	}
	return text, title, nil
}

// flattenText walks the selection's nodes and renders text content with
// line breaks after block-level elements, which goquery's Text() does
// not preserve.
func flattenText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		walkText(&b, node)
	}
	return b.String()
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "li": true, "ul": true,
	"ol": true, "tr": true, "table": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "figcaption": true,
}

func walkText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(b, c)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteByte('\n')
	}
}

// cleanLines trims every line, drops empty and near-empty lines and
// collapses runs of blank lines.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > 3 {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(kept, "\n"), "\n\n"))
}
