// Package chunker splits documents into overlapping fixed-size windows
// using ordered separator preference.
package chunker

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/ragscout/ragscout/internal/document"
)

// Separator preference: paragraph break, line break, sentence end,
// word boundary, then a hard character split as last resort.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits text into segments of at most chunkSize characters and
// emits them with chunkOverlap characters of trailing context from the
// previous raw segment prepended.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New creates a Chunker. An overlap at or above the chunk size would
// never terminate, so it is clamped to chunkSize-1 with a warning; the
// pipeline configuration rejects such values up front as well.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		log.Printf("[Chunker] Warning: overlap %d >= chunk size %d, clamping to %d", chunkOverlap, chunkSize, chunkSize-1)
		chunkOverlap = chunkSize - 1
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Chunk splits each document and returns all chunks in document order.
// Every chunk inherits its parent's metadata verbatim. An empty input
// returns an empty slice.
func (c *Chunker) Chunk(docs []document.Document) []document.Chunk {
	if len(docs) == 0 {
		log.Printf("[Chunker] No documents to chunk")
		return []document.Chunk{}
	}

	chunks := make([]document.Chunk, 0, len(docs))
	for _, doc := range docs {
		for _, text := range c.SplitText(doc.PageContent) {
			chunks = append(chunks, document.Chunk{Text: text, Metadata: doc.Metadata})
		}
	}

	log.Printf("[Chunker] Created %d chunks from %d documents (chunk_size=%d, overlap=%d)",
		len(chunks), len(docs), c.chunkSize, c.chunkOverlap)
	return chunks
}

// SplitText splits a single text into overlapping chunks. Consecutive
// chunks share the trailing chunkOverlap characters of the previous raw
// segment, not of the previous finished chunk.
func (c *Chunker) SplitText(text string) []string {
	segs := c.segments(text, c.separators)
	if len(segs) == 0 {
		return nil
	}

	out := make([]string, 0, len(segs))
	for i, seg := range segs {
		if i == 0 || c.chunkOverlap == 0 {
			out = append(out, seg)
			continue
		}
		prev := segs[i-1]
		tail := prev
		if len(prev) > c.chunkOverlap {
			tail = prev[runeBoundary(prev, len(prev)-c.chunkOverlap):]
		}
		out = append(out, tail+seg)
	}
	return out
}

// segments recursively cuts text into raw pieces of at most chunkSize
// characters. Separators are kept attached to the piece they terminate,
// so concatenating all segments reproduces the input exactly.
func (c *Chunker) segments(text string, seps []string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{text}
	}
	if len(seps) == 0 || seps[0] == "" {
		return c.hardSplit(text)
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return c.segments(text, seps[1:])
	}

	parts := strings.SplitAfter(text, sep)
	var segs []string
	var buf strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if buf.Len() > 0 && buf.Len()+len(part) > c.chunkSize {
			segs = append(segs, buf.String())
			buf.Reset()
		}
		if len(part) > c.chunkSize {
			// This piece alone is oversized: recurse with the next,
			// finer separator.
			segs = append(segs, c.segments(part, seps[1:])...)
			continue
		}
		buf.WriteString(part)
	}
	if buf.Len() > 0 {
		segs = append(segs, buf.String())
	}
	return segs
}

func (c *Chunker) hardSplit(text string) []string {
	var segs []string
	for len(text) > c.chunkSize {
		cut := runeBoundary(text, c.chunkSize)
		if cut == 0 {
			// A single rune wider than the chunk size; emit it whole.
			_, cut = utf8.DecodeRuneInString(text)
		}
		segs = append(segs, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		segs = append(segs, text)
	}
	return segs
}

// runeBoundary backs the byte offset i off to the start of the rune it
// falls inside, so slicing at the result never splits a character.
func runeBoundary(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
