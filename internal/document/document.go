// Package document defines the normalized content types shared by the
// ingestion, chunking and retrieval layers.
package document

// SourceType classifies where a piece of content came from.
type SourceType string

const (
	SourceArticle SourceType = "article"
	SourcePDF     SourceType = "pdf"
	SourceVideo   SourceType = "video"
)

// Metadata carries provenance for a Document or Chunk. The known fields
// are typed; loader-specific extras go into Extra.
type Metadata struct {
	Source        string            `json:"source,omitempty"`
	SourceType    SourceType        `json:"source_type,omitempty"`
	Title         string            `json:"title,omitempty"`
	Author        string            `json:"author,omitempty"`
	ContentLength int               `json:"content_length,omitempty"`
	NumPages      int               `json:"num_pages,omitempty"`
	VideoID       string            `json:"video_id,omitempty"`
	FilePath      string            `json:"file_path,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Field returns the metadata value for a flat key, covering both the
// typed fields and the Extra map. Used by exact-match search filters.
func (m Metadata) Field(key string) (string, bool) {
	switch key {
	case "source":
		return m.Source, m.Source != ""
	case "source_type":
		return string(m.SourceType), m.SourceType != ""
	case "title":
		return m.Title, m.Title != ""
	case "author":
		return m.Author, m.Author != ""
	case "video_id":
		return m.VideoID, m.VideoID != ""
	case "file_path":
		return m.FilePath, m.FilePath != ""
	}
	v, ok := m.Extra[key]
	return v, ok
}

// Document is a normalized unit of ingested content, independent of the
// source it was extracted from. PageContent is never empty: loaders fail
// instead of returning a near-empty document.
type Document struct {
	PageContent string
	Metadata    Metadata
}

// Chunk is a bounded-length fragment of a Document. Metadata is
// inherited verbatim from the parent document.
type Chunk struct {
	Text     string
	Metadata Metadata
}
