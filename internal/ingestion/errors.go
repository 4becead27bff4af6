// Package ingestion fetches candidate sources and normalizes them into
// documents: article, PDF, text-file and transcript loaders plus the
// quota-driven parallel downloader.
package ingestion

import "errors"

var (
	// ErrFetch marks a network or HTTP failure while retrieving a source.
	ErrFetch = errors.New("fetch failed")
	// ErrExtraction marks a source that yielded no usable text.
	ErrExtraction = errors.New("no usable text extracted")
)
