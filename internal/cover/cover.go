// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cover extracts the first page of a PDF as plain text or a
// rendered image. The cover page of a research report carries the
// title, institution, and date metadata the inference stage reads.
package cover

import (
	"fmt"

	"github.com/pdiddy/report-renamer/pkg/types"
)

// Cover holds the extracted first-page content of one PDF. Depending on
// the backend, Text or ImagePNG is set; never both empty on success.
type Cover struct {
	Text     string
	ImagePNG []byte
}

// Extractor produces a Cover from a PDF on disk. Different backends
// (text, image) implement this interface so the batch and its tests can
// swap them.
type Extractor interface {
	ExtractCover(path string) (Cover, error)
}

// NewExtractor returns the extractor selected by cfg.Backend. An empty
// backend defaults to text extraction.
func NewExtractor(cfg types.ExtractionConfig) (Extractor, error) {
	switch cfg.Backend {
	case types.BackendImage:
		return &ImageExtractor{DPI: cfg.ImageDPI}, nil
	case types.BackendText, "":
		return &TextExtractor{MaxChars: cfg.MaxCoverChars}, nil
	default:
		return nil, fmt.Errorf("unknown extraction backend %q", cfg.Backend)
	}
}
