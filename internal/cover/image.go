// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cover

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// defaultDPI is twice the PDF baseline of 72, enough resolution for the
// model to read dense cover layouts.
const defaultDPI = 144.0

// ImageExtractor renders the first page to a PNG. Used for covers whose
// text layer is missing or too sparse for the text backend.
type ImageExtractor struct {
	// DPI is the render resolution; 0 uses the default.
	DPI float64
}

// ExtractCover renders the first page of the PDF at path to a PNG.
func (e *ImageExtractor) ExtractCover(path string) (Cover, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return Cover{}, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return Cover{}, fmt.Errorf("PDF %s has no pages", path)
	}

	dpi := e.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}

	img, err := doc.ImageDPI(0, dpi)
	if err != nil {
		return Cover{}, fmt.Errorf("rendering first page of %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Cover{}, fmt.Errorf("encoding cover image of %s: %w", path, err)
	}

	return Cover{ImagePNG: buf.Bytes()}, nil
}
