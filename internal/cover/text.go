// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cover

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// defaultMaxChars caps the cover text sent to the model.
const defaultMaxChars = 4000

// TextExtractor reads the first page's plain text. Encrypted, corrupt,
// and zero-page files fail here and the caller skips them.
type TextExtractor struct {
	// MaxChars bounds the returned text in runes; 0 uses the default.
	MaxChars int
}

// ExtractCover extracts the first page's plain text.
func (e *TextExtractor) ExtractCover(path string) (Cover, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Cover{}, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return Cover{}, fmt.Errorf("PDF %s has no pages", path)
	}

	page := r.Page(1)
	if page.V.IsNull() {
		return Cover{}, fmt.Errorf("PDF %s: first page is unreadable", path)
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return Cover{}, fmt.Errorf("extracting text from %s: %w", path, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Cover{}, fmt.Errorf("PDF %s: first page has no extractable text", path)
	}

	max := e.MaxChars
	if max <= 0 {
		max = defaultMaxChars
	}
	return Cover{Text: clampRunes(text, max)}, nil
}

// clampRunes truncates s to at most n runes.
func clampRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
