// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cover

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/report-renamer/pkg/types"
)

func TestNewExtractor(t *testing.T) {
	tests := []struct {
		name    string
		backend types.ExtractorBackend
		want    string
		wantErr bool
	}{
		{"empty defaults to text", "", "*cover.TextExtractor", false},
		{"text backend", types.BackendText, "*cover.TextExtractor", false},
		{"image backend", types.BackendImage, "*cover.ImageExtractor", false},
		{"unknown backend", "ocr", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractor(types.ExtractionConfig{Backend: tt.backend})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewExtractor() = %T, expected error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewExtractor() error: %v", err)
			}
			if name := typeName(got); name != tt.want {
				t.Errorf("NewExtractor() = %s, want %s", name, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *TextExtractor:
		return "*cover.TextExtractor"
	case *ImageExtractor:
		return "*cover.ImageExtractor"
	default:
		return "unknown"
	}
}

func TestTextExtractor_MissingFile(t *testing.T) {
	e := &TextExtractor{}
	_, err := e.ExtractCover(filepath.Join(t.TempDir(), "nope.pdf"))
	if err == nil {
		t.Fatal("ExtractCover() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "opening PDF") {
		t.Errorf("error = %v", err)
	}
}

func TestTextExtractor_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	if err := os.WriteFile(path, []byte("this is not a PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := &TextExtractor{}
	if _, err := e.ExtractCover(path); err == nil {
		t.Fatal("ExtractCover() expected error for corrupt file")
	}
}

func TestImageExtractor_MissingFile(t *testing.T) {
	e := &ImageExtractor{}
	if _, err := e.ExtractCover(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatal("ExtractCover() expected error for missing file")
	}
}

func TestClampRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"overflowing", 4, "over"},
		{"生成式AI未來展望", 3, "生成式"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := clampRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("clampRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
