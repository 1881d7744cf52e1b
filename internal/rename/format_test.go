// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/report-renamer/pkg/types"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean string", "AI", "AI"},
		{"strips illegal characters", `a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"strips control characters", "a\x00b\x1fc\x7fd", "abcd"},
		{"trims whitespace and dots", "  .report. ", "report"},
		{"keeps CJK text", "生成式AI未來展望", "生成式AI未來展望"},
		{"empty after stripping", `<>:"/\|?*`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	valid := types.InferredFields{
		Industry:    "AI",
		Region:      "WW",
		Title:       "生成式AI未來展望",
		Institution: "MS",
		Date:        "250916",
	}

	t.Run("sample fields produce the exact template", func(t *testing.T) {
		got, err := Format(valid, 0)
		if err != nil {
			t.Fatalf("Format() error: %v", err)
		}
		want := "AI-WW-生成式AI未來展望-MS-250916.pdf"
		if got != want {
			t.Errorf("Format() = %q, want %q", got, want)
		}
	})

	t.Run("no illegal characters survive", func(t *testing.T) {
		f := valid
		f.Title = `半導體/記憶體:展望?`
		got, err := Format(f, 0)
		if err != nil {
			t.Fatalf("Format() error: %v", err)
		}
		if strings.ContainsAny(got, illegalChars) {
			t.Errorf("Format() = %q contains illegal characters", got)
		}
	})

	t.Run("overlong titles are truncated by rune count", func(t *testing.T) {
		f := valid
		f.Title = strings.Repeat("望", 100)
		got, err := Format(f, 10)
		if err != nil {
			t.Fatalf("Format() error: %v", err)
		}
		want := "AI-WW-" + strings.Repeat("望", 10) + "-MS-250916.pdf"
		if got != want {
			t.Errorf("Format() = %q, want %q", got, want)
		}
	})

	t.Run("empty region falls back to WW", func(t *testing.T) {
		f := valid
		f.Region = ""
		got, err := Format(f, 0)
		if err != nil {
			t.Fatalf("Format() error: %v", err)
		}
		if !strings.HasPrefix(got, "AI-WW-") {
			t.Errorf("Format() = %q, want WW region", got)
		}
	})

	t.Run("missing required fields are errors", func(t *testing.T) {
		for _, field := range []string{"industry", "title", "institution", "date"} {
			f := valid
			switch field {
			case "industry":
				f.Industry = ""
			case "title":
				f.Title = "???" // empty after sanitization
			case "institution":
				f.Institution = "  "
			case "date":
				f.Date = ""
			}
			if _, err := Format(f, 0); err == nil {
				t.Errorf("Format() with empty %s: expected error", field)
			}
		}
	})
}

// fakeChecker marks a fixed set of targets as used by previous runs.
type fakeChecker struct {
	used map[string]bool
}

func (f *fakeChecker) TargetExists(_ context.Context, target string) (bool, error) {
	return f.used[target], nil
}

func TestReserver(t *testing.T) {
	ctx := context.Background()

	t.Run("first reservation keeps the plain name", func(t *testing.T) {
		r := NewReserver(nil)
		got, err := r.Reserve(ctx, "out", "AI-WW-報告-MS-250916.pdf")
		if err != nil {
			t.Fatalf("Reserve() error: %v", err)
		}
		if got != filepath.Join("out", "AI-WW-報告-MS-250916.pdf") {
			t.Errorf("Reserve() = %q", got)
		}
	})

	t.Run("in-batch collisions get numeric suffixes", func(t *testing.T) {
		r := NewReserver(nil)
		first, _ := r.Reserve(ctx, "out", "same.pdf")
		second, err := r.Reserve(ctx, "out", "same.pdf")
		if err != nil {
			t.Fatalf("Reserve() error: %v", err)
		}
		third, _ := r.Reserve(ctx, "out", "same.pdf")

		if second == first || third == first || third == second {
			t.Fatalf("Reserve() returned duplicates: %q %q %q", first, second, third)
		}
		if second != filepath.Join("out", "same_1.pdf") {
			t.Errorf("second Reserve() = %q, want same_1.pdf", second)
		}
		if third != filepath.Join("out", "same_2.pdf") {
			t.Errorf("third Reserve() = %q, want same_2.pdf", third)
		}
	})

	t.Run("files on disk collide", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "taken.pdf"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}

		r := NewReserver(nil)
		got, err := r.Reserve(ctx, dir, "taken.pdf")
		if err != nil {
			t.Fatalf("Reserve() error: %v", err)
		}
		if got != filepath.Join(dir, "taken_1.pdf") {
			t.Errorf("Reserve() = %q, want taken_1.pdf", got)
		}
	})

	t.Run("ledger entries from previous runs collide", func(t *testing.T) {
		checker := &fakeChecker{used: map[string]bool{
			filepath.Join("out", "old.pdf"):   true,
			filepath.Join("out", "old_1.pdf"): true,
		}}

		r := NewReserver(checker)
		got, err := r.Reserve(ctx, "out", "old.pdf")
		if err != nil {
			t.Fatalf("Reserve() error: %v", err)
		}
		if got != filepath.Join("out", "old_2.pdf") {
			t.Errorf("Reserve() = %q, want old_2.pdf", got)
		}
	})
}
