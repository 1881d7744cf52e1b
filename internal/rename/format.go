// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rename formats target filenames from inferred fields and runs
// the batch state machine over the input directory.
package rename

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/report-renamer/pkg/types"
)

// illegalChars are stripped from every field before it enters a filename.
// The set is the Windows-reserved characters, the strictest common target.
const illegalChars = `<>:"/\|?*`

// defaultMaxTitleRunes bounds the title segment of a filename.
const defaultMaxTitleRunes = 60

// Sanitize removes filesystem-illegal characters and control characters
// from s and trims surrounding whitespace and dots.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(illegalChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), ". \t")
}

// Format builds the target filename from the inferred fields following
// industry-region-title-institution-date.pdf. It is pure: no filesystem
// access and no collision handling, which Reserver does. An empty
// required field after sanitization is an error so a record is never
// partially renamed.
func Format(f types.InferredFields, maxTitleRunes int) (string, error) {
	if maxTitleRunes <= 0 {
		maxTitleRunes = defaultMaxTitleRunes
	}

	industry := Sanitize(f.Industry)
	region := Sanitize(f.Region)
	if region == "" {
		region = types.RegionWorldwide
	}
	title := truncateRunes(Sanitize(f.Title), maxTitleRunes)
	institution := Sanitize(f.Institution)
	date := Sanitize(f.Date)

	required := []struct{ name, value string }{
		{"industry", industry},
		{"title", title},
		{"institution", institution},
		{"date", date},
	}
	for _, r := range required {
		if r.value == "" {
			return "", fmt.Errorf("field %s is empty after sanitization", r.name)
		}
	}

	return fmt.Sprintf("%s-%s-%s-%s-%s.pdf", industry, region, title, institution, date), nil
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// TargetChecker reports whether a target path was produced by a previous
// run. *history.Store implements it; tests supply fakes.
type TargetChecker interface {
	TargetExists(ctx context.Context, target string) (bool, error)
}

// maxSuffixAttempts bounds the collision-suffix search. Past this the
// collision is unresolvable and the record is skipped.
const maxSuffixAttempts = 100

// Reserver hands out unique target paths for one batch. A name collides
// when an earlier reservation, a file on disk, or a ledger entry already
// claims it; collisions get a numeric suffix before the extension.
type Reserver struct {
	checker TargetChecker
	taken   map[string]bool
}

// NewReserver returns a Reserver backed by checker, which may be nil
// when no ledger is available.
func NewReserver(checker TargetChecker) *Reserver {
	return &Reserver{
		checker: checker,
		taken:   make(map[string]bool),
	}
}

// Reserve returns a unique target path for name under dir, appending
// _1, _2, ... until the name is free everywhere.
func (r *Reserver) Reserve(ctx context.Context, dir, name string) (string, error) {
	stem := strings.TrimSuffix(name, ".pdf")

	for i := 0; i <= maxSuffixAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d.pdf", stem, i)
		}
		target := filepath.Join(dir, candidate)

		free, err := r.isFree(ctx, target)
		if err != nil {
			return "", err
		}
		if free {
			r.taken[target] = true
			return target, nil
		}
	}
	return "", fmt.Errorf("no unique name for %s after %d attempts", name, maxSuffixAttempts)
}

func (r *Reserver) isFree(ctx context.Context, target string) (bool, error) {
	if r.taken[target] {
		return false, nil
	}

	if _, err := os.Stat(target); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking %s: %w", target, err)
	}

	if r.checker != nil {
		used, err := r.checker.TargetExists(ctx, target)
		if err != nil {
			return false, fmt.Errorf("checking ledger for %s: %w", target, err)
		}
		if used {
			return false, nil
		}
	}
	return true, nil
}
