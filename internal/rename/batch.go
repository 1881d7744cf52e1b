// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rename

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-renamer/internal/cover"
	"github.com/pdiddy/report-renamer/internal/infer"
	"github.com/pdiddy/report-renamer/pkg/types"
)

// defaultManifestName is the run manifest written to the output directory.
const defaultManifestName = "rename-manifest.yaml"

// BatchSummary holds counts from one batch run.
type BatchSummary struct {
	Moved     int
	Previewed int
	Skipped   int
}

// Total returns the number of files processed.
func (s BatchSummary) Total() int {
	return s.Moved + s.Previewed + s.Skipped
}

// HasFailures reports whether any files were skipped.
func (s BatchSummary) HasFailures() bool {
	return s.Skipped > 0
}

// Recorder persists executed renames. *history.Store implements it.
type Recorder interface {
	TargetChecker
	Record(ctx context.Context, source, target string, fields types.InferredFields) error
}

// RunBatch processes every .pdf in the input directory sequentially:
// extract cover, infer fields, format and reserve a target, then preview
// or move. A file's failure skips that file and the batch continues. In
// dry-run mode nothing on disk changes, not even the output directory.
// The ledger may be nil (dry run with no existing ledger).
func RunBatch(ctx context.Context, extractor cover.Extractor, backend infer.Backend, ledger Recorder, cfg types.PipelineConfig, w io.Writer) (BatchSummary, error) {
	entries, err := os.ReadDir(cfg.Rename.InputDir)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("reading input directory %s: %w", cfg.Rename.InputDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var summary BatchSummary
	if len(names) == 0 {
		fmt.Fprintln(w, "No PDF files found.")
		return summary, nil
	}

	delay := cfg.Inference.RequestDelay
	if delay <= 0 {
		delay = time.Second
	}

	var checker TargetChecker
	if ledger != nil {
		checker = ledger
	}
	reserver := NewReserver(checker)

	records := make([]types.DocumentRecord, 0, len(names))
	for i, name := range names {
		// Pause between inference calls to stay polite toward rate limits.
		if i > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(delay):
			}
		}

		rec := processFile(ctx, extractor, backend, reserver, ledger, cfg, name, w)
		records = append(records, rec)

		switch rec.Status {
		case types.StatusMoved:
			summary.Moved++
		case types.StatusPreviewed:
			summary.Previewed++
		case types.StatusSkipped:
			summary.Skipped++
		}
	}

	printSummary(w, summary, records)

	if !cfg.Rename.DryRun {
		if err := writeManifest(cfg.Rename, summary, records); err != nil {
			fmt.Fprintf(w, "warning: writing run manifest: %v\n", err)
		}
	}

	return summary, nil
}

// processFile drives one record through the pipeline states. Every
// failure marks the record skipped with its kind and reason; nothing
// here aborts the batch.
func processFile(ctx context.Context, extractor cover.Extractor, backend infer.Backend, reserver *Reserver, ledger Recorder, cfg types.PipelineConfig, name string, w io.Writer) types.DocumentRecord {
	srcPath := filepath.Join(cfg.Rename.InputDir, name)
	rec := types.DocumentRecord{
		SourcePath: srcPath,
		Status:     types.StatusPending,
	}

	c, err := extractor.ExtractCover(srcPath)
	if err != nil {
		skip(&rec, types.FailureExtraction, err)
		fmt.Fprintf(w, "skipped %s: %v\n", name, err)
		return rec
	}
	rec.CoverText = c.Text
	rec.CoverImage = c.ImagePNG
	rec.Status = types.StatusExtracted

	fields, err := infer.Infer(ctx, backend, c, cfg.Inference)
	if err != nil {
		skip(&rec, types.FailureInference, err)
		fmt.Fprintf(w, "skipped %s: %v\n", name, err)
		return rec
	}
	rec.Fields = &fields
	rec.Status = types.StatusInferred

	filename, err := Format(fields, cfg.Rename.MaxTitleRunes)
	if err != nil {
		skip(&rec, types.FailureFormat, err)
		fmt.Fprintf(w, "skipped %s: %v\n", name, err)
		return rec
	}

	target, err := reserver.Reserve(ctx, cfg.Rename.OutputDir, filename)
	if err != nil {
		skip(&rec, types.FailureFormat, err)
		fmt.Fprintf(w, "skipped %s: %v\n", name, err)
		return rec
	}
	rec.TargetPath = target
	rec.Status = types.StatusFormatted

	if cfg.Rename.DryRun {
		rec.Status = types.StatusPreviewed
		fmt.Fprintf(w, "preview %s -> %s\n", name, target)
		return rec
	}

	if err := moveFile(srcPath, target); err != nil {
		skip(&rec, types.FailureFilesystem, err)
		fmt.Fprintf(w, "skipped %s: %v\n", name, err)
		return rec
	}

	if ledger != nil {
		// The move already happened; a ledger failure is reported, not fatal.
		if err := ledger.Record(ctx, srcPath, target, fields); err != nil {
			fmt.Fprintf(w, "warning: %v\n", err)
		}
	}

	rec.Status = types.StatusMoved
	fmt.Fprintf(w, "moved   %s -> %s\n", name, target)
	return rec
}

func skip(rec *types.DocumentRecord, kind types.FailureKind, err error) {
	rec.Status = types.StatusSkipped
	rec.FailureKind = kind
	rec.Reason = err.Error()
}

// moveFile renames source to target, refusing to overwrite. The
// destination check loses races to a skip, never to an overwrite.
func moveFile(source, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("destination %s already exists", target)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking destination %s: %w", target, err)
	}

	if err := os.Rename(source, target); err != nil {
		return fmt.Errorf("moving %s: %w", source, err)
	}
	return nil
}

func printSummary(w io.Writer, summary BatchSummary, records []types.DocumentRecord) {
	fmt.Fprintf(w, "\nBatch summary: %d moved, %d previewed, %d skipped (total: %d)\n",
		summary.Moved, summary.Previewed, summary.Skipped, summary.Total())
	for _, rec := range records {
		if rec.Status == types.StatusSkipped {
			fmt.Fprintf(w, "  skipped %s (%s): %s\n", filepath.Base(rec.SourcePath), rec.FailureKind, rec.Reason)
		}
	}
}

// runManifest is the YAML document written after an execute run.
type runManifest struct {
	CompletedAt time.Time              `yaml:"completed_at"`
	Moved       int                    `yaml:"moved"`
	Skipped     int                    `yaml:"skipped"`
	Records     []types.DocumentRecord `yaml:"records"`
}

func writeManifest(cfg types.RenameConfig, summary BatchSummary, records []types.DocumentRecord) error {
	name := cfg.ManifestName
	if name == "" {
		name = defaultManifestName
	}

	manifest := runManifest{
		CompletedAt: time.Now().UTC(),
		Moved:       summary.Moved,
		Skipped:     summary.Skipped,
		Records:     records,
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(filepath.Join(cfg.OutputDir, name), data, 0o644)
}
