// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/report-renamer/internal/cover"
	"github.com/pdiddy/report-renamer/internal/history"
	"github.com/pdiddy/report-renamer/internal/infer"
	"github.com/pdiddy/report-renamer/internal/rename"
	"github.com/pdiddy/report-renamer/pkg/types"
)

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Rename PDFs in the input directory from AI-extracted cover metadata",
	Long: `Rename scans the input directory for .pdf files, extracts each cover
page, infers the report's metadata through the configured AI provider, and
renames the file to industry-region-title-institution-date.pdf in the
output directory.

Without --execute this is a dry run: planned renames are printed and
nothing on disk changes. Per-file failures are reported in the batch
summary and never abort the run or affect the exit code.`,
	RunE: runRename,
}

func init() {
	renameCmd.Flags().String("input", "inbox", "directory scanned for .pdf files")
	renameCmd.Flags().String("output", "renamed", "directory renamed files are moved into")
	renameCmd.Flags().Bool("execute", false, "perform the moves (default is a dry-run preview)")
	renameCmd.Flags().String("backend", "text", "cover extraction backend: text or image")
	renameCmd.Flags().String("provider", "gemini", "inference provider: gemini or openai")
	renameCmd.Flags().String("model", "", "AI model identifier (provider default when empty)")
	renameCmd.Flags().String("api-key", "", "AI API key (overrides secrets and environment)")
	renameCmd.Flags().Int("max-retries", 1, "inference retry budget per file")
	renameCmd.Flags().String("history-dir", "history", "directory holding the rename ledger")
	renameCmd.Flags().String("manifest", "", "run manifest filename written to the output directory in execute mode")

	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfigFromFlags(cmd)

	if cfg.Inference.APIKey == "" {
		return fmt.Errorf("no API key for provider %s: pass --api-key, set %s, or add a .secrets/ key file",
			cfg.Inference.Provider, apiKeyEnvVar(cfg.Inference.Provider))
	}

	extractor, err := cover.NewExtractor(cfg.Extraction)
	if err != nil {
		return err
	}

	backend, err := infer.NewBackend(cfg.Inference)
	if err != nil {
		return err
	}

	// The ledger is opened read-write in execute mode. In a dry run it is
	// consulted only when it already exists, so previews create no files.
	var ledger rename.Recorder
	if !cfg.Rename.DryRun || history.Exists(cfg.Rename.HistoryDir) {
		store, err := history.NewStore(cfg.Rename.HistoryDir)
		if err != nil {
			return err
		}
		defer store.Close()
		ledger = store
	}

	if cfg.Rename.DryRun {
		fmt.Fprintln(os.Stdout, "Dry run: no files will be moved. Pass --execute to apply.")
	}

	// Per-file failures are already reported in the summary; the batch
	// completing is exit 0 regardless of skips.
	_, err = rename.RunBatch(cmd.Context(), extractor, backend, ledger, cfg, os.Stdout)
	return err
}

// pipelineConfigFromFlags assembles the stage configs from flags, config
// file, environment, and secrets.
func pipelineConfigFromFlags(cmd *cobra.Command) types.PipelineConfig {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	execute, _ := cmd.Flags().GetBool("execute")
	backend, _ := cmd.Flags().GetString("backend")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	apiKey, _ := cmd.Flags().GetString("api-key")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	historyDir, _ := cmd.Flags().GetString("history-dir")
	manifest, _ := cmd.Flags().GetString("manifest")

	p := types.Provider(provider)
	if model == "" {
		model = viper.GetString("inference.model")
	}

	return types.PipelineConfig{
		Extraction: types.ExtractionConfig{
			Backend:       types.ExtractorBackend(backend),
			ImageDPI:      viper.GetFloat64("extraction.image_dpi"),
			MaxCoverChars: viper.GetInt("extraction.max_cover_chars"),
		},
		Inference: types.InferenceConfig{
			AIConfig: types.AIConfig{
				Provider:   p,
				Model:      model,
				APIKey:     resolveAPIKey(p, apiKey),
				Endpoint:   viper.GetString("inference.endpoint"),
				MaxRetries: maxRetries,
			},
			HTTPConfig: types.HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "report-renamer/" + version,
			},
			RequestDelay: viper.GetDuration("inference.request_delay"),
		},
		Rename: types.RenameConfig{
			InputDir:      input,
			OutputDir:     output,
			DryRun:        !execute,
			MaxTitleRunes: viper.GetInt("rename.max_title_runes"),
			ManifestName:  manifest,
			HistoryDir:    historyDir,
		},
	}
}

// resolveAPIKey picks the key for the provider: flag, then provider
// environment variable, then the .secrets/ directory.
func resolveAPIKey(p types.Provider, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(apiKeyEnvVar(p)); v != "" {
		return v
	}
	return secretDefault(apiKeySecretFile(p), "")
}

func apiKeyEnvVar(p types.Provider) string {
	if p == types.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func apiKeySecretFile(p types.Provider) string {
	if p == types.ProviderOpenAI {
		return "openai-api-key"
	}
	return "gemini-api-key"
}
