package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that call remote APIs.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "report-renamer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ExtractorBackend identifies the cover extraction backend.
type ExtractorBackend string

const (
	// BackendText extracts the first page's plain text.
	BackendText ExtractorBackend = "text"
	// BackendImage renders the first page to a PNG for visually dense covers.
	BackendImage ExtractorBackend = "image"
)

// ExtractionConfig holds settings for the cover extraction stage.
type ExtractionConfig struct {
	// Backend selects the extraction method: text or image.
	Backend ExtractorBackend `json:"backend" yaml:"backend"`

	// ImageDPI is the render resolution for the image backend (default 144).
	ImageDPI float64 `json:"image_dpi" yaml:"image_dpi"`

	// MaxCoverChars caps the cover text sent to the model (default 4000 runes).
	MaxCoverChars int `json:"max_cover_chars" yaml:"max_cover_chars"`
}

// Provider identifies the generative AI API used for inference.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// AIConfig holds shared settings for the generative AI call.
type AIConfig struct {
	// Provider selects the API: gemini or openai.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "gemini-2.0-flash", "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Endpoint overrides the provider's default API endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// MaxRetries is the retry budget for a failed inference call (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// InferenceConfig holds settings for the metadata inference stage.
type InferenceConfig struct {
	AIConfig   `yaml:",inline"`
	HTTPConfig `yaml:",inline"`

	// RequestDelay is the pause between consecutive inference calls (default 1s),
	// keeping the batch polite toward API rate limits.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// RenameConfig holds settings for the rename stage.
type RenameConfig struct {
	// InputDir is the directory scanned for .pdf files.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// OutputDir is the directory renamed files are moved into.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DryRun previews renames without touching the filesystem.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// MaxTitleRunes truncates overlong titles (default 60 runes).
	MaxTitleRunes int `json:"max_title_runes" yaml:"max_title_runes"`

	// ManifestName is the run manifest filename written to OutputDir in
	// execute mode (default "rename-manifest.yaml").
	ManifestName string `json:"manifest_name" yaml:"manifest_name"`

	// HistoryDir is the directory holding the rename ledger database.
	HistoryDir string `json:"history_dir" yaml:"history_dir"`
}

// PipelineConfig groups all stage configurations for one batch run.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Inference  InferenceConfig  `json:"inference" yaml:"inference"`
	Rename     RenameConfig     `json:"rename" yaml:"rename"`
}
