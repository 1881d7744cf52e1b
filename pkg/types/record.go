// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RecordStatus tracks a document through the rename pipeline.
// A record advances pending → extracted → inferred → formatted and
// terminates as previewed, moved, or skipped.
type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusExtracted RecordStatus = "extracted"
	StatusInferred  RecordStatus = "inferred"
	StatusFormatted RecordStatus = "formatted"
	StatusPreviewed RecordStatus = "previewed"
	StatusMoved     RecordStatus = "moved"
	StatusSkipped   RecordStatus = "skipped"
)

// FailureKind classifies why a record was skipped.
type FailureKind string

const (
	FailureExtraction FailureKind = "extraction"
	FailureInference  FailureKind = "inference"
	FailureFormat     FailureKind = "format"
	FailureFilesystem FailureKind = "filesystem"
)

// Region codes accepted for the market-scope field.
const (
	RegionWorldwide = "WW"
	RegionChina     = "CN"
)

// InferredFields holds the cover metadata returned by the AI model.
// Immutable once validated. Region defaults to WW when the model omits
// it; the remaining fields are required, and a reply missing any of them
// fails validation so the record is skipped whole.
type InferredFields struct {
	// Industry is the main industry application, kept short (e.g. "AI", "ADAS", "Semi").
	Industry string `json:"industry" yaml:"industry"`

	// Region is the market scope: WW for worldwide, CN for China.
	Region string `json:"region" yaml:"region"`

	// Title is a concise report title in Traditional Chinese.
	Title string `json:"title" yaml:"title"`

	// Institution is the publishing organization's abbreviation (e.g. "MS", "GS", "CICC").
	Institution string `json:"institution" yaml:"institution"`

	// Date is the report date in YYMMDD form (e.g. "250916").
	Date string `json:"date" yaml:"date"`
}

// DocumentRecord is the per-file state carried through one batch run.
// It is filled in stage by stage and serialized into the run manifest;
// nothing outlives the run except the history ledger entry for a move.
type DocumentRecord struct {
	// SourcePath is the input PDF path.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// CoverText and CoverImage hold the extracted first-page content.
	// They feed the inference stage and are not serialized.
	CoverText  string `json:"-" yaml:"-"`
	CoverImage []byte `json:"-" yaml:"-"`

	// Fields is the validated model output, nil until inference succeeds.
	Fields *InferredFields `json:"fields,omitempty" yaml:"fields,omitempty"`

	// TargetPath is the reserved destination, empty until formatting succeeds.
	TargetPath string `json:"target_path,omitempty" yaml:"target_path,omitempty"`

	// Status is the record's current pipeline state.
	Status RecordStatus `json:"status" yaml:"status"`

	// FailureKind and Reason describe why a skipped record was skipped.
	FailureKind FailureKind `json:"failure_kind,omitempty" yaml:"failure_kind,omitempty"`
	Reason      string      `json:"reason,omitempty" yaml:"reason,omitempty"`
}
