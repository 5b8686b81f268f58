package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/opennotary/titleparse/constants"
)

// ResolvedField is one flattened output field with its provenance.
type ResolvedField struct {
	Value         string  `json:"value"`
	RuleID        string  `json:"rule_id"`
	Confidence    float32 `json:"confidence"`
	AutoCorrected bool    `json:"auto_corrected,omitempty"`
	CorrectedFrom string  `json:"corrected_from,omitempty"`
}

// Anomaly is one triggered plausibility rule on the assembled record.
type Anomaly struct {
	Field    string             `json:"field"`
	Message  string             `json:"message"`
	Severity constants.Severity `json:"severity"`
}

// ExtractionResult is the aggregate pipeline output. Immutable once
// returned; owned by the caller.
type ExtractionResult struct {
	RunID      uuid.UUID              `json:"run_id"`
	SourcePath string                 `json:"source_path"`
	Kind       constants.DocumentKind `json:"kind"`

	Fields        map[string]ResolvedField `json:"fields"`
	MissingFields []string                 `json:"missing_fields"`
	Anomalies     []Anomaly                `json:"anomalies"`

	// OverallConfidence = extracted categories / tracked categories.
	OverallConfidence float32 `json:"overall_confidence"`

	IsScanned     bool    `json:"is_scanned"`
	ScanReason    string  `json:"scan_reason"`
	OCRUsed       bool    `json:"ocr_used"`
	OCRConfidence float32 `json:"ocr_confidence,omitempty"`
	NeedsReview   bool    `json:"needs_review"`
	Incomplete    bool    `json:"incomplete,omitempty"`

	Warnings []string      `json:"warnings,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// AutoCorrectedFields lists the field paths substituted from the
// correction mapping, so degraded or adjusted values stay observable.
func (r *ExtractionResult) AutoCorrectedFields() []string {
	var out []string
	for name, f := range r.Fields {
		if f.AutoCorrected {
			out = append(out, name)
		}
	}
	return out
}
