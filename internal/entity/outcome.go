package entity

import (
	"time"

	"github.com/google/uuid"
)

// ValidationOutcome is one human validation of an extracted field.
// A nil Corrected means "confirmed correct". Outcomes are append-only and
// owned exclusively by the learning store.
type ValidationOutcome struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Field     string    `json:"field"`
	RuleID    string    `json:"rule_id"`
	Extracted string    `json:"extracted"`
	Corrected *string   `json:"corrected,omitempty"`
	Context   string    `json:"context,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Confirmed reports whether the operator validated the extraction as-is.
func (o ValidationOutcome) Confirmed() bool { return o.Corrected == nil }

// RuleStatistic is the derived per-(rule, field) aggregate. Rebuilt
// incrementally on every append; reproducible from the outcome history.
type RuleStatistic struct {
	RuleID       string   `json:"rule_id"`
	Field        string   `json:"field"`
	SuccessCount int64    `json:"success_count"`
	FailureCount int64    `json:"failure_count"`
	Examples     []string `json:"examples,omitempty"` // bounded recent context snippets
}

// Samples is the total number of validations behind this statistic.
func (s RuleStatistic) Samples() int64 { return s.SuccessCount + s.FailureCount }

// Accuracy is successes over samples; 0.5 with no history, so an unseen
// rule is neither promoted nor penalized.
func (s RuleStatistic) Accuracy() float64 {
	n := s.Samples()
	if n == 0 {
		return 0.5
	}
	return float64(s.SuccessCount) / float64(n)
}

// CorrectionMapping is the derived (field, wrong value) → correct value
// aggregate. Applied only once Occurrences reaches the configured
// repetition threshold.
type CorrectionMapping struct {
	Field       string `json:"field"`
	Wrong       string `json:"wrong"`
	Corrected   string `json:"corrected"`
	Occurrences int    `json:"occurrences"`
}
