// Package learning persists validation outcomes and derives the rule
// statistics and correction mappings that feed back into resolution.
//
// The store is append-then-derive: the raw outcome history is the source
// of truth, never deleted or rewritten; every derived view must stay
// reproducible from it. Appends are serialized; readers may observe
// slightly stale derived statistics, which is acceptable.
package learning

import (
	"context"

	"github.com/opennotary/titleparse/internal/entity"
)

// maxExamples bounds the recent context snippets kept per rule statistic.
const maxExamples = 5

// Counters are the store-wide aggregate tallies.
type Counters struct {
	Outcomes      int64 `json:"outcomes"`
	Confirmations int64 `json:"confirmations"`
	Corrections   int64 `json:"corrections"`
}

// AccuracyLookup is the read path the resolver and scorer need.
type AccuracyLookup interface {
	// RuleAccuracy returns the historical accuracy for (ruleID, field) and
	// the number of validations behind it. Zero samples means "no history";
	// callers fall back to the 0.5 neutral prior.
	RuleAccuracy(ctx context.Context, ruleID, field string) (accuracy float64, samples int64, err error)
}

// CorrectionLookup resolves learned substitutions for known-bad values.
type CorrectionLookup interface {
	// Correction returns the mapped correct value for (field, wrong) and
	// how many times that exact correction was observed. occurrences == 0
	// means no mapping exists.
	Correction(ctx context.Context, field, wrong string) (corrected string, occurrences int, err error)
}

// Store is the full learning-store contract. Append is the only write
// path; everything else derives from the outcome history.
type Store interface {
	AccuracyLookup
	CorrectionLookup

	// Append durably records one validation outcome and incrementally
	// updates the derived views.
	Append(ctx context.Context, o entity.ValidationOutcome) error

	// RuleStats returns all derived per-(rule, field) statistics.
	RuleStats(ctx context.Context) ([]entity.RuleStatistic, error)

	// Corrections returns all derived correction mappings.
	Corrections(ctx context.Context) ([]entity.CorrectionMapping, error)

	// Counters returns the aggregate tallies.
	Counters(ctx context.Context) (Counters, error)

	Close() error
}
