package learning

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Report thresholds. Rules with too few samples are left alone; the
// history is not yet meaningful.
const (
	minSamplesForSuggestion = 5
	ruleAccuracyFloor       = 0.5
	correctionRepeatFloor   = 3
	fieldAccuracyFloor      = 0.6
)

// RuleSuggestion flags a pattern rule whose validated accuracy has fallen
// below the floor.
type RuleSuggestion struct {
	RuleID   string   `json:"rule_id"`
	Field    string   `json:"field"`
	Accuracy float64  `json:"accuracy"`
	Samples  int64    `json:"samples"`
	Examples []string `json:"examples,omitempty"`
}

// CorrectionSuggestion flags a substitution seen often enough that the
// underlying rule probably needs a fix rather than per-run patching.
type CorrectionSuggestion struct {
	Field       string `json:"field"`
	Wrong       string `json:"wrong"`
	Corrected   string `json:"corrected"`
	Occurrences int    `json:"occurrences"`
}

// FieldSuggestion flags a field whose accuracy across all rules is low,
// pointing at a coverage gap rather than one bad rule.
type FieldSuggestion struct {
	Field    string  `json:"field"`
	Accuracy float64 `json:"accuracy"`
	Samples  int64   `json:"samples"`
}

// Report is the improvement summary derived from the outcome history.
type Report struct {
	GeneratedAt          time.Time              `json:"generated_at"`
	UnderperformingRules []RuleSuggestion       `json:"underperforming_rules"`
	RepeatedCorrections  []CorrectionSuggestion `json:"repeated_corrections"`
	LowAccuracyFields    []FieldSuggestion      `json:"low_accuracy_fields"`
}

// Empty reports whether the history produced no suggestions at all.
func (r Report) Empty() bool {
	return len(r.UnderperformingRules) == 0 &&
		len(r.RepeatedCorrections) == 0 &&
		len(r.LowAccuracyFields) == 0
}

// BuildReport derives the improvement report from the store's current
// statistics. Read-only.
func BuildReport(ctx context.Context, store Store) (Report, error) {
	stats, err := store.RuleStats(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}
	corrections, err := store.Corrections(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}

	report := Report{GeneratedAt: time.Now().UTC()}

	fieldSuccess := map[string]int64{}
	fieldSamples := map[string]int64{}
	for _, st := range stats {
		fieldSuccess[st.Field] += st.SuccessCount
		fieldSamples[st.Field] += st.Samples()
		if st.Samples() < minSamplesForSuggestion {
			continue
		}
		if st.Accuracy() < ruleAccuracyFloor {
			report.UnderperformingRules = append(report.UnderperformingRules, RuleSuggestion{
				RuleID:   st.RuleID,
				Field:    st.Field,
				Accuracy: st.Accuracy(),
				Samples:  st.Samples(),
				Examples: st.Examples,
			})
		}
	}
	sort.Slice(report.UnderperformingRules, func(i, j int) bool {
		return report.UnderperformingRules[i].Accuracy < report.UnderperformingRules[j].Accuracy
	})

	for _, cm := range corrections {
		if cm.Occurrences >= correctionRepeatFloor {
			report.RepeatedCorrections = append(report.RepeatedCorrections, CorrectionSuggestion(cm))
		}
	}
	sort.Slice(report.RepeatedCorrections, func(i, j int) bool {
		return report.RepeatedCorrections[i].Occurrences > report.RepeatedCorrections[j].Occurrences
	})

	for field, samples := range fieldSamples {
		if samples < minSamplesForSuggestion {
			continue
		}
		acc := float64(fieldSuccess[field]) / float64(samples)
		if acc < fieldAccuracyFloor {
			report.LowAccuracyFields = append(report.LowAccuracyFields, FieldSuggestion{
				Field:    field,
				Accuracy: acc,
				Samples:  samples,
			})
		}
	}
	sort.Slice(report.LowAccuracyFields, func(i, j int) bool {
		return report.LowAccuracyFields[i].Accuracy < report.LowAccuracyFields[j].Accuracy
	})

	return report, nil
}
