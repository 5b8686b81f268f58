// Package scoring computes per-field and overall confidence for an
// extraction, blending learned rule accuracy with format compliance.
package scoring

import (
	"context"
	"log/slog"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
	"github.com/opennotary/titleparse/internal/learning"
	"github.com/opennotary/titleparse/internal/resolve"
)

// Blend weights. Accuracy dominates because it is the only signal that
// actually observed this rule being right or wrong.
const (
	weightAccuracy   = 0.5
	weightPresence   = 0.2
	weightCompliance = 0.3

	neutralPrior = 0.5
)

// Scorer rewrites field confidences in place from the learning store's
// accuracy history. Lookup failures fall back to the neutral prior.
type Scorer struct {
	accuracy learning.AccuracyLookup
	logger   *slog.Logger
}

func New(accuracy learning.AccuracyLookup, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{accuracy: accuracy, logger: logger}
}

// ScoreFields assigns each resolved field its blended confidence,
// clamped to [0, 1]. Returns warnings for degraded accuracy lookups.
func (s *Scorer) ScoreFields(ctx context.Context, fields map[string]entity.ResolvedField) []string {
	var warnings []string
	for path, field := range fields {
		acc := neutralPrior
		normalized := resolve.NormalizeFieldPath(path)
		a, samples, err := s.accuracy.RuleAccuracy(ctx, field.RuleID, normalized)
		if err != nil {
			warnings = append(warnings, "confidence degraded for "+path+": accuracy lookup failed")
			s.logger.Warn("scoring.accuracy.degraded", "field", path, "rule_id", field.RuleID, "error", err)
		} else if samples > 0 {
			acc = a
		}

		presence := 0.0
		if field.Value != "" {
			presence = 1.0
		}
		compliance := formatCompliance(path, field.Value)

		score := weightAccuracy*acc + weightPresence*presence + weightCompliance*compliance
		field.Confidence = clamp(float32(score))
		fields[path] = field
	}
	return warnings
}

// OverallConfidence is the share of tracked categories that produced at
// least one value.
func OverallConfidence(values map[constants.FieldCategory][]entity.Value) float32 {
	tracked := constants.TrackedCategories()
	extracted := 0
	for _, cat := range tracked {
		if len(values[cat]) > 0 {
			extracted++
		}
	}
	return float32(extracted) / float32(len(tracked))
}

func clamp(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
