// Package resolve turns raw pattern matches into the final field set,
// ranking competing candidates with learned rule accuracy and applying
// repeated corrections from the learning store.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
	"github.com/opennotary/titleparse/internal/learning"
)

// neutralPrior is used when a rule has no validation history yet, so an
// unseen rule is neither promoted nor penalized.
const neutralPrior = 0.5

// Resolution is the resolver output: flattened fields keyed by path,
// the typed values per category for downstream checks, and the tracked
// categories that produced no candidate.
type Resolution struct {
	Fields   map[string]entity.ResolvedField
	Values   map[constants.FieldCategory][]entity.Value
	Missing  []string
	Warnings []string
}

// Resolver ranks candidates and applies learned corrections. Store
// lookup failures degrade to the neutral prior instead of failing the
// run; each degradation is recorded as a warning.
type Resolver struct {
	accuracy    learning.AccuracyLookup
	corrections learning.CorrectionLookup
	minOcc      int
	logger      *slog.Logger
}

func New(accuracy learning.AccuracyLookup, corrections learning.CorrectionLookup, minOccurrences int, logger *slog.Logger) *Resolver {
	if minOccurrences <= 0 {
		minOccurrences = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		accuracy:    accuracy,
		corrections: corrections,
		minOcc:      minOccurrences,
		logger:      logger,
	}
}

// Resolve picks the winning candidates per category. Single-valued
// categories keep the best-ranked match; multi-valued categories keep
// every distinct value in document order.
func (r *Resolver) Resolve(ctx context.Context, matches []entity.PatternMatch) Resolution {
	res := Resolution{
		Fields: make(map[string]entity.ResolvedField),
		Values: make(map[constants.FieldCategory][]entity.Value),
	}

	byCategory := make(map[constants.FieldCategory][]entity.PatternMatch)
	for _, m := range matches {
		if m.Value == nil {
			continue
		}
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	for _, cat := range constants.TrackedCategories() {
		candidates := byCategory[cat]
		if len(candidates) == 0 {
			res.Missing = append(res.Missing, string(cat))
			continue
		}
		ranked := r.rank(ctx, candidates, &res)

		if constants.IsMultiValued(cat) {
			chosen := dedupeByValue(ranked)
			// Document order gives stable 1-based indexes across runs.
			sort.Slice(chosen, func(i, j int) bool { return chosen[i].match.Start < chosen[j].match.Start })
			for i, c := range chosen {
				base := fmt.Sprintf("%s.%d", cat, i+1)
				r.emit(ctx, &res, base, c)
				res.Values[cat] = append(res.Values[cat], c.match.Value)
			}
			continue
		}

		best := ranked[0]
		r.emit(ctx, &res, string(cat), best)
		res.Values[cat] = []entity.Value{best.match.Value}
	}
	return res
}

type scored struct {
	match entity.PatternMatch
	score float64
}

// rank orders candidates by static confidence weighted with the learned
// accuracy of their rule, best first. Ties break on document position,
// then rule identifier, so ranking is deterministic.
func (r *Resolver) rank(ctx context.Context, candidates []entity.PatternMatch, res *Resolution) []scored {
	out := make([]scored, 0, len(candidates))
	for _, m := range candidates {
		acc := r.ruleAccuracy(ctx, m, res)
		out = append(out, scored{match: m, score: float64(m.StaticConfidence) * acc})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].match.Start != out[j].match.Start {
			return out[i].match.Start < out[j].match.Start
		}
		return out[i].match.RuleID < out[j].match.RuleID
	})
	return out
}

// ruleAccuracy averages the learned accuracy over the candidate's leaf
// paths that have history. No history anywhere means the neutral prior.
func (r *Resolver) ruleAccuracy(ctx context.Context, m entity.PatternMatch, res *Resolution) float64 {
	var sum float64
	var n int
	for leaf := range m.Value.Fields() {
		path := leafPath(string(m.Category), leaf)
		acc, samples, err := r.accuracy.RuleAccuracy(ctx, m.RuleID, path)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("accuracy lookup failed for %s/%s, using prior", m.RuleID, path))
			r.logger.Warn("resolve.accuracy.degraded", "rule_id", m.RuleID, "field", path, "error", err)
			continue
		}
		if samples > 0 {
			sum += acc
			n++
		}
	}
	if n == 0 {
		return neutralPrior
	}
	return sum / float64(n)
}

// emit flattens one winning candidate into result fields, applying the
// learned correction mapping when the substitution has repeated enough.
func (r *Resolver) emit(ctx context.Context, res *Resolution, base string, c scored) {
	leaves := c.match.Value.Fields()
	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, leaf := range keys {
		path := joinPath(base, leaf)
		value := leaves[leaf]
		field := entity.ResolvedField{
			Value:      value,
			RuleID:     c.match.RuleID,
			Confidence: float32(c.score),
		}

		corrected, occurrences, err := r.lookupCorrection(ctx, path, value)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("correction lookup failed for %s, keeping extracted value", path))
			r.logger.Warn("resolve.correction.degraded", "field", path, "error", err)
		} else if occurrences >= r.minOcc && corrected != "" && corrected != value {
			field.Value = corrected
			field.AutoCorrected = true
			field.CorrectedFrom = value
			r.logger.Info("resolve.correction.applied",
				"field", path, "from", value, "to", corrected, "occurrences", occurrences)
		}
		res.Fields[path] = field
	}
}

// lookupCorrection tries the exact path first, then the path with the
// positional indexes stripped, which is how outcomes are keyed.
func (r *Resolver) lookupCorrection(ctx context.Context, path, value string) (string, int, error) {
	corrected, occurrences, err := r.corrections.Correction(ctx, path, value)
	if err != nil || occurrences > 0 {
		return corrected, occurrences, err
	}
	if stripped := NormalizeFieldPath(path); stripped != path {
		return r.corrections.Correction(ctx, stripped, value)
	}
	return "", 0, nil
}

// dedupeByValue keeps the best-ranked candidate per distinct rendered
// value. Input must already be sorted best first.
func dedupeByValue(ranked []scored) []scored {
	seen := make(map[string]bool, len(ranked))
	out := make([]scored, 0, len(ranked))
	for _, c := range ranked {
		key := c.match.Value.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func joinPath(base, leaf string) string {
	if leaf == "" {
		return base
	}
	return base + "." + leaf
}

func leafPath(category, leaf string) string { return joinPath(category, leaf) }

// NormalizeFieldPath removes positional index segments from a field
// path, mapping "parties.2.nom" to "parties.nom". Learned statistics
// and corrections are keyed on the normalized form so evidence from
// every position accumulates together.
func NormalizeFieldPath(path string) string {
	parts := strings.Split(path, ".")
	out := parts[:0]
	for _, p := range parts {
		if isDigits(p) {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
