// Package catalog holds the versioned table of extraction rules. Rules run
// independently over the acquired text and may overlap; one field category
// routinely yields several candidates for the resolver to rank.
package catalog

import (
	"fmt"
	"regexp"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
)

// maxMatchesPerRule bounds runaway rules on degenerate OCR output.
const maxMatchesPerRule = 32

// ParseFunc turns a rule's capture groups into a typed value. groups[0] is
// the whole match.
type ParseFunc func(groups []string) (entity.Value, error)

// Rule is a single pattern-based extractor tied to one field category.
type Rule struct {
	// ID is stable across catalog versions; the learning store keys rule
	// statistics on it.
	ID       string
	Category constants.FieldCategory
	Pattern  *regexp.Regexp
	// StaticConfidence reflects how unambiguous the pattern is in
	// isolation, in [0,1].
	StaticConfidence float32
	Parse            ParseFunc
}

// RuleOutcome is the typed per-rule evaluation result. A failed rule is
// recorded here and never aborts the remaining rules.
type RuleOutcome struct {
	RuleID   string
	Category constants.FieldCategory
	Matched  int
	Err      error
}

// Catalog is a fixed, versioned set of rules grouped by field category.
type Catalog struct {
	Version string
	rules   []Rule
}

func New(version string, rules []Rule) *Catalog {
	return &Catalog{Version: version, rules: rules}
}

// Default returns the tuned catalog for French property-title records.
func Default() *Catalog {
	var rules []Rule
	rules = append(rules, dateRules()...)
	rules = append(rules, moneyRules()...)
	rules = append(rules, partyRules()...)
	rules = append(rules, propertyRules()...)
	rules = append(rules, referenceRules()...)
	return New("2025.08", rules)
}

// Rules returns the rule table in registration order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// ForCategory returns the rules extracting the given category.
func (c *Catalog) ForCategory(cat constants.FieldCategory) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

// Match runs every rule over the text. Candidates and per-rule outcomes
// are returned together; a rule whose parse fails contributes an outcome
// with Err set and no candidates.
func (c *Catalog) Match(text string) ([]entity.PatternMatch, []RuleOutcome) {
	var matches []entity.PatternMatch
	outcomes := make([]RuleOutcome, 0, len(c.rules))

	for _, rule := range c.rules {
		outcome := RuleOutcome{RuleID: rule.ID, Category: rule.Category}
		idxs := rule.Pattern.FindAllStringSubmatchIndex(text, maxMatchesPerRule)
		for _, idx := range idxs {
			groups := expandGroups(text, idx)
			value, err := rule.Parse(groups)
			if err != nil {
				outcome.Err = fmt.Errorf("rule %s on %q: %w", rule.ID, clip(groups[0], 60), err)
				continue
			}
			matches = append(matches, entity.PatternMatch{
				Category:         rule.Category,
				RuleID:           rule.ID,
				Raw:              groups[0],
				Start:            idx[0],
				End:              idx[1],
				Value:            value,
				StaticConfidence: rule.StaticConfidence,
			})
			outcome.Matched++
		}
		outcomes = append(outcomes, outcome)
	}
	return matches, outcomes
}

func expandGroups(text string, idx []int) []string {
	groups := make([]string, len(idx)/2)
	for i := 0; i < len(idx); i += 2 {
		if idx[i] >= 0 {
			groups[i/2] = text[idx[i]:idx[i+1]]
		}
	}
	return groups
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
