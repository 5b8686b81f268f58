package entity

import "github.com/opennotary/titleparse/constants"

// PatternMatch is one candidate produced by a catalog rule. Ephemeral,
// produced per run and discarded after resolution.
type PatternMatch struct {
	Category constants.FieldCategory
	RuleID   string
	Raw      string // matched source span
	Start    int    // byte offsets into the acquired text
	End      int
	Value    Value
	// StaticConfidence reflects how unambiguous the rule is in isolation,
	// before any learned history is applied.
	StaticConfidence float32
}
