package scoring

import (
	"regexp"
	"strings"
)

// Compliance scores: a matched format rule, a violated one, and no rule
// for this leaf at all.
const (
	complianceMatch    = 1.0
	complianceMismatch = 0.3
	complianceUnknown  = 0.5
)

var (
	reISODate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reMontant    = regexp.MustCompile(`^\d{1,3}(?:[ .]\d{3})*(?:[.,]\d{1,2})?$|^\d+(?:[.,]\d{1,2})?$`)
	reDevise     = regexp.MustCompile(`^[A-Z]{3}$`)
	reCodePostal = regexp.MustCompile(`^\d{5}$`)
	reQuote      = regexp.MustCompile(`^\d+/\d+$`)
	reNumero     = regexp.MustCompile(`^\d+$`)
)

// formatCompliance checks the leaf value against the expected shape for
// its path. Leaves without a known shape score neutral.
func formatCompliance(path, value string) float64 {
	rule := complianceRule(path)
	if rule == nil {
		return complianceUnknown
	}
	if rule.MatchString(value) {
		return complianceMatch
	}
	return complianceMismatch
}

func complianceRule(path string) *regexp.Regexp {
	leaf := path
	if i := strings.LastIndex(path, "."); i >= 0 {
		leaf = path[i+1:]
	}
	switch leaf {
	case "date_acte", "date", "naissance":
		return reISODate
	case "montant":
		return reMontant
	case "devise":
		return reDevise
	case "code_postal":
		return reCodePostal
	case "quote":
		return reQuote
	case "numero":
		return reNumero
	}
	return nil
}
