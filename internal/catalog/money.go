package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
)

// amount matches French-grouped amounts: "450 000", "450.000,00", "45000".
const amountAlt = `\d{1,3}(?:[ .]\d{3})*(?:,\d{2})?|\d+(?:,\d{2})?`

func moneyRules() []Rule {
	return []Rule{
		{
			// "moyennant le prix principal de QUATRE CENT CINQUANTE MILLE
			// EUROS (450.000,00 EUR)": spelled-out form plus digits.
			ID:       "prix.moyennant",
			Category: constants.Prix,
			Pattern: regexp.MustCompile(
				`(?i)moyennant\s+le\s+prix(?:\s+principal)?\s+de\s+([a-zà-ÿ' -]+?)\s*\(\s*(` + amountAlt + `)\s*(€|eur|euros?|francs?)\s*\)`),
			StaticConfidence: 0.85,
			Parse: func(g []string) (entity.Value, error) {
				return entity.MoneyValue{
					Montant:   strings.TrimSpace(g[2]),
					Devise:    normalizeCurrency(g[3]),
					EnLettres: strings.TrimSpace(g[1]),
				}, nil
			},
		},
		{
			// "PRIX : 450 000 EUR": bare labelled amount.
			ID:       "prix.libelle",
			Category: constants.Prix,
			Pattern: regexp.MustCompile(
				`(?i)\bprix(?:\s+de\s+vente)?\s*:?\s*(?:de\s+)?(` + amountAlt + `)\s*(€|eur|euros?)`),
			StaticConfidence: 0.6,
			Parse: func(g []string) (entity.Value, error) {
				montant := strings.TrimSpace(g[1])
				if montant == "" {
					return nil, fmt.Errorf("empty amount")
				}
				return entity.MoneyValue{
					Montant: montant,
					Devise:  normalizeCurrency(g[2]),
				}, nil
			},
		},
	}
}

func normalizeCurrency(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "€", "eur", "euro", "euros":
		return "EUR"
	case "franc", "francs", "frf":
		return "FRF"
	default:
		return strings.ToUpper(strings.TrimSpace(s))
	}
}
