package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
)

// name matches capitalized French name runs: "Jean-Paul DUPONT de Lattre".
const nameAlt = `[A-ZÀ-Ü][A-Za-zÀ-ÿ'-]+(?:\s+(?:de|du|des|le|la)?\s*[A-ZÀ-Ü][A-Za-zÀ-ÿ'-]+)*`

func partyRules() []Rule {
	return []Rule{
		{
			// "Monsieur Jean DUPONT, né le 3 avril 1962 à Lyon (69003),
			// demeurant à ...": full identity block. Multi-valued: a title
			// commonly lists several owners.
			ID:       "partie.identite",
			Category: constants.Parties,
			Pattern: regexp.MustCompile(
				// The birthplace capture is greedy on purpose: everything after
				// it is optional, so a lazy capture would stop after one rune.
				`(?i)\b(monsieur|madame|mademoiselle|m\.|mme)\s+(` + nameAlt + `)\s*,\s*n[ée](?:\(e\))?e?\s+le\s+(` + dateAlt + `)\s+(?:à|a)\s+([A-ZÀ-Ü][A-Za-zÀ-ÿ' -]+)(?:\s*\((\d{4,6})\))?(?:\s*,\s*demeurant\s+(?:à\s+)?([^,.\n]+))?`),
			StaticConfidence: 0.8,
			Parse: func(g []string) (entity.Value, error) {
				iso, err := parseAnyDate(g[3])
				if err != nil {
					return nil, fmt.Errorf("birth date: %w", err)
				}
				return entity.PersonValue{
					Civilite:      normalizeCivilite(g[1]),
					Nom:           strings.TrimSpace(g[2]),
					NaissanceISO:  iso,
					LieuNaissance: strings.TrimSpace(g[4]),
					CodePostal:    g[5],
					Adresse:       strings.TrimSpace(g[6]),
				}, nil
			},
		},
		{
			// "Maître Claire MARTIN, notaire à Bordeaux": the receiving
			// notary's identity.
			ID:       "notaire.titulaire",
			Category: constants.Notaire,
			Pattern: regexp.MustCompile(
				`(?i)ma[îi]tre\s+(` + nameAlt + `)\s*,\s*notaire\s+(?:associ[ée]\s+)?(?:à|a)\s+([A-ZÀ-Ü][A-Za-zÀ-ÿ' -]+?)(?:[,.(\n]|$)`),
			StaticConfidence: 0.85,
			Parse: func(g []string) (entity.Value, error) {
				return entity.PersonValue{
					Nom:       strings.TrimSpace(g[1]),
					Residence: strings.TrimSpace(g[2]),
				}, nil
			},
		},
		{
			// "Par-devant Maître Claire MARTIN, notaire ...": deed opening;
			// no office city captured, hence the lower confidence.
			ID:       "notaire.pardevant",
			Category: constants.Notaire,
			Pattern: regexp.MustCompile(
				`(?i)par-?devant\s+ma[îi]tre\s+(` + nameAlt + `)\s*,\s*notaire`),
			StaticConfidence: 0.8,
			Parse: func(g []string) (entity.Value, error) {
				return entity.PersonValue{Nom: strings.TrimSpace(g[1])}, nil
			},
		},
	}
}

func normalizeCivilite(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monsieur", "m.":
		return "Monsieur"
	case "madame", "mme":
		return "Madame"
	case "mademoiselle":
		return "Mademoiselle"
	default:
		return strings.TrimSpace(s)
	}
}
