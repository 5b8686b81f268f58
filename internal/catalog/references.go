package catalog

import (
	"regexp"
	"strings"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
)

func referenceRules() []Rule {
	return []Rule{
		{
			// "publié au service de la publicité foncière de Nantes le 7
			// mai 2015, volume 2015P, numéro 1234".
			ID:       "publication.spf",
			Category: constants.Publication,
			Pattern: regexp.MustCompile(
				`(?i)publi[ée](?:\s+et\s+enregistr[ée])?\s+au\s+(?:service\s+de\s+la\s+publicit[ée]\s+fonci[èe]re|bureau\s+des\s+hypoth[èe]ques)\s+de\s+([A-ZÀ-Ü][A-Za-zÀ-ÿ' -]+?)\s*,?\s+le\s+(` + dateAlt + `)(?:[\s\S]{0,40}?volume\s+([0-9A-Z]+)\s*,?\s+num[ée]ro\s+(\d+))?`),
			StaticConfidence: 0.8,
			Parse: func(g []string) (entity.Value, error) {
				iso, err := parseAnyDate(g[2])
				if err != nil {
					return nil, err
				}
				return entity.RefValue{
					Service: strings.TrimSpace(g[1]),
					DateISO: iso,
					Volume:  g[3],
					Numero:  g[4],
				}, nil
			},
		},
		{
			// "volume 2015P, numéro 1234" alone: registry coordinates
			// without the office, weaker.
			ID:       "publication.volume",
			Category: constants.Publication,
			Pattern: regexp.MustCompile(
				`(?i)volume\s+([0-9A-Z]+)\s*,?\s*num[ée]ro\s+(\d+)`),
			StaticConfidence: 0.55,
			Parse: func(g []string) (entity.Value, error) {
				return entity.RefValue{Volume: g[1], Numero: g[2]}, nil
			},
		},
		{
			// "mariés sous le régime de la communauté réduite aux acquêts".
			ID:       "regime.maries_sous",
			Category: constants.RegimeMatrimonial,
			Pattern: regexp.MustCompile(
				`(?i)mari[ée]s?\s+(?:ensemble\s+)?sous\s+le\s+r[ée]gime\s+(?:l[ée]gal\s+)?de\s+(la\s+communaut[ée][a-zà-ÿ' ]*|la\s+s[ée]paration\s+de\s+biens[a-zà-ÿ' ]*|la\s+participation\s+aux\s+acqu[êe]ts[a-zà-ÿ' ]*)`),
			StaticConfidence: 0.75,
			Parse: func(g []string) (entity.Value, error) {
				return entity.TextValue{Texte: strings.TrimSpace(g[1])}, nil
			},
		},
		{
			// Shorter mention of the regime outside the marriage clause.
			ID:       "regime.mention",
			Category: constants.RegimeMatrimonial,
			Pattern: regexp.MustCompile(
				`(?i)r[ée]gime\s+(?:matrimonial\s+)?de\s+(?:la\s+)?(communaut[ée](?:\s+universelle|\s+r[ée]duite\s+aux\s+acqu[êe]ts)?|s[ée]paration\s+de\s+biens)`),
			StaticConfidence: 0.5,
			Parse: func(g []string) (entity.Value, error) {
				return entity.TextValue{Texte: strings.TrimSpace(g[1])}, nil
			},
		},
		{
			// "contrat de mariage reçu par Maître X ... le 2 juin 1990".
			ID:       "mariage.contrat",
			Category: constants.ContratMariage,
			Pattern: regexp.MustCompile(
				`(?i)contrat\s+de\s+mariage\s+re[çc]u\s+par\s+ma[îi]tre\s+(` + nameAlt + `)[\s\S]{0,60}?\ble\s+(` + dateAlt + `)`),
			StaticConfidence: 0.8,
			Parse: func(g []string) (entity.Value, error) {
				iso, err := parseAnyDate(g[2])
				if err != nil {
					return nil, err
				}
				return entity.RefValue{
					Nature:  "contrat de mariage",
					Notaire: strings.TrimSpace(g[1]),
					DateISO: iso,
				}, nil
			},
		},
		{
			// "sans contrat de mariage préalable": the explicit absence is
			// itself the answer.
			ID:       "mariage.sans_contrat",
			Category: constants.ContratMariage,
			Pattern: regexp.MustCompile(
				`(?i)sans\s+contrat\s+de\s+mariage(?:\s+pr[ée]alable)?`),
			StaticConfidence: 0.7,
			Parse: func(g []string) (entity.Value, error) {
				return entity.TextValue{Texte: "sans contrat de mariage préalable"}, nil
			},
		},
	}
}
