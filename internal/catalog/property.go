package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
)

// fraction matches a share written "n/d" with optional French grouping on
// either side: "150/10 000", "1.500/100.000".
const fractionAlt = `(\d{1,3}(?:[ .]\d{3})*|\d+)\s*/\s*(\d{1,3}(?:[ .]\d{3})*|\d+)`

func propertyRules() []Rule {
	return []Rule{
		{
			// "LOT NUMÉRO DOUZE (12) ... et les 150/10 000èmes des parties
			// communes": lot number plus its share. Multi-valued.
			ID:       "lot.numero_quote",
			Category: constants.Lots,
			Pattern: regexp.MustCompile(
				`(?i)lot\s+num[ée]ro\s+(?:[a-zà-ÿ -]+\()?(\d+)\)?[^.]{0,240}?` + fractionAlt + `\s*(?:[èe]mes?|i[èe]mes?|tanti[èe]mes)?`),
			StaticConfidence: 0.75,
			Parse: func(g []string) (entity.Value, error) {
				numero, err := strconv.Atoi(g[1])
				if err != nil {
					return nil, fmt.Errorf("lot number %q: %w", g[1], err)
				}
				quote, err := parseFraction(g[2], g[3])
				if err != nil {
					return nil, err
				}
				return entity.LotValue{Numero: numero, Quote: quote}, nil
			},
		},
		{
			// "les 150/10 000èmes des parties communes": share without an
			// explicit lot number.
			ID:       "lot.tantiemes",
			Category: constants.Lots,
			Pattern: regexp.MustCompile(
				`(?i)les\s+` + fractionAlt + `\s*(?:[èe]mes?|i[èe]mes?|tanti[èe]mes)?\s+(?:des|de\s+la)\s+parties\s+communes`),
			StaticConfidence: 0.7,
			Parse: func(g []string) (entity.Value, error) {
				quote, err := parseFraction(g[1], g[2])
				if err != nil {
					return nil, err
				}
				return entity.LotValue{Quote: quote}, nil
			},
		},
		{
			// "règlement de copropriété établi suivant acte ... le 4 juin
			// 1998": dated bylaw reference.
			ID:       "copro.reglement",
			Category: constants.ReglementCopro,
			Pattern: regexp.MustCompile(
				`(?i)r[èe]glement\s+de\s+copropri[ée]t[ée][\s\S]{0,160}?\ble\s+(` + dateAlt + `)`),
			StaticConfidence: 0.7,
			Parse: func(g []string) (entity.Value, error) {
				iso, err := parseAnyDate(g[1])
				if err != nil {
					return nil, err
				}
				return entity.RefValue{Nature: "règlement de copropriété", DateISO: iso}, nil
			},
		},
		{
			// Bare mention, kept as a weak fallback candidate.
			ID:       "copro.mention",
			Category: constants.ReglementCopro,
			Pattern: regexp.MustCompile(
				`(?i)r[èe]glement\s+de\s+copropri[ée]t[ée]`),
			StaticConfidence: 0.4,
			Parse: func(g []string) (entity.Value, error) {
				return entity.TextValue{Texte: "règlement de copropriété (non daté)"}, nil
			},
		},
		{
			// "acquis ... suivant acte reçu par Maître X, notaire ..., le 12
			// janvier 2001": the origin acquisition event.
			ID:       "origine.acquisition",
			Category: constants.OriginePropriete,
			Pattern: regexp.MustCompile(
				`(?i)acqui(?:s|se|sition)[\s\S]{0,120}?suivant\s+acte\s+re[çc]u\s+par\s+ma[îi]tre\s+(` + nameAlt + `)[\s\S]{0,80}?\ble\s+(` + dateAlt + `)`),
			StaticConfidence: 0.7,
			Parse: func(g []string) (entity.Value, error) {
				iso, err := parseAnyDate(g[2])
				if err != nil {
					return nil, err
				}
				return entity.RefValue{
					Nature:  "acquisition",
					Notaire: strings.TrimSpace(g[1]),
					DateISO: iso,
				}, nil
			},
		},
		{
			// "par voie de donation", "suivant succession": bare transfer
			// mode when no full origin act is cited.
			ID:       "origine.mode",
			Category: constants.OriginePropriete,
			Pattern: regexp.MustCompile(
				`(?i)(?:par\s+voie\s+de|suivant)\s+(donation|succession|licitation|adjudication|partage)\b`),
			StaticConfidence: 0.5,
			Parse: func(g []string) (entity.Value, error) {
				return entity.TextValue{Texte: strings.ToLower(g[1])}, nil
			},
		},
	}
}

// parseFraction parses grouped numerator/denominator into typed parts.
func parseFraction(num, den string) (entity.FractionValue, error) {
	n, err := parseGroupedInt(num)
	if err != nil {
		return entity.FractionValue{}, fmt.Errorf("numerator %q: %w", num, err)
	}
	d, err := parseGroupedInt(den)
	if err != nil {
		return entity.FractionValue{}, fmt.Errorf("denominator %q: %w", den, err)
	}
	if d == 0 {
		return entity.FractionValue{}, fmt.Errorf("zero denominator in %s/%s", num, den)
	}
	return entity.FractionValue{Num: n, Den: d}, nil
}

func parseGroupedInt(s string) (int64, error) {
	cleaned := strings.NewReplacer(" ", "", ".", "", " ", "").Replace(s)
	return strconv.ParseInt(cleaned, 10, 64)
}
