package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
)

// dateAlt matches the two date notations found in deeds: "19 mars 1987"
// (optionally "1er") and "19/03/1987". Used inside composite rules.
const dateAlt = `\d{1,2}(?:er)?\s+[a-zà-ÿ]+\s+\d{4}|\d{1,2}/\d{1,2}/\d{4}`

var frenchMonths = map[string]time.Month{
	"janvier": time.January, "fevrier": time.February, "février": time.February,
	"mars": time.March, "avril": time.April, "mai": time.May, "juin": time.June,
	"juillet": time.July, "aout": time.August, "août": time.August,
	"septembre": time.September, "octobre": time.October,
	"novembre": time.November, "decembre": time.December, "décembre": time.December,
}

const monthAlt = `janvier|f[ée]vrier|mars|avril|mai|juin|juillet|ao[ûu]t|septembre|octobre|novembre|d[ée]cembre`

func dateRules() []Rule {
	return []Rule{
		{
			// "...le 19 mars 1987...": the month in letters removes the
			// day/month ambiguity of numeric forms.
			ID:       "date.lettered",
			Category: constants.DateActe,
			Pattern: regexp.MustCompile(
				`(?i)\ble\s+(1er|premier|\d{1,2})\s+(` + monthAlt + `)\s+(\d{4})\b`),
			StaticConfidence: 0.9,
			Parse: func(g []string) (entity.Value, error) {
				return parseDateParts(g[1], g[2], g[3], g[0])
			},
		},
		{
			// "L'AN DEUX MILLE VINGT-TROIS, LE DIX-NEUF MARS": the fully
			// spelled-out opening formula of notarial deeds.
			ID:       "date.spelled",
			Category: constants.DateActe,
			Pattern: regexp.MustCompile(
				`(?i)l'an\s+((?:mil|mille|deux|neuf|cent|cents|[a-zà-ÿ-]+)(?:[\s-]+[a-zà-ÿ]+)*?)\s*,?\s+(?:et\s+)?le\s+([a-zà-ÿ-]+(?:[\s-]+[a-zà-ÿ-]+)?)\s+(` + monthAlt + `)\b`),
			StaticConfidence: 0.85,
			Parse: func(g []string) (entity.Value, error) {
				year, err := frenchNumeral(g[1])
				if err != nil {
					return nil, fmt.Errorf("year %q: %w", g[1], err)
				}
				day, err := frenchNumeral(g[2])
				if err != nil {
					return nil, fmt.Errorf("day %q: %w", g[2], err)
				}
				return makeDate(day, g[3], year, g[0])
			},
		},
		{
			// "19/03/1987" or "19.03.1987": common in annex schedules but
			// ambiguous for days <= 12, hence the lower confidence.
			ID:               "date.numeric",
			Category:         constants.DateActe,
			Pattern:          regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{4})\b`),
			StaticConfidence: 0.6,
			Parse: func(g []string) (entity.Value, error) {
				day, _ := strconv.Atoi(g[1])
				month, _ := strconv.Atoi(g[2])
				year, _ := strconv.Atoi(g[3])
				if month < 1 || month > 12 {
					return nil, fmt.Errorf("month out of range: %d", month)
				}
				return makeDateNumeric(day, time.Month(month), year, g[0])
			},
		},
	}
}

func parseDateParts(dayStr, monthStr, yearStr, raw string) (entity.Value, error) {
	var day int
	switch strings.ToLower(dayStr) {
	case "1er", "premier":
		day = 1
	default:
		d, err := strconv.Atoi(dayStr)
		if err != nil {
			return nil, fmt.Errorf("day %q: %w", dayStr, err)
		}
		day = d
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, fmt.Errorf("year %q: %w", yearStr, err)
	}
	return makeDate(day, monthStr, year, raw)
}

func makeDate(day int, monthStr string, year int, raw string) (entity.Value, error) {
	month, ok := frenchMonths[strings.ToLower(monthStr)]
	if !ok {
		return nil, fmt.Errorf("unknown month %q", monthStr)
	}
	return makeDateNumeric(day, month, year, raw)
}

func makeDateNumeric(day int, month time.Month, year int, raw string) (entity.Value, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. 31 février); reject it instead.
	if t.Day() != day || t.Month() != month || t.Year() != year {
		return nil, fmt.Errorf("invalid calendar date %d-%d-%d", year, month, day)
	}
	return entity.DateValue{ISO: t.Format("2006-01-02"), Raw: strings.TrimSpace(raw)}, nil
}

// parseAnyDate accepts either notation of dateAlt and returns the ISO form.
func parseAnyDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := reLetteredDate.FindStringSubmatch(s); m != nil {
		v, err := parseDateParts(m[1], m[2], m[3], s)
		if err != nil {
			return "", err
		}
		return v.(entity.DateValue).ISO, nil
	}
	if m := reNumericDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 {
			return "", fmt.Errorf("month out of range: %d", month)
		}
		v, err := makeDateNumeric(day, time.Month(month), year, s)
		if err != nil {
			return "", err
		}
		return v.(entity.DateValue).ISO, nil
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

var (
	reLetteredDate = regexp.MustCompile(`(?i)^(1er|premier|\d{1,2})\s+(` + monthAlt + `)\s+(\d{4})$`)
	reNumericDate  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// frenchNumeral evaluates a spelled-out French number ("mil neuf cent
// quatre-vingt-sept" → 1987). Vocabulary is limited to what deed dates
// need: units, tens, cent, mille.
func frenchNumeral(words string) (int, error) {
	units := map[string]int{
		"zero": 0, "zéro": 0,
		"un": 1, "une": 1, "premier": 1,
		"deux": 2, "trois": 3, "quatre": 4, "cinq": 5, "six": 6, "sept": 7,
		"huit": 8, "neuf": 9, "dix": 10, "onze": 11, "douze": 12, "treize": 13,
		"quatorze": 14, "quinze": 15, "seize": 16,
		"trente": 30, "quarante": 40, "cinquante": 50, "soixante": 60,
	}

	normalized := strings.ToLower(strings.TrimSpace(words))
	normalized = strings.ReplaceAll(normalized, "-", " ")
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty numeral")
	}

	total, current := 0, 0
	for _, w := range fields {
		switch w {
		case "et":
			continue
		case "cent", "cents":
			if current == 0 {
				current = 1
			}
			current *= 100
		case "mil", "mille":
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0
		case "vingt", "vingts":
			// quatre-vingt(s) multiplies instead of adding.
			if current%10 == 4 {
				current += 76
			} else {
				current += 20
			}
		default:
			v, ok := units[w]
			if !ok {
				return 0, fmt.Errorf("unknown numeral word %q", w)
			}
			current += v
		}
	}
	return total + current, nil
}
