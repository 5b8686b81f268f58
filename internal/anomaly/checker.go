// Package anomaly runs plausibility rules on the assembled extraction.
// Rules never mutate fields; they only report findings. A rule that
// cannot evaluate reports nothing rather than failing the run.
package anomaly

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/common"
	"github.com/opennotary/titleparse/internal/entity"
)

var rePostal = regexp.MustCompile(`^\d{5}$`)

// Checker evaluates the plausibility rule set. Bounds come from
// configuration so operators can tune them without a rebuild.
type Checker struct {
	cfg    common.AnomalyConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewChecker(cfg common.AnomalyConfig, logger *slog.Logger) *Checker {
	def := common.DefaultAnomalyConfig()
	if cfg.PriceMin <= 0 {
		cfg.PriceMin = def.PriceMin
	}
	if cfg.PriceMax <= 0 {
		cfg.PriceMax = def.PriceMax
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{cfg: cfg, logger: logger, now: time.Now}
}

// Check runs every rule over the resolved values and returns the
// findings in rule order. Each rule is contained: a panic or parse
// failure in one rule never suppresses the others.
func (c *Checker) Check(values map[constants.FieldCategory][]entity.Value) []entity.Anomaly {
	var out []entity.Anomaly
	out = append(out, c.run("price_bounds", func() []entity.Anomaly { return c.checkPriceBounds(values) })...)
	out = append(out, c.run("future_date", func() []entity.Anomaly { return c.checkFutureDate(values) })...)
	out = append(out, c.run("lot_shares", func() []entity.Anomaly { return c.checkLotShares(values) })...)
	out = append(out, c.run("postal_codes", func() []entity.Anomaly { return c.checkPostalCodes(values) })...)
	return out
}

func (c *Checker) run(name string, rule func() []entity.Anomaly) (found []entity.Anomaly) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("anomaly.rule.panic", "rule", name, "panic", r)
			found = nil
		}
	}()
	return rule()
}

// checkPriceBounds flags a price outside the configured plausible range.
// Implausible is not impossible, so this is a warning.
func (c *Checker) checkPriceBounds(values map[constants.FieldCategory][]entity.Value) []entity.Anomaly {
	var out []entity.Anomaly
	for _, v := range values[constants.Prix] {
		money, ok := v.(entity.MoneyValue)
		if !ok {
			continue
		}
		amount, err := parseAmount(money.Montant)
		if err != nil {
			c.logger.Debug("anomaly.price.unparseable", "montant", money.Montant)
			continue
		}
		if amount < c.cfg.PriceMin || amount > c.cfg.PriceMax {
			out = append(out, entity.Anomaly{
				Field:    string(constants.Prix) + ".montant",
				Severity: constants.SeverityWarning,
				Message: fmt.Sprintf("price %s outside plausible range [%.0f, %.0f]",
					money.Montant, c.cfg.PriceMin, c.cfg.PriceMax),
			})
		}
	}
	return out
}

// checkFutureDate flags an act dated after today. A title cannot record
// an act that has not happened, so this is an error.
func (c *Checker) checkFutureDate(values map[constants.FieldCategory][]entity.Value) []entity.Anomaly {
	var out []entity.Anomaly
	today := c.now().UTC().Truncate(24 * time.Hour)
	for _, v := range values[constants.DateActe] {
		date, ok := v.(entity.DateValue)
		if !ok {
			continue
		}
		parsed, err := time.Parse("2006-01-02", date.ISO)
		if err != nil {
			continue
		}
		if parsed.After(today) {
			out = append(out, entity.Anomaly{
				Field:    string(constants.DateActe),
				Severity: constants.SeverityError,
				Message:  fmt.Sprintf("act date %s is in the future", date.ISO),
			})
		}
	}
	return out
}

// checkLotShares sums the lot quotas over the largest denominator seen.
// A sum exceeding the basis means the shares cannot all be right.
func (c *Checker) checkLotShares(values map[constants.FieldCategory][]entity.Value) []entity.Anomaly {
	lots := values[constants.Lots]
	if len(lots) == 0 {
		return nil
	}
	var basis int64
	for _, v := range lots {
		lot, ok := v.(entity.LotValue)
		if !ok || lot.Quote.Den <= 0 {
			continue
		}
		if lot.Quote.Den > basis {
			basis = lot.Quote.Den
		}
	}
	if basis == 0 {
		return nil
	}
	var sum int64
	for _, v := range lots {
		lot, ok := v.(entity.LotValue)
		if !ok || lot.Quote.Den <= 0 {
			continue
		}
		// Scale each share onto the common basis. Non-divisible
		// denominators round down, which can only under-count.
		sum += lot.Quote.Num * (basis / lot.Quote.Den)
	}
	if sum > basis {
		return []entity.Anomaly{{
			Field:    string(constants.Lots),
			Severity: constants.SeverityError,
			Message:  fmt.Sprintf("lot shares sum to %d/%d, exceeding the whole", sum, basis),
		}}
	}
	return nil
}

// checkPostalCodes flags party postal codes that are not five digits,
// the usual OCR confusion artifact.
func (c *Checker) checkPostalCodes(values map[constants.FieldCategory][]entity.Value) []entity.Anomaly {
	var out []entity.Anomaly
	for i, v := range values[constants.Parties] {
		person, ok := v.(entity.PersonValue)
		if !ok || person.CodePostal == "" {
			continue
		}
		if !rePostal.MatchString(person.CodePostal) {
			out = append(out, entity.Anomaly{
				Field:    fmt.Sprintf("%s.%d.code_postal", constants.Parties, i+1),
				Severity: constants.SeverityWarning,
				Message:  fmt.Sprintf("postal code %q is not a five-digit code", person.CodePostal),
			})
		}
	}
	return out
}

// parseAmount reads a French-grouped amount ("450 000", "450.000,00")
// into a float for range checks.
func parseAmount(s string) (float64, error) {
	cleaned := strings.NewReplacer(" ", "", " ", "", ".", "").Replace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return strconv.ParseFloat(cleaned, 64)
}
