package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/entity"
	"github.com/opennotary/titleparse/internal/learning"
)

func strPtr(s string) *string { return &s }

func TestScoreFieldsNoHistoryUsesPrior(t *testing.T) {
	s := New(learning.NewMemoryStore(), nil)
	fields := map[string]entity.ResolvedField{
		"date_acte": {Value: "1987-03-19", RuleID: "date.lettered"},
	}

	warnings := s.ScoreFields(context.Background(), fields)
	assert.Empty(t, warnings)

	// 0.5*0.5 prior + 0.2 presence + 0.3 compliant format.
	assert.InDelta(t, 0.75, float64(fields["date_acte"].Confidence), 1e-6)
}

func TestScoreFieldsFormatMismatch(t *testing.T) {
	s := New(learning.NewMemoryStore(), nil)
	fields := map[string]entity.ResolvedField{
		"date_acte": {Value: "19 mars 1987", RuleID: "date.lettered"},
	}
	s.ScoreFields(context.Background(), fields)

	// 0.25 + 0.2 + 0.3*0.3 = 0.54
	assert.InDelta(t, 0.54, float64(fields["date_acte"].Confidence), 1e-6)
}

func TestScoreFieldsNoFormatRuleIsNeutral(t *testing.T) {
	s := New(learning.NewMemoryStore(), nil)
	fields := map[string]entity.ResolvedField{
		"regime_matrimonial": {Value: "la communauté réduite aux acquêts", RuleID: "regime.maries_sous"},
	}
	s.ScoreFields(context.Background(), fields)

	// 0.25 + 0.2 + 0.3*0.5 = 0.60
	assert.InDelta(t, 0.60, float64(fields["regime_matrimonial"].Confidence), 1e-6)
}

func TestScoreFieldsUsesLearnedAccuracyOnNormalizedPath(t *testing.T) {
	store := learning.NewMemoryStore()
	ctx := context.Background()
	// Perfect history for the rule, keyed without positional indexes.
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Append(ctx, entity.ValidationOutcome{
			Field: "parties.code_postal", RuleID: "partie.identite", Extracted: "69003",
		}))
	}

	s := New(store, nil)
	fields := map[string]entity.ResolvedField{
		"parties.1.code_postal": {Value: "69003", RuleID: "partie.identite"},
	}
	s.ScoreFields(ctx, fields)

	// 0.5*1.0 + 0.2 + 0.3*1.0 = 1.0
	assert.InDelta(t, 1.0, float64(fields["parties.1.code_postal"].Confidence), 1e-6)
}

func TestScoreFieldsZeroAccuracyFloor(t *testing.T) {
	store := learning.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, entity.ValidationOutcome{
			Field: "prix.montant", RuleID: "prix.libelle",
			Extracted: "1", Corrected: strPtr("100000"),
		}))
	}

	s := New(store, nil)
	fields := map[string]entity.ResolvedField{
		"prix.montant": {Value: "45 000", RuleID: "prix.libelle"},
	}
	s.ScoreFields(ctx, fields)

	// 0 accuracy + 0.2 presence + 0.3 compliant = 0.5, still in [0,1].
	conf := float64(fields["prix.montant"].Confidence)
	assert.InDelta(t, 0.5, conf, 1e-6)
	assert.GreaterOrEqual(t, conf, 0.0)
	assert.LessOrEqual(t, conf, 1.0)
}

func TestFormatCompliance(t *testing.T) {
	tests := []struct {
		path  string
		value string
		want  float64
	}{
		{"date_acte", "1987-03-19", complianceMatch},
		{"date_acte", "19/03/1987", complianceMismatch},
		{"publication_fonciere.date", "2015-05-07", complianceMatch},
		{"prix.montant", "450 000", complianceMatch},
		{"prix.montant", "450.000,00", complianceMatch},
		{"prix.montant", "quatre cent", complianceMismatch},
		{"prix.devise", "EUR", complianceMatch},
		{"prix.devise", "euros", complianceMismatch},
		{"parties.1.code_postal", "69003", complianceMatch},
		{"parties.1.code_postal", "6900A", complianceMismatch},
		{"bien.lots.1.quote", "150/10000", complianceMatch},
		{"bien.lots.1.quote", "150 sur 10000", complianceMismatch},
		{"bien.lots.1.numero", "12", complianceMatch},
		{"parties.1.nom", "Jean DUPONT", complianceUnknown},
		{"regime_matrimonial", "anything", complianceUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCompliance(tt.path, tt.value), "%s=%q", tt.path, tt.value)
	}
}

func TestOverallConfidence(t *testing.T) {
	values := map[constants.FieldCategory][]entity.Value{
		constants.DateActe: {entity.DateValue{ISO: "1987-03-19"}},
		constants.Prix:     {entity.MoneyValue{Montant: "450000"}},
	}
	assert.InDelta(t, 0.2, float64(OverallConfidence(values)), 1e-6)

	assert.Zero(t, OverallConfidence(nil))

	all := map[constants.FieldCategory][]entity.Value{}
	for _, cat := range constants.TrackedCategories() {
		all[cat] = []entity.Value{entity.TextValue{Texte: "x"}}
	}
	assert.InDelta(t, 1.0, float64(OverallConfidence(all)), 1e-6)
}
