package resolve

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

func dateMatch(ruleID string, static float32, iso string, start int) entity.PatternMatch {
	return entity.PatternMatch{
		Category:         constants.DateActe,
		RuleID:           ruleID,
		Raw:              iso,
		Start:            start,
		End:              start + 10,
		Value:            entity.DateValue{ISO: iso, Raw: iso},
		StaticConfidence: static,
	}
}

func TestResolveSingleValuedPicksBestStatic(t *testing.T) {
	store := learning.NewMemoryStore()
	r := New(store, store, 2, nil)

	res := r.Resolve(context.Background(), []entity.PatternMatch{
		dateMatch("date.numeric", 0.6, "1987-03-19", 50),
		dateMatch("date.lettered", 0.9, "1987-03-19", 10),
	})

	field, ok := res.Fields["date_acte"]
	require.True(t, ok)
	assert.Equal(t, "date.lettered", field.RuleID)
	assert.Equal(t, "1987-03-19", field.Value)
	assert.NotContains(t, res.Missing, "date_acte")
}

func TestResolveLearnedAccuracyOutweighsStatic(t *testing.T) {
	store := learning.NewMemoryStore()
	ctx := context.Background()

	// date.lettered has been wrong four times, date.numeric right four
	// times; the static ordering must flip.
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Append(ctx, entity.ValidationOutcome{
			Field: "date_acte", RuleID: "date.lettered",
			Extracted: "1987-03-19", Corrected: strPtr("1987-03-20"),
		}))
		require.NoError(t, store.Append(ctx, entity.ValidationOutcome{
			Field: "date_acte", RuleID: "date.numeric", Extracted: "1987-03-20",
		}))
	}

	r := New(store, store, 5, nil) // threshold above occurrences, no auto-correct
	res := r.Resolve(ctx, []entity.PatternMatch{
		dateMatch("date.lettered", 0.9, "1987-03-19", 10),
		dateMatch("date.numeric", 0.6, "1987-03-20", 50),
	})

	require.Contains(t, res.Fields, "date_acte")
	assert.Equal(t, "date.numeric", res.Fields["date_acte"].RuleID)
}

func TestResolveMissingCategories(t *testing.T) {
	store := learning.NewMemoryStore()
	r := New(store, store, 2, nil)

	res := r.Resolve(context.Background(), nil)
	assert.Empty(t, res.Fields)
	assert.Len(t, res.Missing, len(constants.TrackedCategories()))
}

func TestResolveMultiValuedKeepsDistinctInDocumentOrder(t *testing.T) {
	store := learning.NewMemoryStore()
	r := New(store, store, 2, nil)

	dupont := entity.PersonValue{Civilite: "Monsieur", Nom: "Jean DUPONT"}
	martin := entity.PersonValue{Civilite: "Madame", Nom: "Claire MARTIN"}
	res := r.Resolve(context.Background(), []entity.PatternMatch{
		{Category: constants.Parties, RuleID: "partie.identite", Start: 200, Value: martin, StaticConfidence: 0.8},
		{Category: constants.Parties, RuleID: "partie.identite", Start: 100, Value: dupont, StaticConfidence: 0.8},
		// Same person matched twice, must be deduplicated.
		{Category: constants.Parties, RuleID: "partie.identite", Start: 400, Value: dupont, StaticConfidence: 0.8},
	})

	assert.Equal(t, "Jean DUPONT", res.Fields["parties.1.nom"].Value)
	assert.Equal(t, "Claire MARTIN", res.Fields["parties.2.nom"].Value)
	assert.NotContains(t, res.Fields, "parties.3.nom")
	assert.Len(t, res.Values[constants.Parties], 2)
}

func TestResolveAppliesRepeatedCorrection(t *testing.T) {
	store := learning.NewMemoryStore()
	ctx := context.Background()

	// The same substitution recorded twice reaches the threshold.
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Append(ctx, entity.ValidationOutcome{
			Field: "prix.montant", RuleID: "prix.moyennant",
			Extracted: "45 000", Corrected: strPtr("450000"),
		}))
	}

	r := New(store, store, 2, nil)
	res := r.Resolve(ctx, []entity.PatternMatch{{
		Category:         constants.Prix,
		RuleID:           "prix.moyennant",
		Value:            entity.MoneyValue{Montant: "45 000", Devise: "EUR"},
		StaticConfidence: 0.85,
	}})

	field := res.Fields["prix.montant"]
	assert.Equal(t, "450000", field.Value)
	assert.True(t, field.AutoCorrected)
	assert.Equal(t, "45 000", field.CorrectedFrom)

	// The currency leaf is untouched.
	assert.Equal(t, "EUR", res.Fields["prix.devise"].Value)
	assert.False(t, res.Fields["prix.devise"].AutoCorrected)
}

func TestResolveSingleOccurrenceIsNotApplied(t *testing.T) {
	store := learning.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, entity.ValidationOutcome{
		Field: "prix.montant", RuleID: "prix.moyennant",
		Extracted: "45 000", Corrected: strPtr("450000"),
	}))

	r := New(store, store, 2, nil)
	res := r.Resolve(ctx, []entity.PatternMatch{{
		Category:         constants.Prix,
		RuleID:           "prix.moyennant",
		Value:            entity.MoneyValue{Montant: "45 000"},
		StaticConfidence: 0.85,
	}})

	field := res.Fields["prix.montant"]
	assert.Equal(t, "45 000", field.Value, "one observation must not trigger auto-correction")
	assert.False(t, field.AutoCorrected)
}

func TestResolveCorrectionFallsBackToNormalizedPath(t *testing.T) {
	store := learning.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Append(ctx, entity.ValidationOutcome{
			Field: "parties.nom", RuleID: "partie.identite",
			Extracted: "Jean DUP0NT", Corrected: strPtr("Jean DUPONT"),
		}))
	}

	r := New(store, store, 2, nil)
	res := r.Resolve(ctx, []entity.PatternMatch{{
		Category:         constants.Parties,
		RuleID:           "partie.identite",
		Value:            entity.PersonValue{Nom: "Jean DUP0NT"},
		StaticConfidence: 0.8,
	}})

	// The resolved path is indexed; the mapping is keyed without indexes.
	field := res.Fields["parties.1.nom"]
	assert.Equal(t, "Jean DUPONT", field.Value)
	assert.True(t, field.AutoCorrected)
}

func TestNormalizeFieldPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"parties.1.nom", "parties.nom"},
		{"parties.12.code_postal", "parties.code_postal"},
		{"bien.lots.2.quote", "bien.lots.quote"},
		{"date_acte", "date_acte"},
		{"prix.montant", "prix.montant"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeFieldPath(tt.in), tt.in)
	}
}
