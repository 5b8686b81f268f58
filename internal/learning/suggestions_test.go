package learning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennotary/titleparse/internal/entity"
)

func TestBuildReportEmptyStore(t *testing.T) {
	report, err := BuildReport(context.Background(), NewMemoryStore())
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestBuildReportUnderperformingRule(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// 2 successes, 4 failures over 6 samples: accuracy 0.33.
	for i := 0; i < 2; i++ {
		require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
			Field: "date_acte", RuleID: "date.numeric", Extracted: "1987-03-19",
		}))
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
			Field: "date_acte", RuleID: "date.numeric",
			Extracted: "1987-03-19", Corrected: strPtr("1987-03-20"),
		}))
	}

	report, err := BuildReport(ctx, s)
	require.NoError(t, err)
	require.Len(t, report.UnderperformingRules, 1)
	assert.Equal(t, "date.numeric", report.UnderperformingRules[0].RuleID)
	assert.InDelta(t, 1.0/3.0, report.UnderperformingRules[0].Accuracy, 1e-9)
	assert.Equal(t, int64(6), report.UnderperformingRules[0].Samples)

	// The field accumulates the same weak history.
	require.Len(t, report.LowAccuracyFields, 1)
	assert.Equal(t, "date_acte", report.LowAccuracyFields[0].Field)
}

func TestBuildReportIgnoresThinHistory(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Accuracy zero but below the sample floor: no verdict yet.
	for i := 0; i < minSamplesForSuggestion-1; i++ {
		require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
			Field: "notaire.nom", RuleID: "notaire.pardevant",
			Extracted: "X", Corrected: strPtr("Y"),
		}))
	}

	report, err := BuildReport(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, report.UnderperformingRules)
	assert.Empty(t, report.LowAccuracyFields)
}

func TestBuildReportRepeatedCorrections(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < correctionRepeatFloor; i++ {
		require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
			Field: "prix.montant", RuleID: "prix.moyennant",
			Extracted: "45 000", Corrected: strPtr("450000"),
		}))
	}
	// Below the repeat floor, stays out of the report.
	require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
		Field: "prix.devise", RuleID: "prix.moyennant",
		Extracted: "EUROS", Corrected: strPtr("EUR"),
	}))

	report, err := BuildReport(ctx, s)
	require.NoError(t, err)
	require.Len(t, report.RepeatedCorrections, 1)
	assert.Equal(t, "prix.montant", report.RepeatedCorrections[0].Field)
	assert.Equal(t, "450000", report.RepeatedCorrections[0].Corrected)
	assert.Equal(t, correctionRepeatFloor, report.RepeatedCorrections[0].Occurrences)
}

func TestBuildReportHealthyRuleStaysOut(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
			Field: "date_acte", RuleID: "date.lettered", Extracted: "1987-03-19",
		}))
	}

	report, err := BuildReport(ctx, s)
	require.NoError(t, err)
	assert.True(t, report.Empty())
}
