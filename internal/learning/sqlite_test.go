package learning

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennotary/titleparse/internal/entity"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "learning.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
		Field: "date_acte", RuleID: "date.lettered",
		Extracted: "1987-03-19", Context: "le 19 mars 1987",
	}))
	require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
		Field: "date_acte", RuleID: "date.lettered",
		Extracted: "1987-03-18", Corrected: strPtr("1987-03-19"),
	}))

	acc, samples, err := s.RuleAccuracy(ctx, "date.lettered", "date_acte")
	require.NoError(t, err)
	assert.Equal(t, int64(2), samples)
	assert.InDelta(t, 0.5, acc, 1e-9)

	corrected, occ, err := s.Correction(ctx, "date_acte", "1987-03-18")
	require.NoError(t, err)
	assert.Equal(t, 1, occ)
	assert.Equal(t, "1987-03-19", corrected)

	counters, err := s.Counters(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counters{Outcomes: 2, Confirmations: 1, Corrections: 1}, counters)

	stats, err := s.RuleStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].SuccessCount)
	assert.Equal(t, int64(1), stats[0].FailureCount)
	assert.Equal(t, []string{"le 19 mars 1987"}, stats[0].Examples)
}

func TestSQLiteStoreUnknownLookups(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc, samples, err := s.RuleAccuracy(ctx, "nope", "nope")
	require.NoError(t, err)
	assert.Zero(t, acc)
	assert.Zero(t, samples)

	corrected, occ, err := s.Correction(ctx, "nope", "nope")
	require.NoError(t, err)
	assert.Empty(t, corrected)
	assert.Zero(t, occ)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "learning.db")
	ctx := context.Background()

	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		require.NoError(t, s.Append(ctx, entity.ValidationOutcome{
			Field: "prix.montant", RuleID: "prix.moyennant",
			Extracted: "45 000", Corrected: strPtr("450000"),
		}))
	}
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	corrected, occ, err := reopened.Correction(ctx, "prix.montant", "45 000")
	require.NoError(t, err)
	assert.Equal(t, 2, occ)
	assert.Equal(t, "450000", corrected)
}

func TestSQLiteStoreConcurrentAppends(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 20
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			done <- s.Append(ctx, entity.ValidationOutcome{
				Field: "date_acte", RuleID: "date.lettered", Extracted: "1987-03-19",
			})
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-done)
	}

	counters, err := s.Counters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), counters.Outcomes)

	_, samples, err := s.RuleAccuracy(ctx, "date.lettered", "date_acte")
	require.NoError(t, err)
	assert.Equal(t, int64(n), samples)
}
