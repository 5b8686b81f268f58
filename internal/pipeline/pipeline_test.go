package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/anomaly"
	"github.com/opennotary/titleparse/internal/catalog"
	"github.com/opennotary/titleparse/internal/common"
	"github.com/opennotary/titleparse/internal/document"
	"github.com/opennotary/titleparse/internal/entity"
	"github.com/opennotary/titleparse/internal/learning"
	"github.com/opennotary/titleparse/internal/ocr"
	"github.com/opennotary/titleparse/internal/resolve"
	"github.com/opennotary/titleparse/internal/scoring"
)

const sampleDeed = `ACTE DE VENTE reçu le 19 mars 1987 par-devant Maître Claire MARTIN, notaire à Bordeaux.
Ont comparu : Monsieur Jean DUPONT, né le 3 avril 1962 à Lyon (69003), demeurant à 12 rue des Lilas,
mariés sous le régime de la communauté réduite aux acquêts, sans contrat de mariage préalable.
LOT NUMÉRO DOUZE (12) : un appartement et les 150/10 000èmes des parties communes,
soumis au règlement de copropriété établi suivant acte reçu le 4 juin 1998,
moyennant le prix principal de QUATRE CENT CINQUANTE MILLE EUROS (450 000 EUR),
publié au service de la publicité foncière de Nantes le 7 mai 2015, volume 2015P, numéro 1234,
le tout acquis suivant acte reçu par Maître Paul DURAND, notaire à Rennes, le 12 janvier 2001.`

type fakeAcquirer struct {
	res document.Result
	err error
}

func (f *fakeAcquirer) Acquire(context.Context, string) (document.Result, error) {
	return f.res, f.err
}

type fakeOCR struct {
	res    ocr.DocumentResult
	err    error
	called bool
}

func (f *fakeOCR) ProcessPDF(context.Context, string) (ocr.DocumentResult, error) {
	f.called = true
	return f.res, f.err
}

// failingStore errors on every write, reads as empty.
type failingStore struct {
	*learning.MemoryStore
}

func (f *failingStore) Append(context.Context, entity.ValidationOutcome) error {
	return common.WrapError(common.ErrStoreWrite, "disk full")
}

func testConfig() *common.Config {
	return &common.Config{
		OCR: common.OCRConfig{
			Enabled:         true,
			Language:        "fra",
			DPI:             300,
			ReviewThreshold: 0.6,
		},
		Learning: common.LearningConfig{Enabled: true, MinOccurrences: 2},
		Scan:     common.ScanConfig{SamplePages: 3, MinChars: 40, MinWords: 8, MaxForeignRatio: 0.3},
		Anomaly:  common.AnomalyConfig{PriceMin: 1000, PriceMax: 10_000_000},
	}
}

func pdfResult(pages ...string) document.Result {
	return document.Result{
		Text:      document.Normalize(strings.Join(pages, "\n")),
		PageTexts: pages,
		Pages:     len(pages),
		Kind:      constants.PDF,
		Method:    "pdf-text",
	}
}

func newTestExtractor(cfg *common.Config, acq TextAcquirer, ocrProc OCRProcessor, store learning.Store) *Extractor {
	return NewExtractor(
		cfg,
		acq,
		document.NewDetector(cfg.Scan),
		ocrProc,
		catalog.Default(),
		resolve.New(store, store, cfg.Learning.MinOccurrences, nil),
		scoring.New(store, nil),
		anomaly.NewChecker(cfg.Anomaly, nil),
		store,
		nil,
	)
}

func TestExtractNativeTextDocument(t *testing.T) {
	store := learning.NewMemoryStore()
	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult(sampleDeed)}, &fakeOCR{}, store)

	res, err := ex.Extract(context.Background(), "acte.pdf")
	require.NoError(t, err)

	assert.False(t, res.IsScanned)
	assert.False(t, res.OCRUsed)
	assert.NotEmpty(t, res.ScanReason)
	assert.NotEqual(t, uuid.Nil, res.RunID)

	// Every tracked category is present in this deed.
	assert.Empty(t, res.MissingFields)
	assert.InDelta(t, 1.0, float64(res.OverallConfidence), 1e-6)

	assert.Equal(t, "1987-03-19", res.Fields["date_acte"].Value)
	assert.Equal(t, "Claire MARTIN", res.Fields["notaire.nom"].Value)
	assert.Equal(t, "Jean DUPONT", res.Fields["parties.1.nom"].Value)
	assert.Equal(t, "450 000", res.Fields["prix.montant"].Value)
	assert.Equal(t, "EUR", res.Fields["prix.devise"].Value)
	assert.Equal(t, "12", res.Fields["bien.lots.1.numero"].Value)
	assert.Equal(t, "150/10000", res.Fields["bien.lots.1.quote"].Value)
	assert.Equal(t, "2015-05-07", res.Fields["publication_fonciere.date"].Value)

	// No history: extracted fields sit at the neutral-prior blend.
	assert.Greater(t, res.Fields["date_acte"].Confidence, float32(0.5))
}

func TestExtractIsIdempotentWithoutNewOutcomes(t *testing.T) {
	store := learning.NewMemoryStore()
	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult(sampleDeed)}, &fakeOCR{}, store)
	ctx := context.Background()

	first, err := ex.Extract(ctx, "acte.pdf")
	require.NoError(t, err)
	second, err := ex.Extract(ctx, "acte.pdf")
	require.NoError(t, err)

	// Clear the volatile identity before comparing.
	first.RunID, second.RunID = uuid.Nil, uuid.Nil
	first.Duration, second.Duration = 0, 0
	assert.Equal(t, first, second)
}

func TestExtractScannedWithOCRDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.OCR.Enabled = false
	fake := &fakeOCR{}
	ex := newTestExtractor(cfg, &fakeAcquirer{res: pdfResult("", "")}, fake, learning.NewMemoryStore())

	res, err := ex.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)

	assert.True(t, res.IsScanned)
	assert.Contains(t, res.ScanReason, "insufficient extractable text")
	assert.False(t, res.OCRUsed)
	assert.False(t, fake.called)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "ocr is disabled")
	assert.Len(t, res.MissingFields, len(constants.TrackedCategories()))
}

func TestExtractScannedUsesOCR(t *testing.T) {
	fake := &fakeOCR{res: ocr.DocumentResult{
		Text:       "fait le 19 mars 1987 par-devant Maître Claire MARTIN, notaire",
		Confidence: 0.82,
	}}
	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult("", "")}, fake, learning.NewMemoryStore())

	res, err := ex.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)

	assert.True(t, res.IsScanned)
	assert.True(t, res.OCRUsed)
	assert.True(t, fake.called)
	assert.InDelta(t, 0.82, float64(res.OCRConfidence), 1e-6)
	assert.False(t, res.NeedsReview)
	assert.Equal(t, "1987-03-19", res.Fields["date_acte"].Value)
}

func TestExtractLowOCRConfidenceNeedsReview(t *testing.T) {
	fake := &fakeOCR{res: ocr.DocumentResult{
		Text:       "le 19 mars 1987",
		Confidence: 0.41,
		Partial:    true,
		Warnings:   []string{"ocr stopped on page 3"},
	}}
	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult("")}, fake, learning.NewMemoryStore())

	res, err := ex.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err)

	assert.True(t, res.NeedsReview)
	assert.True(t, res.Incomplete)
	assert.Contains(t, res.Warnings, "ocr stopped on page 3")
}

func TestExtractOCRFailureDegrades(t *testing.T) {
	fake := &fakeOCR{err: common.WrapError(common.ErrOCRUnavailable, "tesseract not installed")}
	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult("", "")}, fake, learning.NewMemoryStore())

	res, err := ex.Extract(context.Background(), "scan.pdf")
	require.NoError(t, err, "ocr being unavailable must not fail the run")

	assert.True(t, res.IsScanned)
	assert.False(t, res.OCRUsed)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "ocr unavailable")
}

func TestExtractUnreadableDocumentIsFatal(t *testing.T) {
	acq := &fakeAcquirer{err: common.NewAppError("PDF_TEXT_LAYER", "broken xref", common.ErrDocumentUnreadable)}
	ex := newTestExtractor(testConfig(), acq, &fakeOCR{}, learning.NewMemoryStore())

	_, err := ex.Extract(context.Background(), "broken.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDocumentUnreadable)
}

func TestCorrectionRoundTrip(t *testing.T) {
	store := learning.NewMemoryStore()
	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult(sampleDeed)}, &fakeOCR{}, store)
	ctx := context.Background()

	first, err := ex.Extract(ctx, "acte.pdf")
	require.NoError(t, err)
	assert.Equal(t, "450 000", first.Fields["prix.montant"].Value)
	assert.False(t, first.Fields["prix.montant"].AutoCorrected)

	// The operator fixes the grouping twice on different runs.
	for i := 0; i < 2; i++ {
		require.NoError(t, ex.SubmitCorrection(ctx, first.RunID,
			"prix.montant", first.Fields["prix.montant"].RuleID,
			"450 000", strPtr("450000"), "moyennant le prix principal"))
	}

	second, err := ex.Extract(ctx, "acte.pdf")
	require.NoError(t, err)
	field := second.Fields["prix.montant"]
	assert.Equal(t, "450000", field.Value)
	assert.True(t, field.AutoCorrected)
	assert.Equal(t, "450 000", field.CorrectedFrom)
	assert.Contains(t, second.AutoCorrectedFields(), "prix.montant")
}

func TestConfirmationsRaiseConfidence(t *testing.T) {
	store := learning.NewMemoryStore()
	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult(sampleDeed)}, &fakeOCR{}, store)
	ctx := context.Background()

	first, err := ex.Extract(ctx, "acte.pdf")
	require.NoError(t, err)
	before := first.Fields["date_acte"].Confidence

	for i := 0; i < 3; i++ {
		require.NoError(t, ex.SubmitCorrection(ctx, first.RunID,
			"date_acte", first.Fields["date_acte"].RuleID, "1987-03-19", nil, ""))
	}

	second, err := ex.Extract(ctx, "acte.pdf")
	require.NoError(t, err)
	after := second.Fields["date_acte"].Confidence
	assert.Greater(t, after, before)
	assert.GreaterOrEqual(t, after, float32(0.5), "a confirmed extraction must not sit below the midline")
}

func TestSubmitCorrectionNormalizesIndexedPaths(t *testing.T) {
	store := learning.NewMemoryStore()
	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult(sampleDeed)}, &fakeOCR{}, store)
	ctx := context.Background()

	require.NoError(t, ex.SubmitCorrection(ctx, uuid.New(),
		"parties.1.nom", "partie.identite", "Jean DUP0NT", strPtr("Jean DUPONT"), ""))

	corrected, occ, err := store.Correction(ctx, "parties.nom", "Jean DUP0NT")
	require.NoError(t, err)
	assert.Equal(t, 1, occ)
	assert.Equal(t, "Jean DUPONT", corrected)
}

func TestSubmitCorrectionValidation(t *testing.T) {
	ex := newTestExtractor(testConfig(), &fakeAcquirer{}, &fakeOCR{}, learning.NewMemoryStore())
	err := ex.SubmitCorrection(context.Background(), uuid.New(), "", "date.lettered", "x", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestSubmitCorrectionStoreFailure(t *testing.T) {
	store := &failingStore{learning.NewMemoryStore()}
	ex := newTestExtractor(testConfig(), &fakeAcquirer{}, &fakeOCR{}, store)

	err := ex.SubmitCorrection(context.Background(), uuid.New(),
		"date_acte", "date.lettered", "1987-03-19", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreWrite)
}

func TestSubmitCorrectionWithoutStore(t *testing.T) {
	// A nil store disables learning entirely.
	ex := newTestExtractor(testConfig(), &fakeAcquirer{}, &fakeOCR{}, nil)

	err := ex.SubmitCorrection(context.Background(), uuid.New(),
		"date_acte", "date.lettered", "1987-03-19", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreWrite)
}

func TestExtractDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.pdf"), []byte("%PDF"), 0o644))
	sub := filepath.Join(dir, "2026")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "c.pdf"), []byte("%PDF"), 0o644))

	ex := newTestExtractor(testConfig(), &fakeAcquirer{res: pdfResult(sampleDeed)}, &fakeOCR{}, learning.NewMemoryStore())
	results, stats, err := ex.ExtractDirectory(context.Background(), dir, 3)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Zero(t, stats.Failed)
	require.Len(t, results, 3)
	// Results come back sorted by path regardless of worker order.
	assert.True(t, strings.HasSuffix(results[0].Path, "2026/c.pdf"))
	for _, r := range results {
		require.NotNil(t, r.Result, r.Path)
		assert.Equal(t, "1987-03-19", r.Result.Fields["date_acte"].Value)
	}
}

func TestExtractDirectoryRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("%PDF"), 0o644))

	acq := &fakeAcquirer{err: errors.New("boom")}
	ex := newTestExtractor(testConfig(), acq, &fakeOCR{}, learning.NewMemoryStore())
	results, stats, err := ex.ExtractDirectory(context.Background(), dir, 1)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), stats.Failed)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Err, "boom")
}

func TestExtractDirectoryRequiresRoot(t *testing.T) {
	ex := newTestExtractor(testConfig(), &fakeAcquirer{}, &fakeOCR{}, learning.NewMemoryStore())
	_, _, err := ex.ExtractDirectory(context.Background(), "  ", 1)
	require.Error(t, err)
}

func strPtr(s string) *string { return &s }
