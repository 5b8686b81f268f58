// Package pipeline coordinates the extraction stages: text acquisition,
// scan detection, OCR fallback, pattern matching, resolution, scoring
// and anomaly checks. Only an unreadable document is fatal; every other
// stage failure degrades the result and stays visible in warnings.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

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

// TextAcquirer extracts the native text layer of a source document.
type TextAcquirer interface {
	Acquire(ctx context.Context, path string) (document.Result, error)
}

// OCRProcessor recognizes a scanned PDF. Nil means OCR is unavailable.
type OCRProcessor interface {
	ProcessPDF(ctx context.Context, path string) (ocr.DocumentResult, error)
}

// Extractor is the pipeline orchestrator.
type Extractor struct {
	cfg      *common.Config
	acquirer TextAcquirer
	detector *document.Detector
	ocrProc  OCRProcessor
	catalog  *catalog.Catalog
	resolver *resolve.Resolver
	scorer   *scoring.Scorer
	checker  *anomaly.Checker
	store    learning.Store // nil when learning is disabled
	logger   *slog.Logger
}

func NewExtractor(
	cfg *common.Config,
	acquirer TextAcquirer,
	detector *document.Detector,
	ocrProc OCRProcessor,
	cat *catalog.Catalog,
	resolver *resolve.Resolver,
	scorer *scoring.Scorer,
	checker *anomaly.Checker,
	store learning.Store,
	logger *slog.Logger,
) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		cfg:      cfg,
		acquirer: acquirer,
		detector: detector,
		ocrProc:  ocrProc,
		catalog:  cat,
		resolver: resolver,
		scorer:   scorer,
		checker:  checker,
		store:    store,
		logger:   logger,
	}
}

// Extract runs the full pipeline over one document.
func (e *Extractor) Extract(ctx context.Context, path string) (*entity.ExtractionResult, error) {
	start := time.Now()
	result := &entity.ExtractionResult{
		RunID:      uuid.New(),
		SourcePath: path,
		Fields:     make(map[string]entity.ResolvedField),
	}

	acquired, err := e.acquirer.Acquire(ctx, path)
	if err != nil {
		e.logger.Error("pipeline.acquire.failed", "path", path, "err", err)
		return nil, err
	}
	result.Kind = acquired.Kind

	text := e.acquireText(ctx, path, acquired, result)

	matches, outcomes := e.catalog.Match(text)
	for _, o := range outcomes {
		if o.Err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("rule %s failed: %v", o.RuleID, o.Err))
			e.logger.Warn("pipeline.rule.failed", "rule_id", o.RuleID, "err", o.Err)
		}
	}

	resolution := e.resolver.Resolve(ctx, matches)
	result.Warnings = append(result.Warnings, resolution.Warnings...)
	result.Fields = resolution.Fields
	result.MissingFields = resolution.Missing

	result.Warnings = append(result.Warnings, e.scorer.ScoreFields(ctx, result.Fields)...)
	result.OverallConfidence = scoring.OverallConfidence(resolution.Values)
	result.Anomalies = e.checker.Check(resolution.Values)
	result.Duration = time.Since(start)

	e.logger.Info("pipeline.extract.done",
		"run_id", result.RunID,
		"path", path,
		"fields", len(result.Fields),
		"missing", len(result.MissingFields),
		"anomalies", len(result.Anomalies),
		"overall_confidence", result.OverallConfidence,
		"ocr_used", result.OCRUsed,
		"needs_review", result.NeedsReview,
		"elapsed_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// AcquireText runs only the acquisition stages (text layer, scan
// detection, OCR fallback) and returns the text the matcher would see.
func (e *Extractor) AcquireText(ctx context.Context, path string) (string, error) {
	acquired, err := e.acquirer.Acquire(ctx, path)
	if err != nil {
		return "", err
	}
	scratch := &entity.ExtractionResult{}
	return e.acquireText(ctx, path, acquired, scratch), nil
}

// acquireText decides between the native text layer and OCR. OCR being
// unavailable or failing is a degradation, never fatal: matching then
// proceeds on whatever text layer exists.
func (e *Extractor) acquireText(ctx context.Context, path string, acquired document.Result, result *entity.ExtractionResult) string {
	if acquired.Kind != constants.PDF {
		result.ScanReason = "native text document"
		return acquired.Text
	}

	decision := e.detector.Detect(acquired.PageTexts)
	result.IsScanned = decision.IsScanned
	result.ScanReason = decision.Reason
	if !decision.IsScanned {
		return acquired.Text
	}

	if !e.cfg.OCR.Enabled || e.ocrProc == nil {
		result.Warnings = append(result.Warnings,
			"document looks scanned but ocr is disabled; extracting from the native text layer")
		e.logger.Warn("pipeline.ocr.skipped", "path", path, "reason", decision.Reason)
		return acquired.Text
	}

	ocrRes, err := e.ocrProc.ProcessPDF(ctx, path)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("ocr unavailable: %v; extracting from the native text layer", err))
		e.logger.Warn("pipeline.ocr.failed", "path", path, "err", err)
		return acquired.Text
	}

	result.OCRUsed = true
	result.OCRConfidence = ocrRes.Confidence
	result.Incomplete = ocrRes.Partial
	result.Warnings = append(result.Warnings, ocrRes.Warnings...)
	if ocrRes.Confidence < e.cfg.OCR.ReviewThreshold {
		result.NeedsReview = true
	}
	return document.Normalize(ocrRes.Text)
}

// SubmitCorrection records one human validation: a nil corrected value
// confirms the extraction, anything else is a correction. This is the
// only write path into the learning store.
func (e *Extractor) SubmitCorrection(ctx context.Context, runID uuid.UUID, field, ruleID, extracted string, corrected *string, snippet string) error {
	if e.store == nil {
		return common.NewAppError("LEARNING_DISABLED",
			"cannot record validation outcome: learning store is disabled", common.ErrStoreWrite)
	}
	if field == "" || ruleID == "" {
		return common.NewAppError("BAD_OUTCOME", "field and rule_id are required", common.ErrInvalidInput)
	}
	outcome := entity.ValidationOutcome{
		RunID: runID,
		// Positional indexes are stripped so evidence accumulates per
		// leaf regardless of where the value sat in the document.
		Field:     resolve.NormalizeFieldPath(field),
		RuleID:    ruleID,
		Extracted: extracted,
		Corrected: corrected,
		Context:   snippet,
	}
	if err := e.store.Append(ctx, outcome); err != nil {
		e.logger.Error("pipeline.correction.failed", "field", outcome.Field, "err", err)
		return err
	}
	e.logger.Info("pipeline.correction.recorded",
		"run_id", runID, "field", outcome.Field, "confirmed", outcome.Confirmed())
	return nil
}
