// Package export renders learning-store reports into XLSX workbooks for
// the review workflow.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/opennotary/titleparse/internal/learning"
)

// Service produces XLSX bytes from the learning store's derived views.
type Service struct {
	store  learning.Store
	logger *slog.Logger
}

func NewService(store learning.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportSuggestionsXLSX builds the improvement report and writes it as a
// three-sheet workbook: underperforming rules, repeated corrections, and
// low-accuracy fields.
func (s *Service) ExportSuggestionsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	report, err := learning.BuildReport(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("build suggestions: %w", err)
	}

	f := excelize.NewFile()

	if err := s.writeRulesSheet(f, report.UnderperformingRules); err != nil {
		return nil, err
	}
	if err := s.writeCorrectionsSheet(f, report.RepeatedCorrections); err != nil {
		return nil, err
	}
	if err := s.writeFieldsSheet(f, report.LowAccuracyFields); err != nil {
		return nil, err
	}

	// The default "Sheet1" is replaced by the first report sheet.
	if idx, _ := f.GetSheetIndex("Rules"); idx != -1 {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.suggestions.ok",
		"rules", len(report.UnderperformingRules),
		"corrections", len(report.RepeatedCorrections),
		"fields", len(report.LowAccuracyFields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeRulesSheet(f *excelize.File, rules []learning.RuleSuggestion) error {
	const sheet = "Rules"
	if err := ensureSheet(f, sheet); err != nil {
		return err
	}
	writeHeader(f, sheet, []string{"Rule", "Field", "Accuracy", "Samples", "Recent Examples"})
	for i, r := range rules {
		row := i + 2
		writeCell(f, sheet, 1, row, r.RuleID)
		writeCell(f, sheet, 2, row, r.Field)
		writeCell(f, sheet, 3, row, fmt.Sprintf("%.2f", r.Accuracy))
		writeCell(f, sheet, 4, row, r.Samples)
		writeCell(f, sheet, 5, row, truncate(strings.Join(r.Examples, " | "), 200))
	}
	_ = f.SetColWidth(sheet, "A", "B", 24)
	_ = f.SetColWidth(sheet, "C", "D", 12)
	_ = f.SetColWidth(sheet, "E", "E", 64)
	return nil
}

func (s *Service) writeCorrectionsSheet(f *excelize.File, corrections []learning.CorrectionSuggestion) error {
	const sheet = "Corrections"
	if err := ensureSheet(f, sheet); err != nil {
		return err
	}
	writeHeader(f, sheet, []string{"Field", "Extracted", "Corrected To", "Occurrences"})
	for i, c := range corrections {
		row := i + 2
		writeCell(f, sheet, 1, row, c.Field)
		writeCell(f, sheet, 2, row, c.Wrong)
		writeCell(f, sheet, 3, row, c.Corrected)
		writeCell(f, sheet, 4, row, c.Occurrences)
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "C", 32)
	_ = f.SetColWidth(sheet, "D", "D", 12)
	return nil
}

func (s *Service) writeFieldsSheet(f *excelize.File, fields []learning.FieldSuggestion) error {
	const sheet = "Fields"
	if err := ensureSheet(f, sheet); err != nil {
		return err
	}
	writeHeader(f, sheet, []string{"Field", "Accuracy", "Samples"})
	for i, fs := range fields {
		row := i + 2
		writeCell(f, sheet, 1, row, fs.Field)
		writeCell(f, sheet, 2, row, fmt.Sprintf("%.2f", fs.Accuracy))
		writeCell(f, sheet, 3, row, fs.Samples)
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "C", 12)
	return nil
}

func ensureSheet(f *excelize.File, sheet string) error {
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	// Drop the workbook's default sheet once a real one exists.
	if sheet != "Sheet1" {
		if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
			_ = f.DeleteSheet("Sheet1")
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		writeCell(f, sheet, i+1, 1, h)
	}
}

func writeCell(f *excelize.File, sheet string, col, row int, v any) {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheet, cell, v)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
