// Package document reads source files into raw text and decides whether a
// PDF is a scan lacking a usable text layer.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/opennotary/titleparse/constants"
	"github.com/opennotary/titleparse/internal/common"
	"github.com/opennotary/titleparse/internal/ocr"
)

// Result is the best-effort raw text of a source document.
type Result struct {
	Text      string
	PageTexts []string // PDF pages split on form feeds; single entry for DOCX
	Pages     int
	Kind      constants.DocumentKind
	Method    string // "pdf-text" | "docx"
}

// Acquirer extracts the native text layer of a document.
type Acquirer struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Runner    ocr.Runner
	Logger    *slog.Logger
}

func NewAcquirer(pdftotext string, runner ocr.Runner, logger *slog.Logger) *Acquirer {
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	if runner == nil {
		runner = ocr.ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{Pdftotext: pdftotext, Runner: runner, Logger: logger}
}

// Acquire picks a strategy based on file extension. Unreadable or
// unsupported files are fatal and wrap common.ErrDocumentUnreadable.
func (a *Acquirer) Acquire(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	kind := constants.MapExtToKind(filepath.Ext(path))
	a.Logger.Debug("document.acquire.start", "path", path, "kind", string(kind))

	var res Result
	var err error
	switch kind {
	case constants.PDF:
		res, err = a.acquirePDF(ctx, path)
	case constants.DOCX:
		res, err = a.acquireDOCX(path)
	default:
		return Result{}, common.NewAppError("UNSUPPORTED_KIND",
			fmt.Sprintf("unsupported extension %q", filepath.Ext(path)), common.ErrDocumentUnreadable)
	}
	if err != nil {
		return Result{}, err
	}

	a.Logger.Info("document.acquire.ok",
		"path", path,
		"kind", string(res.Kind),
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (a *Acquirer) acquirePDF(ctx context.Context, path string) (Result, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := a.Runner.Run(ctx, a.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return Result{}, common.NewAppError("PDF_TEXT_LAYER",
			fmt.Sprintf("pdftotext failed: %v: %s", err, strings.TrimSpace(string(errb))),
			common.ErrDocumentUnreadable)
	}
	// A form-feed \f is used as page separator by default.
	raw := string(out)
	pages := strings.Split(raw, "\f")
	pageTexts := make([]string, 0, len(pages))
	for _, p := range pages {
		pageTexts = append(pageTexts, Normalize(p))
	}
	return Result{
		Text:      Normalize(raw),
		PageTexts: pageTexts,
		Pages:     len(pageTexts),
		Kind:      constants.PDF,
		Method:    "pdf-text",
	}, nil
}

func (a *Acquirer) acquireDOCX(path string) (Result, error) {
	text, err := readDOCX(path)
	if err != nil {
		return Result{}, common.NewAppError("DOCX_READ",
			fmt.Sprintf("read %s: %v", filepath.Base(path), err), common.ErrDocumentUnreadable)
	}
	text = Normalize(text)
	return Result{
		Text:      text,
		PageTexts: []string{text},
		Pages:     1,
		Kind:      constants.DOCX,
		Method:    "docx",
	}, nil
}
