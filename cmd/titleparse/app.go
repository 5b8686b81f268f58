package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/opennotary/titleparse/internal/anomaly"
	"github.com/opennotary/titleparse/internal/catalog"
	"github.com/opennotary/titleparse/internal/common"
	"github.com/opennotary/titleparse/internal/document"
	"github.com/opennotary/titleparse/internal/learning"
	"github.com/opennotary/titleparse/internal/ocr"
	"github.com/opennotary/titleparse/internal/pipeline"
	"github.com/opennotary/titleparse/internal/resolve"
	"github.com/opennotary/titleparse/internal/scoring"
)

// app bundles everything a command needs, plus the store handle for
// commands that talk to the learning store directly.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	extractor *pipeline.Extractor
	store     learning.Store // nil when learning is disabled
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// newApp loads configuration from the environment (plus the optional
// thresholds file) and wires the pipeline.
func newApp() (*app, error) {
	cfg := common.LoadConfig()
	if cfg.Thresholds != "" {
		if err := common.ApplyThresholdsFile(cfg, cfg.Thresholds); err != nil {
			return nil, fmt.Errorf("thresholds file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)

	var store learning.Store
	if cfg.Learning.Enabled {
		s, err := learning.OpenSQLite(cfg.Learning.DBPath, logger)
		if err != nil {
			return nil, err
		}
		store = s
	}

	// Resolver and scorer read from the store; with learning disabled
	// they run on the neutral prior via an empty in-memory store.
	var lookups learning.Store = store
	if lookups == nil {
		lookups = learning.NewMemoryStore()
	}

	runner := ocr.ExecRunner{}
	acquirer := document.NewAcquirer(cfg.OCR.Pdftotext, runner, logger)
	detector := document.NewDetector(cfg.Scan)

	var ocrProc pipeline.OCRProcessor
	if cfg.OCR.Enabled {
		renderer := &ocr.PdftoppmRenderer{
			Binary:   cfg.OCR.Pdftoppm,
			DPI:      cfg.OCR.DPI,
			MaxPages: cfg.OCR.MaxPages,
			Runner:   runner,
		}
		engine := ocr.NewTesseractEngine(cfg.OCR.Language)
		proc := ocr.NewProcessor(renderer, engine, cfg.OCR.Language, cfg.OCR.DPI, logger)
		proc.PageTimeout = cfg.OCR.PageTimeout
		ocrProc = proc
	}

	extractor := pipeline.NewExtractor(
		cfg,
		acquirer,
		detector,
		ocrProc,
		catalog.Default(),
		resolve.New(lookups, lookups, cfg.Learning.MinOccurrences, logger),
		scoring.New(lookups, logger),
		anomaly.NewChecker(cfg.Anomaly, logger),
		store,
		logger,
	)

	return &app{cfg: cfg, logger: logger, extractor: extractor, store: store}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
