// Package ocr rasterizes scanned pages, normalizes the page images, and
// recognizes text through Tesseract with per-token confidence.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DocumentResult aggregates the per-page OCR results for one document.
type DocumentResult struct {
	Pages []PageText
	Text  string
	// Confidence is the mean of page confidences, exposed so low-confidence
	// scans can be routed for manual re-entry.
	Confidence float32
	// Partial is set when the caller's deadline cut recognition short;
	// already-recognized pages are kept.
	Partial  bool
	Warnings []string
}

// PageText is one page's recognized text with its confidence.
type PageText struct {
	PageNumber int
	Text       string
	Confidence float32
	Language   string
	DPI        int
}

// Processor runs the rasterize → preprocess → recognize loop.
type Processor struct {
	Renderer    PageRenderer
	Engine      Engine
	Pre         PreprocessOptions
	Language    string
	DPI         int
	PageTimeout time.Duration // 0 = rely on the caller's context only
	Logger      *slog.Logger
}

func NewProcessor(renderer PageRenderer, engine Engine, language string, dpi int, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if language == "" {
		language = "fra"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &Processor{
		Renderer: renderer,
		Engine:   engine,
		Pre:      DefaultPreprocessOptions(),
		Language: language,
		DPI:      dpi,
		Logger:   logger,
	}
}

// ProcessPDF rasterizes and recognizes every page. Recognition failures on
// individual pages degrade to warnings; a canceled context returns the
// pages recognized so far with Partial set.
func (p *Processor) ProcessPDF(ctx context.Context, path string) (DocumentResult, error) {
	start := time.Now()
	paths, cleanup, err := p.Renderer.RenderPages(ctx, path)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("rasterize: %w", err)
	}
	defer cleanup()

	var res DocumentResult
	var b strings.Builder
	var confSum float64
	for i, imgPath := range paths {
		if ctx.Err() != nil {
			res.Partial = true
			res.Warnings = append(res.Warnings, fmt.Sprintf("ocr stopped after page %d: %v", i, ctx.Err()))
			break
		}
		page, err := p.recognizePage(ctx, imgPath, i+1)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				res.Partial = true
				res.Warnings = append(res.Warnings, fmt.Sprintf("ocr stopped on page %d: %v", i+1, err))
				break
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		res.Pages = append(res.Pages, page)
		confSum += float64(page.Confidence)
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(page.Text)
	}

	res.Text = b.String()
	if n := len(res.Pages); n > 0 {
		res.Confidence = float32(confSum / float64(n))
	}
	p.Logger.Info("ocr.document.done",
		"path", path,
		"pages", len(res.Pages),
		"confidence", res.Confidence,
		"partial", res.Partial,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) recognizePage(ctx context.Context, imgPath string, pageNumber int) (PageText, error) {
	if p.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.PageTimeout)
		defer cancel()
	}

	img, err := loadImage(imgPath)
	if err != nil {
		return PageText{}, fmt.Errorf("load page image: %w", err)
	}
	encoded, err := EncodePNG(Preprocess(img, p.Pre))
	if err != nil {
		return PageText{}, fmt.Errorf("encode page image: %w", err)
	}

	tokens, err := p.Engine.Recognize(ctx, encoded)
	if err != nil {
		return PageText{}, err
	}
	return PageText{
		PageNumber: pageNumber,
		Text:       joinTokens(tokens),
		Confidence: MeanPositiveConfidence(tokens),
		Language:   p.Language,
		DPI:        p.DPI,
	}, nil
}

// MeanPositiveConfidence averages token confidences, excluding zeros: a
// zero-confidence token signals "nothing detected" and must not drag the
// page mean down as a measured zero.
func MeanPositiveConfidence(tokens []Token) float32 {
	var sum float64
	var n int
	for _, t := range tokens {
		if t.Confidence > 0 {
			sum += t.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / float64(n))
}

func joinTokens(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Text != "" {
			parts = append(parts, t.Text)
		}
	}
	return strings.Join(parts, " ")
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return png.Decode(f)
}
