package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNG renders a small grayscale page image to disk.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 30)})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// fakeRenderer serves pre-rendered page images.
type fakeRenderer struct {
	pages []string
	err   error
}

func (f *fakeRenderer) RenderPages(context.Context, string) ([]string, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.pages, func() {}, nil
}

func (f *fakeRenderer) RenderPage(_ context.Context, _ string, page int) (string, func(), error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.pages[page-1], func() {}, nil
}

// fakeEngine returns scripted tokens per call.
type fakeEngine struct {
	calls   int
	results [][]Token
	errs    []error
	onCall  func(call int)
}

func (f *fakeEngine) Recognize(ctx context.Context, _ []byte) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	call := f.calls
	f.calls++
	if f.onCall != nil {
		f.onCall(call)
	}
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call < len(f.results) {
		return f.results[call], nil
	}
	return nil, nil
}

func (f *fakeEngine) Close() error { return nil }

func TestProcessPDFAggregatesPages(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{pages: []string{
		writePNG(t, dir, "page-1.png"),
		writePNG(t, dir, "page-2.png"),
	}}
	engine := &fakeEngine{results: [][]Token{
		{{Text: "le", Confidence: 0.9}, {Text: "19", Confidence: 0.7}},
		{{Text: "mars", Confidence: 0.6}},
	}}
	p := NewProcessor(renderer, engine, "fra", 300, nil)

	res, err := p.ProcessPDF(context.Background(), "acte.pdf")
	require.NoError(t, err)

	require.Len(t, res.Pages, 2)
	assert.Equal(t, "le 19", res.Pages[0].Text)
	assert.InDelta(t, 0.8, float64(res.Pages[0].Confidence), 1e-6)
	assert.InDelta(t, 0.6, float64(res.Pages[1].Confidence), 1e-6)
	// Document confidence is the mean of page confidences.
	assert.InDelta(t, 0.7, float64(res.Confidence), 1e-6)
	assert.Equal(t, "le 19\n\f\nmars", res.Text)
	assert.False(t, res.Partial)
}

func TestProcessPDFPageErrorDegrades(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{pages: []string{
		writePNG(t, dir, "page-1.png"),
		writePNG(t, dir, "page-2.png"),
	}}
	engine := &fakeEngine{
		errs:    []error{errors.New("tesseract choked"), nil},
		results: [][]Token{nil, {{Text: "mars", Confidence: 0.6}}},
	}
	p := NewProcessor(renderer, engine, "fra", 300, nil)

	res, err := p.ProcessPDF(context.Background(), "acte.pdf")
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, 2, res.Pages[0].PageNumber)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 1")
	assert.False(t, res.Partial)
}

func TestProcessPDFCancellationIsPartial(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{pages: []string{
		writePNG(t, dir, "page-1.png"),
		writePNG(t, dir, "page-2.png"),
		writePNG(t, dir, "page-3.png"),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	engine := &fakeEngine{
		results: [][]Token{{{Text: "premier", Confidence: 0.9}}},
		onCall: func(call int) {
			if call == 0 {
				cancel() // deadline hits after the first page
			}
		},
	}
	p := NewProcessor(renderer, engine, "fra", 300, nil)

	res, err := p.ProcessPDF(ctx, "acte.pdf")
	require.NoError(t, err)
	assert.True(t, res.Partial)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "premier", res.Pages[0].Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestProcessPDFRasterizeFailureIsFatal(t *testing.T) {
	p := NewProcessor(&fakeRenderer{err: errors.New("pdftoppm: not found")}, &fakeEngine{}, "fra", 300, nil)

	_, err := p.ProcessPDF(context.Background(), "acte.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rasterize")
}

func TestRecognizeRegion(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{pages: []string{writePNG(t, dir, "page-1.png")}}
	engine := &fakeEngine{results: [][]Token{{{Text: "450", Confidence: 0.9}, {Text: "000", Confidence: 0.7}}}}
	p := NewProcessor(renderer, engine, "fra", 300, nil)

	page, err := p.RecognizeRegion(context.Background(), "acte.pdf", 1, Region{X: 0, Y: 0, W: 1, H: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, "450 000", page.Text)
	assert.InDelta(t, 0.8, float64(page.Confidence), 1e-6)
	assert.Equal(t, 300, page.DPI)
}

func TestRecognizeRegionRejectsEmptyRegion(t *testing.T) {
	p := NewProcessor(&fakeRenderer{}, &fakeEngine{}, "fra", 300, nil)
	_, err := p.RecognizeRegion(context.Background(), "acte.pdf", 1, Region{W: 0, H: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive size")
}

func TestMeanPositiveConfidence(t *testing.T) {
	assert.Zero(t, MeanPositiveConfidence(nil))
	assert.Zero(t, MeanPositiveConfidence([]Token{{Text: "x", Confidence: 0}}))

	// Zero-confidence tokens are excluded, not averaged in.
	got := MeanPositiveConfidence([]Token{
		{Text: "a", Confidence: 0.8},
		{Text: "b", Confidence: 0},
		{Text: "c", Confidence: 0.4},
	})
	assert.InDelta(t, 0.6, float64(got), 1e-6)
}

func TestSortPagePathsNumeric(t *testing.T) {
	paths := []string{"p/page-10.png", "p/page-2.png", "p/page-1.png"}
	sortPagePaths(paths)
	assert.Equal(t, []string{"p/page-1.png", "p/page-2.png", "p/page-10.png"}, paths)
}
