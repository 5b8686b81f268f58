package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sort"

	xdraw "golang.org/x/image/draw"
)

// PreprocessOptions toggles the fixed page-normalization pipeline applied
// before recognition: grayscale → contrast → sharpen → binarize →
// regrayscale → median denoise. All steps are on by default.
type PreprocessOptions struct {
	Grayscale bool

	Contrast       bool
	ContrastFactor float64 // gain around mid-gray, default 1.4

	Sharpen bool

	Binarize          bool
	BinarizeThreshold uint8 // default 140

	// Regrayscale converts the bilevel image back to 8-bit grayscale so the
	// median filter (and the OCR engine) see a single-channel raster.
	Regrayscale bool

	Median bool

	// MaxDim caps the longer page side in pixels; 0 disables resampling.
	MaxDim int
}

// DefaultPreprocessOptions returns the full pipeline, all steps enabled.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Grayscale:         true,
		Contrast:          true,
		ContrastFactor:    1.4,
		Sharpen:           true,
		Binarize:          true,
		BinarizeThreshold: 140,
		Regrayscale:       true,
		Median:            true,
		MaxDim:            0,
	}
}

var bilevelPalette = color.Palette{color.Black, color.White}

// Preprocess applies the enabled steps in their fixed order and returns
// the normalized page image.
func Preprocess(img image.Image, opts PreprocessOptions) image.Image {
	gray := toGray(img)

	if opts.MaxDim > 0 {
		gray = downscale(gray, opts.MaxDim)
	}

	// Steps past this point require a single channel; the Grayscale toggle
	// only controls whether the conversion counts as a processing step for
	// callers that feed already-gray input.
	_ = opts.Grayscale

	if opts.Contrast {
		factor := opts.ContrastFactor
		if factor <= 0 {
			factor = 1.4
		}
		gray = adjustContrast(gray, factor)
	}
	if opts.Sharpen {
		gray = sharpen(gray)
	}

	var out image.Image = gray
	if opts.Binarize {
		threshold := opts.BinarizeThreshold
		if threshold == 0 {
			threshold = 140
		}
		bw := binarize(gray, threshold)
		out = bw
		if opts.Regrayscale {
			gray = toGray(bw)
			out = gray
		}
	}
	if opts.Median {
		if g, ok := out.(*image.Gray); ok {
			out = medianFilter(g)
		}
	}
	return out
}

// EncodePNG renders an image to PNG bytes for the OCR engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	xdraw.Draw(g, b, img, b.Min, xdraw.Src)
	return g
}

func downscale(g *image.Gray, maxDim int) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxDim {
		return g
	}
	scale := float64(maxDim) / float64(longer)
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), g, b, xdraw.Src, nil)
	return dst
}

func adjustContrast(g *image.Gray, factor float64) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float64(g.GrayAt(x, y).Y)
			out.SetGray(x, y, color.Gray{Y: clampByte(128 + (v-128)*factor)})
		}
	}
	return out
}

// sharpen applies a 3x3 unsharp kernel (center 5, cross -1).
func sharpen(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	at := func(x, y int) float64 {
		return float64(g.GrayAt(clampInt(x, b.Min.X, b.Max.X-1), clampInt(y, b.Min.Y, b.Max.Y-1)).Y)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := 5*at(x, y) - at(x-1, y) - at(x+1, y) - at(x, y-1) - at(x, y+1)
			out.SetGray(x, y, color.Gray{Y: clampByte(v)})
		}
	}
	return out
}

func binarize(g *image.Gray, threshold uint8) *image.Paletted {
	b := g.Bounds()
	out := image.NewPaletted(b, bilevelPalette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			idx := uint8(0) // black
			if g.GrayAt(x, y).Y >= threshold {
				idx = 1 // white
			}
			out.SetColorIndex(x, y, idx)
		}
	}
	return out
}

// medianFilter applies a 3x3 median, the denoise step closing the pipeline.
func medianFilter(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	window := make([]byte, 0, 9)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px := clampInt(x+dx, b.Min.X, b.Max.X-1)
					py := clampInt(y+dy, b.Min.Y, b.Max.Y-1)
					window = append(window, g.GrayAt(px, py).Y)
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.SetGray(x, y, color.Gray{Y: window[4]})
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
