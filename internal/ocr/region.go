package ocr

import (
	"context"
	"fmt"
	"image"
	"math"
)

// Region is a rectangular page sub-area in points (1/72 inch), the PDF
// coordinate unit, with the origin at the top-left corner.
type Region struct {
	X float64
	Y float64
	W float64
	H float64
}

// ToPixels converts the region to pixel coordinates at the given DPI.
func (r Region) ToPixels(dpi int) image.Rectangle {
	scale := float64(dpi) / 72.0
	x0 := int(math.Round(r.X * scale))
	y0 := int(math.Round(r.Y * scale))
	x1 := int(math.Round((r.X + r.W) * scale))
	y1 := int(math.Round((r.Y + r.H) * scale))
	return image.Rect(x0, y0, x1, y1)
}

// RecognizeRegion re-extracts a single rectangular area of one page, for
// targeted re-entry of a low-confidence field.
func (p *Processor) RecognizeRegion(ctx context.Context, path string, page int, region Region) (PageText, error) {
	if region.W <= 0 || region.H <= 0 {
		return PageText{}, fmt.Errorf("region must have positive size, got %+v", region)
	}
	imgPath, cleanup, err := p.Renderer.RenderPage(ctx, path, page)
	if err != nil {
		return PageText{}, fmt.Errorf("rasterize page %d: %w", page, err)
	}
	defer cleanup()

	img, err := loadImage(imgPath)
	if err != nil {
		return PageText{}, fmt.Errorf("load page image: %w", err)
	}
	rect := region.ToPixels(p.DPI).Intersect(img.Bounds())
	if rect.Empty() {
		return PageText{}, fmt.Errorf("region %+v falls outside page %d", region, page)
	}
	crop := toGray(img).SubImage(rect)

	encoded, err := EncodePNG(Preprocess(crop, p.Pre))
	if err != nil {
		return PageText{}, fmt.Errorf("encode region image: %w", err)
	}
	tokens, err := p.Engine.Recognize(ctx, encoded)
	if err != nil {
		return PageText{}, err
	}
	return PageText{
		PageNumber: page,
		Text:       joinTokens(tokens),
		Confidence: MeanPositiveConfidence(tokens),
		Language:   p.Language,
		DPI:        p.DPI,
	}, nil
}
