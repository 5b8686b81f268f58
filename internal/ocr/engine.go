package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Token is one recognized word with the engine's confidence in [0,1].
// A zero confidence signals "nothing detected" for that token.
type Token struct {
	Text       string
	Confidence float64
}

// Engine recognizes text on a single preprocessed page image.
type Engine interface {
	Recognize(ctx context.Context, png []byte) ([]Token, error)
	Close() error
}

// TesseractEngine recognizes pages through gosseract. A fresh client is
// created per call: gosseract clients are not safe for reuse across
// goroutines, and page recognition dominates the client setup cost.
type TesseractEngine struct {
	Language string // default "fra"
}

func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "fra"
	}
	return &TesseractEngine{Language: language}
}

func (e *TesseractEngine) Recognize(ctx context.Context, png []byte) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(e.Language); err != nil {
		return nil, fmt.Errorf("set language %q: %w", e.Language, err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	tokens := make([]Token, 0, len(boxes))
	for _, b := range boxes {
		// gosseract reports confidence in 0..100.
		tokens = append(tokens, Token{Text: b.Word, Confidence: b.Confidence / 100.0})
	}
	return tokens, nil
}

func (e *TesseractEngine) Close() error { return nil }
