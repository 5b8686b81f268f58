package document

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/opennotary/titleparse/internal/common"
)

// ScanDecision is the detector's verdict. Reason is always populated so
// the judgment stays explainable downstream, scanned or not.
type ScanDecision struct {
	IsScanned bool
	Reason    string
}

// Detector is a cheap, explainable heuristic, not a trained classifier.
// A document is judged scanned when, over a small fixed page sample, the
// extracted character count is below a minimum, the word count is below a
// minimum, or too many characters fall outside the Latin script.
type Detector struct {
	cfg common.ScanConfig
}

func NewDetector(cfg common.ScanConfig) *Detector {
	if cfg.SamplePages <= 0 {
		cfg.SamplePages = 3
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 150
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = 25
	}
	if cfg.MaxForeignRatio <= 0 {
		cfg.MaxForeignRatio = 0.3
	}
	return &Detector{cfg: cfg}
}

// Detect samples the first pages of the extracted text layer.
func (d *Detector) Detect(pageTexts []string) ScanDecision {
	sample := pageTexts
	if len(sample) > d.cfg.SamplePages {
		sample = sample[:d.cfg.SamplePages]
	}

	var chars, words, letters, foreign int
	for _, page := range sample {
		words += len(strings.Fields(page))
		for _, r := range page {
			if unicode.IsSpace(r) {
				continue
			}
			chars++
			if unicode.IsLetter(r) {
				letters++
				if !unicode.Is(unicode.Latin, r) {
					foreign++
				}
			}
		}
	}

	if chars < d.cfg.MinChars {
		return ScanDecision{
			IsScanned: true,
			Reason: fmt.Sprintf("insufficient extractable text: %d chars over %d sampled pages (min %d)",
				chars, len(sample), d.cfg.MinChars),
		}
	}
	if words < d.cfg.MinWords {
		return ScanDecision{
			IsScanned: true,
			Reason: fmt.Sprintf("insufficient extractable words: %d words over %d sampled pages (min %d)",
				words, len(sample), d.cfg.MinWords),
		}
	}
	if letters > 0 {
		ratio := float64(foreign) / float64(letters)
		if ratio > d.cfg.MaxForeignRatio {
			return ScanDecision{
				IsScanned: true,
				Reason: fmt.Sprintf("text layer looks garbled: %.0f%% of letters outside Latin script (max %.0f%%)",
					ratio*100, d.cfg.MaxForeignRatio*100),
			}
		}
	}

	return ScanDecision{
		IsScanned: false,
		Reason: fmt.Sprintf("usable text layer: %d chars, %d words over %d sampled pages",
			chars, words, len(sample)),
	}
}
