package analyzer

import (
	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"

	"MacroAgent/internal/ports"
)

// VaderScorer scores text with the VADER lexicon. The compound score
// is already normalized to [-1, 1].
type VaderScorer struct{}

var _ ports.TextScorer = VaderScorer{}

// NewVaderScorer returns the default polarity scorer.
func NewVaderScorer() VaderScorer {
	return VaderScorer{}
}

// Score maps text to a polarity in [-1, 1]; empty text scores 0.
func (VaderScorer) Score(text string) float64 {
	if text == "" {
		return 0.0
	}
	parsed := sentitext.Parse(text, lexicon.DefaultLexicon)
	return sentitext.PolarityScore(parsed).Compound
}
