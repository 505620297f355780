package ensemble

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scorer rates how plausible a recognized text is. Higher is better.
type Scorer interface {
	Score(text string) int
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(text string) int

// Score implements Scorer.
func (f ScorerFunc) Score(text string) int { return f(text) }

// Heuristic weights.
const (
	MixedContentBonus  = 100
	SingleContentBonus = 50
	PunctuationBonus   = 25
	DateHintBonus      = 30
	NoisePenalty       = 50
)

const (
	punctuation      = ".,;:!?()-[]"
	expectedNonAlnum = " .,;:!?()-[]/"
	noiseNumerator   = 3
	noiseDenominator = 10
)

// dateHints are the substrings that earn DateHintBonus.
var dateHints = []string{"/", "-", ":", "2023", "2024", "2025"}

// ScoreBreakdown itemizes a heuristic score.
type ScoreBreakdown struct {
	Length       int
	Content      int
	Punctuation  int
	DateHint     int
	NoisePenalty int
}

// Total sums the terms.
func (b ScoreBreakdown) Total() int {
	return b.Length + b.Content + b.Punctuation + b.DateHint - b.NoisePenalty
}

// HeuristicScorer is the default hand-tuned Scorer.
type HeuristicScorer struct{}

// Score implements Scorer.
func (h HeuristicScorer) Score(text string) int {
	return h.Breakdown(text).Total()
}

// Breakdown computes each term of the score for the trimmed text.
func (HeuristicScorer) Breakdown(text string) ScoreBreakdown {
	text = strings.TrimSpace(text)

	var b ScoreBreakdown
	b.Length = utf8.RuneCountInString(text)

	hasLetter, hasDigit := false, false
	noise := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if !isAlnum(r) && !strings.ContainsRune(expectedNonAlnum, r) {
			noise++
		}
	}

	switch {
	case hasLetter && hasDigit:
		b.Content = MixedContentBonus
	case hasLetter || hasDigit:
		b.Content = SingleContentBonus
	}

	if strings.ContainsAny(text, punctuation) {
		b.Punctuation = PunctuationBonus
	}

	lower := strings.ToLower(text)
	for _, hint := range dateHints {
		if strings.Contains(lower, hint) {
			b.DateHint = DateHintBonus
			break
		}
	}

	// noise/length > 3/10, compared without floating point.
	if noise*noiseDenominator > b.Length*noiseNumerator {
		b.NoisePenalty = NoisePenalty
	}

	return b
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
