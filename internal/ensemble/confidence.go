package ensemble

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/logger"
	"github.com/platinummonkey/ocrpick/internal/ocr"
)

// ConfidentThreshold is the confidence a word must exceed to count as confident.
const ConfidentThreshold = 60

// ConfidenceSummary aggregates word confidences for one page. When the engine
// query fails only Error is set.
type ConfidenceSummary struct {
	AverageConfidence float64 `json:"average_confidence" yaml:"average_confidence"`
	MinConfidence     int     `json:"min_confidence" yaml:"min_confidence"`
	MaxConfidence     int     `json:"max_confidence" yaml:"max_confidence"`
	TotalWords        int     `json:"total_words" yaml:"total_words"`
	ConfidentWords    int     `json:"confident_words" yaml:"confident_words"`
	Error             string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the summary carries an engine error instead of statistics.
func (s ConfidenceSummary) Failed() bool {
	return s.Error != ""
}

type confidenceStats ConfidenceSummary

type confidenceError struct {
	Error string `json:"error" yaml:"error"`
}

// MarshalJSON emits only the error when the query failed.
func (s ConfidenceSummary) MarshalJSON() ([]byte, error) {
	if s.Failed() {
		return json.Marshal(confidenceError{Error: s.Error})
	}
	return json.Marshal(confidenceStats(s))
}

// MarshalYAML mirrors MarshalJSON.
func (s ConfidenceSummary) MarshalYAML() (interface{}, error) {
	if s.Failed() {
		return confidenceError{Error: s.Error}, nil
	}
	return confidenceStats(s), nil
}

// Summarize reduces engine tokens to summary statistics. Non-positive
// confidences (including ocr.ConfidenceUnknown) are left out of the average,
// min, max and confident count; every token with non-blank text counts as a word.
func Summarize(tokens []ocr.Token) ConfidenceSummary {
	var summary ConfidenceSummary

	total, scored := 0, 0
	for _, tok := range tokens {
		if strings.TrimSpace(tok.Text) != "" {
			summary.TotalWords++
		}

		conf := tok.Confidence
		if conf <= 0 {
			continue
		}

		if scored == 0 || conf < summary.MinConfidence {
			summary.MinConfidence = conf
		}
		if conf > summary.MaxConfidence {
			summary.MaxConfidence = conf
		}
		if conf > ConfidentThreshold {
			summary.ConfidentWords++
		}
		total += conf
		scored++
	}

	if scored > 0 {
		summary.AverageConfidence = float64(total) / float64(scored)
	}

	return summary
}

// Analyzer queries the engine for word confidences.
type Analyzer struct {
	engine ocr.Engine
	logger *logger.Logger
}

// NewAnalyzer creates a confidence analyzer
func NewAnalyzer(engine ocr.Engine, log *logger.Logger) (*Analyzer, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if log == nil {
		log = logger.Get()
	}
	return &Analyzer{engine: engine, logger: log}, nil
}

// Analyze returns the page's confidence summary, or a summary carrying the
// engine error.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, languages string) ConfidenceSummary {
	tokens, err := a.engine.Tokens(ctx, image, languages)
	if err != nil {
		a.logger.WithError(err).Warn("Confidence query failed")
		return ConfidenceSummary{Error: err.Error()}
	}

	summary := Summarize(tokens)
	a.logger.WithFields(
		"words", summary.TotalWords,
		"average_confidence", summary.AverageConfidence,
	).Debug("Confidence analysis completed")

	return summary
}
