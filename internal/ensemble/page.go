package ensemble

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/ocrpick/internal/logger"
	"github.com/platinummonkey/ocrpick/internal/ocr"
	"golang.org/x/sync/errgroup"
)

// PageAnalysis is the OCR outcome for one page image.
type PageAnalysis struct {
	Confidence        ConfidenceSummary `json:"confidence_data" yaml:"confidence_data"`
	Best              Candidate         `json:"best_result" yaml:"best_result"`
	TotalMethods      int               `json:"total_methods_tried" yaml:"total_methods_tried"`
	SuccessfulMethods int               `json:"successful_methods" yaml:"successful_methods"`

	// Attempts holds every raw attempt in menu order; it is not serialized.
	Attempts []Attempt `json:"-" yaml:"-"`
}

// PageProcessor combines the recognizer, the confidence analyzer and the selector.
type PageProcessor struct {
	recognizer *Recognizer
	analyzer   *Analyzer
	selector   *Selector
	logger     *logger.Logger
}

// PageProcessorConfig holds configuration for the page processor
type PageProcessorConfig struct {
	Engine ocr.Engine

	// Menu defaults to DefaultMenu()
	Menu []MenuEntry

	// Scorer defaults to HeuristicScorer
	Scorer Scorer

	// MethodWorkers bounds concurrent menu entries per page (default 1)
	MethodWorkers int

	Logger *logger.Logger
}

// NewPageProcessor creates a page processor
func NewPageProcessor(cfg *PageProcessorConfig) (*PageProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	recognizer, err := NewRecognizer(&RecognizerConfig{
		Engine:  cfg.Engine,
		Menu:    cfg.Menu,
		Workers: cfg.MethodWorkers,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}

	analyzer, err := NewAnalyzer(cfg.Engine, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	return &PageProcessor{
		recognizer: recognizer,
		analyzer:   analyzer,
		selector:   NewSelector(cfg.Scorer, recognizer.Menu(), log),
		logger:     log,
	}, nil
}

// Menu returns the recognition menu in tie-break order.
func (p *PageProcessor) Menu() []MenuEntry {
	return p.recognizer.Menu()
}

// Process analyzes one page image. It never fails: engine errors end up in
// the attempts and the confidence summary.
func (p *PageProcessor) Process(ctx context.Context, image []byte, languages string) PageAnalysis {
	start := time.Now()

	var (
		attempts   []Attempt
		confidence ConfidenceSummary
		g          errgroup.Group
	)

	g.Go(func() error {
		attempts = p.recognizer.Recognize(ctx, image, languages)
		return nil
	})
	g.Go(func() error {
		confidence = p.analyzer.Analyze(ctx, image, languages)
		return nil
	})
	_ = g.Wait()

	analysis := PageAnalysis{
		Confidence:        confidence,
		Best:              p.selector.Select(attempts),
		TotalMethods:      len(attempts),
		SuccessfulMethods: CountValid(attempts),
		Attempts:          attempts,
	}

	p.logger.WithFields(
		"best_method", analysis.Best.Method,
		"score", analysis.Best.Score,
		"successful", analysis.SuccessfulMethods,
		"total", analysis.TotalMethods,
		"duration", time.Since(start),
	).Debug("Page analysis completed")

	return analysis
}
