package ensemble

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/ocrpick/internal/logger"
	"github.com/platinummonkey/ocrpick/internal/ocr"
	"golang.org/x/sync/errgroup"
)

// Recognizer runs every menu entry against a page image.
type Recognizer struct {
	engine  ocr.Engine
	menu    []MenuEntry
	workers int
	logger  *logger.Logger
}

// RecognizerConfig holds configuration for the recognizer
type RecognizerConfig struct {
	Engine ocr.Engine

	// Menu defaults to DefaultMenu()
	Menu []MenuEntry

	// Workers bounds how many menu entries run at once (default 1)
	Workers int

	Logger *logger.Logger
}

// NewRecognizer creates a recognizer
func NewRecognizer(cfg *RecognizerConfig) (*Recognizer, error) {
	if cfg == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	menu := cfg.Menu
	if len(menu) == 0 {
		menu = DefaultMenu()
	}

	seen := make(map[Method]bool, len(menu))
	for _, entry := range menu {
		if entry.Method == "" || entry.Method == MethodNone {
			return nil, fmt.Errorf("invalid menu method %q", entry.Method)
		}
		if seen[entry.Method] {
			return nil, fmt.Errorf("duplicate menu method %q", entry.Method)
		}
		seen[entry.Method] = true
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Recognizer{
		engine:  cfg.Engine,
		menu:    menu,
		workers: workers,
		logger:  log,
	}, nil
}

// Menu returns the entries this recognizer runs, in order.
func (r *Recognizer) Menu() []MenuEntry {
	return r.menu
}

// Recognize returns one attempt per menu entry, in menu order. Engine errors
// are recorded on the attempt and never stop the other entries.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, languages string) []Attempt {
	attempts := make([]Attempt, len(r.menu))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, entry := range r.menu {
		i, entry := i, entry
		g.Go(func() error {
			attempts[i] = r.attempt(ctx, entry, image, languages)
			return nil
		})
	}
	_ = g.Wait()

	return attempts
}

func (r *Recognizer) attempt(ctx context.Context, entry MenuEntry, image []byte, languages string) (result Attempt) {
	log := r.logger.WithMethod(string(entry.Method))
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			result = NewFailedAttempt(entry.Method, fmt.Errorf("engine panic: %v", p))
			log.WithFields("panic", p).Error("Recognition panicked")
		}
	}()

	text, err := r.engine.Recognize(ctx, image, languages, entry.Params)
	if err != nil {
		log.WithError(err).Warn("Recognition attempt failed")
		return NewFailedAttempt(entry.Method, err)
	}

	result = NewAttempt(entry.Method, text)
	log.WithFields("params", entry.Params.String(), "chars", len([]rune(result.Text)), "duration", time.Since(start)).
		Debug("Recognition attempt finished")
	return result
}
