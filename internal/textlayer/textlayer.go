// Package textlayer reads the embedded text of each PDF page.
package textlayer

import (
	"context"
	"fmt"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/logger"
)

// Backend names accepted by New.
const (
	BackendPoppler = "poppler"
	BackendUniPDF  = "unipdf"
	BackendNone    = "none"
)

// Reader extracts per-page embedded text.
type Reader interface {
	Name() string

	// PageTexts returns one trimmed string per page, page 1 first
	PageTexts(ctx context.Context, pdfPath string) ([]string, error)
}

// Config holds configuration for the text-layer reader
type Config struct {
	// Backend is "poppler" (default), "unipdf" or "none"
	Backend string

	// PdftotextPath is the pdftotext binary (poppler backend)
	PdftotextPath string

	// UnidocLicenseKey is the metered key (unipdf backend)
	UnidocLicenseKey string

	Logger *logger.Logger
}

// New creates the reader for cfg.Backend.
func New(cfg *Config) (Reader, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	switch strings.ToLower(cfg.Backend) {
	case "", BackendPoppler:
		path := cfg.PdftotextPath
		if path == "" {
			path = "pdftotext"
		}
		return NewPoppler(path, log), nil

	case BackendUniPDF:
		return NewUniPDF(cfg.UnidocLicenseKey, log)

	case BackendNone:
		return None{}, nil

	default:
		return nil, fmt.Errorf("unsupported text layer reader: %s (supported: %s, %s, %s)",
			cfg.Backend, BackendPoppler, BackendUniPDF, BackendNone)
	}
}

// None is a Reader for documents whose text layer should be ignored.
type None struct{}

// Name implements Reader.
func (None) Name() string { return BackendNone }

// PageTexts implements Reader. It always returns no pages.
func (None) PageTexts(context.Context, string) ([]string, error) { return nil, nil }
