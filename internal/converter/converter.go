// Package converter turns source documents into page images for recognition.
package converter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/platinummonkey/ocrpick/internal/logger"
)

// Backend names accepted by New.
const (
	BackendPoppler = "poppler"
	BackendUniPDF  = "unipdf"
)

// Backend renders every page of a PDF to PNG bytes.
type Backend interface {
	Name() string

	// Render returns exactly pageCount images, page 1 first
	Render(ctx context.Context, pdfPath string, dpi, pageCount int) ([][]byte, error)
}

// Converter validates PDFs with pdfcpu and rasterizes them with a Backend.
type Converter struct {
	backend Backend
	logger  *logger.Logger
}

// Config holds configuration for the converter
type Config struct {
	// Backend is "poppler" (default) or "unipdf"
	Backend string

	// PdftoppmPath is the pdftoppm binary (poppler backend)
	PdftoppmPath string

	// UnidocLicenseKey is the metered key (unipdf backend)
	UnidocLicenseKey string

	Logger *logger.Logger
}

// New creates a new converter instance
func New(cfg *Config) (*Converter, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	var backend Backend
	switch strings.ToLower(cfg.Backend) {
	case "", BackendPoppler:
		path := cfg.PdftoppmPath
		if path == "" {
			path = "pdftoppm"
		}
		backend = NewPoppler(path, log)

	case BackendUniPDF:
		b, err := NewUniPDF(cfg.UnidocLicenseKey, log)
		if err != nil {
			return nil, err
		}
		backend = b

	default:
		return nil, fmt.Errorf("unsupported rasterizer: %s (supported: %s, %s)", cfg.Backend, BackendPoppler, BackendUniPDF)
	}

	return NewWithBackend(backend, log), nil
}

// NewWithBackend creates a converter around an existing backend.
func NewWithBackend(backend Backend, log *logger.Logger) *Converter {
	if log == nil {
		log = logger.Get()
	}
	return &Converter{backend: backend, logger: log}
}

// Backend returns the name of the rendering backend.
func (c *Converter) Backend() string {
	return c.backend.Name()
}

// RenderPages rasterizes every page of pdfPath at dpi and returns PNG bytes in
// page order.
func (c *Converter) RenderPages(ctx context.Context, pdfPath string, dpi int) ([][]byte, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid dpi %d", dpi)
	}

	log := c.logger.WithSource(pdfPath).WithFields("dpi", dpi, "backend", c.Backend())
	startTime := time.Now()

	if err := c.Validate(pdfPath); err != nil {
		return nil, err
	}

	pageCount, err := c.PageCount(pdfPath)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	pages, err := c.backend.Render(ctx, pdfPath, dpi, pageCount)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	if len(pages) != pageCount {
		return nil, fmt.Errorf("rendered %d pages, expected %d", len(pages), pageCount)
	}

	log.WithFields("pages", pageCount, "duration", time.Since(startTime)).Info("Rendered PDF pages")
	return pages, nil
}

// PageCount returns the number of pages in a PDF file
func (c *Converter) PageCount(pdfPath string) (int, error) {
	ctx, err := api.ReadContextFile(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	return ctx.PageCount, nil
}

// Validate checks that a PDF is readable, in relaxed mode
func (c *Converter) Validate(pdfPath string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(pdfPath, conf); err != nil {
		return fmt.Errorf("PDF validation failed: %w", err)
	}
	return nil
}
