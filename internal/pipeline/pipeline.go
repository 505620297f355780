// Package pipeline runs the page ensemble over every page of a source file
// and assembles the document report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/platinummonkey/ocrpick/internal/converter"
	"github.com/platinummonkey/ocrpick/internal/ensemble"
	"github.com/platinummonkey/ocrpick/internal/logger"
	"github.com/platinummonkey/ocrpick/internal/report"
	"github.com/platinummonkey/ocrpick/internal/textlayer"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnsupportedFormat is returned for sources that are neither PDFs nor
	// supported raster images.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrDocumentInput is returned when the source cannot be opened, rendered
	// or decoded. No report is produced.
	ErrDocumentInput = errors.New("failed to read document")
)

// Rasterizer produces page images from a source file.
type Rasterizer interface {
	RenderPages(ctx context.Context, pdfPath string, dpi int) ([][]byte, error)
	LoadImage(path string) (*converter.Image, error)
}

// PageAnalyzer runs the recognition ensemble over one page image.
type PageAnalyzer interface {
	Process(ctx context.Context, image []byte, languages string) ensemble.PageAnalysis
}

// Pipeline processes one source file into a report.
type Pipeline struct {
	rasterizer Rasterizer
	textReader textlayer.Reader
	analyzer   PageAnalyzer
	engineName string
	languages  string
	dpi        int
	workers    int
	logger     *logger.Logger
}

// Config holds configuration for the pipeline
type Config struct {
	Rasterizer Rasterizer

	// TextReader defaults to textlayer.None
	TextReader textlayer.Reader

	Analyzer PageAnalyzer

	// EngineName is recorded in the report
	EngineName string

	// Languages is the engine language spec (default "eng")
	Languages string

	// DPI is the PDF rendering resolution (default 300)
	DPI int

	// Workers bounds how many pages are analyzed at once (default 1)
	Workers int

	Logger *logger.Logger
}

// New creates a new pipeline
func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Rasterizer == nil {
		return nil, fmt.Errorf("rasterizer is required")
	}
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("page analyzer is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	textReader := cfg.TextReader
	if textReader == nil {
		textReader = textlayer.None{}
	}

	languages := cfg.Languages
	if languages == "" {
		languages = "eng"
	}

	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = 300
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Pipeline{
		rasterizer: cfg.Rasterizer,
		textReader: textReader,
		analyzer:   cfg.Analyzer,
		engineName: cfg.EngineName,
		languages:  languages,
		dpi:        dpi,
		workers:    workers,
		logger:     log,
	}, nil
}

// SupportedFormats lists the accepted source formats for messages.
func SupportedFormats() string {
	formats := []string{strings.ToUpper(strings.TrimPrefix(converter.PDFExtension, "."))}
	for _, ext := range converter.ImageExtensions {
		formats = append(formats, strings.ToUpper(strings.TrimPrefix(ext, ".")))
	}
	return strings.Join(formats, ", ")
}

// Process dispatches on the file extension.
func (p *Pipeline) Process(ctx context.Context, path string) (*report.Report, error) {
	switch {
	case converter.IsPDF(path):
		return p.ProcessDocument(ctx, path)
	case converter.IsImage(path):
		return p.ProcessImage(ctx, path)
	default:
		return nil, fmt.Errorf("%w %q (supported formats: %s)", ErrUnsupportedFormat, filepath.Ext(path), SupportedFormats())
	}
}

// ProcessDocument renders every page of a PDF and analyzes each one. Pages
// keep their order regardless of Workers.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) (*report.Report, error) {
	log := p.logger.WithSource(path).WithOperation("process_document")
	log.WithFields("dpi", p.dpi, "languages", p.languages, "workers", p.workers).Info("Processing PDF")
	startTime := time.Now()

	info := report.NewDocumentInfo(path, p.engineName, p.languages)

	images, texts, err := p.loadPages(ctx, path, log)
	if err != nil {
		return nil, err
	}
	log.WithFields("pages", len(images)).Info("Converted PDF to images")

	records := make([]report.PageRecord, len(images))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			analysis := p.analyzer.Process(ctx, img, p.languages)
			records[i] = report.PageRecord{
				PageNumber:      i + 1,
				OriginalPDFText: texts[i],
				OCRAnalysis:     analysis,
			}
			p.logProgress(log.WithPage(i+1), len(images), analysis)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing interrupted: %w", err)
	}

	log.WithFields("pages", len(records), "duration", time.Since(startTime)).Info("PDF processing complete")
	return report.NewPDFReport(info, p.dpi, records), nil
}

// loadPages renders the pages and reads the text layer side by side. Only a
// rendering failure is fatal; a failed text layer becomes empty strings.
func (p *Pipeline) loadPages(ctx context.Context, path string, log *logger.Logger) ([][]byte, []string, error) {
	var (
		images    [][]byte
		renderErr error
		texts     []string
		textErr   error
		g         errgroup.Group
	)

	g.Go(func() error {
		images, renderErr = p.rasterizer.RenderPages(ctx, path, p.dpi)
		return nil
	})
	g.Go(func() error {
		texts, textErr = p.textReader.PageTexts(ctx, path)
		return nil
	})
	_ = g.Wait()

	if renderErr != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDocumentInput, renderErr)
	}

	if textErr != nil {
		log.WithError(textErr).WithFields("reader", p.textReader.Name()).Warn("Could not extract PDF text, continuing without it")
		texts = nil
	}

	return images, alignTexts(texts, len(images)), nil
}

// alignTexts returns exactly n entries, padding missing pages with "".
func alignTexts(texts []string, n int) []string {
	out := make([]string, n)
	copy(out, texts)
	return out
}

// ProcessImage analyzes a single raster image.
func (p *Pipeline) ProcessImage(ctx context.Context, path string) (*report.Report, error) {
	log := p.logger.WithSource(path).WithOperation("process_image")
	startTime := time.Now()

	info := report.NewDocumentInfo(path, p.engineName, p.languages)

	img, err := p.rasterizer.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentInput, err)
	}
	log.WithFields("width", img.Width, "height", img.Height, "format", img.Format).Info("Loaded image")

	analysis := p.analyzer.Process(ctx, img.Data, p.languages)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("processing interrupted: %w", err)
	}
	p.logProgress(log.WithPage(1), 1, analysis)

	log.WithFields("duration", time.Since(startTime)).Info("Image processing complete")
	return report.NewImageReport(info, img.Width, img.Height, analysis), nil
}

func (p *Pipeline) logProgress(log *logger.Logger, total int, a ensemble.PageAnalysis) {
	log.WithFields(
		"total", total,
		"best_method", a.Best.Method,
		"text_length", len([]rune(a.Best.Text)),
		"successful_methods", fmt.Sprintf("%d/%d", a.SuccessfulMethods, a.TotalMethods),
	).Info("Processed page")
}
