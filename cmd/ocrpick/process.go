package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/platinummonkey/ocrpick/internal/config"
	"github.com/platinummonkey/ocrpick/internal/converter"
	"github.com/platinummonkey/ocrpick/internal/ensemble"
	"github.com/platinummonkey/ocrpick/internal/logger"
	"github.com/platinummonkey/ocrpick/internal/ocr"
	"github.com/platinummonkey/ocrpick/internal/pipeline"
	"github.com/platinummonkey/ocrpick/internal/report"
	"github.com/platinummonkey/ocrpick/internal/textlayer"
	"github.com/spf13/cobra"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Run ensemble OCR over a PDF or image",
	Long: `Run ensemble OCR over a PDF or a single raster image and write a report.

For a PDF, every page is rendered at --dpi, its embedded text layer is read,
and each page image goes through every recognition configuration. For an
image, the file itself is recognized.

The report is written to --output, or next to the source as
ocrresult_<YYYYMMDD_HHMMSS>.<format>.

Examples:
  # English and Arabic lease agreement
  ocrpick process "LEASE AGREEMENT.pdf" --languages eng+ara+urd

  # Use the tesseract binary instead of the linked library
  ocrpick process scan.png --engine cli --tesseract-path /usr/local/bin/tesseract

  # Four pages at a time, YAML report
  ocrpick process book.pdf --workers 4 --format yaml --output book.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	f := processCmd.Flags()
	f.StringP("languages", "l", "eng", "Tesseract language spec (e.g. eng+ara+urd)")
	f.Int("dpi", 300, "PDF rendering resolution")
	f.String("engine", ocr.DefaultBackend(), "OCR engine: tesseract (linked library, needs -tags tesseract) or cli (tesseract binary)")
	f.String("tesseract-path", "tesseract", "tesseract binary for the cli engine")
	f.String("tessdata-prefix", "", "tessdata directory (default: engine default)")
	f.String("rasterizer", config.RasterizerPoppler, "PDF renderer: poppler or unipdf")
	f.String("pdftoppm-path", "pdftoppm", "pdftoppm binary for the poppler rasterizer")
	f.String("text-layer", config.TextLayerPoppler, "embedded text reader: poppler, unipdf or none")
	f.String("pdftotext-path", "pdftotext", "pdftotext binary for the poppler text layer")
	f.String("unidoc-license-key", "", "unidoc metered API key for the unipdf backends")
	f.Int("workers", 1, "pages processed concurrently")
	f.Int("method-workers", 1, "recognition configurations run concurrently per page")
	f.StringP("output", "o", "", "report path (default: next to the source)")
	f.String("format", config.FormatJSON, "report format: json or yaml")
}

func runProcess(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: cfg.LogFile,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	log.WithFields("config", cfg.String()).Debug("Loaded configuration")

	p, closeEngine, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer closeEngine()

	output := cfg.Output
	if output == "" {
		output = report.DefaultOutputPath(source, cfg.Format, time.Now())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processing: %s\n", source)
	fmt.Fprintf(out, "Languages: %s\n", cfg.Languages)
	fmt.Fprintf(out, "Output: %s\n", output)
	fmt.Fprintln(out, strings.Repeat("-", 50))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := p.Process(ctx, source)
	if err != nil {
		return fmt.Errorf("processing %s failed: %w", source, err)
	}

	if err := rep.Write(output, cfg.Format); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprint(out, rep.Summary())
	fmt.Fprintf(out, "\nReport written to %s\n", output)
	return nil
}

// buildPipeline wires the engine, converter, text-layer reader and page
// processor selected by cfg. The returned func releases engine resources.
func buildPipeline(cfg *config.Config, log *logger.Logger) (*pipeline.Pipeline, func(), error) {
	engine, err := ocr.NewEngine(cfg.Engine, &ocr.Options{
		TesseractPath:  cfg.TesseractPath,
		TessdataPrefix: cfg.TessdataPrefix,
		Logger:         log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}

	closeEngine := func() {
		if c, ok := engine.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.WithError(err).Warn("Failed to release OCR engine")
			}
		}
	}

	conv, err := converter.New(&converter.Config{
		Backend:          cfg.Rasterizer,
		PdftoppmPath:     cfg.PdftoppmPath,
		UnidocLicenseKey: cfg.UnidocLicenseKey,
		Logger:           log,
	})
	if err != nil {
		closeEngine()
		return nil, nil, fmt.Errorf("failed to create rasterizer: %w", err)
	}

	textReader, err := textlayer.New(&textlayer.Config{
		Backend:          cfg.TextLayer,
		PdftotextPath:    cfg.PdftotextPath,
		UnidocLicenseKey: cfg.UnidocLicenseKey,
		Logger:           log,
	})
	if err != nil {
		closeEngine()
		return nil, nil, fmt.Errorf("failed to create text layer reader: %w", err)
	}

	processor, err := ensemble.NewPageProcessor(&ensemble.PageProcessorConfig{
		Engine:        engine,
		MethodWorkers: cfg.MethodWorkers,
		Logger:        log,
	})
	if err != nil {
		closeEngine()
		return nil, nil, fmt.Errorf("failed to create page processor: %w", err)
	}

	p, err := pipeline.New(&pipeline.Config{
		Rasterizer: conv,
		TextReader: textReader,
		Analyzer:   processor,
		EngineName: engine.Name(),
		Languages:  cfg.Languages,
		DPI:        cfg.DPI,
		Workers:    cfg.Workers,
		Logger:     log,
	})
	if err != nil {
		closeEngine()
		return nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	return p, closeEngine, nil
}
