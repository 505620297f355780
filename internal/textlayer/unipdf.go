package textlayer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/logger"
	"github.com/platinummonkey/ocrpick/internal/unidoc"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// UniPDF reads text in-process with the unipdf extractor.
type UniPDF struct {
	licenseKey string
	logger     *logger.Logger
}

// NewUniPDF creates the unipdf reader. The license key is installed on the
// first PageTexts call.
func NewUniPDF(licenseKey string, log *logger.Logger) (*UniPDF, error) {
	if log == nil {
		log = logger.Get()
	}
	if err := unidoc.CheckKey(licenseKey); err != nil {
		return nil, err
	}
	return &UniPDF{licenseKey: licenseKey, logger: log}, nil
}

// Name implements Reader.
func (u *UniPDF) Name() string { return BackendUniPDF }

// PageTexts implements Reader.
func (u *UniPDF) PageTexts(ctx context.Context, pdfPath string) ([]string, error) {
	if err := unidoc.SetLicenseKey(u.licenseKey); err != nil {
		return nil, err
	}

	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReaderLazy(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	pages := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to get page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor for page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages[i-1] = strings.TrimSpace(text)
	}

	u.logger.WithFields("pdf", pdfPath, "pages", numPages).Debug("Extracted text layer")
	return pages, nil
}
