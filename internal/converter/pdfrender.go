package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/platinummonkey/ocrpick/internal/logger"
	"github.com/platinummonkey/ocrpick/internal/unidoc"
	unipdf "github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"
)

// UniPDF renders pages in-process with unipdf.
type UniPDF struct {
	licenseKey string
	logger     *logger.Logger
}

// NewUniPDF creates the unipdf backend. unipdf refuses to render without a
// license; the key is installed on the first Render.
func NewUniPDF(licenseKey string, log *logger.Logger) (*UniPDF, error) {
	if log == nil {
		log = logger.Get()
	}
	if err := unidoc.CheckKey(licenseKey); err != nil {
		return nil, err
	}
	return &UniPDF{licenseKey: licenseKey, logger: log}, nil
}

// Name implements Backend.
func (u *UniPDF) Name() string { return BackendUniPDF }

// Render implements Backend.
func (u *UniPDF) Render(ctx context.Context, pdfPath string, dpi, pageCount int) ([][]byte, error) {
	if err := unidoc.SetLicenseKey(u.licenseKey); err != nil {
		return nil, err
	}

	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pdfReader, err := unipdf.NewPdfReaderLazy(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages != pageCount {
		return nil, fmt.Errorf("unipdf sees %d pages, expected %d", numPages, pageCount)
	}

	pages := make([][]byte, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := u.renderPage(pdfReader, i, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i, err)
		}

		data, err := EncodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i, err)
		}
		pages[i-1] = data
		u.logger.WithFields("page", i, "total", numPages).Debug("Rendered page")
	}

	return pages, nil
}

func (u *UniPDF) renderPage(pdfReader *unipdf.PdfReader, pageNum, dpi int) (image.Image, error) {
	page, err := pdfReader.GetPage(pageNum)
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	mediaBox, err := page.GetMediaBox()
	if err != nil {
		return nil, fmt.Errorf("failed to get media box: %w", err)
	}

	// PDF points are 1/72 inch; height follows the aspect ratio.
	device := render.NewImageDevice()
	device.OutputWidth = pointsToPixels(mediaBox.Urx-mediaBox.Llx, dpi)

	img, err := device.Render(page)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	bounds := img.Bounds()
	u.logger.WithFields("page", pageNum, "width", bounds.Dx(), "height", bounds.Dy()).Debug("Rendered page to image")
	return img, nil
}

func pointsToPixels(points float64, dpi int) int {
	return int(points * float64(dpi) / 72.0)
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
