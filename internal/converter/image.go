package converter

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ImageExtensions lists the raster formats accepted as single-page sources.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif"}

// PDFExtension is the only multi-page source format.
const PDFExtension = ".pdf"

// IsImage reports whether path has a supported raster image extension.
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == PDFExtension
}

// Image is a raster source loaded from disk.
type Image struct {
	Path   string
	Data   []byte
	Format string
	Width  int
	Height int
}

// LoadImage reads a raster image and decodes its header. The bytes are kept
// as-is for the engine.
func (c *Converter) LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.logger.WithSource(path).WithFields("format", format, "width", cfg.Width, "height", cfg.Height).Debug("Loaded image")

	return &Image{
		Path:   path,
		Data:   data,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
