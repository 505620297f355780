package textlayer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/logger"
)

// Poppler reads text with the pdftotext binary.
type Poppler struct {
	path   string
	logger *logger.Logger
}

// NewPoppler creates a reader that runs the pdftotext binary at path.
func NewPoppler(path string, log *logger.Logger) *Poppler {
	if log == nil {
		log = logger.Get()
	}
	return &Poppler{path: path, logger: log}
}

// Name implements Reader.
func (p *Poppler) Name() string { return BackendPoppler }

// PageTexts implements Reader.
func (p *Poppler) PageTexts(ctx context.Context, pdfPath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, p.path, "-enc", "UTF-8", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.WithFields("binary", p.path, "pdf", pdfPath).Debug("Running pdftotext")

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pdftotext failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	return splitPages(stdout.String()), nil
}

// splitPages splits pdftotext output on form feeds. Every page, including
// the last, is terminated by one.
func splitPages(out string) []string {
	if out == "" {
		return nil
	}

	parts := strings.Split(out, "\f")
	if strings.HasSuffix(out, "\f") {
		parts = parts[:len(parts)-1]
	}

	pages := make([]string, len(parts))
	for i, part := range parts {
		pages[i] = strings.TrimSpace(part)
	}
	return pages
}
