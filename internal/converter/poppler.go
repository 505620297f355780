package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/logger"
)

const popplerPrefix = "page"

// Poppler renders pages with the pdftoppm binary.
type Poppler struct {
	path   string
	logger *logger.Logger
}

// NewPoppler creates a backend that runs the pdftoppm binary at path.
func NewPoppler(path string, log *logger.Logger) *Poppler {
	if log == nil {
		log = logger.Get()
	}
	return &Poppler{path: path, logger: log}
}

// Name implements Backend.
func (p *Poppler) Name() string { return BackendPoppler }

// Render implements Backend.
func (p *Poppler) Render(ctx context.Context, pdfPath string, dpi, pageCount int) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "ocrpick-pages-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	args := []string{"-r", strconv.Itoa(dpi), "-png", pdfPath, filepath.Join(tmpDir, popplerPrefix)}
	cmd := exec.CommandContext(ctx, p.path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.WithFields("binary", p.path, "args", strings.Join(args, " ")).Debug("Running pdftoppm")

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	files, err := popplerOutputs(tmpDir)
	if err != nil {
		return nil, err
	}
	if len(files) != pageCount {
		return nil, fmt.Errorf("pdftoppm produced %d images for %d pages", len(files), pageCount)
	}

	pages := make([][]byte, len(files))
	for i, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read page image: %w", err)
		}
		pages[i] = data
	}
	return pages, nil
}

// popplerOutputs lists page-N.png files in dir, ordered by N. pdftoppm pads N
// to the width of the page count, so lexical order is not enough.
func popplerOutputs(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, popplerPrefix+"-*.png"))
	if err != nil {
		return nil, fmt.Errorf("failed to list page images: %w", err)
	}

	type numbered struct {
		n    int
		path string
	}
	out := make([]numbered, 0, len(matches))
	for _, m := range matches {
		n, ok := popplerPageNumber(filepath.Base(m))
		if !ok {
			continue
		}
		out = append(out, numbered{n: n, path: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].n < out[j].n })

	paths := make([]string, len(out))
	for i, o := range out {
		paths[i] = o.path
	}
	return paths, nil
}

func popplerPageNumber(name string) (int, bool) {
	s := strings.TrimPrefix(name, popplerPrefix+"-")
	s = strings.TrimSuffix(s, ".png")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
