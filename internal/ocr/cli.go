package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/logger"
)

// CLI is an Engine that runs the tesseract binary once per call.
type CLI struct {
	logger         *logger.Logger
	path           string
	tessdataPrefix string
}

// NewCLI creates an engine that shells out to opts.TesseractPath.
func NewCLI(opts *Options) *CLI {
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}

	return &CLI{
		logger:         log,
		path:           opts.TesseractPath,
		tessdataPrefix: opts.TessdataPrefix,
	}
}

// Name implements Engine.
func (c *CLI) Name() string { return BackendCLI }

// Recognize implements Engine.
func (c *CLI) Recognize(ctx context.Context, image []byte, languages string, params Params) (string, error) {
	out, err := c.run(ctx, image, languages, params.Args())
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Tokens implements Engine.
func (c *CLI) Tokens(ctx context.Context, image []byte, languages string) ([]Token, error) {
	out, err := c.run(ctx, image, languages, []string{"tsv"})
	if err != nil {
		return nil, err
	}

	tokens, err := ParseTSV(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to parse tesseract tsv: %w", err)
	}
	return tokens, nil
}

// run invokes: tesseract <image> stdout -l <languages> <extra...>
func (c *CLI) run(ctx context.Context, image []byte, languages string, extra []string) ([]byte, error) {
	tmpFile, err := os.CreateTemp("", "ocrpick-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(image); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp image: %w", err)
	}

	args := []string{tmpPath, "stdout"}
	if languages != "" {
		args = append(args, "-l", languages)
	}
	args = append(args, extra...)

	cmd := exec.CommandContext(ctx, c.path, args...)
	if c.tessdataPrefix != "" {
		cmd.Env = append(os.Environ(), "TESSDATA_PREFIX="+c.tessdataPrefix)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.WithFields("binary", c.path, "args", strings.Join(args[1:], " ")).Debug("Running tesseract")

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("tesseract failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("tesseract failed: %w", err)
	}

	return stdout.Bytes(), nil
}
