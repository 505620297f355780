// Package ocr is the boundary to the Tesseract recognition engine.
//
// Two backends implement Engine. Tesseract drives libtesseract in-process
// through gosseract and needs cgo plus the "tesseract" build tag. CLI shells
// out to the tesseract binary and builds everywhere. Both take their binary
// and tessdata locations from explicit options rather than from the process
// environment.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/logger"
)

// ConfidenceUnknown is the confidence Tesseract reports for tokens it did not score.
const ConfidenceUnknown = -1

// PageSegMode is a Tesseract page segmentation mode (--psm).
type PageSegMode int

// Page segmentation modes used by the recognition menu. PSMDefault leaves the
// engine's own default in place.
const (
	PSMDefault     PageSegMode = 0
	PSMAuto        PageSegMode = 3
	PSMSingleBlock PageSegMode = 6
	PSMSingleLine  PageSegMode = 7
	PSMSparseText  PageSegMode = 11
)

// EngineMode is a Tesseract OCR engine mode (--oem).
type EngineMode int

const (
	OEMDefault EngineMode = iota
	OEMLegacy
	OEMLSTM
	OEMCombined
)

// tesseractValue maps the mode to Tesseract's numeric --oem value.
func (m EngineMode) tesseractValue() (int, bool) {
	switch m {
	case OEMLegacy:
		return 0, true
	case OEMLSTM:
		return 1, true
	case OEMCombined:
		return 2, true
	default:
		return 0, false
	}
}

// Params configures a single recognition call.
type Params struct {
	PageSegMode PageSegMode
	EngineMode  EngineMode
	// Whitelist restricts output to these characters (empty = no restriction)
	Whitelist string
}

// Args renders the params as tesseract command-line options.
func (p Params) Args() []string {
	var args []string
	if oem, ok := p.EngineMode.tesseractValue(); ok {
		args = append(args, "--oem", strconv.Itoa(oem))
	}
	if p.PageSegMode != PSMDefault {
		args = append(args, "--psm", strconv.Itoa(int(p.PageSegMode)))
	}
	if p.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+p.Whitelist)
	}
	return args
}

// String returns the params in tesseract command-line form, or "defaults".
func (p Params) String() string {
	args := p.Args()
	if len(args) == 0 {
		return "defaults"
	}
	return strings.Join(args, " ")
}

// Token is one recognized word with its engine confidence (0-100 or ConfidenceUnknown).
type Token struct {
	Text       string
	Confidence int
}

// Engine runs text recognition over an encoded page image (PNG, JPEG, TIFF, BMP).
type Engine interface {
	// Name identifies the backend in logs and reports
	Name() string

	// Recognize returns the plain text recognized under params
	Recognize(ctx context.Context, image []byte, languages string, params Params) (string, error)

	// Tokens returns word-level text and confidence pairs using engine defaults
	Tokens(ctx context.Context, image []byte, languages string) ([]Token, error)
}

// Backend names accepted by NewEngine.
const (
	BackendTesseract = "tesseract"
	BackendCLI       = "cli"
)

// ErrTesseractNotCompiled is returned for the tesseract backend in builds
// without the "tesseract" tag. The cli backend is always available.
var ErrTesseractNotCompiled = errors.New("tesseract engine not compiled in; rebuild with -tags tesseract or use the cli engine")

// DefaultBackend returns the in-process backend when it is compiled in and
// the cli backend otherwise.
func DefaultBackend() string {
	if tesseractCompiled {
		return BackendTesseract
	}
	return BackendCLI
}

// Options configures an engine backend.
type Options struct {
	// TesseractPath is the tesseract binary (cli backend only)
	TesseractPath string

	// TessdataPrefix is the tessdata directory (empty = engine default)
	TessdataPrefix string

	Logger *logger.Logger
}

// NewEngine creates an engine for the named backend.
func NewEngine(backend string, opts *Options) (Engine, error) {
	if opts == nil {
		opts = &Options{}
	}

	switch strings.ToLower(backend) {
	case BackendTesseract:
		return newTesseract(opts)

	case BackendCLI:
		if opts.TesseractPath == "" {
			return nil, fmt.Errorf("tesseract path is required for the cli backend")
		}
		return NewCLI(opts), nil

	default:
		return nil, fmt.Errorf("unsupported engine: %s (supported: %s, %s)", backend, BackendTesseract, BackendCLI)
	}
}

// splitLanguages turns "eng+ara" into ["eng", "ara"].
func splitLanguages(languages string) []string {
	var out []string
	for _, lang := range strings.Split(languages, "+") {
		if lang = strings.TrimSpace(lang); lang != "" {
			out = append(out, lang)
		}
	}
	return out
}
