//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/platinummonkey/ocrpick/internal/logger"
)

const tesseractCompiled = true

// pageSegModeVariable is the tesseract parameter behind --psm.
const pageSegModeVariable = gosseract.SettableVariable("tessedit_pageseg_mode")

func newTesseract(opts *Options) (Engine, error) {
	return NewTesseract(opts), nil
}

// Tesseract is an in-process Engine backed by libtesseract via gosseract.
// Each call opens its own client, so a Tesseract is safe for concurrent use.
type Tesseract struct {
	logger         *logger.Logger
	tessdataPrefix string

	mu         sync.Mutex
	configDir  string
	oemConfigs map[EngineMode]string
}

// NewTesseract creates a gosseract-backed engine.
func NewTesseract(opts *Options) *Tesseract {
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}

	return &Tesseract{
		logger:         log,
		tessdataPrefix: opts.TessdataPrefix,
		oemConfigs:     make(map[EngineMode]string),
	}
}

// Name implements Engine.
func (t *Tesseract) Name() string { return BackendTesseract }

// Recognize implements Engine.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, languages string, params Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client, err := t.newClient(image, languages)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := setPageSegMode(client, params.PageSegMode); err != nil {
		return "", err
	}

	if params.Whitelist != "" {
		if err := client.SetWhitelist(params.Whitelist); err != nil {
			return "", fmt.Errorf("failed to set whitelist: %w", err)
		}
	}

	// OEM can only be chosen at init time, which gosseract exposes through a config file.
	if _, ok := params.EngineMode.tesseractValue(); ok {
		configPath, err := t.engineModeConfig(params.EngineMode)
		if err != nil {
			return "", err
		}
		if err := client.SetConfigFile(configPath); err != nil {
			return "", fmt.Errorf("failed to set engine mode config: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognition failed: %w", err)
	}

	return text, nil
}

// Tokens implements Engine.
func (t *Tesseract) Tokens(ctx context.Context, image []byte, languages string) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := t.newClient(image, languages)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := setPageSegMode(client, PSMDefault); err != nil {
		return nil, err
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get word boxes: %w", err)
	}

	tokens := make([]Token, 0, len(boxes))
	for _, box := range boxes {
		tokens = append(tokens, Token{
			Text:       box.Word,
			Confidence: int(math.Trunc(box.Confidence)),
		})
	}

	t.logger.WithFields("tokens", len(tokens)).Debug("Collected word confidences")
	return tokens, nil
}

// Close removes the generated engine-mode config files.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.configDir == "" {
		return nil
	}
	err := os.RemoveAll(t.configDir)
	t.configDir = ""
	t.oemConfigs = make(map[EngineMode]string)
	return err
}

func (t *Tesseract) newClient(image []byte, languages string) (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}

	if langs := splitLanguages(languages); len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR language: %w", err)
		}
	}

	if err := client.SetImageFromBytes(image); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	return client, nil
}

// setPageSegMode goes through SetVariable: gosseract re-applies variables
// after Init, while a mode set with SetPageSegMode on a fresh client is reset
// by it. PSMDefault uses the tesseract command line's default, PSMAuto.
func setPageSegMode(client *gosseract.Client, mode PageSegMode) error {
	if mode == PSMDefault {
		mode = PSMAuto
	}
	if err := client.SetVariable(pageSegModeVariable, strconv.Itoa(int(mode))); err != nil {
		return fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return nil
}

// engineModeConfig returns a tesseract config file selecting mode, writing it on first use.
func (t *Tesseract) engineModeConfig(mode EngineMode) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if path, ok := t.oemConfigs[mode]; ok {
		return path, nil
	}

	if t.configDir == "" {
		dir, err := os.MkdirTemp("", "ocrpick-tessconfig-*")
		if err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		t.configDir = dir
	}

	oem, _ := mode.tesseractValue()
	path := filepath.Join(t.configDir, fmt.Sprintf("oem%d", oem))
	content := fmt.Sprintf("tessedit_ocr_engine_mode %d\n", oem)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write engine mode config: %w", err)
	}

	t.oemConfigs[mode] = path
	return path, nil
}
