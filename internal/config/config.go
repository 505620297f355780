// Package config provides configuration management for the ocrpick application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/platinummonkey/ocrpick/internal/ocr"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Supported backend and format names.
const (
	EngineTesseract = "tesseract"
	EngineCLI       = "cli"

	RasterizerPoppler = "poppler"
	RasterizerUniPDF  = "unipdf"

	TextLayerPoppler = "poppler"
	TextLayerUniPDF  = "unipdf"
	TextLayerNone    = "none"

	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds all configuration settings for ocrpick.
// Configuration precedence: CLI flags > Environment variables > Config file > Defaults
type Config struct {
	// Languages is the recognition language spec passed to Tesseract (e.g. "eng+ara+urd")
	Languages string

	// DPI is the rendering resolution used when rasterizing PDF pages
	DPI int

	// Engine selects the OCR backend: "tesseract" (in-process) or "cli" (tesseract binary)
	Engine string

	// TesseractPath is the tesseract binary used by the cli engine
	TesseractPath string

	// TessdataPrefix points at the tessdata directory (empty = engine default)
	TessdataPrefix string

	// Rasterizer selects the PDF renderer: "poppler" (pdftoppm) or "unipdf"
	Rasterizer string

	// PdftoppmPath is the pdftoppm binary used by the poppler rasterizer
	PdftoppmPath string

	// TextLayer selects the embedded text reader: "poppler", "unipdf" or "none"
	TextLayer string

	// PdftotextPath is the pdftotext binary used by the poppler text-layer reader
	PdftotextPath string

	// UnidocLicenseKey is the metered API key for the unipdf backends
	UnidocLicenseKey string

	// Workers is the number of pages processed concurrently (1 = sequential)
	Workers int

	// MethodWorkers is the number of recognition configurations run concurrently per page
	MethodWorkers int

	// Output is the report path (empty = derived from the source path)
	Output string

	// Format is the report serialization: "json" or "yaml"
	Format string

	// LogLevel controls logging verbosity (debug, info, warn, error)
	LogLevel string

	// LogFormat is "console" or "json"
	LogFormat string

	// LogFile additionally appends log output to this file (empty = stderr only)
	LogFile string
}

// Load reads configuration from flags, environment, an optional config file and defaults.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigName(".ocrpick")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("OCRPICK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	config := &Config{
		Languages:        v.GetString("languages"),
		DPI:              v.GetInt("dpi"),
		Engine:           v.GetString("engine"),
		TesseractPath:    v.GetString("tesseract-path"),
		TessdataPrefix:   v.GetString("tessdata-prefix"),
		Rasterizer:       v.GetString("rasterizer"),
		PdftoppmPath:     v.GetString("pdftoppm-path"),
		TextLayer:        v.GetString("text-layer"),
		PdftotextPath:    v.GetString("pdftotext-path"),
		UnidocLicenseKey: v.GetString("unidoc-license-key"),
		Workers:          v.GetInt("workers"),
		MethodWorkers:    v.GetInt("method-workers"),
		Output:           v.GetString("output"),
		Format:           v.GetString("format"),
		LogLevel:         v.GetString("log-level"),
		LogFormat:        v.GetString("log-format"),
		LogFile:          v.GetString("log-file"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("languages", "eng")
	v.SetDefault("dpi", 300)
	v.SetDefault("engine", ocr.DefaultBackend())
	v.SetDefault("tesseract-path", "tesseract")
	v.SetDefault("tessdata-prefix", "")
	v.SetDefault("rasterizer", RasterizerPoppler)
	v.SetDefault("pdftoppm-path", "pdftoppm")
	v.SetDefault("text-layer", TextLayerPoppler)
	v.SetDefault("pdftotext-path", "pdftotext")
	v.SetDefault("unidoc-license-key", "")
	v.SetDefault("workers", 1)
	v.SetDefault("method-workers", 1)
	v.SetDefault("output", "")
	v.SetDefault("format", FormatJSON)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
	v.SetDefault("log-file", "")
}

// Validate checks that the configuration is valid and normalizes enum values
func (c *Config) Validate() error {
	c.Languages = strings.TrimSpace(c.Languages)
	if c.Languages == "" {
		return fmt.Errorf("languages cannot be empty")
	}

	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}

	var err error
	if c.Engine, err = oneOf("engine", c.Engine, EngineTesseract, EngineCLI); err != nil {
		return err
	}
	if c.Engine == EngineCLI && c.TesseractPath == "" {
		return fmt.Errorf("tesseract-path cannot be empty for the cli engine")
	}

	if c.Rasterizer, err = oneOf("rasterizer", c.Rasterizer, RasterizerPoppler, RasterizerUniPDF); err != nil {
		return err
	}
	if c.Rasterizer == RasterizerPoppler && c.PdftoppmPath == "" {
		return fmt.Errorf("pdftoppm-path cannot be empty for the poppler rasterizer")
	}

	if c.TextLayer, err = oneOf("text-layer", c.TextLayer, TextLayerPoppler, TextLayerUniPDF, TextLayerNone); err != nil {
		return err
	}
	if c.TextLayer == TextLayerPoppler && c.PdftotextPath == "" {
		return fmt.Errorf("pdftotext-path cannot be empty for the poppler text layer")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MethodWorkers < 1 {
		return fmt.Errorf("method-workers must be at least 1, got %d", c.MethodWorkers)
	}

	if c.Format, err = oneOf("format", c.Format, FormatJSON, FormatYAML); err != nil {
		return err
	}

	if c.LogLevel, err = oneOf("log-level", c.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if c.LogFormat, err = oneOf("log-format", c.LogFormat, "console", "json"); err != nil {
		return err
	}

	if strings.HasPrefix(c.Output, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to expand home directory in output: %w", err)
		}
		c.Output = filepath.Join(home, c.Output[2:])
	}

	return nil
}

func oneOf(key, value string, allowed ...string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if normalized == a {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q, must be one of: %s", key, value, strings.Join(allowed, ", "))
}

// String returns a string representation of the configuration (with sensitive data redacted)
func (c *Config) String() string {
	licenseKey := "not set"
	if c.UnidocLicenseKey != "" {
		if len(c.UnidocLicenseKey) > 8 {
			licenseKey = "***" + c.UnidocLicenseKey[len(c.UnidocLicenseKey)-4:]
		} else {
			licenseKey = "***"
		}
	}

	return fmt.Sprintf(`Configuration:
  Languages: %s
  DPI: %d
  Engine: %s
  TesseractPath: %s
  TessdataPrefix: %s
  Rasterizer: %s
  PdftoppmPath: %s
  TextLayer: %s
  PdftotextPath: %s
  UnidocLicenseKey: %s
  Workers: %d
  MethodWorkers: %d
  Output: %s
  Format: %s
  LogLevel: %s
  LogFormat: %s
  LogFile: %s`,
		c.Languages,
		c.DPI,
		c.Engine,
		c.TesseractPath,
		c.TessdataPrefix,
		c.Rasterizer,
		c.PdftoppmPath,
		c.TextLayer,
		c.PdftotextPath,
		licenseKey,
		c.Workers,
		c.MethodWorkers,
		c.Output,
		c.Format,
		c.LogLevel,
		c.LogFormat,
		c.LogFile,
	)
}
