// Package report defines the document report and its persistence.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/ocrpick/internal/ensemble"
	"gopkg.in/yaml.v3"
)

// Serialization formats accepted by Encode and Write.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DocumentInfo describes the source and the run that produced a report.
type DocumentInfo struct {
	RunID        string    `json:"run_id" yaml:"run_id"`
	SourceFile   string    `json:"source_file" yaml:"source_file"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	Engine       string    `json:"engine" yaml:"engine"`
	OCRLanguages string    `json:"ocr_languages" yaml:"ocr_languages"`

	// PDF sources only
	TotalPages int `json:"total_pages,omitempty" yaml:"total_pages,omitempty"`
	DPI        int `json:"dpi,omitempty" yaml:"dpi,omitempty"`

	// Image sources only, as [width, height]
	ImageSize []int `json:"image_size,omitempty" yaml:"image_size,omitempty,flow"`
}

// NewDocumentInfo stamps a new run for source.
func NewDocumentInfo(source, engine, languages string) DocumentInfo {
	return DocumentInfo{
		RunID:        uuid.NewString(),
		SourceFile:   source,
		Timestamp:    time.Now(),
		Engine:       engine,
		OCRLanguages: languages,
	}
}

// PageRecord is one PDF page: its embedded text and its OCR analysis.
type PageRecord struct {
	PageNumber      int                   `json:"page_number" yaml:"page_number"`
	OriginalPDFText string                `json:"original_pdf_text" yaml:"original_pdf_text"`
	OCRAnalysis     ensemble.PageAnalysis `json:"ocr_analysis" yaml:"ocr_analysis"`
}

// Report is the result of processing one source file. A PDF report carries
// Pages; an image report carries OCRAnalysis.
type Report struct {
	DocumentInfo DocumentInfo           `json:"document_info" yaml:"document_info"`
	Pages        []PageRecord           `json:"pages,omitempty" yaml:"pages,omitempty"`
	OCRAnalysis  *ensemble.PageAnalysis `json:"ocr_analysis,omitempty" yaml:"ocr_analysis,omitempty"`
}

// NewPDFReport builds the report for a multi-page source.
func NewPDFReport(info DocumentInfo, dpi int, pages []PageRecord) *Report {
	info.TotalPages = len(pages)
	info.DPI = dpi
	return &Report{DocumentInfo: info, Pages: pages}
}

// NewImageReport builds the report for a single image source.
func NewImageReport(info DocumentInfo, width, height int, analysis ensemble.PageAnalysis) *Report {
	info.ImageSize = []int{width, height}
	return &Report{DocumentInfo: info, OCRAnalysis: &analysis}
}

// IsImage reports whether the report describes a single image.
func (r *Report) IsImage() bool {
	return r.OCRAnalysis != nil
}

// Encode serializes the report. JSON is indented and keeps non-ASCII text as is.
func (r *Report) Encode(format string) ([]byte, error) {
	var buf bytes.Buffer

	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}

	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}

	return buf.Bytes(), nil
}

// Write saves the report to path atomically
func (r *Report) Write(path, format string) error {
	data, err := r.Encode(format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	// Write atomically: write to temp file, then rename
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp report file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp report file: %w", err)
	}

	return nil
}

// DefaultOutputPath places ocrresult_<YYYYMMDD_HHMMSS>.<format> next to source.
func DefaultOutputPath(source, format string, now time.Time) string {
	if format == "" {
		format = FormatJSON
	}
	name := fmt.Sprintf("ocrresult_%s.%s", now.Format("20060102_150405"), strings.ToLower(format))
	return filepath.Join(filepath.Dir(source), name)
}
