package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ocrpick",
	Short: "Ensemble OCR for scanned PDFs and images",
	Long: `ocrpick extracts text from scanned documents by running Tesseract under
several recognition configurations and keeping the most plausible output
for every page.

Features:
  - PDF and raster image sources (JPG, PNG, BMP, TIFF)
  - Seven recognition configurations per page, scored and ranked
  - Word confidence statistics per page
  - Embedded PDF text kept alongside the OCR result
  - JSON or YAML reports`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ocrpick.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-file", "", "also append logs to this file")
}
