package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/platinummonkey/ocrpick/internal/ensemble"
	"github.com/platinummonkey/ocrpick/internal/pipeline"
	"github.com/spf13/cobra"
)

// methodsCmd represents the methods command
var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the recognition configurations",
	Long: `List the recognition configurations run against every page, in the
order used to break score ties, together with the supported source formats.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "METHOD\tTESSERACT OPTIONS\tDESCRIPTION")
		for _, entry := range ensemble.DefaultMenu() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Method, entry.Params, entry.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nSupported formats: %s\n", pipeline.SupportedFormats())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(methodsCmd)
}
