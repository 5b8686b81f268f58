package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opennotary/titleparse/internal/export"
	"github.com/opennotary/titleparse/internal/learning"
)

var (
	suggestOutPath string
	suggestJSON    bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Report underperforming rules and repeated corrections",
	Long: `Derive an improvement report from the learning store: rules whose
validated accuracy fell below the floor, corrections repeated often
enough to deserve a rule fix, and fields with weak overall accuracy.

Examples:
  # Workbook for review
  titleparse suggest --out suggestions.xlsx

  # JSON to stdout
  titleparse suggest --json
`,
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestOutPath, "out", "o", "suggestions.xlsx", "Output XLSX path")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Print the report as JSON instead of writing XLSX")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if a.store == nil {
		return fmt.Errorf("learning store is disabled; nothing to report")
	}

	if suggestJSON {
		report, err := learning.BuildReport(cmd.Context(), a.store)
		if err != nil {
			return err
		}
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	}

	svc := export.NewService(a.store, a.logger)
	data, err := svc.ExportSuggestionsXLSX(cmd.Context())
	if err != nil {
		return err
	}
	if err := os.WriteFile(suggestOutPath, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", suggestOutPath, len(data))
	return nil
}
