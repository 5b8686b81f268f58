package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var extractOutPath string

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract fields from one PDF or DOCX document",
	Long: `Extract the tracked fields from a single property-title document.

Examples:
  # Extract and print JSON to stdout
  titleparse extract acte.pdf

  # Write the result to a file
  titleparse extract acte.pdf --out result.json
`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutPath, "out", "o", "", "Write the JSON result to this path instead of stdout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.extractor.Extract(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("extract %s: %w", args[0], err)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	if extractOutPath != "" {
		return os.WriteFile(extractOutPath, append(encoded, '\n'), 0o644)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
