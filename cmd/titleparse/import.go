package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opennotary/titleparse/internal/learning"
)

var importCmd = &cobra.Command{
	Use:   "import <outcomes.jsonl>",
	Short: "Import validation outcomes from a JSONL file",
	Long: `Append validation outcomes exported from another workstation. Each
line is one JSON outcome; invalid lines are rejected and counted, a
store failure aborts the import.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if a.store == nil {
		return fmt.Errorf("learning store is disabled; cannot import outcomes")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	stats, err := learning.ImportJSONL(cmd.Context(), a.store, f, a.logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d outcomes, rejected %d\n", stats.Imported, stats.Rejected)
	return nil
}
