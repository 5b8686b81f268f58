package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "titleparse",
	Short: "Titleparse - adaptive field extraction for French property-title records",
	Long: `Titleparse extracts the key fields of French property-title records
(date of act, notary, parties, lots, price, publication references, ...)
from PDF and DOCX documents.

Scanned documents fall back to OCR. Operator corrections are recorded in
a local learning store and feed back into candidate ranking, confidence
scoring and automatic correction of repeated mistakes.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(normalizeCmd)
}
