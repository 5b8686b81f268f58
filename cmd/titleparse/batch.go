package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var (
	batchWorkers int
	batchOutPath string
)

var batchCmd = &cobra.Command{
	Use:   "batch <directory>",
	Short: "Extract fields from every supported document under a directory",
	Long: `Walk a directory tree and extract every PDF and DOCX document found,
writing one JSON result per line.

Examples:
  # Four parallel workers, results to stdout
  titleparse batch ./actes --workers 4

  # Results to a JSONL file
  titleparse batch ./actes --out results.jsonl
`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 2, "Number of parallel extraction workers")
	batchCmd.Flags().StringVarP(&batchOutPath, "out", "o", "", "Write JSONL results to this path instead of stdout")
}

func runBatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	results, stats, err := a.extractor.ExtractDirectory(cmd.Context(), args[0], batchWorkers)
	if err != nil {
		return fmt.Errorf("batch %s: %w", args[0], err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if batchOutPath != "" {
		f, err := os.Create(batchOutPath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "batch done: %d matched, %d succeeded, %d failed\n",
		stats.Matched, stats.Succeeded, stats.Failed)
	return nil
}
