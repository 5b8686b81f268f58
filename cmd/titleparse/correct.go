package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	correctRunID     string
	correctField     string
	correctRuleID    string
	correctExtracted string
	correctValue     string
	correctContext   string
	correctConfirm   bool
)

var correctCmd = &cobra.Command{
	Use:   "correct",
	Short: "Record an operator validation of one extracted field",
	Long: `Record one validation outcome in the learning store. Either confirm
the extracted value or supply the corrected one.

Examples:
  # The extraction was right
  titleparse correct --run-id <id> --field date_acte --rule date.lettered \
    --extracted 1987-03-19 --confirm

  # The extraction was wrong
  titleparse correct --run-id <id> --field prix.montant --rule prix.moyennant \
    --extracted "45 000" --corrected "450000"
`,
	RunE: runCorrect,
}

func init() {
	correctCmd.Flags().StringVar(&correctRunID, "run-id", "", "Run identifier from the extraction result")
	correctCmd.Flags().StringVar(&correctField, "field", "", "Field path, e.g. prix.montant")
	correctCmd.Flags().StringVar(&correctRuleID, "rule", "", "Rule identifier from the extraction result")
	correctCmd.Flags().StringVar(&correctExtracted, "extracted", "", "Value the pipeline extracted")
	correctCmd.Flags().StringVar(&correctValue, "corrected", "", "Correct value (omit with --confirm)")
	correctCmd.Flags().StringVar(&correctContext, "context", "", "Optional source snippet for the report")
	correctCmd.Flags().BoolVar(&correctConfirm, "confirm", false, "Confirm the extracted value as correct")
	_ = correctCmd.MarkFlagRequired("field")
	_ = correctCmd.MarkFlagRequired("rule")
	_ = correctCmd.MarkFlagRequired("extracted")
}

func runCorrect(cmd *cobra.Command, args []string) error {
	if !correctConfirm && correctValue == "" {
		return fmt.Errorf("either --confirm or --corrected is required")
	}
	if correctConfirm && correctValue != "" {
		return fmt.Errorf("--confirm and --corrected are mutually exclusive")
	}

	runID := uuid.Nil
	if correctRunID != "" {
		parsed, err := uuid.Parse(correctRunID)
		if err != nil {
			return fmt.Errorf("invalid --run-id: %w", err)
		}
		runID = parsed
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var corrected *string
	if !correctConfirm {
		corrected = &correctValue
	}
	if err := a.extractor.SubmitCorrection(cmd.Context(), runID,
		correctField, correctRuleID, correctExtracted, corrected, correctContext); err != nil {
		return err
	}
	if correctConfirm {
		fmt.Fprintf(cmd.OutOrStdout(), "confirmed %s\n", correctField)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "corrected %s: %q -> %q\n", correctField, correctExtracted, correctValue)
	}
	return nil
}
