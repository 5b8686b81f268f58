package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opennotary/titleparse/internal/entity"
	"github.com/opennotary/titleparse/internal/learning"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print learning-store counters and per-rule statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if a.store == nil {
		return fmt.Errorf("learning store is disabled")
	}

	counters, err := a.store.Counters(cmd.Context())
	if err != nil {
		return err
	}
	rules, err := a.store.RuleStats(cmd.Context())
	if err != nil {
		return err
	}
	corrections, err := a.store.Corrections(cmd.Context())
	if err != nil {
		return err
	}

	out := struct {
		Counters    learning.Counters          `json:"counters"`
		Rules       []entity.RuleStatistic     `json:"rules"`
		Corrections []entity.CorrectionMapping `json:"corrections"`
	}{counters, rules, corrections}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
