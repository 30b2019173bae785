package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	runsCollection string
	runsLimit      int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded crawl runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runsCollection != "" {
			if _, err := cfg.Collection(runsCollection); err != nil {
				return err
			}
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		runs, err := l.ListRuns(runsCollection, runsLimit)
		if err != nil {
			return err
		}

		printRunsTable(runs)
		return nil
	},
}

var failuresCmd = &cobra.Command{
	Use:   "failures <run-id>",
	Short: "List the items a run failed to extract.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run ID: %w", err)
		}

		l, err := openLedger()
		if err != nil {
			return err
		}
		defer l.Close()

		if _, err := l.GetRun(runID); err != nil {
			return err
		}

		failures, err := l.ListFailures(runID)
		if err != nil {
			return err
		}

		printFailuresTable(failures)
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsCollection, "collection", "", "only show runs of this collection")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to show, 0 for all")
	runsCmd.AddCommand(failuresCmd)
	rootCmd.AddCommand(runsCmd)
}
