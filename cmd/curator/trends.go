package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var trendsSince time.Duration

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show aggregate quality metrics from the trend log",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		since := time.Time{}
		if trendsSince > 0 {
			since = time.Now().Add(-trendsSince)
		}
		metrics, err := rt.gate.Metrics(context.Background(), since, time.Time{})
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n\n", cyan("=== Quality Trends ==="))
		if metrics.Sessions == 0 {
			fmt.Println("  no assessments in window")
			return nil
		}

		fmt.Printf("  Sessions:       %d\n", metrics.Sessions)
		fmt.Printf("  Avg overall:    %.1f\n", metrics.AverageOverall)
		fmt.Printf("  Eligible ratio: %.0f%%\n", metrics.EligibleRatio*100)
		fmt.Printf("\n  Verdicts:\n")
		for action, count := range metrics.ActionCounts {
			fmt.Printf("    %s: %d\n", actionLabel(action), count)
		}
		if len(metrics.CategoryAverages) > 0 {
			fmt.Printf("\n  Category averages:\n")
			for category, avg := range metrics.CategoryAverages {
				fmt.Printf("    %-20s %.1f\n", category, avg)
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	trendsCmd.Flags().DurationVar(&trendsSince, "since", 0,
		"only include assessments newer than this (e.g. 24h, 0 = all)")
	rootCmd.AddCommand(trendsCmd)
}
