package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the analysis cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts and hit statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		stats, err := rt.cache.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n\n", cyan("=== Analysis Cache ==="))
		fmt.Printf("  Entries:  %d total (%d active, %d expired)\n",
			stats.TotalEntries, stats.ActiveEntries, stats.ExpiredEntries)
		fmt.Printf("  Hits:     %d (ratio %.2f)\n", stats.TotalHits, stats.HitRatio)
		if len(stats.TopKeys) > 0 {
			fmt.Printf("\n  Top keys:\n")
			for _, key := range stats.TopKeys {
				fmt.Printf("    %5d  %s/%s\n", key.HitCount, key.SubjectKey, key.AnalysisType)
			}
		}
		fmt.Println()
		return nil
	},
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Delete all expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		n, err := rt.cache.EvictExpired(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("evicted %d expired entries\n", n)
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <subject-key> [analysis-type]",
	Short: "Invalidate cached analyses for a subject",
	Long: `Delete cached analyses for a subject key. With an analysis type only
that entry is removed; without one every analysis for the subject goes.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		analysisType := ""
		if len(args) == 2 {
			analysisType = args[1]
		}
		if err := rt.cache.Invalidate(context.Background(), args[0], analysisType); err != nil {
			return err
		}
		fmt.Printf("invalidated %s\n", args[0])
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheEvictCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
