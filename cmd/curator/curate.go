package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracecart/curator/internal/pipeline"
	"github.com/tracecart/curator/internal/types"
)

var curateOutPath string

var curateCmd = &cobra.Command{
	Use:   "curate <sessions.json> [more.json...]",
	Short: "Curate recorded sessions into training examples",
	Long: `Process one or more session files through the full pipeline: selector
resolution, journey reconstruction, quality scoring, and gating.

Each file holds either a single recorded session object or an array of
them. With --out, exportable training examples are written as JSON
Lines.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		var sessions []*types.RecordedSession
		for _, path := range args {
			loaded, err := loadSessions(path)
			if err != nil {
				return err
			}
			sessions = append(sessions, loaded...)
		}

		results, err := rt.pipe.CurateMany(context.Background(), sessions)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n\n", cyan("=== Curation Results ==="))
		eligible := 0
		exportable := 0
		for _, result := range results {
			a := result.Assessment
			fmt.Printf("%s  %s  overall %.1f  (%d examples)\n",
				actionLabel(a.FinalAction), result.SessionID, a.OverallScore, len(result.Examples))
			for _, tr := range a.ThresholdResults {
				fmt.Printf("    %s\n", tr.Message)
			}
			for _, rec := range a.Recommendations {
				fmt.Printf("    %s %s\n", yellow("->"), rec)
			}
			if a.TrainingEligible {
				eligible++
				exportable += len(result.Examples)
			}
		}
		fmt.Printf("\n%d/%d sessions training-eligible, %d exportable examples\n",
			eligible, len(results), exportable)

		if curateOutPath != "" {
			n, err := writeExamples(curateOutPath, results)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d examples to %s\n", n, curateOutPath)
		}
		return nil
	},
}

func init() {
	curateCmd.Flags().StringVarP(&curateOutPath, "out", "o", "",
		"write exportable training examples to this JSONL file")
	rootCmd.AddCommand(curateCmd)
}

// loadSessions reads a file holding one session object or an array.
func loadSessions(path string) ([]*types.RecordedSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var many []*types.RecordedSession
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one types.RecordedSession
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("%s is not a session or session array: %w", path, err)
	}
	return []*types.RecordedSession{&one}, nil
}

// writeExamples appends exportable examples as JSON Lines. Examples from
// ineligible sessions are skipped; the Exportable flag is authoritative.
func writeExamples(path string, results []*pipeline.Result) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	written := 0
	for _, result := range results {
		for _, ex := range result.Examples {
			if !ex.Exportable {
				continue
			}
			if err := enc.Encode(ex); err != nil {
				return written, fmt.Errorf("failed to write example %s: %w", ex.ID, err)
			}
			written++
		}
	}
	return written, nil
}
