package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run only the analyze phase over already-downloaded videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		applyRunFlags(cmd)

		items, err := loadItems(cfg)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		stats, partial, err := env.Pipeline.AnalyzePhase(ctx, items)
		fmt.Printf("analyze: %d ok (%d partial), %d failed, %d skipped\n",
			stats.Succeeded, partial, stats.Failed, stats.Skipped)
		if err != nil {
			return eris.Wrap(err, "analyze phase")
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&runStreaming, "streaming", false, "escalate the retry budget for large unattended batches")
	analyzeCmd.Flags().BoolVar(&runDeleteArtifacts, "delete-artifacts", false, "delete downloaded videos after successful analysis")
	analyzeCmd.Flags().IntVar(&runBatchSize, "batch-size", 0, "process at most N items (0 = all)")
	analyzeCmd.Flags().BoolVar(&runHeadful, "headful", false, "run Chrome with a visible window")
	rootCmd.AddCommand(analyzeCmd)
}
