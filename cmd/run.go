package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runStreaming       bool
	runDeleteArtifacts bool
	runBatchSize       int
	runHeadful         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full download + analyze pipeline",
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

		sum, err := env.Pipeline.Run(ctx, items)
		fmt.Println(sum.String())
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.Int("downloaded", sum.Download.Succeeded),
			zap.Int("analyzed", sum.Analyze.Succeeded),
			zap.Int("partial", sum.Partial))
		return nil
	},
}

// applyRunFlags folds command-line overrides into the loaded config.
func applyRunFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("streaming") {
		cfg.Pipeline.Streaming = runStreaming
	}
	if cmd.Flags().Changed("delete-artifacts") {
		cfg.Pipeline.DeleteArtifacts = runDeleteArtifacts
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Pipeline.BatchSize = runBatchSize
	}
	if cmd.Flags().Changed("headful") {
		cfg.Browser.Headless = !runHeadful
	}
}

func init() {
	runCmd.Flags().BoolVar(&runStreaming, "streaming", false, "escalate the retry budget for large unattended batches")
	runCmd.Flags().BoolVar(&runDeleteArtifacts, "delete-artifacts", false, "delete downloaded videos after successful analysis")
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 0, "process at most N items (0 = all)")
	runCmd.Flags().BoolVar(&runHeadful, "headful", false, "run Chrome with a visible window")
	rootCmd.AddCommand(runCmd)
}
