package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Run only the download phase",
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

		stats, err := env.Pipeline.DownloadPhase(ctx, items)
		fmt.Printf("download: %d ok, %d failed, %d skipped\n",
			stats.Succeeded, stats.Failed, stats.Skipped)
		if err != nil {
			return eris.Wrap(err, "download phase")
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().IntVar(&runBatchSize, "batch-size", 0, "process at most N items (0 = all)")
	downloadCmd.Flags().BoolVar(&runHeadful, "headful", false, "run Chrome with a visible window")
	rootCmd.AddCommand(downloadCmd)
}
