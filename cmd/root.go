package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvoice/creative-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "creative-cli",
	Short: "Automated creative-metrics pipeline",
	Long:  "Downloads short-form videos via third-party downloader sites, submits each to an AI chat surface with a fixed analysis prompt, and parses the response into a structured metric table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
