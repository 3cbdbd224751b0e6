package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mvoice/creative-cli/internal/extract"
	"github.com/mvoice/creative-cli/internal/store"
)

var migratePath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate a legacy two-column results file to the full schema",
	Long:  "Re-runs the extractor over every stored raw message in a legacy (url, message) file and rewrites it with the full metric columns. The original is backed up alongside with a .bak suffix.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := migratePath
		if path == "" {
			path = cfg.Store.Path
		}

		migrated, err := store.MigrateLegacy(path, extract.Extract)
		if err != nil {
			return eris.Wrapf(err, "migrate %s", path)
		}
		if migrated == 0 {
			fmt.Printf("%s is not in the legacy format, nothing to do\n", path)
			return nil
		}

		fmt.Printf("migrated %d rows, original backed up at %s.bak\n", migrated, path)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migratePath, "file", "", "results file to migrate (default: configured store path)")
	rootCmd.AddCommand(migrateCmd)
}
