package main

import (
	"github.com/papercat/papercat/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create (or recreate) the catalog database",
	Long: `Create the publications table in the catalog database.

The table is dropped and recreated, so running init on an existing
catalog empties it. Parent directories are created as needed.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	db, err := storage.Create(cmd.Context(), cfg.DBPath)
	if err != nil {
		exitWithError(ExitError, "creating schema: %v", err)
	}
	defer db.Close()

	if humanOutput {
		outputHuman("DB schema created.\n")
	} else {
		outputJSON(StatusResponse{Status: "created", Path: cfg.DBPath})
	}
	return nil
}
