package main

import (
	"errors"

	"github.com/papercat/papercat/internal/catalog"
	"github.com/papercat/papercat/internal/storage"
	"github.com/spf13/cobra"
)

var listPage int

func init() {
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number (1-based, 20 per page)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of the catalog",
	Long: `List one page of publications, in insertion order.

Examples:
  papercat list
  papercat list --page 3 --human`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	page, err := catalog.NewService(cfg.DBPath, cfg.PDFDir).List(cmd.Context(), listPage)
	if err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			exitWithError(ExitConfigError, "Database file not found at %s", cfg.DBPath)
		}
		exitWithError(ExitError, "listing publications: %v", err)
	}

	if !humanOutput {
		outputJSON(page)
		return nil
	}

	if len(page.Publications) == 0 {
		outputHuman("No publications\n")
		return nil
	}
	outputHuman("Page %d of %d (%d publications):\n\n", page.Number, page.TotalPages, page.Total)
	for _, p := range page.Publications {
		outputHuman("  %-5d %-4d %s\n", p.ID, p.Year, truncateString(p.Title, ListTitleMaxLen))
		outputHuman("              %s\n", p.PDFPath)
	}
	return nil
}
