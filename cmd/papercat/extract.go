package main

import (
	"errors"

	"github.com/papercat/papercat/internal/extract"
	"github.com/papercat/papercat/internal/llm"
	"github.com/papercat/papercat/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract metadata from downloaded PDFs into the catalog",
	Long: `Read every PDF in the PDF directory, ask the configured model for its
bibliographic metadata, and insert one catalog row per new PDF.

PDFs already in the catalog (matched by filename) are skipped without a
model call, so re-running extract only processes new files. Requires
API_KEY in the environment or a .env file, and an initialized catalog
(see papercat init).`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if err := cfg.RequireAPIKey(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	log := mustNewLogger(cfg)
	defer log.Sync()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			exitWithError(ExitConfigError, "%v (run papercat init first)", err)
		}
		exitWithError(ExitError, "opening catalog: %v", err)
	}
	defer db.Close()

	client, err := llm.NewClient(llm.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout.Duration,
	})
	if err != nil {
		exitWithError(ExitConfigError, "creating model client: %v", err)
	}

	// A configured pace of zero turns pacing off.
	pace := cfg.Extract.Pace.Duration
	if pace == 0 {
		pace = -1
	}

	e := &extract.Extractor{
		Store: db,
		Completer: &llm.RetryingCompleter{
			Completer: client,
			Policy: llm.RetryPolicy{
				MaxAttempts: cfg.LLM.MaxAttempts,
				BaseDelay:   cfg.LLM.BaseDelay.Duration,
			},
			Logger: log,
		},
		Pace:     pace,
		MaxChars: cfg.Extract.MaxChars,
		Logger:   log.With("model", client.Model()),
	}

	stats, err := e.Run(cmd.Context(), cfg.PDFDir)
	if err != nil {
		exitWithError(ExitError, "extraction stopped after %d files: %v", stats.Processed, err)
	}

	if humanOutput {
		outputHuman("Extraction complete. Processed %d PDFs, inserted %d new entries", stats.Processed, stats.Inserted)
		if stats.Duplicates > 0 || stats.Failed > 0 {
			outputHuman(" (%d duplicates, %d failed)", stats.Duplicates, stats.Failed)
		}
		outputHuman(".\n")
	} else {
		outputJSON(stats)
	}
	return nil
}
