package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/papercat/papercat/internal/export"
	"github.com/papercat/papercat/internal/publication"
	"github.com/papercat/papercat/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
	exportAppend bool
)

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "bibtex", "Output format: bibtex or jsonl")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportAppend, "append", false, "Append only papers missing from --out (bibtex only)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as BibTeX or JSONL",
	Long: `Export every publication in the catalog.

BibTeX entries are keyed arXiv:<id>. With --append, entries already in the
--out file (matched by eprint, then by key) are skipped.

Examples:
  papercat export > catalog.bib
  papercat export --out refs.bib --append
  papercat export --format jsonl --out catalog.jsonl`,
	RunE: runExport,
}

// ExportResponse is the JSON response when exporting to a file.
type ExportResponse struct {
	Format   string `json:"format"`
	Path     string `json:"path"`
	Exported int    `json:"exported"`
	Skipped  int    `json:"skipped"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "bibtex" && exportFormat != "jsonl" {
		exitWithError(ExitError, "unknown format %q (want bibtex or jsonl)", exportFormat)
	}
	if exportAppend && (exportOut == "" || exportFormat != "bibtex") {
		exitWithError(ExitError, "--append requires --out and --format bibtex")
	}

	cfg := mustLoadConfig()
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		if errors.Is(err, storage.ErrStoreNotFound) {
			exitWithError(ExitConfigError, "Database file not found at %s", cfg.DBPath)
		}
		exitWithError(ExitError, "opening catalog: %v", err)
	}
	defer db.Close()

	pubs, err := db.All(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "reading catalog: %v", err)
	}

	skipped := 0
	if exportAppend {
		idx, err := export.ParseBibTeXFile(exportOut)
		if err != nil {
			exitWithError(ExitError, "reading %s: %v", exportOut, err)
		}
		var fresh []publication.Publication
		for _, p := range pubs {
			if idx.Has(p) {
				skipped++
				continue
			}
			fresh = append(fresh, p)
		}
		pubs = fresh
	}

	if exportOut == "" {
		if err := writeExport(os.Stdout, pubs); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		return nil
	}

	if exportAppend {
		if len(pubs) > 0 {
			if err := export.AppendToBibFile(exportOut, export.ToBibTeXList(pubs)); err != nil {
				exitWithError(ExitError, "appending to %s: %v", exportOut, err)
			}
		}
	} else {
		f, err := os.Create(exportOut)
		if err != nil {
			exitWithError(ExitError, "creating %s: %v", exportOut, err)
		}
		if err := writeExport(f, pubs); err != nil {
			f.Close()
			exitWithError(ExitError, "%v", err)
		}
		if err := f.Close(); err != nil {
			exitWithError(ExitError, "writing %s: %v", exportOut, err)
		}
	}

	if humanOutput {
		outputHuman("Exported %d publications to %s", len(pubs), exportOut)
		if skipped > 0 {
			outputHuman(" (%d already present)", skipped)
		}
		outputHuman("\n")
	} else {
		outputJSON(ExportResponse{Format: exportFormat, Path: exportOut, Exported: len(pubs), Skipped: skipped})
	}
	return nil
}

func writeExport(f *os.File, pubs []publication.Publication) error {
	if exportFormat == "jsonl" {
		return export.WriteJSONL(f, pubs)
	}
	_, err := fmt.Fprint(f, export.ToBibTeXList(pubs))
	return err
}
