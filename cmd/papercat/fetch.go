package main

import (
	"errors"

	"github.com/papercat/papercat/internal/arxiv"
	"github.com/spf13/cobra"
)

var (
	fetchQuery string
	fetchMax   int
)

func init() {
	fetchCmd.Flags().StringVar(&fetchQuery, "query", "", "arXiv search query (default from config)")
	fetchCmd.Flags().IntVar(&fetchMax, "max", 0, "Maximum entries to fetch (default from config)")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the newest matching papers from arXiv",
	Long: `Query the arXiv API for the most recent papers matching a search
query and download each PDF into the PDF directory as <id>.pdf.

Existing files are overwritten. A failed download is logged and skipped.

Examples:
  papercat fetch
  papercat fetch --query 'cat:cs.DC AND all:consensus' --max 20`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	log := mustNewLogger(cfg)
	defer log.Sync()

	query := cfg.Fetch.Query
	if fetchQuery != "" {
		query = fetchQuery
	}
	maxResults := cfg.Fetch.MaxResults
	if fetchMax > 0 {
		maxResults = fetchMax
	}

	f := &arxiv.Fetcher{
		Client: arxiv.NewClient(
			arxiv.WithBaseURL(cfg.Fetch.BaseURL),
			arxiv.WithDownloadTimeout(cfg.Fetch.DownloadTimeout.Duration),
			arxiv.WithRateLimit(cfg.Fetch.Interval.Duration),
			arxiv.WithUserAgent("papercat/"+Version+" (+https://github.com/papercat/papercat)"),
		),
		Query:      query,
		MaxResults: maxResults,
		Dir:        cfg.PDFDir,
		Logger:     log,
	}

	res, err := f.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, arxiv.ErrNoEntries) || errors.Is(err, arxiv.ErrInvalidResponse) {
			exitWithError(ExitDataError, "%v", err)
		}
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Found %d entries, downloaded %d PDFs to %s", res.Found, res.Downloaded, cfg.PDFDir)
		if res.Failed > 0 {
			outputHuman(" (%d failed)", res.Failed)
		}
		outputHuman("\n")
	} else {
		outputJSON(res)
	}
	return nil
}
