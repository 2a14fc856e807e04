package arxiv

import (
	"context"
	"fmt"

	"github.com/papercat/papercat/internal/logger"
)

// Fetcher runs one search-and-download pass.
type Fetcher struct {
	Client     *Client
	Query      string
	MaxResults int
	Dir        string
	Logger     *logger.Logger
}

// Result summarizes a fetch run.
type Result struct {
	Found      int      `json:"found"`
	Downloaded int      `json:"downloaded"`
	Failed     int      `json:"failed"`
	Files      []string `json:"files,omitempty"`
}

// Run searches once and downloads every entry in order. A failed search
// aborts the run; a failed download is logged and skipped.
func (f *Fetcher) Run(ctx context.Context) (Result, error) {
	log := f.Logger
	if log == nil {
		log = logger.Nop()
	}

	query := f.Query
	if query == "" {
		query = DefaultQuery
	}

	entries, err := f.Client.Search(ctx, query, f.MaxResults)
	if err != nil {
		return Result{}, fmt.Errorf("searching arXiv: %w", err)
	}
	log.Info("search complete", "query", query, "entries", len(entries))

	res := Result{Found: len(entries)}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		path, err := f.Client.Download(ctx, entry, f.Dir)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			log.Warn("download failed", "id", entry.ID, "url", entry.PDFURL, "error", err)
			continue
		}

		res.Downloaded++
		res.Files = append(res.Files, path)
		log.Info("downloaded", "id", entry.ID, "title", entry.Title, "path", path)
	}

	return res, nil
}
