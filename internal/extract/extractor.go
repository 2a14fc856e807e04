package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/papercat/papercat/internal/llm"
	"github.com/papercat/papercat/internal/logger"
	"github.com/papercat/papercat/internal/pdf"
	"github.com/papercat/papercat/internal/publication"
	"golang.org/x/time/rate"
)

// DefaultPace is the minimum interval between the starts of consecutive files.
const DefaultPace = time.Second

// Store is the part of the catalog store the extractor writes to.
type Store interface {
	Exists(ctx context.Context, pdfPath string) (bool, error)
	Insert(ctx context.Context, p publication.Publication) (bool, int64, error)
}

// TextFunc reads up to maxChars characters of text from a PDF.
type TextFunc func(path string, maxChars int) (string, error)

// Extractor processes every PDF in a directory into the catalog store.
type Extractor struct {
	Store     Store
	Completer llm.Completer

	// Pace is the minimum interval between the starts of consecutive files,
	// enforced by a rate limiter. It is not a pause after each file: time
	// spent reading and querying the model counts toward it, so a file that
	// takes longer than Pace lets the next one start at once. Zero means
	// DefaultPace, negative disables pacing.
	Pace time.Duration

	// MaxChars bounds the text placed in the prompt. Zero means
	// pdf.MaxTextChars.
	MaxChars int

	// ReadText defaults to pdf.ExtractText.
	ReadText TextFunc

	Logger *logger.Logger
}

// Stats counts the outcome of a run.
type Stats struct {
	Processed  int `json:"processed"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Run processes the PDFs in dir in name order. Per-file failures are logged
// and counted; only store errors and context cancellation stop the run.
func (e *Extractor) Run(ctx context.Context, dir string) (Stats, error) {
	var stats Stats

	files, err := pdf.NewDir(dir).List()
	if err != nil {
		return stats, err
	}

	log := e.logger()
	limiter := e.limiter()
	log.Info("extraction started", "dir", dir, "files", len(files))

	for _, path := range files {
		if err := limiter.Wait(ctx); err != nil {
			return stats, err
		}

		stats.Processed++
		outcome, err := e.processFile(ctx, path)
		if err != nil {
			return stats, err
		}
		switch outcome {
		case outcomeInserted:
			stats.Inserted++
		case outcomeDuplicate:
			stats.Duplicates++
		case outcomeFailed:
			stats.Failed++
		}
	}

	log.Info("extraction complete",
		"processed", stats.Processed,
		"inserted", stats.Inserted,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed)
	return stats, nil
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeDuplicate
	outcomeFailed
)

func (e *Extractor) processFile(ctx context.Context, path string) (outcome, error) {
	name := filepath.Base(path)
	log := e.logger().With("file", name)

	exists, err := e.Store.Exists(ctx, name)
	if err != nil {
		return outcomeFailed, fmt.Errorf("checking %s: %w", name, err)
	}
	if exists {
		log.Info("skipping duplicate")
		return outcomeDuplicate, nil
	}

	maxChars := e.MaxChars
	if maxChars <= 0 {
		maxChars = pdf.MaxTextChars
	}
	readText := e.ReadText
	if readText == nil {
		readText = pdf.ExtractText
	}

	text, err := readText(path, maxChars)
	if err != nil {
		log.Warn("reading pdf failed, continuing with empty text", "error", err)
		text = ""
	}
	text = pdf.Truncate(text, maxChars)

	content, err := e.Completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcomeFailed, ctxErr
		}
		log.Warn("model request failed, skipping", "error", err)
		return outcomeFailed, nil
	}

	meta, err := ParseMetadata(content)
	if err != nil {
		log.Warn("unparseable model output, skipping", "error", err)
		return outcomeFailed, nil
	}

	rec := meta.ToPublication(name)
	inserted, id, err := e.Store.Insert(ctx, rec)
	if err != nil {
		return outcomeFailed, fmt.Errorf("inserting %s: %w", name, err)
	}
	if !inserted {
		log.Warn("model output has no title, skipping")
		return outcomeFailed, nil
	}

	log.Info("inserted", "id", id, "title", rec.Title)
	return outcomeInserted, nil
}

func (e *Extractor) logger() *logger.Logger {
	if e.Logger == nil {
		return logger.Nop()
	}
	return e.Logger
}

// limiter spaces the starts of files Pace apart. The burst of one lets the
// first file through immediately.
func (e *Extractor) limiter() *rate.Limiter {
	pace := e.Pace
	if pace == 0 {
		pace = DefaultPace
	}
	if pace < 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(pace), 1)
}
