package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/papercat/papercat/internal/llm"
	"github.com/papercat/papercat/internal/publication"
	"github.com/papercat/papercat/internal/storage"
)

// stubCompleter returns canned output and records the prompts it saw.
type stubCompleter struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	prompts []string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.reply(prompt)
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func jsonReply(string) (string, error) {
	return `{"title": "A Paper", "summary": "About things.", "tags": ["a", "b", "c"], "year": 2024, "organization": "Org", "country": "Unknown", "language": ""}`, nil
}

func staticText(text string) TextFunc {
	return func(string, int) (string, error) { return text, nil }
}

func setupPDFDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func setupStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Create(context.Background(), filepath.Join(t.TempDir(), "dbdb"))
	if err != nil {
		t.Fatalf("storage.Create() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newExtractor(store Store, c llm.Completer) *Extractor {
	return &Extractor{
		Store:     store,
		Completer: c,
		Pace:      -1,
		ReadText:  staticText("paper text"),
	}
}

func TestRun_InsertsAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := setupPDFDir(t, "2301.01234v2.pdf", "2302.00001v1.PDF", "notes.txt")
	db := setupStore(t)
	stub := &stubCompleter{reply: jsonReply}
	e := newExtractor(db, stub)

	stats, err := e.Run(ctx, dir)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := Stats{Processed: 2, Inserted: 2}
	if stats != want {
		t.Errorf("first Run() = %+v, want %+v", stats, want)
	}

	stats, err = e.Run(ctx, dir)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	want = Stats{Processed: 2, Duplicates: 2}
	if stats != want {
		t.Errorf("second Run() = %+v, want %+v", stats, want)
	}
	if stub.calls() != 2 {
		t.Errorf("model called %d times, want 2 (duplicates skip the model)", stub.calls())
	}

	n, err := db.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}

	p, err := db.GetByPDFPath(ctx, "2301.01234v2.pdf")
	if err != nil || p == nil {
		t.Fatalf("GetByPDFPath() = %v, %v", p, err)
	}
	if p.Tags != "a,b,c" {
		t.Errorf("Tags = %q, want a,b,c", p.Tags)
	}
	if p.OriginalLink != "https://arxiv.org/abs/2301.01234" {
		t.Errorf("OriginalLink = %q", p.OriginalLink)
	}
	if p.Language != publication.DefaultLanguage {
		t.Errorf("Language = %q, want default", p.Language)
	}
}

func TestRun_EmptyDir(t *testing.T) {
	stub := &stubCompleter{reply: jsonReply}
	stats, err := newExtractor(setupStore(t), stub).Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats != (Stats{}) {
		t.Errorf("Run() = %+v, want zero stats", stats)
	}
	if stub.calls() != 0 {
		t.Errorf("model called %d times", stub.calls())
	}
}

func TestRun_MissingDir(t *testing.T) {
	e := newExtractor(setupStore(t), &stubCompleter{reply: jsonReply})
	if _, err := e.Run(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Run() error = nil for missing directory")
	}
}

func TestRun_NonJSONReplyIsSkipped(t *testing.T) {
	ctx := context.Background()
	db := setupStore(t)
	stub := &stubCompleter{reply: func(string) (string, error) {
		return "Sorry, I cannot help with that.", nil
	}}

	stats, err := newExtractor(db, stub).Run(ctx, setupPDFDir(t, "a.pdf"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Processed != 1 || stats.Inserted != 0 || stats.Failed != 1 {
		t.Errorf("Run() = %+v, want processed=1 inserted=0 failed=1", stats)
	}
	if n, _ := db.Count(ctx); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestRun_MissingTitleIsSkipped(t *testing.T) {
	stub := &stubCompleter{reply: func(string) (string, error) {
		return `{"summary": "no title here"}`, nil
	}}
	stats, err := newExtractor(setupStore(t), stub).Run(context.Background(), setupPDFDir(t, "a.pdf"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Inserted != 0 || stats.Failed != 1 {
		t.Errorf("Run() = %+v", stats)
	}
}

func TestRun_ModelFailureContinues(t *testing.T) {
	ctx := context.Background()
	db := setupStore(t)
	stub := &stubCompleter{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "BROKEN") {
			return "", llm.ErrRetriesExhausted
		}
		return jsonReply(prompt)
	}}

	e := newExtractor(db, stub)
	e.ReadText = func(path string, _ int) (string, error) {
		if filepath.Base(path) == "a.pdf" {
			return "BROKEN", nil
		}
		return "fine", nil
	}

	stats, err := e.Run(ctx, setupPDFDir(t, "a.pdf", "b.pdf"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := Stats{Processed: 2, Inserted: 1, Failed: 1}
	if stats != want {
		t.Errorf("Run() = %+v, want %+v", stats, want)
	}
}

func TestRun_UnreadablePDFUsesEmptyText(t *testing.T) {
	stub := &stubCompleter{reply: jsonReply}
	e := newExtractor(setupStore(t), stub)
	e.ReadText = func(string, int) (string, error) {
		return "", errors.New("malformed pdf")
	}

	stats, err := e.Run(context.Background(), setupPDFDir(t, "a.pdf"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.Inserted != 1 {
		t.Errorf("Run() = %+v, want the record inserted", stats)
	}
	if !strings.HasSuffix(strings.TrimSpace(stub.prompts[0]), "Text:") {
		t.Errorf("prompt should end with an empty text body, got %q", stub.prompts[0])
	}
}

func TestRun_TruncatesText(t *testing.T) {
	stub := &stubCompleter{reply: jsonReply}
	e := newExtractor(setupStore(t), stub)
	e.ReadText = staticText(strings.Repeat("ж", 20000))

	if _, err := e.Run(context.Background(), setupPDFDir(t, "a.pdf")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.Count(stub.prompts[0], "ж"); got != 8000 {
		t.Errorf("prompt carries %d characters of text, want 8000", got)
	}
}

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Exists(context.Context, string) (bool, error) {
	return false, errors.New("disk I/O error")
}

func (failingStore) Insert(context.Context, publication.Publication) (bool, int64, error) {
	return false, 0, errors.New("disk I/O error")
}

func TestRun_StoreErrorAborts(t *testing.T) {
	stub := &stubCompleter{reply: jsonReply}
	stats, err := newExtractor(failingStore{}, stub).Run(context.Background(), setupPDFDir(t, "a.pdf", "b.pdf"))
	if err == nil {
		t.Fatal("Run() error = nil, want store error")
	}
	if stats.Processed != 1 {
		t.Errorf("Processed = %d, want the run to stop at the first file", stats.Processed)
	}
}

func TestRun_Pacing(t *testing.T) {
	stub := &stubCompleter{reply: jsonReply}
	e := newExtractor(setupStore(t), stub)
	e.Pace = 50 * time.Millisecond

	start := time.Now()
	if _, err := e.Run(context.Background(), setupPDFDir(t, "a.pdf", "b.pdf", "c.pdf")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("three files took %v, want at least two pace intervals", elapsed)
	}
}

func TestRun_PacingIsStartToStart(t *testing.T) {
	const (
		pace = 100 * time.Millisecond
		work = 150 * time.Millisecond
	)
	var (
		mu     sync.Mutex
		starts []time.Time
	)
	stub := &stubCompleter{reply: func(p string) (string, error) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		time.Sleep(work)
		return jsonReply(p)
	}}
	e := newExtractor(setupStore(t), stub)
	e.Pace = pace

	if _, err := e.Run(context.Background(), setupPDFDir(t, "a.pdf", "b.pdf", "c.pdf")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(starts) != 3 {
		t.Fatalf("calls = %d, want 3", len(starts))
	}
	// A call slower than the pace leaves no extra wait before the next one.
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap >= work+pace-20*time.Millisecond {
			t.Errorf("gap %d = %v, want about %v (pace counted from start)", i, gap, work)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubCompleter{reply: jsonReply}
	_, err := newExtractor(setupStore(t), stub).Run(ctx, setupPDFDir(t, "a.pdf"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
