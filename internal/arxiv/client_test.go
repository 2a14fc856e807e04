package arxiv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  %s
</feed>`

const entryTemplate = `<entry>
    <id>http://arxiv.org/abs/%s</id>
    <published>2024-03-01T12:00:00Z</published>
    <title>%s</title>
    <link title="pdf" href="http://arxiv.org/pdf/%s" rel="related" type="application/pdf"/>
  </entry>`

func feed(ids ...string) string {
	var b strings.Builder
	for i, id := range ids {
		fmt.Fprintf(&b, entryTemplate, id, fmt.Sprintf("Paper\n   %d", i+1), id)
	}
	return fmt.Sprintf(feedTemplate, b.String())
}

func TestSearchURL(t *testing.T) {
	c := NewClient()
	u, err := url.Parse(c.SearchURL(DefaultQuery, 100))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	checks := map[string]string{
		"search_query": DefaultQuery,
		"start":        "0",
		"max_results":  "100",
		"sortBy":       "submittedDate",
		"sortOrder":    "descending",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if u.Host != "export.arxiv.org" {
		t.Errorf("host = %s", u.Host)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("max_results") != "2" {
			t.Errorf("max_results = %s", r.URL.Query().Get("max_results"))
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(feed("2403.00001v2", "hep-th/9901001v1")))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	entries, err := c.Search(context.Background(), DefaultQuery, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}

	e := entries[0]
	if e.ID != "2403.00001v2" {
		t.Errorf("ID = %q", e.ID)
	}
	if e.Title != "Paper 1" {
		t.Errorf("Title = %q", e.Title)
	}
	if e.PDFURL != "https://arxiv.org/pdf/2403.00001v2.pdf" {
		t.Errorf("PDFURL = %q", e.PDFURL)
	}
	if !e.Published.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Published = %v", e.Published)
	}
	if got := entries[1].FileName(); got != "hep-th_9901001v1.pdf" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "boom", ErrInvalidResponse},
		{"malformed xml", http.StatusOK, "<feed><entry>", ErrInvalidResponse},
		{"not a feed", http.StatusOK, "<html></html>", ErrInvalidResponse},
		{"no entries", http.StatusOK, feed(), ErrNoEntries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(WithBaseURL(srv.URL)).Search(context.Background(), "q", 10)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Search() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 " + r.URL.Path))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "pdf")
	c := NewClient()
	entry := Entry{ID: "2403.00001v2", PDFURL: srv.URL + "/pdf/2403.00001v2.pdf"}

	// Existing files are overwritten.
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "2403.00001v2.pdf"), []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := c.Download(context.Background(), entry, dir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if path != filepath.Join(dir, "2403.00001v2.pdf") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4 /pdf/2403.00001v2.pdf" {
		t.Errorf("content = %q", data)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".download-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestUserAgent(t *testing.T) {
	const ua = "papercat/test (+https://example.org)"
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("User-Agent"))
		if r.URL.Path == "/api/query" {
			w.Write([]byte(feed("2403.00001v2")))
			return
		}
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL+"/api/query"), WithUserAgent(ua))
	entries, err := c.Search(context.Background(), DefaultQuery, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	entry := Entry{ID: entries[0].ID, PDFURL: srv.URL + "/pdf/2403.00001v2.pdf"}
	if _, err := c.Download(context.Background(), entry, t.TempDir()); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("requests = %d, want 2", len(seen))
	}
	for i, got := range seen {
		if got != ua {
			t.Errorf("request %d User-Agent = %q, want %q", i, got, ua)
		}
	}
}

func TestDownload_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := NewClient().Download(context.Background(), Entry{ID: "x", PDFURL: srv.URL + "/x.pdf"}, dir)
	if err == nil {
		t.Fatal("Download() error = nil for 404")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "x.pdf")); !os.IsNotExist(statErr) {
		t.Error("failed download left a file behind")
	}
}

func TestDownload_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(WithDownloadTimeout(50 * time.Millisecond))
	if _, err := c.Download(context.Background(), Entry{ID: "slow", PDFURL: srv.URL}, t.TempDir()); err == nil {
		t.Fatal("Download() error = nil, want timeout")
	}
}
