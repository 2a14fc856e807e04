package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newArxivServer serves a search feed at /api/query and PDFs under /pdf/.
// PDFs whose id contains "missing" return 404.
func newArxivServer(t *testing.T, ids ...string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/query", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feed(ids...)))
	})
	mux.HandleFunc("/pdf/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("%PDF-1.4"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// rewriteTransport sends every request to the test server.
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = "http"
	out.URL.Host = strings.TrimPrefix(rt.target, "http://")
	return http.DefaultTransport.RoundTrip(out)
}

func TestFetcherRun(t *testing.T) {
	srv := newArxivServer(t, "2403.00001v1", "2403.00002missing", "2403.00003v4")
	dir := t.TempDir()

	f := &Fetcher{
		Client: NewClient(
			WithBaseURL(srv.URL+"/api/query"),
			WithHTTPClient(&http.Client{Transport: rewriteTransport{target: srv.URL}}),
		),
		MaxResults: 3,
		Dir:        dir,
	}

	res, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Found != 3 || res.Downloaded != 2 || res.Failed != 1 {
		t.Errorf("Run() = %+v, want found=3 downloaded=2 failed=1", res)
	}

	for _, name := range []string{"2403.00001v1.pdf", "2403.00003v4.pdf"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not downloaded: %v", name, err)
		}
	}
}

func TestFetcherRun_SearchFailureIsFatal(t *testing.T) {
	srv := newArxivServer(t) // empty feed
	f := &Fetcher{
		Client: NewClient(WithBaseURL(srv.URL + "/api/query")),
		Dir:    t.TempDir(),
	}

	_, err := f.Run(context.Background())
	if !errors.Is(err, ErrNoEntries) {
		t.Errorf("Run() error = %v, want ErrNoEntries", err)
	}
}
