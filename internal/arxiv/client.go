// Package arxiv queries the arXiv search API and downloads paper PDFs.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/papercat/papercat/internal/publication"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the arXiv Atom query endpoint.
	BaseURL = "http://export.arxiv.org/api/query"

	// DefaultQuery selects recent fault-tolerance papers in computer science.
	DefaultQuery = `cat:cs.* AND all:"fault tolerance"`

	// DefaultMaxResults caps the number of entries per run.
	DefaultMaxResults = 100

	// DefaultDownloadTimeout bounds each PDF download.
	DefaultDownloadTimeout = 30 * time.Second

	// DefaultSearchTimeout bounds the search request.
	DefaultSearchTimeout = 60 * time.Second

	userAgent = "papercat/0.1 (+https://github.com/papercat/papercat)"
)

// Common errors returned by the arXiv client.
var (
	// ErrInvalidResponse indicates a failed or unparseable search reply.
	ErrInvalidResponse = errors.New("invalid response from arXiv")

	// ErrNoEntries indicates a well-formed feed without any entries.
	ErrNoEntries = errors.New("no entries found in arXiv response")
)

// Entry is one search result.
type Entry struct {
	ID        string    `json:"id"` // Versioned identifier, e.g. 2301.01234v2
	Title     string    `json:"title"`
	Published time.Time `json:"published"`
	PDFURL    string    `json:"pdf_url"`
}

// FileName returns the flat filename the entry is stored under.
func (e Entry) FileName() string {
	return publication.FileName(e.ID)
}

// Client is an arXiv API client.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	userAgent       string
	downloadTimeout time.Duration
	limiter         *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom query endpoint (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithDownloadTimeout sets the per-download timeout.
func WithDownloadTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.downloadTimeout = d
		}
	}
}

// WithRateLimit spaces downloads at least interval apart. Zero disables it.
func WithRateLimit(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// NewClient creates a new arXiv client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:      &http.Client{Timeout: DefaultSearchTimeout},
		baseURL:         BaseURL,
		userAgent:       userAgent,
		downloadTimeout: DefaultDownloadTimeout,
		limiter:         rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURL builds the query URL for the most recent maxResults entries.
func (c *Client) SearchURL(query string, maxResults int) string {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	return c.baseURL + "?" + params.Encode()
}

// Search returns up to maxResults entries matching query, newest first.
// Any transport, status or parse failure, or an empty feed, is an error.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Entry, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(query, maxResults), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %s: %s", ErrInvalidResponse, resp.Status, strings.TrimSpace(string(b)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrInvalidResponse, err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: parse xml: %v", ErrInvalidResponse, err)
	}
	if len(feed.Entries) == 0 {
		return nil, ErrNoEntries
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		entry, ok := parseAtomEntry(e)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: entries carry no identifiers", ErrInvalidResponse)
	}
	return entries, nil
}

// Download fetches the entry's PDF into dir as <id>.pdf, replacing any
// existing file. The file only appears once the body is fully written.
func (c *Client) Download(ctx context.Context, entry Entry, dir string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	pdfURL := entry.PDFURL
	if pdfURL == "" {
		pdfURL = publication.PDFURL(entry.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("downloading %s: http %s", pdfURL, resp.Status)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating pdf directory: %w", err)
	}

	path := filepath.Join(dir, entry.FileName())
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("saving %s: %w", path, err)
	}

	return path, nil
}

// Atom feed structures for arXiv API

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Published string `xml:"published"`
}

// parseAtomEntry converts an atom entry to an Entry. The identifier keeps
// its version suffix (http://arxiv.org/abs/2301.00001v1 -> 2301.00001v1).
func parseAtomEntry(e atomEntry) (Entry, bool) {
	raw := strings.TrimSpace(e.ID)
	id := raw
	if idx := strings.LastIndex(raw, "/abs/"); idx >= 0 {
		id = raw[idx+len("/abs/"):]
	} else if idx := strings.LastIndex(raw, "/"); idx >= 0 {
		id = raw[idx+1:]
	}
	if id == "" {
		return Entry{}, false
	}

	entry := Entry{
		ID:     id,
		Title:  strings.Join(strings.Fields(e.Title), " "),
		PDFURL: publication.PDFURL(id),
	}
	entry.Published, _ = time.Parse(time.RFC3339, strings.TrimSpace(e.Published))
	return entry, true
}
