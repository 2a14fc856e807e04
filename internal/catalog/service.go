// Package catalog serves read-only, paginated access to the publication
// store and the downloaded PDFs.
package catalog

import (
	"context"

	"github.com/papercat/papercat/internal/pdf"
	"github.com/papercat/papercat/internal/publication"
	"github.com/papercat/papercat/internal/storage"
)

// DefaultPageSize is the number of publications per page.
const DefaultPageSize = 20

// Page is one page of the catalog listing. Number is 1-based.
type Page struct {
	Number       int                       `json:"page"`
	TotalPages   int                       `json:"total_pages"`
	Total        int                       `json:"total"`
	Publications []publication.Publication `json:"publications"`
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Service reads the catalog store and PDF directory. It keeps no
// connection open between calls.
type Service struct {
	dbPath   string
	pdfs     *pdf.Dir
	pageSize int
}

// Option configures a Service.
type Option func(*Service)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// NewService returns a Service over the store at dbPath and the PDFs in pdfDir.
func NewService(dbPath, pdfDir string, opts ...Option) *Service {
	s := &Service{
		dbPath:   dbPath,
		pdfs:     pdf.NewDir(pdfDir),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the given 1-based page. Pages below 1 are treated as 1; pages
// past the end come back with no publications and no error. A missing store
// yields storage.ErrStoreNotFound.
func (s *Service) List(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		page = 1
	}

	db, err := storage.Open(s.dbPath)
	if err != nil {
		return Page{}, err
	}
	defer db.Close()

	total, err := db.Count(ctx)
	if err != nil {
		return Page{}, err
	}

	result := Page{
		Number:       page,
		Total:        total,
		TotalPages:   (total + s.pageSize - 1) / s.pageSize,
		Publications: []publication.Publication{},
	}
	if page > result.TotalPages {
		return result, nil
	}

	pubs, err := db.Page(ctx, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return Page{}, err
	}
	result.Publications = pubs
	return result, nil
}

// GetPDF resolves a bare PDF filename to its path. Unknown names and names
// that try to leave the directory yield pdf.ErrNotFound.
func (s *Service) GetPDF(name string) (string, error) {
	return s.pdfs.Resolve(name)
}
