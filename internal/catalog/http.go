package catalog

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/papercat/papercat/internal/logger"
	"github.com/papercat/papercat/internal/pdf"
	"github.com/papercat/papercat/internal/storage"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>Publications - page {{.Number}} of {{.TotalPages}}</title>
	<style>
		body { font-family: system-ui, sans-serif; max-width: 900px; margin: 0 auto; padding: 1rem; line-height: 1.5; }
		a { color: #0066cc; }
		.pub { border-bottom: 1px solid #eee; padding: 1rem 0; }
		.pub-title { font-size: 1.1rem; font-weight: 600; margin: 0.25rem 0; }
		.pub-meta { font-size: 0.9rem; color: #666; }
		.pub-summary { margin: 0.5rem 0; }
		.tag { display: inline-block; background: #e0e0e0; padding: 0.1rem 0.4rem; border-radius: 3px; font-size: 0.8rem; margin-right: 0.25rem; }
		.nav { margin: 1rem 0; }
	</style>
</head>
<body>
<h1>Publications</h1>
<p>{{.Total}} publications, page {{.Number}} of {{.TotalPages}}</p>
{{range .Publications}}
<div class="pub">
	<div class="pub-title">{{.Title}}</div>
	<div class="pub-meta">{{.Year}} · {{.Organization}} · {{.Country}} · {{.Language}}</div>
	<div>{{range .TagList}}<span class="tag">{{.}}</span>{{end}}</div>
	<div class="pub-summary">{{.Summary}}</div>
	<div><a href="/pdf/{{.PDFPath}}">PDF</a>{{if .OriginalLink}} | <a href="{{.OriginalLink}}">arXiv</a>{{end}}</div>
</div>
{{end}}
<div class="nav">
	{{if .HasPrev}}<a href="/?page={{.Prev}}">&laquo; Previous</a>{{end}}
	{{if .HasNext}}<a href="/?page={{.Next}}">Next &raquo;</a>{{end}}
</div>
</body>
</html>
`))

// listingView adds navigation targets to a Page for the template.
type listingView struct {
	Page
	Prev, Next int
}

// Handler returns the HTTP routes for the catalog.
func (s *Service) Handler(log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))

	r.Get("/", s.handleIndex(log))
	r.Get("/api/publications", s.handleAPIList(log))
	r.Get("/pdf/{filename}", s.handlePDF(log))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	return r
}

func (s *Service) handleIndex(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.List(r.Context(), pageParam(r))
		if err != nil {
			s.writeListError(w, log, err)
			return
		}
		if len(page.Publications) == 0 {
			writeText(w, http.StatusOK, "No publications")
			return
		}

		view := listingView{Page: page, Prev: page.Number - 1, Next: page.Number + 1}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := listingTemplate.Execute(w, view); err != nil {
			log.Error("rendering listing", "error", err)
		}
	}
}

func (s *Service) handleAPIList(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.List(r.Context(), pageParam(r))
		if err != nil {
			s.writeListError(w, log, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(page); err != nil {
			log.Error("encoding page", "error", err)
		}
	}
}

func (s *Service) handlePDF(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "filename")
		path, err := s.GetPDF(name)
		if err != nil {
			if !errors.Is(err, pdf.ErrNotFound) {
				log.Error("resolving pdf", "file", name, "error", err)
			}
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		http.ServeFile(w, r, path)
	}
}

func (s *Service) writeListError(w http.ResponseWriter, log *logger.Logger, err error) {
	if errors.Is(err, storage.ErrStoreNotFound) {
		writeText(w, http.StatusInternalServerError, "Error: Database file not found at "+s.dbPath)
		return
	}
	log.Error("listing publications", "error", err)
	writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
}

// pageParam reads ?page=N. Missing or non-numeric values mean page 1.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

// requestLogger logs one line per request.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
