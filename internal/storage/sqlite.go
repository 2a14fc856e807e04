// Package storage provides the SQLite-backed publication catalog.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercat/papercat/internal/publication"
	_ "modernc.org/sqlite"
)

// ErrStoreNotFound is returned by Open when the database file does not exist.
var ErrStoreNotFound = errors.New("catalog store not found")

// DB wraps a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// selectPublicationFields contains the standard field list for SELECT queries.
const selectPublicationFields = `id, title, summary, tags, year,
	organization, country, language, pdf_path, original_link`

// schema recreates the publications table. pdf_path is deliberately not
// UNIQUE: dedup is an existence check in the extractor.
const schema = `
	DROP TABLE IF EXISTS publications;

	CREATE TABLE IF NOT EXISTS publications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT,
		summary TEXT,
		tags TEXT,
		year INTEGER,
		organization TEXT,
		country TEXT,
		language TEXT,
		pdf_path TEXT,
		original_link TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_publications_pdf_path ON publications(pdf_path);
`

// Open opens an existing catalog database. It does not create the file.
func Open(path string) (*DB, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, path)
		}
		return nil, fmt.Errorf("checking database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("database path is a directory: %s", path)
	}
	return openDB(path)
}

// Create opens the database at path, creating parent directories and the
// file if needed, and (re)creates the schema. Existing rows are dropped.
func Create(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	d, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := d.CreateSchema(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return d, nil
}

func openDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &DB{db: db, path: path}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// CreateSchema drops and recreates the publications table.
func (d *DB) CreateSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Exists reports whether a publication with the given PDF filename is stored.
func (d *DB) Exists(ctx context.Context, pdfPath string) (bool, error) {
	var id int64
	err := d.db.QueryRowContext(ctx, `SELECT id FROM publications WHERE pdf_path = ? LIMIT 1`, pdfPath).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", pdfPath, err)
	}
	return true, nil
}

// Insert stores a publication and returns its new id. Records without a
// title are not written and report inserted=false.
func (d *DB) Insert(ctx context.Context, p publication.Publication) (bool, int64, error) {
	if !p.Valid() {
		return false, 0, nil
	}

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO publications (
			title, summary, tags, year,
			organization, country, language,
			pdf_path, original_link
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Summary, p.Tags, p.Year,
		p.Organization, p.Country, p.Language,
		p.PDFPath, p.OriginalLink,
	)
	if err != nil {
		return false, 0, fmt.Errorf("inserting %s: %w", p.PDFPath, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, 0, fmt.Errorf("reading id for %s: %w", p.PDFPath, err)
	}
	return true, id, nil
}

// Count returns the total number of publications. A store whose schema was
// never created counts as empty.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM publications").Scan(&count)
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// Page returns up to limit publications starting at offset, in id order.
func (d *DB) Page(ctx context.Context, offset, limit int) ([]publication.Publication, error) {
	if offset < 0 || limit <= 0 {
		return []publication.Publication{}, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT `+selectPublicationFields+`
		FROM publications
		ORDER BY id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		if isMissingTable(err) {
			return []publication.Publication{}, nil
		}
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// All returns every publication in id order.
func (d *DB) All(ctx context.Context) ([]publication.Publication, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+selectPublicationFields+` FROM publications ORDER BY id`)
	if err != nil {
		if isMissingTable(err) {
			return []publication.Publication{}, nil
		}
		return nil, fmt.Errorf("listing publications: %w", err)
	}
	defer rows.Close()

	return scanPublications(rows)
}

// GetByPDFPath retrieves a publication by its PDF filename.
func (d *DB) GetByPDFPath(ctx context.Context, pdfPath string) (*publication.Publication, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+selectPublicationFields+` FROM publications WHERE pdf_path = ? ORDER BY id LIMIT 1`, pdfPath)
	p, err := scanPublication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPublication(s scanner) (*publication.Publication, error) {
	var p publication.Publication
	var title, summary, tags, org, country, lang, pdfPath, link sql.NullString
	var year sql.NullInt64

	err := s.Scan(&p.ID, &title, &summary, &tags, &year, &org, &country, &lang, &pdfPath, &link)
	if err != nil {
		return nil, err
	}

	// Columns are nullable; rows written by other tools may leave gaps.
	p.Title = title.String
	p.Summary = summary.String
	p.Tags = tags.String
	p.Year = int(year.Int64)
	p.Organization = org.String
	p.Country = country.String
	p.Language = lang.String
	p.PDFPath = pdfPath.String
	p.OriginalLink = link.String

	return &p, nil
}

func scanPublications(rows *sql.Rows) ([]publication.Publication, error) {
	pubs := []publication.Publication{}
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning publication: %w", err)
		}
		pubs = append(pubs, *p)
	}
	return pubs, rows.Err()
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
