// Package publication defines the catalog record derived from one paper PDF.
package publication

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// AbstractBaseURL is the canonical arXiv abstract page prefix.
	AbstractBaseURL = "https://arxiv.org/abs/"

	// PDFBaseURL is the arXiv PDF download prefix.
	PDFBaseURL = "https://arxiv.org/pdf/"

	// DefaultLanguage is stored when the model leaves language empty.
	DefaultLanguage = "en"

	// PlaceholderYear is the year the model is told to use when none is found.
	PlaceholderYear = 2023
)

// Publication is one catalog row.
type Publication struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	Tags         string `json:"tags"` // Comma-joined keywords
	Year         int    `json:"year"`
	Organization string `json:"organization"`
	Country      string `json:"country"`
	Language     string `json:"language"`
	PDFPath      string `json:"pdf_path"` // Base filename, the dedup key
	OriginalLink string `json:"original_link"`
}

// Valid reports whether the record carries enough data to be stored.
func (p Publication) Valid() bool {
	return strings.TrimSpace(p.Title) != ""
}

// TagList splits the stored tag string back into keywords.
func (p Publication) TagList() []string {
	if p.Tags == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(p.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// JoinTags joins keywords into the stored comma-separated form.
// Blank entries are dropped.
func JoinTags(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, ",")
}

var (
	versionSuffix = regexp.MustCompile(`v\d+$`)

	// Old-style identifiers such as hep-th/9901001 or math.GT/0309136 are
	// stored flat with the slash replaced by an underscore.
	oldStylePrefix = regexp.MustCompile(`^[a-z][a-z-]*(\.[A-Z]{2})?_\d{7}`)
)

// SourceID derives the arXiv identifier from a PDF filename by dropping the
// directory, a .pdf extension and any trailing version suffix. Dots in the
// identifier itself are kept.
//
//	2301.01234v2.pdf      -> 2301.01234
//	hep-th_9901001v1.pdf  -> hep-th/9901001
func SourceID(filename string) string {
	if filename == "" {
		return ""
	}
	id := filepath.Base(filename)
	if ext := filepath.Ext(id); strings.EqualFold(ext, ".pdf") {
		id = strings.TrimSuffix(id, ext)
	}
	id = versionSuffix.ReplaceAllString(id, "")
	if oldStylePrefix.MatchString(id) {
		id = strings.Replace(id, "_", "/", 1)
	}
	return id
}

// FileName returns the flat on-disk name for an arXiv identifier.
func FileName(id string) string {
	return strings.ReplaceAll(id, "/", "_") + ".pdf"
}

// AbstractURL returns the abstract page URL for an identifier.
func AbstractURL(id string) string {
	return AbstractBaseURL + id
}

// PDFURL returns the PDF download URL for an identifier.
func PDFURL(id string) string {
	return PDFBaseURL + id + ".pdf"
}

// LinkForFile derives the canonical abstract URL from a PDF filename.
func LinkForFile(filename string) string {
	return AbstractURL(SourceID(filename))
}
