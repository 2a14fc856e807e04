// Package export writes catalog publications to BibTeX and JSONL.
package export

import (
	"fmt"
	"strings"

	"github.com/papercat/papercat/internal/publication"
)

// CiteKey returns the citation key for a publication: "arXiv:<id>" derived
// from the PDF filename, or "pub<rowid>" when no filename is recorded.
func CiteKey(p publication.Publication) string {
	if id := publication.SourceID(p.PDFPath); id != "" {
		return "arXiv:" + id
	}
	return fmt.Sprintf("pub%d", p.ID)
}

// ToBibTeX converts a publication to a BibTeX @misc entry.
func ToBibTeX(p publication.Publication) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@misc{%s,\n", CiteKey(p)))
	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	if p.Year > 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", p.Year))
	}

	// Affiliation goes in institution for @misc
	if p.Organization != "" {
		b.WriteString(fmt.Sprintf("  institution = {%s},\n", escapeLatex(p.Organization)))
	}

	if id := publication.SourceID(p.PDFPath); id != "" {
		b.WriteString(fmt.Sprintf("  eprint = {%s},\n", id))
		b.WriteString("  archivePrefix = {arXiv},\n")
	}

	if p.OriginalLink != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.OriginalLink))
	}

	if tags := p.TagList(); len(tags) > 0 {
		b.WriteString(fmt.Sprintf("  keywords = {%s},\n", escapeLatex(strings.Join(tags, ", "))))
	}

	if p.Language != "" && p.Language != publication.DefaultLanguage {
		b.WriteString(fmt.Sprintf("  language = {%s},\n", p.Language))
	}

	if p.Summary != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(p.Summary)))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple publications to BibTeX format.
func ToBibTeXList(pubs []publication.Publication) string {
	var entries []string
	for _, p := range pubs {
		entries = append(entries, ToBibTeX(p))
	}
	return strings.Join(entries, "\n")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// & must be first so later replacements are not re-escaped
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
