package export

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/papercat/papercat/internal/publication"
)

// BibTeXIndex indexes the entries of an existing .bib file so repeated
// exports only append new papers.
type BibTeXIndex struct {
	// Keys maps citation keys to true for existence check
	Keys map[string]bool
	// EPrints maps arXiv identifiers to citation keys
	EPrints map[string]string
}

// NewBibTeXIndex creates an empty BibTeX index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys:    make(map[string]bool),
		EPrints: make(map[string]string),
	}
}

// Has reports whether the publication is already in the index. The arXiv
// identifier is the primary match; the citation key is the fallback.
func (idx *BibTeXIndex) Has(p publication.Publication) bool {
	if id := publication.SourceID(p.PDFPath); id != "" {
		if _, exists := idx.EPrints[strings.ToLower(id)]; exists {
			return true
		}
	}
	return idx.Keys[CiteKey(p)]
}

var (
	entryStartRegex  = regexp.MustCompile(`@\w+\{([^,]+),`)
	eprintFieldRegex = regexp.MustCompile(`(?i)^\s*eprint\s*=\s*[\{"]([^\}"]+)[\}"]`)
)

// ParseBibTeXFile builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var currentKey string

	for scanner.Scan() {
		line := scanner.Text()

		if matches := entryStartRegex.FindStringSubmatch(line); len(matches) > 1 {
			currentKey = strings.TrimSpace(matches[1])
			idx.Keys[currentKey] = true
		}

		if matches := eprintFieldRegex.FindStringSubmatch(line); len(matches) > 1 {
			id := strings.ToLower(strings.TrimSpace(matches[1]))
			if id != "" && currentKey != "" {
				idx.EPrints[id] = currentKey
			}
		}
	}

	return idx, scanner.Err()
}

// AppendToBibFile appends BibTeX content to a file.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Ensure we start on a new line
	_, err = file.WriteString("\n" + content)
	return err
}
