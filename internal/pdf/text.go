// Package pdf reads text from paper PDFs and resolves files in the PDF directory.
package pdf

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MaxTextChars is the default bound on text handed to the metadata model.
const MaxTextChars = 8000

// ExtractText reads a PDF page by page and returns its plain text, stopping
// once more than maxChars characters have been gathered. The result is
// truncated to exactly maxChars characters. maxChars <= 0 means no bound.
func ExtractText(filePath string, maxChars int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return readPages(r, maxChars), nil
}

// ExtractTextReader is ExtractText for an in-memory or already open PDF.
func ExtractTextReader(r io.ReaderAt, size int64, maxChars int) (string, error) {
	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}
	return readPages(pdfReader, maxChars), nil
}

func readPages(r *pdf.Reader, maxChars int) (text string) {
	var builder strings.Builder
	count := 0

	// Malformed content streams can panic deep inside the parser; keep
	// whatever was read so far.
	defer func() {
		if recover() != nil {
			text = Truncate(strings.TrimSpace(builder.String()), maxChars)
		}
	}()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		builder.WriteString(pageText)
		builder.WriteString("\n")
		count += utf8.RuneCountInString(pageText) + 1

		if maxChars > 0 && count > maxChars {
			break
		}
	}

	return Truncate(strings.TrimSpace(builder.String()), maxChars)
}

// Truncate cuts text to at most maxChars characters without splitting a
// UTF-8 sequence. maxChars <= 0 returns text unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}
