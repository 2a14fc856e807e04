package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/papercat/papercat/internal/publication"
)

// ErrNoJSON is returned when no JSON object can be recovered from model output.
var ErrNoJSON = errors.New("no JSON object in model output")

// Metadata is the object the model is asked to return.
type Metadata struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Tags         TagList  `json:"tags"`
	Year         FlexYear `json:"year"`
	Organization string   `json:"organization"`
	Country      string   `json:"country"`
	Language     string   `json:"language"`
}

// TagList accepts either a JSON array of strings or one comma-separated string.
type TagList []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tags: want array or string, got %s", data)
	}
	*t = strings.Split(s, ",")
	return nil
}

// FlexYear accepts a JSON number or a numeric string.
type FlexYear int

// UnmarshalJSON implements json.Unmarshaler. Unparseable values decode as 0.
func (y *FlexYear) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*y = FlexYear(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*y = FlexYear(v)
			return nil
		}
	}

	*y = 0
	return nil
}

// ParseMetadata recovers the metadata object from raw model output. It tries
// a strict parse of the trimmed output, then the body of a Markdown code
// fence, then the span from the first '{' to the last '}'. The last step is
// a heuristic and can pick up braces from surrounding prose.
func ParseMetadata(content string) (Metadata, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return Metadata{}, ErrNoJSON
	}

	if m, err := decodeMetadata(text); err == nil {
		return m, nil
	}

	if strings.HasPrefix(text, "```") {
		if m, err := decodeMetadata(strings.TrimSpace(extractFromCodeBlock(text))); err == nil {
			return m, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return Metadata{}, ErrNoJSON
	}
	m, err := decodeMetadata(text[start : end+1])
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrNoJSON, err)
	}
	return m, nil
}

func decodeMetadata(s string) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// extractFromCodeBlock extracts content from a markdown code block.
func extractFromCodeBlock(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	end := len(lines)
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		end = len(lines) - 1
	}
	return strings.Join(lines[1:end], "\n")
}

// ToPublication builds the catalog record for the PDF with the given base
// filename.
func (m Metadata) ToPublication(filename string) publication.Publication {
	lang := strings.TrimSpace(m.Language)
	if lang == "" {
		lang = publication.DefaultLanguage
	}
	return publication.Publication{
		Title:        strings.TrimSpace(m.Title),
		Summary:      strings.TrimSpace(m.Summary),
		Tags:         publication.JoinTags(m.Tags),
		Year:         int(m.Year),
		Organization: strings.TrimSpace(m.Organization),
		Country:      strings.TrimSpace(m.Country),
		Language:     lang,
		PDFPath:      filename,
		OriginalLink: publication.LinkForFile(filename),
	}
}
