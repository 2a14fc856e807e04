// Package extract turns downloaded paper PDFs into catalog records using a
// chat-completion model.
package extract

import (
	"fmt"

	"github.com/papercat/papercat/internal/publication"
)

// DefaultCountry is the value the model is told to use when no country is found.
const DefaultCountry = "Unknown"

// BuildPrompt builds the metadata extraction prompt for the given paper text.
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Extract the following metadata from the provided academic paper text as a valid JSON object.
Only output the JSON, nothing else. Use defaults if info is missing (e.g., year=%d, country=%q, language=%q).

Required fields:
- "title": The full title of the paper (string)
- "summary": A concise summary or abstract (string, max 200 words)
- "tags": Array of 3-5 relevant keywords/tags (array of strings)
- "year": Publication year as integer
- "organization": Author affiliation/university/org (string)
- "country": Country of the organization (string)
- "language": Primary language (string, e.g., "en")

Text: %s
`, publication.PlaceholderYear, DefaultCountry, publication.DefaultLanguage, text)
}
