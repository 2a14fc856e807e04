package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/papercat/papercat/internal/publication"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// WriteJSONL writes one JSON object per publication, one per line.
func WriteJSONL(w io.Writer, pubs []publication.Publication) error {
	bw := bufio.NewWriter(w)
	for i, p := range pubs {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding publication %d: %w", i, err)
		}
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("writing publication %d: %w", i, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	return bw.Flush()
}

// ReadJSONL reads publications from a JSONL file. A missing file reads as empty.
func ReadJSONL(path string) ([]publication.Publication, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening export file: %w", err)
	}
	defer f.Close()

	var pubs []publication.Publication
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long summaries
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p publication.Publication
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		pubs = append(pubs, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export file: %w", err)
	}

	return pubs, nil
}
