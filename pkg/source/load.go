// Package source supplies raw records to the builder: JSON file
// loading, a deterministic sample-data generator, and a file watcher
// for live reload. Validation of raw shape stops here; everything
// downstream assumes well-formed records.
package source

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	"github.com/canopyviz/canopy/pkg/tree"
)

// LoadRecords reads a JSON array of records from a file. Files at the
// observed scale run to tens of thousands of records, hence the
// faster decoder.
func LoadRecords(path string) ([]tree.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	records, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// ReadRecords decodes a JSON record array from r.
func ReadRecords(r io.Reader) ([]tree.Record, error) {
	var records []tree.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// WriteRecords writes records as pretty-printed JSON to a file with
// 0644 permissions.
func WriteRecords(records []tree.Record, path string) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
