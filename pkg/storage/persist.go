package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gsvbatch/pkg/streetview"
)

// SaveLinks writes the URL list to a text file, one link per line with a
// single trailing newline. Always a full overwrite.
func SaveLinks(path string, links []string) error {
	data := strings.Join(links, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write links file: %w", err)
	}
	return nil
}

// SaveMetadata writes the metadata records to a JSON array file. In append
// mode the existing array is loaded first and the new records are
// concatenated after it; the combined array is then written back whole.
// A malformed existing file is a fatal error since merging is impossible.
func SaveMetadata(path string, records []streetview.Record, appendMode bool) error {
	out := records

	if appendMode {
		existing, err := LoadMetadata(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load existing metadata: %w", err)
			}
		} else {
			out = append(existing, records...)
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// LoadMetadata reads a JSON array of metadata records from disk. The
// os.IsNotExist predicate works on the returned error when the file is
// missing.
func LoadMetadata(path string) ([]streetview.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []streetview.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file %s: %w", path, err)
	}

	return records, nil
}
