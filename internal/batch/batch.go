// Package batch reads and writes record batches: JSON arrays of PSC records.
package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/UnknownOlympus/pscgeo/internal/models"
)

// defaultMode is the permission of a newly created batch file.
const defaultMode = 0o644

// Read decodes the record array stored at path.
func Read(path string) ([]models.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch: %w", err)
	}
	defer file.Close()

	var records []models.Record
	if err = json.NewDecoder(bufio.NewReader(file)).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode batch %s: %w", path, err)
	}

	return records, nil
}

// Write stores records at path as an indented JSON array. The batch is
// written to a temporary file in the same directory and renamed into place,
// so an interrupted run never leaves a truncated output. An existing file
// keeps its permissions; a new one gets 0644.
func Write(path string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary batch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	writer := bufio.NewWriter(tmp)
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err = encoder.Encode(records); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	if err = writer.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write batch: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	mode := os.FileMode(defaultMode)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err = os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("failed to set batch permissions: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move batch into place: %w", err)
	}

	return nil
}
