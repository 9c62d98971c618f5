// Package export writes ranked issue records to CSV, JSON and YAML files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olegiv/logissue-ai-go/internal/issue"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// reportSuffix is appended to the source base name by DefaultFilename.
const reportSuffix = "_ai_report"

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(w io.Writer, records []issue.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(issue.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records as a JSON array indented with two spaces.
// A nil slice is written as []. Log text is written as is, so <, > and & are
// not escaped.
func WriteJSON(w io.Writer, records []issue.Record) error {
	if records == nil {
		records = []issue.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ReadJSON reads records previously written by WriteJSON.
func ReadJSON(r io.Reader) ([]issue.Record, error) {
	var records []issue.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if records == nil {
		records = []issue.Record{}
	}
	return records, nil
}

// WriteYAML writes the records as a YAML sequence.
func WriteYAML(w io.Writer, records []issue.Record) error {
	if records == nil {
		records = []issue.Record{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// Write dispatches to the writer for format.
func Write(w io.Writer, format string, records []issue.Record) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatYAML:
		return WriteYAML(w, records)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// FormatFromPath picks the export format from the file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot infer export format from %q (use .csv, .json, .yaml or .yml)", path)
	}
}

// WriteFile creates path and writes the records in the format implied by its
// extension. Parent directories are created as needed.
func WriteFile(path string, records []issue.Record) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()

	return Write(f, format, records)
}

// DefaultFilename returns <base>_ai_report.<format> for a log source path,
// where base is the last path element without its extension.
func DefaultFilename(sourcePath, format string) string {
	base := filepath.Base(filepath.Clean(sourcePath))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "logs"
	}
	return base + reportSuffix + "." + format
}
