package issue

import (
	"regexp"
	"strings"
)

// blockSeparator matches a blank line, possibly containing other whitespace.
var blockSeparator = regexp.MustCompile(`\n\s*\n`)

// Parse splits a raw model report into blank-line separated blocks and extracts
// one Record per block that carries a snippet label.
//
// Parse never fails. Blocks without a recognizable snippet (preamble, closing
// remarks) are dropped silently, so garbage input yields an empty slice.
func Parse(raw string) []Record {
	records := []Record{}

	for _, block := range blockSeparator.Split(raw, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		record, ok := parseBlock(block)
		if ok {
			records = append(records, record)
		}
	}

	return records
}

// parseBlock extracts the four fields from a single block.
func parseBlock(block string) (Record, bool) {
	snippet, ok := findField(block, FieldSnippet)
	if !ok {
		return Record{}, false
	}

	cause, _ := findField(block, FieldCause)
	resolution, _ := findField(block, FieldResolution)
	severity, ok := findField(block, FieldSeverity)
	if !ok {
		severity = DefaultSeverity
	}

	return Record{
		Snippet:    snippet,
		Cause:      cause,
		Resolution: resolution,
		Severity:   severity,
	}, true
}

// findField returns the trimmed value of the first occurrence of the field's label.
func findField(block string, f Field) (string, bool) {
	m := fieldPatterns[f].FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	value := strings.TrimSpace(m[1])
	return value, value != ""
}
