// Package analyzer provides the interfaces a log source implements and the
// pipeline that turns log content into ranked issue records.
package analyzer

import (
	"math"
	"strings"
)

// NoReadableContent is returned by LogReader.Read when the source exists but
// yields no text.
const NoReadableContent = "No readable log content found."

// EstimateTokens estimates the number of tokens in the content.
// Uses the algorithm: max(chars/4, words/0.75)
func EstimateTokens(content string) int {
	chars := len(content)
	words := len(strings.Fields(content))

	charsEstimate := chars / 4
	wordsEstimate := int(float64(words) / 0.75)

	if charsEstimate > wordsEstimate {
		return charsEstimate
	}
	return wordsEstimate
}

// LogReader reads log content from a source.
type LogReader interface {
	// Read reads log content from the specified source path.
	// Returns the processed content ready for analysis, or NoReadableContent.
	Read(sourcePath string) (string, error)

	// GetSourceInfo returns the number of matching files and their total size.
	GetSourceInfo(sourcePath string) (*SourceInfo, error)
}

// SourceInfo summarizes a log source before analysis.
type SourceInfo struct {
	Path      string
	Files     int
	SizeBytes int64
}

// SizeKB returns the total size in kilobytes rounded to two decimals.
func (s *SourceInfo) SizeKB() float64 {
	return math.Round(float64(s.SizeBytes)/1024*100) / 100
}

// Preprocessor handles content preprocessing for large logs.
// Reduces token count while preserving critical information.
type Preprocessor interface {
	// EstimateTokens estimates the number of tokens in the content.
	EstimateTokens(content string) int

	// Process preprocesses content to reduce size while preserving critical info.
	// Returns processed content or original if no processing needed.
	Process(content string) (string, error)

	// ShouldProcess determines if preprocessing is needed based on token count.
	ShouldProcess(content string, maxTokens int) bool
}

// Sanitizer redacts sensitive substrings before text is sent to a model.
type Sanitizer interface {
	Sanitize(text string) string
}

// PromptBuilder embeds sanitized log text into the model instructions.
type PromptBuilder interface {
	// Build returns the single user prompt for the model.
	Build(sanitizedLogs string) string

	// GetLogType returns the type identifier (e.g., "logfiles").
	GetLogType() string
}

// LogSource bundles all components needed to analyze a specific log type.
type LogSource struct {
	Reader        LogReader
	Sanitizer     Sanitizer
	PromptBuilder PromptBuilder
}
