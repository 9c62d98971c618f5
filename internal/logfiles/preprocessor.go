package logfiles

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
)

// Compile-time interface check
var _ analyzer.Preprocessor = (*Preprocessor)(nil)

// Line priorities used when content must be compressed.
const (
	priorityHigh   = 1
	priorityMedium = 2
	priorityLow    = 3
)

var (
	highPriorityKeywords = []string{
		"error", "fatal", "critical", "exception", "panic", "fail",
		"segfault", "oom", "killed", "denied", "unauthorized", "traceback",
	}
	mediumPriorityKeywords = []string{
		"warn", "timeout", "timed out", "retry", "refused", "deprecated",
		"slow", "disk", "memory",
	}
)

var (
	ipRegex        = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	timestampRegex = regexp.MustCompile(`\b\d{1,2}:\d{2}:\d{2}(?:[.,]\d+)?\b`)
	dateRegex      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{2}/\d{2}/\d{4}\b`)
	numberRegex    = regexp.MustCompile(`\b\d+\b`)
)

// Preprocessor shrinks oversized log content before it is sent to a model.
// Implements analyzer.Preprocessor interface.
type Preprocessor struct {
	maxTokens int
}

// NewPreprocessor creates a new preprocessor
func NewPreprocessor(maxTokens int) *Preprocessor {
	return &Preprocessor{
		maxTokens: maxTokens,
	}
}

// EstimateTokens delegates to analyzer.EstimateTokens.
func (p *Preprocessor) EstimateTokens(content string) int {
	return analyzer.EstimateTokens(content)
}

// ShouldProcess returns true if the estimated tokens exceed maxTokens.
func (p *Preprocessor) ShouldProcess(content string, maxTokens int) bool {
	return p.EstimateTokens(content) > maxTokens
}

// Process groups repeated lines and, if the result is still over budget,
// keeps every high priority line, half of the medium ones and a fifth of the rest.
func (p *Preprocessor) Process(content string) (string, error) {
	deduplicated := p.deduplicateContent(content)
	if p.EstimateTokens(deduplicated) <= p.maxTokens {
		return deduplicated, nil
	}

	return p.compressByPriority(deduplicated), nil
}

// deduplicateContent replaces similar lines with one example and an occurrence count
func (p *Preprocessor) deduplicateContent(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= 10 {
		return content
	}

	lineCounts := make(map[string]int)
	lineExamples := make(map[string]string)

	for _, line := range lines {
		normalized := p.normalizeLine(line)
		if normalized == "" {
			continue
		}
		lineCounts[normalized]++
		if lineExamples[normalized] == "" {
			lineExamples[normalized] = line
		}
	}

	var result strings.Builder
	processed := make(map[string]bool)

	for _, line := range lines {
		normalized := p.normalizeLine(line)
		if normalized == "" {
			continue
		}
		if processed[normalized] {
			continue
		}
		processed[normalized] = true

		if count := lineCounts[normalized]; count > 1 {
			fmt.Fprintf(&result, "%s (occurred %d times)\n", lineExamples[normalized], count)
		} else {
			result.WriteString(line + "\n")
		}
	}

	return result.String()
}

// normalizeLine masks IPs, times, dates and numbers so similar messages group together
func (p *Preprocessor) normalizeLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	line = ipRegex.ReplaceAllString(line, "IP")
	line = timestampRegex.ReplaceAllString(line, "TIME")
	line = dateRegex.ReplaceAllString(line, "DATE")
	line = numberRegex.ReplaceAllString(line, "N")

	return line
}

// linePriority classifies a log line by keyword
func (p *Preprocessor) linePriority(line string) int {
	lower := strings.ToLower(line)
	for _, keyword := range highPriorityKeywords {
		if strings.Contains(lower, keyword) {
			return priorityHigh
		}
	}
	for _, keyword := range mediumPriorityKeywords {
		if strings.Contains(lower, keyword) {
			return priorityMedium
		}
	}
	return priorityLow
}

// compressByPriority drops lower priority lines while keeping the original line order
func (p *Preprocessor) compressByPriority(content string) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")

	byPriority := map[int][]int{}
	for i, line := range lines {
		prio := p.linePriority(line)
		byPriority[prio] = append(byPriority[prio], i)
	}

	keep := make(map[int]bool, len(lines))
	for prio, indexes := range byPriority {
		var ratio float64
		switch prio {
		case priorityHigh:
			ratio = 1.0
		case priorityMedium:
			ratio = 0.5
		default:
			ratio = 0.2
		}
		keepCount := int(math.Ceil(float64(len(indexes)) * ratio))
		for _, idx := range indexes[:keepCount] {
			keep[idx] = true
		}
	}

	var result strings.Builder
	omitted := 0
	for i, line := range lines {
		if keep[i] {
			result.WriteString(line + "\n")
		} else {
			omitted++
		}
	}

	if omitted > 0 {
		fmt.Fprintf(&result, "\n[... %d lower priority lines omitted for brevity ...]\n", omitted)
	}

	return result.String()
}
