package logfiles

import (
	"fmt"
	"strings"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/issue"
)

// Compile-time interface check
var _ analyzer.PromptBuilder = (*PromptBuilder)(nil)

// PromptBuilder implements analyzer.PromptBuilder for plain application logs.
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// GetLogType returns the log type identifier.
func (p *PromptBuilder) GetLogType() string {
	return "logfiles"
}

// Build embeds already sanitized log text into the analysis instructions.
// The labels the model is asked to use come from issue.Labels, the same table
// the report parser matches against.
func (p *PromptBuilder) Build(sanitizedLogs string) string {
	snippet := issue.LabelFor(issue.FieldSnippet).Canonical
	cause := issue.LabelFor(issue.FieldCause).Canonical
	resolution := issue.LabelFor(issue.FieldResolution).Canonical
	severity := issue.LabelFor(issue.FieldSeverity).Canonical

	var prompt strings.Builder

	prompt.WriteString("You are an expert IT operations assistant. Analyze the following application logs and identify each distinct issue.\n\n")
	prompt.WriteString("For each issue, provide:\n")
	fmt.Fprintf(&prompt, "1. %s (a short 1-line excerpt from the log)\n", snippet)
	fmt.Fprintf(&prompt, "2. %s (explain briefly)\n", cause)
	fmt.Fprintf(&prompt, "3. %s (practical fix or next step)\n", resolution)
	fmt.Fprintf(&prompt, "4. %s (one of: %s)\n\n", severity, strings.Join(issue.KnownSeverities(), ", "))

	prompt.WriteString("Format your answer EXACTLY as below, keeping every value on a single line:\n\n")
	fmt.Fprintf(&prompt, "%s: <excerpt>\n", snippet)
	fmt.Fprintf(&prompt, "%s: <cause>\n", cause)
	fmt.Fprintf(&prompt, "%s: <resolution>\n", resolution)
	fmt.Fprintf(&prompt, "%s: <level>\n\n", severity)

	prompt.WriteString("Separate multiple issues with one blank line.\n\n")
	prompt.WriteString("Logs:\n")
	prompt.WriteString(sanitizedLogs)
	prompt.WriteString("\n")

	return prompt.String()
}
