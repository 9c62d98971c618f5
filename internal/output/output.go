// Package output renders analysis results on the terminal.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/olegiv/logissue-ai-go/internal/export"
	"github.com/olegiv/logissue-ai-go/internal/issue"
)

// Output formats accepted by the CLI.
const (
	FormatHuman = "human"
	FormatJSON  = export.FormatJSON
	FormatYAML  = export.FormatYAML
	FormatCSV   = export.FormatCSV
)

// NoIssuesMessage is printed when ranking and filtering leave nothing to show.
const NoIssuesMessage = "No issues detected in logs."

// notAvailable stands in for fields the model left out.
const notAvailable = "Not available"

// Formats lists every supported output format.
func Formats() []string {
	return []string{FormatHuman, FormatJSON, FormatYAML, FormatCSV}
}

// IsValidFormat reports whether format is supported.
func IsValidFormat(format string) bool {
	for _, f := range Formats() {
		if f == format {
			return true
		}
	}
	return false
}

// Printer writes issue lists to w in one of the supported formats.
type Printer struct {
	w        io.Writer
	colorize bool
}

// NewPrinter creates a printer. Colours are used by the human format only,
// and only when colorize is true.
func NewPrinter(w io.Writer, colorize bool) *Printer {
	return &Printer{w: w, colorize: colorize}
}

// Print writes records in format. Machine formats always emit a document,
// an empty array included; the human format prints NoIssuesMessage instead.
func (p *Printer) Print(format string, records []issue.Record) error {
	switch format {
	case FormatHuman, "":
		return p.printHuman(records)
	case FormatJSON, FormatYAML, FormatCSV:
		return export.Write(p.w, format, records)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: %s)",
			format, strings.Join(Formats(), ", "))
	}
}

func (p *Printer) printHuman(records []issue.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(p.w, NoIssuesMessage)
		return err
	}

	bold := p.color(color.Bold)
	if _, err := bold.Fprintf(p.w, "Detected Issues (%d)\n\n", len(records)); err != nil {
		return err
	}

	for i, r := range records {
		heading := p.severityColor(r.Severity)
		if _, err := heading.Fprintf(p.w, "%d. %s - %s\n", i+1, r.Severity, r.Snippet); err != nil {
			return err
		}
		fmt.Fprintf(p.w, "   Log Snippet: %s\n", orNotAvailable(r.Snippet))
		fmt.Fprintf(p.w, "   Cause: %s\n", orNotAvailable(r.Cause))
		fmt.Fprintf(p.w, "   Suggested Resolution: %s\n", orNotAvailable(r.Resolution))
		if _, err := fmt.Fprintf(p.w, "   Severity: %s\n\n", r.Severity); err != nil {
			return err
		}
	}
	return nil
}

// severityColor maps a severity to its heading colour. Anything that is not
// Critical, Error or Warning is shown in blue.
func (p *Printer) severityColor(severity string) *color.Color {
	switch severity {
	case issue.SeverityCritical:
		return p.color(color.FgRed, color.Bold)
	case issue.SeverityError:
		return p.color(color.FgHiRed)
	case issue.SeverityWarning:
		return p.color(color.FgYellow)
	default:
		return p.color(color.FgBlue)
	}
}

func (p *Printer) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func orNotAvailable(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
