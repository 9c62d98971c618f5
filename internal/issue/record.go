// Package issue turns the model's free-form analysis into typed issue records
// and provides the ordering and filtering applied before display and export.
package issue

import "strings"

// Known severities, most urgent first.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityError    = "Error"
	SeverityWarning  = "Warning"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
	SeverityInfo     = "Info"
)

// DefaultSeverity is assigned when the model omits the severity line.
const DefaultSeverity = SeverityInfo

// Record is one problem described in the model's analysis.
// Records are values: ranking and filtering return new slices and never modify them.
type Record struct {
	Snippet    string `json:"Issue" yaml:"Issue"`
	Cause      string `json:"Cause" yaml:"Cause"`
	Resolution string `json:"Resolution" yaml:"Resolution"`
	Severity   string `json:"Severity" yaml:"Severity"`
}

// Columns is the column order used by tabular exports.
var Columns = []string{"Issue", "Cause", "Resolution", "Severity"}

// Row returns the record fields in Columns order.
func (r Record) Row() []string {
	return []string{r.Snippet, r.Cause, r.Resolution, r.Severity}
}

// Contains reports whether keyword occurs, ignoring case, in any field of the record.
func (r Record) Contains(keyword string) bool {
	text := strings.ToLower(strings.Join(r.Row(), "\n"))
	return strings.Contains(text, strings.ToLower(keyword))
}
