package issue

import (
	"regexp"
	"strings"
)

// Field identifies one of the four labeled lines of an issue block.
type Field int

const (
	FieldSnippet Field = iota
	FieldCause
	FieldResolution
	FieldSeverity
)

// Label describes how a field is introduced in the model output.
// Canonical is the spelling requested in the prompt; Aliases are every spelling
// the parser accepts, Canonical included.
type Label struct {
	Field     Field
	Canonical string
	Aliases   []string
}

// Labels is shared by the prompt template and the parser. Changing a label here
// changes both sides at once.
var Labels = []Label{
	{Field: FieldSnippet, Canonical: "Log snippet", Aliases: []string{"Log snippet", "Issue", "Error", "Warning"}},
	{Field: FieldCause, Canonical: "Probable Root Cause", Aliases: []string{"Probable Root Cause", "Cause"}},
	{Field: FieldResolution, Canonical: "Suggested Resolution", Aliases: []string{"Suggested Resolution", "Resolution"}},
	{Field: FieldSeverity, Canonical: "Severity", Aliases: []string{"Severity"}},
}

// LabelFor returns the label entry for a field.
func LabelFor(f Field) Label {
	for _, l := range Labels {
		if l.Field == f {
			return l
		}
	}
	return Label{}
}

// fieldPatterns holds one compiled matcher per field, built from Labels.
var fieldPatterns = compileFieldPatterns()

func compileFieldPatterns() map[Field]*regexp.Regexp {
	patterns := make(map[Field]*regexp.Regexp, len(Labels))
	for _, l := range Labels {
		alts := make([]string, len(l.Aliases))
		for i, a := range l.Aliases {
			alts[i] = regexp.QuoteMeta(a)
		}
		// Label, then ':' or '-', then the rest of the same line.
		expr := `(?i)(?:` + strings.Join(alts, "|") + `)[:\-][^\S\n]*(\S.*)`
		patterns[l.Field] = regexp.MustCompile(expr)
	}
	return patterns
}
