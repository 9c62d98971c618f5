package issue

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_SingleBlock(t *testing.T) {
	raw := "Log snippet: disk full on /var\nProbable Root Cause: no free space\nSuggested Resolution: clear logs\nSeverity: Critical"

	got := Parse(raw)
	want := []Record{{
		Snippet:    "disk full on /var",
		Cause:      "no free space",
		Resolution: "clear logs",
		Severity:   "Critical",
	}}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParse_TwoBlocksKeepOrder(t *testing.T) {
	raw := `Log snippet: connection timeout to db
Probable Root Cause: database overloaded
Suggested Resolution: scale the database
Severity: Warning

Log snippet: NullPointerException in handler
Probable Root Cause: missing nil check
Suggested Resolution: validate input
Severity: Error`

	got := Parse(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	if got[0].Snippet != "connection timeout to db" {
		t.Errorf("first snippet = %q", got[0].Snippet)
	}
	if got[1].Snippet != "NullPointerException in handler" {
		t.Errorf("second snippet = %q", got[1].Snippet)
	}
}

func TestParse_DropsProse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "empty", raw: "", want: 0},
		{name: "whitespace only", raw: " \n\n\t\n ", want: 0},
		{name: "healthy statement", raw: "The logs look healthy overall.", want: 0},
		{name: "garbage", raw: "%%%\n\n###\x00\n\n}{", want: 0},
		{
			name: "preamble and epilogue around one issue",
			raw:  "Here is my analysis of the logs.\n\nLog snippet: OOM killed worker\nSeverity: Critical\n\nLet me know if you need more help.",
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got == nil {
				t.Fatal("Parse returned nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("len(Parse()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	got := Parse("Issue: service restarted unexpectedly")
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	r := got[0]
	if r.Cause != "" || r.Resolution != "" {
		t.Errorf("expected empty cause/resolution, got %q / %q", r.Cause, r.Resolution)
	}
	if r.Severity != DefaultSeverity {
		t.Errorf("Severity = %q, want %q", r.Severity, DefaultSeverity)
	}
}

func TestParse_LabelVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Record
	}{
		{
			name: "short labels with dash delimiter",
			raw:  "Error- cannot bind port 80\nCause- port in use\nResolution- stop the other process\nSeverity- High",
			want: Record{Snippet: "cannot bind port 80", Cause: "port in use", Resolution: "stop the other process", Severity: "High"},
		},
		{
			name: "case insensitive and not anchored",
			raw:  "1. LOG SNIPPET: segfault in libc\n   probable root cause: bad pointer\n   suggested resolution: upgrade\n   severity: critical",
			want: Record{Snippet: "segfault in libc", Cause: "bad pointer", Resolution: "upgrade", Severity: "critical"},
		},
		{
			name: "warning label as snippet",
			raw:  "Warning: certificate expires in 3 days\nSeverity: Medium",
			want: Record{Snippet: "certificate expires in 3 days", Severity: "Medium"},
		},
		{
			name: "unrecognized severity kept verbatim",
			raw:  "Issue: odd message\nSeverity: Spooky",
			want: Record{Snippet: "odd message", Severity: "Spooky"},
		},
		{
			name: "windows line endings",
			raw:  "Log snippet: disk full\r\nProbable Root Cause: logs\r\nSeverity: Low\r\n",
			want: Record{Snippet: "disk full", Cause: "logs", Severity: "Low"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if len(got) != 1 {
				t.Fatalf("expected 1 record, got %d: %+v", len(got), got)
			}
			if got[0] != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got[0], tt.want)
			}
		})
	}
}

func TestParse_SingleLineCapture(t *testing.T) {
	raw := "Log snippet: request failed\nProbable Root Cause: upstream was slow\nand then crashed\nSeverity: High"

	got := Parse(raw)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Cause != "upstream was slow" {
		t.Errorf("Cause = %q, want only the first line", got[0].Cause)
	}
}

func TestParse_EmptySnippetDropsBlock(t *testing.T) {
	got := Parse("Log snippet:   \nSeverity: High")
	if len(got) != 0 {
		t.Errorf("expected block without snippet text to be dropped, got %+v", got)
	}
}

func TestParse_SnippetsNeverEmpty(t *testing.T) {
	inputs := []string{
		"Issue:\n\nIssue: x",
		"Error - y\n\nWarning:\t\n\nLog snippet: z",
		strings.Repeat("Log snippet: a\nSeverity: Low\n\n", 5),
	}
	for _, in := range inputs {
		for _, r := range Parse(in) {
			if strings.TrimSpace(r.Snippet) == "" {
				t.Errorf("empty snippet parsed from %q", in)
			}
		}
	}
}

func TestPromptLabelsAreParseable(t *testing.T) {
	var b strings.Builder
	for _, l := range Labels {
		b.WriteString(l.Canonical + ": value for " + l.Canonical + "\n")
	}

	got := Parse(b.String())
	if len(got) != 1 {
		t.Fatalf("expected canonical labels to produce 1 record, got %d", len(got))
	}
	if got[0].Snippet != "value for Log snippet" {
		t.Errorf("Snippet = %q", got[0].Snippet)
	}
	if got[0].Severity != "value for Severity" {
		t.Errorf("Severity = %q", got[0].Severity)
	}
}
