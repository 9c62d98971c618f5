package logfiles

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewPreprocessor(t *testing.T) {
	p := NewPreprocessor(150000)
	if p == nil {
		t.Fatal("Expected preprocessor to be created")
	}
	if p.maxTokens != 150000 {
		t.Errorf("Expected maxTokens 150000, got %d", p.maxTokens)
	}
}

func TestShouldProcess(t *testing.T) {
	p := NewPreprocessor(10)
	if p.ShouldProcess("short", 10) {
		t.Error("short content should not need processing")
	}
	if !p.ShouldProcess(strings.Repeat("word ", 100), 10) {
		t.Error("long content should need processing")
	}
}

func TestNormalizeLine(t *testing.T) {
	p := NewPreprocessor(100)

	a := p.normalizeLine("2024-01-02 10:11:12 conn from 10.0.0.1 id 42 failed")
	b := p.normalizeLine("2024-03-04 23:59:01 conn from 10.0.0.9 id 7 failed")
	if a != b {
		t.Errorf("expected lines to normalize equally: %q vs %q", a, b)
	}
	if p.normalizeLine("   ") != "" {
		t.Error("blank line should normalize to empty string")
	}
}

func TestDeduplicateContent(t *testing.T) {
	p := NewPreprocessor(100)

	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("retry %d for job", i))
	}
	lines = append(lines, "unique line")

	got := p.deduplicateContent(strings.Join(lines, "\n"))
	if !strings.Contains(got, "retry 0 for job (occurred 20 times)") {
		t.Errorf("expected grouped line, got %q", got)
	}
	if !strings.Contains(got, "unique line") {
		t.Errorf("expected unique line kept, got %q", got)
	}
}

func TestDeduplicateContent_SmallInputUnchanged(t *testing.T) {
	p := NewPreprocessor(100)
	in := "a\na\na"
	if got := p.deduplicateContent(in); got != in {
		t.Errorf("small input changed: %q", got)
	}
}

func TestLinePriority(t *testing.T) {
	p := NewPreprocessor(100)

	tests := []struct {
		line string
		want int
	}{
		{"FATAL out of memory", priorityHigh},
		{"java.lang.NullPointerException", priorityHigh},
		{"WARN slow query", priorityMedium},
		{"request timed out", priorityMedium},
		{"INFO started", priorityLow},
	}
	for _, tt := range tests {
		if got := p.linePriority(tt.line); got != tt.want {
			t.Errorf("linePriority(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestProcess_KeepsHighPriorityLines(t *testing.T) {
	p := NewPreprocessor(50)

	var b strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "INFO request handled path=/api/v%c\n", 'a'+rune(i%26))
		if i%50 == 0 {
			fmt.Fprintf(&b, "ERROR disk failure on volume %c\n", 'a'+rune(i/50))
		}
	}

	got, err := p.Process(b.String())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(got, "ERROR disk failure") {
		t.Error("expected error lines to survive compression")
	}
	if !strings.Contains(got, "lower priority lines omitted") {
		t.Errorf("expected omission marker, got %q", got)
	}
}
