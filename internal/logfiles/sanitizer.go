package logfiles

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	internalerrors "github.com/olegiv/logissue-ai-go/internal/errors"
)

// Compile-time interface check
var _ analyzer.Sanitizer = (*Sanitizer)(nil)

// Redaction placeholders written by Sanitize.
const (
	PathPlaceholder = "[PATH_REDACTED]"
	IPPlaceholder   = "[IP_REDACTED]"
	UserPlaceholder = "[REDACTED]"
)

var (
	absolutePathPattern = regexp.MustCompile(`/[A-Za-z0-9_\-/.]+`)
	ipv4Pattern         = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)
	userPattern         = regexp.MustCompile(`(?i)user\s+[\p{L}\p{N}_]+`)
)

// Sanitize redacts absolute paths, IPv4 addresses and the token following the
// word "user", in that order, before log text leaves the process. Any casing of
// "user" is rewritten as lowercase "user [REDACTED]"; the token may contain
// letters and digits from any script.
//
// This is best-effort redaction, not a security guarantee: hostnames, e-mail
// addresses, IPv6, Windows paths and secrets in other shapes pass through, and
// slash-separated text that is not a path (dates, URLs) gets redacted too.
func Sanitize(text string) string {
	text = absolutePathPattern.ReplaceAllString(text, PathPlaceholder)
	text = ipv4Pattern.ReplaceAllString(text, IPPlaceholder)
	text = userPattern.ReplaceAllLiteralString(text, "user "+UserPlaceholder)
	return text
}

// Sanitizer implements analyzer.Sanitizer. It redacts credential shapes (API
// keys, bot tokens, passwords) and then applies Sanitize. When enabled,
// FilterInjection runs first.
type Sanitizer struct {
	filterInjection bool
}

// NewSanitizer creates a sanitizer.
func NewSanitizer(filterInjection bool) *Sanitizer {
	return &Sanitizer{filterInjection: filterInjection}
}

// Sanitize implements analyzer.Sanitizer.
func (s *Sanitizer) Sanitize(text string) string {
	if s.filterInjection {
		text = FilterInjection(text)
	}
	return Sanitize(internalerrors.SanitizeString(text))
}

// promptInjectionPatterns contains regex patterns for common prompt injection attempts
var promptInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+a`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
	regexp.MustCompile(`(?i)system\s*prompt\s*:`),
	regexp.MustCompile(`(?i)\bASSISTANT\s*:`),
	regexp.MustCompile(`(?i)\bHUMAN\s*:`),
}

var excessiveNewlines = regexp.MustCompile(`\n{4,}`)

// FilterInjection strips non-printable characters, replaces common prompt
// injection phrases with [FILTERED] and squeezes runs of blank lines.
func FilterInjection(content string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(content))

	for _, r := range content {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()
	for _, pattern := range promptInjectionPatterns {
		result = pattern.ReplaceAllString(result, "[FILTERED]")
	}

	return excessiveNewlines.ReplaceAllString(result, "\n\n\n")
}
