// Package errors redacts credentials from errors, log fields and log text
// before they are written anywhere or sent to a model provider.
package errors

import (
	"fmt"
	"regexp"
	"strings"
)

// credentialPattern is a named secret shape.
type credentialPattern struct {
	kind string
	re   *regexp.Regexp
}

// Order matters: the Anthropic prefix must win over the generic sk- key.
var credentialPatterns = []credentialPattern{
	{"anthropic_key", regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{10,}`)},
	{"openai_key", regexp.MustCompile(`sk-(?:proj-)?[a-zA-Z0-9_-]{32,}`)},
	{"telegram_token", regexp.MustCompile(`\d{8,12}:[a-zA-Z0-9_-]{30,}`)},
	{"aws_access_key", regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`)},
	{"bearer_token", regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_.-]+`)},
	{"authorization", regexp.MustCompile(`(?i)authorization[:\s]+[^\s]+`)},
	{"api_key", regexp.MustCompile(`(?i)api[_-]?key[=:][^\s&"']+`)},
	{"x_api_key", regexp.MustCompile(`(?i)x-api-key[:\s]+[^\s]+`)},
	{"password", regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)=[^\s&"']+`)},
}

const redactedPlaceholder = "[REDACTED]"

// SanitizeError returns err with credentials removed from its message.
// The original error stays reachable through Unwrap.
func SanitizeError(err error) error {
	if err == nil {
		return nil
	}

	sanitized := SanitizeString(err.Error())
	if sanitized == err.Error() {
		return err
	}

	return &sanitizedError{
		original:  err,
		sanitized: sanitized,
	}
}

// SanitizeString redacts credential patterns from a string.
func SanitizeString(s string) string {
	result := s
	for _, p := range credentialPatterns {
		result = p.re.ReplaceAllString(result, redactedPlaceholder)
	}
	return result
}

// Wrapf is fmt.Errorf("...: %w", err) for errors that may carry credentials,
// such as provider and Telegram API failures.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, SanitizeError(err))
}

type sanitizedError struct {
	original  error
	sanitized string
}

func (e *sanitizedError) Error() string {
	return e.sanitized
}

func (e *sanitizedError) Unwrap() error {
	return e.original
}

// CredentialKinds lists the kinds of credentials found in s, in pattern order.
// Matches are redacted before the next pattern runs, as in SanitizeString, so
// an Anthropic key is not reported again as a generic key.
func CredentialKinds(s string) []string {
	var kinds []string
	for _, p := range credentialPatterns {
		if p.re.MatchString(s) {
			kinds = append(kinds, p.kind)
			s = p.re.ReplaceAllString(s, redactedPlaceholder)
		}
	}
	return kinds
}

// MaskCredential partially masks a credential for display.
// Example: "sk-ant-api03-abc123..." -> "sk-ant-***..."
func MaskCredential(s string) string {
	if len(s) < 10 {
		return strings.Repeat("*", len(s))
	}

	switch {
	case strings.HasPrefix(s, "sk-ant-"):
		return "sk-ant-***..."
	case strings.HasPrefix(s, "sk-proj-"):
		return "sk-proj-***..."
	case strings.HasPrefix(s, "sk-"):
		return "sk-***..."
	}

	// Telegram bot token (number:token)
	if idx := strings.Index(s, ":"); idx > 0 && idx <= 12 {
		return s[:idx] + ":***..."
	}

	return s[:4] + "***..."
}
