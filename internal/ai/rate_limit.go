package ai

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/ollama/ollama/api"
)

const (
	// rateLimitBaseBackoff is the initial wait time for rate limit errors.
	// Token-based rate limits of hosted providers reset per minute.
	rateLimitBaseBackoff = 60 * time.Second

	// rateLimitMaxBackoff is the maximum wait time for rate limit errors
	rateLimitMaxBackoff = 120 * time.Second
)

// statusCode extracts an HTTP status from provider error types, or 0.
func statusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) {
		return ollamaErr.StatusCode
	}
	return 0
}

// isRateLimitError detects if an error is a rate limit error from any LLM provider.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRateLimitErr()
	}

	if statusCode(err) == http.StatusTooManyRequests {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate_limit_error") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "too many requests")
}

// isOverloadedError detects if an error indicates API overload.
// Overloaded errors are treated like rate limits.
func isOverloadedError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsOverloadedErr()
	}

	if statusCode(err) == http.StatusServiceUnavailable {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "503")
}

// isPermanentError reports errors that another attempt cannot fix:
// bad credentials, rejected requests and unknown models.
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == anthropic.ErrTypeAuthentication ||
			apiErr.Type == anthropic.ErrTypeInvalidRequest
	}

	switch statusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// getBackoffDuration returns the appropriate backoff duration based on error type.
// Rate limit and overload errors wait 60-120 seconds, everything else uses
// exponential backoff (2^n seconds).
func getBackoffDuration(err error, attempt int) time.Duration {
	if isRateLimitError(err) || isOverloadedError(err) {
		backoff := rateLimitBaseBackoff * time.Duration(attempt)
		if backoff > rateLimitMaxBackoff {
			return rateLimitMaxBackoff
		}
		return backoff
	}

	return time.Duration(1<<attempt) * time.Second
}
