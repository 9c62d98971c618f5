// Package logging wraps the application logger so that string fields, errors
// and messages are scrubbed of credentials before they are written.
package logging

import (
	"time"

	"github.com/olegiv/go-logger"
	internalerrors "github.com/olegiv/logissue-ai-go/internal/errors"
	"github.com/rs/zerolog"
)

// SecureLogger wraps a logger.Logger and sanitizes all string values.
// A nil *SecureLogger, or one built around a nil logger, discards everything,
// so components can take an optional logger without nil checks.
type SecureLogger struct {
	log *logger.Logger
}

// NewSecure creates a new SecureLogger wrapper around the provided logger.
func NewSecure(log *logger.Logger) *SecureLogger {
	return &SecureLogger{log: log}
}

// Nop returns a logger that discards all events.
func Nop() *SecureLogger {
	return &SecureLogger{}
}

// SecureEvent wraps a zerolog Event. A nil event is a no-op, as in zerolog.
type SecureEvent struct {
	event *zerolog.Event
}

func (s *SecureLogger) enabled() bool {
	return s != nil && s.log != nil
}

// Info starts a new info-level log event.
func (s *SecureLogger) Info() *SecureEvent {
	if !s.enabled() {
		return &SecureEvent{}
	}
	return &SecureEvent{event: s.log.Info()}
}

// Debug starts a new debug-level log event.
func (s *SecureLogger) Debug() *SecureEvent {
	if !s.enabled() {
		return &SecureEvent{}
	}
	return &SecureEvent{event: s.log.Debug()}
}

// Warn starts a new warn-level log event.
func (s *SecureLogger) Warn() *SecureEvent {
	if !s.enabled() {
		return &SecureEvent{}
	}
	return &SecureEvent{event: s.log.Warn()}
}

// Error starts a new error-level log event.
func (s *SecureLogger) Error() *SecureEvent {
	if !s.enabled() {
		return &SecureEvent{}
	}
	return &SecureEvent{event: s.log.Error()}
}

// Close closes the underlying logger.
func (s *SecureLogger) Close() error {
	if !s.enabled() {
		return nil
	}
	return s.log.Close()
}

// Str adds a string field with credentials redacted.
func (e *SecureEvent) Str(key, val string) *SecureEvent {
	e.event.Str(key, internalerrors.SanitizeString(val))
	return e
}

// Strs adds a string slice field with credentials redacted.
func (e *SecureEvent) Strs(key string, vals []string) *SecureEvent {
	sanitized := make([]string, len(vals))
	for i, v := range vals {
		sanitized[i] = internalerrors.SanitizeString(v)
	}
	e.event.Strs(key, sanitized)
	return e
}

// Int adds an integer field to the log event.
func (e *SecureEvent) Int(key string, val int) *SecureEvent {
	e.event.Int(key, val)
	return e
}

// Int64 adds an int64 field to the log event.
func (e *SecureEvent) Int64(key string, val int64) *SecureEvent {
	e.event.Int64(key, val)
	return e
}

// Float64 adds a float64 field to the log event.
func (e *SecureEvent) Float64(key string, val float64) *SecureEvent {
	e.event.Float64(key, val)
	return e
}

// Bool adds a boolean field to the log event.
func (e *SecureEvent) Bool(key string, val bool) *SecureEvent {
	e.event.Bool(key, val)
	return e
}

// Dur adds a duration field to the log event.
func (e *SecureEvent) Dur(key string, val time.Duration) *SecureEvent {
	e.event.Dur(key, val)
	return e
}

// Err adds an error field with credentials redacted from its message.
func (e *SecureEvent) Err(err error) *SecureEvent {
	if err != nil {
		e.event.Err(internalerrors.SanitizeError(err))
	}
	return e
}

// Msg sends the log event with a sanitized message.
func (e *SecureEvent) Msg(msg string) {
	e.event.Msg(internalerrors.SanitizeString(msg))
}

// Msgf sends a formatted log event. Only string and error arguments are
// sanitized; other types pass through unchanged.
func (e *SecureEvent) Msgf(format string, v ...interface{}) {
	sanitizedArgs := make([]interface{}, len(v))
	for i, arg := range v {
		switch a := arg.(type) {
		case string:
			sanitizedArgs[i] = internalerrors.SanitizeString(a)
		case error:
			sanitizedArgs[i] = internalerrors.SanitizeError(a)
		default:
			sanitizedArgs[i] = arg
		}
	}
	e.event.Msgf(format, sanitizedArgs...)
}

// Interface adds an interface field. String values are sanitized, anything
// else is logged as is.
func (e *SecureEvent) Interface(key string, val interface{}) *SecureEvent {
	if s, ok := val.(string); ok {
		e.event.Str(key, internalerrors.SanitizeString(s))
	} else {
		e.event.Interface(key, val)
	}
	return e
}
