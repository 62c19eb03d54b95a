// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Field represents a structured logging field with a key-value pair.
type Field struct {
	Key   string
	Value interface{}
}

// Logger defines the interface for structured logging throughout the client.
// Protocol traces (unknown messages, oversized frames, reconnects) are
// reported through it.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With creates a new logger instance with the provided fields pre-populated.
	With(fields ...Field) Logger
}

// NoOpLogger is a Logger implementation that discards all log messages.
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}

// With returns the receiver; a NoOpLogger has no context to extend.
func (l *NoOpLogger) With(fields ...Field) Logger {
	return l
}

// StandardLogger wraps Go's standard log package to implement the Logger interface.
type StandardLogger struct {
	// Logger is the underlying standard library logger.
	Logger *log.Logger

	contextFields []Field
}

func (l *StandardLogger) ensureLogger() *log.Logger {
	if l.Logger == nil {
		l.Logger = log.New(os.Stderr, "SYNERGY: ", log.LstdFlags|log.Lmicroseconds)
	}
	return l.Logger
}

func (l *StandardLogger) formatMessage(level, msg string, fields ...Field) string {
	var sb strings.Builder
	sb.WriteString(level)
	sb.WriteByte(' ')
	sb.WriteString(msg)
	for _, field := range l.contextFields {
		sb.WriteString(" " + field.Key + "=" + formatFieldValue(field.Value))
	}
	for _, field := range fields {
		sb.WriteString(" " + field.Key + "=" + formatFieldValue(field.Value))
	}
	return sb.String()
}

// formatFieldValue converts a field value to a string representation for logging.
// Strings containing whitespace and errors are quoted.
func formatFieldValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		if strings.ContainsAny(v, " \t\r\n") {
			return `"` + v + `"`
		}
		return v
	case error:
		return `"` + v.Error() + `"`
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Debug logs a debug-level message with structured fields.
func (l *StandardLogger) Debug(msg string, fields ...Field) {
	l.ensureLogger().Print(l.formatMessage("[DEBUG]", msg, fields...))
}

// Info logs an info-level message with structured fields.
func (l *StandardLogger) Info(msg string, fields ...Field) {
	l.ensureLogger().Print(l.formatMessage("[INFO]", msg, fields...))
}

// Warn logs a warning-level message with structured fields.
func (l *StandardLogger) Warn(msg string, fields ...Field) {
	l.ensureLogger().Print(l.formatMessage("[WARN]", msg, fields...))
}

// Error logs an error-level message with structured fields.
func (l *StandardLogger) Error(msg string, fields ...Field) {
	l.ensureLogger().Print(l.formatMessage("[ERROR]", msg, fields...))
}

// With creates a new StandardLogger sharing the same output with additional
// context fields included in every subsequent message.
func (l *StandardLogger) With(fields ...Field) Logger {
	newContextFields := make([]Field, 0, len(l.contextFields)+len(fields))
	newContextFields = append(newContextFields, l.contextFields...)
	newContextFields = append(newContextFields, fields...)

	return &StandardLogger{
		Logger:        l.ensureLogger(),
		contextFields: newContextFields,
	}
}
