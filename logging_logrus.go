// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus entry to the Logger interface.
type LogrusLogger struct {
	Entry *logrus.Entry
}

// NewLogrusLogger returns a Logger backed by l. A nil l uses the logrus
// standard logger.
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &LogrusLogger{Entry: logrus.NewEntry(l)}
}

func logrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

func (l *LogrusLogger) entry(fields []Field) *logrus.Entry {
	if l.Entry == nil {
		l.Entry = logrus.NewEntry(logrus.StandardLogger())
	}
	if len(fields) == 0 {
		return l.Entry
	}
	return l.Entry.WithFields(logrusFields(fields))
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) { l.entry(fields).Debug(msg) }
func (l *LogrusLogger) Info(msg string, fields ...Field)  { l.entry(fields).Info(msg) }
func (l *LogrusLogger) Warn(msg string, fields ...Field)  { l.entry(fields).Warn(msg) }
func (l *LogrusLogger) Error(msg string, fields ...Field) { l.entry(fields).Error(msg) }

// With returns a LogrusLogger whose entry carries the given fields.
func (l *LogrusLogger) With(fields ...Field) Logger {
	return &LogrusLogger{Entry: l.entry(fields)}
}
