// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"go.uber.org/zap"
)

// ZapLogger adapts a zap logger to the Logger interface.
type ZapLogger struct {
	L *zap.Logger
}

// NewZapLogger returns a Logger backed by l. A nil l discards everything.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{L: l}
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.NamedError(f.Key, err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.L.Debug(msg, zapFields(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.L.Info(msg, zapFields(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.L.Warn(msg, zapFields(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.L.Error(msg, zapFields(fields)...) }

// With returns a ZapLogger with the fields attached to every entry.
func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{L: l.L.With(zapFields(fields)...)}
}
