// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tenthirtyam/go-synergy"
)

// newLogger builds the client logger for the requested format. The returned
// function flushes buffered output and must be called before exit.
func newLogger(format, level string, out io.Writer) (synergy.Logger, func(), error) {
	switch format {
	case "text", "json":
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, nil, err
		}
		l := logrus.New()
		l.SetOutput(out)
		l.SetLevel(lvl)
		if format == "json" {
			l.SetFormatter(&logrus.JSONFormatter{})
		} else {
			l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}
		return synergy.NewLogrusLogger(l), func() {}, nil

	case "zap":
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, nil, err
		}
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(out),
			lvl,
		)
		l := zap.New(core)
		return synergy.NewZapLogger(l), func() { _ = l.Sync() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want text, json or zap)", format)
	}
}
