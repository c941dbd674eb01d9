// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger is the process-wide leveled logger every other package
// in this module logs through, instead of fmt.Println or the stdlib log
// package. Grounded on the teacher's internal/logger (see its
// logger_test.go): a log/slog-backed logger with TRACE/DEBUG/INFO/
// WARNING/ERROR severities, selectable text or JSON output.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Severity levels, ordered TRACE (most verbose) to OFF (nothing logged).
// These map onto slog.Level with the spacing slog itself uses between
// Debug/Info/Warn/Error so TRACE can sit one notch below Debug.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	LevelOff   = slog.Level(16)
)

const (
	TRACE   = "TRACE"
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	WARNING = "WARNING"
	ERROR   = "ERROR"
	OFF     = "OFF"
)

type loggerFactory struct {
	out    io.Writer
	format string // "text" or "json"
	level  *slog.LevelVar
}

var (
	defaultLoggerFactory = &loggerFactory{
		out:    os.Stderr,
		format: "text",
		level:  new(slog.LevelVar),
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, defaultLoggerFactory.level, ""))
)

// replaceAttr rewrites slog's Level attribute to this package's severity
// vocabulary (INFO/WARNING/... rather than slog's INFO/WARN/...), and
// renders timestamps the way the teacher's text/JSON handlers do.
func (f *loggerFactory) replaceAttr(prefix string) func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.LevelKey:
			level := a.Value.Any().(slog.Level)
			return slog.Attr{Key: "severity", Value: slog.StringValue(severityName(level))}
		case slog.TimeKey:
			if f.format == "json" {
				t := a.Value.Time()
				return slog.Attr{Key: "timestamp", Value: slog.GroupValue(
					slog.Int64("seconds", t.Unix()),
					slog.Int64("nanos", int64(t.Nanosecond())),
				)}
			}
			return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format("2006/01/02 15:04:05.000000"))}
		case slog.MessageKey:
			return slog.Attr{Key: "message", Value: slog.StringValue(prefix + a.Value.String())}
		}
		return a
	}
}

func severityName(l slog.Level) string {
	switch {
	case l < LevelDebug:
		return TRACE
	case l < LevelInfo:
		return DEBUG
	case l < LevelWarn:
		return INFO
	case l < LevelError:
		return WARNING
	default:
		return ERROR
	}
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: f.replaceAttr(prefix),
	}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetLevel sets the minimum severity that will be logged. level is one of
// TRACE/DEBUG/INFO/WARNING/ERROR/OFF (case-insensitive).
func SetLevel(level string) {
	setLoggingLevel(level, defaultLoggerFactory.level)
	rebuild()
}

func setLoggingLevel(level string, v *slog.LevelVar) {
	switch strings.ToUpper(level) {
	case TRACE:
		v.Set(LevelTrace)
	case DEBUG:
		v.Set(LevelDebug)
	case INFO:
		v.Set(LevelInfo)
	case WARNING:
		v.Set(LevelWarn)
	case ERROR:
		v.Set(LevelError)
	case OFF:
		v.Set(LevelOff)
	default:
		v.Set(LevelInfo)
	}
}

// SetFormat selects "text" or "json" output; any other value (including
// "") defaults to "json", matching the teacher's SetLogFormat behavior.
func SetFormat(format string) {
	if format != "text" {
		format = "json"
	}
	defaultLoggerFactory.format = format
	rebuild()
}

// SetOutput redirects log output, e.g. to a log file opened by cmd.
func SetOutput(w io.Writer) {
	defaultLoggerFactory.out = w
	rebuild()
}

func rebuild() {
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.out, defaultLoggerFactory.level, ""))
}

func logf(level slog.Level, format string, args ...interface{}) {
	ctx := context.Background()
	if !defaultLogger.Enabled(ctx, level) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	defaultLogger.Log(ctx, level, msg)
}

func Tracef(format string, args ...interface{}) { logf(LevelTrace, format, args...) }
func Debugf(format string, args ...interface{}) { logf(LevelDebug, format, args...) }
func Infof(format string, args ...interface{})  { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...interface{})  { logf(LevelWarn, format, args...) }
func Errorf(format string, args ...interface{}) { logf(LevelError, format, args...) }

// Now exists so tests can assert monotonic log timestamps without
// depending on wall-clock flakiness elsewhere.
func Now() time.Time { return time.Now() }
