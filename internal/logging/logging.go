// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package logging configures the process-wide zerolog.Logger and adapts it
// to the narrow logging surfaces the rest of this module needs, grounded
// on the LogAdapter shape in the example repo tzrikka/timpani's
// pkg/temporal/logger.go: a small wrapper type embedding a zerolog.Logger
// and translating a domain-specific method set onto zerolog's event
// builder, rather than passing *zerolog.Logger around directly.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the process-wide logger. pretty selects zerolog's
// human-readable console writer (for local/dev use); otherwise logs are
// newline-delimited JSON, suited to the log aggregation a real deployment
// of this node would run under.
func New(levelName string, pretty bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ShardLogger returns a child logger tagged with shard, one per reactor
// goroutine: each shard runs independently, and its log lines should be
// attributable to it without a mutex-guarded shared encoder.
func ShardLogger(base zerolog.Logger, shard int) zerolog.Logger {
	return base.With().Int("shard", shard).Logger()
}

// ConnLogger adapts a zerolog.Logger to the connLogger interface
// package conn declares, the same adapt-don't-wrap-every-call-site
// approach LogAdapter takes for Temporal's Logger interface.
type ConnLogger struct {
	zerolog zerolog.Logger
}

// NewConnLogger wraps base for use by one conn.Connection.
func NewConnLogger(base zerolog.Logger) ConnLogger {
	return ConnLogger{zerolog: base}
}

// Debug logs a routine per-request event at debug level.
func (l ConnLogger) Debug(id string, msg string) {
	l.zerolog.Debug().Str("conn", id).Msg(msg)
}

// Warn logs a recoverable fault (malformed frame, handler panic, I/O
// error) that is about to close the connection.
func (l ConnLogger) Warn(id string, msg string, err error) {
	l.zerolog.Warn().Str("conn", id).Err(err).Msg(msg)
}
