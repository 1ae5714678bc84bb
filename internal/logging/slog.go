// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cometbft/cometbft/libs/log"
)

// Slogger adapts a slog logger to CometBFT's logger interface.
type Slogger slog.Logger

var _ log.Logger = (*Slogger)(nil)

func NewSlogger(l *slog.Logger) *Slogger {
	return (*Slogger)(l)
}

func (s *Slogger) Debug(msg string, keyvals ...interface{}) {
	(*slog.Logger)(s).Debug(msg, keyvals...)
}

func (s *Slogger) Info(msg string, keyvals ...interface{}) {
	(*slog.Logger)(s).Info(msg, keyvals...)
}

func (s *Slogger) Error(msg string, keyvals ...interface{}) {
	(*slog.Logger)(s).Error(msg, keyvals...)
}

func (s *Slogger) With(keyvals ...interface{}) log.Logger {
	l := (*slog.Logger)(s).With(keyvals...)
	return (*Slogger)(l)
}

// BadgerLogger adapts the default slog logger to Badger's logger interface.
type BadgerLogger struct{}

func (l BadgerLogger) format(format string, args ...interface{}) string {
	s := fmt.Sprintf(format, args...)
	return strings.TrimRight(s, "\n")
}

func (l BadgerLogger) Errorf(format string, args ...interface{}) {
	slog.Error(l.format(format, args...), "module", "badger")
}

func (l BadgerLogger) Warningf(format string, args ...interface{}) {
	slog.Warn(l.format(format, args...), "module", "badger")
}

func (l BadgerLogger) Infof(format string, args ...interface{}) {
	slog.Info(l.format(format, args...), "module", "badger")
}

func (l BadgerLogger) Debugf(format string, args ...interface{}) {
	slog.Debug(l.format(format, args...), "module", "badger")
}
