// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

// TestLogger is a writer that sends each line to the test log.
type TestLogger struct {
	Test testing.TB
}

var _ io.Writer = (*TestLogger)(nil)

func (l *TestLogger) Write(b []byte) (int, error) {
	s := string(b)
	s = strings.TrimSuffix(s, "\n")
	l.Test.Log(s)
	return len(b), nil
}

// NewTestLogger returns a logger that writes plain text at debug level to the
// test log.
func NewTestLogger(t testing.TB) *slog.Logger {
	h, err := NewHandler(Options{
		Format:  "plain",
		Rules:   []Rule{{Level: slog.LevelDebug}},
		Out:     &TestLogger{Test: t},
		NoColor: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return slog.New(h)
}
