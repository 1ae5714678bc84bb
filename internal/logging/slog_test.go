// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

type records []slog.Record

func (r *records) Enabled(context.Context, slog.Level) bool { return true }
func (r *records) WithAttrs([]slog.Attr) slog.Handler       { return r }
func (r *records) WithGroup(string) slog.Handler            { return r }

func (r *records) Handle(_ context.Context, record slog.Record) error {
	*r = append(*r, record.Clone())
	return nil
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules("error; ledger=info;API=debug")
	require.NoError(t, err)
	require.Equal(t, []Rule{
		{Level: slog.LevelError},
		{Module: "ledger", Level: slog.LevelInfo},
		{Module: "api", Level: slog.LevelDebug},
	}, rules)

	rules, err = ParseRules("")
	require.NoError(t, err)
	require.Empty(t, rules)

	_, err = ParseRules("ledger=loud")
	require.ErrorIs(t, err, errors.BadRequest)

	_, err = ParseRules("=info")
	require.ErrorIs(t, err, errors.BadRequest)
}

func attrsOf(r slog.Record) map[string]any {
	attrs := map[string]any{}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	return attrs
}

func TestLoggingCtxAttrs(t *testing.T) {
	var records records
	logger := slog.New(&logHandler{
		handler:      &records,
		defaultLevel: slog.LevelDebug,
		lowestLevel:  slog.LevelDebug,
	})

	ctx := WithRequest(context.Background(), "req-1")
	ctx = With(ctx, "from", "alice", "to", "bob")
	logger.InfoContext(ctx, "Transfer", "amount", 5)
	require.Len(t, records, 1)
	require.Equal(t, "Transfer", records[0].Message)
	require.Equal(t, map[string]any{
		"amount":  int64(5),
		"request": "req-1",
		"from":    "alice",
		"to":      "bob",
	}, attrsOf(records[0]))
}

func attrStrings(ctx context.Context) []string {
	var s []string
	for _, a := range Attrs(ctx) {
		s = append(s, a.String())
	}
	return s
}

func TestContextAttrsReplace(t *testing.T) {
	base := WithRequest(context.Background(), "req-1")
	a := With(base, "from", "alice")
	b := With(base, "from", "bob")

	// Siblings do not share attributes
	require.Equal(t, []string{"request=req-1", "from=alice"}, attrStrings(a))
	require.Equal(t, []string{"request=req-1", "from=bob"}, attrStrings(b))

	// A later value for the same key wins
	c := WithRequest(a, "req-2")
	require.Equal(t, []string{"from=alice", "request=req-2"}, attrStrings(c))

	// A key without a value is kept under !BADKEY
	d := With(context.Background(), "orphan")
	require.Equal(t, []string{"!BADKEY=orphan"}, attrStrings(d))
	require.Empty(t, Attrs(context.Background()))
}

func TestModuleRules(t *testing.T) {
	buf := new(bytes.Buffer)
	rules, err := ParseRules("error;ledger=info")
	require.NoError(t, err)
	h, err := NewHandler(Options{Format: "json", Rules: rules, Out: buf})
	require.NoError(t, err)
	logger := slog.New(h)

	logger.Info("dropped")
	logger.Info("kept", "module", "ledger")
	logger.With("module", "ledger").Debug("dropped")
	logger.With("module", "ledger").Info("kept")
	logger.InfoContext(With(context.Background(), "module", "ledger"), "kept")
	logger.Error("kept")

	var messages []string
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		require.NoError(t, dec.Decode(&entry))
		messages = append(messages, entry[slog.MessageKey].(string))
	}
	require.Equal(t, []string{"kept", "kept", "kept", "kept"}, messages)
}

func TestPlainLogging(t *testing.T) {
	buf := new(bytes.Buffer)
	h, err := NewHandler(Options{
		Format:  "plain",
		Rules:   []Rule{{Level: slog.LevelDebug}},
		Out:     buf,
		NoColor: true,
	})
	require.NoError(t, err)

	slog.New(h).Info("Hello world", "module", "api")
	require.Contains(t, buf.String(), "INFO")
	require.Contains(t, buf.String(), "Hello world")
	require.Contains(t, buf.String(), "module=api")
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := NewHandler(Options{Format: "xml"})
	require.ErrorIs(t, err, errors.BadRequest)
}
