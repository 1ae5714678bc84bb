// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

const messageKey = "message"

// A Rule sets the minimum level for a module. A rule with no module sets the
// default level.
type Rule struct {
	Module string
	Level  slog.Level
}

// ParseRules parses a rule string such as "error;ledger=info;api=debug".
func ParseRules(s string) ([]Rule, error) {
	var rules []Rule
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var rule Rule
		level := part
		if i := strings.IndexByte(part, '='); i >= 0 {
			rule.Module = strings.ToLower(strings.TrimSpace(part[:i]))
			level = strings.TrimSpace(part[i+1:])
			if rule.Module == "" {
				return nil, errors.BadRequest.WithFormat("invalid log rule %q: missing module", part)
			}
		}

		err := rule.Level.UnmarshalText([]byte(level))
		if err != nil {
			return nil, errors.BadRequest.WithFormat("invalid log rule %q: %w", part, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Options configures [NewHandler].
type Options struct {
	// Format is text, plain, or json.
	Format string
	Rules  []Rule
	Out    io.Writer

	// NoColor disables colors in text output.
	NoColor bool
}

// NewHandler returns a slog handler that filters records by the level rules
// of their module.
func NewHandler(opts Options) (slog.Handler, error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	h := &logHandler{
		defaultLevel: slog.LevelError,
		modules:      map[string]slog.Level{},
	}
	for _, r := range opts.Rules {
		if r.Module == "" {
			h.defaultLevel = r.Level
		} else {
			h.modules[strings.ToLower(r.Module)] = r.Level
		}
	}
	h.lowestLevel = h.defaultLevel
	for _, l := range h.modules {
		if l < h.lowestLevel {
			h.lowestLevel = l
		}
	}

	hopts := &slog.HandlerOptions{
		Level: h.lowestLevel,
	}

	switch strings.ToLower(opts.Format) {
	case "", "text", "plain":
		// Use zerolog's console writer to write pretty logs
		hopts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.MessageKey {
				return a
			}
			if a.Value.Kind() == slog.KindString {
				return slog.Any(messageKey, a.Value)
			}
			return slog.String(messageKey, fmt.Sprint(a.Value.Any()))
		}
		h.handler = slog.NewJSONHandler(ConsoleWriter(out, opts.NoColor), hopts)

	case "json":
		h.handler = slog.NewJSONHandler(out, hopts)

	default:
		return nil, errors.BadRequest.WithFormat("log format %q is not supported", opts.Format)
	}

	return h, nil
}

// ConsoleWriter returns a zerolog console writer that pretty-prints JSON log
// lines.
func ConsoleWriter(w io.Writer, noColor bool) io.Writer {
	return &zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			if ll, ok := i.(string); ok {
				return strings.ToUpper(ll)
			}
			return "????"
		},
		FormatMessage: func(i interface{}) string {
			s, ok := i.(string)
			if ok {
				return s
			}
			return fmt.Sprint(i)
		},
	}
}

// Setup parses the rules, builds a handler writing to stderr, and installs it
// as the default logger.
func Setup(format, rules string) (*slog.Logger, error) {
	r, err := ParseRules(rules)
	if err != nil {
		return nil, err
	}
	h, err := NewHandler(Options{Format: format, Rules: r})
	if err != nil {
		return nil, err
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}

type logHandler struct {
	handler      slog.Handler
	defaultLevel slog.Level
	lowestLevel  slog.Level
	modules      map[string]slog.Level
	module       string
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	i := *h
	i.handler = h.handler.WithAttrs(attrs)
	if m, ok := moduleOf(attrs); ok {
		i.module = m
	}
	return &i
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	i := *h
	i.handler = h.handler.WithGroup(name)
	return &i
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.lowestLevel {
		return false
	}
	return h.handler.Enabled(ctx, level)
}

func (h *logHandler) Handle(ctx context.Context, record slog.Record) error {
	ctxAttrs := Attrs(ctx)

	// Record attributes take precedence over the logger's, which take
	// precedence over the context's
	module := h.module
	if module == "" {
		module, _ = moduleOf(ctxAttrs)
	}
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == "module" {
			module = a.Value.String()
			return false
		}
		return true
	})

	level := h.defaultLevel
	if l, ok := h.modules[strings.ToLower(module)]; ok {
		level = l
	}
	if record.Level < level {
		return nil
	}

	if len(ctxAttrs) > 0 {
		record = record.Clone()
		record.AddAttrs(ctxAttrs...)
	}
	return h.handler.Handle(ctx, record)
}

func moduleOf(attrs []slog.Attr) (string, bool) {
	for _, a := range attrs {
		if a.Key == "module" {
			return a.Value.String(), true
		}
	}
	return "", false
}
