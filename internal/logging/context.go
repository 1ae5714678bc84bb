// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"context"
	"log/slog"
)

// Records logged with a context carry the attributes attached to it, after
// the record's own attributes. The API uses this to tag everything logged
// while serving a request with the request ID and, for transfers, the
// accounts involved.

type contextKey struct{}

// WithRequest tags records logged with the context with an API request ID.
func WithRequest(ctx context.Context, id string) context.Context {
	return WithAttrs(ctx, slog.String("request", id))
}

// With attaches key-value pairs to the context, using the same argument
// conventions as [slog.Logger.Log].
func With(ctx context.Context, args ...any) context.Context {
	var r slog.Record
	r.Add(args...)

	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return WithAttrs(ctx, attrs...)
}

// WithAttrs attaches attributes to the context. An attribute replaces one of
// the same key that is already attached.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	old := Attrs(ctx)
	merged := make([]slog.Attr, 0, len(old)+len(attrs))
	for _, a := range old {
		if !hasKey(attrs, a.Key) {
			merged = append(merged, a)
		}
	}
	merged = append(merged, attrs...)
	return context.WithValue(ctx, contextKey{}, merged)
}

// Attrs returns the attributes attached to the context.
func Attrs(ctx context.Context) []slog.Attr {
	v, _ := ctx.Value(contextKey{}).([]slog.Attr)
	return v
}

func hasKey(attrs []slog.Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}
