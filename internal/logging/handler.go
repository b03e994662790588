// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package logging builds the process-wide slog logger: JSON or text output
// with the service identity attached and, when a request context carries an
// OpenTelemetry span, its trace and span ids on every record.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// traceHandler decorates records with the ids of the span found in the
// record's context. Records logged outside a span pass through untouched.
type traceHandler struct {
	inner slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
		if spanCtx.HasSpanID() {
			r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
		}
	}
	//nolint:wrapcheck // Handler interface passes the inner error through
	return h.inner.Handle(ctx, r)
}

func (h traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{inner: h.inner.WithGroup(name)}
}

// Setup builds the logger. Format is "json" unless "text" is asked for; a
// nil writer goes to stderr. The service name and version ride on every
// record so aggregated logs stay attributable.
func Setup(service, version, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	base = base.WithAttrs([]slog.Attr{
		slog.String("service", service),
		slog.String("version", version),
	})
	return slog.New(traceHandler{inner: base})
}
