// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

// Package errutil classifies and logs the errors the domain packages
// produce: oops-decorated sentinels and typed validation errors.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err with its taxonomy kind attached. Oops errors also
// contribute their code and structured context; plain errors log as-is.
func LogError(logger *slog.Logger, msg string, err error) {
	attrs := []any{
		"error", err.Error(),
		"kind", string(Classify(err)),
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
	}
	logger.Error(msg, attrs...)
}
