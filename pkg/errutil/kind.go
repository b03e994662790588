// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package errutil

import (
	"errors"

	"github.com/lorekeep/lorekeep/internal/revision"
	"github.com/lorekeep/lorekeep/internal/world"
)

// Kind is the coarse category of a failure. Caller layers map kinds to
// status codes; the domain packages only produce sentinels and typed errors,
// and Classify folds those into the taxonomy here.
type Kind string

// Error kinds, from most caller-actionable to least.
const (
	// KindValidation: the input was malformed or self-contradictory. Fix
	// the request and resubmit; nothing was mutated.
	KindValidation Kind = "validation"
	// KindAuthorization: the actor may not perform the operation.
	KindAuthorization Kind = "authorization"
	// KindNotFound: the target does not exist, or is hidden from the actor.
	KindNotFound Kind = "not_found"
	// KindConflict: concurrent state got there first, such as a run that was
	// already reverted. Retrying the same request will not succeed.
	KindConflict Kind = "conflict"
	// KindInternal: everything else. Retryable at the caller's discretion.
	KindInternal Kind = "internal"
)

// Classify maps an error to its Kind. Wrapped errors are unwrapped via
// errors.Is/As, so oops-decorated domain errors classify the same as bare
// ones. A nil error has no kind.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var payloadErr *revision.ValidationError
	var fieldErr *world.ValidationError
	switch {
	case errors.As(err, &payloadErr), errors.As(err, &fieldErr):
		return KindValidation
	case errors.Is(err, world.ErrPermissionDenied):
		return KindAuthorization
	case errors.Is(err, world.ErrNotFound):
		return KindNotFound
	case errors.Is(err, revision.ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
