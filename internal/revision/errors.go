// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// ErrConflict is returned when a run cannot proceed because of concurrent
// state: a double revert, or a target record that vanished mid-transaction.
var ErrConflict = errors.New("conflict")

// ValidationError reports a malformed or self-contradictory bulk payload.
// The caller can fix the payload and resubmit; nothing has been mutated.
type ValidationError struct {
	Field   string
	Message string
	// OffendingID names the specific id that triggered the failure, when
	// one exists.
	OffendingID *ulid.ULID
}

func (e *ValidationError) Error() string {
	if e.OffendingID != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.OffendingID)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
