// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors callers branch on with errors.Is. Dispatch maps each
// to its RPC error code.
var (
	// ErrLocked means the guard is held by another request. Returned
	// wrapped in a *ContentionError carrying the holder's identity.
	ErrLocked = errors.New("document locked")

	// ErrOwnershipLost means a token was reclaimed by the idle sweep
	// before its holder came back. The holder's work is gone as far as
	// the guard is concerned and must not be retried blindly.
	ErrOwnershipLost = errors.New("document ownership lost")

	// ErrNoProject means an operation needs an open project and none is.
	ErrNoProject = errors.New("no project open")

	// ErrUnknownLayer means a named layer does not exist.
	ErrUnknownLayer = errors.New("unknown layer")

	// ErrInvalidSnapshot means a snapshot file failed structural or
	// digest validation.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrNoSavePath means save was called without a path on a project
	// that has never been saved or opened.
	ErrNoSavePath = errors.New("project has no save path")
)

// ContentionError reports a failed guard acquisition. Callers can use
// errors.As to extract the holder:
//
//	var contention *document.ContentionError
//	if errors.As(err, &contention) {
//	    log.Warn("busy", "holder", contention.Owner)
//	}
type ContentionError struct {
	// Owner is the request id holding the guard.
	Owner string
	// HeldFor is how long the owner has held it.
	HeldFor time.Duration
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("document locked: held by request %s for %s", e.Owner, e.HeldFor.Round(time.Millisecond))
}

func (e *ContentionError) Unwrap() error { return ErrLocked }
