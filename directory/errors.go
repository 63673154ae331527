// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"errors"
	"fmt"
)

// Domain errors returned by Apply when a command is structurally valid
// but its preconditions do not hold against the current view. A domain
// error rejects the command without writing anything; all replicas
// reject identically.
var (
	// ErrDuplicateName rejects registration under a name another agent
	// already holds.
	ErrDuplicateName = errors.New("agent name already registered")

	// ErrAlreadyRegistered rejects a second registration from the same
	// sender identity.
	ErrAlreadyRegistered = errors.New("sender already registered")

	// ErrNotRegistered rejects commands whose sender has no agent
	// record.
	ErrNotRegistered = errors.New("sender not registered")

	// ErrProposerNotRegistered rejects proposals from a sender with no
	// agent record. Distinct from ErrNotRegistered so a requester can
	// tell a vanished bidder from their own stale registration.
	ErrProposerNotRegistered = errors.New("proposer not registered")

	// ErrUnauthorized rejects commands from a sender who is not a
	// party to the entity being mutated.
	ErrUnauthorized = errors.New("sender not authorized")

	// ErrRequestNotFound rejects commands naming a match request that
	// does not exist.
	ErrRequestNotFound = errors.New("match request not found")

	// ErrRequestExpired rejects proposals on a request past its
	// expiry.
	ErrRequestExpired = errors.New("match request expired")

	// ErrRequestNotPending rejects lifecycle commands on a request
	// that has already moved past the required state.
	ErrRequestNotPending = errors.New("match request not in required state")

	// ErrProposalNotFound rejects acceptance of a proposal that was
	// never made.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrEmptyCapabilitySet rejects a match request with no required
	// capabilities.
	ErrEmptyCapabilitySet = errors.New("match request requires at least one capability")
)

// DesyncError reports an internal consistency violation: a decode
// failure or a broken cross-reference inside the view. Unlike domain
// errors it signals replica corruption, not a bad command; hosts
// should treat it as fatal.
type DesyncError struct {
	Key    string
	Reason string
	Err    error
}

func (e *DesyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("view desync at %q: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("view desync at %q: %s", e.Key, e.Reason)
}

func (e *DesyncError) Unwrap() error { return e.Err }

func desyncf(key string, err error, format string, args ...any) error {
	return &DesyncError{Key: key, Reason: fmt.Sprintf(format, args...), Err: err}
}
