package interfaces

import "presenz/pkg/types"

// SessionController owns the lifecycle of the single active session and the
// atomic admission gate. The Reserve/Release pair is the only path through
// which the accepted count changes: Reserve claims a capacity slot before the
// durable write and Release returns it when the write fails.
type SessionController interface {
	// Start activates a new session. Fails with types.ErrAlreadyActive if a
	// session is running, or types.ErrInvalidArgument for a non-positive
	// capacity or an unsafe storage filename.
	Start(capacity int, course, batch, dbFilename string) error

	// End deactivates the session and clears all fields. Idempotent.
	End()

	// CanAccept reports whether the session is active and below capacity.
	CanAccept() bool

	// Reserve atomically claims one capacity slot. Returns
	// types.ErrSessionClosed when inactive or full.
	Reserve() error

	// Release returns a slot claimed by Reserve after a failed commit.
	Release()

	// ValidateCode compares a candidate against the session code. Exact and
	// case-sensitive; always false when no session is active.
	ValidateCode(candidate string) bool

	// TableName returns the storage table for the active session.
	TableName() string

	// Snapshot returns a point-in-time view of the session state.
	Snapshot() types.SessionSnapshot
}
