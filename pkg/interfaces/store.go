package interfaces

import (
	"context"

	"presenz/pkg/types"
)

// AttendanceStore handles all durable attendance persistence. One table per
// session; the store serializes writes internally so concurrent submissions
// cannot corrupt the uniqueness index.
type AttendanceStore interface {
	// EnsureTable idempotently creates the record table for a session.
	EnsureTable(ctx context.Context, table string) error

	// InsertAttendance commits one record. A uniqueness violation on the roll
	// column is returned as types.ErrDuplicateRoll so callers can map it to a
	// duplicate outcome rather than an internal error.
	InsertAttendance(ctx context.Context, table, name, roll string) error

	// HasRoll reports whether a record with the given normalized roll already
	// exists in the table.
	HasRoll(ctx context.Context, table, roll string) (bool, error)

	// FetchAll returns all committed records in insertion order.
	FetchAll(ctx context.Context, table string) ([]*types.AttendanceRecord, error)

	// HealthCheck verifies database connectivity.
	HealthCheck(ctx context.Context) error

	// Close releases all resources. Subsequent operations fail.
	Close() error
}
