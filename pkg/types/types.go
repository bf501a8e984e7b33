package types

import (
	"time"
)

// Outcome constants for the admission pipeline. Every submission resolves to
// exactly one of these; callers must handle each case explicitly.
const (
	OutcomeAccepted      = "accepted"
	OutcomeClosed        = "closed"
	OutcomeDuplicate     = "duplicate"
	OutcomeInvalid       = "invalid"
	OutcomeInternalError = "internal_error"
)

// Submission is one inbound attendance request before validation.
type Submission struct {
	Name        string `json:"name"`
	Roll        string `json:"roll"`
	SessionCode string `json:"session_code"`
}

// AdmissionResult is the explicit outcome of one submission attempt.
// Reason is only set for OutcomeInvalid and carries the field-level cause.
type AdmissionResult struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// AttendanceRecord is one durable row in a session's table.
// Records are immutable once committed; the store assigns ID and Timestamp.
type AttendanceRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Roll      string    `json:"roll"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSnapshot is a point-in-time view of the active session, used by the
// health endpoint and the live watch feed.
type SessionSnapshot struct {
	Active        bool   `json:"active"`
	TableName     string `json:"table_name,omitempty"`
	AcceptedCount int    `json:"accepted_count"`
	Capacity      int    `json:"capacity"`
}
