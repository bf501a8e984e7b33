package session

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"presenz/internal/token"
	"presenz/pkg/types"
)

// Manager owns the single active session per process. All mutable fields are
// guarded by mu; Reserve and Release form the linearizable admission gate
// that keeps the committed record count at or below capacity.
type Manager struct {
	mu sync.Mutex

	active        bool
	sessionID     string
	sessionCode   string
	tableName     string
	capacity      int
	acceptedCount int
	dbFilename    string

	idLength   int
	codeLength int
}

// NewManager creates a session manager. idLength and codeLength configure the
// generated token sizes for the session id and the shared session code.
func NewManager(idLength, codeLength int) *Manager {
	return &Manager{
		idLength:   idLength,
		codeLength: codeLength,
	}
}

// Start activates a new session. The table name is derived from the current
// timestamp plus the sanitized course and batch identifiers; the session id
// and code are generated independently so neither is derivable from the
// other.
func (m *Manager) Start(capacity int, course, batch, dbFilename string) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidArgument, capacity)
	}
	if strings.ContainsAny(dbFilename, `/\`) || strings.Contains(dbFilename, "..") {
		return fmt.Errorf("%w: unsafe database filename %q", ErrInvalidArgument, dbFilename)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return ErrAlreadyActive
	}

	sessionID, err := token.Generate(m.idLength)
	if err != nil {
		return fmt.Errorf("failed to generate session id: %w", err)
	}
	sessionCode, err := token.Generate(m.codeLength)
	if err != nil {
		return fmt.Errorf("failed to generate session code: %w", err)
	}

	now := time.Now().Format("02-01-06-1504")
	m.tableName = fmt.Sprintf("%s-%s-%s", now, SanitizeIdentifier(course), SanitizeIdentifier(batch))

	m.sessionID = sessionID
	m.sessionCode = sessionCode
	m.capacity = capacity
	m.acceptedCount = 0
	m.dbFilename = dbFilename
	m.active = true

	log.Printf("Session started: table=%s capacity=%d", m.tableName, m.capacity)
	return nil
}

// End deactivates the session and resets every field to its inactive default.
// Idempotent regardless of current state.
func (m *Manager) End() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		log.Printf("Session ended: table=%s accepted=%d/%d", m.tableName, m.acceptedCount, m.capacity)
	}

	m.active = false
	m.sessionID = ""
	m.sessionCode = ""
	m.tableName = ""
	m.capacity = 0
	m.acceptedCount = 0
	m.dbFilename = ""
}

// CanAccept reports whether the session is active and below capacity.
func (m *Manager) CanAccept() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && m.acceptedCount < m.capacity
}

// Reserve atomically claims one capacity slot. The check and the increment
// happen under the same lock, so two concurrent callers can never both see
// the last slot free. Callers must Release on a failed durable commit.
func (m *Manager) Reserve() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || m.acceptedCount >= m.capacity {
		return ErrSessionClosed
	}
	m.acceptedCount++

	if m.acceptedCount == m.capacity {
		log.Printf("Session full: all %d slots taken", m.capacity)
	}
	return nil
}

// Release returns a slot previously claimed by Reserve. Safe to call after
// End; a reset session ignores the release.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active && m.acceptedCount > 0 {
		m.acceptedCount--
	}
}

// ValidateCode compares candidate against the session code. Exact and
// case-sensitive. Returns false, never an error, when no session is active.
func (m *Manager) ValidateCode(candidate string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && candidate == m.sessionCode
}

// Code returns the shared session code for the operator banner.
func (m *Manager) Code() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionCode
}

// TableName returns the storage table for the active session.
func (m *Manager) TableName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tableName
}

// Active reports whether a session is currently running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Snapshot returns a point-in-time view of the session state.
func (m *Manager) Snapshot() types.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.SessionSnapshot{
		Active:        m.active,
		TableName:     m.tableName,
		AcceptedCount: m.acceptedCount,
		Capacity:      m.capacity,
	}
}

// SanitizeIdentifier uppercases value and strips everything outside ASCII
// A-Z and 0-9, the character set the store accepts in table names.
// "CS-101" and "CS101" therefore collide; documented behavior.
func SanitizeIdentifier(value string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(value) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
