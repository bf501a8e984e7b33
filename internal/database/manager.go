package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"presenz/pkg/types"
)

// Config carries the store settings resolved at startup.
type Config struct {
	BasePath string        // directory holding the sqlite file
	Filename string        // sqlite filename within BasePath
	WALMode  bool          // toggle write-ahead logging
	Timeout  time.Duration // busy timeout and write-queue deadline
}

// tableNamePattern accepts the names produced by the session manager:
// timestamp and sanitized identifiers joined by hyphens.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Manager implements interfaces.AttendanceStore over sqlite. SQLite allows
// one writer at a time, so all writes funnel through a single goroutine; reads
// go straight to the connection pool.
type Manager struct {
	db           *sql.DB
	config       *Config
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex // protects closed
}

type writeOperation struct {
	operation func(*sql.DB) error
	result    chan error
}

// NewManager opens the sqlite database and starts the write loop. Connection
// failures here are fatal to startup; the caller exits non-zero.
func NewManager(config *Config) (*Manager, error) {
	dsn := filepath.Join(config.BasePath, config.Filename)
	dsn += fmt.Sprintf("?_busy_timeout=%d", config.Timeout.Milliseconds())
	if config.WALMode {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	manager := &Manager{
		db:           db,
		config:       config,
		writeChannel: make(chan writeOperation, 100),
		shutdown:     make(chan struct{}),
	}

	manager.wg.Add(1)
	go manager.writeLoop()

	return manager, nil
}

// writeLoop processes all write operations in a single goroutine.
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			op.result <- op.operation(m.db)
		case <-m.shutdown:
			// Answer every waiter already in the queue before exiting.
			for {
				select {
				case op := <-m.writeChannel:
					op.result <- op.operation(m.db)
				default:
					log.Println("Attendance store write loop shutting down")
					return
				}
			}
		}
	}
}

// executeWrite queues a write operation and waits for completion. The context
// gates admission to the queue only: once the operation is enqueued the loop's
// verdict is authoritative, and returning ctx.Err() instead would report an
// error for a write that committed.
func (m *Manager) executeWrite(ctx context.Context, operation func(*sql.DB) error) error {
	// The read lock is held across the enqueue so Close, which takes the
	// write lock before stopping the loop, cannot run until the operation is
	// in the queue. Every enqueued operation is therefore answered.
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return fmt.Errorf("%w: store is closed", types.ErrStorage)
	}

	result := make(chan error, 1)

	select {
	case m.writeChannel <- writeOperation{operation: operation, result: result}:
		m.mu.RUnlock()
		return <-result
	case <-time.After(m.config.Timeout):
		m.mu.RUnlock()
		return fmt.Errorf("%w: write operation timeout", types.ErrStorage)
	case <-ctx.Done():
		m.mu.RUnlock()
		return ctx.Err()
	}
}

// EnsureTable idempotently creates the per-session record table. The table
// name is produced by the session manager's sanitizer; the pattern check here
// is the last line of defense before identifier splicing.
func (m *Manager) EnsureTable(ctx context.Context, table string) error {
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("%w: invalid table name %q", types.ErrInvalidArgument, table)
	}

	return m.executeWrite(ctx, func(db *sql.DB) error {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %q (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				roll TEXT NOT NULL UNIQUE,
				timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`, table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
		return nil
	})
}

// InsertAttendance commits one record. A UNIQUE violation on roll surfaces as
// types.ErrDuplicateRoll; under concurrent inserts of the same roll exactly
// one caller commits and the rest receive the duplicate error.
func (m *Manager) InsertAttendance(ctx context.Context, table, name, roll string) error {
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("%w: invalid table name %q", types.ErrInvalidArgument, table)
	}

	return m.executeWrite(ctx, func(db *sql.DB) error {
		// Deliberately not ExecContext: the caller's context must not be able
		// to interrupt a statement the loop has started executing.
		query := fmt.Sprintf(`INSERT INTO %q (name, roll) VALUES (?, ?)`, table)
		if _, err := db.Exec(query, name, roll); err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
				return types.ErrDuplicateRoll
			}
			return fmt.Errorf("failed to insert record: %w", err)
		}
		return nil
	})
}

// HasRoll reports whether a record with the given roll exists in the table.
func (m *Manager) HasRoll(ctx context.Context, table, roll string) (bool, error) {
	if !tableNamePattern.MatchString(table) {
		return false, fmt.Errorf("%w: invalid table name %q", types.ErrInvalidArgument, table)
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q WHERE roll = ?`, table)
	var count int
	if err := m.db.QueryRowContext(ctx, query, roll).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check roll: %w", err)
	}
	return count > 0, nil
}

// FetchAll returns all committed records in insertion order.
func (m *Manager) FetchAll(ctx context.Context, table string) ([]*types.AttendanceRecord, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", types.ErrInvalidArgument, table)
	}

	query := fmt.Sprintf(`SELECT id, name, roll, timestamp FROM %q ORDER BY id ASC`, table)
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.AttendanceRecord
	for rows.Next() {
		var record types.AttendanceRecord
		if err := rows.Scan(&record.ID, &record.Name, &record.Roll, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// HealthCheck validates database connectivity.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close drains the write loop and closes the connection. Safe to call more
// than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true

	close(m.shutdown)
	m.wg.Wait()
	m.mu.Unlock()

	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
