package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"presenz/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	manager, err := NewManager(&Config{
		BasePath: t.TempDir(),
		Filename: "test.db",
		WALMode:  true,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

const testTable = "01-01-25-0900-OS-A1"

func TestEnsureTable_Idempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.EnsureTable(ctx, testTable); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}
	if err := m.EnsureTable(ctx, testTable); err != nil {
		t.Errorf("second EnsureTable() error = %v, want nil", err)
	}
}

func TestEnsureTable_RejectsUnsafeNames(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cases := []string{
		"",
		`bad"name`,
		"bad name",
		"drop;table",
		"name--\"); DROP TABLE x;",
	}

	for _, table := range cases {
		if err := m.EnsureTable(ctx, table); !errors.Is(err, types.ErrInvalidArgument) {
			t.Errorf("EnsureTable(%q) error = %v, want ErrInvalidArgument", table, err)
		}
	}
}

func TestInsertAttendance_AndFetch(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.EnsureTable(ctx, testTable); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}
	if err := m.InsertAttendance(ctx, testTable, "John Doe", "CS-001"); err != nil {
		t.Fatalf("InsertAttendance() error = %v", err)
	}
	if err := m.InsertAttendance(ctx, testTable, "Jane Doe", "CS-002"); err != nil {
		t.Fatalf("InsertAttendance() error = %v", err)
	}

	records, err := m.FetchAll(ctx, testTable)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("FetchAll() returned %d records, want 2", len(records))
	}
	if records[0].Roll != "CS-001" || records[1].Roll != "CS-002" {
		t.Errorf("records out of insertion order: %q, %q", records[0].Roll, records[1].Roll)
	}
	if records[0].Name != "John Doe" {
		t.Errorf("record name = %q, want John Doe", records[0].Name)
	}
	if records[0].Timestamp.IsZero() {
		t.Error("store must assign a commit timestamp")
	}
}

func TestInsertAttendance_DuplicateRoll(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.EnsureTable(ctx, testTable); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}
	if err := m.InsertAttendance(ctx, testTable, "John Doe", "CS-001"); err != nil {
		t.Fatalf("InsertAttendance() error = %v", err)
	}

	err := m.InsertAttendance(ctx, testTable, "Someone Else", "CS-001")
	if !errors.Is(err, types.ErrDuplicateRoll) {
		t.Errorf("duplicate insert error = %v, want ErrDuplicateRoll", err)
	}

	records, err := m.FetchAll(ctx, testTable)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("duplicate insert committed: %d records", len(records))
	}
}

func TestInsertAttendance_ConcurrentSameRoll(t *testing.T) {
	// Exactly one of K concurrent inserts of the same roll commits; the rest
	// get the duplicate error.
	const attempts = 20

	m := newTestManager(t)
	ctx := context.Background()

	if err := m.EnsureTable(ctx, testTable); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	committed, duplicates := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.InsertAttendance(ctx, testTable, "John Doe", "CS-001")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case errors.Is(err, types.ErrDuplicateRoll):
				duplicates++
			default:
				t.Errorf("unexpected insert error: %v", err)
			}
		}()
	}
	wg.Wait()

	if committed != 1 {
		t.Errorf("committed = %d, want exactly 1", committed)
	}
	if duplicates != attempts-1 {
		t.Errorf("duplicates = %d, want %d", duplicates, attempts-1)
	}
}

func TestInsertAttendance_CancelledContextMatchesDurableState(t *testing.T) {
	// A context cancelled while the write loop is busy must never make the
	// caller's error disagree with what actually committed: nil means the row
	// is durable, non-nil means it is not. The callers above this layer free
	// a capacity slot on error, so a misreported commit would let the table
	// grow past capacity.
	const attempts = 200

	m := newTestManager(t)

	if err := m.EnsureTable(context.Background(), testTable); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	reported := make(map[string]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			ctx, cancel := context.WithCancel(context.Background())
			go cancel() // races the insert at every stage

			roll := fmt.Sprintf("CS-%03d", i)
			err := m.InsertAttendance(ctx, testTable, "John Doe", roll)
			mu.Lock()
			reported[roll] = err
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	records, err := m.FetchAll(context.Background(), testTable)
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	durable := make(map[string]bool, len(records))
	for _, r := range records {
		durable[r.Roll] = true
	}

	for roll, err := range reported {
		if err == nil && !durable[roll] {
			t.Errorf("insert of %s reported success but no record committed", roll)
		}
		if err != nil && durable[roll] {
			t.Errorf("insert of %s reported %v but the record committed", roll, err)
		}
	}
}

func TestHasRoll(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.EnsureTable(ctx, testTable); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}

	exists, err := m.HasRoll(ctx, testTable, "CS-001")
	if err != nil {
		t.Fatalf("HasRoll() error = %v", err)
	}
	if exists {
		t.Error("HasRoll() = true before insert")
	}

	if err := m.InsertAttendance(ctx, testTable, "John Doe", "CS-001"); err != nil {
		t.Fatalf("InsertAttendance() error = %v", err)
	}

	exists, err = m.HasRoll(ctx, testTable, "CS-001")
	if err != nil {
		t.Fatalf("HasRoll() error = %v", err)
	}
	if !exists {
		t.Error("HasRoll() = false after insert")
	}
}

func TestClose_FailsSubsequentWrites(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.EnsureTable(ctx, testTable); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	if err := m.InsertAttendance(ctx, testTable, "John Doe", "CS-001"); err == nil {
		t.Error("InsertAttendance() after Close should fail")
	}
}

func TestClose_AnswersInFlightWrites(t *testing.T) {
	// Writers racing Close must all get a verdict; a dropped waiter would
	// block forever and trip the test timeout.
	m := newTestManager(t)
	ctx := context.Background()

	if err := m.EnsureTable(ctx, testTable); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.InsertAttendance(ctx, testTable, "John Doe", fmt.Sprintf("CS-%03d", i))
		}(i)
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	wg.Wait()
}

func TestHealthCheck(t *testing.T) {
	m := newTestManager(t)
	if err := m.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
