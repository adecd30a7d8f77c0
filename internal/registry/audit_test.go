package registry

import (
	"testing"
)

func countAuditRows(t *testing.T, s *Store) int {
	t.Helper()

	var count int
	if err := s.db.QueryRow("select count(*) from auditlog").Scan(&count); err != nil {
		t.Fatalf("failed to count audit rows: %v", err)
	}
	return count
}

func TestAuditFlushCommitsWithTransaction(t *testing.T) {
	s := newTestStore(t)

	if err := s.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := s.InsertNode("node-1", "one"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	rec := NewAuditRecorder(true)
	entry := rec.Append(AuditAdd, AuditEntityNode, "node-1", "one")
	entry.Change("status", "", "stopped")

	if err := rec.Flush(s); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if got := countAuditRows(t, s); got != 1 {
		t.Fatalf("expected exactly 1 audit row per committed mutation, got %d", got)
	}
}

func TestAuditRollbackDiscardsEntries(t *testing.T) {
	s := newTestStore(t)

	if err := s.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := s.InsertNode("node-1", "one"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	rec := NewAuditRecorder(true)
	rec.Append(AuditAdd, AuditEntityNode, "node-1", "one")

	if err := rec.Flush(s); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	s.Rollback()

	if got := countAuditRows(t, s); got != 0 {
		t.Fatalf("expected rolled back mutation to leave no audit rows, got %d", got)
	}
}

func TestAuditDisabledRecordsNothing(t *testing.T) {
	s := newTestStore(t)

	if err := s.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	rec := NewAuditRecorder(false)
	rec.Append(AuditUpdate, AuditEntitySettings, "1", "")

	if err := rec.Flush(s); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if got := countAuditRows(t, s); got != 0 {
		t.Fatalf("expected no audit rows when disabled, got %d", got)
	}
}

func TestAuditCleanDiscards(t *testing.T) {
	s := newTestStore(t)

	if err := s.Begin(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	rec := NewAuditRecorder(true)
	rec.Append(AuditDelete, AuditEntityNode, "node-1", "one")
	rec.Clean()

	// Flushing after Clean writes nothing even on commit.
	if err := rec.Flush(s); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if got := countAuditRows(t, s); got != 0 {
		t.Fatalf("expected cleaned entries to leave no audit rows, got %d", got)
	}
}
