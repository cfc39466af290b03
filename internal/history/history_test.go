package history

import (
	"context"
	"testing"
	"time"
)

func TestSQLSinkRejectsEmptyDSN(t *testing.T) {
	if _, err := NewSQLSinkFromDSN("  "); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestSQLSinkDialectSelection(t *testing.T) {
	s, err := NewSQLSinkFromDSN(":memory:")
	if err != nil {
		t.Fatalf("sqlite sink: %v", err)
	}
	defer func() { _ = s.Close() }()
	if s.dialect != "sqlite" {
		t.Fatalf("dialect = %q, want sqlite", s.dialect)
	}
}

func TestSQLSinkSQLiteRoundTrip(t *testing.T) {
	s, err := NewSQLSinkFromDSN(":memory:")
	if err != nil {
		t.Fatalf("sqlite sink: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	events := []Event{
		{Type: EventStart, OccurredAt: time.Now().UTC(), Service: "backend", PID: 100},
		{Type: EventStop, OccurredAt: time.Now().UTC(), Service: "backend", PID: 100},
		{Type: EventAutoRestart, OccurredAt: time.Now().UTC(), Service: "worker", PID: 0, Detail: "not running"},
	}
	for _, e := range events {
		if err := s.Send(ctx, e); err != nil {
			t.Fatalf("send %s: %v", e.Type, err)
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_history WHERE service = ?`, "backend").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("backend events = %d, want 2", n)
	}

	var detail string
	if err := s.db.QueryRowContext(ctx,
		`SELECT detail FROM service_history WHERE event = ?`, string(EventAutoRestart)).Scan(&detail); err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail != "not running" {
		t.Fatalf("detail = %q", detail)
	}
}
