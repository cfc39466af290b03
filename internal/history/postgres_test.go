package history

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSQLSinkPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("svcdeck_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start PostgreSQL container: %v", err)
	}
	defer func() { _ = pgContainer.Terminate(ctx) }()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	s, err := NewSQLSinkFromDSN(dsn)
	if err != nil {
		t.Fatalf("postgres sink: %v", err)
	}
	defer func() { _ = s.Close() }()
	if s.dialect != "postgres" {
		t.Fatalf("dialect = %q, want postgres", s.dialect)
	}

	events := []Event{
		{Type: EventStart, OccurredAt: time.Now().UTC(), Service: "frontend", PID: 4321},
		{Type: EventRestart, OccurredAt: time.Now().UTC(), Service: "frontend", PID: 4400, Detail: "manual"},
	}
	for _, e := range events {
		if err := s.Send(ctx, e); err != nil {
			t.Fatalf("send %s: %v", e.Type, err)
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_history WHERE service = $1`, "frontend").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(events) {
		t.Fatalf("events = %d, want %d", n, len(events))
	}
}
