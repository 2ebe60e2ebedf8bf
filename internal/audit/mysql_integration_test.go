//go:build integration

package audit

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// openTestStore connects to the MySQL named by NEWSBOT_TEST_MYSQL_DSN,
// skipping the test when it is unset or unreachable.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("NEWSBOT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("NEWSBOT_TEST_MYSQL_DSN not set, skipping integration test")
	}
	s, err := Open(dsn)
	if err != nil {
		t.Skipf("MySQL is not reachable, skipping integration test: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppend_RealMySQL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sessionID := "test-" + uuid.New().String()

	if err := s.Append(ctx, sessionID, "What happened?", "Nothing much."); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chat_exchanges WHERE session_id = ?", sessionID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Errorf("rows for session = %d, want 1", count)
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	dsn := os.Getenv("NEWSBOT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("NEWSBOT_TEST_MYSQL_DSN not set, skipping integration test")
	}

	// Opening twice must not fail on already-applied migrations.
	for range 2 {
		s, err := Open(dsn)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		s.Close()
	}
}
