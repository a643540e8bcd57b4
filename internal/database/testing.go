package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDatabaseURLEnv names the variable holding a DSN for integration tests.
const TestDatabaseURLEnv = "TAIXIU_TEST_DATABASE_URL"

// SetupTestDB connects to the integration database or skips the test when
// none is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv(TestDatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s not set", TestDatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn, 2)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	t.Cleanup(db.Close)

	return db
}
