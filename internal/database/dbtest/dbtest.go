// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"pcbuilds/internal/database"
)

// Open returns a fresh in-memory sqlite database with every migration
// applied. It is closed when the test ends.
func Open(tb testing.TB) *database.DB {
	tb.Helper()
	db, err := database.Open("sqlite://:memory:")
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })
	return db
}
