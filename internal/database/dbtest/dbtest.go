// Package dbtest provides migrated throw-away databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/rs/zerolog"
)

// New returns an empty SQLite database in t.TempDir() with all migrations
// applied. It is closed when the test ends.
func New(t testing.TB) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.New(context.Background(), "sqlite://"+path, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}
