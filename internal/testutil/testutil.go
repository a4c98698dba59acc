// Package testutil provides shared test helpers for setting up databases and services.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/articles/internal/articleservice"
	"github.com/starford/articles/internal/storage/sqlite"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "articles-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := sqlite.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestService wires an article service to a fresh temporary database.
func TestService(t *testing.T) (*articleservice.Service, *sqlite.DB) {
	t.Helper()
	db := TestDB(t)
	return articleservice.NewService(db, DiscardLogger()), db
}
