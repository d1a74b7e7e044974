// Package testutil provides shared test helpers for setting up note
// stores and inbox directories.
package testutil

import (
	"os"
	"testing"

	"github.com/ashwell/soapnote/internal/notedb"
	"github.com/ashwell/soapnote/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *notedb.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "soapnote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := notedb.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestInbox creates a temporary inbox directory with a storage.Provider.
func TestInbox(t *testing.T) (string, storage.Provider) {
	t.Helper()
	inboxDir := t.TempDir()
	store, err := storage.NewFS(inboxDir)
	if err != nil {
		t.Fatal(err)
	}
	return inboxDir, store
}
