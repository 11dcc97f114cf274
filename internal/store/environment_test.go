package store

import (
	"testing"

	bolt "go.etcd.io/bbolt"
)

func TestEnvironmentOpenSharesHandle(t *testing.T) {
	env := NewEnvironment()
	t.Cleanup(func() { env.Close() })

	dbPath := t.TempDir()
	db1, err := env.Open(Config{Path: dbPath})
	if err != nil {
		t.Fatalf("Open 1: %v", err)
	}
	db2, err := env.Open(Config{Path: dbPath})
	if err != nil {
		t.Fatalf("Open 2: %v", err)
	}
	if db1 != db2 {
		t.Errorf("expected the same *Database handle for two opens of the same path")
	}
}

func TestEnvironmentPathsShared(t *testing.T) {
	env := NewEnvironment()
	t.Cleanup(func() { env.Close() })

	if env.Paths() == nil {
		t.Fatalf("expected a non-nil shared path cache")
	}
}

func TestEnvironmentCloseClosesAll(t *testing.T) {
	env := NewEnvironment()
	dbPath := t.TempDir()
	db, err := env.Open(Config{Path: dbPath})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := env.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error { return nil })
	if err == nil {
		t.Errorf("expected an error using a Database after Environment.Close")
	}
}
