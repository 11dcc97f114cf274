package store

import (
	"testing"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/logging"
	"indexstoredb/internal/model"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	dbPath := t.TempDir()
	db, err := Open(Config{Path: dbPath, Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func TestOpenCreatesAllBuckets(t *testing.T) {
	db := openTestDB(t)
	err := db.View(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if tx.Bucket([]byte(name)) == nil {
				t.Errorf("bucket %s not created", name)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestReopenExistingClaimsOwnership(t *testing.T) {
	dbPath := t.TempDir()

	db1, err := Open(Config{Path: dbPath, Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("Open 1: %v", err)
	}
	err = db1.Update(func(tx *bolt.Tx) error {
		_, err := InternUSR(tx, "c:@F@foo")
		return err
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := db1.Close(); err != nil {
		t.Fatalf("Close 1: %v", err)
	}

	db2, err := Open(Config{Path: dbPath, Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("Open 2: %v", err)
	}
	defer db2.Close()

	err = db2.View(func(tx *bolt.Tx) error {
		code := idcode.Of("c:@F@foo")
		usr, ok := LookupUSR(tx, code)
		if !ok || usr != "c:@F@foo" {
			t.Errorf("expected interned USR to survive reopen, got (%q, %v)", usr, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestUnitInfoPutGet(t *testing.T) {
	db := openTestDB(t)
	unitCode := idcode.Of("MyModule.o")
	info := model.UnitInfo{UnitName: "MyModule.o", HasMainFile: true, MainFile: "/src/main.c"}

	err := db.Update(func(tx *bolt.Tx) error {
		return PutUnitInfo(tx, unitCode, info)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		got, ok, err := GetUnitInfo(tx, unitCode)
		if err != nil {
			return err
		}
		if !ok {
			t.Errorf("expected unit info to be found")
		}
		if got.MainFile != info.MainFile {
			t.Errorf("MainFile = %q, want %q", got.MainFile, info.MainFile)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}
