package store

import (
	"testing"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
)

func TestInternUSRIdempotent(t *testing.T) {
	db := openTestDB(t)

	var code1, code2 uint64
	err := db.Update(func(tx *bolt.Tx) error {
		c, err := InternUSR(tx, "c:@F@bar")
		if err != nil {
			return err
		}
		code1 = uint64(c)
		return nil
	})
	if err != nil {
		t.Fatalf("Update 1: %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		c, err := InternUSR(tx, "c:@F@bar")
		if err != nil {
			return err
		}
		code2 = uint64(c)
		return nil
	})
	if err != nil {
		t.Fatalf("Update 2: %v", err)
	}
	if code1 != code2 {
		t.Errorf("interning the same string twice produced different codes: %d vs %d", code1, code2)
	}
}

func TestProviderSystemFlag(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		code, err := InternProvider(tx, "/build/main.o", true)
		if err != nil {
			return err
		}
		if !ProviderIsSystem(tx, code) {
			t.Errorf("expected provider to be marked system")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestSymbolNameIndex(t *testing.T) {
	db := openTestDB(t)
	err := db.Update(func(tx *bolt.Tx) error {
		nameCode, err := InternName(tx, "foo")
		if err != nil {
			return err
		}
		usrCode, err := InternUSR(tx, "c:@F@foo")
		if err != nil {
			return err
		}
		return PutSymbolNameIndex(tx, nameCode, usrCode)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = db.View(func(tx *bolt.Tx) error {
		nameCode := idcode.Of("foo")
		if _, ok := LookupName(tx, nameCode); !ok {
			t.Fatalf("expected name 'foo' to be interned")
		}
		var found int
		err := ForeachUSRWithName(tx, nameCode, func(usrCode idcode.Code) bool {
			found++
			return true
		})
		if err != nil {
			return err
		}
		if found != 1 {
			t.Errorf("found %d USRs for name 'foo', want 1", found)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}
