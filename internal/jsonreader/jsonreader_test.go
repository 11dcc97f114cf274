package jsonreader

import (
	"os"
	"path/filepath"
	"testing"

	"indexstoredb/internal/rawreader"
)

const unitFixture = `{
  "unitName": "Unit1.o",
  "mainFile": "/src/foo.c",
  "hasMainFile": true,
  "modTimeSec": 100,
  "providerDeps": ["rec-foo"],
  "fileDeps": ["/src/foo.c"]
}`

const recordFixture = `[
  {"usr": "c:@F@foo", "name": "foo", "occurrences": [{"path": "/src/foo.c", "line": 3}]}
]`

func TestReadUnitAndRecord(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.unit.json"), []byte(unitFixture), 0644); err != nil {
		t.Fatalf("WriteFile unit: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "rec-foo.record.json"), []byte(recordFixture), 0644); err != nil {
		t.Fatalf("WriteFile record: %v", err)
	}

	r := New(dir)

	units, err := r.ListUnits()
	if err != nil {
		t.Fatalf("ListUnits: %v", err)
	}
	if len(units) != 1 || units[0] != "Unit1.o" {
		t.Fatalf("ListUnits = %v, want [Unit1.o]", units)
	}

	info, err := r.ReadUnit("Unit1.o")
	if err != nil {
		t.Fatalf("ReadUnit: %v", err)
	}
	if !info.HasMainFile || info.MainFile != "/src/foo.c" {
		t.Errorf("ReadUnit returned %+v", info)
	}

	var seen int
	err = r.ReadRecord("rec-foo", func(rec rawreader.Record) bool {
		seen++
		return true
	})
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
}
