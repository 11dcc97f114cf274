package filepathindex

import (
	"strings"
	"testing"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/logging"
	"indexstoredb/internal/model"
	"indexstoredb/internal/pathcache"
	"indexstoredb/internal/store"
	"indexstoredb/internal/visibility"
)

func newTestIndex(t *testing.T) (*Index, *store.Database) {
	t.Helper()
	db, err := store.Open(store.Config{Path: t.TempDir(), Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, pathcache.New(), visibility.New(false)), db
}

func TestMainFilesContainingFile(t *testing.T) {
	ix, db := newTestIndex(t)

	unitCode := idcode.Of("Main.o")
	fileCode := idcode.Of("/src/util.h")

	err := db.Update(func(tx *bolt.Tx) error {
		if err := store.PutUnitInfo(tx, unitCode, model.UnitInfo{
			HasMainFile: true,
			MainFile:    "/src/main.c",
			Provider:    model.ProviderKindClang,
		}); err != nil {
			return err
		}
		return store.PutUnitFileEdge(tx, fileCode, unitCode)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	mains, err := ix.MainFilesContainingFile("/src/util.h", "", true)
	if err != nil {
		t.Fatalf("MainFilesContainingFile: %v", err)
	}
	if len(mains) != 1 || mains[0] != "/src/main.c" {
		t.Errorf("got %v, want [/src/main.c]", mains)
	}

	mains, err = ix.MainFilesContainingFile("/src/util.h", "", false)
	if err != nil {
		t.Fatalf("MainFilesContainingFile (same-language): %v", err)
	}
	if len(mains) != 1 {
		t.Errorf("same-language filter dropped a Clang unit for a .h file: %v", mains)
	}
}

func TestFilesIncludedByAndIncluding(t *testing.T) {
	ix, db := newTestIndex(t)

	source := idcode.Of("/src/main.c")
	target := idcode.Of("/src/util.h")

	err := db.Update(func(tx *bolt.Tx) error {
		if _, err := store.InternFilePath(tx, "/src/main.c", "/src", "main.c"); err != nil {
			return err
		}
		if _, err := store.InternFilePath(tx, "/src/util.h", "/src", "util.h"); err != nil {
			return err
		}
		return store.PutIncludeEdge(tx, source, target, 2)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	included, err := ix.FilesIncludedByFile("/src/main.c", "")
	if err != nil {
		t.Fatalf("FilesIncludedByFile: %v", err)
	}
	if len(included) != 1 || included[0] != "/src/util.h" {
		t.Errorf("got %v, want [/src/util.h]", included)
	}

	including, err := ix.FilesIncludingFile("/src/util.h", "")
	if err != nil {
		t.Fatalf("FilesIncludingFile: %v", err)
	}
	if len(including) != 1 || including[0] != "/src/main.c" {
		t.Errorf("got %v, want [/src/main.c]", including)
	}
}

func TestForeachFileOfUnitFollowsDependencies(t *testing.T) {
	ix, db := newTestIndex(t)

	mainUnit := idcode.Of("Main.o")
	utilUnit := idcode.Of("Util.o")

	err := db.Update(func(tx *bolt.Tx) error {
		if err := store.PutUnitInfo(tx, mainUnit, model.UnitInfo{
			FileDeps: []string{"/src/main.c"},
			UnitDeps: []string{"Util.o"},
		}); err != nil {
			return err
		}
		if err := store.PutUnitInfo(tx, utilUnit, model.UnitInfo{
			FileDeps: []string{"/src/util.c"},
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var direct []string
	if err := ix.ForeachFileOfUnit("Main.o", false, func(f string) bool {
		direct = append(direct, f)
		return true
	}); err != nil {
		t.Fatalf("ForeachFileOfUnit (direct): %v", err)
	}
	if len(direct) != 1 || direct[0] != "/src/main.c" {
		t.Errorf("got %v, want [/src/main.c]", direct)
	}

	var transitive []string
	if err := ix.ForeachFileOfUnit("Main.o", true, func(f string) bool {
		transitive = append(transitive, f)
		return true
	}); err != nil {
		t.Fatalf("ForeachFileOfUnit (transitive): %v", err)
	}
	if len(transitive) != 2 {
		t.Errorf("got %v, want 2 files", transitive)
	}
}

func TestForeachFilenameContainingPatternAndIsKnownFile(t *testing.T) {
	ix, db := newTestIndex(t)

	err := db.Update(func(tx *bolt.Tx) error {
		_, err := store.InternFilePath(tx, "/src/foo_test.c", "/src", "foo_test.c")
		return err
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	var matches []string
	err = ix.ForeachFilenameContainingPattern(func(name string) bool {
		return strings.Contains(name, "test")
	}, func(full string) bool {
		matches = append(matches, full)
		return true
	})
	if err != nil {
		t.Fatalf("ForeachFilenameContainingPattern: %v", err)
	}
	if len(matches) != 1 || matches[0] != "/src/foo_test.c" {
		t.Errorf("got %v, want [/src/foo_test.c]", matches)
	}

	known, err := ix.IsKnownFile("/src/foo_test.c", "")
	if err != nil {
		t.Fatalf("IsKnownFile: %v", err)
	}
	if !known {
		t.Errorf("expected /src/foo_test.c to be known")
	}

	known, err = ix.IsKnownFile("/src/bar.c", "")
	if err != nil {
		t.Fatalf("IsKnownFile: %v", err)
	}
	if known {
		t.Errorf("expected /src/bar.c to be unknown")
	}
}
