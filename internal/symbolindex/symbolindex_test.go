package symbolindex

import (
	"testing"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/logging"
	"indexstoredb/internal/model"
	"indexstoredb/internal/pathcache"
	"indexstoredb/internal/provider"
	"indexstoredb/internal/rawreader"
	"indexstoredb/internal/rawreader/rawreadertest"
	"indexstoredb/internal/store"
	"indexstoredb/internal/visibility"
)

func newTestIndex(t *testing.T, reader *rawreadertest.Reader) *Index {
	t.Helper()
	dbPath := t.TempDir()
	db, err := store.Open(store.Config{Path: dbPath, Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, reader, pathcache.New(), visibility.New(false))
}

func fooDefinitionRecord() rawreader.Record {
	return rawreader.Record{
		CoreSymbolDatum: rawreader.CoreSymbolDatum{
			USR:   "c:@F@foo",
			Name:  "foo",
			Info:  model.Info{Kind: model.KindFunction},
			Roles: model.Set(model.RoleDefinition),
		},
		Occurrences: []model.Occurrence{
			{
				Symbol:   model.Symbol{USR: "c:@F@foo", Name: "foo", Info: model.Info{Kind: model.KindFunction}},
				Roles:    model.Set(model.RoleDefinition),
				Location: model.Location{Path: "/src/foo.c", Line: 3},
			},
		},
	}
}

func TestImportSymbolsAndCanonicalLookup(t *testing.T) {
	reader := rawreadertest.New()
	reader.AddRecord("rec-foo", []rawreader.Record{fooDefinitionRecord()})

	ix := newTestIndex(t, reader)
	p := provider.NewStoreSymbolRecord(reader, "rec-foo", false)
	unitCode := idcode.Of("Unit1.o")

	if err := ix.ImportSymbols(p, unitCode, "/src"); err != nil {
		t.Fatalf("ImportSymbols: %v", err)
	}

	occs, err := ix.CanonicalOccurrencesByUSR("c:@F@foo")
	if err != nil {
		t.Fatalf("CanonicalOccurrencesByUSR: %v", err)
	}
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	if !occs[0].Roles.HasAny(model.Set(model.RoleCanonical)) {
		t.Errorf("expected the sole occurrence to be marked canonical")
	}
}

func TestSymbolsNamedAndPattern(t *testing.T) {
	reader := rawreadertest.New()
	reader.AddRecord("rec-foo", []rawreader.Record{fooDefinitionRecord()})

	ix := newTestIndex(t, reader)
	p := provider.NewStoreSymbolRecord(reader, "rec-foo", false)
	if err := ix.ImportSymbols(p, idcode.Of("Unit1.o"), "/src"); err != nil {
		t.Fatalf("ImportSymbols: %v", err)
	}

	usrs, err := ix.SymbolsNamed("foo")
	if err != nil {
		t.Fatalf("SymbolsNamed: %v", err)
	}
	if len(usrs) != 1 || usrs[0] != "c:@F@foo" {
		t.Errorf("SymbolsNamed(foo) = %v, want [c:@F@foo]", usrs)
	}

	patternUsrs, err := ix.SymbolsWithPattern("fo", true, false, false, false)
	if err != nil {
		t.Fatalf("SymbolsWithPattern: %v", err)
	}
	if len(patternUsrs) != 1 || patternUsrs[0] != "c:@F@foo" {
		t.Errorf("SymbolsWithPattern(fo) = %v, want [c:@F@foo]", patternUsrs)
	}

	kindUsrs, err := ix.SymbolsOfGlobalKind(model.KindFunction)
	if err != nil {
		t.Fatalf("SymbolsOfGlobalKind: %v", err)
	}
	if len(kindUsrs) != 1 || kindUsrs[0] != "c:@F@foo" {
		t.Errorf("SymbolsOfGlobalKind(Function) = %v, want [c:@F@foo]", kindUsrs)
	}
}

func TestIsKnownUSR(t *testing.T) {
	reader := rawreadertest.New()
	reader.AddRecord("rec-foo", []rawreader.Record{fooDefinitionRecord()})

	ix := newTestIndex(t, reader)
	p := provider.NewStoreSymbolRecord(reader, "rec-foo", false)
	if err := ix.ImportSymbols(p, idcode.Of("Unit1.o"), "/src"); err != nil {
		t.Fatalf("ImportSymbols: %v", err)
	}

	known, err := ix.IsKnownUSR("c:@F@foo")
	if err != nil {
		t.Fatalf("IsKnownUSR: %v", err)
	}
	if !known {
		t.Errorf("expected c:@F@foo to be known")
	}

	known, err = ix.IsKnownUSR("c:@F@bar")
	if err != nil {
		t.Fatalf("IsKnownUSR: %v", err)
	}
	if known {
		t.Errorf("expected c:@F@bar to be unknown")
	}
}
