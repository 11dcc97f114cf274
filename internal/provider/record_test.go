package provider

import (
	"testing"

	"indexstoredb/internal/model"
	"indexstoredb/internal/rawreader"
	"indexstoredb/internal/rawreader/rawreadertest"
)

func sampleRecord(usr string, roles model.RoleSet) rawreader.Record {
	return rawreader.Record{
		CoreSymbolDatum: rawreader.CoreSymbolDatum{
			USR:  usr,
			Name: usr,
			Info: model.Info{Kind: model.KindFunction},
		},
		Occurrences: []model.Occurrence{
			{
				Symbol: model.Symbol{USR: usr, Name: usr},
				Roles:  roles,
			},
		},
	}
}

func TestStoreSymbolRecordLoadsLazily(t *testing.T) {
	reader := rawreadertest.New()
	reader.AddRecord("rec1", []rawreader.Record{sampleRecord("usr1", model.Set(model.RoleDefinition))})

	p := NewStoreSymbolRecord(reader, "rec1", false)
	if p.records != nil {
		t.Fatalf("expected no records loaded before first iteration")
	}

	var seen int
	if err := p.ForeachCoreSymbolData(func(rawreader.CoreSymbolDatum) VisitResult {
		seen++
		return Continue
	}); err != nil {
		t.Fatalf("ForeachCoreSymbolData: %v", err)
	}
	if seen != 1 {
		t.Errorf("seen = %d, want 1", seen)
	}
	if p.records == nil {
		t.Errorf("expected records to be cached after first iteration")
	}
}

func TestStoreSymbolRecordStopsEarly(t *testing.T) {
	reader := rawreadertest.New()
	reader.AddRecord("rec1", []rawreader.Record{
		sampleRecord("usr1", model.Set(model.RoleDefinition)),
		sampleRecord("usr2", model.Set(model.RoleDefinition)),
	})

	p := NewStoreSymbolRecord(reader, "rec1", false)
	var seen int
	err := p.ForeachCoreSymbolData(func(rawreader.CoreSymbolDatum) VisitResult {
		seen++
		return Stop
	})
	if err != nil {
		t.Fatalf("ForeachCoreSymbolData: %v", err)
	}
	if seen != 1 {
		t.Errorf("seen = %d, want 1 (should stop after first)", seen)
	}
}

func TestForeachSymbolOccurrenceByUSRFilters(t *testing.T) {
	reader := rawreadertest.New()
	reader.AddRecord("rec1", []rawreader.Record{
		sampleRecord("usr1", model.Set(model.RoleDefinition)),
		sampleRecord("usr2", model.Set(model.RoleReference)),
	})

	p := NewStoreSymbolRecord(reader, "rec1", false)
	usrs := map[string]struct{}{"usr1": {}}
	var got []string
	err := p.ForeachSymbolOccurrenceByUSR(usrs, model.Set(model.RoleDefinition), func(occ model.Occurrence) VisitResult {
		got = append(got, occ.Symbol.USR)
		return Continue
	})
	if err != nil {
		t.Fatalf("ForeachSymbolOccurrenceByUSR: %v", err)
	}
	if len(got) != 1 || got[0] != "usr1" {
		t.Errorf("got %v, want [usr1]", got)
	}
}

func TestForeachUnitTestSymbolOccurrence(t *testing.T) {
	reader := rawreadertest.New()
	testRec := sampleRecord("usrTest", model.Set(model.RoleDefinition))
	testRec.Info.Properties = model.PropertySet(model.PropertyUnitTest)
	reader.AddRecord("rec1", []rawreader.Record{
		sampleRecord("usr1", model.Set(model.RoleDefinition)),
		testRec,
	})

	p := NewStoreSymbolRecord(reader, "rec1", false)
	var got []string
	err := p.ForeachUnitTestSymbolOccurrence(func(occ model.Occurrence) VisitResult {
		got = append(got, occ.Symbol.USR)
		return Continue
	})
	if err != nil {
		t.Fatalf("ForeachUnitTestSymbolOccurrence: %v", err)
	}
	if len(got) != 1 || got[0] != "usrTest" {
		t.Errorf("got %v, want [usrTest]", got)
	}
}
