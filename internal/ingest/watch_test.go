package ingest

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"indexstoredb/internal/model"
	"indexstoredb/internal/rawreader"
	"indexstoredb/internal/rawreader/rawreadertest"
)

type outOfDateRecorder struct {
	NoopDelegate
	mu    sync.Mutex
	units []string
}

func (r *outOfDateRecorder) UnitIsOutOfDate(info model.UnitInfo, _ time.Time, _ string, _ string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = append(r.units, info.UnitName)
}

func (r *outOfDateRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.units...)
}

func TestCheckUnitContainingFileIsOutOfDate(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "foo.c")
	if err := os.WriteFile(filePath, []byte("int foo(){return 0;}"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reader := rawreadertest.New()
	reader.AddRecord("rec-foo", []rawreader.Record{{
		CoreSymbolDatum: rawreader.CoreSymbolDatum{USR: "c:@F@foo", Name: "foo", Info: model.Info{Kind: model.KindFunction}},
		Occurrences: []model.Occurrence{{
			Symbol:   model.Symbol{USR: "c:@F@foo", Name: "foo", Info: model.Info{Kind: model.KindFunction}},
			Roles:    model.Set(model.RoleDefinition),
			Location: model.Location{Path: filePath, Line: 1},
		}},
	}})
	reader.AddUnit(model.UnitInfo{
		UnitName:     "Unit1.o",
		ProviderDeps: []string{"rec-foo"},
		FileDeps:     []string{filePath},
		ModTimeSec:   1, // far in the past: the real file's mtime is "now"
	})

	e, _ := newTestEngine(t, reader)
	e.cfg.WaitUntilDoneInitializing = true
	recorder := &outOfDateRecorder{}
	e.AddDelegate(recorder)

	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	e.CheckUnitContainingFileIsOutOfDate(filePath)

	units := recorder.snapshot()
	if len(units) != 1 || units[0] != "Unit1.o" {
		t.Errorf("out-of-date units = %v, want [Unit1.o]", units)
	}
}
