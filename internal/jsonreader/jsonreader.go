// Package jsonreader is a reference rawreader.Reader: it reads unit and
// record metadata from JSON files on disk. Producing the raw index data
// (running a compiler, emitting the real binary unit/record format) is
// explicitly out of scope for this module; this package exists only so
// cmd/indexstoredb-index has a concrete, runnable reader to demonstrate
// internal/indexsystem end-to-end against a hand-authored fixture
// directory, the way a real deployment would plug in a reader over the
// actual raw index store.
package jsonreader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"indexstoredb/internal/model"
	"indexstoredb/internal/rawreader"
)

// Reader reads "<unit>.unit.json" and "<record>.record.json" files from
// dir.
type Reader struct {
	dir string

	mu       sync.Mutex
	handlers []func(rawreader.UnitEvent)
}

// New constructs a Reader rooted at dir.
func New(dir string) *Reader {
	return &Reader{dir: dir}
}

var _ rawreader.Reader = (*Reader)(nil)

// ListUnits globs every "*.unit.json" file in dir.
func (r *Reader) ListUnits() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*.unit.json"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		var doc unitDoc
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		names = append(names, doc.UnitName)
	}
	return names, nil
}

// unitDoc mirrors model.UnitInfo for on-disk JSON encoding; kept distinct
// from model.UnitInfo so the wire shape can evolve without touching the
// domain type (spec section 3's UnitInfo is a store-internal packed record,
// not a public wire format).
type unitDoc struct {
	UnitName     string          `json:"unitName"`
	MainFile     string          `json:"mainFile,omitempty"`
	OutFile      string          `json:"outFile,omitempty"`
	Sysroot      string          `json:"sysroot,omitempty"`
	Target       string          `json:"target,omitempty"`
	ModTimeSec   int64           `json:"modTimeSec"`
	HasMainFile  bool            `json:"hasMainFile,omitempty"`
	HasSysroot   bool            `json:"hasSysroot,omitempty"`
	IsSystem     bool            `json:"isSystem,omitempty"`
	Provider     string          `json:"provider,omitempty"` // "clang" | "swift"
	FileDeps     []string        `json:"fileDeps,omitempty"`
	UnitDeps     []string        `json:"unitDeps,omitempty"`
	ProviderDeps []string        `json:"providerDeps,omitempty"`
	Deps         []dependencyDoc `json:"deps,omitempty"`
}

type dependencyDoc struct {
	Kind       string `json:"kind"` // "unit" | "record" | "file"
	Name       string `json:"name"`
	ModuleName string `json:"moduleName,omitempty"`
	IsSystem   bool   `json:"isSystem,omitempty"`
	Line       int    `json:"line,omitempty"`
}

func (d unitDoc) toUnitInfo() model.UnitInfo {
	info := model.UnitInfo{
		UnitName:     d.UnitName,
		MainFile:     d.MainFile,
		OutFile:      d.OutFile,
		Sysroot:      d.Sysroot,
		Target:       d.Target,
		ModTimeSec:   d.ModTimeSec,
		HasMainFile:  d.HasMainFile,
		HasSysroot:   d.HasSysroot,
		IsSystem:     d.IsSystem,
		FileDeps:     d.FileDeps,
		UnitDeps:     d.UnitDeps,
		ProviderDeps: d.ProviderDeps,
	}
	if d.Provider == "swift" {
		info.Provider = model.ProviderKindSwift
	}
	for _, dep := range d.Deps {
		kind := model.DepUnit
		switch dep.Kind {
		case "record":
			kind = model.DepRecord
		case "file":
			kind = model.DepFile
		}
		info.Deps = append(info.Deps, model.Dependency{
			Kind:       kind,
			Name:       dep.Name,
			ModuleName: dep.ModuleName,
			IsSystem:   dep.IsSystem,
			Line:       dep.Line,
		})
	}
	return info
}

// ReadUnit reads unitName's metadata back from whichever "*.unit.json"
// file declares it (the on-disk filename need not match the unit name).
func (r *Reader) ReadUnit(unitName string) (model.UnitInfo, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*.unit.json"))
	if err != nil {
		return model.UnitInfo{}, err
	}
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			continue
		}
		var doc unitDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		if doc.UnitName == unitName {
			return doc.toUnitInfo(), nil
		}
	}
	return model.UnitInfo{}, os.ErrNotExist
}

type recordDoc struct {
	USR         string          `json:"usr"`
	Name        string          `json:"name"`
	Occurrences []occurrenceDoc `json:"occurrences"`
}

type occurrenceDoc struct {
	Path       string `json:"path"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	ModTimeSec int64  `json:"modTimeSec"`
}

// ReadRecord reads "<recordName>.record.json" and visits one
// rawreader.Record per entry.
func (r *Reader) ReadRecord(recordName string, visit func(rawreader.Record) bool) error {
	path := filepath.Join(r.dir, recordName+".record.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var docs []recordDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return err
	}
	for _, doc := range docs {
		rec := rawreader.Record{
			CoreSymbolDatum: rawreader.CoreSymbolDatum{
				USR:   doc.USR,
				Name:  doc.Name,
				Roles: model.Set(model.RoleDeclaration, model.RoleDefinition),
			},
		}
		for _, occ := range doc.Occurrences {
			rec.Occurrences = append(rec.Occurrences, model.Occurrence{
				Symbol: model.Symbol{USR: doc.USR, Name: doc.Name},
				Roles:  rec.CoreSymbolDatum.Roles,
				Location: model.Location{
					Path:       occ.Path,
					Line:       occ.Line,
					Column:     occ.Column,
					ModTimeSec: occ.ModTimeSec,
				},
			})
		}
		if !visit(rec) {
			break
		}
	}
	return nil
}

// SubscribeUnitEvents never fires; this reference reader has no push
// channel, only the on-disk glob the scanner polls.
func (r *Reader) SubscribeUnitEvents(handler func(rawreader.UnitEvent)) func() {
	r.mu.Lock()
	r.handlers = append(r.handlers, handler)
	idx := len(r.handlers) - 1
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if idx < len(r.handlers) {
			r.handlers[idx] = nil
		}
	}
}
