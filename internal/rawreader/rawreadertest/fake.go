// Package rawreadertest provides an in-memory fake of rawreader.Reader for
// tests, mirroring the teacher's embedding.NullEmbedder pairing of a real
// implementation with a fake that satisfies the same interface.
package rawreadertest

import (
	"sync"

	"indexstoredb/internal/model"
	"indexstoredb/internal/rawreader"
)

// Reader is an in-memory rawreader.Reader. Construct with New (the zero
// value has nil maps and AddUnit/AddRecord on it panic); add
// units and records with AddUnit/AddRecord before handing it to an ingest
// pipeline.
type Reader struct {
	mu       sync.Mutex
	units    map[string]model.UnitInfo
	records  map[string][]rawreader.Record
	handlers []func(rawreader.UnitEvent)
}

// New creates an empty fake reader.
func New() *Reader {
	return &Reader{
		units:   make(map[string]model.UnitInfo),
		records: make(map[string][]rawreader.Record),
	}
}

// AddUnit registers (or replaces) a unit's metadata.
func (r *Reader) AddUnit(info model.UnitInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[info.UnitName] = info
}

// AddRecord registers (or replaces) a record's contents.
func (r *Reader) AddRecord(name string, records []rawreader.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[name] = records
}

// Touch bumps a unit's ModTimeSec, simulating a rebuild, and fires any
// subscribed unit-event handlers.
func (r *Reader) Touch(unitName string, modTimeSec int64) {
	r.mu.Lock()
	info, ok := r.units[unitName]
	if ok {
		info.ModTimeSec = modTimeSec
		r.units[unitName] = info
	}
	handlers := append([]func(rawreader.UnitEvent){}, r.handlers...)
	r.mu.Unlock()

	for _, h := range handlers {
		h(rawreader.UnitEvent{UnitName: unitName})
	}
}

func (r *Reader) ListUnits() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.units))
	for name := range r.units {
		names = append(names, name)
	}
	return names, nil
}

func (r *Reader) ReadUnit(unitName string) (model.UnitInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.units[unitName]
	if !ok {
		return model.UnitInfo{}, errNotFound(unitName)
	}
	return info, nil
}

func (r *Reader) ReadRecord(recordName string, visit func(rawreader.Record) bool) error {
	r.mu.Lock()
	records := r.records[recordName]
	r.mu.Unlock()

	for _, rec := range records {
		if !visit(rec) {
			break
		}
	}
	return nil
}

func (r *Reader) SubscribeUnitEvents(handler func(rawreader.UnitEvent)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler)
	idx := len(r.handlers) - 1
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if idx < len(r.handlers) {
			r.handlers[idx] = nil
		}
	}
}

type errNotFound string

func (e errNotFound) Error() string {
	return "unit not found: " + string(e)
}

var _ rawreader.Reader = (*Reader)(nil)
