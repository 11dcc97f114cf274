package store

import (
	"path/filepath"
	"sync"

	"indexstoredb/internal/pathcache"
)

// Environment replaces what a C-derived implementation would keep as
// process-global state (the process-uniqueness map of open databases, the
// shared path cache) with an explicit value callers construct and pass
// around (spec section 9, "Global mutable state"). One Environment is
// typically shared by a whole process.
type Environment struct {
	mu        sync.Mutex
	databases map[string]*Database
	paths     *pathcache.Cache
}

// NewEnvironment constructs an empty Environment.
func NewEnvironment() *Environment {
	return &Environment{
		databases: make(map[string]*Database),
		paths:     pathcache.New(),
	}
}

// Paths returns the shared path cache (spec 4.3) associated with this
// environment.
func (e *Environment) Paths() *pathcache.Cache {
	return e.paths
}

// Open opens (or returns the already-open) Database for cfg.Path. Two
// opens of the same absolute path within one Environment share a single
// underlying Database handle, so that the in-process process-uniqueness
// guarantee (spec 4.1: "at most one Database per absolute dbPath per
// process") holds without relying on any package-level variable.
func (e *Environment) Open(cfg Config) (*Database, error) {
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, wrapErr("Environment.Open: resolve absolute path", err)
	}
	cfg.Path = abs

	e.mu.Lock()
	defer e.mu.Unlock()

	if db, ok := e.databases[abs]; ok {
		return db, nil
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	e.databases[abs] = db
	return db, nil
}

// Close closes every Database this Environment opened.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for path, db := range e.databases {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.databases, path)
	}
	return firstErr
}

// Forget drops db from the process-uniqueness map without closing it,
// letting a caller that holds its own reference close it independently.
// Primarily useful in tests.
func (e *Environment) Forget(db *Database) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.databases, db.Path())
}
