// Package indexsystem implements the Index System facade of spec 4.9: it
// creates and owns the Database, SymbolIndex, FilePathIndex, Visibility
// Checker, and Ingest Engine, forwards queries to them, and dispatches
// delegate events to every registered delegate.
package indexsystem

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"indexstoredb/internal/config"
	"indexstoredb/internal/filepathindex"
	"indexstoredb/internal/ingest"
	"indexstoredb/internal/logging"
	"indexstoredb/internal/model"
	"indexstoredb/internal/pathcache"
	"indexstoredb/internal/rawreader"
	"indexstoredb/internal/store"
	"indexstoredb/internal/symbolindex"
	"indexstoredb/internal/visibility"
)

// System composes every subordinate component behind one creation/teardown
// lifecycle (spec 4.9), the same "hold every component as a field, build in
// New, tear down in Close" shape the teacher uses for its indexer.
type System struct {
	options config.Options
	logger  *slog.Logger

	env     *store.Environment
	db      *store.Database
	symbols *symbolindex.Index
	files   *filepathindex.Index
	vis     *visibility.Checker
	ingest  *ingest.Engine

	delegatesMu sync.RWMutex
	delegates   []ingest.Delegate
}

// Create builds a System from opts, opening the Database and starting the
// ingest Engine (unless opts.Readonly). reader is the caller-supplied
// external raw-index-store collaborator (spec section 1: producing it is
// out of scope for this module).
func Create(opts config.Options, reader rawreader.Reader, logger *slog.Logger) (*System, error) {
	if logger == nil {
		logger = logging.Default("indexstoredb")
	}

	env := store.NewEnvironment()
	db, err := env.Open(store.Config{
		Path:     opts.DatabasePath,
		Readonly: opts.Readonly,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("indexsystem: opening database: %w", err)
	}

	paths := env.Paths()
	vis := visibility.New(opts.UseExplicitOutputUnits)
	symbols := symbolindex.New(db, reader, paths, vis)
	files := filepathindex.New(db, paths, vis)

	sys := &System{
		options: opts,
		logger:  logger,
		env:     env,
		db:      db,
		symbols: symbols,
		files:   files,
		vis:     vis,
	}

	eng := ingest.New(ingest.Config{
		Reader:                      reader,
		Database:                    db,
		SymbolIndex:                 symbols,
		WorkingDir:                  opts.WorkingDir,
		Logger:                      logger,
		WorkerCount:                 opts.WorkerCount,
		EnableOutOfDateFileWatching: opts.EnableOutOfDateFileWatching,
		WaitUntilDoneInitializing:   opts.WaitUntilDoneInitializing,
		Readonly:                   opts.Readonly,
	})
	sys.ingest = eng
	eng.AddDelegate(forwardingDelegate{sys})

	if err := eng.Start(); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexsystem: starting ingest: %w", err)
	}

	return sys, nil
}

// Close tears down the ingest engine and database.
func (s *System) Close() error {
	s.ingest.Close()
	return s.env.Close()
}

// AddDelegate registers d to receive every ingestion callback (spec 4.9
// "addDelegate"). Multiple delegates may be registered; all receive every
// callback.
func (s *System) AddDelegate(d ingest.Delegate) {
	s.delegatesMu.Lock()
	defer s.delegatesMu.Unlock()
	s.delegates = append(s.delegates, d)
}

// forwardingDelegate relays the single ingest.Engine's callbacks to every
// delegate registered on the System, so System.AddDelegate can be called
// any number of times after Create without reaching into the Engine.
type forwardingDelegate struct{ sys *System }

func (f forwardingDelegate) ProcessingAddedPending(n int) {
	f.sys.delegatesMu.RLock()
	defer f.sys.delegatesMu.RUnlock()
	for _, d := range f.sys.delegates {
		d.ProcessingAddedPending(n)
	}
}

func (f forwardingDelegate) ProcessingCompleted(n int) {
	f.sys.delegatesMu.RLock()
	defer f.sys.delegatesMu.RUnlock()
	for _, d := range f.sys.delegates {
		d.ProcessingCompleted(n)
	}
}

func (f forwardingDelegate) ProcessedStoreUnit(unitName string) {
	f.sys.delegatesMu.RLock()
	defer f.sys.delegatesMu.RUnlock()
	for _, d := range f.sys.delegates {
		d.ProcessedStoreUnit(unitName)
	}
}

func (f forwardingDelegate) InitialPendingUnits(n int) {
	f.sys.delegatesMu.RLock()
	defer f.sys.delegatesMu.RUnlock()
	for _, d := range f.sys.delegates {
		d.InitialPendingUnits(n)
	}
}

func (f forwardingDelegate) UnitIsOutOfDate(info model.UnitInfo, outOfDateModTime time.Time, triggerHintFile, triggerHintDescription string, synchronous bool) {
	f.sys.delegatesMu.RLock()
	defer f.sys.delegatesMu.RUnlock()
	for _, d := range f.sys.delegates {
		d.UnitIsOutOfDate(info, outOfDateModTime, triggerHintFile, triggerHintDescription, synchronous)
	}
}

// Query forwarding — thin wrappers so callers depend only on System.

func (s *System) CanonicalOccurrencesByUSR(usr string) ([]model.Occurrence, error) {
	return s.symbols.CanonicalOccurrencesByUSR(usr)
}

func (s *System) RelatedOccurrences(usr string, roles model.RoleSet) ([]model.Occurrence, error) {
	return s.symbols.RelatedOccurrences(usr, roles)
}

func (s *System) OccurrencesByUSR(usr string, roles model.RoleSet) ([]model.Occurrence, error) {
	return s.symbols.OccurrencesByUSR(usr, roles)
}

func (s *System) SymbolsNamed(name string) ([]string, error) {
	return s.symbols.SymbolsNamed(name)
}

func (s *System) SymbolsWithPattern(pattern string, anchorStart, anchorEnd, subsequence, ignoreCase bool) ([]string, error) {
	return s.symbols.SymbolsWithPattern(pattern, anchorStart, anchorEnd, subsequence, ignoreCase)
}

func (s *System) SymbolsOfGlobalKind(kind model.Kind) ([]string, error) {
	return s.symbols.SymbolsOfGlobalKind(kind)
}

func (s *System) IsKnownUSR(usr string) (bool, error) {
	return s.symbols.IsKnownUSR(usr)
}

func (s *System) MainFilesContainingFile(file string, crossLanguage bool) ([]string, error) {
	return s.files.MainFilesContainingFile(file, s.options.WorkingDir, crossLanguage)
}

func (s *System) FilesIncludedByFile(source string) ([]string, error) {
	return s.files.FilesIncludedByFile(source, s.options.WorkingDir)
}

func (s *System) FilesIncludingFile(target string) ([]string, error) {
	return s.files.FilesIncludingFile(target, s.options.WorkingDir)
}

func (s *System) ForeachFileOfUnit(unitName string, followDependencies bool, visit func(string) bool) error {
	return s.files.ForeachFileOfUnit(unitName, followDependencies, visit)
}

func (s *System) IsKnownFile(path string) (bool, error) {
	return s.files.IsKnownFile(path, s.options.WorkingDir)
}

func (s *System) AddUnitOutFilePaths(outFilePaths []string, waitForProcessing bool) {
	s.vis.AddUnitOutFilePaths(outFilePaths, waitForProcessing, s.ingest)
}

func (s *System) RemoveUnitOutFilePaths(outFilePaths []string) {
	s.vis.RemoveUnitOutFilePaths(outFilePaths)
}

func (s *System) PollForUnitChangesAndWait() error {
	return s.ingest.PollForUnitChangesAndWait()
}

func (s *System) CheckUnitContainingFileIsOutOfDate(file string) {
	s.ingest.CheckUnitContainingFileIsOutOfDate(file)
}

// Paths exposes the process-wide canonical path cache, for callers that
// need to resolve paths consistently with the System's internals.
func (s *System) Paths() *pathcache.Cache {
	return s.env.Paths()
}
