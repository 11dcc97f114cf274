// Package ingest implements the Index Datastore of spec 4.8: a scanner plus
// bounded worker pool that discovers units from the raw index store, runs
// them through internal/symbolindex, and maintains the unit-info/edge
// tables, with an optional filesystem watcher for out-of-date detection.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/logging"
	"indexstoredb/internal/model"
	"indexstoredb/internal/pathcache"
	"indexstoredb/internal/provider"
	"indexstoredb/internal/rawreader"
	"indexstoredb/internal/store"
	"indexstoredb/internal/symbolindex"
)

// State is a unit's position in the per-unit state machine of spec 4.8.
type State int

const (
	Discovered State = iota
	Reading
	Importing
	Ready
	Failed
	Stale
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case Reading:
		return "reading"
	case Importing:
		return "importing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Delegate receives ingestion lifecycle callbacks (spec 4.8). A nil method
// set is not required; Engine holds delegates behind the Delegate
// interface, so embed a NoopDelegate to get zero-value handling for
// callbacks a given delegate doesn't care about.
type Delegate interface {
	ProcessingAddedPending(n int)
	ProcessingCompleted(n int)
	ProcessedStoreUnit(unitName string)
	InitialPendingUnits(n int)
	UnitIsOutOfDate(info model.UnitInfo, outOfDateModTime time.Time, triggerHintFile, triggerHintDescription string, synchronous bool)
}

// NoopDelegate implements Delegate with every method a no-op, so callers
// that only care about a subset can embed it.
type NoopDelegate struct{}

func (NoopDelegate) ProcessingAddedPending(int)       {}
func (NoopDelegate) ProcessingCompleted(int)           {}
func (NoopDelegate) ProcessedStoreUnit(string)         {}
func (NoopDelegate) InitialPendingUnits(int)           {}
func (NoopDelegate) UnitIsOutOfDate(model.UnitInfo, time.Time, string, string, bool) {}

// Config configures an Engine.
type Config struct {
	Reader      rawreader.Reader
	Database    *store.Database
	SymbolIndex *symbolindex.Index
	WorkingDir  string
	Logger      *slog.Logger

	// WorkerCount bounds the ingestion worker pool (spec 4.8 "bounded
	// worker pool"). Defaults to 4 if zero.
	WorkerCount int

	// EnableOutOfDateFileWatching turns on the fsnotify-backed watcher
	// (spec 4.8).
	EnableOutOfDateFileWatching bool

	// WaitUntilDoneInitializing makes Start block until the initial scan's
	// units have all been imported (spec 4.8).
	WaitUntilDoneInitializing bool

	// Readonly disables the worker pool and watcher entirely; Start returns
	// immediately without scanning (spec 4.8 "Readonly mode").
	Readonly bool
}

// Engine is the running ingestion datastore for one Database.
type Engine struct {
	cfg    Config
	paths  *pathcache.Cache
	logger *slog.Logger

	delegatesMu sync.RWMutex
	delegates   []Delegate

	ctx    context.Context
	cancel context.CancelFunc

	queue    chan string
	queuedMu sync.Mutex
	queued   map[string]bool // at-most-once-concurrent-per-unit collapsing

	statesMu sync.Mutex
	states   map[string]State

	workersWG sync.WaitGroup

	drainMu   sync.Mutex
	drainCond *sync.Cond
	inFlight  int

	watcher *outOfDateWatcher
}

// New constructs an Engine but does not start workers or watchers; call
// Start for that.
func New(cfg Config) *Engine {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:    cfg,
		paths:  cfg.SymbolIndex.Paths(),
		logger: cfg.Logger,
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan string, 4096),
		queued: make(map[string]bool),
		states: make(map[string]State),
	}
	e.drainCond = sync.NewCond(&e.drainMu)
	return e
}

// AddDelegate registers d to receive every future callback (spec 4.9
// "addDelegate"; multiple delegates are supported, all receive every
// callback).
func (e *Engine) AddDelegate(d Delegate) {
	e.delegatesMu.Lock()
	defer e.delegatesMu.Unlock()
	e.delegates = append(e.delegates, d)
}

func (e *Engine) notifyAddedPending(n int) {
	e.delegatesMu.RLock()
	defer e.delegatesMu.RUnlock()
	for _, d := range e.delegates {
		d.ProcessingAddedPending(n)
	}
}

func (e *Engine) notifyCompleted(n int) {
	e.delegatesMu.RLock()
	defer e.delegatesMu.RUnlock()
	for _, d := range e.delegates {
		d.ProcessingCompleted(n)
	}
}

func (e *Engine) notifyStoredUnit(unitName string) {
	e.delegatesMu.RLock()
	defer e.delegatesMu.RUnlock()
	for _, d := range e.delegates {
		d.ProcessedStoreUnit(unitName)
	}
}

func (e *Engine) notifyInitialPending(n int) {
	e.delegatesMu.RLock()
	defer e.delegatesMu.RUnlock()
	for _, d := range e.delegates {
		d.InitialPendingUnits(n)
	}
}

func (e *Engine) notifyOutOfDate(info model.UnitInfo, modTime time.Time, triggerFile, triggerDescription string, synchronous bool) {
	e.delegatesMu.RLock()
	defer e.delegatesMu.RUnlock()
	for _, d := range e.delegates {
		d.UnitIsOutOfDate(info, modTime, triggerFile, triggerDescription, synchronous)
	}
}

// Start performs the initial scan and, unless Readonly, starts the worker
// pool and (if enabled) the out-of-date watcher.
func (e *Engine) Start() error {
	if e.cfg.Readonly {
		return nil
	}

	for i := 0; i < e.cfg.WorkerCount; i++ {
		e.workersWG.Add(1)
		go e.worker()
	}

	units, err := e.cfg.Reader.ListUnits()
	if err != nil {
		return fmt.Errorf("ingest: initial scan: %w", err)
	}
	e.notifyInitialPending(len(units))
	for _, u := range units {
		e.enqueue(u)
	}

	if e.cfg.EnableOutOfDateFileWatching {
		w, err := newOutOfDateWatcher(e)
		if err != nil {
			e.logger.Warn("out-of-date watcher unavailable", "error", err)
		} else {
			e.watcher = w
			go e.watcher.run()
		}
	}

	unsubscribe := e.cfg.Reader.SubscribeUnitEvents(func(ev rawreader.UnitEvent) {
		e.enqueue(ev.UnitName)
	})
	go func() {
		<-e.ctx.Done()
		unsubscribe()
	}()

	if e.cfg.WaitUntilDoneInitializing {
		e.waitForDrain()
	}

	return nil
}

// Close stops the worker pool and watcher, waiting for in-flight units to
// finish their current transaction.
func (e *Engine) Close() {
	e.cancel()
	close(e.queue)
	e.workersWG.Wait()
	if e.watcher != nil {
		e.watcher.close()
	}
}

// enqueue adds unitName to the work queue unless it is already pending or
// in flight (spec 4.8 "at-most-once-concurrent-per-unit").
func (e *Engine) enqueue(unitName string) {
	e.queuedMu.Lock()
	if e.queued[unitName] {
		e.queuedMu.Unlock()
		return
	}
	e.queued[unitName] = true
	e.queuedMu.Unlock()

	e.setState(unitName, Discovered)

	e.drainMu.Lock()
	e.inFlight++
	e.drainMu.Unlock()
	e.notifyAddedPending(1)

	select {
	case e.queue <- unitName:
	case <-e.ctx.Done():
	}
}

func (e *Engine) setState(unitName string, s State) {
	e.statesMu.Lock()
	e.states[unitName] = s
	e.statesMu.Unlock()
}

// State reports the current state machine position of unitName, or
// Discovered if unitName has never been seen (caller is expected to check
// existence separately via the query layer if that distinction matters).
func (e *Engine) State(unitName string) State {
	e.statesMu.Lock()
	defer e.statesMu.Unlock()
	return e.states[unitName]
}

func (e *Engine) worker() {
	defer e.workersWG.Done()
	for unitName := range e.queue {
		e.processUnit(unitName)

		e.queuedMu.Lock()
		delete(e.queued, unitName)
		e.queuedMu.Unlock()
		e.notifyCompleted(1)

		e.drainMu.Lock()
		e.inFlight--
		if e.inFlight == 0 {
			e.drainCond.Broadcast()
		}
		e.drainMu.Unlock()
	}
}

// waitForDrain blocks until the queue and in-flight worker count reach
// zero. Used by WaitUntilDoneInitializing, PollForUnitChangesAndWait, and
// (as a simplification — see DESIGN.md) WaitForUnitsProcessed.
func (e *Engine) waitForDrain() {
	e.drainMu.Lock()
	for e.inFlight > 0 {
		e.drainCond.Wait()
	}
	e.drainMu.Unlock()
}

// WaitForUnitsProcessed implements visibility.Drainer. Rather than tracking
// which in-flight units correspond to which accepted out-files (the store
// has no index from out-file path to in-flight queue entry), it waits for
// the whole queue to drain; outFilePaths is accepted for interface
// conformance and future refinement. Correct, if coarser than the minimal
// spec behavior — see DESIGN.md.
func (e *Engine) WaitForUnitsProcessed(outFilePaths []string) {
	e.waitForDrain()
}

// PollForUnitChangesAndWait re-runs the scanner and blocks until every
// newly discovered unit has drained (spec 4.8).
func (e *Engine) PollForUnitChangesAndWait() error {
	units, err := e.cfg.Reader.ListUnits()
	if err != nil {
		return fmt.Errorf("ingest: poll: %w", err)
	}
	for _, u := range units {
		// Skip units already stored at a modification time no older than
		// the store's copy; only new or changed units are re-imported.
		if stored, ok, err := e.lookupUnitInfo(u); err == nil && ok {
			if cur, err := e.cfg.Reader.ReadUnit(u); err == nil && cur.ModTimeSec <= stored.ModTimeSec {
				continue
			}
		}
		e.enqueue(u)
	}
	e.waitForDrain()
	return nil
}

// processUnit runs one unit through Reading -> Importing -> Ready/Failed.
func (e *Engine) processUnit(unitName string) {
	unitLog := logging.ForUnit(e.logger, unitName)
	e.setState(unitName, Reading)

	info, err := e.cfg.Reader.ReadUnit(unitName)
	if err != nil {
		unitLog.Error("failed to read unit", "error", err)
		e.setState(unitName, Failed)
		return
	}

	e.setState(unitName, Importing)
	unitCode := idcode.Of(unitName)

	err = e.cfg.Database.Update(func(tx *bolt.Tx) error {
		return importUnit(tx, e.paths, e.cfg.Reader, unitCode, info, e.cfg.WorkingDir, unitLog)
	})
	if err != nil {
		unitLog.Error("failed to import unit", "error", err)
		e.setState(unitName, Failed)
		return
	}

	e.setState(unitName, Ready)
	e.notifyStoredUnit(unitName)

	if e.watcher != nil {
		for _, f := range info.FileDeps {
			if ref := e.paths.Get(f, e.cfg.WorkingDir); !ref.IsEmpty() {
				e.watcher.watchFile(ref.String())
			}
		}
	}
}

// importUnit imports every provider dependency of info, then writes the
// unit-info record and every reverse-index edge, all in tx (spec 4.8:
// "opens a single write transaction ... commits"). A single provider's
// record failing to read is logged and skipped rather than failing the
// whole unit (spec 10.1's "per-provider record read failures (best-effort
// import)") — one stale or malformed record shouldn't hide every other
// provider's symbols for the unit.
func importUnit(tx *bolt.Tx, paths *pathcache.Cache, reader rawreader.Reader, unitCode idcode.Code, info model.UnitInfo, workingDir string, logger *slog.Logger) error {
	for _, providerName := range info.ProviderDeps {
		p := provider.NewStoreSymbolRecord(reader, providerName, info.IsSystem)
		if err := symbolindex.ImportSymbolsTx(tx, paths, p, unitCode, workingDir); err != nil {
			logging.ForProvider(logger, providerName).Warn("skipping provider after read failure", "error", err)
			continue
		}
	}

	if err := store.PutUnitInfo(tx, unitCode, info); err != nil {
		return err
	}

	for _, f := range info.FileDeps {
		ref := paths.Get(f, workingDir)
		if ref.IsEmpty() {
			continue
		}
		if err := store.PutUnitFileEdge(tx, idcode.Of(ref.String()), unitCode); err != nil {
			return err
		}
	}

	for _, u := range info.UnitDeps {
		if err := store.PutUnitDependencyEdge(tx, unitCode, idcode.Of(u)); err != nil {
			return err
		}
	}

	if info.HasMainFile {
		mainRef := paths.Get(info.MainFile, workingDir)
		if !mainRef.IsEmpty() {
			sourceCode := idcode.Of(mainRef.String())
			for _, dep := range info.Deps {
				if dep.Kind != model.DepFile || dep.Line == 0 {
					continue
				}
				targetRef := paths.Get(dep.Name, workingDir)
				if targetRef.IsEmpty() {
					continue
				}
				if err := store.PutIncludeEdge(tx, sourceCode, idcode.Of(targetRef.String()), dep.Line); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
