package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fsnotify/fsnotify"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/model"
	"indexstoredb/internal/store"
)

// debounceDelay matches the teacher daemon's default coalescing window for
// bursts of filesystem events from one build step.
const debounceDelay = 500 * time.Millisecond

// outOfDateWatcher is the fsnotify-backed half of spec 4.8's out-of-date
// detection: it watches the directories containing every file any known
// unit depends on, and on a write event, walks the dependent-unit chain and
// reports each affected unit via Engine.notifyOutOfDate.
type outOfDateWatcher struct {
	engine *Engine
	fs     *fsnotify.Watcher

	dirsMu sync.Mutex
	dirs   map[string]bool

	debounceMu sync.Mutex
	debounce   map[string]*time.Timer
}

func newOutOfDateWatcher(e *Engine) (*outOfDateWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &outOfDateWatcher{
		engine:   e,
		fs:       fw,
		dirs:     make(map[string]bool),
		debounce: make(map[string]*time.Timer),
	}, nil
}

// watchFile adds a watch on the directory containing path, if not already
// watched. Compiler-emitted file dependencies are scattered across the
// filesystem rather than forming one walkable tree, so this watches
// per-containing-directory rather than recursively walking a project root
// the way the teacher's daemon does for a single repo checkout.
func (w *outOfDateWatcher) watchFile(path string) {
	dir := filepath.Dir(path)
	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()
	if w.dirs[dir] {
		return
	}
	if err := w.fs.Add(dir); err != nil {
		w.engine.logger.Debug("failed to watch directory", "dir", dir, "error", err)
		return
	}
	w.dirs[dir] = true
}

func (w *outOfDateWatcher) run() {
	for {
		select {
		case <-w.engine.ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.handleEvent(ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.engine.logger.Warn("out-of-date watcher error", "error", err)
		}
	}
}

func (w *outOfDateWatcher) handleEvent(path string) {
	w.debounceMu.Lock()
	if t, ok := w.debounce[path]; ok {
		t.Stop()
	}
	w.debounce[path] = time.AfterFunc(debounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounce, path)
		w.debounceMu.Unlock()
		w.engine.checkFileOutOfDate(path, false)
	})
	w.debounceMu.Unlock()
}

func (w *outOfDateWatcher) close() {
	w.fs.Close()
}

// CheckUnitContainingFileIsOutOfDate performs the out-of-date check
// synchronously on demand (spec 4.8).
func (e *Engine) CheckUnitContainingFileIsOutOfDate(file string) {
	e.checkFileOutOfDate(file, true)
}

// checkFileOutOfDate compares file's on-disk mtime against every unit that
// references it; units whose recorded mtime is older are reported via
// UnitIsOutOfDate and re-queued for import. The check then propagates
// along the dependent-unit chain (spec 4.8: "if unit A depends on unit B
// and B is out-of-date, A is reported too").
func (e *Engine) checkFileOutOfDate(file string, synchronous bool) {
	ref := e.paths.Get(file, e.cfg.WorkingDir)
	if ref.IsEmpty() {
		return
	}
	info, err := os.Stat(ref.String())
	if err != nil {
		return
	}
	modTime := info.ModTime()
	fileCode := idcode.Of(ref.String())

	type staleUnit struct {
		name     string
		hintFile string
		hintDesc string
	}
	var stale []staleUnit
	visited := make(map[idcode.Code]bool)

	err2 := e.cfg.Database.View(func(tx *bolt.Tx) error {
		var directUnits []idcode.Code
		if err := store.ForeachUnitOfFile(tx, fileCode, func(u idcode.Code) bool {
			directUnits = append(directUnits, u)
			return true
		}); err != nil {
			return err
		}

		var walk func(unitCode idcode.Code, hintFile, hintDesc string)
		walk = func(unitCode idcode.Code, hintFile, hintDesc string) {
			if visited[unitCode] {
				return
			}
			visited[unitCode] = true

			unitInfo, ok, err := store.GetUnitInfo(tx, unitCode)
			if err != nil || !ok {
				return
			}
			if modTime.Unix() <= unitInfo.ModTimeSec && hintDesc == "" {
				return
			}
			stale = append(stale, staleUnit{name: unitInfo.UnitName, hintFile: hintFile, hintDesc: hintDesc})

			_ = store.ForeachUnitDependent(tx, unitCode, func(dependent idcode.Code) bool {
				walk(dependent, hintFile, fmt.Sprintf("dependency %q changed", unitInfo.UnitName))
				return true
			})
		}

		for _, u := range directUnits {
			walk(u, ref.String(), "")
		}
		return nil
	})
	if err2 != nil {
		e.logger.Warn("out-of-date check failed", "file", ref.String(), "error", err2)
		return
	}

	for _, su := range stale {
		info, ok, err := e.lookupUnitInfo(su.name)
		if err != nil || !ok {
			continue
		}
		e.notifyOutOfDate(info, modTime, su.hintFile, su.hintDesc, synchronous)
		e.setState(su.name, Stale)
		e.enqueue(su.name)
	}
}

func (e *Engine) lookupUnitInfo(unitName string) (info model.UnitInfo, ok bool, err error) {
	unitCode := idcode.Of(unitName)
	err = e.cfg.Database.View(func(tx *bolt.Tx) error {
		i, found, ierr := store.GetUnitInfo(tx, unitCode)
		if ierr != nil {
			return ierr
		}
		info = i
		ok = found
		return nil
	})
	return info, ok, err
}
