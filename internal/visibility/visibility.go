// Package visibility implements the File Visibility Checker of spec 4.7:
// when a client drives the index with explicit output-unit paths, only
// units whose out-file is in the accepted set are visible to queries.
package visibility

import (
	"sync"

	"indexstoredb/internal/idcode"
)

// Checker owns the mutable set of accepted outFileCodes. The zero value is
// not usable; construct with New.
type Checker struct {
	mu       sync.RWMutex
	enabled  bool
	accepted map[idcode.Code]struct{}
}

// New constructs a Checker. If enabled is false, IsVisible always reports
// true and AddUnitOutFilePaths/RemoveUnitOutFilePaths are no-ops — this is
// the "useExplicitOutputUnits disabled" mode (spec 4.7), the common case
// where every discovered unit is visible.
func New(enabled bool) *Checker {
	return &Checker{enabled: enabled, accepted: make(map[idcode.Code]struct{})}
}

// Enabled reports whether explicit output-unit gating is active.
func (c *Checker) Enabled() bool {
	return c.enabled
}

// IsVisible reports whether a unit with the given out-file code may be
// observed by queries.
func (c *Checker) IsVisible(outFileCode idcode.Code) bool {
	if !c.enabled {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.accepted[outFileCode]
	return ok
}

// Drainer is implemented by the ingestion engine so that
// AddUnitOutFilePaths(waitForProcessing=true) can block until any in-flight
// import of the newly accepted units has drained (spec 4.7).
type Drainer interface {
	WaitForUnitsProcessed(outFilePaths []string)
}

// AddUnitOutFilePaths accepts outFilePaths into the visible set. If
// waitForProcessing is true and drainer is non-nil, the call blocks until
// ingestion of any newly pending units referencing these out-files has
// completed.
func (c *Checker) AddUnitOutFilePaths(outFilePaths []string, waitForProcessing bool, drainer Drainer) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	for _, p := range outFilePaths {
		c.accepted[idcode.Of(p)] = struct{}{}
	}
	c.mu.Unlock()

	if waitForProcessing && drainer != nil {
		drainer.WaitForUnitsProcessed(outFilePaths)
	}
}

// RemoveUnitOutFilePaths withdraws outFilePaths from the visible set.
func (c *Checker) RemoveUnitOutFilePaths(outFilePaths []string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range outFilePaths {
		delete(c.accepted, idcode.Of(p))
	}
}

// AcceptedCount reports how many out-file codes are currently accepted,
// for status/diagnostic reporting.
func (c *Checker) AcceptedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.accepted)
}
