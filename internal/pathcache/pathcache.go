// Package pathcache implements the canonical (symlink-resolved) file path
// cache described in spec section 4.3: equal absolute paths are interned so
// they share backing storage, and repeated lookups of the same path avoid
// repeated filesystem calls.
package pathcache

import (
	"path/filepath"
	"strings"
	"sync"
)

// Ref is an interned canonical file path. Two Refs for the same canonical
// path are backed by the same string, so they compare equal.
type Ref struct {
	path string
}

// String returns the canonical path.
func (r Ref) String() string {
	return r.path
}

// IsEmpty reports whether r holds no path.
func (r Ref) IsEmpty() bool {
	return r.path == ""
}

// Cache is a process-wide canonical path cache guarded by a mutex, following
// the same guarded-map idiom used elsewhere in this module for small pieces
// of shared mutable state (see internal/visibility for a sibling example).
// Callers hold one Cache per process (see internal/store.Environment, which
// embeds one), rather than reaching for a package-level global.
type Cache struct {
	mu       sync.Mutex
	resolved map[string]Ref

	// resolveSymlinks is overridable for tests that want to force the
	// fallback path (spec 4.3: resolution failure caches the absolute,
	// unresolved path as canonical).
	resolveSymlinks func(string) (string, error)
}

// New creates an empty canonical path cache.
func New() *Cache {
	return &Cache{
		resolved:        make(map[string]Ref),
		resolveSymlinks: filepath.EvalSymlinks,
	}
}

// Get resolves path to a canonical Ref. If path is relative, workingDir is
// prepended; workingDir must be non-empty whenever path is relative (spec
// 4.3: "empty+relative is a programmer error" — callers that violate this
// get an empty Ref back rather than a panic, since query methods across this
// module never panic on bad input).
func (c *Cache) Get(path, workingDir string) Ref {
	if path == "" {
		return Ref{}
	}

	abs := path
	if !filepath.IsAbs(abs) {
		if workingDir == "" {
			return Ref{}
		}
		abs = filepath.Join(workingDir, abs)
	}

	c.mu.Lock()
	if ref, ok := c.resolved[abs]; ok {
		c.mu.Unlock()
		return ref
	}
	c.mu.Unlock()

	resolvedPath, err := c.resolveSymlinks(abs)
	if err != nil {
		resolvedPath = abs
	}
	ref := Ref{path: resolvedPath}

	c.mu.Lock()
	c.resolved[abs] = ref
	c.mu.Unlock()

	return ref
}

// Contains reports whether b is contained in directory a: b starts with a,
// and the character of b at position len(a) is a path separator. This is
// directory-prefix containment, not lexical string prefix — "/foo" does not
// contain "/foobar".
func Contains(a, b Ref) bool {
	ap, bp := a.path, b.path
	if ap == "" || bp == "" {
		return false
	}
	if !strings.HasPrefix(bp, ap) {
		return false
	}
	if len(bp) == len(ap) {
		return false
	}
	return bp[len(ap)] == filepath.Separator
}
