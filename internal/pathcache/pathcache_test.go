package pathcache

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestGetInternsEqualPaths(t *testing.T) {
	c := New()
	c.resolveSymlinks = func(p string) (string, error) { return p, nil }

	a := c.Get("/a/b/c", "")
	b := c.Get("/a/b/c", "")
	if a.String() != b.String() {
		t.Errorf("expected equal canonical paths, got %q and %q", a, b)
	}
}

func TestGetEmptyPath(t *testing.T) {
	c := New()
	if ref := c.Get("", "/cwd"); !ref.IsEmpty() {
		t.Errorf("Get(\"\", ...) = %q, want empty", ref)
	}
}

func TestGetRelativeRequiresWorkingDir(t *testing.T) {
	c := New()
	if ref := c.Get("rel/path", ""); !ref.IsEmpty() {
		t.Errorf("Get(relative, \"\") = %q, want empty (programmer error case)", ref)
	}
}

func TestGetRelativeJoinsWorkingDir(t *testing.T) {
	c := New()
	c.resolveSymlinks = func(p string) (string, error) { return p, nil }

	ref := c.Get("rel/path", "/cwd")
	want := filepath.Join("/cwd", "rel/path")
	if ref.String() != want {
		t.Errorf("Get(rel, cwd) = %q, want %q", ref, want)
	}
}

func TestGetFallsBackOnResolveFailure(t *testing.T) {
	c := New()
	c.resolveSymlinks = func(p string) (string, error) { return "", errors.New("boom") }

	ref := c.Get("/a/b", "")
	if ref.String() != "/a/b" {
		t.Errorf("Get with failing resolver = %q, want unresolved absolute path", ref)
	}
}

func TestContains(t *testing.T) {
	c := New()
	c.resolveSymlinks = func(p string) (string, error) { return p, nil }

	a := c.Get("/foo", "")
	b := c.Get("/foo/bar", "")
	notB := c.Get("/foobar", "")

	if !Contains(a, b) {
		t.Errorf("Contains(%q, %q) = false, want true", a, b)
	}
	if Contains(a, notB) {
		t.Errorf("Contains(%q, %q) = true, want false (lexical prefix only)", a, notB)
	}
	if Contains(a, a) {
		t.Errorf("Contains(%q, %q) = true, want false (equal paths don't contain)", a, a)
	}
}
