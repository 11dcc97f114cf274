// Package idcode implements the 64-bit stable string hashing used as the key
// type throughout the store. Every table key or value is an IDCode rather
// than a raw string; callers that need the original string back go through a
// paired "by-code -> string" table (see internal/store).
package idcode

import "hash/fnv"

// Code is a 64-bit hash identifier for a variable-length string.
//
// String -> Code is many-to-one in principle, but collisions are treated as
// absent in practice: this module never attempts to detect or resolve them.
// Every Code that is stored also has its originating string recorded in a
// by-code table, so the string is always recoverable for a Code the store
// actually holds.
type Code uint64

// Of computes the stable hash of s. It is deterministic across runs and
// processes (unlike maphash, which reseeds per process) because IDCodes are
// persisted to disk and must compare equal across store opens.
func Of(s string) Code {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return Code(h.Sum64())
}

// IsZero reports whether c is the zero Code, used as a sentinel for "no
// code" in places that accept an optional reference.
func (c Code) IsZero() bool {
	return c == 0
}
