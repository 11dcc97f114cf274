package store

import (
	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
)

// internString computes the IDCode of s and, if it is not already present
// in table, stores code -> s (interning table) and returns code. Every
// interning table in this store is keyed this way, satisfying the
// recoverability invariant: any IDCode produced by internString can later
// be mapped back to its original string via lookupString on the same
// table.
func internString(tx *bolt.Tx, table string, s string) (idcode.Code, error) {
	code := idcode.Of(s)
	b := tx.Bucket([]byte(table))
	key := encodeCode(code)
	if b.Get(key) == nil {
		if err := b.Put(key, []byte(s)); err != nil {
			return 0, wrapErr("internString put "+table, err)
		}
	}
	return code, nil
}

func lookupString(tx *bolt.Tx, table string, code idcode.Code) (string, bool) {
	b := tx.Bucket([]byte(table))
	v := b.Get(encodeCode(code))
	if v == nil {
		return "", false
	}
	return string(v), true
}

// InternUSR interns a Unified Symbol Reference string (spec 4.2.1).
func InternUSR(tx *bolt.Tx, usr string) (idcode.Code, error) {
	return internString(tx, bucketUSRs, usr)
}

// LookupUSR recovers the original USR string for code.
func LookupUSR(tx *bolt.Tx, code idcode.Code) (string, bool) {
	return lookupString(tx, bucketUSRs, code)
}

// InternName interns a plain symbol Name string, used for name-pattern
// queries (spec 4.5 "symbol name matching").
func InternName(tx *bolt.Tx, name string) (idcode.Code, error) {
	return internString(tx, bucketNames, name)
}

func LookupName(tx *bolt.Tx, code idcode.Code) (string, bool) {
	return lookupString(tx, bucketNames, code)
}

// InternDirectory and InternFilename intern the two halves of a canonical
// file path (spec 4.3: paths are stored split as directory + filename so
// that sibling files in the same directory share one interned string).
func InternDirectory(tx *bolt.Tx, dir string) (idcode.Code, error) {
	return internString(tx, bucketDirectories, dir)
}

func LookupDirectory(tx *bolt.Tx, code idcode.Code) (string, bool) {
	return lookupString(tx, bucketDirectories, code)
}

func InternFilename(tx *bolt.Tx, name string) (idcode.Code, error) {
	return internString(tx, bucketFilenames, name)
}

func LookupFilename(tx *bolt.Tx, code idcode.Code) (string, bool) {
	return lookupString(tx, bucketFilenames, code)
}

func InternTarget(tx *bolt.Tx, target string) (idcode.Code, error) {
	return internString(tx, bucketTargetNames, target)
}

func LookupTarget(tx *bolt.Tx, code idcode.Code) (string, bool) {
	return lookupString(tx, bucketTargetNames, code)
}

func InternModule(tx *bolt.Tx, module string) (idcode.Code, error) {
	return internString(tx, bucketModuleNames, module)
}

func LookupModule(tx *bolt.Tx, code idcode.Code) (string, bool) {
	return lookupString(tx, bucketModuleNames, code)
}

// InternProvider interns a provider identifier (a record name, spec 4.2.3)
// and records its system bit.
func InternProvider(tx *bolt.Tx, identifier string, isSystem bool) (idcode.Code, error) {
	code, err := internString(tx, bucketProviders, identifier)
	if err != nil {
		return 0, err
	}
	if isSystem {
		if err := markProviderFlag(tx, code, providerFlagSystem); err != nil {
			return 0, err
		}
	}
	return code, nil
}

func LookupProvider(tx *bolt.Tx, code idcode.Code) (string, bool) {
	return lookupString(tx, bucketProviders, code)
}

// MarkProviderHasTestSymbols records that provider code emitted at least
// one unit-test symbol occurrence (spec 4.5 "ForeachUnitTestSymbolOccurrence"
// needs this to skip providers with none quickly).
func MarkProviderHasTestSymbols(tx *bolt.Tx, code idcode.Code) error {
	b := tx.Bucket([]byte(bucketProvidersWithTestSyms))
	return wrapErr("mark provider test symbols", b.Put(encodeCode(code), []byte{1}))
}

func ProviderHasTestSymbols(tx *bolt.Tx, code idcode.Code) bool {
	b := tx.Bucket([]byte(bucketProvidersWithTestSyms))
	return b.Get(encodeCode(code)) != nil
}

type providerFlag byte

const providerFlagSystem providerFlag = 1

// markProviderFlag stores a single-byte flag alongside a provider's
// interned identifier, keyed by code with the flag byte appended so
// multiple independent flags can coexist per provider.
func markProviderFlag(tx *bolt.Tx, code idcode.Code, flag providerFlag) error {
	b := tx.Bucket([]byte(bucketProviderFlags))
	key := append(encodeCode(code), byte(flag))
	return wrapErr("mark provider flag", b.Put(key, []byte{1}))
}

// ProviderIsSystem reports whether code was interned with isSystem=true.
func ProviderIsSystem(tx *bolt.Tx, code idcode.Code) bool {
	b := tx.Bucket([]byte(bucketProviderFlags))
	key := append(encodeCode(code), byte(providerFlagSystem))
	return b.Get(key) != nil
}
