package store

import (
	"bytes"
	"encoding/binary"
	"io"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
)

// InternFilePath interns a canonical path's directory and filename halves
// and records their pairing under bucketFilepathsByDirectory, then returns
// the IDCode of the full path string (spec 4.3, 4.2.2: file codes are
// computed over the full canonical path so that the same path always
// yields the same code regardless of which half changed).
func InternFilePath(tx *bolt.Tx, fullPath, dir, filename string) (idcode.Code, error) {
	dirCode, err := InternDirectory(tx, dir)
	if err != nil {
		return 0, err
	}
	fileNameCode, err := InternFilename(tx, filename)
	if err != nil {
		return 0, err
	}

	fileCode := idcode.Of(fullPath)
	b := tx.Bucket([]byte(bucketFilepathsByDirectory))
	key := encodeCode2(dirCode, fileNameCode)
	if err := b.Put(key, encodeCode(fileCode)); err != nil {
		return 0, wrapErr("intern file path", err)
	}
	return fileCode, nil
}

// ForeachFilenameInDirectory iterates every (filename, fileCode) pair
// interned under directory dirCode, for spec 4.6's
// "ForeachFilenameContainingPattern".
func ForeachFilenameInDirectory(tx *bolt.Tx, dirCode idcode.Code, visit func(filenameCode, fileCode idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketFilepathsByDirectory))
	c := b.Cursor()
	prefix := encodeCode(dirCode)
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		_, filenameCode := decodeCode2(k)
		visit(filenameCode, decodeCode(v))
	}
	return nil
}

// ForeachAllFilepaths iterates every (dirCode, filenameCode, fileCode)
// triple interned so far, a full scan used only to support reverse
// fileCode->path lookups in filepathindex's include-graph rendering.
func ForeachAllFilepaths(tx *bolt.Tx, visit func(dirCode, filenameCode, fileCode idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketFilepathsByDirectory))
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		dirCode, filenameCode := decodeCode2(k)
		if !visit(dirCode, filenameCode, decodeCode(v)) {
			break
		}
	}
	return nil
}

// ForeachDirectoryForFilename iterates every directory that has interned
// filenameCode as a member, by scanning bucketFilepathsByDirectory.
func ForeachDirectoryForFilename(tx *bolt.Tx, filenameCode idcode.Code, visit func(dirCode idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketFilepathsByDirectory))
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		dirCode, fnCode := decodeCode2(k)
		if fnCode != filenameCode {
			continue
		}
		if !visit(dirCode) {
			break
		}
	}
	return nil
}

// ForeachAllFilenames iterates every interned filename (spec 4.6
// "ForeachFilenameContainingPattern", which must scan every known filename
// regardless of which directory it appears in).
func ForeachAllFilenames(tx *bolt.Tx, visit func(filenameCode idcode.Code, name string) bool) error {
	b := tx.Bucket([]byte(bucketFilenames))
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if !visit(decodeCode(k), string(v)) {
			break
		}
	}
	return nil
}

// IsInternedFilename reports whether name has ever been interned as a
// filename component (spec 4.6 "isKnownFile").
func IsInternedFilename(tx *bolt.Tx, name string) bool {
	code := idcode.Of(name)
	b := tx.Bucket([]byte(bucketFilenames))
	return b.Get(encodeCode(code)) != nil
}

// ProviderFileMeta is the per-(provider,file,unit) metadata accumulated
// while iterating a provider's occurrences (spec 4.5 step 3: "accumulate,
// per file, (fileCode, unitCode, mtime, sysroot, isSystem, moduleName)").
type ProviderFileMeta struct {
	ModTimeSec int64
	Sysroot    string
	IsSystem   bool
	ModuleName string
}

func encodeProviderFileMeta(m ProviderFileMeta) []byte {
	var buf bytes.Buffer
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], uint64(m.ModTimeSec))
	buf.Write(scratch[:])
	putString(&buf, m.Sysroot)
	if m.IsSystem {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	putString(&buf, m.ModuleName)
	return buf.Bytes()
}

func decodeProviderFileMeta(data []byte) (ProviderFileMeta, error) {
	r := bytes.NewReader(data)
	var m ProviderFileMeta
	var scratch [8]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return m, err
	}
	m.ModTimeSec = int64(binary.BigEndian.Uint64(scratch[:]))
	var err error
	if m.Sysroot, err = getString(r); err != nil {
		return m, err
	}
	isSystem, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.IsSystem = isSystem != 0
	if m.ModuleName, err = getString(r); err != nil {
		return m, err
	}
	return m, nil
}

// PutProviderFile records that provider providerCode emitted data for file
// fileCode within unit unitCode (spec 3 "provider-files": (providerCode,
// fileCode, unitCode) unique). Re-importing the same triple overwrites the
// same composite key.
func PutProviderFile(tx *bolt.Tx, providerCode, fileCode, unitCode idcode.Code, meta ProviderFileMeta) error {
	b := tx.Bucket([]byte(bucketProviderFiles))
	return wrapErr("put provider file", b.Put(encodeCode3(providerCode, fileCode, unitCode), encodeProviderFileMeta(meta)))
}

// ForeachProviderOfFile iterates every (providerCode, unitCode, meta) row
// that emitted data for fileCode.
func ForeachProviderOfFile(tx *bolt.Tx, fileCode idcode.Code, visit func(providerCode, unitCode idcode.Code, meta ProviderFileMeta) bool) error {
	b := tx.Bucket([]byte(bucketProviderFiles))
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		p, f, u := decodeCode3(k)
		if f != fileCode {
			continue
		}
		meta, err := decodeProviderFileMeta(v)
		if err != nil {
			continue
		}
		if !visit(p, u, meta) {
			break
		}
	}
	return nil
}

// ForeachUnitOfProvider iterates every unit that provider providerCode has
// emitted data for, by prefix-scanning bucketProviderFiles on its leading
// (providerCode, fileCode, unitCode) key component — the reverse direction
// of PutProviderFile, used to resolve a provider's owning unit(s) for
// visibility gating (spec 4.7) without a dedicated reverse index.
func ForeachUnitOfProvider(tx *bolt.Tx, providerCode idcode.Code, visit func(unitCode idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketProviderFiles))
	c := b.Cursor()
	prefix := encodeCode(providerCode)
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		_, _, unitCode := decodeCode3(k)
		if !visit(unitCode) {
			break
		}
	}
	return nil
}

// PutUnitFileEdge records that unit unitCode references file fileCode
// (spec 4.6 "MainFilesContainingFile", "ForeachFileOfUnit").
func PutUnitFileEdge(tx *bolt.Tx, fileCode, unitCode idcode.Code) error {
	b := tx.Bucket([]byte(bucketUnitByFile))
	return wrapErr("put unit file edge", b.Put(encodeCode2(fileCode, unitCode), nil))
}

// ForeachUnitOfFile iterates every unit that references fileCode.
func ForeachUnitOfFile(tx *bolt.Tx, fileCode idcode.Code, visit func(unitCode idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketUnitByFile))
	c := b.Cursor()
	prefix := encodeCode(fileCode)
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		_, unitCode := decodeCode2(k)
		if !visit(unitCode) {
			break
		}
	}
	return nil
}

// PutUnitDependencyEdge records a Unit-kind dependency from unitCode to
// dependsOnCode (spec section 6 deps, spec 4.6 "dependent-unit
// propagation"). Keyed reverse, (dependsOnCode, unitCode), so
// ForeachUnitDependent can prefix-scan the units that depend on a given
// unit instead of scanning the whole bucket — the same layout includes.go
// already uses for its by-target edges.
func PutUnitDependencyEdge(tx *bolt.Tx, unitCode, dependsOnCode idcode.Code) error {
	b := tx.Bucket([]byte(bucketUnitByUnit))
	return wrapErr("put unit dependency edge", b.Put(encodeCode2(dependsOnCode, unitCode), nil))
}

// ForeachUnitDependent iterates every unit that depends (directly) on
// dependsOnCode — the reverse direction, used to propagate "out of date"
// status to dependents (spec 4.7). A prefix scan keyed on dependsOnCode, since
// PutUnitDependencyEdge stores the edge as (dependsOnCode, unitCode).
func ForeachUnitDependent(tx *bolt.Tx, dependsOnCode idcode.Code, visit func(unitCode idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketUnitByUnit))
	c := b.Cursor()
	prefix := encodeCode(dependsOnCode)
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		_, unitCode := decodeCode2(k)
		if !visit(unitCode) {
			break
		}
	}
	return nil
}
