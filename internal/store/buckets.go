package store

import (
	"encoding/binary"

	"indexstoredb/internal/idcode"
)

// Bucket names, one per logical table of spec section 3, plus a small
// number of implementation-level additions needed to satisfy the
// invariant that "every IDCode that appears as a reference in another
// table has an entry in its interning table" (symbolMeta and names below —
// the spec's Tables list names symbol-names as name-hash -> usr code, but
// doesn't separately spell out where the name string or the Symbol's
// Kind/Info is recovered from; those live in symbolMeta/names here).
const (
	// bucketUSRs is the USR interning table (code -> usr string). The
	// spec's "usrs" table proper — (usrCode, providerCode) -> (roles,
	// relatedRoles), upserted per provider — is bucketUSROccurrences below;
	// splitting the two avoids overloading one bucket with both an
	// interning role and an association-table role.
	bucketUSRs                  = "usrs"
	bucketUSROccurrences        = "usr-occurrences"
	bucketProviders             = "providers"
	bucketProviderFlags         = "provider-flags"
	bucketProvidersWithTestSyms = "providers-with-test-symbols"
	bucketSymbolNames           = "symbol-names"
	bucketSymbolKinds           = "symbol-kinds"
	bucketDirectories           = "directories"
	bucketFilenames             = "filenames"
	bucketFilepathsByDirectory  = "filepaths-by-directory"
	bucketProviderFiles         = "provider-files"
	bucketUnitInfo              = "unit-info"
	bucketUnitByFile            = "unit-by-file"
	bucketUnitByUnit            = "unit-by-unit"
	bucketTargetNames           = "target-names"
	bucketModuleNames           = "module-names"

	// bucketSymbolMeta and bucketNames are the implementation-level
	// by-code->data tables backing the recoverability invariant: every USR
	// code needs its original string plus Name/Info recoverable, and every
	// name hash needs its original string recoverable.
	bucketSymbolMeta = "symbol-meta"
	bucketNames      = "names"

	// bucketIncludesBySource and bucketIncludesByTarget hold the #include
	// substructure materialized from unit dependencies of kind File (spec
	// 4.6 "filesIncludedByFile"/"filesIncludingFile"): (sourceFile,
	// targetFile, line) triples, indexed both directions since both queries
	// are sub-linear lookups, not scans.
	bucketIncludesBySource = "includes-by-source"
	bucketIncludesByTarget = "includes-by-target"
)

// allBuckets lists every bucket created on a fresh database (spec 4.1 step
// 5: "Open all logical tables; commit the creation transaction").
var allBuckets = []string{
	bucketUSRs,
	bucketUSROccurrences,
	bucketProviders,
	bucketProviderFlags,
	bucketProvidersWithTestSyms,
	bucketSymbolNames,
	bucketSymbolKinds,
	bucketDirectories,
	bucketFilenames,
	bucketFilepathsByDirectory,
	bucketProviderFiles,
	bucketUnitInfo,
	bucketUnitByFile,
	bucketUnitByUnit,
	bucketTargetNames,
	bucketModuleNames,
	bucketSymbolMeta,
	bucketNames,
	bucketIncludesBySource,
	bucketIncludesByTarget,
}

// encodeCode encodes a Code as an 8-byte big-endian key, so that bbolt's
// lexical byte-ordering matches numeric ordering (useful for prefix scans).
func encodeCode(c idcode.Code) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(c))
	return buf
}

func decodeCode(b []byte) idcode.Code {
	return idcode.Code(binary.BigEndian.Uint64(b))
}

// encodeCode2 concatenates two codes into one composite key, used for
// DupSort-style tables (usr-occurrences, symbol-names, unit-by-file,
// unit-by-unit, filepaths-by-directory): the primary key is the prefix, the
// secondary key is the suffix, so re-importing the same (primary, secondary)
// pair naturally overwrites the same bbolt key instead of creating a
// duplicate (spec 4.1 "Custom duplicate sort").
func encodeCode2(a, b idcode.Code) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], uint64(a))
	binary.BigEndian.PutUint64(buf[8:], uint64(b))
	return buf
}

func decodeCode2(key []byte) (a, b idcode.Code) {
	return idcode.Code(binary.BigEndian.Uint64(key[:8])), idcode.Code(binary.BigEndian.Uint64(key[8:]))
}

// encodeCode3 is encodeCode2 extended with a third code, used for
// provider-files' (providerCode, fileCode, unitCode) composite key.
func encodeCode3(a, b, c idcode.Code) []byte {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint64(buf[:8], uint64(a))
	binary.BigEndian.PutUint64(buf[8:16], uint64(b))
	binary.BigEndian.PutUint64(buf[16:], uint64(c))
	return buf
}

func decodeCode3(key []byte) (a, b, c idcode.Code) {
	return idcode.Code(binary.BigEndian.Uint64(key[:8])),
		idcode.Code(binary.BigEndian.Uint64(key[8:16])),
		idcode.Code(binary.BigEndian.Uint64(key[16:]))
}
