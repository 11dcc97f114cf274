package store

import (
	"bytes"
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/model"
)

// PutUSROccurrence upserts the per-provider roles/relatedRoles row for a
// USR (spec 4.5 step 2: "usrs[usrCode] -> (providerCode, roles,
// relatedRoles) using the custom dup-sort; existing row for that provider is
// replaced"). The composite key (usrCode, providerCode) makes re-import of
// the same provider a plain overwrite.
func PutUSROccurrence(tx *bolt.Tx, usrCode, providerCode idcode.Code, roles, relatedRoles model.RoleSet) error {
	b := tx.Bucket([]byte(bucketUSROccurrences))
	var scratch [16]byte
	binary.BigEndian.PutUint64(scratch[:8], uint64(roles))
	binary.BigEndian.PutUint64(scratch[8:], uint64(relatedRoles))
	key := encodeCode2(usrCode, providerCode)
	return wrapErr("put usr occurrence", b.Put(key, scratch[:]))
}

// ForeachProviderOfUSR iterates every (providerCode, roles, relatedRoles)
// row recorded for usrCode.
func ForeachProviderOfUSR(tx *bolt.Tx, usrCode idcode.Code, visit func(providerCode idcode.Code, roles, relatedRoles model.RoleSet) bool) error {
	b := tx.Bucket([]byte(bucketUSROccurrences))
	c := b.Cursor()
	prefix := encodeCode(usrCode)
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		_, providerCode := decodeCode2(k)
		roles := model.RoleSet(binary.BigEndian.Uint64(v[:8]))
		relatedRoles := model.RoleSet(binary.BigEndian.Uint64(v[8:]))
		if !visit(providerCode, roles, relatedRoles) {
			break
		}
	}
	return nil
}

// HasUSR reports whether usrCode has at least one recorded occurrence row,
// i.e. whether it's a known USR (distinct from merely being interned, which
// InternUSR alone would also leave behind).
func HasUSR(tx *bolt.Tx, usrCode idcode.Code) bool {
	b := tx.Bucket([]byte(bucketUSROccurrences))
	c := b.Cursor()
	prefix := encodeCode(usrCode)
	k, _ := c.Seek(prefix)
	return k != nil && bytes.HasPrefix(k, prefix)
}

// PutGlobalKindIndex records usrCode under the reduced globalKind
// enumeration vocabulary (spec 4.5 "globalKind mapping").
func PutGlobalKindIndex(tx *bolt.Tx, kind model.Kind, usrCode idcode.Code) error {
	b := tx.Bucket([]byte(bucketSymbolKinds))
	key := append([]byte{byte(kind)}, encodeCode(usrCode)...)
	return wrapErr("put global kind index", b.Put(key, nil))
}

// ForeachUSRWithGlobalKind iterates every USR code recorded under kind.
func ForeachUSRWithGlobalKind(tx *bolt.Tx, kind model.Kind, visit func(usrCode idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketSymbolKinds))
	c := b.Cursor()
	prefix := []byte{byte(kind)}
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		if !visit(decodeCode(k[1:])) {
			break
		}
	}
	return nil
}
