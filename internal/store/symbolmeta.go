package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/model"
)

// PutSymbolMeta records the Name and Info a USR code was last seen with
// (spec 4.2.1: "a Symbol is identified by USR; Name/Info are denormalized
// onto every occurrence but a single canonical copy is kept for recovery
// and for name/kind queries").
func PutSymbolMeta(tx *bolt.Tx, usrCode idcode.Code, name string, info model.Info) error {
	nameCode, err := InternName(tx, name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], uint64(nameCode))
	buf.Write(scratch[:])
	buf.WriteByte(byte(info.Kind))
	buf.WriteByte(byte(info.SubKind))
	binary.BigEndian.PutUint32(scratch[:4], uint32(info.Properties))
	buf.Write(scratch[:4])
	buf.WriteByte(byte(info.Language))

	b := tx.Bucket([]byte(bucketSymbolMeta))
	return wrapErr("put symbol meta", b.Put(encodeCode(usrCode), buf.Bytes()))
}

// SymbolMeta is the recovered (Name, Info) pair for a USR code.
type SymbolMeta struct {
	Name string
	Info model.Info
}

func GetSymbolMeta(tx *bolt.Tx, usrCode idcode.Code) (SymbolMeta, bool, error) {
	b := tx.Bucket([]byte(bucketSymbolMeta))
	v := b.Get(encodeCode(usrCode))
	if v == nil {
		return SymbolMeta{}, false, nil
	}
	r := bytes.NewReader(v)
	var scratch [8]byte
	if _, err := io.ReadFull(r, scratch[:8]); err != nil {
		return SymbolMeta{}, false, fmt.Errorf("get symbol meta: name code: %w", err)
	}
	nameCode := idcode.Code(binary.BigEndian.Uint64(scratch[:8]))
	name, ok := LookupName(tx, nameCode)
	if !ok {
		return SymbolMeta{}, false, fmt.Errorf("get symbol meta: name code %v not interned", nameCode)
	}

	kind, err := r.ReadByte()
	if err != nil {
		return SymbolMeta{}, false, fmt.Errorf("get symbol meta: kind: %w", err)
	}
	subKind, err := r.ReadByte()
	if err != nil {
		return SymbolMeta{}, false, fmt.Errorf("get symbol meta: subkind: %w", err)
	}
	if _, err := io.ReadFull(r, scratch[:4]); err != nil {
		return SymbolMeta{}, false, fmt.Errorf("get symbol meta: properties: %w", err)
	}
	properties := binary.BigEndian.Uint32(scratch[:4])
	lang, err := r.ReadByte()
	if err != nil {
		return SymbolMeta{}, false, fmt.Errorf("get symbol meta: language: %w", err)
	}

	return SymbolMeta{
		Name: name,
		Info: model.Info{
			Kind:       model.Kind(kind),
			SubKind:    model.SubKind(subKind),
			Properties: model.PropertySet(properties),
			Language:   model.Language(lang),
		},
	}, true, nil
}

// PutSymbolNameIndex records that nameCode (the interned Name of a symbol)
// maps to usrCode, for pattern-based name queries (spec 4.5
// "ForeachSymbolsNamed", "ForeachSymbolsWithPattern"). Re-importing the
// same (name, usr) pair is idempotent: it writes the same composite key.
func PutSymbolNameIndex(tx *bolt.Tx, nameCode, usrCode idcode.Code) error {
	b := tx.Bucket([]byte(bucketSymbolNames))
	return wrapErr("put symbol name index", b.Put(encodeCode2(nameCode, usrCode), nil))
}

// ForeachUSRWithName iterates every USR code interned under exactly name.
func ForeachUSRWithName(tx *bolt.Tx, nameCode idcode.Code, visit func(usrCode idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketSymbolNames))
	c := b.Cursor()
	prefix := encodeCode(nameCode)
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		_, usrCode := decodeCode2(k)
		if !visit(usrCode) {
			break
		}
	}
	return nil
}

// ForeachName iterates every interned name string along with its code, in
// byte order, for subsequence/anchored pattern scans (spec 4.5 "pattern
// matching is done by interned-name substring scan, not an index").
func ForeachName(tx *bolt.Tx, visit func(code idcode.Code, name string) bool) error {
	b := tx.Bucket([]byte(bucketNames))
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if !visit(decodeCode(k), string(v)) {
			break
		}
	}
	return nil
}
