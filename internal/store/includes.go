package store

import (
	"bytes"
	"encoding/binary"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
)

// PutIncludeEdge records one #include edge (spec 4.6), indexed in both
// directions.
func PutIncludeEdge(tx *bolt.Tx, sourceFileCode, targetFileCode idcode.Code, line int) error {
	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], uint64(line))
	value := append([]byte(nil), scratch[:n]...)

	bySource := tx.Bucket([]byte(bucketIncludesBySource))
	if err := bySource.Put(encodeCode2(sourceFileCode, targetFileCode), value); err != nil {
		return wrapErr("put include edge (by source)", err)
	}
	byTarget := tx.Bucket([]byte(bucketIncludesByTarget))
	if err := byTarget.Put(encodeCode2(targetFileCode, sourceFileCode), value); err != nil {
		return wrapErr("put include edge (by target)", err)
	}
	return nil
}

// ForeachFileIncludedBy iterates every (targetFileCode, line) pair that
// sourceFileCode #includes directly.
func ForeachFileIncludedBy(tx *bolt.Tx, sourceFileCode idcode.Code, visit func(targetFileCode idcode.Code, line int) bool) error {
	b := tx.Bucket([]byte(bucketIncludesBySource))
	c := b.Cursor()
	prefix := encodeCode(sourceFileCode)
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		_, targetCode := decodeCode2(k)
		line, _ := binary.Uvarint(v)
		if !visit(targetCode, int(line)) {
			break
		}
	}
	return nil
}

// ForeachFileIncluding iterates every (sourceFileCode, line) pair that
// directly #includes targetFileCode.
func ForeachFileIncluding(tx *bolt.Tx, targetFileCode idcode.Code, visit func(sourceFileCode idcode.Code, line int) bool) error {
	b := tx.Bucket([]byte(bucketIncludesByTarget))
	c := b.Cursor()
	prefix := encodeCode(targetFileCode)
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		_, sourceCode := decodeCode2(k)
		line, _ := binary.Uvarint(v)
		if !visit(sourceCode, int(line)) {
			break
		}
	}
	return nil
}
