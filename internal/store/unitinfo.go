package store

import (
	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/model"
)

// PutUnitInfo writes the packed record for unitCode (spec 4.4: unit import
// upserts the unit-info record unconditionally, last write wins).
func PutUnitInfo(tx *bolt.Tx, unitCode idcode.Code, info model.UnitInfo) error {
	b := tx.Bucket([]byte(bucketUnitInfo))
	return wrapErr("put unit info", b.Put(encodeCode(unitCode), encodeUnitInfo(info)))
}

// GetUnitInfo reads back the packed record for unitCode.
func GetUnitInfo(tx *bolt.Tx, unitCode idcode.Code) (model.UnitInfo, bool, error) {
	b := tx.Bucket([]byte(bucketUnitInfo))
	v := b.Get(encodeCode(unitCode))
	if v == nil {
		return model.UnitInfo{}, false, nil
	}
	info, err := decodeUnitInfo(v)
	if err != nil {
		return model.UnitInfo{}, false, err
	}
	return info, true, nil
}

// DeleteUnitInfo removes unitCode's record (spec 4.7: a unit removed from
// the source tree is dropped from unit-info but its historical symbol data
// is left for garbage collection by re-import, not eagerly swept).
func DeleteUnitInfo(tx *bolt.Tx, unitCode idcode.Code) error {
	b := tx.Bucket([]byte(bucketUnitInfo))
	return wrapErr("delete unit info", b.Delete(encodeCode(unitCode)))
}

// ForeachUnitCode iterates every unit code with a stored record.
func ForeachUnitCode(tx *bolt.Tx, visit func(idcode.Code) bool) error {
	b := tx.Bucket([]byte(bucketUnitInfo))
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if !visit(decodeCode(k)) {
			break
		}
	}
	return nil
}
