// Package rawreader defines the abstract contract for the raw index-store
// reader that this module treats as an external collaborator (spec section
// 1: "Deliberately out of scope"). It is given a unit name and yields unit
// metadata plus dependencies, or given a record name and yields occurrence
// records. Producing the raw index data itself — running a compiler,
// emitting unit/record files — is never this module's job.
package rawreader

import "indexstoredb/internal/model"

// CoreSymbolDatum is one entry yielded by a Provider's
// ForeachCoreSymbolData (spec 4.4): a unique symbol in a record, with the
// USR-level roles/relatedRoles it was seen with in that record.
type CoreSymbolDatum struct {
	USR          string
	Name         string
	Info         model.Info
	Roles        model.RoleSet
	RelatedRoles model.RoleSet
}

// UnitEvent is a push notification from an optional external channel (spec
// section 6: "subscribeUnitEvents(handler)") announcing that a unit became
// available or changed.
type UnitEvent struct {
	UnitName string
}

// Reader is the contract consumed from the external raw index store (spec
// section 6). Implementations live outside this module; a given Reader
// reflects one on-disk raw index-store directory.
type Reader interface {
	// ListUnits enumerates every unit name currently present in the store.
	ListUnits() ([]string, error)

	// ReadUnit returns the metadata and dependency list for unitName.
	ReadUnit(unitName string) (model.UnitInfo, error)

	// ReadRecord streams the occurrence records of recordName to visit,
	// stopping early if visit returns false.
	ReadRecord(recordName string, visit func(Record) bool) error

	// SubscribeUnitEvents registers an optional push channel for unit
	// availability notifications. Implementations that have no such
	// channel may return a no-op unsubscribe function and never call
	// handler.
	SubscribeUnitEvents(handler func(UnitEvent)) (unsubscribe func())
}

// Record is one symbol's full record as read from a record file: its core
// datum plus every occurrence of it in that record (spec 4.4/4.5).
type Record struct {
	CoreSymbolDatum
	Occurrences []model.Occurrence
}
