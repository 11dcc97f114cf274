// Package provider implements the Symbol Data Provider abstraction of spec
// section 4.4: a source of occurrence records for one unit dependency.
// There are exactly two concrete shapes in practice (spec section 9): a
// record-backed provider reading from the raw index store, and a
// precomputed/in-memory provider used by tests. Both satisfy the same
// narrow interface.
package provider

import (
	"indexstoredb/internal/model"
	"indexstoredb/internal/rawreader"
)

// VisitResult tells an iteration whether to keep going.
type VisitResult int

const (
	// Continue asks the provider to keep iterating.
	Continue VisitResult = iota
	// Stop asks the provider to stop iterating immediately.
	Stop
)

// Provider is the Symbol Data Provider contract (spec 4.4). Every
// iteration method takes a visitor that returns Continue or Stop; providers
// must stop promptly when a visitor returns Stop.
type Provider interface {
	// Identifier is the record name this provider's symbol-data comes from;
	// it is interned into the providers table on import (spec 4.5 step 1).
	Identifier() string

	// IsSystem reports whether the provider's owning unit is a system unit.
	IsSystem() bool

	// ForeachCoreSymbolData emits one CoreSymbolDatum per unique symbol in
	// the record.
	ForeachCoreSymbolData(visit func(rawreader.CoreSymbolDatum) VisitResult) error

	// ForeachSymbolOccurrence emits every occurrence with its location,
	// roles, and relations.
	ForeachSymbolOccurrence(visit func(model.Occurrence) VisitResult) error

	// ForeachSymbolOccurrenceByUSR emits occurrences whose symbol USR is in
	// usrs and whose roles overlap roleSet.
	ForeachSymbolOccurrenceByUSR(usrs map[string]struct{}, roleSet model.RoleSet, visit func(model.Occurrence) VisitResult) error

	// ForeachRelatedSymbolOccurrenceByUSR emits occurrences that carry a
	// Relation to any USR in usrs with roles overlapping roleSet.
	ForeachRelatedSymbolOccurrenceByUSR(usrs map[string]struct{}, roleSet model.RoleSet, visit func(model.Occurrence) VisitResult) error

	// ForeachUnitTestSymbolOccurrence emits only occurrences of symbols
	// carrying the UnitTest property.
	ForeachUnitTestSymbolOccurrence(visit func(model.Occurrence) VisitResult) error
}
