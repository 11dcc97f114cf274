package provider

import (
	"indexstoredb/internal/model"
	"indexstoredb/internal/rawreader"
)

// Fake is a precomputed, in-memory Provider used by tests that don't need
// the lazy-load behavior of StoreSymbolRecord (spec section 9: "a trait with
// two variants suffices" — this is the second variant).
type Fake struct {
	Name       string
	System     bool
	Records    []rawreader.Record
}

var _ Provider = (*Fake)(nil)

func (f *Fake) Identifier() string { return f.Name }
func (f *Fake) IsSystem() bool     { return f.System }

func (f *Fake) ForeachCoreSymbolData(visit func(rawreader.CoreSymbolDatum) VisitResult) error {
	for _, rec := range f.Records {
		if visit(rec.CoreSymbolDatum) == Stop {
			break
		}
	}
	return nil
}

func (f *Fake) ForeachSymbolOccurrence(visit func(model.Occurrence) VisitResult) error {
	for _, rec := range f.Records {
		for _, occ := range rec.Occurrences {
			if visit(occ) == Stop {
				return nil
			}
		}
	}
	return nil
}

func (f *Fake) ForeachSymbolOccurrenceByUSR(usrs map[string]struct{}, roleSet model.RoleSet, visit func(model.Occurrence) VisitResult) error {
	for _, rec := range f.Records {
		for _, occ := range rec.Occurrences {
			if _, ok := usrs[occ.Symbol.USR]; !ok {
				continue
			}
			if !occ.Roles.HasAny(roleSet) {
				continue
			}
			if visit(occ) == Stop {
				return nil
			}
		}
	}
	return nil
}

func (f *Fake) ForeachRelatedSymbolOccurrenceByUSR(usrs map[string]struct{}, roleSet model.RoleSet, visit func(model.Occurrence) VisitResult) error {
	for _, rec := range f.Records {
		for _, occ := range rec.Occurrences {
			for _, rel := range occ.Relations {
				if _, ok := usrs[rel.Symbol.USR]; !ok {
					continue
				}
				if !rel.Roles.HasAny(roleSet) {
					continue
				}
				if visit(occ) == Stop {
					return nil
				}
				break
			}
		}
	}
	return nil
}

func (f *Fake) ForeachUnitTestSymbolOccurrence(visit func(model.Occurrence) VisitResult) error {
	for _, rec := range f.Records {
		if !rec.Info.Properties.Has(model.PropertySet(model.PropertyUnitTest)) {
			continue
		}
		for _, occ := range rec.Occurrences {
			if visit(occ) == Stop {
				return nil
			}
		}
	}
	return nil
}
