package symbolindex

import (
	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/model"
	"indexstoredb/internal/provider"
	"indexstoredb/internal/store"
)

// CanonicalOccurrencesByUSR returns every occurrence of usr with roles
// Declaration or Definition, with exactly one of them marked canonical per
// spec 4.5's canonical-occurrence selection rule.
func (ix *Index) CanonicalOccurrencesByUSR(usr string) ([]model.Occurrence, error) {
	var result []model.Occurrence
	err := ix.db.View(func(tx *bolt.Tx) error {
		usrCode := idcode.Of(usr)
		occs, err := ix.declOrDefOccurrences(tx, usrCode, usr)
		if err != nil {
			return err
		}
		result = selectCanonical(occs)
		return nil
	})
	return result, err
}

// OccurrencesByUSR returns every occurrence of usr whose roles overlap
// roleSet, unrestricted by CanonicalOccurrencesByUSR's declaration/
// definition-only filter — e.g. roleSet={Reference, Definition} returns
// both the defining occurrence and every reference/call site (spec section
// 8's occurrencesByUSR round-trip scenario).
func (ix *Index) OccurrencesByUSR(usr string, roleSet model.RoleSet) ([]model.Occurrence, error) {
	var result []model.Occurrence
	err := ix.db.View(func(tx *bolt.Tx) error {
		usrCode := idcode.Of(usr)
		var loopErr error
		err := store.ForeachProviderOfUSR(tx, usrCode, func(providerCode idcode.Code, roles, _ model.RoleSet) bool {
			if !roles.HasAny(roleSet) {
				return true
			}
			if !ix.providerVisible(tx, providerCode) {
				return true
			}
			identifier, ok := store.LookupProvider(tx, providerCode)
			if !ok {
				return true
			}
			p, err := ix.providerFor(identifier, store.ProviderIsSystem(tx, providerCode))
			if err != nil {
				loopErr = err
				return false
			}
			usrs := map[string]struct{}{usr: {}}
			err = p.ForeachSymbolOccurrenceByUSR(usrs, roleSet, func(occ model.Occurrence) provider.VisitResult {
				result = append(result, occ)
				return provider.Continue
			})
			if err != nil {
				loopErr = err
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		return loopErr
	})
	return result, err
}

// declOrDefOccurrences re-reads every provider recorded for usrCode and
// collects the occurrences whose roles include Declaration or Definition.
func (ix *Index) declOrDefOccurrences(tx *bolt.Tx, usrCode idcode.Code, usr string) ([]model.Occurrence, error) {
	var occs []model.Occurrence
	var loopErr error

	err := store.ForeachProviderOfUSR(tx, usrCode, func(providerCode idcode.Code, roles, relatedRoles model.RoleSet) bool {
		if !roles.IsDeclarationOrDefinition() {
			return true
		}
		if !ix.providerVisible(tx, providerCode) {
			return true
		}
		identifier, ok := store.LookupProvider(tx, providerCode)
		if !ok {
			return true
		}
		p, err := ix.providerFor(identifier, store.ProviderIsSystem(tx, providerCode))
		if err != nil {
			loopErr = err
			return false
		}

		usrs := map[string]struct{}{usr: {}}
		err = p.ForeachSymbolOccurrenceByUSR(usrs, model.Set(model.RoleDeclaration, model.RoleDefinition), func(occ model.Occurrence) provider.VisitResult {
			occs = append(occs, occ)
			return provider.Continue
		})
		if err != nil {
			loopErr = err
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return occs, loopErr
}

// providerFor reconstructs a Provider for a record identifier. The raw
// index reader is the sole source of occurrence detail at query time (spec
// 4.4/4.5); the store itself only remembers which providers touched which
// USRs.
func (ix *Index) providerFor(identifier string, isSystem bool) (provider.Provider, error) {
	return provider.NewStoreSymbolRecord(ix.reader, identifier, isSystem), nil
}

// selectCanonical marks exactly one occurrence per USR canonical, preferring
// Declaration when the symbol's kind prefers it, Definition otherwise; ties
// go to the first-seen occurrence (spec 4.5).
func selectCanonical(occs []model.Occurrence) []model.Occurrence {
	if len(occs) == 0 {
		return occs
	}

	preferDecl := occs[0].Symbol.Info.PrefersDeclarationAsCanonical()
	wantRole := model.RoleDefinition
	if preferDecl {
		wantRole = model.RoleDeclaration
	}

	canonicalIdx := -1
	for i, occ := range occs {
		if occ.Roles.HasAny(model.Set(wantRole)) {
			canonicalIdx = i
			break
		}
	}
	if canonicalIdx == -1 {
		canonicalIdx = 0
	}

	out := make([]model.Occurrence, len(occs))
	copy(out, occs)
	out[canonicalIdx].Roles = out[canonicalIdx].Roles.WithCanonical()
	return out
}

// SymbolsNamed returns every USR string interned under exactly name.
func (ix *Index) SymbolsNamed(name string) ([]string, error) {
	var usrs []string
	err := ix.db.View(func(tx *bolt.Tx) error {
		nameCode, ok := lookupInternedName(tx, name)
		if !ok {
			return nil
		}
		return store.ForeachUSRWithName(tx, nameCode, func(usrCode idcode.Code) bool {
			if !ix.usrVisible(tx, usrCode) {
				return true
			}
			if usr, ok := store.LookupUSR(tx, usrCode); ok {
				usrs = append(usrs, usr)
			}
			return true
		})
	})
	return usrs, err
}

func lookupInternedName(tx *bolt.Tx, name string) (idcode.Code, bool) {
	code := idcode.Of(name)
	if _, ok := store.LookupName(tx, code); !ok {
		return 0, false
	}
	return code, true
}

// SymbolsWithPattern implements spec 4.5's pattern-based name query: full
// scan over interned names, filtered by MatchesPattern, yielding every USR
// interned under a matching name.
func (ix *Index) SymbolsWithPattern(pattern string, anchorStart, anchorEnd, subsequence, ignoreCase bool) ([]string, error) {
	var usrs []string
	err := ix.db.View(func(tx *bolt.Tx) error {
		return store.ForeachName(tx, func(nameCode idcode.Code, name string) bool {
			if !MatchesPattern(name, pattern, anchorStart, anchorEnd, subsequence, ignoreCase) {
				return true
			}
			_ = store.ForeachUSRWithName(tx, nameCode, func(usrCode idcode.Code) bool {
				if !ix.usrVisible(tx, usrCode) {
					return true
				}
				if usr, ok := store.LookupUSR(tx, usrCode); ok {
					usrs = append(usrs, usr)
				}
				return true
			})
			return true
		})
	})
	return usrs, err
}

// CanonicalOccurrencesContaining implements the pattern-query variant of
// CanonicalOccurrencesByUSR (spec section 8 scenario 2).
func (ix *Index) CanonicalOccurrencesContaining(pattern string, anchorStart, anchorEnd, subsequence, ignoreCase bool) ([]model.Occurrence, error) {
	usrs, err := ix.SymbolsWithPattern(pattern, anchorStart, anchorEnd, subsequence, ignoreCase)
	if err != nil {
		return nil, err
	}

	var result []model.Occurrence
	for _, usr := range usrs {
		occs, err := ix.CanonicalOccurrencesByUSR(usr)
		if err != nil {
			return nil, err
		}
		result = append(result, occs...)
	}
	return result, nil
}

// SymbolsOfGlobalKind enumerates every USR recorded under kind's reduced
// globalKind vocabulary (spec 4.5 "globalKind mapping").
func (ix *Index) SymbolsOfGlobalKind(kind model.Kind) ([]string, error) {
	var usrs []string
	err := ix.db.View(func(tx *bolt.Tx) error {
		return store.ForeachUSRWithGlobalKind(tx, kind, func(usrCode idcode.Code) bool {
			if !ix.usrVisible(tx, usrCode) {
				return true
			}
			if usr, ok := store.LookupUSR(tx, usrCode); ok {
				usrs = append(usrs, usr)
			}
			return true
		})
	})
	return usrs, err
}
