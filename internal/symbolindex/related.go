package symbolindex

import (
	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/model"
	"indexstoredb/internal/provider"
	"indexstoredb/internal/store"
)

// IsKnownUSR reports whether usr has at least one recorded occurrence row.
func (ix *Index) IsKnownUSR(usr string) (bool, error) {
	var known bool
	err := ix.db.View(func(tx *bolt.Tx) error {
		known = store.HasUSR(tx, idcode.Of(usr))
		return nil
	})
	return known, err
}

// RelatedOccurrences returns every occurrence across every known provider of
// usr that carries a Relation back to usr with roles overlapping roleSet —
// e.g. every caller of a function, or every override of a method (spec 4.4
// "foreachRelatedSymbolOccurrenceByUSR").
func (ix *Index) RelatedOccurrences(usr string, roleSet model.RoleSet) ([]model.Occurrence, error) {
	var result []model.Occurrence
	err := ix.db.View(func(tx *bolt.Tx) error {
		usrCode := idcode.Of(usr)
		var loopErr error
		err := store.ForeachProviderOfUSR(tx, usrCode, func(providerCode idcode.Code, roles, relatedRoles model.RoleSet) bool {
			if !relatedRoles.HasAny(roleSet) {
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
			err = p.ForeachRelatedSymbolOccurrenceByUSR(usrs, roleSet, func(occ model.Occurrence) provider.VisitResult {
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
