// Package symbolindex implements the query layer of spec section 4.5: USR,
// name, and kind-based symbol queries over the tables internal/store
// maintains, plus the importSymbols write-transaction algorithm that
// populates them from a provider.
package symbolindex

import (
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/model"
	"indexstoredb/internal/pathcache"
	"indexstoredb/internal/provider"
	"indexstoredb/internal/rawreader"
	"indexstoredb/internal/store"
	"indexstoredb/internal/visibility"
)

// Index is the symbol-level query engine over one Database.
type Index struct {
	db     *store.Database
	reader rawreader.Reader
	paths  *pathcache.Cache
	vis    *visibility.Checker
}

// New constructs an Index. reader is used to reconstruct providers on
// demand for queries that need full occurrence data (location, relations) —
// the store's own tables only hold enough per-USR/per-provider metadata to
// know *which* providers to re-read (spec 4.5: providers are the source of
// truth for occurrence detail; the KV store is an index into them, not a
// copy of them). vis gates every query result by the owning unit's
// visibility (spec 4.7); pass visibility.New(false) for "every unit
// visible".
func New(db *store.Database, reader rawreader.Reader, paths *pathcache.Cache, vis *visibility.Checker) *Index {
	return &Index{db: db, reader: reader, paths: paths, vis: vis}
}

// providerVisible reports whether providerCode has emitted data for at
// least one unit the visibility checker currently accepts. With gating
// disabled this is always true without touching the store.
func (ix *Index) providerVisible(tx *bolt.Tx, providerCode idcode.Code) bool {
	if !ix.vis.Enabled() {
		return true
	}
	visible := false
	_ = store.ForeachUnitOfProvider(tx, providerCode, func(unitCode idcode.Code) bool {
		info, ok, err := store.GetUnitInfo(tx, unitCode)
		if err != nil || !ok {
			return true
		}
		if ix.vis.IsVisible(idcode.Of(info.OutFile)) {
			visible = true
			return false
		}
		return true
	})
	return visible
}

// usrVisible reports whether usrCode has at least one occurrence from a
// visible provider (spec 4.7: with gating enabled and an empty accepted
// set, every USR-returning query must come back empty).
func (ix *Index) usrVisible(tx *bolt.Tx, usrCode idcode.Code) bool {
	if !ix.vis.Enabled() {
		return true
	}
	visible := false
	_ = store.ForeachProviderOfUSR(tx, usrCode, func(providerCode idcode.Code, _, _ model.RoleSet) bool {
		if ix.providerVisible(tx, providerCode) {
			visible = true
			return false
		}
		return true
	})
	return visible
}

// ImportSymbols runs the write-transaction import algorithm of spec 4.5 for
// one provider within the unit identified by unitCode.
func (ix *Index) ImportSymbols(p provider.Provider, unitCode idcode.Code, workingDir string) error {
	return ix.db.Update(func(tx *bolt.Tx) error {
		return importSymbols(tx, ix.paths, p, unitCode, workingDir)
	})
}

// Paths exposes the Index's canonical path cache, so a caller driving its
// own write transaction (internal/ingest, which imports every provider of a
// unit plus the unit-info record in one commit per spec 4.8) can resolve
// paths the same way ImportSymbols does.
func (ix *Index) Paths() *pathcache.Cache {
	return ix.paths
}

// ImportSymbolsTx runs the same import algorithm as ImportSymbols, but
// against a transaction the caller already owns — used by internal/ingest
// to fold every provider of a unit, plus its unit-info record, into a
// single commit (spec 4.8: "opens a single write transaction ... calls
// importSymbols for each provider ... commits").
func ImportSymbolsTx(tx *bolt.Tx, paths *pathcache.Cache, p provider.Provider, unitCode idcode.Code, workingDir string) error {
	return importSymbols(tx, paths, p, unitCode, workingDir)
}

func importSymbols(tx *bolt.Tx, paths *pathcache.Cache, p provider.Provider, unitCode idcode.Code, workingDir string) error {
	providerCode, err := store.InternProvider(tx, p.Identifier(), p.IsSystem())
	if err != nil {
		return err
	}

	var sawTestSymbol bool

	err = p.ForeachCoreSymbolData(func(d rawreader.CoreSymbolDatum) provider.VisitResult {
		usrCode, ierr := store.InternUSR(tx, d.USR)
		if ierr != nil {
			err = ierr
			return provider.Stop
		}
		if ierr := store.PutSymbolMeta(tx, usrCode, d.Name, d.Info); ierr != nil {
			err = ierr
			return provider.Stop
		}
		if ierr := store.PutUSROccurrence(tx, usrCode, providerCode, d.Roles, d.RelatedRoles); ierr != nil {
			err = ierr
			return provider.Stop
		}

		nameCode, ierr := store.InternName(tx, d.Name)
		if ierr != nil {
			err = ierr
			return provider.Stop
		}
		if ierr := store.PutSymbolNameIndex(tx, nameCode, usrCode); ierr != nil {
			err = ierr
			return provider.Stop
		}

		if gk, ok := d.Info.Kind.GlobalKind(); ok {
			if ierr := store.PutGlobalKindIndex(tx, gk, usrCode); ierr != nil {
				err = ierr
				return provider.Stop
			}
		}

		if d.Info.Properties.Has(model.PropertySet(model.PropertyUnitTest)) {
			sawTestSymbol = true
		}

		return provider.Continue
	})
	if err != nil {
		return err
	}

	err = p.ForeachSymbolOccurrence(func(occ model.Occurrence) provider.VisitResult {
		ref := paths.Get(occ.Location.Path, workingDir)
		if ref.IsEmpty() {
			return provider.Continue
		}
		dir, filename := filepath.Split(ref.String())
		fileCode, ierr := store.InternFilePath(tx, ref.String(), dir, filename)
		if ierr != nil {
			err = ierr
			return provider.Stop
		}
		if ierr := store.PutProviderFile(tx, providerCode, fileCode, unitCode, store.ProviderFileMeta{
			ModTimeSec: occ.Location.ModTimeSec,
			Sysroot:    occ.Location.Sysroot,
			IsSystem:   occ.Location.IsSystem,
			ModuleName: occ.Location.ModuleName,
		}); ierr != nil {
			err = ierr
			return provider.Stop
		}
		if ierr := store.PutUnitFileEdge(tx, fileCode, unitCode); ierr != nil {
			err = ierr
			return provider.Stop
		}
		return provider.Continue
	})
	if err != nil {
		return err
	}

	if sawTestSymbol {
		if err := store.MarkProviderHasTestSymbols(tx, providerCode); err != nil {
			return err
		}
	}

	return nil
}
