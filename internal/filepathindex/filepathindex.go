// Package filepathindex implements the file-path-keyed queries of spec
// section 4.6 over the tables internal/store maintains: main-file
// resolution, the include graph, per-unit file enumeration, and filename
// pattern search.
package filepathindex

import (
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"

	"indexstoredb/internal/idcode"
	"indexstoredb/internal/model"
	"indexstoredb/internal/pathcache"
	"indexstoredb/internal/store"
	"indexstoredb/internal/visibility"
)

// Index is the file-path query engine over one Database.
type Index struct {
	db    *store.Database
	paths *pathcache.Cache
	vis   *visibility.Checker
}

// New constructs an Index. vis gates every query result by the owning
// unit's visibility (spec 4.7); pass visibility.New(false) for "every unit
// visible".
func New(db *store.Database, paths *pathcache.Cache, vis *visibility.Checker) *Index {
	return &Index{db: db, paths: paths, vis: vis}
}

// unitVisible reports whether unitCode's out-file is currently accepted;
// always true with gating disabled.
func (ix *Index) unitVisible(tx *bolt.Tx, unitCode idcode.Code) bool {
	if !ix.vis.Enabled() {
		return true
	}
	info, ok, err := store.GetUnitInfo(tx, unitCode)
	if err != nil || !ok {
		return false
	}
	return ix.vis.IsVisible(idcode.Of(info.OutFile))
}

// fileVisible reports whether fileCode belongs to at least one visible
// unit.
func (ix *Index) fileVisible(tx *bolt.Tx, fileCode idcode.Code) bool {
	if !ix.vis.Enabled() {
		return true
	}
	visible := false
	_ = store.ForeachUnitOfFile(tx, fileCode, func(unitCode idcode.Code) bool {
		if ix.unitVisible(tx, unitCode) {
			visible = true
			return false
		}
		return true
	})
	return visible
}

// MainFilesContainingFile resolves file to its fileCode and enumerates
// every unit that references it, yielding that unit's main file whenever
// hasMainFile is set. If crossLanguage is false, results are restricted to
// units whose provider matches the language inferred from file's extension
// (spec 4.6).
func (ix *Index) MainFilesContainingFile(file, workingDir string, crossLanguage bool) ([]string, error) {
	ref := ix.paths.Get(file, workingDir)
	if ref.IsEmpty() {
		return nil, nil
	}
	fileCode := idcode.Of(ref.String())
	wantProvider, haveLanguageFilter := providerKindForExtension(file)

	var mains []string
	err := ix.db.View(func(tx *bolt.Tx) error {
		return store.ForeachUnitOfFile(tx, fileCode, func(unitCode idcode.Code) bool {
			info, ok, err := store.GetUnitInfo(tx, unitCode)
			if err != nil || !ok || !info.HasMainFile {
				return true
			}
			if !crossLanguage && haveLanguageFilter && info.Provider != wantProvider {
				return true
			}
			if !ix.unitVisible(tx, unitCode) {
				return true
			}
			mains = append(mains, info.MainFile)
			return true
		})
	})
	return mains, err
}

// providerKindForExtension infers the provider kind a file extension
// implies, for crossLanguage=false filtering. Swift files imply the Swift
// provider; everything else (.c/.cpp/.h/.m/...) implies Clang.
func providerKindForExtension(file string) (model.ProviderKind, bool) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".swift":
		return model.ProviderKindSwift, true
	case ".c", ".cc", ".cpp", ".cxx", ".h", ".hpp", ".m", ".mm":
		return model.ProviderKindClang, true
	default:
		return 0, false
	}
}

// FilesIncludedByFile returns every file source directly #includes (spec
// 4.6).
func (ix *Index) FilesIncludedByFile(source, workingDir string) ([]string, error) {
	ref := ix.paths.Get(source, workingDir)
	if ref.IsEmpty() {
		return nil, nil
	}
	sourceCode := idcode.Of(ref.String())

	var files []string
	err := ix.db.View(func(tx *bolt.Tx) error {
		return store.ForeachFileIncludedBy(tx, sourceCode, func(targetCode idcode.Code, line int) bool {
			if !ix.fileVisible(tx, targetCode) {
				return true
			}
			if dir, filename, ok := lookupFileCode(tx, targetCode); ok {
				files = append(files, filepath.Join(dir, filename))
			}
			return true
		})
	})
	return files, err
}

// FilesIncludingFile returns every file that directly #includes target
// (spec 4.6).
func (ix *Index) FilesIncludingFile(target, workingDir string) ([]string, error) {
	ref := ix.paths.Get(target, workingDir)
	if ref.IsEmpty() {
		return nil, nil
	}
	targetCode := idcode.Of(ref.String())

	var files []string
	err := ix.db.View(func(tx *bolt.Tx) error {
		return store.ForeachFileIncluding(tx, targetCode, func(sourceCode idcode.Code, line int) bool {
			if !ix.fileVisible(tx, sourceCode) {
				return true
			}
			if dir, filename, ok := lookupFileCode(tx, sourceCode); ok {
				files = append(files, filepath.Join(dir, filename))
			}
			return true
		})
	})
	return files, err
}

// lookupFileCode is a best-effort reverse lookup from a file's IDCode back
// to a (directory, filename) pair, by scanning filepaths-by-directory.
// There is no direct code->path table since file codes are computed over
// the full path, not stored as a value anywhere except this composite
// index; this is acceptable because the operation is only used to render
// a handful of include-graph results, not a hot query path.
func lookupFileCode(tx *bolt.Tx, fileCode idcode.Code) (dir, filename string, ok bool) {
	found := false
	_ = store.ForeachAllFilepaths(tx, func(dirCode, filenameCode, fc idcode.Code) bool {
		if fc != fileCode {
			return true
		}
		if d, dok := store.LookupDirectory(tx, dirCode); dok {
			dir = d
		}
		if f, fok := store.LookupFilename(tx, filenameCode); fok {
			filename = f
		}
		found = true
		return false
	})
	return dir, filename, found
}

// ForeachFileOfUnit implements spec 4.6's DFS over a unit's files:
// followDependencies=true walks unit-by-unit transitively, de-duplicating
// by fileCode; false yields only the unit's direct fileDeps.
func (ix *Index) ForeachFileOfUnit(unitName string, followDependencies bool, visit func(file string) bool) error {
	unitCode := idcode.Of(unitName)
	return ix.db.View(func(tx *bolt.Tx) error {
		visitedUnits := map[idcode.Code]bool{}
		visitedFiles := map[string]bool{}
		return ix.dfsUnitFiles(tx, unitCode, followDependencies, visitedUnits, visitedFiles, visit)
	})
}

func (ix *Index) dfsUnitFiles(tx *bolt.Tx, unitCode idcode.Code, followDependencies bool, visitedUnits map[idcode.Code]bool, visitedFiles map[string]bool, visit func(string) bool) error {
	if visitedUnits[unitCode] {
		return nil
	}
	visitedUnits[unitCode] = true

	if !ix.unitVisible(tx, unitCode) {
		return nil
	}

	info, ok, err := store.GetUnitInfo(tx, unitCode)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	for _, f := range info.FileDeps {
		if visitedFiles[f] {
			continue
		}
		visitedFiles[f] = true
		if !visit(f) {
			return nil
		}
	}

	if !followDependencies {
		return nil
	}

	stop := false
	for _, depName := range info.UnitDeps {
		if stop {
			break
		}
		depCode := idcode.Of(depName)
		if err := ix.dfsUnitFiles(tx, depCode, followDependencies, visitedUnits, visitedFiles, func(f string) bool {
			ok := visit(f)
			if !ok {
				stop = true
			}
			return ok
		}); err != nil {
			return err
		}
	}
	return nil
}

// ForeachFilenameContainingPattern full-scans interned filenames, applies a
// matcher (supplied by the caller to avoid a dependency from filepathindex
// back onto symbolindex), and re-composes matches into full paths (spec
// 4.6).
func (ix *Index) ForeachFilenameContainingPattern(matches func(name string) bool, visit func(fullPath string) bool) error {
	return ix.db.View(func(tx *bolt.Tx) error {
		return store.ForeachAllFilenames(tx, func(filenameCode idcode.Code, name string) bool {
			if !matches(name) {
				return true
			}
			stop := false
			_ = store.ForeachDirectoryForFilename(tx, filenameCode, func(dirCode idcode.Code) bool {
				dir, ok := store.LookupDirectory(tx, dirCode)
				if !ok {
					return true
				}
				fullPath := filepath.Join(dir, name)
				if !ix.fileVisible(tx, idcode.Of(fullPath)) {
					return true
				}
				if !visit(fullPath) {
					stop = true
					return false
				}
				return true
			})
			return !stop
		})
	})
}

// IsKnownFile reports whether path has ever been interned as a filename
// component (spec 4.6 "isKnownFile").
func (ix *Index) IsKnownFile(path, workingDir string) (bool, error) {
	ref := ix.paths.Get(path, workingDir)
	if ref.IsEmpty() {
		return false, nil
	}
	filename := filepath.Base(ref.String())
	var known bool
	err := ix.db.View(func(tx *bolt.Tx) error {
		known = store.IsInternedFilename(tx, filename)
		return nil
	})
	return known, err
}
