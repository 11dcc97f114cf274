package model

// DepKind distinguishes the three kinds of dependency a unit can carry
// (spec section 6: "deps:[{kind: Unit|Record|File, ...}]").
type DepKind int

const (
	DepUnit DepKind = iota
	DepRecord
	DepFile
)

// Dependency is one entry of UnitInfo.Deps.
type Dependency struct {
	Kind       DepKind
	Name       string
	ModuleName string
	IsSystem   bool

	// Line is set only for DepFile dependencies that represent a #include
	// edge (spec 4.6 "filesIncludedByFile" / "filesIncludingFile"); zero
	// otherwise.
	Line int
}

// UnitInfo is the packed unit record of spec section 3.
type UnitInfo struct {
	UnitName     string
	MainFile     string
	OutFile      string
	Sysroot      string
	Target       string
	ModTimeSec   int64
	HasMainFile  bool
	HasSysroot   bool
	IsSystem     bool
	HasTestSyms  bool
	Provider     ProviderKind
	FileDeps     []string
	UnitDeps     []string
	ProviderDeps []string

	// Deps carries the full typed dependency list as read from the raw
	// index store (spec section 6); FileDeps/UnitDeps/ProviderDeps above are
	// the flattened name lists the KV tables index by, kept for the fast
	// paths described in spec 3's invariants.
	Deps []Dependency
}
