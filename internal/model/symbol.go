package model

// Kind enumerates the source-construct kinds a symbol can have (spec
// section 3). It intentionally mirrors the compiler-facing vocabulary rather
// than inventing a smaller Go-flavored enum, since USRs and their kinds are
// produced by an external, out-of-scope collaborator (the raw-index reader)
// and must round-trip unchanged.
type Kind int

const (
	KindUnknown Kind = iota
	KindFunction
	KindInstanceMethod
	KindClassMethod
	KindClass
	KindStruct
	KindProtocol
	KindEnum
	KindEnumConstant
	KindExtension
	KindTypeAlias
	KindVariable
	KindInstanceProperty
	KindClassProperty
	KindConstructor
	KindDestructor
	KindParameter
	KindField
	KindModule
	KindMacro
	KindCommentTag
	KindConcept
	KindUnion
	KindNamespace
)

// SubKind refines Kind with compiler-specific nuance the spec treats as
// opaque (e.g. a Swift accessor's subkind). IndexStoreDB never interprets
// SubKind itself; it is carried through for callers that do.
type SubKind int

// Property is a bit in the SymbolInfo properties bitset (spec section 3).
type Property uint32

const (
	PropertyUnitTest Property = 1 << iota
	PropertySwiftAsync
	PropertyIBAnnotated
	PropertyGeneric
	PropertyLocal
	PropertyProtocolInterface
)

// PropertySet is a set of Properties.
type PropertySet uint32

// Has reports whether every bit in other is present in p.
func (p PropertySet) Has(other PropertySet) bool {
	return p&other == other
}

// Language identifies the source language a symbol was produced from.
type Language int

const (
	LanguageUnknown Language = iota
	LanguageC
	LanguageCXX
	LanguageObjC
	LanguageObjCXX
	LanguageSwift
)

// Info is the SymbolInfo tuple of spec section 3: (Kind, SubKind,
// Properties, Language).
type Info struct {
	Kind       Kind
	SubKind    SubKind
	Properties PropertySet
	Language   Language
}

// PrefersDeclarationAsCanonical reports whether this kind of symbol should
// prefer its Declaration occurrence over its Definition occurrence when
// selecting the canonical occurrence (spec 4.5). Per the source language's
// convention, this holds for ObjC classes, extensions, and properties.
func (i Info) PrefersDeclarationAsCanonical() bool {
	switch i.Kind {
	case KindClass, KindExtension, KindInstanceProperty, KindClassProperty:
		return i.Language == LanguageObjC || i.Language == LanguageObjCXX
	default:
		return false
	}
}

// GlobalKind maps a Kind to the reduced vocabulary used by the
// symbol-kinds -> USRs enumeration table (spec 4.5 "globalKind mapping").
// Only class-like, function, variable-like, and a few other global kinds
// participate; methods, properties, macros, parameters, and other
// "contained" kinds are intentionally excluded (spec section 9, Open
// Questions — the exclusion is preserved, not "fixed").
func (k Kind) GlobalKind() (Kind, bool) {
	switch k {
	case KindEnum, KindStruct, KindClass, KindProtocol, KindUnion,
		KindTypeAlias, KindFunction, KindVariable, KindConcept, KindCommentTag:
		return k, true
	default:
		return KindUnknown, false
	}
}

// Symbol is the (usr, name, SymbolInfo) tuple of spec section 3.
type Symbol struct {
	USR  string
	Name string
	Info Info
}

// Relation is a back-reference from one occurrence to another symbol, with
// relation-only roles (spec section 3: SymbolRelation).
type Relation struct {
	Roles  RoleSet
	Symbol Symbol
}

// Location is the (CanonicalFilePath, moduleName, mtime, isSystem, sysroot,
// line, column) tuple of spec section 3.
type Location struct {
	Path       string
	ModuleName string
	ModTimeSec int64
	IsSystem   bool
	Sysroot    string
	Line       int
	Column     int
}

// ProviderKind distinguishes the producer of a SymbolOccurrence — Clang or
// Swift — per spec section 3/4.4. Stable integer values: changing them
// requires a DATABASE_FORMAT_VERSION bump, since they are persisted.
type ProviderKind int

const (
	ProviderKindClang ProviderKind = 0
	ProviderKindSwift ProviderKind = 1
)

// Occurrence is the (Symbol, RoleSet, Location, ProviderKind, Target,
// []Relation) tuple of spec section 3.
type Occurrence struct {
	Symbol    Symbol
	Roles     RoleSet
	Location  Location
	Provider  ProviderKind
	Target    string
	Relations []Relation
}
