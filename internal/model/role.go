package model

// Role is a bit in the SymbolRole bitset (spec section 3). Primary roles
// describe what an occurrence itself is; relation roles describe how an
// occurrence relates back to another symbol; Canonical is synthetic and is
// only ever set by the query layer (internal/symbolindex), never by a
// provider.
type Role uint64

const (
	RoleDeclaration Role = 1 << iota
	RoleDefinition
	RoleReference
	RoleRead
	RoleWrite
	RoleCall
	RoleDynamic
	RoleAddressOf
	RoleImplicit

	RoleRelationChildOf
	RoleRelationBaseOf
	RoleRelationOverrideOf
	RoleRelationReceivedBy
	RoleRelationCalledBy
	RoleRelationExtendedBy
	RoleRelationAccessorOf
	RoleRelationContainedBy
	RoleRelationIBTypeOf
	RoleRelationSpecializationOf

	// RoleCanonical is never produced by a provider; it is added by
	// internal/symbolindex at query time (spec 4.5 "Canonical-occurrence
	// selection").
	RoleCanonical Role = 1 << 63
)

// RoleSet is a set of Roles, represented as a bitset for cheap storage and
// overlap tests.
type RoleSet uint64

// Set returns a RoleSet containing exactly the given roles.
func Set(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= RoleSet(r)
	}
	return s
}

// Has reports whether every bit in other is present in s.
func (s RoleSet) Has(other RoleSet) bool {
	return s&other == other
}

// HasAny reports whether s and other share at least one bit.
func (s RoleSet) HasAny(other RoleSet) bool {
	return s&other != 0
}

// Union returns the bitwise union of s and other.
func (s RoleSet) Union(other RoleSet) RoleSet {
	return s | other
}

// WithCanonical returns s with RoleCanonical set.
func (s RoleSet) WithCanonical() RoleSet {
	return s | RoleSet(RoleCanonical)
}

// IsDeclarationOrDefinition reports whether s carries Declaration or
// Definition — the candidate set for canonical-occurrence selection (spec
// 4.5).
func (s RoleSet) IsDeclarationOrDefinition() bool {
	return s.HasAny(Set(RoleDeclaration, RoleDefinition))
}
