package graph

import "github.com/RoaringBitmap/roaring/v2"

// RefID addresses a reference in the graph arena. Zero means none.
type RefID uint32

// NoRef is the zero RefID.
const NoRef RefID = 0

// Role is the syntactic role a referenced type plays at its use site.
type Role string

const (
	RoleVarType                Role = "varType"
	RoleReturnType             Role = "returnType"
	RoleParameterType          Role = "parameterType"
	RoleGenericParameterType   Role = "genericParameterType"
	RoleGenericRequirementType Role = "genericRequirementType"
	RoleInheritedType          Role = "inheritedType"
	RoleRefinedProtocolType    Role = "refinedProtocolType"
	RoleConformedType          Role = "conformedType"
	RoleInitializerType        Role = "initializerType"
	RoleMetatypeArgument       Role = "metatypeArgument"
	RoleUnknown                Role = "unknown"
)

// ParseRole maps a role name onto the closed set, defaulting to unknown.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleVarType, RoleReturnType, RoleParameterType, RoleGenericParameterType,
		RoleGenericRequirementType, RoleInheritedType, RoleRefinedProtocolType,
		RoleConformedType, RoleInitializerType, RoleMetatypeArgument:
		return r
	}
	return RoleUnknown
}

// Reference is a directed edge from a source location to a symbol id.
type Reference struct {
	ID        RefID
	Kind      Kind
	SymbolID  string
	Name      string
	Location  Location
	Role      Role
	IsRelated bool

	// Synthesized is set on references created by the pipeline rather than
	// the indexer.
	Synthesized bool

	parent    DeclID
	parentRef RefID
	nested    *roaring.Bitmap
}

// Parent returns the owning declaration, or NoDecl for a root reference.
func (r *Reference) Parent() DeclID { return r.parent }

// ParentReference returns the reference this one is nested under, or NoRef.
func (r *Reference) ParentReference() RefID { return r.parentRef }

// Nested returns references nested beneath this one.
func (r *Reference) Nested() []RefID { return toRefIDs(r.nested) }

// Key returns the identity of the reference.
func (r *Reference) Key() RefKey {
	return RefKey{SymbolID: r.SymbolID, Location: r.Location, IsRelated: r.IsRelated}
}

// RefKey is the identity of a reference. A related and an ordinary edge to
// the same symbol at the same location are distinct.
type RefKey struct {
	SymbolID  string
	Location  Location
	IsRelated bool
}
