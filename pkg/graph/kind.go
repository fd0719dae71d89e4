package graph

import "strings"

// Kind identifies the declaration variant a symbol belongs to.
type Kind string

const (
	KindAssociatedType  Kind = "associatedtype"
	KindClass           Kind = "class"
	KindEnum            Kind = "enum"
	KindEnumElement     Kind = "enumelement"
	KindExtension       Kind = "extension"
	KindExtensionClass  Kind = "extension.class"
	KindExtensionEnum   Kind = "extension.enum"
	KindExtensionProto  Kind = "extension.protocol"
	KindExtensionStruct Kind = "extension.struct"

	KindAccessorAddress        Kind = "function.accessor.address"
	KindAccessorDidSet         Kind = "function.accessor.didset"
	KindAccessorGetter         Kind = "function.accessor.getter"
	KindAccessorModify         Kind = "function.accessor.modify"
	KindAccessorMutableAddress Kind = "function.accessor.mutableaddress"
	KindAccessorRead           Kind = "function.accessor.read"
	KindAccessorSetter         Kind = "function.accessor.setter"
	KindAccessorWillSet        Kind = "function.accessor.willset"

	KindConstructor    Kind = "function.constructor"
	KindDestructor     Kind = "function.destructor"
	KindFreeFunction   Kind = "function.free"
	KindClassMethod    Kind = "function.method.class"
	KindInstanceMethod Kind = "function.method.instance"
	KindStaticMethod   Kind = "function.method.static"
	KindOperator       Kind = "function.operator"
	KindInfixOperator  Kind = "function.operator.infix"
	KindPostfixOp      Kind = "function.operator.postfix"
	KindPrefixOp       Kind = "function.operator.prefix"
	KindSubscript      Kind = "function.subscript"

	KindGenericTypeParam Kind = "generic_type_param"
	KindMacro            Kind = "macro"
	KindModule           Kind = "module"
	KindPrecedenceGroup  Kind = "precedencegroup"
	KindProtocol         Kind = "protocol"
	KindStruct           Kind = "struct"
	KindTypealias        Kind = "typealias"

	KindClassVar     Kind = "var.class"
	KindGlobalVar    Kind = "var.global"
	KindInstanceVar  Kind = "var.instance"
	KindLocalVar     Kind = "var.local"
	KindParameterVar Kind = "var.parameter"
	KindStaticVar    Kind = "var.static"
)

// AllKinds lists every known kind in a stable order.
var AllKinds = []Kind{
	KindAssociatedType, KindClass, KindEnum, KindEnumElement,
	KindExtension, KindExtensionClass, KindExtensionEnum, KindExtensionProto, KindExtensionStruct,
	KindAccessorAddress, KindAccessorDidSet, KindAccessorGetter, KindAccessorModify,
	KindAccessorMutableAddress, KindAccessorRead, KindAccessorSetter, KindAccessorWillSet,
	KindConstructor, KindDestructor, KindFreeFunction,
	KindClassMethod, KindInstanceMethod, KindStaticMethod,
	KindOperator, KindInfixOperator, KindPostfixOp, KindPrefixOp, KindSubscript,
	KindGenericTypeParam, KindMacro, KindModule, KindPrecedenceGroup,
	KindProtocol, KindStruct, KindTypealias,
	KindClassVar, KindGlobalVar, KindInstanceVar, KindLocalVar, KindParameterVar, KindStaticVar,
}

var knownKinds = func() map[Kind]struct{} {
	m := make(map[Kind]struct{}, len(AllKinds))
	for _, k := range AllKinds {
		m[k] = struct{}{}
	}
	return m
}()

// ParseKind returns the kind for s and whether it is known.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := knownKinds[k]
	return k, ok
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// ExtensionKinds are the kinds extension folding operates on.
var ExtensionKinds = []Kind{KindExtension, KindExtensionClass, KindExtensionEnum, KindExtensionProto, KindExtensionStruct}

// AccessorKinds are property accessor and observer kinds.
var AccessorKinds = []Kind{
	KindAccessorAddress, KindAccessorDidSet, KindAccessorGetter, KindAccessorModify,
	KindAccessorMutableAddress, KindAccessorRead, KindAccessorSetter, KindAccessorWillSet,
}

// ConformableKinds can adopt protocols and be extended.
var ConformableKinds = []Kind{KindClass, KindEnum, KindStruct}

// PropertyKinds are the stored or computed properties assign-only analysis considers.
var PropertyKinds = []Kind{KindInstanceVar, KindStaticVar, KindClassVar, KindGlobalVar}

// IsExtension reports whether k is any extension kind, including the generic one.
func (k Kind) IsExtension() bool {
	return k == KindExtension || strings.HasPrefix(string(k), "extension.")
}

// ExtendedKind returns the kind an extension kind extends. The generic
// extension kind has no resolvable subject kind and returns false.
func (k Kind) ExtendedKind() (Kind, bool) {
	switch k {
	case KindExtensionClass:
		return KindClass, true
	case KindExtensionEnum:
		return KindEnum, true
	case KindExtensionProto:
		return KindProtocol, true
	case KindExtensionStruct:
		return KindStruct, true
	}
	return "", false
}

// IsAccessor reports whether k is a property accessor or observer.
func (k Kind) IsAccessor() bool {
	return strings.HasPrefix(string(k), "function.accessor.")
}

// IsFunction reports whether k is a callable kind other than an accessor.
func (k Kind) IsFunction() bool {
	return strings.HasPrefix(string(k), "function.") && !k.IsAccessor()
}

// IsVariable reports whether k is any variable kind.
func (k Kind) IsVariable() bool {
	return strings.HasPrefix(string(k), "var.")
}

// IsConformable reports whether k can conform to a protocol.
func (k Kind) IsConformable() bool {
	return k == KindClass || k == KindStruct || k == KindEnum
}

// IsType reports whether k introduces a nominal type.
func (k Kind) IsType() bool {
	return k.IsConformable() || k == KindProtocol || k == KindTypealias || k == KindAssociatedType
}

// IsMember reports whether k can be a protocol requirement or an override.
func (k Kind) IsMember() bool {
	return k.IsFunction() || (k.IsVariable() && k != KindLocalVar && k != KindParameterVar) ||
		k == KindAssociatedType || k == KindTypealias
}

// IsProperty reports whether k is a non-local, non-parameter variable.
func (k Kind) IsProperty() bool {
	for _, p := range PropertyKinds {
		if k == p {
			return true
		}
	}
	return false
}
