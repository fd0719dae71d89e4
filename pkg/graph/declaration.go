package graph

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// DeclID addresses a declaration in the graph arena. Zero means none.
type DeclID uint32

// NoDecl is the zero DeclID.
const NoDecl DeclID = 0

// Tags is a set of free-form attribute or modifier strings.
type Tags map[string]struct{}

// NewTags builds a set from values, dropping empty strings.
func NewTags(values ...string) Tags {
	t := make(Tags, len(values))
	for _, v := range values {
		if v != "" {
			t[v] = struct{}{}
		}
	}
	return t
}

// Has reports whether v is in the set.
func (t Tags) Has(v string) bool {
	_, ok := t[v]
	return ok
}

// HasAny reports whether any of values is in the set.
func (t Tags) HasAny(values ...string) bool {
	for _, v := range values {
		if t.Has(v) {
			return true
		}
	}
	return false
}

// Sorted returns the set as a sorted slice.
func (t Tags) Sorted() []string {
	out := make([]string, 0, len(t))
	for v := range t {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Declaration is a named or anonymous symbol instance.
//
// Relationship sets are bitmaps of arena keys. They are only modified through
// SourceGraph so that indices stay consistent.
type Declaration struct {
	ID        DeclID
	Kind      Kind
	Name      string
	SymbolIDs []string
	Location  Location

	Accessibility         Accessibility
	ExplicitAccessibility bool

	Attributes Tags
	Modifiers  Tags

	DeclaredType     string
	IsImplicit       bool
	IsObjcAccessible bool
	Directives       Directives

	// FoldedFrom is the extension kind a member was moved out of, if any.
	FoldedFrom Kind

	parent           DeclID
	children         *roaring.Bitmap
	unusedParameters *roaring.Bitmap
	references       *roaring.Bitmap
	related          *roaring.Bitmap
}

func newDeclaration(id DeclID) *Declaration {
	return &Declaration{
		ID:               id,
		Attributes:       Tags{},
		Modifiers:        Tags{},
		children:         roaring.New(),
		unusedParameters: roaring.New(),
		references:       roaring.New(),
		related:          roaring.New(),
	}
}

// Parent returns the containing declaration, or NoDecl.
func (d *Declaration) Parent() DeclID { return d.parent }

// Children returns the contained declarations in ascending key order.
func (d *Declaration) Children() []DeclID { return toDeclIDs(d.children) }

// UnusedParameters returns the parameters the indexer found unused.
func (d *Declaration) UnusedParameters() []DeclID { return toDeclIDs(d.unusedParameters) }

// References returns the outgoing ordinary-use references.
func (d *Declaration) References() []RefID { return toRefIDs(d.references) }

// Related returns the outgoing inheritance and conformance references.
func (d *Declaration) Related() []RefID { return toRefIDs(d.related) }

// HasChild reports whether id is a direct child.
func (d *Declaration) HasChild(id DeclID) bool { return d.children.Contains(uint32(id)) }

// ChildCount returns the number of direct children.
func (d *Declaration) ChildCount() int { return int(d.children.GetCardinality()) }

// IsOverride reports whether the declaration carries the override modifier.
func (d *Declaration) IsOverride() bool { return d.Modifiers.Has("override") }

// HasSymbol reports whether id is one of the declaration's symbol ids.
func (d *Declaration) HasSymbol(id string) bool {
	for _, s := range d.SymbolIDs {
		if s == id {
			return true
		}
	}
	return false
}

// ParameterLabels extracts argument labels from a function name such as
// "init(a:b:)". Unlabelled arguments are reported as "_".
func (d *Declaration) ParameterLabels() []string {
	open := strings.IndexByte(d.Name, '(')
	if open < 0 || !strings.HasSuffix(d.Name, ")") {
		return nil
	}
	inner := d.Name[open+1 : len(d.Name)-1]
	if inner == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(inner, ":"), ":")
}

// BaseName is the name without its argument label list.
func (d *Declaration) BaseName() string {
	if i := strings.IndexByte(d.Name, '('); i >= 0 {
		return d.Name[:i]
	}
	return d.Name
}

func toDeclIDs(b *roaring.Bitmap) []DeclID {
	if b == nil || b.IsEmpty() {
		return nil
	}
	raw := b.ToArray()
	out := make([]DeclID, len(raw))
	for i, v := range raw {
		out[i] = DeclID(v)
	}
	return out
}

func toRefIDs(b *roaring.Bitmap) []RefID {
	if b == nil || b.IsEmpty() {
		return nil
	}
	raw := b.ToArray()
	out := make([]RefID, len(raw))
	for i, v := range raw {
		out[i] = RefID(v)
	}
	return out
}
