package graph

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

type mark int

const (
	markUsed mark = iota
	markRetained
	markIgnored
	markAssignOnly
	markMainAttributed
	markLiveWithoutIgnores
	markCount
)

// RedundantProtocol records why a protocol can be removed: the conformance
// references that would go away and the protocols that should replace it.
type RedundantProtocol struct {
	Conformances []RefID
	Replacements []string
}

// AccessibilityRedundancy names which rank a declaration needlessly holds.
type AccessibilityRedundancy string

const (
	RedundantPublic      AccessibilityRedundancy = "public"
	RedundantInternal    AccessibilityRedundancy = "internal"
	RedundantFilePrivate AccessibilityRedundancy = "fileprivate"
)

// RedundantAccessibility is an entry of the redundant-accessibility map.
type RedundantAccessibility struct {
	Redundancy AccessibilityRedundancy
	// Modules are the modules the declaration is referenced from.
	Modules []string
}

func (g *SourceGraph) set(m mark, id DeclID) {
	if g.Declaration(id) != nil {
		g.marks[m].Add(uint32(id))
	}
}

// MarkUsed records id as reachable.
func (g *SourceGraph) MarkUsed(id DeclID) { g.set(markUsed, id) }

// IsUsed reports whether id was marked reachable.
func (g *SourceGraph) IsUsed(id DeclID) bool { return g.marks[markUsed].Contains(uint32(id)) }

// MarkRetained makes id a reachability root.
func (g *SourceGraph) MarkRetained(id DeclID) { g.set(markRetained, id) }

// IsRetained reports whether id is a root.
func (g *SourceGraph) IsRetained(id DeclID) bool { return g.marks[markRetained].Contains(uint32(id)) }

// MarkIgnored excludes id from findings and makes it a root.
func (g *SourceGraph) MarkIgnored(id DeclID) { g.set(markIgnored, id) }

// IsIgnored reports whether id is excluded by a directive.
func (g *SourceGraph) IsIgnored(id DeclID) bool { return g.marks[markIgnored].Contains(uint32(id)) }

// MarkAssignOnly records id as a property that is written but never read.
func (g *SourceGraph) MarkAssignOnly(id DeclID) { g.set(markAssignOnly, id) }

// IsAssignOnly reports whether id is an assign-only property.
func (g *SourceGraph) IsAssignOnly(id DeclID) bool {
	return g.marks[markAssignOnly].Contains(uint32(id))
}

// MarkMainAttributed records id as carrying an entry-point attribute.
func (g *SourceGraph) MarkMainAttributed(id DeclID) { g.set(markMainAttributed, id) }

// IsMainAttributed reports whether id carries an entry-point attribute.
func (g *SourceGraph) IsMainAttributed(id DeclID) bool {
	return g.marks[markMainAttributed].Contains(uint32(id))
}

// MarkLiveWithoutIgnores records id as reachable even with ignore
// directives disregarded.
func (g *SourceGraph) MarkLiveWithoutIgnores(id DeclID) { g.set(markLiveWithoutIgnores, id) }

// IsLiveWithoutIgnores reports whether id is reachable without ignore roots.
func (g *SourceGraph) IsLiveWithoutIgnores(id DeclID) bool {
	return g.marks[markLiveWithoutIgnores].Contains(uint32(id))
}

// Retained returns the reachability roots set by retainers.
func (g *SourceGraph) Retained() []DeclID { return toDeclIDs(g.marks[markRetained]) }

// Ignored returns the declarations excluded by directives.
func (g *SourceGraph) Ignored() []DeclID { return toDeclIDs(g.marks[markIgnored]) }

// UsedCount returns the number of declarations marked used.
func (g *SourceGraph) UsedCount() int { return int(g.marks[markUsed].GetCardinality()) }

// UnusedDeclarations returns all declarations minus the used ones.
func (g *SourceGraph) UnusedDeclarations() []DeclID {
	return toDeclIDs(roaring.AndNot(g.all, g.marks[markUsed]))
}

// AssignOnlyProperties returns the assign-only set.
func (g *SourceGraph) AssignOnlyProperties() []DeclID {
	return toDeclIDs(g.marks[markAssignOnly])
}

// ResetUsed clears the reachability marks so the terminal pass can rerun.
func (g *SourceGraph) ResetUsed() {
	g.marks[markUsed].Clear()
	g.marks[markLiveWithoutIgnores].Clear()
}

// MarkRedundantProtocol records proto as redundant.
func (g *SourceGraph) MarkRedundantProtocol(proto DeclID, rp RedundantProtocol) {
	if g.Declaration(proto) != nil {
		g.redundantProtocols[proto] = rp
	}
}

// RedundantProtocolOf returns the redundancy record for proto.
func (g *SourceGraph) RedundantProtocolOf(proto DeclID) (RedundantProtocol, bool) {
	rp, ok := g.redundantProtocols[proto]
	return rp, ok
}

// RedundantProtocols returns the redundant protocol ids, sorted.
func (g *SourceGraph) RedundantProtocols() []DeclID {
	out := make([]DeclID, 0, len(g.redundantProtocols))
	for id := range g.redundantProtocols {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarkRedundantAccessibility records that id's accessibility is broader
// than its references require.
func (g *SourceGraph) MarkRedundantAccessibility(id DeclID, ra RedundantAccessibility) {
	if g.Declaration(id) != nil {
		g.redundantAccessibility[id] = ra
	}
}

// RedundantAccessibilityOf returns the accessibility redundancy for id.
func (g *SourceGraph) RedundantAccessibilityOf(id DeclID) (RedundantAccessibility, bool) {
	ra, ok := g.redundantAccessibility[id]
	return ra, ok
}
