package result

import (
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// Build classifies the graph after the pipeline has run. Only the topmost
// unused declaration of a dead subtree is reported.
func Build(g *graph.SourceGraph, cfg *config.Config) []Finding {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := &classifier{g: g, cfg: cfg}

	for _, id := range g.UnusedDeclarations() {
		if !c.reportable(id) {
			continue
		}
		if g.IsAssignOnly(id) {
			c.add(id, CategoryAssignOnlyProperty)
			continue
		}
		c.add(id, CategoryUnused)
	}

	c.unusedParameters()
	c.redundantProtocols()
	c.redundantAccessibility()
	c.superfluousIgnores()

	Sort(c.out)
	return c.out
}

type classifier struct {
	g   *graph.SourceGraph
	cfg *config.Config
	out []Finding
}

// reportable reports whether unused declaration id should appear on its own.
func (c *classifier) reportable(id graph.DeclID) bool {
	d := c.g.Declaration(id)
	if c.g.IsIgnored(id) || !c.cfg.ShouldReport(d.Location.Path) {
		return false
	}
	switch k := d.Kind; {
	case k.IsAccessor(), k.IsExtension(),
		k == graph.KindParameterVar, k == graph.KindLocalVar, k == graph.KindGenericTypeParam:
		return false
	}
	if d.IsImplicit {
		return false
	}

	// Extensions are transparent; the nearest real container decides.
	for _, anc := range c.g.Ancestors(id) {
		a := c.g.Declaration(anc)
		if a.Kind.IsExtension() {
			continue
		}
		if !c.g.IsUsed(anc) {
			return false
		}
		if _, redundant := c.g.RedundantProtocolOf(anc); redundant {
			return false
		}
		break
	}
	return true
}

// unusedParameters reports unused parameters of live functions.
func (c *classifier) unusedParameters() {
	for _, id := range c.g.AllDeclarations() {
		fn := c.g.Declaration(id)
		if !fn.Kind.IsFunction() || !c.g.IsUsed(id) || c.g.IsIgnored(id) {
			continue
		}
		for _, p := range fn.UnusedParameters() {
			pd := c.g.Declaration(p)
			if c.g.IsRetained(p) || c.g.IsIgnored(p) || !c.cfg.ShouldReport(pd.Location.Path) {
				continue
			}
			c.add(p, CategoryUnused)
		}
	}
}

func (c *classifier) redundantProtocols() {
	for _, id := range c.g.RedundantProtocols() {
		d := c.g.Declaration(id)
		if !c.g.IsUsed(id) || c.g.IsIgnored(id) || !c.cfg.ShouldReport(d.Location.Path) {
			continue
		}
		rp, _ := c.g.RedundantProtocolOf(id)
		f := c.finding(id, CategoryRedundantProtocol)
		f.Replacements = rp.Replacements
		for _, rid := range rp.Conformances {
			r := c.g.Reference(rid)
			if r == nil {
				continue
			}
			name := r.Name
			if owner := c.g.Declaration(r.Parent()); owner != nil {
				name = owner.Name
			}
			f.Conformances = append(f.Conformances, Conformance{Name: name, Location: r.Location})
		}
		c.out = append(c.out, f)
	}
}

func (c *classifier) redundantAccessibility() {
	for _, id := range c.g.AllDeclarations() {
		ra, ok := c.g.RedundantAccessibilityOf(id)
		if !ok {
			continue
		}
		d := c.g.Declaration(id)
		if !c.g.IsUsed(id) || c.g.IsIgnored(id) || !c.cfg.ShouldReport(d.Location.Path) {
			continue
		}
		var cat Category
		switch ra.Redundancy {
		case graph.RedundantPublic:
			cat = CategoryRedundantPublicAccessibility
		case graph.RedundantInternal:
			cat = CategoryRedundantInternalAccessibility
		case graph.RedundantFilePrivate:
			cat = CategoryRedundantFilePrivate
		default:
			continue
		}
		f := c.finding(id, cat)
		if cat == CategoryRedundantPublicAccessibility {
			f.Modules = ra.Modules
		}
		c.out = append(c.out, f)
	}
}

// superfluousIgnores reports ignore directives on declarations that are
// live without them.
func (c *classifier) superfluousIgnores() {
	for _, id := range c.g.Ignored() {
		d := c.g.Declaration(id)
		if !d.Directives.Ignore || !c.g.IsLiveWithoutIgnores(id) || !c.cfg.ShouldReport(d.Location.Path) {
			continue
		}
		c.add(id, CategorySuperfluousIgnore)
	}
}

func (c *classifier) add(id graph.DeclID, cat Category) {
	c.out = append(c.out, c.finding(id, cat))
}

func (c *classifier) finding(id graph.DeclID, cat Category) Finding {
	d := c.g.Declaration(id)
	f := Finding{
		Kind:          d.Kind,
		Name:          d.Name,
		Modifiers:     d.Modifiers.Sorted(),
		Attributes:    d.Attributes.Sorted(),
		Accessibility: d.Accessibility,
		SymbolIDs:     append([]string(nil), d.SymbolIDs...),
		Location:      d.Location,
		Category:      cat,
	}
	if loc := d.Directives.OverrideLocation; loc != nil {
		f.Location = *loc
	}
	if k := d.Directives.OverrideKind; k != "" {
		f.Kind = k
	}
	return f
}
