// Package result turns the final state of a declaration graph into a flat,
// ordered list of findings.
package result

import (
	"fmt"
	"sort"
	"strings"

	"github.com/panbanda/unreach/pkg/graph"
)

// Category classifies a finding.
type Category string

const (
	CategoryUnused                         Category = "unused"
	CategoryAssignOnlyProperty             Category = "assignOnlyProperty"
	CategoryRedundantProtocol              Category = "redundantProtocol"
	CategoryRedundantPublicAccessibility   Category = "redundantPublicAccessibility"
	CategoryRedundantInternalAccessibility Category = "redundantInternalAccessibility"
	CategoryRedundantFilePrivate           Category = "redundantFilePrivateAccessibility"
	CategorySuperfluousIgnore              Category = "superfluousIgnore"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryUnused,
	CategoryAssignOnlyProperty,
	CategoryRedundantProtocol,
	CategoryRedundantPublicAccessibility,
	CategoryRedundantInternalAccessibility,
	CategoryRedundantFilePrivate,
	CategorySuperfluousIgnore,
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Conformance is a conformance clause that goes away with a redundant
// protocol.
type Conformance struct {
	Name     string         `json:"name"`
	Location graph.Location `json:"location"`
}

// Finding is one reported declaration.
type Finding struct {
	Kind          graph.Kind          `json:"kind"`
	Name          string              `json:"name"`
	Modifiers     []string            `json:"modifiers,omitempty"`
	Attributes    []string            `json:"attributes,omitempty"`
	Accessibility graph.Accessibility `json:"accessibility"`
	SymbolIDs     []string            `json:"symbol_ids"`
	Location      graph.Location      `json:"location"`
	Category      Category            `json:"category"`

	// Replacements are the protocols a redundant protocol's conformers
	// should declare instead.
	Replacements []string      `json:"replacements,omitempty"`
	Conformances []Conformance `json:"conformances,omitempty"`
	// Modules are the modules a redundantly public declaration is used from.
	Modules []string `json:"modules,omitempty"`
}

// Message describes the finding in one sentence.
func (f Finding) Message() string {
	noun := kindNoun(f.Kind)
	switch f.Category {
	case CategoryAssignOnlyProperty:
		return fmt.Sprintf("Property '%s' is assigned, but never used", f.Name)
	case CategoryRedundantProtocol:
		msg := fmt.Sprintf("Protocol '%s' is redundant as it's never used as an existential type", f.Name)
		if len(f.Replacements) > 0 {
			msg += fmt.Sprintf("; conformers should declare %s instead", strings.Join(f.Replacements, ", "))
		}
		return msg
	case CategoryRedundantPublicAccessibility:
		if len(f.Modules) == 0 {
			return fmt.Sprintf("%s '%s' is declared public, but not used outside its module", noun, f.Name)
		}
		return fmt.Sprintf("%s '%s' is declared public, but not used outside %s", noun, f.Name, strings.Join(f.Modules, ", "))
	case CategoryRedundantInternalAccessibility:
		return fmt.Sprintf("%s '%s' is declared internal, but not used outside its file", noun, f.Name)
	case CategoryRedundantFilePrivate:
		return fmt.Sprintf("%s '%s' is declared fileprivate, but not used outside its type", noun, f.Name)
	case CategorySuperfluousIgnore:
		return fmt.Sprintf("%s '%s' is used; the ignore directive is superfluous", noun, f.Name)
	}
	if f.Kind == graph.KindModule {
		return fmt.Sprintf("Imported module '%s' is unused", f.Name)
	}
	return fmt.Sprintf("%s '%s' is unused", noun, f.Name)
}

func kindNoun(k graph.Kind) string {
	switch {
	case k == graph.KindEnumElement:
		return "Enum case"
	case k == graph.KindParameterVar:
		return "Parameter"
	case k == graph.KindConstructor:
		return "Initializer"
	case k == graph.KindAssociatedType:
		return "Associated type"
	case k.IsFunction():
		return "Function"
	case k.IsVariable():
		return "Property"
	case k.IsExtension():
		return "Extension"
	}
	s := string(k)
	if s == "" {
		return "Declaration"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Summary provides aggregate counts over a finding set.
type Summary struct {
	Total      int              `json:"total"`
	ByCategory map[Category]int `json:"by_category"`
	ByFile     map[string]int   `json:"by_file"`
}

// NewSummary creates an initialized summary.
func NewSummary() Summary {
	return Summary{
		ByCategory: make(map[Category]int),
		ByFile:     make(map[string]int),
	}
}

// Add updates the summary with a finding.
func (s *Summary) Add(f Finding) {
	s.Total++
	s.ByCategory[f.Category]++
	s.ByFile[f.Location.Path]++
}

// Summarize counts findings.
func Summarize(findings []Finding) Summary {
	s := NewSummary()
	for _, f := range findings {
		s.Add(f)
	}
	return s
}

// Sort orders findings by location, then name, then category.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Location != b.Location {
			return a.Location.Less(b.Location)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Category < b.Category
	})
}
