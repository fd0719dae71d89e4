package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/unreach/pkg/graph"
)

// Unit is the index dump of one translation unit.
type Unit struct {
	File            string           `json:"file"`
	Modules         []string         `json:"modules"`
	Imports         []Import         `json:"imports"`
	Declarations    []Declaration    `json:"declarations"`
	References      []Reference      `json:"references"`
	Assets          []Asset          `json:"assets"`
	IndexedModules  []string         `json:"indexed_modules"`
	ExportedModules []ExportedModule `json:"exported_modules"`
}

// Import is an import statement of the unit's file.
type Import struct {
	Module     string   `json:"module"`
	Testable   bool     `json:"testable"`
	Exported   bool     `json:"exported"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Directives []string `json:"directives"`
}

// Declaration is a declaration with its nested facts.
type Declaration struct {
	Kind                  string        `json:"kind"`
	Name                  string        `json:"name"`
	SymbolIDs             []string      `json:"symbol_ids"`
	Line                  int           `json:"line"`
	Column                int           `json:"column"`
	Accessibility         string        `json:"accessibility"`
	ExplicitAccessibility bool          `json:"explicit_accessibility"`
	Attributes            []string      `json:"attributes"`
	Modifiers             []string      `json:"modifiers"`
	DeclaredType          string        `json:"declared_type"`
	Implicit              bool          `json:"implicit"`
	ObjcAccessible        bool          `json:"objc_accessible"`
	Directives            []string      `json:"directives"`
	References            []Reference   `json:"references"`
	Declarations          []Declaration `json:"declarations"`
	UnusedParameters      []Declaration `json:"unused_parameters"`
}

// Reference is a use of a symbol, possibly with references nested under it.
type Reference struct {
	Kind       string      `json:"kind"`
	SymbolID   string      `json:"symbol_id"`
	Name       string      `json:"name"`
	Line       int         `json:"line"`
	Column     int         `json:"column"`
	Related    bool        `json:"related"`
	Role       string      `json:"role"`
	References []Reference `json:"references"`
}

// Asset is a by-name reference from a resource file.
type Asset struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// ExportedModule records a re-export.
type ExportedModule struct {
	Module     string `json:"module"`
	ExportedBy string `json:"exported_by"`
}

//go:embed unit.schema.json
var unitSchemaJSON string

const unitSchemaURL = "https://unreach.dev/schema/unit.schema.json"

var unitSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(unitSchemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(unitSchemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(unitSchemaURL)
})

// Decode validates and decodes a unit document. Declaration kinds must be
// known graph kinds.
func Decode(data []byte) (*Unit, error) {
	sch, err := unitSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling unit schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing unit: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid unit: %w", err)
	}

	var u Unit
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decoding unit: %w", err)
	}
	if err := checkKinds(u.Declarations); err != nil {
		return nil, err
	}
	return &u, nil
}

func checkKinds(decls []Declaration) error {
	for _, d := range decls {
		if _, ok := graph.ParseKind(d.Kind); !ok {
			return fmt.Errorf("declaration %q at line %d: unknown kind %q", d.Name, d.Line, d.Kind)
		}
		if err := checkKinds(d.Declarations); err != nil {
			return err
		}
		for _, p := range d.UnusedParameters {
			if p.Kind != string(graph.KindParameterVar) {
				return fmt.Errorf("unused parameter %q of %q: kind %q is not %s", p.Name, d.Name, p.Kind, graph.KindParameterVar)
			}
		}
	}
	return nil
}
