// Package mutator holds the ordered passes that rewrite the declaration graph
// to encode language semantics, ending with the reachability marker.
package mutator

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
)

// Pass is one unit of the pipeline.
type Pass struct {
	Name string
	Run  func(g *graph.SourceGraph, cfg *config.Config) error
}

// DefaultPipeline returns the passes in the order they must run. Passes
// depend on the postconditions of earlier ones; do not reorder.
func DefaultPipeline() []Pass {
	return []Pass{
		{"DirectiveRetainer", retainDirectives},

		// Accessibility analysis observes extensions before folding.
		{"AccessibilityCascader", cascadeAccessibility},
		{"ObjCAccessibleRetainer", retainObjcAccessible},
		{"RedundantPublicAccessibilityMarker", markRedundantPublic},
		{"RedundantInternalAccessibilityMarker", markRedundantInternal},
		{"RedundantFilePrivateAccessibilityMarker", markRedundantFilePrivate},
		{"UnusedImportMarker", markUnusedImports},

		{"ExtensionReferenceBuilder", foldExtensions},
		{"CodingKeyEnumReferenceBuilder", referenceCodingKeys},
		{"ProtocolExtensionReferenceBuilder", referenceProtocolExtensions},
		{"ProtocolConformanceReferenceBuilder", referenceProtocolConformances},
		{"OverrideReferenceBuilder", referenceOverrides},
		{"EnumCaseReferenceBuilder", referenceEnumCases},
		{"DefaultConstructorReferenceBuilder", referenceDefaultConstructors},
		{"StructImplicitInitializerReferenceBuilder", referenceImplicitInitializers},
		{"ComplexPropertyAccessorReferenceBuilder", referenceComplexAccessors},

		{"PropertyWrapperRetainer", retainPropertyWrappers},
		{"ResultBuilderRetainer", retainResultBuilders},
		{"DynamicMemberRetainer", retainDynamicMembers},
		{"UnusedParameterRetainer", retainUnusedParameters},
		{"AssetReferenceRetainer", retainAssetReferences},
		{"EntryPointAttributeRetainer", retainEntryPoints},
		{"PubliclyAccessibleRetainer", retainPubliclyAccessible},
		{"RetainedFilesRetainer", retainFiles},
		{"XCTestRetainer", retainXCTests},
		{"SwiftTestingRetainer", retainSwiftTesting},
		{"SwiftUIRetainer", retainSwiftUI},
		{"ExternalOverrideRetainer", retainExternalOverrides},
		{"EncodablePropertyRetainer", retainEncodableProperties},
		{"CodablePropertyRetainer", retainCodableProperties},

		{"AncestralReferenceEliminator", eliminateAncestralReferences},
		{"AssignOnlyPropertyReferenceEliminator", eliminateAssignOnlyReferences},

		{"RedundantProtocolMarker", markRedundantProtocols},
		{"UsedDeclarationMarker", markUsedDeclarations},
	}
}

// Option configures Run.
type Option func(*runner)

type runner struct {
	logger *slog.Logger
	onPass func(name string, elapsed time.Duration)
}

// WithLogger logs each pass at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPassHook is called after each pass completes.
func WithPassHook(fn func(name string, elapsed time.Duration)) Option {
	return func(r *runner) {
		r.onPass = fn
	}
}

// Run executes passes in order. The first failure aborts the run and is
// returned as a *graph.IntegrityError naming the pass.
func Run(g *graph.SourceGraph, cfg *config.Config, passes []Pass, opts ...Option) error {
	r := &runner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	for _, p := range passes {
		start := time.Now()
		if err := p.Run(g, cfg); err != nil {
			return asIntegrityError(p.Name, err)
		}
		elapsed := time.Since(start)
		r.logger.Debug("pass complete", "pass", p.Name, "declarations", g.Len(), "elapsed", elapsed)
		if r.onPass != nil {
			r.onPass(p.Name, elapsed)
		}
	}
	return nil
}

func asIntegrityError(pass string, err error) error {
	var ie *graph.IntegrityError
	if errors.As(err, &ie) {
		if ie.Pass == "" {
			ie.Pass = pass
		}
		return ie
	}
	return &graph.IntegrityError{Pass: pass, Reason: err.Error()}
}
