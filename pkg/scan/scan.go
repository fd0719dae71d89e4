// Package scan runs a complete analysis: pipeline, classification and
// baseline filtering, optionally starting from index unit files and a
// result cache.
package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/panbanda/unreach/internal/cache"
	"github.com/panbanda/unreach/internal/loader"
	"github.com/panbanda/unreach/pkg/baseline"
	"github.com/panbanda/unreach/pkg/config"
	"github.com/panbanda/unreach/pkg/graph"
	"github.com/panbanda/unreach/pkg/mutator"
	"github.com/panbanda/unreach/pkg/result"
)

// Result is the outcome of a scan.
type Result struct {
	// Findings holds everything the classifier reported.
	Findings []result.Finding `json:"findings"`
	// New holds the findings not covered by the baseline. Without a
	// baseline it equals Findings.
	New []result.Finding `json:"new"`
	// Summary counts New.
	Summary result.Summary `json:"summary"`
	// Baselined is the number of findings the baseline suppressed.
	Baselined int `json:"baselined"`
	// Cached is set when the findings came from the result cache.
	Cached bool `json:"cached"`
}

// Scanner holds the settings of a scan.
type Scanner struct {
	cfg          *config.Config
	passes       []mutator.Pass
	base         *baseline.Baseline
	baselinePath string
	lines        baseline.LineReader
	root         string
	logger       *slog.Logger
	cache        *cache.Cache
	loader       *loader.Loader
	onPass       func(name string, elapsed time.Duration)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithConfig sets the configuration; defaults are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Scanner) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithPipeline replaces the default pass list.
func WithPipeline(passes []mutator.Pass) Option {
	return func(s *Scanner) { s.passes = passes }
}

// WithBaseline filters findings against b.
func WithBaseline(b *baseline.Baseline) Option {
	return func(s *Scanner) { s.base = b }
}

// WithBaselinePath loads the baseline at path when the scan starts.
func WithBaselinePath(path string) Option {
	return func(s *Scanner) { s.baselinePath = path }
}

// WithLineReader sets where baseline matching reads source lines.
func WithLineReader(lr baseline.LineReader) Option {
	return func(s *Scanner) { s.lines = lr }
}

// WithRoot sets the directory baseline paths are relative to.
func WithRoot(root string) Option {
	return func(s *Scanner) { s.root = root }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache reuses findings for unchanged inputs in ScanFiles.
func WithCache(c *cache.Cache) Option {
	return func(s *Scanner) { s.cache = c }
}

// WithLoader sets the loader ScanFiles populates the graph with.
func WithLoader(l *loader.Loader) Option {
	return func(s *Scanner) { s.loader = l }
}

// WithPassHook is called after each pipeline pass.
func WithPassHook(fn func(name string, elapsed time.Duration)) Option {
	return func(s *Scanner) { s.onPass = fn }
}

// New creates a scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		cfg:    config.DefaultConfig(),
		passes: mutator.DefaultPipeline(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = loader.New(loader.WithWorkers(s.cfg.Loader.Workers), loader.WithLogger(s.logger))
	}
	return s
}

// Scan analyzes a populated graph. The context is only consulted before the
// pipeline starts; a started pipeline always runs to completion or to an
// integrity error. Errors are *graph.IntegrityError for pipeline failures and
// *baseline.ConfigError for an unusable baseline.
func (s *Scanner) Scan(ctx context.Context, g *graph.SourceGraph) (*Result, error) {
	base, err := s.baseline()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	findings, err := s.analyze(ctx, g)
	if err != nil {
		return nil, err
	}
	return s.finish(findings, base, false), nil
}

// ScanFiles loads the index units in files into a fresh graph and scans it.
// With a cache, unchanged units and configuration reuse the previous
// findings without running the pipeline.
func (s *Scanner) ScanFiles(ctx context.Context, files []string) (*Result, error) {
	base, err := s.baseline()
	if err != nil {
		return nil, err
	}

	var digest string
	if s.cache != nil && s.cache.Enabled() {
		digest, err = cache.Digest(files, s.fingerprint())
		if err != nil {
			return nil, err
		}
		if findings, ok := s.cache.Get(s.cacheKey(), digest); ok {
			s.logger.Debug("cache hit", "units", len(files), "findings", len(findings))
			return s.finish(findings, base, true), nil
		}
	}

	g := graph.New()
	stats, err := s.loader.Load(ctx, g, files)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	s.logger.Debug("index loaded", "units", stats.Units, "declarations", stats.Declarations, "references", stats.References)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	findings, err := s.analyze(ctx, g)
	if err != nil {
		return nil, err
	}

	if digest != "" {
		if err := s.cache.Set(s.cacheKey(), digest, findings); err != nil {
			s.logger.Warn("cache write failed", "error", err)
		}
	}
	return s.finish(findings, base, false), nil
}

func (s *Scanner) baseline() (*baseline.Baseline, error) {
	if s.base != nil || s.baselinePath == "" {
		return s.base, nil
	}
	b, err := baseline.Load(s.baselinePath)
	if err != nil {
		return nil, err
	}
	s.base = b
	return b, nil
}

func (s *Scanner) analyze(ctx context.Context, g *graph.SourceGraph) ([]result.Finding, error) {
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		for _, cycle := range g.InheritanceCycles() {
			s.logger.Debug("inheritance cycle", "types", len(cycle), "first", g.Declaration(cycle[0]).Name)
		}
	}

	opts := []mutator.Option{mutator.WithLogger(s.logger)}
	if s.onPass != nil {
		opts = append(opts, mutator.WithPassHook(s.onPass))
	}
	if err := mutator.Run(g, s.cfg, s.passes, opts...); err != nil {
		var ie *graph.IntegrityError
		if errors.As(err, &ie) {
			s.logger.Error("integrity error", "pass", ie.Pass, "declaration", ie.Declaration, "reason", ie.Reason)
		}
		return nil, err
	}
	return result.Build(g, s.cfg), nil
}

func (s *Scanner) finish(findings []result.Finding, base *baseline.Baseline, cached bool) *Result {
	res := &Result{Findings: findings, New: findings, Cached: cached}
	if base != nil {
		res.New = baseline.Filter(base, findings, s.lines, s.root)
		res.Baselined = len(findings) - len(res.New)
	}
	res.Summary = result.Summarize(res.New)
	return res
}

// fingerprint identifies the analysis settings a cached result depends on.
func (s *Scanner) fingerprint() []byte {
	names := make([]string, len(s.passes))
	for i, p := range s.passes {
		names[i] = p.Name
	}
	data, err := json.Marshal(struct {
		Config *config.Config `json:"config"`
		Passes string         `json:"passes"`
	}{s.cfg, strings.Join(names, ",")})
	if err != nil {
		return nil
	}
	return data
}

func (s *Scanner) cacheKey() string {
	return "scan:" + s.root
}
