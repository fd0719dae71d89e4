package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for unreach.
type Config struct {
	// Declarations kept alive regardless of references
	Retain RetainConfig `koanf:"retain" toml:"retain"`

	// Protocols defined outside the indexed modules that carry semantics
	Protocols ProtocolConfig `koanf:"protocols" toml:"protocols"`

	// Optional analyses
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Which findings are reported
	Report ReportConfig `koanf:"report" toml:"report"`

	Baseline BaselineConfig `koanf:"baseline" toml:"baseline"`
	Cache    CacheConfig    `koanf:"cache" toml:"cache"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
	Loader   LoaderConfig   `koanf:"loader" toml:"loader"`
}

// RetainConfig lists retention switches.
type RetainConfig struct {
	Public                   bool     `koanf:"public" toml:"public"`
	ObjcAccessible           bool     `koanf:"objc_accessible" toml:"objc_accessible"`
	ObjcAnnotated            bool     `koanf:"objc_annotated" toml:"objc_annotated"`
	AssignOnlyProperties     bool     `koanf:"assign_only_properties" toml:"assign_only_properties"`
	AssignOnlyPropertyTypes  []string `koanf:"assign_only_property_types" toml:"assign_only_property_types"`
	CodableProperties        bool     `koanf:"codable_properties" toml:"codable_properties"`
	SwiftUIPreviews          bool     `koanf:"swift_ui_previews" toml:"swift_ui_previews"`
	UnusedProtocolFuncParams bool     `koanf:"unused_protocol_func_params" toml:"unused_protocol_func_params"`
	Files                    []string `koanf:"files" toml:"files"`
}

// ProtocolConfig names external protocols with built-in meaning.
type ProtocolConfig struct {
	ExternalEncodable       []string `koanf:"external_encodable" toml:"external_encodable"`
	ExternalCodable         []string `koanf:"external_codable" toml:"external_codable"`
	ExternalTestCaseClasses []string `koanf:"external_test_case_classes" toml:"external_test_case_classes"`
}

// AnalysisConfig toggles optional analyses.
type AnalysisConfig struct {
	DisableRedundantPublic bool `koanf:"disable_redundant_public" toml:"disable_redundant_public"`
	DisableUnusedImports   bool `koanf:"disable_unused_imports" toml:"disable_unused_imports"`
	RedundantInternal      bool `koanf:"redundant_internal" toml:"redundant_internal"`
	RedundantFilePrivate   bool `koanf:"redundant_fileprivate" toml:"redundant_fileprivate"`
}

// ReportConfig filters findings by path.
type ReportConfig struct {
	Include []string `koanf:"include" toml:"include"`
	Exclude []string `koanf:"exclude" toml:"exclude"`
}

// BaselineConfig points at a saved finding snapshot.
type BaselineConfig struct {
	Path string `koanf:"path" toml:"path"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// LoaderConfig controls index loading.
type LoaderConfig struct {
	Workers int `koanf:"workers" toml:"workers"` // 0 means 2x NumCPU
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			RedundantInternal:    true,
			RedundantFilePrivate: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".unreach/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched, in order, by LoadConfig.
var configNames = []string{
	"unreach.toml",
	"unreach.yaml",
	"unreach.yml",
	"unreach.json",
	".unreach.toml",
	".unreach.yaml",
	".unreach.yml",
	".unreach.json",
}

// LoadResult reports which file a configuration came from.
type LoadResult struct {
	Config *Config
	// Source is the file path, or empty when defaults were used.
	Source string
}

// LoadOption customizes LoadConfig.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path string
	dirs []string
}

// WithPath loads an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithSearchDirs overrides the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) { o.dirs = dirs }
}

// LoadConfig loads an explicit config file, or the first standard config
// file found, or the defaults. Errors in a found file are returned rather
// than silently replaced by defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dirs: []string{".", ".unreach"}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	for _, dir := range o.dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return nil, err
			}
			return &LoadResult{Config: cfg, Source: path}, nil
		}
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	res, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return res.Config
}

var validFormats = map[string]bool{"text": true, "json": true, "markdown": true, "md": true, "toon": true, "": true}

// Validate checks option values that cannot be expressed by the types alone.
func (c *Config) Validate() error {
	var errs []error
	if !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl: must not be negative"))
	}
	if c.Loader.Workers < 0 {
		errs = append(errs, fmt.Errorf("loader.workers: must not be negative"))
	}
	for _, group := range [][]string{c.Retain.Files, c.Report.Include, c.Report.Exclude} {
		for _, p := range group {
			if !doublestar.ValidatePattern(p) {
				errs = append(errs, fmt.Errorf("invalid glob pattern %q", p))
			}
		}
	}
	return errors.Join(errs...)
}

// IsRetainedFile reports whether path matches a retain.files pattern.
func (c *Config) IsRetainedFile(path string) bool {
	return matchAny(c.Retain.Files, path)
}

// ShouldReport reports whether findings in path pass the report filters.
func (c *Config) ShouldReport(path string) bool {
	if len(c.Report.Include) > 0 && !matchAny(c.Report.Include, path) {
		return false
	}
	return !matchAny(c.Report.Exclude, path)
}

// IsAssignOnlyExemptType reports whether declaredType is configured as
// exempt from assign-only analysis. Optional and implicitly unwrapped
// spellings match their base type.
func (c *Config) IsAssignOnlyExemptType(declaredType string) bool {
	t := strings.TrimRight(strings.TrimSpace(declaredType), "?!")
	for _, exempt := range c.Retain.AssignOnlyPropertyTypes {
		if strings.TrimRight(exempt, "?!") == t {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, path string) bool {
	p := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, filepath.Base(p)); ok {
			return true
		}
	}
	return false
}
