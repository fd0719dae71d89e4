package graph

import (
	"strings"
)

// DirectivePrefix introduces a comment directive, as in "// unreach:ignore".
const DirectivePrefix = "unreach:"

// Directives holds the comment-derived commands attached to a declaration
// or import statement.
type Directives struct {
	Ignore           bool
	IgnoreAll        bool
	IgnoreParameters []string
	OverrideLocation *Location
	OverrideKind     Kind
}

// IsZero reports whether no directive is set.
func (d Directives) IsZero() bool {
	return !d.Ignore && !d.IgnoreAll && len(d.IgnoreParameters) == 0 &&
		d.OverrideLocation == nil && d.OverrideKind == ""
}

// IgnoresParameter reports whether the named parameter is suppressed.
func (d Directives) IgnoresParameter(name string) bool {
	for _, p := range d.IgnoreParameters {
		if p == name {
			return true
		}
	}
	return false
}

// ParseDirectives parses raw directive strings. The "unreach:" prefix and
// surrounding comment markers are optional. Unknown directives are skipped.
func ParseDirectives(raw []string) Directives {
	var d Directives
	for _, r := range raw {
		d.apply(r)
	}
	return d
}

func (d *Directives) apply(raw string) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "//")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, DirectivePrefix)

	cmd, arg, _ := strings.Cut(s, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "ignore":
		d.Ignore = true
	case "ignore:all":
		d.IgnoreAll = true
	case "ignore:parameters":
		for _, p := range strings.Split(arg, ",") {
			if p = strings.TrimSpace(p); p != "" {
				d.IgnoreParameters = append(d.IgnoreParameters, p)
			}
		}
	case "override:location":
		if loc, err := ParseLocation(arg); err == nil {
			d.OverrideLocation = &loc
		}
	case "override:kind":
		if k, ok := ParseKind(arg); ok {
			d.OverrideKind = k
		}
	}
}
