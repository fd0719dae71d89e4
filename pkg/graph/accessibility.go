package graph

// Accessibility is a declaration's access-control rank.
type Accessibility int

const (
	AccessPrivate Accessibility = iota
	AccessFilePrivate
	AccessInternal
	AccessPublic
	AccessOpen
)

var accessibilityNames = [...]string{"private", "fileprivate", "internal", "public", "open"}

func (a Accessibility) String() string {
	if a < AccessPrivate || a > AccessOpen {
		return "unknown"
	}
	return accessibilityNames[a]
}

// ParseAccessibility maps a source keyword to its rank. Unknown or empty
// values default to internal, the host language default.
func ParseAccessibility(s string) Accessibility {
	for i, n := range accessibilityNames {
		if n == s {
			return Accessibility(i)
		}
	}
	return AccessInternal
}

// IsPublic reports whether a is visible outside its module.
func (a Accessibility) IsPublic() bool {
	return a >= AccessPublic
}

// MarshalText implements encoding.TextMarshaler.
func (a Accessibility) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Accessibility) UnmarshalText(b []byte) error {
	*a = ParseAccessibility(string(b))
	return nil
}
