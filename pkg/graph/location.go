package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// Location is a position in a source file. Lines and columns are 1-based.
type Location struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Column)
}

// Less orders locations by path, line, then column.
func (l Location) Less(o Location) bool {
	if l.Path != o.Path {
		return l.Path < o.Path
	}
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	return l.Column < o.Column
}

// ParseLocation parses "path:line:col" or "path:line". The path may itself
// contain colons.
func ParseLocation(s string) (Location, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return Location{}, fmt.Errorf("invalid location %q", s)
	}

	nums := []int{}
	for len(parts) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		parts = parts[:len(parts)-1]
	}
	if len(nums) == 0 {
		return Location{}, fmt.Errorf("invalid location %q: missing line", s)
	}

	loc := Location{Path: strings.Join(parts, ":"), Line: nums[0], Column: 1}
	if len(nums) == 2 {
		loc.Column = nums[1]
	}
	return loc, nil
}

// SourceFile is a translation unit and the modules it was compiled into.
type SourceFile struct {
	Path    string
	Modules []string
}

// HasModule reports whether the file belongs to module.
func (f *SourceFile) HasModule(module string) bool {
	for _, m := range f.Modules {
		if m == module {
			return true
		}
	}
	return false
}
