package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/panbanda/unreach/pkg/result"
	"github.com/panbanda/unreach/pkg/scan"
)

// FindingsReport renders the new findings of a scan.
type FindingsReport struct {
	Result *scan.Result
	// Root makes absolute paths relative for display.
	Root string
}

// NewFindingsReport wraps res for rendering.
func NewFindingsReport(res *scan.Result, root string) *FindingsReport {
	return &FindingsReport{Result: res, Root: root}
}

// RenderData returns the scan result for JSON and TOON output.
func (r *FindingsReport) RenderData() any {
	return r.Result
}

func (r *FindingsReport) table(colored bool) *Table {
	rows := make([][]string, 0, len(r.Result.New))
	for _, f := range r.Result.New {
		cat := string(f.Category)
		if colored {
			cat = CategoryColor(f.Category, cat)
		}
		rows = append(rows, []string{r.location(f), string(f.Kind), cat, f.Message()})
	}
	return NewTable("Findings", []string{"Location", "Kind", "Category", "Message"}, rows, nil, nil)
}

func (r *FindingsReport) location(f result.Finding) string {
	return fmt.Sprintf("%s:%d:%d", r.path(f.Location.Path), f.Location.Line, f.Location.Column)
}

func (r *FindingsReport) path(p string) string {
	if r.Root != "" && filepath.IsAbs(p) {
		if rel, err := filepath.Rel(r.Root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	return filepath.ToSlash(p)
}

func (r *FindingsReport) summary() *Section {
	res := r.Result
	var lines []string
	lines = append(lines, fmt.Sprintf("%d finding(s)", res.Summary.Total))
	if res.Baselined > 0 {
		lines[0] += fmt.Sprintf(", %d suppressed by baseline", res.Baselined)
	}
	if res.Cached {
		lines[0] += " (cached)"
	}

	for _, cat := range result.Categories {
		if n := res.Summary.ByCategory[cat]; n > 0 {
			lines = append(lines, fmt.Sprintf("  %-34s %d", cat, n))
		}
	}
	return &Section{Title: "Summary", Content: strings.Join(lines, "\n")}
}

// RenderText writes the findings table and summary.
func (r *FindingsReport) RenderText(w io.Writer, colored bool) error {
	report := &Report{}
	if len(r.Result.New) > 0 {
		report.Sections = append(report.Sections, r.table(colored))
	}
	report.Sections = append(report.Sections, r.summary())
	return report.RenderText(w, colored)
}

// RenderMarkdown writes the findings grouped by file.
func (r *FindingsReport) RenderMarkdown(w io.Writer) error {
	return r.byFile().RenderMarkdown(w)
}

// byFile builds one table per source file, in path order, followed by the
// summary.
func (r *FindingsReport) byFile() *Report {
	groups := make(map[string][]result.Finding)
	for _, f := range r.Result.New {
		groups[f.Location.Path] = append(groups[f.Location.Path], f)
	}
	files := make([]string, 0, len(groups))
	for p := range groups {
		files = append(files, p)
	}
	sort.Strings(files)

	report := &Report{Title: "Unreachable code"}
	for _, p := range files {
		rows := make([][]string, 0, len(groups[p]))
		for _, f := range groups[p] {
			rows = append(rows, []string{
				fmt.Sprintf("%d:%d", f.Location.Line, f.Location.Column),
				"`" + string(f.Kind) + "`",
				string(f.Category),
				escapeMarkdown(f.Message()),
			})
		}
		report.Sections = append(report.Sections,
			NewTable(r.path(p), []string{"Line", "Kind", "Category", "Message"}, rows, nil, nil))
	}
	report.Sections = append(report.Sections, r.summary())
	return report
}

func escapeMarkdown(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
