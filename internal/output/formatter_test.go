package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/unreach/pkg/graph"
	"github.com/panbanda/unreach/pkg/result"
	"github.com/panbanda/unreach/pkg/scan"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"TOON", FormatTOON},
		{"", FormatText},
		{"xml", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if err := f.Output(map[string]int{"total": 2}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.Contains(string(content), `"total": 2`) {
		t.Errorf("content = %q", content)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/dir/out.txt", false)
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestTableRender(t *testing.T) {
	table := NewTable("Findings",
		[]string{"Location", "Kind"},
		[][]string{{"a.swift:1:1", "class"}, {"b.swift:2:3", "struct"}},
		nil, nil)

	var text bytes.Buffer
	if err := table.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	for _, want := range []string{"Findings", "a.swift:1:1", "struct"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}

	var md bytes.Buffer
	if err := table.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(md.String(), "| a.swift:1:1 | class |") {
		t.Errorf("markdown output:\n%s", md.String())
	}

	rows, ok := table.RenderData().([]map[string]string)
	if !ok || len(rows) != 2 || rows[1]["Kind"] != "struct" {
		t.Errorf("RenderData() = %v", table.RenderData())
	}
}

func TestSectionRender(t *testing.T) {
	s := &Section{
		Title:    "Summary",
		Content:  "3 finding(s)",
		Sections: []Section{{Title: "Details", Content: "none"}},
	}

	var text bytes.Buffer
	if err := s.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if !strings.Contains(text.String(), "Summary\n=======") || !strings.Contains(text.String(), "Details\n-------") {
		t.Errorf("text output:\n%s", text.String())
	}

	var md bytes.Buffer
	if err := s.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.Contains(md.String(), "## Summary") || !strings.Contains(md.String(), "### Details") {
		t.Errorf("markdown output:\n%s", md.String())
	}
}

func TestReportRender(t *testing.T) {
	r := &Report{
		Title: "Scan",
		Sections: []Renderable{
			&Section{Title: "A", Content: "first"},
			&Section{Title: "B", Content: "second"},
		},
	}

	data, ok := r.RenderData().(map[string]any)
	if !ok || data["title"] != "Scan" {
		t.Fatalf("RenderData() = %v", r.RenderData())
	}
	if parts, _ := data["sections"].([]any); len(parts) != 2 {
		t.Errorf("sections = %v", data["sections"])
	}

	var text bytes.Buffer
	if err := r.RenderText(&text, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if !strings.HasPrefix(text.String(), "Scan\n====\n") || !strings.Contains(text.String(), "first\n\nB") {
		t.Errorf("text output:\n%s", text.String())
	}

	var md bytes.Buffer
	if err := r.RenderMarkdown(&md); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	if !strings.HasPrefix(md.String(), "# Scan\n\n") || !strings.Contains(md.String(), "## B") {
		t.Errorf("markdown output:\n%s", md.String())
	}
}

func TestFormatterOutputTOON(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatTOON, &buf, false)

	data := struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}{Name: "Widget", Count: 3}
	if err := f.Output(data); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "name: Widget") || !strings.Contains(out, "count: 3") {
		t.Errorf("toon output:\n%s", out)
	}
}

func TestFormatterOutputRawMarkdown(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, false)
	if err := f.Output(map[string]int{"count": 42}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "```json\n") || !strings.HasSuffix(buf.String(), "```\n") {
		t.Errorf("markdown raw output:\n%s", buf.String())
	}
}

func TestFormatterMessageMethods(t *testing.T) {
	tests := []struct {
		name   string
		method func(*Formatter, string, ...any)
		format string
		args   []any
		want   string
	}{
		{"success", (*Formatter).Success, "Baseline written", nil, "Baseline written\n"},
		{"warning", (*Formatter).Warning, "No index units", nil, "WARNING: No index units\n"},
		{"error", (*Formatter).Error, "Scan failed", nil, "ERROR: Scan failed\n"},
		{"info", (*Formatter).Info, "Loaded %d units", []any{5}, "Loaded 5 units\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewWriterFormatter(FormatText, &buf, false)
			tt.method(f, tt.format, tt.args...)
			if buf.String() != tt.want {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestCategoryColor(t *testing.T) {
	for _, cat := range append(result.Categories, result.Category("other")) {
		t.Run(string(cat), func(t *testing.T) {
			got := CategoryColor(cat, "text")
			if !strings.Contains(got, "text") {
				t.Errorf("CategoryColor(%q) = %q", cat, got)
			}
		})
	}
}

func sampleResult() *scan.Result {
	findings := []result.Finding{
		{
			Kind:     graph.KindClass,
			Name:     "Dead",
			Location: graph.Location{Path: "/repo/Sources/App/Dead.swift", Line: 3, Column: 7},
			Category: result.CategoryUnused,
		},
		{
			Kind:     graph.KindProtocol,
			Name:     "Shape",
			Location: graph.Location{Path: "/repo/Sources/App/Shape.swift", Line: 1, Column: 10},
			Category: result.CategoryRedundantProtocol,
		},
	}
	return &scan.Result{
		Findings:  findings,
		New:       findings,
		Summary:   result.Summarize(findings),
		Baselined: 1,
	}
}

func TestFindingsReportText(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)
	if err := f.Output(NewFindingsReport(sampleResult(), "/repo")); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Sources/App/Dead.swift:3:7",
		"Class 'Dead' is unused",
		"2 finding(s), 1 suppressed by baseline",
		"redundantProtocol",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "/repo/") {
		t.Errorf("paths should be relative to root:\n%s", out)
	}
}

func TestFindingsReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	res := &scan.Result{Summary: result.NewSummary(), Cached: true}
	if err := NewFindingsReport(res, "").RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	if strings.Contains(buf.String(), "Findings") {
		t.Errorf("empty result should have no table:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "0 finding(s) (cached)") {
		t.Errorf("output:\n%s", buf.String())
	}
}

func TestFindingsReportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatMarkdown, &buf, false)
	if err := f.Output(NewFindingsReport(sampleResult(), "/repo")); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "# Unreachable code\n\n") {
		t.Errorf("markdown should start with the report title:\n%s", out)
	}
	dead := strings.Index(out, "Sources/App/Dead.swift")
	shape := strings.Index(out, "Sources/App/Shape.swift")
	if dead < 0 || shape < 0 || dead > shape {
		t.Errorf("files should be grouped in path order:\n%s", out)
	}
	if !strings.Contains(out, "| 3:7 | `class` | unused |") {
		t.Errorf("markdown output:\n%s", out)
	}
}

func TestFindingsReportJSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatJSON, &buf, false)
	if err := f.Output(NewFindingsReport(sampleResult(), "/repo")); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var got scan.Result
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(got.New) != 2 || got.Baselined != 1 {
		t.Errorf("decoded = %+v", got)
	}
	if got.New[0].Location.Path != "/repo/Sources/App/Dead.swift" {
		t.Errorf("JSON keeps the original paths, got %q", got.New[0].Location.Path)
	}
}
