package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
)

const flowTOML = `
main = "main"

[[graphs]]
name = "main"
nodes = [{ name = "A", ty = "Source" }, { name = "B", ty = "Sink" }]
connections = [{ ports = ["A:out", "B:inp"] }]
`

func writeDoc(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testCLI() (*CLI, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, LogInfo), &buf
}

func TestRootCommandSubcommands(t *testing.T) {
	c, _ := testCLI()
	root := c.RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"check", "render", "attach", "serve", "cache", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg,json,dot", []string{"svg", "json", "dot"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs("1, 4,7")
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}
	if !slices.Equal(ids, []int{1, 4, 7}) {
		t.Errorf("parseIDs = %v", ids)
	}

	if ids, err := parseIDs(""); err != nil || ids != nil {
		t.Errorf("parseIDs(\"\") = %v, %v", ids, err)
	}
	for _, bad := range []string{"x", "1,,2", "0", "-3"} {
		if _, err := parseIDs(bad); err == nil {
			t.Errorf("parseIDs(%q) should fail", bad)
		}
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("FLOWSCOPE_TEST_VALUE", "")
	if got := envOr("FLOWSCOPE_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("envOr unset = %q", got)
	}
	t.Setenv("FLOWSCOPE_TEST_VALUE", "set")
	if got := envOr("FLOWSCOPE_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("envOr set = %q", got)
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "flows/etl.toml", "flows/etl"},
		{"out.svg", "etl.toml", "out"},
		{"out.dot", "etl.toml", "out"},
		{"out", "etl.toml", "out"},
		{"out.txt", "etl.toml", "out.txt"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	if got := outputPath("graph.svg", "etl.toml", "svg", true); got != "graph.svg" {
		t.Errorf("single format = %q", got)
	}
	if got := outputPath("graph.svg", "etl.toml", "png", false); got != "graph.png" {
		t.Errorf("multiple formats = %q", got)
	}
	if got := outputPath("", "etl.toml", "json", true); got != "etl.json" {
		t.Errorf("derived = %q", got)
	}
}

func TestCheckCommand(t *testing.T) {
	doc := writeDoc(t, "flow.toml", flowTOML)
	out := filepath.Join(t.TempDir(), "graph.json")

	c, _ := testCLI()
	root := c.RootCommand()
	root.SetArgs([]string{"check", doc, "-o", out, "-q"})
	if err := root.Execute(); err != nil {
		t.Fatalf("check: %v", err)
	}

	g, err := graph.ReadGraphFile(out)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	var labels []string
	for _, n := range g.Nodes {
		if n.Label != nil {
			labels = append(labels, *n.Label)
		}
	}
	for _, want := range []string{"A", "B"} {
		if !slices.Contains(labels, want) {
			t.Errorf("labels %v missing %q", labels, want)
		}
	}
	if len(g.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(g.Edges))
	}
}

func TestCheckCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{"missing file", func(t *testing.T) []string {
			return []string{"check", filepath.Join(t.TempDir(), "nope.toml"), "-q"}
		}},
		{"unknown node", func(t *testing.T) []string {
			return []string{"check", writeDoc(t, "bad.toml", strings.Replace(flowTOML, `"B:inp"`, `"X:inp"`, 1)), "-q"}
		}},
		{"no args", func(t *testing.T) []string { return []string{"check"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testCLI()
			root := c.RootCommand()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tt.args(t))
			if err := root.Execute(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	doc := writeDoc(t, "flow.toml", flowTOML)
	base := filepath.Join(t.TempDir(), "out")

	c, _ := testCLI()
	root := c.RootCommand()
	root.SetArgs([]string{"render", doc, "-f", "json,dot", "-o", base, "--no-cache", "--blocked", "1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.HasPrefix(string(dot), "digraph G {") {
		t.Errorf("dot output = %q", dot)
	}
	if _, err := graph.ReadGraphFile(base + ".json"); err != nil {
		t.Errorf("json output: %v", err)
	}
}

func TestRenderCommandFromGraph(t *testing.T) {
	doc := writeDoc(t, "flow.toml", flowTOML)
	dir := t.TempDir()
	saved := filepath.Join(dir, "graph.json")

	c, _ := testCLI()
	root := c.RootCommand()
	root.SetArgs([]string{"check", doc, "-o", saved, "-q"})
	if err := root.Execute(); err != nil {
		t.Fatalf("check: %v", err)
	}

	out := filepath.Join(dir, "replay.dot")
	c, _ = testCLI()
	root = c.RootCommand()
	root.SetArgs([]string{"render", saved, "--from-graph", "-f", "dot", "-o", out, "--no-cache", "--blocked", "2"})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}
	dot, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.Contains(string(dot), "1 -> 2 [dir=none];") {
		t.Errorf("dot output = %q", dot)
	}
}

func TestRenderCommandFromInvalidGraph(t *testing.T) {
	bad := writeDoc(t, "graph.json", `{"nodes":[{"id":1}],"edges":[{"from":1,"to":2}]}`)

	c, _ := testCLI()
	root := c.RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"render", bad, "--from-graph", "-f", "dot", "-o", filepath.Join(t.TempDir(), "out.dot")})
	err := root.Execute()
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestRenderCommandInvalidFlags(t *testing.T) {
	doc := writeDoc(t, "flow.toml", flowTOML)
	for _, args := range [][]string{
		{"render", doc, "-f", "gif"},
		{"render", doc, "--blocked", "x"},
		{"render", doc, "-f", "dot", "--layout", "circo", "--no-cache"},
	} {
		c, _ := testCLI()
		root := c.RootCommand()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append(args, "-o", filepath.Join(t.TempDir(), "out")))
		if err := root.Execute(); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestAttachInvalidTarget(t *testing.T) {
	c, _ := testCLI()
	root := c.RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"attach", "not-a-target"})
	if err := root.Execute(); err == nil {
		t.Error("expected an error for a target without a port")
	}
}
