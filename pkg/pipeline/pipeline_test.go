package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/observability"
)

const flowTOML = `
main = "main"

[[graphs]]
name = "main"
nodes = [{ name = "A", ty = "Source" }, { name = "B", ty = "Sink" }, { name = "C", ty = "Sink" }]
inputs = [{ name = "inp", ports = ["A:inp"] }]
connections = [{ ports = ["A:out", "B:inp", "C:inp"] }]
`

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(&strings.Builder{}))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestRenderOptionsDefaults(t *testing.T) {
	var opts RenderOptions
	if err := opts.Validate(); err != nil {
		t.Fatalf("zero options should validate: %v", err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Layout != DefaultLayout {
		t.Errorf("Layout = %q, want %q", opts.Layout, DefaultLayout)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}

	bad := RenderOptions{Layout: "circo"}
	if err := bad.Validate(); err == nil {
		t.Error("unknown layout should fail")
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := RenderOptions{Layout: "dot", Scale: 3, Blocked: []int{2}}
	if got := opts.ArtifactKeyOpts(FormatSVG); got.Scale != 0 {
		t.Errorf("svg key should ignore scale, got %v", got.Scale)
	}
	if got := opts.ArtifactKeyOpts(FormatPNG); got.Scale != 3 {
		t.Errorf("png key scale = %v, want 3", got.Scale)
	}
	plain := opts.ArtifactKeyOpts(FormatSVG)
	opts.Detailed = true
	if opts.ArtifactKeyOpts(FormatSVG).Layout == plain.Layout {
		t.Error("detailed labels should change the key")
	}
}

func TestCheck(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Check(context.Background(), CheckOptions{Data: []byte(flowTOML)})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	// A, B, C, junction, boundary pseudo-node
	if res.Stats.Primitives != 3 || res.Stats.Junctions != 1 || res.Stats.Boundaries != 1 {
		t.Errorf("stats = %+v", res.Stats.Stats)
	}
	if err := res.Program.Graph.Validate(); err != nil {
		t.Errorf("compiled graph invalid: %v", err)
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.toml")
	if err := os.WriteFile(path, []byte(flowTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := quietRunner(nil).Check(context.Background(), CheckOptions{Source: path})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Program.Table.Main != "main" {
		t.Errorf("Main = %q", res.Program.Table.Main)
	}
}

func TestCheckErrors(t *testing.T) {
	tests := []struct {
		name string
		opts CheckOptions
		code errors.Code
	}{
		{"no input", CheckOptions{}, errors.ErrCodeInvalidInput},
		{"missing file", CheckOptions{Source: "/nonexistent/flow.toml"}, errors.ErrCodeFileNotFound},
		{"syntax", CheckOptions{Data: []byte("main = ")}, errors.ErrCodeInvalidDocument},
		{"bad format", CheckOptions{Data: []byte(flowTOML), Format: "yaml"}, errors.ErrCodeInvalidFormat},
		{"unknown main", CheckOptions{Data: []byte(`main = "nope"`)}, errors.ErrCodeUnknownGraph},
		{"unresolved", CheckOptions{Data: []byte(`
main = "main"
[[graphs]]
name = "main"
connections = [{ ports = ["X:out", "Y:inp"] }]
`)}, errors.ErrCodeEntityNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := quietRunner(nil).Check(context.Background(), tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if res != nil {
				t.Error("failed check should not return a result")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	compiles []error
	renders  int
}

func (h *recordingHooks) OnCompileComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	h.compiles = append(h.compiles, err)
}

func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.renders++
}

func TestCheckHooks(t *testing.T) {
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	defer observability.Reset()

	r := quietRunner(nil)
	_, _ = r.Check(context.Background(), CheckOptions{Data: []byte(flowTOML)})
	_, _ = r.Check(context.Background(), CheckOptions{Data: []byte(`main = "nope"`)})

	if len(h.compiles) != 2 {
		t.Fatalf("got %d compile events, want 2", len(h.compiles))
	}
	if h.compiles[0] != nil || h.compiles[1] == nil {
		t.Errorf("compile events = %v", h.compiles)
	}
}

func TestRenderJSONAndDOT(t *testing.T) {
	res, err := quietRunner(nil).Check(context.Background(), CheckOptions{Data: []byte(flowTOML)})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	artifacts, err := Render(res.Program.Graph, RenderOptions{Formats: []string{FormatJSON, FormatDOT}, Blocked: []int{1}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	g, err := graph.UnmarshalGraph(artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("UnmarshalGraph: %v", err)
	}
	n, _ := g.Node(1)
	if n.Color != graph.ColorBlocked {
		t.Errorf("blocked node color = %s", n.Color)
	}
	orig, _ := res.Program.Graph.Node(1)
	if orig.Color == graph.ColorBlocked {
		t.Error("Render must not recolor the program graph")
	}

	if !strings.HasPrefix(string(artifacts[FormatDOT]), "digraph G {") {
		t.Errorf("dot artifact = %q", artifacts[FormatDOT])
	}
}

func TestRenderInvalidFormat(t *testing.T) {
	if _, err := Render(graph.Graph{}, RenderOptions{Formats: []string{"gif"}}); err == nil {
		t.Error("invalid format should fail")
	}
}

func TestRunnerRenderCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	defer observability.Reset()

	r := quietRunner(fc)
	res, err := r.Check(context.Background(), CheckOptions{Data: []byte(flowTOML)})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	opts := RenderOptions{Formats: []string{FormatJSON, FormatDOT}}

	first, hit, err := r.RenderWithCacheInfo(context.Background(), res.Program.Graph, opts)
	if err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	second, hit, err := r.RenderWithCacheInfo(context.Background(), res.Program.Graph, opts)
	if err != nil || !hit {
		t.Fatalf("second render: hit=%v err=%v", hit, err)
	}
	if string(first[FormatDOT]) != string(second[FormatDOT]) {
		t.Error("cached artifact differs")
	}

	_, hit, _ = r.RenderWithCacheInfo(context.Background(), res.Program.Graph, RenderOptions{Formats: opts.Formats, Blocked: []int{2}})
	if hit {
		t.Error("a different blocking set should miss the cache")
	}

	_, hit, _ = r.RenderWithCacheInfo(context.Background(), res.Program.Graph, RenderOptions{Formats: opts.Formats, Refresh: true})
	if hit {
		t.Error("refresh should skip the cache")
	}
	if h.renders != 4 {
		t.Errorf("got %d render events, want 4", h.renders)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Error("NewRunner should fill in defaults")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
