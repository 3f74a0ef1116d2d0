package telemetry

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/flowscope/pkg/compiler"
	"github.com/matzehuels/flowscope/pkg/decl"
)

// Compiled ids: G=1, GG.pre=2, GG.model=3, A=4, D.pre=5, D.model=6, dot=7.
const pipelineTOML = `
main = "main"

[[nodes]]
name = "G"
ty = "Logger"

[[nodes]]
name = "GG"
ty = "det"

[[graphs]]
name = "det"
nodes = [{ name = "pre", ty = "Resize" }, { name = "model", ty = "Infer" }]
inputs = [{ name = "inp", ports = ["pre:inp"] }]
outputs = [{ name = "out", ports = ["model:out"] }]
connections = [{ ports = ["pre:out", "model:inp"] }]

[[graphs]]
name = "main"
nodes = [{ name = "A", ty = "Source" }, { name = "D", ty = "det" }]
connections = [{ ports = ["A:out", "D:inp", "G:inp"] }]
`

func compileTestProgram(t *testing.T) *compiler.Program {
	t.Helper()
	doc, err := decl.Parse([]byte(pipelineTOML), decl.FormatTOML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	prog, err := compiler.Compile(decl.Normalize(doc), compiler.NewAllocator())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return prog
}

func TestSplitPrimitive(t *testing.T) {
	prog := compileTestProgram(t)

	got, ok := Split(prog, "main", Sample{Name: "A", QPS: map[string][2]int{"in": {10, 5}}})
	if !ok {
		t.Fatal("Split(A) found nothing")
	}
	want := &Resolved{
		Name:  "A",
		ID:    4,
		Ports: []Port{{ID: "4#in", Descp: "A:in", Data: Data{Size: 10, QPS: 5}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitInstance(t *testing.T) {
	prog := compileTestProgram(t)

	got, ok := Split(prog, "main", Sample{
		Name:    "D",
		QPS:     map[string][2]int{"out": {1, 2}, "inp": {3, 7}},
		IsBlock: true,
	})
	if !ok {
		t.Fatal("Split(D) found nothing")
	}
	want := &Resolved{
		Name:     "D",
		Instance: true,
		IDs:      []int{5, 6},
		IsBlock:  true,
		Ports: []Port{
			{ID: "5#inp", Descp: "pre:inp", Data: Data{Size: 3, QPS: 7}},
			{ID: "6#out", Descp: "model:out", Data: Data{Size: 1, QPS: 2}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{5, 6}, got.BlockedIDs()); diff != "" {
		t.Errorf("BlockedIDs mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitGlobals(t *testing.T) {
	prog := compileTestProgram(t)

	g, ok := Split(prog, "main", Sample{Name: "G", QPS: map[string][2]int{"inp": {0, 9}}})
	if !ok || g.ID != 1 || g.Instance {
		t.Fatalf("Split(G) = %+v, %v", g, ok)
	}

	gg, ok := Split(prog, "main", Sample{Name: "GG", QPS: map[string][2]int{"out": {2, 4}}})
	if !ok {
		t.Fatal("Split(GG) found nothing")
	}
	want := []Port{{ID: "3#out", Descp: "model:out", Data: Data{Size: 2, QPS: 4}}}
	if diff := cmp.Diff(want, gg.Ports); diff != "" {
		t.Errorf("ports mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitUnresolved(t *testing.T) {
	prog := compileTestProgram(t)

	tests := []struct {
		name      string
		prog      *compiler.Program
		graphName string
		sample    string
	}{
		{"unknown name", prog, "main", "nope"},
		{"unknown graph", prog, "missing", "A"},
		{"declared in another graph", prog, "main", "pre"},
		{"no program", nil, "main", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Split(tt.prog, tt.graphName, Sample{Name: tt.sample})
			if ok || got != nil {
				t.Errorf("Split = %+v, %v; want nil, false", got, ok)
			}
		})
	}
}

func TestSplitNotBlocked(t *testing.T) {
	prog := compileTestProgram(t)
	s, _ := Split(prog, "main", Sample{Name: "A"})
	if ids := s.BlockedIDs(); ids != nil {
		t.Errorf("BlockedIDs = %v, want nil", ids)
	}
	if len(s.Ports) != 0 {
		t.Errorf("ports = %v, want none", s.Ports)
	}
}

func TestLocate(t *testing.T) {
	prog := compileTestProgram(t)

	tests := []struct {
		graphName string
		id        int
		want      string
		ok        bool
	}{
		{"main", 4, "A", true},
		{"main", 1, "G", true},
		{"main", 5, "pre", true},
		{"det", 2, "pre", true},
		{"det", 6, "model", true},
		{"main", 7, "", false}, // junction
		{"main", 99, "", false},
	}
	for _, tt := range tests {
		d, ok := Locate(prog, tt.graphName, tt.id)
		if ok != tt.ok {
			t.Errorf("Locate(%s, %d) ok = %v, want %v", tt.graphName, tt.id, ok, tt.ok)
			continue
		}
		if ok && d.Name != tt.want {
			t.Errorf("Locate(%s, %d) = %s, want %s", tt.graphName, tt.id, d.Name, tt.want)
		}
	}
}

func TestSplitBatch(t *testing.T) {
	prog := compileTestProgram(t)

	f := SplitBatch(context.Background(), prog, Batch{Nodes: []Sample{
		{Name: "A", QPS: map[string][2]int{"out": {1, 1}}, IsBlock: true},
		{Name: "nope", QPS: map[string][2]int{"out": {1, 1}}},
		{Name: "D", QPS: map[string][2]int{"inp": {2, 2}}, IsBlock: true},
		{Name: "G", QPS: map[string][2]int{"inp": {0, 0}}},
	}})

	if f.Graph != "main" {
		t.Errorf("Graph = %q, want main", f.Graph)
	}
	if diff := cmp.Diff([]int{4, 5}, f.Blocked); diff != "" {
		t.Errorf("Blocked mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nope"}, f.Skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}
	var keys []string
	for _, p := range f.Ports {
		keys = append(keys, p.ID)
	}
	if diff := cmp.Diff([]string{"4#out", "5#inp", "1#inp"}, keys); diff != "" {
		t.Errorf("port keys mismatch (-want +got):\n%s", diff)
	}
}

func TestPortKey(t *testing.T) {
	if got := PortKey(12, "out"); got != "12#out" {
		t.Errorf("PortKey = %q, want 12#out", got)
	}
}

func TestSplitTargetsExistInGraph(t *testing.T) {
	prog := compileTestProgram(t)

	for _, name := range []string{"A", "D", "G", "GG"} {
		got, ok := Split(prog, "main", Sample{Name: name, IsBlock: true})
		if !ok {
			t.Fatalf("Split(%s) found nothing", name)
		}
		for _, id := range got.Targets() {
			if _, ok := prog.Graph.Node(id); !ok {
				t.Errorf("Split(%s) target %d not in graph", name, id)
			}
		}
	}
	for _, e := range prog.Graph.Edges {
		if _, ok := prog.Graph.Node(e.From); !ok {
			t.Errorf("edge %d -> %d: unknown source", e.From, e.To)
		}
		if _, ok := prog.Graph.Node(e.To); !ok {
			t.Errorf("edge %d -> %d: unknown target", e.From, e.To)
		}
	}
}
