package compiler_test

import (
	"fmt"

	"github.com/matzehuels/flowscope/pkg/compiler"
	"github.com/matzehuels/flowscope/pkg/decl"
)

func ExampleCompile() {
	doc := decl.Document{
		Main: "main",
		Graphs: []decl.GraphDecl{{
			Name: "main",
			Nodes: []decl.NodeDecl{
				{Name: "A", Ty: "leaf"},
				{Name: "B", Ty: "leaf"},
				{Name: "C", Ty: "leaf"},
			},
			Connections: []decl.Connection{
				{Ports: []string{"A:out", "B:in", "C:in"}},
			},
		}},
	}

	prog, err := compiler.Compile(decl.Normalize(doc), compiler.NewAllocator())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	for _, n := range prog.Graph.Nodes {
		fmt.Printf("%d %q %v\n", n.ID, n.DisplayLabel(), n.IsJunction())
	}
	for _, e := range prog.Graph.Edges {
		fmt.Printf("%d -> %d %q\n", e.From, e.To, e.Arrows)
	}
	// Output:
	// 1 "A" false
	// 2 "B" false
	// 3 "C" false
	// 4 "" true
	// 1 -> 4 ""
	// 2 -> 4 ""
	// 3 -> 4 ""
}

func ExampleCompile_unresolved() {
	doc := decl.Document{
		Main: "main",
		Graphs: []decl.GraphDecl{{
			Name:        "main",
			Nodes:       []decl.NodeDecl{{Name: "A", Ty: "leaf"}},
			Connections: []decl.Connection{{Ports: []string{"A:out", "X:foo"}}},
		}},
	}

	_, err := compiler.Compile(decl.Normalize(doc), nil)
	fmt.Println(err)
	// Output:
	// ENTITY_NOT_FOUND: node[X] is not found in graph[main]
}
