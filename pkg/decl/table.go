package decl

import "iter"

// Index is an insertion-ordered, name-keyed table.
// Re-inserting an existing name replaces its value but keeps its position.
type Index[T any] struct {
	names []string
	items map[string]T
}

// NewIndex creates an empty index.
func NewIndex[T any]() *Index[T] {
	return &Index[T]{items: make(map[string]T)}
}

// Put inserts or replaces the value stored under name.
func (x *Index[T]) Put(name string, v T) {
	if _, ok := x.items[name]; !ok {
		x.names = append(x.names, name)
	}
	x.items[name] = v
}

// Get returns the value stored under name.
func (x *Index[T]) Get(name string) (T, bool) {
	v, ok := x.items[name]
	return v, ok
}

// Has reports whether name is present.
func (x *Index[T]) Has(name string) bool {
	_, ok := x.items[name]
	return ok
}

// Len returns the number of entries.
func (x *Index[T]) Len() int { return len(x.names) }

// Names returns the names in insertion order.
func (x *Index[T]) Names() []string {
	return append([]string(nil), x.names...)
}

// All iterates over the entries in insertion order.
func (x *Index[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, name := range x.names {
			if !yield(name, x.items[name]) {
				return
			}
		}
	}
}

// Node is a normalized node declaration.
type Node struct {
	Name string
	Ty   string
}

// Group is a normalized graph boundary.
type Group struct {
	Name  string
	Cap   int
	Ports []string
}

// Graph is a normalized graph declaration.
type Graph struct {
	Name        string
	Nodes       *Index[*Node]
	Inputs      *Index[*Group]
	Outputs     *Index[*Group]
	Connections []Connection
}

// Table is the normalized declaration table the compiler works on.
type Table struct {
	Main   string
	Nodes  *Index[*Node]  // global node declarations
	Graphs *Index[*Graph] // graph types
}

// IsGraph reports whether ty names a declared graph type.
func (t *Table) IsGraph(ty string) bool {
	return t.Graphs.Has(ty)
}

// Graph returns the graph type with the given name.
func (t *Table) Graph(name string) (*Graph, bool) {
	return t.Graphs.Get(name)
}

// Normalize converts a document into its declaration table.
// Absent lists become empty indexes; it never fails.
func Normalize(doc Document) *Table {
	t := &Table{
		Main:   doc.Main,
		Nodes:  nodeIndex(doc.Nodes),
		Graphs: NewIndex[*Graph](),
	}
	for _, g := range doc.Graphs {
		t.Graphs.Put(g.Name, normalizeGraph(g))
	}
	return t
}

func normalizeGraph(g GraphDecl) *Graph {
	return &Graph{
		Name:        g.Name,
		Nodes:       nodeIndex(g.Nodes),
		Inputs:      groupIndex(g.Inputs),
		Outputs:     groupIndex(g.Outputs),
		Connections: append([]Connection(nil), g.Connections...),
	}
}

func nodeIndex(nodes []NodeDecl) *Index[*Node] {
	x := NewIndex[*Node]()
	for _, n := range nodes {
		x.Put(n.Name, &Node{Name: n.Name, Ty: n.Ty})
	}
	return x
}

func groupIndex(groups []PortGroup) *Index[*Group] {
	x := NewIndex[*Group]()
	for _, g := range groups {
		x.Put(g.Name, &Group{Name: g.Name, Cap: g.Cap, Ports: append([]string(nil), g.Ports...)})
	}
	return x
}
