package compiler

import "github.com/matzehuels/flowscope/pkg/graph"

// endpointKind classifies one resolved end of a connection.
type endpointKind uint8

const (
	// unknown: a primitive node port, direction not implied by the reference.
	endpointUnknown endpointKind = iota
	// rx: an input boundary of a subgraph instance; data flows into it.
	endpointRx
	// tx: an output boundary of a subgraph instance; data flows out of it.
	endpointTx
)

type endpoint struct {
	kind endpointKind
	id   int
}

// endpoints groups the resolved ends of one connection by kind, keeping the
// order in which they were resolved.
type endpoints struct {
	rx, tx, unknown []int
}

func (e *endpoints) add(ep endpoint) {
	switch ep.kind {
	case endpointRx:
		e.rx = append(e.rx, ep.id)
	case endpointTx:
		e.tx = append(e.tx, ep.id)
	default:
		e.unknown = append(e.unknown, ep.id)
	}
}

func (e *endpoints) total() int {
	return len(e.rx) + len(e.tx) + len(e.unknown)
}

// binary orients a two-endpoint connection. The source is the sole tx end,
// else the next unknown end; the target is the sole rx end, else the next
// unknown end. The edge is undirected when both ends came from unknown.
// It reports false when the ends cannot fill both slots (two rx or two tx).
func (e *endpoints) binary() (graph.Edge, bool) {
	consumed := 0
	next := func() (int, bool) {
		if consumed >= len(e.unknown) {
			return 0, false
		}
		id := e.unknown[consumed]
		consumed++
		return id, true
	}

	var from, to int
	var ok bool
	if len(e.tx) == 1 {
		from = e.tx[0]
	} else if from, ok = next(); !ok {
		return graph.Edge{}, false
	}
	if len(e.rx) == 1 {
		to = e.rx[0]
	} else if to, ok = next(); !ok {
		return graph.Edge{}, false
	}

	arrows := graph.ArrowTo
	if consumed == 2 {
		arrows = graph.ArrowNone
	}
	return graph.Edge{From: from, To: to, Arrows: arrows}, true
}

// fan wires every end to a junction: junction→rx and tx→junction are
// directed, unknown→junction is not.
func (e *endpoints) fan(junction int) []graph.Edge {
	edges := make([]graph.Edge, 0, e.total())
	for _, id := range e.rx {
		edges = append(edges, graph.Edge{From: junction, To: id, Arrows: graph.ArrowTo})
	}
	for _, id := range e.tx {
		edges = append(edges, graph.Edge{From: id, To: junction, Arrows: graph.ArrowTo})
	}
	for _, id := range e.unknown {
		edges = append(edges, graph.Edge{From: id, To: junction, Arrows: graph.ArrowNone})
	}
	return edges
}
