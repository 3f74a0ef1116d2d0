package telemetry

import (
	"fmt"
	"slices"
)

// Sample is one runtime measurement for a declaration.
//
// QPS maps a port name (or a boundary name, for subgraph instances) to a
// (size, qps) pair: the queue length and the throughput over the last
// sampling interval.
type Sample struct {
	Name    string            `json:"name"`
	QPS     map[string][2]int `json:"qps"`
	IsBlock bool              `json:"is_block"`
}

// PortNames returns the reported port names in sorted order.
func (s Sample) PortNames() []string {
	names := make([]string, 0, len(s.QPS))
	for name := range s.QPS {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Batch is a set of samples taken from one graph at the same instant.
// An empty Graph names the program's entry graph.
type Batch struct {
	Graph string   `json:"graph,omitempty"`
	Nodes []Sample `json:"nodes"`
}

// Data is the measurement attached to a port.
type Data struct {
	Size int `json:"size"`
	QPS  int `json:"qps"`
}

// Port is a measurement resolved to one port of a compiled node.
type Port struct {
	ID    string `json:"id"`    // "<nodeId>#<port>", the chart series key
	Descp string `json:"descp"` // "<declName>:<port>"
	Data  Data   `json:"data"`
}

// PortKey returns the chart series key of a port on a compiled node.
func PortKey(id int, port string) string {
	return fmt.Sprintf("%d#%s", id, port)
}

// Resolved is a sample resolved against a compiled program.
type Resolved struct {
	Name     string `json:"name"`
	Instance bool   `json:"instance"`      // resolved to a subgraph instance
	ID       int    `json:"id,omitempty"`  // primitive node id
	IDs      []int  `json:"ids,omitempty"` // expanded ids of an instance
	IsBlock  bool   `json:"is_block"`
	Ports    []Port `json:"ports"`
}

// Targets returns the compiled ids the sample applies to.
func (s *Resolved) Targets() []int {
	if s.Instance {
		return slices.Clone(s.IDs)
	}
	return []int{s.ID}
}

// BlockedIDs returns the ids to highlight, or nil when the sample does not
// flag a block.
func (s *Resolved) BlockedIDs() []int {
	if !s.IsBlock {
		return nil
	}
	return s.Targets()
}

// Frame is a batch resolved against a compiled program.
type Frame struct {
	Graph   string   `json:"graph"`
	Ports   []Port   `json:"ports"`
	Blocked []int    `json:"blocked"`
	Skipped []string `json:"skipped,omitempty"`
}
