// Package debugger is a client for the pipeline runtime's debugging endpoint.
//
// The runtime serves a websocket at ws://<host:port>/debugger and accepts a
// single client at a time. Every frame is a JSON [Message] whose "ty" field is
// "request", "response" or "event":
//
//   - On connect the runtime sends an "initialized" event carrying the
//     pipeline document it runs and the features it supports.
//   - The client starts a feature with a "start" request. The runtime answers
//     with a stream of responses on the request's sequence id until the
//     client sends "stop" for the same id.
//   - A "terminated" event announces that the pipeline has finished.
//
// The only feature the runtime ships is QPS, which streams per-port throughput
// samples as [telemetry.Batch] values.
package debugger

import (
	"slices"

	"github.com/matzehuels/flowscope/pkg/telemetry"
)

// Message types.
const (
	TypeRequest  = "request"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Events pushed by the runtime.
const (
	EventInitialized = "initialized"
	EventTerminated  = "terminated"
	EventStop        = "stop"
)

// Commands.
const (
	CommandStart = "start"
	CommandStop  = "stop"
	CommandNoop  = "noop"
)

// FeatureQPS streams throughput samples.
const FeatureQPS = "QPS"

// Path is the websocket endpoint served by the runtime.
const Path = "/debugger"

// Message is a protocol frame. Which fields are set depends on Ty, Event and
// Feature; unknown fields are ignored.
type Message struct {
	Ty      string `json:"ty"`
	Event   string `json:"event,omitempty"`
	Feature string `json:"feature,omitempty"`
	Command string `json:"command,omitempty"`
	SeqID   int64  `json:"seq_id"`
	Success bool   `json:"success,omitempty"`

	// Ratio scales the QPS sampling interval (start requests).
	Ratio float64 `json:"ratio,omitempty"`

	// Graph is the pipeline document text on initialized events and the
	// sampled graph's name on QPS responses.
	Graph string `json:"graph,omitempty"`

	// Features lists the runtime's features on initialized events.
	Features []string `json:"features,omitempty"`

	// Nodes carries the samples of a QPS response.
	Nodes []telemetry.Sample `json:"nodes,omitempty"`
}

// Initialized is the session-initialization event.
type Initialized struct {
	Document string
	Features []string
}

// Supports reports whether the runtime advertised the feature.
func (e Initialized) Supports(feature string) bool {
	return slices.Contains(e.Features, feature)
}

// Batch returns the samples of a QPS response.
func (m *Message) Batch() telemetry.Batch {
	return telemetry.Batch{Graph: m.Graph, Nodes: m.Nodes}
}
