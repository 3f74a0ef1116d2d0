// Package telemetry maps live runtime samples onto a compiled program.
//
// The pipeline runtime reports throughput per declaration name and port.
// Declarations inside subgraph instances have been flattened away by the
// compiler, so a sample for a subgraph instance is expanded through the
// instance's boundaries down to the primitive nodes that carry the ports:
//
//	split, ok := telemetry.Split(prog, "main", sample)
//	if !ok {
//	    // unknown name, skip the sample
//	}
//	for _, p := range split.Ports {
//	    chart.Append(p.ID, p.Data) // "<id>#<port>"
//	}
//
// [Locate] is the reverse index from compiled ids back to declarations, used
// to label ports that were reached through a boundary.
//
// Lookups never fail: unresolved names and ids yield an explicit absent
// result. A [compiler.Program] is immutable, so every function here is safe
// to call concurrently from the goroutine that receives samples.
//
// Split frames can be fanned out to external chart consumers through a
// [Publisher]; [RedisPublisher] publishes them on a Redis pub/sub channel
// without retaining history.
package telemetry
