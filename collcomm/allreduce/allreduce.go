// Package allreduce implements algorithms for summing or
// maxing vectors across many different connected Nodes.
package allreduce

import "github.com/unixpickle/distsort/collcomm"

// Allreducer is an algorithm that applies a ReduceFn to
// vectors spread across nodes, leaving the result on
// every node.
//
// Allreduce only reads and writes packets under the
// Comms' tag, so callers that run several operations on
// the same ports should give each one its own tag.
type Allreducer interface {
	Allreduce(c *collcomm.Comms, data []float64, fn collcomm.ReduceFn) []float64
}
