package allreduce

import "github.com/unixpickle/distsort/collcomm"

// A NaiveAllreducer sends every vector from every node
// to every other node.
type NaiveAllreducer struct{}

// Allreduce runs fn() on all of the nodes' vectors on
// every node.
func (n NaiveAllreducer) Allreduce(c *collcomm.Comms, data []float64,
	fn collcomm.ReduceFn) []float64 {
	gathered := make([][]float64, c.Size())
	gathered[c.Index()] = data

	c.Bcast(data)
	for i := 0; i < c.Size()-1; i++ {
		incoming, rank := c.Recv()
		gathered[rank] = incoming
	}

	return fn(c.Handle, gathered...)
}
