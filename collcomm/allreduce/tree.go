package allreduce

import "github.com/unixpickle/distsort/collcomm"

// A TreeAllreducer arranges the ranks in a binary heap,
// reduces up to rank 0, and broadcasts the result back
// down.
type TreeAllreducer struct{}

// Allreduce calls fn on vectors along a tree and returns
// the resulting reduced vector.
func (t TreeAllreducer) Allreduce(c *collcomm.Comms, data []float64,
	fn collcomm.ReduceFn) []float64 {
	parent, children := heapPosition(c.Index(), c.Size())

	messages := [][]float64{data}
	for range children {
		msg, _ := c.Recv()
		messages = append(messages, msg)
	}

	result := fn(c.Handle, messages...)
	if parent >= 0 {
		c.Send(parent, result)
		result, _ = c.Recv()
	}

	for _, child := range children {
		c.Send(child, result)
	}

	return result
}

// heapPosition returns the parent (-1 for the root) and
// children of a rank in a binary heap of size nodes.
func heapPosition(rank, size int) (parent int, children []int) {
	parent = -1
	if rank > 0 {
		parent = (rank - 1) / 2
	}
	for _, child := range []int{2*rank + 1, 2*rank + 2} {
		if child < size {
			children = append(children, child)
		}
	}
	return parent, children
}
