package bucketsort

import (
	"fmt"

	"github.com/unixpickle/distsort/collcomm"
)

// Exchange sends outgoing[k] to rank k for every other
// rank, and returns the current rank's bucket: its own
// outgoing[rank] followed by everything the other ranks
// classified into it.
//
// Exactly one packet is expected from every peer. They
// may arrive in any order, and their lengths are read
// from the packets. If a peer never sends, Exchange
// blocks forever and the event loop reports a deadlock.
func Exchange(c *collcomm.Comms, outgoing [][]float64) []float64 {
	if len(outgoing) != c.Size() {
		panic(fmt.Sprintf("expected %d partitions but got %d", c.Size(), len(outgoing)))
	}
	self := c.Index()
	c.SendEach(outgoing)

	aggregate := outgoing[self]
	received := make([]bool, c.Size())
	received[self] = true
	for i := 0; i < c.Size()-1; i++ {
		vec, rank := c.Recv()
		if received[rank] {
			panic(fmt.Sprintf("rank %d: second exchange packet from rank %d", self, rank))
		}
		received[rank] = true
		aggregate = append(aggregate, vec...)
	}
	return aggregate
}
