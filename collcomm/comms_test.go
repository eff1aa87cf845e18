package collcomm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/unixpickle/distsort/simulator"
)

func spawnTest(t *testing.T, numNodes int, randomized bool, f func(c *Comms)) {
	loop := simulator.NewEventLoop()
	nodes := make([]*simulator.Node, numNodes)
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}
	var network simulator.Network
	if randomized {
		network = simulator.RandomNetwork{}
	} else {
		network = simulator.NewSwitcherNetwork(simulator.NewGreedyDropSwitcher(numNodes, 1e3), nodes, 0.1)
	}
	SpawnComms(loop, network, nodes, f)
	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
}

func TestCommsSendEach(t *testing.T) {
	for _, numNodes := range []int{1, 2, 5} {
		numNodes := numNodes
		for _, randomized := range []bool{false, true} {
			randomized := randomized
			t.Run(fmt.Sprintf("Nodes=%d,Random=%v", numNodes, randomized), func(t *testing.T) {
				spawnTest(t, numNodes, randomized, func(c *Comms) {
					vecs := make([][]float64, c.Size())
					for i := range vecs {
						// Length encodes the destination, value the source.
						for j := 0; j < i; j++ {
							vecs[i] = append(vecs[i], float64(c.Index()))
						}
					}
					c.SendEach(vecs)
					seen := map[int]bool{}
					for i := 0; i < c.Size()-1; i++ {
						vec, rank := c.Recv()
						if seen[rank] {
							t.Errorf("rank %d: second packet from %d", c.Index(), rank)
						}
						seen[rank] = true
						if len(vec) != c.Index() {
							t.Errorf("rank %d: expected length %d but got %d", c.Index(), c.Index(), len(vec))
						}
						for _, x := range vec {
							if int(x) != rank {
								t.Errorf("rank %d: payload %v does not match sender %d", c.Index(), x, rank)
								break
							}
						}
					}
				})
			})
		}
	}
}

// TestCommsTags checks that packets for a later phase are
// held back until that phase is received.
func TestCommsTags(t *testing.T) {
	spawnTest(t, 2, true, func(c *Comms) {
		first, second := c.WithTag("first"), c.WithTag("second")
		if c.Index() == 0 {
			second.Send(1, []float64{2})
			first.Send(1, []float64{1})
			return
		}
		if vec, _ := first.Recv(); vec[0] != 1 {
			t.Errorf("expected first-phase packet but got %v", vec)
		}
		if vec, _ := second.Recv(); vec[0] != 2 {
			t.Errorf("expected second-phase packet but got %v", vec)
		}
	})
}

func TestCommsAbort(t *testing.T) {
	spawnTest(t, 3, false, func(c *Comms) {
		c = c.WithTag("scatter")
		if c.Index() == 0 {
			c.Abort("bad input")
			return
		}
		_, rank, err := c.RecvErr()
		var abort *AbortError
		if !errors.As(err, &abort) {
			t.Errorf("rank %d: expected AbortError but got %v", c.Index(), err)
			return
		}
		if rank != 0 || abort.Reason != "bad input" || abort.Tag != "scatter" {
			t.Errorf("rank %d: unexpected abort %+v from %d", c.Index(), abort, rank)
		}
	})
}

func TestPacketSize(t *testing.T) {
	p := &Packet{Tag: "ab", Payload: make([]float64, 3)}
	if size := p.Size(); size != packetHeaderSize+2+24 {
		t.Errorf("unexpected size %f", size)
	}
}
