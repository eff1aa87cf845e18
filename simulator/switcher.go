package simulator

// A Switcher decides how fast data flows between nodes
// when several of them compete for the same links.
type Switcher interface {
	// SwitchedRates receives a matrix with a 1 wherever a
	// node wants to send to another node and 0
	// elsewhere, and overwrites it with the rate granted
	// to each of those connections.
	SwitchedRates(mat *ConnMat)
}

// A GreedyDropSwitcher splits each node's upload rate
// evenly across its outgoing connections, then, for any
// node receiving more than its download rate, scales its
// incoming connections down proportionally.
//
// In matrix terms: normalize rows, then cap columns.
type GreedyDropSwitcher struct {
	SendRates []float64
	RecvRates []float64
}

// NewGreedyDropSwitcher creates a GreedyDropSwitcher
// where every node uploads and downloads at rate.
func NewGreedyDropSwitcher(numNodes int, rate float64) *GreedyDropSwitcher {
	rates := make([]float64, numNodes)
	for i := range rates {
		rates[i] = rate
	}
	return &GreedyDropSwitcher{
		SendRates: rates,
		RecvRates: rates,
	}
}

// NumNodes gets the number of nodes on the switch.
func (g *GreedyDropSwitcher) NumNodes() int {
	return len(g.SendRates)
}

// SwitchedRates applies the switching policy to mat.
func (g *GreedyDropSwitcher) SwitchedRates(mat *ConnMat) {
	if mat.NumNodes() != g.NumNodes() {
		panic("unexpected number of nodes")
	}

	for src := 0; src < g.NumNodes(); src++ {
		if numDests := mat.SumSource(src); numDests > 0 {
			mat.ScaleSource(src, g.SendRates[src]/numDests)
		}
	}

	for dst := 0; dst < g.NumNodes(); dst++ {
		if incoming := mat.SumDest(dst); incoming > g.RecvRates[dst] {
			mat.ScaleDest(dst, g.RecvRates[dst]/incoming)
		}
	}
}
