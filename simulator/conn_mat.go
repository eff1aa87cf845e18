package simulator

// A ConnMat is a square matrix with one entry per
// directed link, indexed by source node (row) and
// destination node (column).
//
// Switchers store link rates in it; MeteredNetwork
// stores bytes sent.
type ConnMat struct {
	numNodes int
	rates    []float64
}

// NewConnMat creates an all-zero matrix.
func NewConnMat(numNodes int) *ConnMat {
	return &ConnMat{
		numNodes: numNodes,
		rates:    make([]float64, numNodes*numNodes),
	}
}

// NumNodes returns the side length of the matrix.
func (c *ConnMat) NumNodes() int {
	return c.numNodes
}

// Get reads the entry from src to dst.
func (c *ConnMat) Get(src, dst int) float64 {
	return c.rates[c.index(src, dst)]
}

// Set writes the entry from src to dst.
func (c *ConnMat) Set(src, dst int, value float64) {
	c.rates[c.index(src, dst)] = value
}

// Add adds delta to the entry from src to dst.
func (c *ConnMat) Add(src, dst int, delta float64) {
	c.rates[c.index(src, dst)] += delta
}

// Total adds up every entry, optionally skipping the
// diagonal.
func (c *ConnMat) Total(withSelf bool) float64 {
	var sum float64
	for i, x := range c.rates {
		if withSelf || i/c.numNodes != i%c.numNodes {
			sum += x
		}
	}
	return sum
}

// Clone creates a copy of the matrix.
func (c *ConnMat) Clone() *ConnMat {
	return &ConnMat{
		numNodes: c.numNodes,
		rates:    append([]float64{}, c.rates...),
	}
}

// SumDest adds up the rates into dst.
func (c *ConnMat) SumDest(dst int) float64 {
	var sum float64
	for src := 0; src < c.numNodes; src++ {
		sum += c.Get(src, dst)
	}
	return sum
}

// SumSource adds up the rates out of src.
func (c *ConnMat) SumSource(src int) float64 {
	var sum float64
	for dst := 0; dst < c.numNodes; dst++ {
		sum += c.Get(src, dst)
	}
	return sum
}

// ScaleDest multiplies every rate into dst by scale.
func (c *ConnMat) ScaleDest(dst int, scale float64) {
	for src := 0; src < c.numNodes; src++ {
		c.Set(src, dst, c.Get(src, dst)*scale)
	}
}

// ScaleSource multiplies every rate out of src by scale.
func (c *ConnMat) ScaleSource(src int, scale float64) {
	for dst := 0; dst < c.numNodes; dst++ {
		c.Set(src, dst, c.Get(src, dst)*scale)
	}
}

func (c *ConnMat) index(src, dst int) int {
	if src < 0 || dst < 0 || src >= c.numNodes || dst >= c.numNodes {
		panic("index out of bounds")
	}
	return src*c.numNodes + dst
}
