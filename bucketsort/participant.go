package bucketsort

import (
	"fmt"
	"log"

	"github.com/unixpickle/distsort/collcomm"
	"github.com/unixpickle/distsort/collcomm/allreduce"
	"golang.org/x/exp/slices"
)

// Coordinator is the rank that owns the list before and
// after a sort.
const Coordinator = 0

// A Phase is one step of the sorting protocol. Every
// participant goes through the phases in order.
type Phase int

const (
	PhaseScatter Phase = iota
	PhaseClassify
	PhaseExchange
	PhaseLocalSort
	PhaseGather
	PhaseVerify
)

func (p Phase) String() string {
	switch p {
	case PhaseScatter:
		return "Scatter"
	case PhaseClassify:
		return "Classify"
	case PhaseExchange:
		return "Exchange"
	case PhaseLocalSort:
		return "LocalSort"
	case PhaseGather:
		return "Gather"
	case PhaseVerify:
		return "Verify"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Message tags, one per phase that communicates.
const (
	scatterTag      = "scatter"
	exchangeTag     = "exchange"
	gatherTag       = "gather"
	conservationTag = "conservation"
)

// A Participant runs the sorting protocol on one node.
//
// The zero value is ready to use.
type Participant struct {
	// Pivot is the local sort's pivot strategy.
	// RandomPivot draws from the node's Handle.Rand.
	Pivot Pivot

	// Allreducer computes the conservation totals.
	// If nil, a TreeAllreducer is used.
	Allreducer allreduce.Allreducer

	// SimulateCompute charges collcomm.FlopTime of
	// virtual time per classified element and per
	// comparison in the local sort.
	SimulateCompute bool

	// Logger, if non-nil, receives a line per phase.
	Logger *log.Logger

	// OnPhase, if non-nil, is called as each phase
	// begins. It runs on the participant's Goroutine.
	OnPhase func(rank int, phase Phase)
}

// Sort runs every phase of the protocol for the node
// behind c and returns its Result.
//
// n is the problem size and must be the same on every
// node. list is only read on the Coordinator, where it
// must hold n values; other nodes may pass nil.
//
// Every node checks n against the group size before
// communicating, so they all fail together on a bad
// configuration. If the Coordinator rejects list, it
// aborts the scatter and the other nodes return
// ErrAborted.
func (p *Participant) Sort(c *collcomm.Comms, n int, list []float64) (*Result, error) {
	rank, size := c.Index(), c.Size()
	if err := CheckSize(n, size); err != nil {
		return nil, err
	}

	p.enter(c, PhaseScatter)
	segment, err := p.scatter(c.WithTag(scatterTag), n, list)
	if err != nil {
		return nil, err
	}

	p.enter(c, PhaseClassify)
	outgoing := Classify(segment, size)
	p.charge(c, len(segment))

	p.enter(c, PhaseExchange)
	local := Exchange(c.WithTag(exchangeTag), outgoing)

	p.enter(c, PhaseLocalSort)
	p.charge(c, QuicksortPivot(local, 0, len(local), p.Pivot, c.Handle.Rand()))

	p.enter(c, PhaseGather)
	sorted, sizes := gather(c.WithTag(gatherTag), local)

	p.enter(c, PhaseVerify)
	res := &Result{
		Rank:         rank,
		LocalSize:    len(local),
		Conservation: p.conservation(c.WithTag(conservationTag), segment, local),
	}
	if rank == Coordinator {
		res.Sorted = sorted
		res.BucketSizes = sizes
		res.Verification = Verify(sorted)
		if p.Logger != nil {
			p.Logger.Printf("rank %d: sorted=%v first violation=%d buckets=%v",
				rank, res.Verification.Sorted, res.Verification.FirstViolation, sizes)
		}
	}
	return res, nil
}

// scatter hands every node its segment of the list.
func (p *Participant) scatter(c *collcomm.Comms, n int, list []float64) ([]float64, error) {
	segLen := n / c.Size()
	if c.Index() != Coordinator {
		segment, _, err := c.RecvErr()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAborted, err)
		}
		if len(segment) != segLen {
			panic(fmt.Sprintf("rank %d: segment has %d values, expected %d",
				c.Index(), len(segment), segLen))
		}
		return segment, nil
	}

	if err := CheckList(n, list); err != nil {
		c.Abort(err.Error())
		return nil, err
	}
	segments := make([][]float64, c.Size())
	for i := range segments {
		segments[i] = slices.Clone(list[i*segLen : (i+1)*segLen])
	}
	c.SendEach(segments)
	return segments[Coordinator], nil
}

// gather concatenates every node's result on the
// Coordinator in rank order. Other nodes get nil.
func gather(c *collcomm.Comms, local []float64) ([]float64, []int) {
	if c.Index() != Coordinator {
		c.Send(Coordinator, local)
		return nil, nil
	}
	parts := make([][]float64, c.Size())
	received := make([]bool, c.Size())
	parts[Coordinator], received[Coordinator] = local, true
	for i := 0; i < c.Size()-1; i++ {
		vec, rank := c.Recv()
		if received[rank] {
			panic(fmt.Sprintf("second gather packet from rank %d", rank))
		}
		parts[rank], received[rank] = vec, true
	}

	sizes := make([]int, len(parts))
	var total int
	for i, part := range parts {
		sizes[i] = len(part)
		total += len(part)
	}
	sorted := make([]float64, 0, total)
	for _, part := range parts {
		sorted = append(sorted, part...)
	}
	return sorted, sizes
}

func (p *Participant) conservation(c *collcomm.Comms, segment, local []float64) Conservation {
	reducer := p.Allreducer
	if reducer == nil {
		reducer = allreduce.TreeAllreducer{}
	}
	totals := reducer.Allreduce(c, conservationVector(segment, local), collcomm.Sum)
	return newConservation(totals)
}

func (p *Participant) enter(c *collcomm.Comms, phase Phase) {
	if p.Logger != nil {
		p.Logger.Printf("%s: %s (t=%g)", c.Handle.Name(), phase, c.Handle.Time())
	}
	if p.OnPhase != nil {
		p.OnPhase(c.Index(), phase)
	}
}

func (p *Participant) charge(c *collcomm.Comms, ops int) {
	if p.SimulateCompute && ops > 0 {
		c.Handle.Sleep(collcomm.FlopTime * float64(ops))
	}
}
