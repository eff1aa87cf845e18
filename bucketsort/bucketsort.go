// Package bucketsort sorts a list of values in [0, 1)
// across a fixed group of nodes on a simulated network.
//
// The Coordinator scatters equal segments of the list to
// every node. Each node splits its segment into one
// bucket per node by value range, buckets are exchanged
// so that node k holds every value in [k/P, (k+1)/P),
// each node sorts its bucket locally, and the Coordinator
// gathers the buckets back in rank order. Because bucket
// ranges increase with rank, the concatenation is sorted.
//
// Load is only balanced when values are roughly uniform
// on [0, 1).
package bucketsort

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"
	"github.com/unixpickle/distsort/collcomm"
	"github.com/unixpickle/distsort/simulator"
)

var (
	ErrInvalidSize   = errors.New("problem size and participant count must be positive")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNotDivisible  = errors.New("problem size is not divisible by participant count")
	ErrListLength    = errors.New("list length does not match problem size")
	ErrInvalidValue  = errors.New("list contains a non-finite value")
	ErrAborted       = errors.New("coordinator aborted the sort")
	ErrStalled       = errors.New("sort stalled")
)

// CheckSize validates a problem size n for p
// participants.
func CheckSize(n, p int) error {
	if n <= 0 || p <= 0 {
		return fmt.Errorf("%w: n=%d, participants=%d", ErrInvalidSize, n, p)
	}
	if n%p != 0 {
		return fmt.Errorf("%w: problem size %d, %d participants", ErrNotDivisible, n, p)
	}
	return nil
}

// CheckList validates the list held by the Coordinator.
//
// Values are expected in [0, 1). Finite values outside
// that range are accepted and sort correctly, at the cost
// of load balance; NaN and infinities are rejected.
func CheckList(n int, list []float64) error {
	if len(list) != n {
		return fmt.Errorf("%w: got %d values, expected %d", ErrListLength, len(list), n)
	}
	for i, x := range list {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %v at index %d", ErrInvalidValue, x, i)
		}
	}
	return nil
}

// Result is what a Participant knows at the end of a
// sort.
type Result struct {
	// RunID is set by Run.
	RunID string

	Rank int

	// LocalSize is the length of this node's sorted
	// bucket.
	LocalSize int

	// Conservation is computed collectively, so every
	// node has it.
	Conservation Conservation

	// Sorted, Verification and BucketSizes are only set
	// on the Coordinator.
	Sorted       []float64
	Verification Verification
	BucketSizes  []int

	// Elapsed is the virtual time the run took. It is set
	// by Run.
	Elapsed float64

	// Traffic and Messages count the bytes and messages
	// sent over each link, indexed by rank. They are set
	// by Run.
	Traffic  *simulator.ConnMat
	Messages *simulator.ConnMat
}

// Network kinds understood by NewNetwork.
const (
	NetworkSwitched = "switched"
	NetworkRandom   = "random"
	NetworkOrdered  = "ordered"
)

// Config describes a complete sorting run.
type Config struct {
	// Participants is the number of nodes, including the
	// Coordinator.
	Participants int

	// Network is one of NetworkSwitched (the default),
	// NetworkRandom or NetworkOrdered.
	Network string

	// Latency is the per-message latency, in virtual
	// seconds. For NetworkRandom and NetworkOrdered it is
	// the maximum of a random latency.
	Latency float64

	// Rate is the per-node bandwidth, in bytes per
	// virtual second. Defaults to 1e9.
	Rate float64

	// Seed seeds every random choice the simulation
	// makes: network latencies, random pivots and the
	// order of simultaneous events. Runs with the same
	// Config and list take the same virtual time.
	Seed int64

	Pivot           Pivot
	SimulateCompute bool

	// Logger, if non-nil, receives per-phase log lines
	// tagged with the run's ID.
	Logger *log.Logger

	// OnPhase is passed to every Participant.
	OnPhase func(rank int, phase Phase)
}

// Validate checks the parts of c that do not depend on
// the list.
func (c Config) Validate() error {
	if c.Participants <= 0 {
		return fmt.Errorf("%w: participants=%d", ErrInvalidSize, c.Participants)
	}
	switch c.Network {
	case "", NetworkSwitched, NetworkRandom, NetworkOrdered:
	default:
		return fmt.Errorf("%w: unknown network kind %q", ErrInvalidConfig, c.Network)
	}
	if !finiteNonNegative(c.Latency) {
		return fmt.Errorf("%w: latency %v", ErrInvalidConfig, c.Latency)
	}
	if !finiteNonNegative(c.Rate) {
		return fmt.Errorf("%w: rate %v", ErrInvalidConfig, c.Rate)
	}
	if !c.Pivot.Valid() {
		return fmt.Errorf("%w: pivot %v", ErrInvalidConfig, c.Pivot)
	}
	return nil
}

func finiteNonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}

// NewNetwork creates the network described by kind over
// nodes.
func NewNetwork(kind string, nodes []*simulator.Node, latency, rate float64) (simulator.Network, error) {
	if rate == 0 {
		rate = 1e9
	}
	switch kind {
	case NetworkSwitched, "":
		switcher := simulator.NewGreedyDropSwitcher(len(nodes), rate)
		return simulator.NewSwitcherNetwork(switcher, nodes, latency), nil
	case NetworkRandom:
		return simulator.RandomNetwork{MaxLatency: latency}, nil
	case NetworkOrdered:
		return simulator.NewOrderedNetwork(rate, latency), nil
	}
	return nil, fmt.Errorf("%w: unknown network kind %q", ErrInvalidConfig, kind)
}

// Run sorts list on a freshly simulated network and
// returns the Coordinator's Result.
//
// The configuration and list are checked, with
// Config.Validate, CheckSize and CheckList, before any
// node starts. If the nodes deadlock, the returned error wraps
// both ErrStalled and the *simulator.DeadlockError.
func Run(cfg Config, list []float64) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := len(list)
	if err := CheckSize(n, cfg.Participants); err != nil {
		return nil, err
	}
	if err := CheckList(n, list); err != nil {
		return nil, err
	}

	loop := simulator.NewSeededEventLoop(cfg.Seed)
	nodes := make([]*simulator.Node, cfg.Participants)
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}
	inner, err := NewNetwork(cfg.Network, nodes, cfg.Latency, cfg.Rate)
	if err != nil {
		return nil, err
	}
	network := simulator.NewMeteredNetwork(inner, nodes)

	runID := uuid.NewString()
	participant := &Participant{
		Pivot:           cfg.Pivot,
		SimulateCompute: cfg.SimulateCompute,
		OnPhase:         cfg.OnPhase,
	}
	if cfg.Logger != nil {
		participant.Logger = log.New(cfg.Logger.Writer(),
			fmt.Sprintf("%s[%s] ", cfg.Logger.Prefix(), runID[:8]), cfg.Logger.Flags())
		participant.Logger.Printf("sorting %d values on %d participants over %q network",
			n, cfg.Participants, cfg.Network)
	}

	results := make([]*Result, cfg.Participants)
	errs := make([]error, cfg.Participants)
	collcomm.SpawnComms(loop, network, nodes, func(c *collcomm.Comms) {
		var input []float64
		if c.Index() == Coordinator {
			input = list
		}
		results[c.Index()], errs[c.Index()] = participant.Sort(c, n, input)
	})
	if err := loop.Run(); err != nil {
		return nil, stalled(err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	res := results[Coordinator]
	res.RunID = runID
	res.Elapsed = loop.Time()
	res.Traffic = network.Bytes()
	res.Messages = network.Messages()
	return res, nil
}

func stalled(err error) error {
	return fmt.Errorf("%w: %w", ErrStalled, err)
}
