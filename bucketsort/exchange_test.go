package bucketsort

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/distsort/collcomm"
	"github.com/unixpickle/distsort/simulator"
)

// spawnGroup runs f on every node of a fresh network and
// returns the loop's error.
func spawnGroup(numNodes int, kind string, f func(c *collcomm.Comms)) error {
	loop := simulator.NewEventLoop()
	nodes := make([]*simulator.Node, numNodes)
	for i := range nodes {
		nodes[i] = simulator.NewNode()
	}
	network, err := NewNetwork(kind, nodes, 0.01, 1e6)
	if err != nil {
		return err
	}
	collcomm.SpawnComms(loop, network, nodes, f)
	return loop.Run()
}

func TestExchange(t *testing.T) {
	for _, numNodes := range []int{1, 2, 5, 16} {
		numNodes := numNodes
		for _, kind := range []string{NetworkSwitched, NetworkRandom, NetworkOrdered} {
			kind := kind
			t.Run(fmt.Sprintf("Nodes=%d,Network=%s", numNodes, kind), func(t *testing.T) {
				segments := make([][]float64, numNodes)
				var all []float64
				for i := range segments {
					for j := 0; j < 50; j++ {
						segments[i] = append(segments[i], rand.Float64())
					}
					all = append(all, segments[i]...)
				}

				results := make([][]float64, numNodes)
				err := spawnGroup(numNodes, kind, func(c *collcomm.Comms) {
					outgoing := Classify(segments[c.Index()], c.Size())
					results[c.Index()] = Exchange(c, outgoing)
				})
				require.NoError(t, err)

				var gathered []float64
				for rank, result := range results {
					for _, x := range result {
						require.Equal(t, rank, BucketOf(x, numNodes), "value %f on rank %d", x, rank)
					}
					gathered = append(gathered, result...)
				}
				sort.Float64s(all)
				sort.Float64s(gathered)
				require.Equal(t, all, gathered)
			})
		}
	}
}

func TestExchangeScenario(t *testing.T) {
	segments := [][]float64{{0.9, 0.1, 0.8, 0.2}, {0.7, 0.3, 0.6, 0.4}}
	results := make([][]float64, 2)
	err := spawnGroup(2, NetworkSwitched, func(c *collcomm.Comms) {
		results[c.Index()] = Exchange(c, Classify(segments[c.Index()], 2))
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []float64{0.1, 0.2, 0.3, 0.4}, results[0])
	require.ElementsMatch(t, []float64{0.9, 0.8, 0.7, 0.6}, results[1])
}

// TestExchangeEmptyBuckets makes sure that ranks still
// hear from every peer when nothing is headed their way.
func TestExchangeEmptyBuckets(t *testing.T) {
	results := make([][]float64, 4)
	err := spawnGroup(4, NetworkRandom, func(c *collcomm.Comms) {
		// Everything lands in the last bucket.
		segment := []float64{0.95, 0.99, 1.0}
		results[c.Index()] = Exchange(c, Classify(segment, c.Size()))
	})
	require.NoError(t, err)
	for rank := 0; rank < 3; rank++ {
		require.Empty(t, results[rank])
	}
	require.Len(t, results[3], 12)
}

func TestExchangeMissingPeer(t *testing.T) {
	err := spawnGroup(3, NetworkSwitched, func(c *collcomm.Comms) {
		if c.Index() == 2 {
			// Never takes part.
			return
		}
		Exchange(c, Classify([]float64{0.1, 0.5, 0.9}, c.Size()))
	})
	var deadlock *simulator.DeadlockError
	require.ErrorAs(t, err, &deadlock)
	require.Equal(t, []string{"rank 0", "rank 1"}, deadlock.Blocked)
}
