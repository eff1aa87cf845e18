// Command run_bucketsort sorts a random list with a
// simulated group of nodes, or benchmarks the sort across
// network profiles.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/unixpickle/distsort/bucketsort"
	"github.com/urfave/cli/v2"
)

// maxDisplaySize is the largest list that gets printed.
const maxDisplaySize = 100

func main() {
	app := &cli.App{
		Name:  "run_bucketsort",
		Usage: "distributed bucket sort on a simulated network",
		Commands: []*cli.Command{
			sortCommand(),
			benchCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func sortCommand() *cli.Command {
	return &cli.Command{
		Name:  "sort",
		Usage: "sort one random list and check the result",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "n", Usage: "list size (must be divisible by -nodes)", Required: true},
			&cli.IntFlag{Name: "nodes", Usage: "number of participants", Value: 4},
			&cli.StringFlag{Name: "network", Usage: "switched, random or ordered", Value: bucketsort.NetworkSwitched},
			&cli.Float64Flag{Name: "latency", Usage: "message latency in virtual seconds", Value: 1e-4},
			&cli.Float64Flag{Name: "rate", Usage: "node bandwidth in bytes per virtual second", Value: 1e9},
			&cli.StringFlag{Name: "pivot", Usage: "median, first or random", Value: bucketsort.MedianOfThreePivot.String()},
			&cli.Int64Flag{Name: "seed", Usage: "random seed for the list and the simulation (default: current time)"},
			&cli.BoolFlag{Name: "compute", Usage: "charge virtual time for local computation"},
			&cli.BoolFlag{Name: "verbose", Usage: "log every phase"},
		},
		Action: runSort,
	}
}

func runSort(ctx *cli.Context) error {
	pivot, err := bucketsort.ParsePivot(ctx.String("pivot"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	cfg := bucketsort.Config{
		Participants:    ctx.Int("nodes"),
		Network:         ctx.String("network"),
		Latency:         ctx.Float64("latency"),
		Rate:            ctx.Float64("rate"),
		Pivot:           pivot,
		SimulateCompute: ctx.Bool("compute"),
	}
	if ctx.Bool("verbose") {
		cfg.Logger = log.New(os.Stderr, "bucketsort: ", log.Lmicroseconds)
	}

	n := ctx.Int("n")
	if n <= 0 {
		return cli.Exit(fmt.Sprintf("list size must be >0, got %d", n), 1)
	}
	seed := ctx.Int64("seed")
	if !ctx.IsSet("seed") {
		seed = time.Now().UnixNano()
	}
	cfg.Seed = seed
	list := randomList(rand.New(rand.NewSource(seed)), n)
	displayList(list)

	res, err := bucketsort.Run(cfg, list)
	if err != nil {
		return cli.Exit(err, 1)
	}

	displayList(res.Sorted)
	if res.Verification.Sorted {
		fmt.Println("List correctly sorted.")
	} else {
		fmt.Printf("List not sorted correctly (first violation at index %d).\n",
			res.Verification.FirstViolation)
	}
	if !res.Conservation.OK {
		fmt.Printf("Values were not conserved: %+v\n", res.Conservation)
	}
	fmt.Printf("Bucket sizes: %v\n", res.BucketSizes)
	fmt.Printf("Network traffic: %g bytes in %g messages\n",
		res.Traffic.Total(false), res.Messages.Total(false))
	fmt.Printf("Finished. Time taken: %g seconds\n", res.Elapsed)
	return nil
}

func randomList(gen *rand.Rand, n int) []float64 {
	list := make([]float64, n)
	for i := range list {
		list[i] = gen.Float64()
	}
	return list
}

func displayList(list []float64) {
	if len(list) > maxDisplaySize {
		fmt.Println("Not displaying full list - n too large.")
		return
	}
	fmt.Print("Full list:")
	for _, x := range list {
		fmt.Printf(" %g", x)
	}
	fmt.Println()
}
