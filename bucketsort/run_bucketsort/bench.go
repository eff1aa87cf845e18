package main

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/unixpickle/distsort/bucketsort"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// A Profile describes one network configuration to
// benchmark.
type Profile struct {
	NumNodes int     `toml:"nodes"`
	Network  string  `toml:"network"`
	Latency  float64 `toml:"latency"`
	Rate     float64 `toml:"rate"`
}

// BenchConfig is the layout of a -profiles file.
type BenchConfig struct {
	// Sizes are per-node list lengths; the total list
	// size is Size*NumNodes.
	Sizes    []int     `toml:"sizes"`
	Pivots   []string  `toml:"pivots"`
	Profiles []Profile `toml:"profile"`
}

// DefaultBenchConfig is used when no -profiles file is
// given.
func DefaultBenchConfig() *BenchConfig {
	return &BenchConfig{
		Sizes:  []int{10, 1000, 10000},
		Pivots: []string{"median", "first", "random"},
		Profiles: []Profile{
			{NumNodes: 2, Network: bucketsort.NetworkSwitched, Latency: 0.1, Rate: 1e6},
			{NumNodes: 16, Network: bucketsort.NetworkSwitched, Latency: 1e-3, Rate: 1e6},
			{NumNodes: 32, Network: bucketsort.NetworkSwitched, Latency: 0.1, Rate: 1e9},
			{NumNodes: 32, Network: bucketsort.NetworkSwitched, Latency: 1e-4, Rate: 1e9},
			{NumNodes: 16, Network: bucketsort.NetworkOrdered, Latency: 1e-3, Rate: 1e6},
		},
	}
}

func (p Profile) config() bucketsort.Config {
	return bucketsort.Config{
		Participants: p.NumNodes,
		Network:      p.Network,
		Latency:      p.Latency,
		Rate:         p.Rate,
	}
}

// LoadBenchConfig reads a TOML profiles file.
func LoadBenchConfig(path string) (*BenchConfig, error) {
	cfg := &BenchConfig{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	if len(cfg.Sizes) == 0 || len(cfg.Profiles) == 0 {
		return nil, fmt.Errorf("load profiles: %s needs at least one size and one profile", path)
	}
	if len(cfg.Pivots) == 0 {
		cfg.Pivots = []string{bucketsort.MedianOfThreePivot.String()}
	}
	for i, profile := range cfg.Profiles {
		if err := profile.config().Validate(); err != nil {
			return nil, fmt.Errorf("load profiles: profile %d: %w", i, err)
		}
	}
	return cfg, nil
}

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "print a markdown table of virtual sort times",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profiles", Usage: "TOML file of network profiles"},
			&cli.Int64Flag{Name: "seed", Usage: "random seed for the lists", Value: 1},
		},
		Action: func(ctx *cli.Context) error {
			cfg := DefaultBenchConfig()
			if path := ctx.String("profiles"); path != "" {
				var err error
				if cfg, err = LoadBenchConfig(path); err != nil {
					return cli.Exit(err, 1)
				}
			}
			rows, err := RunBench(cfg, ctx.Int64("seed"))
			if err != nil {
				return cli.Exit(err, 1)
			}
			printTable(cfg, rows)
			return nil
		},
	}
}

// A benchRow holds the virtual times of every pivot for
// one profile and size.
type benchRow struct {
	Profile Profile
	Size    int
	Times   []float64
}

// RunBench runs every profile, size and pivot. Rows are
// computed concurrently; each run has its own event loop
// seeded from seed, so the table is the same for the same
// seed.
func RunBench(cfg *BenchConfig, seed int64) ([]*benchRow, error) {
	pivots := make([]bucketsort.Pivot, len(cfg.Pivots))
	for i, name := range cfg.Pivots {
		var err error
		if pivots[i], err = bucketsort.ParsePivot(name); err != nil {
			return nil, err
		}
	}

	var rows []*benchRow
	for _, profile := range cfg.Profiles {
		for _, size := range cfg.Sizes {
			rows = append(rows, &benchRow{Profile: profile, Size: size, Times: make([]float64, len(pivots))})
		}
	}

	var g errgroup.Group
	for i, row := range rows {
		row := row
		rowSeed := seed + int64(i)
		g.Go(func() error {
			list := randomList(rand.New(rand.NewSource(rowSeed)), row.Size*row.Profile.NumNodes)
			for j, pivot := range pivots {
				cfg := row.Profile.config()
				cfg.Pivot = pivot
				cfg.SimulateCompute = true
				cfg.Seed = rowSeed
				res, err := bucketsort.Run(cfg, list)
				if err != nil {
					return fmt.Errorf("%d nodes, size %d: %w", row.Profile.NumNodes, row.Size, err)
				}
				if !res.Verification.Sorted {
					return fmt.Errorf("%d nodes, size %d: result not sorted", row.Profile.NumNodes, row.Size)
				}
				row.Times[j] = res.Elapsed
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func printTable(cfg *BenchConfig, rows []*benchRow) {
	fmt.Print("| Nodes | Network | Latency | NIC rate | Size ")
	for _, name := range cfg.Pivots {
		fmt.Printf("| %s ", name)
	}
	fmt.Println("|")
	for i := 0; i < 5+len(cfg.Pivots); i++ {
		fmt.Print("|:--")
	}
	fmt.Println("|")

	for _, row := range rows {
		fmt.Printf(
			"| %d | %s | %s | %s | %d ",
			row.Profile.NumNodes,
			row.Profile.Network,
			strconv.FormatFloat(row.Profile.Latency, 'f', -1, 64),
			strconv.FormatFloat(row.Profile.Rate, 'E', -1, 64),
			row.Size*row.Profile.NumNodes,
		)
		for _, t := range row.Times {
			fmt.Printf("| %f ", t)
		}
		fmt.Println("|")
	}
}
