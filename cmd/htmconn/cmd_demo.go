package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/cznic/mathutil"
	"github.com/htm-community/connections"
	"github.com/htm-community/connections/sdr"
	"github.com/spf13/cobra"
)

const (
	demoSegments = 40
	demoSynapses = 10
)

func demoParams() *connections.Params {
	p := connections.NewParams()
	p.NumCells = 4096
	p.ConnectedPermanence = 0.2
	p.MaxSegmentsPerCell = 1
	return p
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Grow, adapt and score a small graph",
		Long: `Grow, adapt and score a small graph.

Up to 40 random cells each get one segment with 10 synapses (permanence 0.1)
to presynaptic cells 0-9. Every segment is then reinforced on input 0-9 and
weakened outside input 0-4, and the graph is scored against both inputs.

Examples:
  htmconn demo
  htmconn demo --config params.yaml --out graph.htmc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			outPath, _ := cmd.Flags().GetString("out")
			seed, _ := cmd.Flags().GetInt64("seed")

			p := demoParams()
			if configPath != "" {
				var err error
				if p, err = connections.LoadParams(configPath); err != nil {
					return err
				}
			}

			c, err := connections.NewConnectionsFromParams(p, connections.WithLogger(loggerFor(cmd)))
			if err != nil {
				return err
			}
			if err := runDemo(cmd, c, p, seed); err != nil {
				return err
			}

			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outPath, err)
				}
				if err := c.Save(f); err != nil {
					f.Close()
					return fmt.Errorf("failed to save graph: %w", err)
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().String("config", "", "YAML params file")
	cmd.Flags().String("out", "", "Save the resulting graph to this file")
	cmd.Flags().Int64("seed", 42, "Seed for picking the cells")
	return cmd
}

func runDemo(cmd *cobra.Command, c *connections.Connections, p *connections.Params, seed int64) error {
	out := cmd.OutOrStdout()
	rnd := rand.New(rand.NewSource(seed))
	full, half := sdr.Range(0, demoSynapses), sdr.Range(0, demoSynapses/2)

	var segments []connections.Segment
	for _, cell := range rnd.Perm(p.NumCells)[:mathutil.Min(demoSegments, p.NumCells)] {
		seg, err := c.CreateSegment(connections.CellIdx(cell), p.MaxSegmentsPerCell)
		if err != nil {
			return err
		}
		for presyn := connections.CellIdx(0); presyn < demoSynapses; presyn++ {
			if _, err := c.CreateSynapse(seg, presyn, 0.1); err != nil {
				return err
			}
		}
		segments = append(segments, seg)
	}

	score := func(label string, input sdr.Sparse) error {
		o, err := c.ComputeActivityParallel(cmd.Context(), input, true, p.Workers)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: input %s, %d active segments, %d matching\n",
			label, input, len(o.ActiveSegments(1)), len(o.MatchingSegments(1)))
		return nil
	}

	if err := score("grown", full); err != nil {
		return err
	}
	for _, seg := range segments {
		if err := c.AdaptSegment(seg, full, p.PermanenceIncrement, 0, p.DestroyWeakSegments); err != nil {
			return err
		}
	}
	if err := score("reinforced", full); err != nil {
		return err
	}
	for _, seg := range segments {
		if err := c.AdaptSegment(seg, half, 0, p.PermanenceDecrement, p.DestroyWeakSegments); err != nil {
			return err
		}
	}
	if err := score("weakened", half); err != nil {
		return err
	}

	fmt.Fprint(out, c.String())
	return nil
}
