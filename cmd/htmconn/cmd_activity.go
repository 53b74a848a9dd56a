package main

import (
	"fmt"

	"github.com/htm-community/connections"
	"github.com/htm-community/connections/sdr"
	"github.com/htm-community/connections/utils"
	"github.com/spf13/cobra"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity <file>",
		Short: "Score an active input against every segment of a saved graph",
		Long: `Score an active input against every segment of a saved graph.

Prints one line per segment with a non-zero overlap. With --strict, input
cells the graph has never seen are an error instead of being ignored.

Examples:
  htmconn activity graph.htmc --input 0-9,15
  htmconn activity graph.htmc --input 0-4 --learn --workers 4
  htmconn activity graph.htmc --input 0-9 --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputStr, _ := cmd.Flags().GetString("input")
			learn, _ := cmd.Flags().GetBool("learn")
			workers, _ := cmd.Flags().GetInt("workers")
			strict, _ := cmd.Flags().GetBool("strict")

			input, err := sdr.Parse(inputStr)
			if err != nil {
				return fmt.Errorf("invalid --input: %w", err)
			}
			c, err := loadGraph(cmd, args[0], connections.WithWorkers(workers))
			if err != nil {
				return err
			}
			if strict {
				if err := input.ValidateSize(uint32(c.UniverseSize())); err != nil {
					return fmt.Errorf("invalid --input: %w", err)
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "input %s (%d cells)\n", input, input.Len())

			o, err := c.ComputeActivityParallel(cmd.Context(), input, learn, workers)
			if err != nil {
				return err
			}
			printOverlaps(cmd, c, o)
			return nil
		},
	}
	cmd.Flags().String("input", "", "Active presynaptic cells, e.g. 0-9,15")
	cmd.Flags().Bool("learn", false, "Also count potential (unconnected) synapses")
	cmd.Flags().Int("workers", 1, "Goroutines used to score the input")
	cmd.Flags().Bool("strict", false, "Reject input cells beyond the graph's presynaptic universe")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func printOverlaps(cmd *cobra.Command, c *connections.Connections, o connections.Overlaps) {
	out := cmd.OutOrStdout()
	defer fmt.Fprintf(cmd.ErrOrStderr(), "%d segments overlap, %d connected synapses active\n",
		utils.CountNonZero(o.Connected), utils.SumSliceInt(o.Connected))
	for seg, n := range o.Connected {
		potential := 0
		if o.Potential != nil {
			potential = o.Potential[seg]
		}
		if n == 0 && potential == 0 {
			continue
		}
		cell, err := c.CellForSegment(connections.Segment(seg))
		if err != nil {
			continue
		}
		if o.Potential != nil {
			fmt.Fprintf(out, "segment %d cell %d connected %d potential %d\n", seg, cell, n, potential)
		} else {
			fmt.Fprintf(out, "segment %d cell %d connected %d\n", seg, cell, n)
		}
	}
}
