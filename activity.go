package connections

import (
	"context"

	"github.com/cznic/mathutil"
	"github.com/htm-community/connections/sdr"
	"github.com/htm-community/connections/utils"
	"golang.org/x/sync/errgroup"
)

/*
Overlaps holds per-segment activity counts, indexed by segment id. Slots of
destroyed segments read 0.
*/
type Overlaps struct {
	//Connected synapses whose presynaptic cell is active.
	Connected []int
	//All synapses whose presynaptic cell is active, connected or not. Only
	//computed in learning mode, nil otherwise.
	Potential []int
}

//Segments with at least threshold active connected synapses, in id order.
func (o Overlaps) ActiveSegments(threshold int) []Segment {
	return segmentsAtLeast(o.Connected, threshold)
}

//Segments with at least threshold active potential synapses, in id order.
//Nil when the overlaps were computed without learning.
func (o Overlaps) MatchingSegments(threshold int) []Segment {
	return segmentsAtLeast(o.Potential, threshold)
}

func segmentsAtLeast(counts []int, threshold int) []Segment {
	threshold = mathutil.Max(threshold, 1)
	var result []Segment
	for seg, n := range counts {
		if n >= threshold {
			result = append(result, Segment(seg))
		}
	}
	return result
}

func (c *Connections) newOverlaps(learn bool) Overlaps {
	o := Overlaps{Connected: make([]int, len(c.segments))}
	if learn {
		o.Potential = make([]int, len(c.segments))
	}
	return o
}

/*
Counts, for every segment, the synapses from active presynaptic cells.
activeInput must be strictly increasing. Indices at or beyond the universe
contribute nothing, no synapse can reference them yet.
*/
func (c *Connections) ComputeActivity(activeInput sdr.Sparse, learn bool) (Overlaps, error) {
	if err := activeInput.Validate(); err != nil {
		return Overlaps{}, err
	}
	o := c.newOverlaps(learn)
	c.accumulate(activeInput, o)
	return o, nil
}

func (c *Connections) accumulate(activeInput sdr.Sparse, o Overlaps) {
	size := c.index.Size()
	for _, cell := range activeInput {
		if int(cell) >= size {
			break
		}
		for _, seg := range c.index.connectedSegments[cell] {
			o.Connected[seg]++
		}
		if o.Potential == nil {
			continue
		}
		for _, seg := range c.index.connectedSegments[cell] {
			o.Potential[seg]++
		}
		for _, seg := range c.index.potentialSegments[cell] {
			o.Potential[seg]++
		}
	}
}

/*
Same result as ComputeActivity, computed by splitting activeInput into
chunks counted on up to workers goroutines and summed. workers < 1 uses the
graph's configured default. The graph must not be mutated meanwhile.
*/
func (c *Connections) ComputeActivityParallel(ctx context.Context, activeInput sdr.Sparse, learn bool, workers int) (Overlaps, error) {
	if err := activeInput.Validate(); err != nil {
		return Overlaps{}, err
	}
	if workers < 1 {
		workers = c.workers
	}
	if workers == 1 || len(activeInput) < 2 {
		if err := ctx.Err(); err != nil {
			return Overlaps{}, err
		}
		o := c.newOverlaps(learn)
		c.accumulate(activeInput, o)
		return o, nil
	}

	chunkSize := mathutil.Max(1, (len(activeInput)+workers-1)/workers)
	numChunks := (len(activeInput) + chunkSize - 1) / chunkSize
	partials := make([]Overlaps, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < numChunks; i++ {
		i := i
		lo := i * chunkSize
		hi := mathutil.Min(lo+chunkSize, len(activeInput))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o := c.newOverlaps(learn)
			c.accumulate(activeInput[lo:hi], o)
			partials[i] = o
			c.trace("activity chunk done", "chunk", i, "from", lo, "to", hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Overlaps{}, err
	}

	result := partials[0]
	for _, p := range partials[1:] {
		utils.AddInts(result.Connected, p.Connected)
		if learn {
			utils.AddInts(result.Potential, p.Potential)
		}
	}
	return result, nil
}
