package connections

import (
	"fmt"
	"math"
	"sort"

	"github.com/cznic/mathutil"
	"github.com/gonum/floats"
	"github.com/htm-community/connections/sdr"
)

//Adds delta to every synapse on segment, clipping and pruning like
//AdaptSegment. The segment is never destroyed.
func (c *Connections) BumpSegment(segment Segment, delta Permanence) error {
	if err := c.validateSegment(segment); err != nil {
		return err
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("%w: delta %v", ErrInvalidPermanence, delta)
	}
	c.bumpSegment(segment, delta)
	return nil
}

func (c *Connections) bumpSegment(segment Segment, delta Permanence) {
	synapses := append([]Synapse(nil), c.segments[segment].Synapses...)
	for _, syn := range synapses {
		c.setPermanence(syn, clipPermanence(c.synapses[syn].Permanence+delta))
	}
}

//Permanences of the segment's synapses sorted descending.
func (c *Connections) permanencesDescending(segment Segment) []float64 {
	syns := c.segments[segment].Synapses
	perms := make([]float64, len(syns))
	for i, syn := range syns {
		perms[i] = c.synapses[syn].Permanence
	}
	inds := make([]int, len(perms))
	floats.Argsort(perms, inds)
	floats.Reverse(perms)
	return perms
}

/*
Ensures at least segmentThreshold synapses of segment are connected by
raising every permanence uniformly. A segment with fewer synapses than
segmentThreshold gets all of them connected.
*/
func (c *Connections) RaisePermanencesToThreshold(segment Segment, segmentThreshold int) error {
	if err := c.validateSegment(segment); err != nil {
		return err
	}
	if segmentThreshold < 0 {
		return fmt.Errorf("%w: segmentThreshold %d", ErrInvalidArgument, segmentThreshold)
	}
	seg := &c.segments[segment]
	if segmentThreshold == 0 || seg.NumConnected >= segmentThreshold || len(seg.Synapses) == 0 {
		return nil
	}

	n := mathutil.Min(segmentThreshold, len(seg.Synapses))
	perms := c.permanencesDescending(segment)
	increment := c.connectedThreshold - perms[n-1]
	if increment <= 0 {
		return nil
	}
	c.bumpSegment(segment, increment)
	return nil
}

/*
Shifts every permanence on segment uniformly so that the number of connected
synapses lands within [minimumSynapses, maximumSynapses], as far as the
segment's synapse count allows.
*/
func (c *Connections) SynapseCompetition(segment Segment, minimumSynapses, maximumSynapses int) error {
	if err := c.validateSegment(segment); err != nil {
		return err
	}
	if minimumSynapses < 0 || minimumSynapses > maximumSynapses {
		return fmt.Errorf("%w: minimum %d maximum %d", ErrInvalidArgument, minimumSynapses, maximumSynapses)
	}
	seg := &c.segments[segment]
	if len(seg.Synapses) == 0 {
		return nil
	}

	var n int
	switch {
	case seg.NumConnected < minimumSynapses:
		n = minimumSynapses
	case seg.NumConnected > maximumSynapses:
		n = maximumSynapses
	default:
		return nil
	}
	n = mathutil.Min(n, len(seg.Synapses))
	//the n'th strongest sits at n-1; n == 0 disconnects everything
	nth := mathutil.Max(n-1, 0)

	perms := c.permanencesDescending(segment)
	delta := c.connectedThreshold - perms[nth]
	if maximumSynapses == 0 {
		delta -= 2 * Epsilon
	}
	c.bumpSegment(segment, delta)
	return nil
}

/*
Destroys the nDestroy weakest synapses of segment whose presynaptic cell is
not in exclude. Ties go to the earliest created synapse.
*/
func (c *Connections) DestroyMinPermanenceSynapses(segment Segment, nDestroy int, exclude sdr.Sparse) error {
	if err := c.validateSegment(segment); err != nil {
		return err
	}
	if nDestroy < 0 {
		return fmt.Errorf("%w: nDestroy %d", ErrInvalidArgument, nDestroy)
	}
	if err := exclude.Validate(); err != nil {
		return err
	}

	excluded := exclude.Bitmap()
	var candidates []Synapse
	for _, syn := range c.segments[segment].Synapses {
		if !excluded.Contains(uint32(c.synapses[syn].PresynapticCell)) {
			candidates = append(candidates, syn)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return c.synapses[candidates[i]].Permanence < c.synapses[candidates[j]].Permanence
	})

	nDestroy = mathutil.Min(nDestroy, len(candidates))
	for _, syn := range candidates[:nDestroy] {
		c.destroySynapse(syn)
	}
	return nil
}
