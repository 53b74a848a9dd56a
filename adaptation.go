package connections

import (
	"fmt"

	"github.com/htm-community/connections/sdr"
)

/*
Applies one learning step to segment. Synapses from active presynaptic cells
gain increment, all others lose decrement, and the result is clipped to
[0,1]. Synapses that fall below Epsilon are destroyed. If destroyWeakSegment
is set and the segment is left without synapses it is destroyed too;
otherwise its recency is refreshed from the adaptation clock.
*/
func (c *Connections) AdaptSegment(segment Segment, activeInput sdr.Sparse,
	increment, decrement Permanence, destroyWeakSegment bool) error {

	if err := c.validateSegment(segment); err != nil {
		return err
	}
	if err := activeInput.Validate(); err != nil {
		return err
	}
	if !validPermanence(increment) || !validPermanence(decrement) {
		return fmt.Errorf("%w: increment %v decrement %v", ErrInvalidPermanence, increment, decrement)
	}

	active := activeInput.Bitmap()
	c.clock++

	//iterate a copy, pruning edits the segment's list
	synapses := append([]Synapse(nil), c.segments[segment].Synapses...)
	for _, syn := range synapses {
		rec := &c.synapses[syn]
		perm := rec.Permanence
		if active.Contains(uint32(rec.PresynapticCell)) {
			perm += increment
		} else {
			perm -= decrement
		}
		c.setPermanence(syn, clipPermanence(perm))
	}

	seg := &c.segments[segment]
	if destroyWeakSegment && len(seg.Synapses) == 0 {
		c.logger.Debug("destroying weak segment", "segment", segment, "cell", seg.Cell)
		c.destroySegment(segment)
		return nil
	}
	seg.LastUsed = c.clock
	return nil
}
