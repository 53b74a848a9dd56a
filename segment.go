package connections

import (
	"sort"
)

//Arena id of a segment. Ids of destroyed segments are reused.
type Segment uint32

// SegmentData is the public view of a segment: the dendritic branch owned by
//one cell and the synapses it holds, in creation order.
type SegmentData struct {
	Synapses     []Synapse
	NumConnected int
	Cell         CellIdx
	//Adaptation clock value of the last AdaptSegment call that touched the
	//segment. Zero if it was never adapted.
	LastUsed uint64
}

type segmentRecord struct {
	SegmentData
	ordinal uint64
	alive   bool
}

type cellData struct {
	segments []Segment
}

//Returns the segment that createSegment evicts from a full cell: the least
//recently adapted one, the oldest on ties.
func (c *Connections) leastRecentlyUsedSegment(cell CellIdx) Segment {
	segs := c.cells[cell].segments
	victim := segs[0]
	for _, seg := range segs[1:] {
		cand := &c.segments[seg]
		best := &c.segments[victim]
		if cand.LastUsed < best.LastUsed ||
			(cand.LastUsed == best.LastUsed && cand.ordinal < best.ordinal) {
			victim = seg
		}
	}
	return victim
}

//Locates a segment within its cell's creation-ordered list.
func (c *Connections) segmentPosition(segment Segment) int {
	ord := c.segments[segment].ordinal
	segs := c.cells[c.segments[segment].Cell].segments
	return sort.Search(len(segs), func(i int) bool {
		return c.segments[segs[i]].ordinal >= ord
	})
}

//Locates a synapse within its segment's creation-ordered list.
func (c *Connections) synapsePosition(synapse Synapse) int {
	ord := c.synapses[synapse].ordinal
	syns := c.segments[c.synapses[synapse].Segment].Synapses
	return sort.Search(len(syns), func(i int) bool {
		return c.synapses[syns[i]].ordinal >= ord
	})
}
