package connections

import (
	"github.com/skelterjohn/go.matrix"
)

/*
Deep copy of the graph. The copy shares the logger and options but no event
subscriptions. Clone from the goroutine that mutates the graph; the copy can
then be read elsewhere.
*/
func (c *Connections) Clone() *Connections {
	clone := &Connections{
		numCells:           c.numCells,
		connectedThreshold: c.connectedThreshold,
		cells:              make([]cellData, len(c.cells)),
		segments:           make([]segmentRecord, len(c.segments)),
		destroyedSegments:  append([]Segment(nil), c.destroyedSegments...),
		synapses:           append([]synapseRecord(nil), c.synapses...),
		destroyedSynapses:  append([]Synapse(nil), c.destroyedSynapses...),
		nextSegmentOrdinal: c.nextSegmentOrdinal,
		nextSynapseOrdinal: c.nextSynapseOrdinal,
		clock:              c.clock,
		numSynapses:        c.numSynapses,
		logger:             c.logger,
		compression:        c.compression,
		workers:            c.workers,
	}
	for i := range c.cells {
		clone.cells[i].segments = append([]Segment(nil), c.cells[i].segments...)
	}
	for i := range c.segments {
		clone.segments[i] = c.segments[i]
		clone.segments[i].Synapses = append([]Synapse(nil), c.segments[i].Synapses...)
	}
	clone.index = presynapticIndex{
		connectedSynapses: cloneLists(c.index.connectedSynapses),
		connectedSegments: cloneLists(c.index.connectedSegments),
		potentialSynapses: cloneLists(c.index.potentialSynapses),
		potentialSegments: cloneLists(c.index.potentialSegments),
	}
	return clone
}

func cloneLists[T any](lists [][]T) [][]T {
	result := make([][]T, len(lists))
	for i, l := range lists {
		if len(l) > 0 {
			result[i] = append([]T(nil), l...)
		}
	}
	return result
}

/*
Reports whether two graphs are functionally equal: same cell count and
threshold, and for every cell the same segments in order holding the same
synapses in order, with equal presynaptic cells and permanences. Raw ids and
recency are not compared.
*/
func (c *Connections) Equal(other *Connections) bool {
	if other == nil {
		return false
	}
	if c.numCells != other.numCells ||
		c.connectedThreshold != other.connectedThreshold ||
		c.numSynapses != other.numSynapses ||
		c.NumSegments() != other.NumSegments() {
		return false
	}
	for cell := range c.cells {
		segs, otherSegs := c.cells[cell].segments, other.cells[cell].segments
		if len(segs) != len(otherSegs) {
			return false
		}
		for i := range segs {
			syns := c.segments[segs[i]].Synapses
			otherSyns := other.segments[otherSegs[i]].Synapses
			if len(syns) != len(otherSyns) {
				return false
			}
			for j := range syns {
				a, b := &c.synapses[syns[j]], &other.synapses[otherSyns[j]]
				if a.PresynapticCell != b.PresynapticCell || a.Permanence != b.Permanence {
					return false
				}
			}
		}
	}
	return true
}

/*
Segment by presynaptic cell matrix of permanences, SegmentFlatListLength()
rows and UniverseSize() columns. Synapses of one segment that share a
presynaptic cell are summed.
*/
func (c *Connections) PermanenceMatrix() *matrix.SparseMatrix {
	m := matrix.ZerosSparse(len(c.segments), c.index.Size())
	for i := range c.synapses {
		syn := &c.synapses[i]
		if !syn.alive {
			continue
		}
		row, col := int(syn.Segment), int(syn.PresynapticCell)
		m.Set(row, col, m.Get(row, col)+syn.Permanence)
	}
	return m
}
