// Package connections is a synaptic-graph engine for sequence memory: cells
// own segments, segments own weighted synapses to presynaptic cells. It
// scores a sparse input against every segment in time proportional to the
// input and applies the Hebbian permanence update with exact pruning.
//
// A Connections value is not safe for concurrent mutation.
package connections

import (
	"fmt"
	"log/slog"
	"math"
)

/*
 Structure holds data representing the connectivity of a layer of cells.
Segments and synapses live in growable arenas; destroyed slots go on a free
list and are handed out again by the next create.
*/
type Connections struct {
	numCells           CellIdx
	connectedThreshold Permanence

	cells             []cellData
	segments          []segmentRecord
	destroyedSegments []Segment
	synapses          []synapseRecord
	destroyedSynapses []Synapse
	index             presynapticIndex

	nextSegmentOrdinal uint64
	nextSynapseOrdinal uint64
	//bumped by every AdaptSegment, stamped into SegmentData.LastUsed
	clock uint64

	numSynapses int

	handlers  []subscription
	nextToken uint32

	logger      *slog.Logger
	compression CompressionType
	workers     int
}

//Creates an empty graph over numCells cells.
func NewConnections(numCells CellIdx, connectedThreshold Permanence, opts ...Option) (*Connections, error) {
	if !validPermanence(connectedThreshold) {
		return nil, fmt.Errorf("%w: connected threshold %v", ErrInvalidPermanence, connectedThreshold)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Connections{
		numCells:           numCells,
		connectedThreshold: connectedThreshold,
		cells:              make([]cellData, numCells),
		logger:             o.logger,
		compression:        o.compression,
		workers:            o.workers,
	}
	return c, nil
}

//Creates a graph from validated params. Options are applied after the
//params' own, so they take precedence.
func NewConnectionsFromParams(p *Params, opts ...Option) (*Connections, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return NewConnections(CellIdx(p.NumCells), p.ConnectedPermanence, append(p.Options(), opts...)...)
}

/* validation */

func (c *Connections) validateCell(cell CellIdx) error {
	if cell >= c.numCells {
		return fmt.Errorf("%w: %d (num cells %d)", ErrInvalidCell, cell, c.numCells)
	}
	return nil
}

func (c *Connections) validateSegment(segment Segment) error {
	if int(segment) >= len(c.segments) || !c.segments[segment].alive {
		return fmt.Errorf("%w: %d", ErrInvalidSegment, segment)
	}
	return nil
}

func (c *Connections) validateSynapse(synapse Synapse) error {
	if int(synapse) >= len(c.synapses) || !c.synapses[synapse].alive {
		return fmt.Errorf("%w: %d", ErrInvalidSynapse, synapse)
	}
	return nil
}

/* mutation */

/*
Adds a segment to cell. While the cell already holds maxSegmentsPerCell
segments the least recently adapted one is destroyed first, the oldest on
ties.
*/
func (c *Connections) CreateSegment(cell CellIdx, maxSegmentsPerCell int) (Segment, error) {
	if err := c.validateCell(cell); err != nil {
		return 0, err
	}
	if maxSegmentsPerCell <= 0 {
		return 0, fmt.Errorf("%w: maxSegmentsPerCell %d", ErrInvalidArgument, maxSegmentsPerCell)
	}

	for len(c.cells[cell].segments) >= maxSegmentsPerCell {
		victim := c.leastRecentlyUsedSegment(cell)
		c.logger.Debug("evicting segment", "cell", cell, "segment", victim,
			"lastUsed", c.segments[victim].LastUsed)
		c.destroySegment(victim)
	}

	var segment Segment
	if n := len(c.destroyedSegments); n > 0 {
		segment = c.destroyedSegments[n-1]
		c.destroyedSegments = c.destroyedSegments[:n-1]
	} else {
		segment = Segment(len(c.segments))
		c.segments = append(c.segments, segmentRecord{})
	}
	c.segments[segment] = segmentRecord{
		SegmentData: SegmentData{Cell: cell},
		ordinal:     c.nextSegmentOrdinal,
		alive:       true,
	}
	c.nextSegmentOrdinal++
	c.cells[cell].segments = append(c.cells[cell].segments, segment)

	for _, h := range c.handlers {
		h.handler.OnCreateSegment(segment)
	}
	return segment, nil
}

/*
Adds a synapse from presynapticCell to segment. The permanence is clipped to
[0,1]; a zero permanence is kept as is, creation never prunes.
presynapticCell must be below MaxUniverseSize; the universe grows to cover it.
*/
func (c *Connections) CreateSynapse(segment Segment, presynapticCell CellIdx, permanence Permanence) (Synapse, error) {
	if err := c.validateSegment(segment); err != nil {
		return 0, err
	}
	if math.IsNaN(permanence) {
		return 0, fmt.Errorf("%w: NaN", ErrInvalidPermanence)
	}
	if presynapticCell >= MaxUniverseSize {
		return 0, fmt.Errorf("%w: presynaptic cell %d (max %d)", ErrInvalidArgument, presynapticCell, MaxUniverseSize-1)
	}
	permanence = clipPermanence(permanence)
	c.ensureUniverse(presynapticCell)

	var synapse Synapse
	if n := len(c.destroyedSynapses); n > 0 {
		synapse = c.destroyedSynapses[n-1]
		c.destroyedSynapses = c.destroyedSynapses[:n-1]
	} else {
		synapse = Synapse(len(c.synapses))
		c.synapses = append(c.synapses, synapseRecord{})
	}
	c.synapses[synapse] = synapseRecord{
		SynapseData: SynapseData{
			PresynapticCell: presynapticCell,
			Permanence:      permanence,
			Segment:         segment,
		},
		ordinal: c.nextSynapseOrdinal,
		alive:   true,
	}
	c.nextSynapseOrdinal++

	seg := &c.segments[segment]
	seg.Synapses = append(seg.Synapses, synapse)
	if isConnected(permanence, c.connectedThreshold) {
		seg.NumConnected++
	}
	c.addToIndex(synapse)
	c.numSynapses++

	for _, h := range c.handlers {
		h.handler.OnCreateSynapse(synapse)
	}
	return synapse, nil
}

//Destroys a segment together with all of its synapses. Handlers see the
//segment first, then each synapse.
func (c *Connections) DestroySegment(segment Segment) error {
	if err := c.validateSegment(segment); err != nil {
		return err
	}
	c.destroySegment(segment)
	return nil
}

func (c *Connections) destroySegment(segment Segment) {
	for _, h := range c.handlers {
		h.handler.OnDestroySegment(segment)
	}

	//from the back, nothing shifts
	for n := len(c.segments[segment].Synapses); n > 0; n = len(c.segments[segment].Synapses) {
		c.destroySynapse(c.segments[segment].Synapses[n-1])
	}

	seg := &c.segments[segment]
	cell := &c.cells[seg.Cell]
	pos := c.segmentPosition(segment)
	cell.segments = append(cell.segments[:pos], cell.segments[pos+1:]...)

	seg.Synapses = nil
	seg.NumConnected = 0
	seg.alive = false
	c.destroyedSegments = append(c.destroyedSegments, segment)
}

func (c *Connections) DestroySynapse(synapse Synapse) error {
	if err := c.validateSynapse(synapse); err != nil {
		return err
	}
	c.destroySynapse(synapse)
	return nil
}

func (c *Connections) destroySynapse(synapse Synapse) {
	for _, h := range c.handlers {
		h.handler.OnDestroySynapse(synapse)
	}

	rec := &c.synapses[synapse]
	c.removeFromIndex(synapse)

	seg := &c.segments[rec.Segment]
	pos := c.synapsePosition(synapse)
	seg.Synapses = append(seg.Synapses[:pos], seg.Synapses[pos+1:]...)
	if isConnected(rec.Permanence, c.connectedThreshold) {
		seg.NumConnected--
	}

	rec.alive = false
	c.destroyedSynapses = append(c.destroyedSynapses, synapse)
	c.numSynapses--
}

/*
Sets a synapse's permanence. Values outside [0,1] are rejected; a value
below Epsilon destroys the synapse.
*/
func (c *Connections) UpdateSynapsePermanence(synapse Synapse, permanence Permanence) error {
	if err := c.validateSynapse(synapse); err != nil {
		return err
	}
	if !validPermanence(permanence) {
		return fmt.Errorf("%w: %v", ErrInvalidPermanence, permanence)
	}
	c.setPermanence(synapse, permanence)
	return nil
}

//Stores an already clipped permanence, moving the synapse between the
//connected and potential index lists when its state flips.
func (c *Connections) setPermanence(synapse Synapse, permanence Permanence) {
	if permanence < Epsilon {
		c.destroySynapse(synapse)
		return
	}
	rec := &c.synapses[synapse]
	if rec.Permanence == permanence {
		return
	}

	before := isConnected(rec.Permanence, c.connectedThreshold)
	after := isConnected(permanence, c.connectedThreshold)
	if before != after {
		c.removeFromIndex(synapse)
		rec.Permanence = permanence
		c.addToIndex(synapse)
		if after {
			c.segments[rec.Segment].NumConnected++
		} else {
			c.segments[rec.Segment].NumConnected--
		}
	} else {
		rec.Permanence = permanence
	}

	for _, h := range c.handlers {
		h.handler.OnUpdateSynapsePermanence(synapse, permanence)
	}
}

/* accessors */

//Returns the live segments of cell in creation order.
func (c *Connections) SegmentsForCell(cell CellIdx) ([]Segment, error) {
	if err := c.validateCell(cell); err != nil {
		return nil, err
	}
	return append([]Segment(nil), c.cells[cell].segments...), nil
}

//Returns the live synapses of segment in creation order.
func (c *Connections) SynapsesForSegment(segment Segment) ([]Synapse, error) {
	if err := c.validateSegment(segment); err != nil {
		return nil, err
	}
	return append([]Synapse(nil), c.segments[segment].Synapses...), nil
}

func (c *Connections) PermanenceForSynapse(synapse Synapse) (Permanence, error) {
	if err := c.validateSynapse(synapse); err != nil {
		return 0, err
	}
	return c.synapses[synapse].Permanence, nil
}

func (c *Connections) PresynapticCellForSynapse(synapse Synapse) (CellIdx, error) {
	if err := c.validateSynapse(synapse); err != nil {
		return 0, err
	}
	return c.synapses[synapse].PresynapticCell, nil
}

func (c *Connections) CellForSegment(segment Segment) (CellIdx, error) {
	if err := c.validateSegment(segment); err != nil {
		return 0, err
	}
	return c.segments[segment].Cell, nil
}

func (c *Connections) SegmentForSynapse(synapse Synapse) (Segment, error) {
	if err := c.validateSynapse(synapse); err != nil {
		return 0, err
	}
	return c.synapses[synapse].Segment, nil
}

//Position of segment among its cell's segments.
func (c *Connections) IdxOnCellForSegment(segment Segment) (int, error) {
	if err := c.validateSegment(segment); err != nil {
		return 0, err
	}
	return c.segmentPosition(segment), nil
}

//Returns the idx'th segment of cell.
func (c *Connections) GetSegment(cell CellIdx, idx int) (Segment, error) {
	if err := c.validateCell(cell); err != nil {
		return 0, err
	}
	segs := c.cells[cell].segments
	if idx < 0 || idx >= len(segs) {
		return 0, fmt.Errorf("%w: cell %d has no segment at %d", ErrInvalidSegment, cell, idx)
	}
	return segs[idx], nil
}

//Returns a copy of the segment's data.
func (c *Connections) DataForSegment(segment Segment) (SegmentData, error) {
	if err := c.validateSegment(segment); err != nil {
		return SegmentData{}, err
	}
	data := c.segments[segment].SegmentData
	data.Synapses = append([]Synapse(nil), data.Synapses...)
	return data, nil
}

func (c *Connections) DataForSynapse(synapse Synapse) (SynapseData, error) {
	if err := c.validateSynapse(synapse); err != nil {
		return SynapseData{}, err
	}
	return c.synapses[synapse].SynapseData, nil
}

//Returns every live synapse whose presynaptic cell is presyn.
func (c *Connections) SynapsesForPresynapticCell(presyn CellIdx) []Synapse {
	return c.index.synapsesFor(presyn)
}

//Maps each segment to its owning cell.
func (c *Connections) MapSegmentsToCells(segments []Segment) ([]CellIdx, error) {
	cells := make([]CellIdx, len(segments))
	for i, seg := range segments {
		if err := c.validateSegment(seg); err != nil {
			return nil, err
		}
		cells[i] = c.segments[seg].Cell
	}
	return cells, nil
}

/*
Orders live segments by owning cell, then by creation. Returns a negative
number if a sorts first, positive if b does, 0 if they are the same segment.
Suitable for slices.SortFunc.
*/
func (c *Connections) CompareSegments(a, b Segment) int {
	sa, sb := &c.segments[a], &c.segments[b]
	switch {
	case sa.Cell < sb.Cell:
		return -1
	case sa.Cell > sb.Cell:
		return 1
	case sa.ordinal < sb.ordinal:
		return -1
	case sa.ordinal > sb.ordinal:
		return 1
	}
	return 0
}

func (c *Connections) NumCells() CellIdx {
	return c.numCells
}

//Number of live segments.
func (c *Connections) NumSegments() int {
	return len(c.segments) - len(c.destroyedSegments)
}

func (c *Connections) NumSegmentsForCell(cell CellIdx) (int, error) {
	if err := c.validateCell(cell); err != nil {
		return 0, err
	}
	return len(c.cells[cell].segments), nil
}

//Number of live synapses.
func (c *Connections) NumSynapses() int {
	return c.numSynapses
}

func (c *Connections) NumSynapsesForSegment(segment Segment) (int, error) {
	if err := c.validateSegment(segment); err != nil {
		return 0, err
	}
	return len(c.segments[segment].Synapses), nil
}

//Number of synapses on segment at or above the connected threshold.
func (c *Connections) NumConnectedSynapses(segment Segment) (int, error) {
	if err := c.validateSegment(segment); err != nil {
		return 0, err
	}
	return c.segments[segment].NumConnected, nil
}

//Length of a slice indexed by segment id, counting destroyed slots.
func (c *Connections) SegmentFlatListLength() int {
	return len(c.segments)
}

//Number of presynaptic cells addressable by synapses, one past the largest
//presynaptic cell seen.
func (c *Connections) UniverseSize() int {
	return c.index.Size()
}

func (c *Connections) ConnectedThreshold() Permanence {
	return c.connectedThreshold
}
