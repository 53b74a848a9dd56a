package connections

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

const (
	binaryMagic   = 0x434d5448 // "HTMC"
	binaryVersion = 1
	headerSize    = 20
)

/*
Save writes the full graph state.
Format (little endian):
Magic (4 bytes)
Version (4 bytes)
Compression (4 bytes)
Checksum (4 bytes) - CRC32 of the uncompressed payload
PayloadLength (4 bytes) - length of the stored, possibly compressed, payload
Payload:

	NumCells (4) ConnectedThreshold (8, float bits) UniverseSize (4)
	NextSegmentOrdinal (8) NextSynapseOrdinal (8) Clock (8)
	NumSegmentSlots (4), per slot:
	  Alive (1) Cell (4) Ordinal (8) LastUsed (8) NumSynapses (4) Synapses (4 each)
	NumSynapseSlots (4), per slot:
	  Alive (1) Segment (4) PresynapticCell (4) Permanence (8, float bits) Ordinal (8)
	DestroyedSegments (4 + 4 each)
	DestroyedSynapses (4 + 4 each)
	per cell: NumSegments (4) Segments (4 each)

The presynaptic index is rebuilt on load.
*/
func (c *Connections) Save(w io.Writer) error {
	payload := c.encodePayload()
	checksum := crc32.ChecksumIEEE(payload)

	stored, codec, err := compressPayload(payload, c.compression)
	if err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	if len(payload) > maxPayloadSize || len(stored) > maxPayloadSize {
		return fmt.Errorf("%w: payload too large (%d bytes)", ErrInvalidArgument, len(payload))
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], binaryMagic)
	binary.LittleEndian.PutUint32(header[4:8], binaryVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(codec))
	binary.LittleEndian.PutUint32(header[12:16], checksum)
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(stored)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(stored); err != nil {
		return err
	}
	c.logger.Info("saved connections", "segments", c.NumSegments(), "synapses", c.numSynapses,
		"compression", codec.String(), "bytes", headerSize+len(stored))
	return nil
}

/*
Load reads a graph written by Save. Unless overridden by opts the loaded
graph keeps the codec it was saved with.
*/
func Load(r io.Reader, opts ...Option) (*Connections, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorrupt, err)
	}
	if magic := binary.LittleEndian.Uint32(header[0:4]); magic != binaryMagic {
		return nil, fmt.Errorf("%w: invalid magic %x", ErrCorrupt, magic)
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != binaryVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}
	codec := CompressionType(binary.LittleEndian.Uint32(header[8:12]))
	checksum := binary.LittleEndian.Uint32(header[12:16])
	length := binary.LittleEndian.Uint32(header[16:20])

	if length > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload length %d", ErrCorrupt, length)
	}
	//grows with the bytes actually read, not the declared length
	stored, err := io.ReadAll(io.LimitReader(r, int64(length)))
	if err != nil {
		return nil, fmt.Errorf("%w: read payload: %v", ErrCorrupt, err)
	}
	if len(stored) != int(length) {
		return nil, fmt.Errorf("%w: payload truncated at %d of %d bytes", ErrCorrupt, len(stored), length)
	}
	payload, err := decompressPayload(stored, codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if crc32.ChecksumIEEE(payload) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	o := defaultOptions()
	o.compression = codec
	for _, opt := range opts {
		opt(&o)
	}
	c, err := decodePayload(payload, o)
	if err != nil {
		return nil, err
	}
	c.logger.Info("loaded connections", "segments", c.NumSegments(), "synapses", c.numSynapses,
		"compression", codec.String())
	return c, nil
}

func (c *Connections) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces c's graph with the decoded one. The receiver's
// logger and worker settings are kept.
func (c *Connections) UnmarshalBinary(data []byte) error {
	logger, workers := c.logger, c.workers
	if logger == nil {
		logger = discardLogger()
	}
	loaded, err := Load(bytes.NewReader(data), WithLogger(logger), WithWorkers(workers))
	if err != nil {
		return err
	}
	*c = *loaded
	return nil
}

func (c *Connections) encodePayload() []byte {
	size := 48 + len(c.segments)*28 + len(c.synapses)*25 + c.numSynapses*4 + len(c.cells)*4
	pb := newPayloadBuffer(make([]byte, 0, size))

	pb.writeUint32(uint32(c.numCells))
	pb.writeUint64(math.Float64bits(c.connectedThreshold))
	pb.writeUint32(uint32(c.index.Size()))
	pb.writeUint64(c.nextSegmentOrdinal)
	pb.writeUint64(c.nextSynapseOrdinal)
	pb.writeUint64(c.clock)

	pb.writeUint32(uint32(len(c.segments)))
	for i := range c.segments {
		seg := &c.segments[i]
		pb.writeBool(seg.alive)
		pb.writeUint32(uint32(seg.Cell))
		pb.writeUint64(seg.ordinal)
		pb.writeUint64(seg.LastUsed)
		pb.writeUint32(uint32(len(seg.Synapses)))
		for _, syn := range seg.Synapses {
			pb.writeUint32(uint32(syn))
		}
	}

	pb.writeUint32(uint32(len(c.synapses)))
	for i := range c.synapses {
		syn := &c.synapses[i]
		pb.writeBool(syn.alive)
		pb.writeUint32(uint32(syn.Segment))
		pb.writeUint32(uint32(syn.PresynapticCell))
		pb.writeUint64(math.Float64bits(syn.Permanence))
		pb.writeUint64(syn.ordinal)
	}

	pb.writeUint32(uint32(len(c.destroyedSegments)))
	for _, seg := range c.destroyedSegments {
		pb.writeUint32(uint32(seg))
	}
	pb.writeUint32(uint32(len(c.destroyedSynapses)))
	for _, syn := range c.destroyedSynapses {
		pb.writeUint32(uint32(syn))
	}

	for i := range c.cells {
		segs := c.cells[i].segments
		pb.writeUint32(uint32(len(segs)))
		for _, seg := range segs {
			pb.writeUint32(uint32(seg))
		}
	}
	return pb.buf
}

func decodePayload(payload []byte, o options) (*Connections, error) {
	pb := newPayloadBuffer(payload)
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
	}

	numCells := CellIdx(pb.readUint32())
	threshold := math.Float64frombits(pb.readUint64())
	universe := int(pb.readUint32())
	if pb.err != nil {
		return nil, corrupt("%v", pb.err)
	}
	if !validPermanence(threshold) {
		return nil, corrupt("connected threshold %v", threshold)
	}
	if universe > MaxUniverseSize {
		return nil, corrupt("universe size %d exceeds %d", universe, MaxUniverseSize)
	}

	c := &Connections{
		numCells:           numCells,
		connectedThreshold: threshold,
		nextSegmentOrdinal: pb.readUint64(),
		nextSynapseOrdinal: pb.readUint64(),
		clock:              pb.readUint64(),
		logger:             o.logger,
		compression:        o.compression,
		workers:            o.workers,
	}

	numSegments := int(pb.readUint32())
	if numSegments > pb.remaining() {
		return nil, corrupt("segment count %d", numSegments)
	}
	c.segments = make([]segmentRecord, numSegments)
	for i := range c.segments {
		seg := &c.segments[i]
		seg.alive = pb.readBool()
		seg.Cell = CellIdx(pb.readUint32())
		seg.ordinal = pb.readUint64()
		seg.LastUsed = pb.readUint64()
		n := int(pb.readUint32())
		if pb.err != nil || n > pb.remaining() {
			return nil, corrupt("segment %d", i)
		}
		if n > 0 {
			seg.Synapses = make([]Synapse, n)
			for j := range seg.Synapses {
				seg.Synapses[j] = Synapse(pb.readUint32())
			}
		}
		if seg.alive && seg.Cell >= numCells {
			return nil, corrupt("segment %d on cell %d", i, seg.Cell)
		}
	}

	numSynapses := int(pb.readUint32())
	if numSynapses > pb.remaining() {
		return nil, corrupt("synapse count %d", numSynapses)
	}
	c.synapses = make([]synapseRecord, numSynapses)
	for i := range c.synapses {
		syn := &c.synapses[i]
		syn.alive = pb.readBool()
		syn.Segment = Segment(pb.readUint32())
		syn.PresynapticCell = CellIdx(pb.readUint32())
		syn.Permanence = math.Float64frombits(pb.readUint64())
		syn.ordinal = pb.readUint64()
		if pb.err != nil {
			return nil, corrupt("synapse %d: %v", i, pb.err)
		}
		if !syn.alive {
			continue
		}
		if int(syn.Segment) >= numSegments || !c.segments[syn.Segment].alive {
			return nil, corrupt("synapse %d on segment %d", i, syn.Segment)
		}
		if int(syn.PresynapticCell) >= universe {
			return nil, corrupt("synapse %d presynaptic cell %d beyond universe %d", i, syn.PresynapticCell, universe)
		}
		if !validPermanence(syn.Permanence) {
			return nil, corrupt("synapse %d permanence %v", i, syn.Permanence)
		}
		c.numSynapses++
	}

	c.destroyedSegments = make([]Segment, pb.readUint32Len())
	for i := range c.destroyedSegments {
		c.destroyedSegments[i] = Segment(pb.readUint32())
	}
	c.destroyedSynapses = make([]Synapse, pb.readUint32Len())
	for i := range c.destroyedSynapses {
		c.destroyedSynapses[i] = Synapse(pb.readUint32())
	}

	if pb.err != nil || int(numCells)*4 > pb.remaining() {
		return nil, corrupt("cell lists truncated")
	}
	c.cells = make([]cellData, numCells)
	for i := range c.cells {
		n := pb.readUint32Len()
		if n > 0 {
			c.cells[i].segments = make([]Segment, n)
			for j := range c.cells[i].segments {
				c.cells[i].segments[j] = Segment(pb.readUint32())
			}
		}
	}
	if pb.err != nil {
		return nil, corrupt("%v", pb.err)
	}
	if pb.remaining() != 0 {
		return nil, corrupt("%d trailing bytes", pb.remaining())
	}

	if err := c.rebuildDerived(universe); err != nil {
		return nil, err
	}
	return c, nil
}

//Cross-checks the decoded lists and rebuilds per-segment connected counts
//and the presynaptic index.
func (c *Connections) rebuildDerived(universe int) error {
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrCorrupt}, args...)...)
	}

	for i := range c.segments {
		seg := &c.segments[i]
		if !seg.alive {
			if len(seg.Synapses) > 0 {
				return corrupt("destroyed segment %d owns synapses", i)
			}
			continue
		}
		if seg.ordinal >= c.nextSegmentOrdinal {
			return corrupt("segment %d ordinal %d not below %d", i, seg.ordinal, c.nextSegmentOrdinal)
		}
		for j, syn := range seg.Synapses {
			if int(syn) >= len(c.synapses) || !c.synapses[syn].alive || c.synapses[syn].Segment != Segment(i) {
				return corrupt("segment %d lists synapse %d", i, syn)
			}
			if c.synapses[syn].ordinal >= c.nextSynapseOrdinal {
				return corrupt("synapse %d ordinal %d not below %d", syn, c.synapses[syn].ordinal, c.nextSynapseOrdinal)
			}
			//lookups binary search by ordinal
			if j > 0 && c.synapses[seg.Synapses[j-1]].ordinal >= c.synapses[syn].ordinal {
				return corrupt("segment %d synapses out of creation order at %d", i, j)
			}
		}
	}
	listed := 0
	for cell := range c.cells {
		segs := c.cells[cell].segments
		for j, seg := range segs {
			if int(seg) >= len(c.segments) || !c.segments[seg].alive || c.segments[seg].Cell != CellIdx(cell) {
				return corrupt("cell %d lists segment %d", cell, seg)
			}
			if j > 0 && c.segments[segs[j-1]].ordinal >= c.segments[seg].ordinal {
				return corrupt("cell %d segments out of creation order at %d", cell, j)
			}
			listed++
		}
	}

	//every destroyed slot sits on its free list exactly once
	freeSegments := roaring.New()
	for _, seg := range c.destroyedSegments {
		if int(seg) >= len(c.segments) || c.segments[seg].alive || !freeSegments.CheckedAdd(uint32(seg)) {
			return corrupt("free list holds segment %d", seg)
		}
	}
	deadSegments := 0
	for i := range c.segments {
		if !c.segments[i].alive {
			deadSegments++
		}
	}
	if deadSegments != len(c.destroyedSegments) {
		return corrupt("%d destroyed segments, %d on the free list", deadSegments, len(c.destroyedSegments))
	}
	if listed != c.NumSegments() {
		return corrupt("%d segments listed on cells, %d live", listed, c.NumSegments())
	}

	freeSynapses := roaring.New()
	for _, syn := range c.destroyedSynapses {
		if int(syn) >= len(c.synapses) || c.synapses[syn].alive || !freeSynapses.CheckedAdd(uint32(syn)) {
			return corrupt("free list holds synapse %d", syn)
		}
	}
	if len(c.synapses)-c.numSynapses != len(c.destroyedSynapses) {
		return corrupt("%d destroyed synapses, %d on the free list", len(c.synapses)-c.numSynapses, len(c.destroyedSynapses))
	}

	c.index.Resize(universe)
	numListed := 0
	for i := range c.segments {
		seg := &c.segments[i]
		for _, syn := range seg.Synapses {
			if isConnected(c.synapses[syn].Permanence, c.connectedThreshold) {
				seg.NumConnected++
			}
			c.addToIndex(syn)
			numListed++
		}
	}
	if numListed != c.numSynapses {
		return corrupt("%d synapses listed on segments, %d live", numListed, c.numSynapses)
	}
	return nil
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) remaining() int {
	return len(p.buf) - p.pos
}

func (p *payloadBuffer) writeBool(v bool) {
	if v {
		p.buf = append(p.buf, 1)
	} else {
		p.buf = append(p.buf, 0)
	}
}

func (p *payloadBuffer) writeUint64(v uint64) {
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) readBool() bool {
	if p.err != nil {
		return false
	}
	if p.pos+1 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return false
	}
	v := p.buf[p.pos]
	p.pos++
	return v != 0
}

func (p *payloadBuffer) readUint64() uint64 {
	if p.err != nil {
		return 0
	}
	if p.pos+8 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if p.err != nil {
		return 0
	}
	if p.pos+4 > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

//Reads a list length, bounded by the bytes left so a corrupt count cannot
//trigger a huge allocation.
func (p *payloadBuffer) readUint32Len() int {
	n := int(p.readUint32())
	if p.err == nil && n*4 > p.remaining() {
		p.err = fmt.Errorf("list length %d exceeds payload", n)
		return 0
	}
	return n
}
