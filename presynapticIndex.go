package connections

/*
Reverse index from a presynaptic cell to the live synapses that reference it.
Every presynaptic cell has two lists: synapses currently connected and
synapses that are merely potential. Each list is paired with the owning
segment of each entry so the activity pass never touches the synapse arena.
*/
type presynapticIndex struct {
	connectedSynapses [][]Synapse
	connectedSegments [][]Segment
	potentialSynapses [][]Synapse
	potentialSegments [][]Segment
}

//Number of presynaptic cells the index can address.
func (pi *presynapticIndex) Size() int {
	return len(pi.connectedSynapses)
}

//Grows the index to address n presynaptic cells. Shrinking is not
//supported; returns true if the size changed.
func (pi *presynapticIndex) Resize(n int) bool {
	if n <= pi.Size() {
		return false
	}
	pi.connectedSynapses = growLists(pi.connectedSynapses, n)
	pi.connectedSegments = growLists(pi.connectedSegments, n)
	pi.potentialSynapses = growLists(pi.potentialSynapses, n)
	pi.potentialSegments = growLists(pi.potentialSegments, n)
	return true
}

func growLists[T any](lists [][]T, n int) [][]T {
	if cap(lists) >= n {
		return lists[:n]
	}
	grown := make([][]T, n, max(n, 2*cap(lists)))
	copy(grown, lists)
	return grown
}

func (pi *presynapticIndex) lists(connected bool) ([][]Synapse, [][]Segment) {
	if connected {
		return pi.connectedSynapses, pi.connectedSegments
	}
	return pi.potentialSynapses, pi.potentialSegments
}

//Appends a synapse and returns its position in the list.
func (pi *presynapticIndex) add(presyn CellIdx, syn Synapse, seg Segment, connected bool) int {
	syns, segs := pi.lists(connected)
	syns[presyn] = append(syns[presyn], syn)
	segs[presyn] = append(segs[presyn], seg)
	return len(syns[presyn]) - 1
}

//Swap-removes the entry at pos. When another synapse is moved into pos it is
//returned with moved=true so the caller can fix its stored position.
func (pi *presynapticIndex) remove(presyn CellIdx, pos int, connected bool) (Synapse, bool) {
	syns, segs := pi.lists(connected)
	last := len(syns[presyn]) - 1
	moved := syns[presyn][last]
	syns[presyn][pos] = moved
	segs[presyn][pos] = segs[presyn][last]
	syns[presyn] = syns[presyn][:last]
	segs[presyn] = segs[presyn][:last]
	return moved, pos != last
}

//Returns every synapse referencing presyn, connected ones first.
func (pi *presynapticIndex) synapsesFor(presyn CellIdx) []Synapse {
	if int(presyn) >= pi.Size() {
		return nil
	}
	conn, pot := pi.connectedSynapses[presyn], pi.potentialSynapses[presyn]
	if len(conn)+len(pot) == 0 {
		return nil
	}
	result := make([]Synapse, 0, len(conn)+len(pot))
	result = append(result, conn...)
	return append(result, pot...)
}

/* connections bookkeeping */

func (c *Connections) addToIndex(syn Synapse) {
	rec := &c.synapses[syn]
	rec.presynapticMapIndex = c.index.add(rec.PresynapticCell, syn, rec.Segment,
		isConnected(rec.Permanence, c.connectedThreshold))
}

func (c *Connections) removeFromIndex(syn Synapse) {
	rec := &c.synapses[syn]
	moved, ok := c.index.remove(rec.PresynapticCell, rec.presynapticMapIndex,
		isConnected(rec.Permanence, c.connectedThreshold))
	if ok {
		c.synapses[moved].presynapticMapIndex = rec.presynapticMapIndex
	}
}

//Grows the universe so that presyn is addressable.
func (c *Connections) ensureUniverse(presyn CellIdx) {
	if c.index.Resize(int(presyn) + 1) {
		c.logger.Debug("presynaptic universe grown", "size", c.index.Size())
	}
}
