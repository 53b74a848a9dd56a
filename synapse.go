package connections

import (
	"math"
)

//Index of a cell, either as a segment owner or as a presynaptic source.
type CellIdx uint32

//Arena id of a synapse. Ids of destroyed synapses are reused.
type Synapse uint32

type Permanence = float64

const (
	MinPermanence Permanence = 0.0
	MaxPermanence Permanence = 1.0
	//Tolerance for permanence comparisons. A permanence below Epsilon is
	//treated as zero and its synapse is destroyed.
	Epsilon Permanence = 1e-6
)

//Exclusive upper bound on presynaptic cell indices. The presynaptic index is
//dense, so its memory grows with the largest index seen, about 100 bytes per
//addressable cell.
const MaxUniverseSize = 1 << 22

//Public view of a synapse.
type SynapseData struct {
	PresynapticCell CellIdx
	Permanence      Permanence
	Segment         Segment
}

type synapseRecord struct {
	SynapseData
	ordinal uint64
	//position inside the presynaptic index list the synapse currently sits in
	presynapticMapIndex int
	alive               bool
}

func isConnected(perm, threshold Permanence) bool {
	return perm >= threshold-Epsilon
}

//Clips a permanence into [MinPermanence, MaxPermanence].
func clipPermanence(perm Permanence) Permanence {
	return math.Min(MaxPermanence, math.Max(MinPermanence, perm))
}
