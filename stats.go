package connections

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cznic/mathutil"
	"github.com/gonum/floats"
)

// Stats summarizes the shape of a graph.
type Stats struct {
	NumCells     int
	UniverseSize int
	NumSegments  int
	NumSynapses  int

	SegmentsPerCellMin  int
	SegmentsPerCellMean float64
	SegmentsPerCellMax  int

	//synapses per segment
	PotentialMin  int
	PotentialMean float64
	PotentialMax  int
	ConnectedMin  int
	ConnectedMean float64
	ConnectedMax  int

	//Fractions of synapses at 0.0 and 1.0
	DeadFraction      float64
	SaturatedFraction float64

	PermanenceMin  float64
	PermanenceMean float64
	PermanenceMax  float64

	//histograms: value -> number of cells / segments / synapses
	DistSegmentsPerCell map[int]int
	DistSegmentSizes    map[int]int
	//permanences bucketed by tenths, 10 holds 1.0
	DistPermanences map[int]int
}

//Computes Stats in one pass over cells and live segments.
func (c *Connections) Stats() Stats {
	s := Stats{
		NumCells:            int(c.numCells),
		UniverseSize:        c.index.Size(),
		NumSegments:         c.NumSegments(),
		NumSynapses:         c.numSynapses,
		DistSegmentsPerCell: make(map[int]int),
		DistSegmentSizes:    make(map[int]int),
		DistPermanences:     make(map[int]int),
	}

	s.SegmentsPerCellMin = mathutil.MaxInt
	for i := range c.cells {
		n := len(c.cells[i].segments)
		s.SegmentsPerCellMin = mathutil.Min(s.SegmentsPerCellMin, n)
		s.SegmentsPerCellMax = mathutil.Max(s.SegmentsPerCellMax, n)
		s.DistSegmentsPerCell[n]++
	}
	if len(c.cells) == 0 {
		s.SegmentsPerCellMin = 0
	} else {
		s.SegmentsPerCellMean = float64(s.NumSegments) / float64(len(c.cells))
	}

	perms := make([]float64, 0, c.numSynapses)
	s.PotentialMin, s.ConnectedMin = mathutil.MaxInt, mathutil.MaxInt
	for i := range c.segments {
		seg := &c.segments[i]
		if !seg.alive {
			continue
		}
		n := len(seg.Synapses)
		s.PotentialMin = mathutil.Min(s.PotentialMin, n)
		s.PotentialMax = mathutil.Max(s.PotentialMax, n)
		s.ConnectedMin = mathutil.Min(s.ConnectedMin, seg.NumConnected)
		s.ConnectedMax = mathutil.Max(s.ConnectedMax, seg.NumConnected)
		s.ConnectedMean += float64(seg.NumConnected)
		s.DistSegmentSizes[n]++

		for _, syn := range seg.Synapses {
			p := c.synapses[syn].Permanence
			perms = append(perms, p)
			s.DistPermanences[int(p*10)]++
			if p < Epsilon {
				s.DeadFraction++
			} else if p >= MaxPermanence-Epsilon {
				s.SaturatedFraction++
			}
		}
	}
	if s.NumSegments == 0 {
		s.PotentialMin, s.ConnectedMin = 0, 0
	} else {
		s.PotentialMean = float64(s.NumSynapses) / float64(s.NumSegments)
		s.ConnectedMean /= float64(s.NumSegments)
	}
	if len(perms) > 0 {
		s.DeadFraction /= float64(len(perms))
		s.SaturatedFraction /= float64(len(perms))
		s.PermanenceMin = floats.Min(perms)
		s.PermanenceMax = floats.Max(perms)
		s.PermanenceMean = floats.Sum(perms) / float64(len(perms))
	}
	return s
}

func (s Stats) String() string {
	var b strings.Builder
	b.WriteString("Connections:\n")
	fmt.Fprintf(&b, "    Inputs (%d) ~> Outputs (%d) via Segments (%d)\n", s.UniverseSize, s.NumCells, s.NumSegments)
	fmt.Fprintf(&b, "    Segments on Cell Min/Mean/Max %d / %.3f / %d\n",
		s.SegmentsPerCellMin, s.SegmentsPerCellMean, s.SegmentsPerCellMax)
	fmt.Fprintf(&b, "    Potential Synapses on Segment Min/Mean/Max %d / %.3f / %d\n",
		s.PotentialMin, s.PotentialMean, s.PotentialMax)
	fmt.Fprintf(&b, "    Connected Synapses on Segment Min/Mean/Max %d / %.3f / %d\n",
		s.ConnectedMin, s.ConnectedMean, s.ConnectedMax)
	fmt.Fprintf(&b, "    Synapses Dead (%.3f%%) Saturated (%.3f%%)\n",
		100*s.DeadFraction, 100*s.SaturatedFraction)
	fmt.Fprintf(&b, "    Permanence Min/Mean/Max %.3f / %.3f / %.3f\n",
		s.PermanenceMin, s.PermanenceMean, s.PermanenceMax)
	b.WriteString("    Segments per cell: " + formatDist(s.DistSegmentsPerCell) + "\n")
	b.WriteString("    Segment sizes: " + formatDist(s.DistSegmentSizes) + "\n")
	return b.String()
}

func formatDist(dist map[int]int) string {
	keys := make([]int, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%d:%d", k, dist[k])
	}
	return strings.Join(parts, " ")
}

//Prints the graph's Stats.
func (c *Connections) String() string {
	return c.Stats().String()
}
