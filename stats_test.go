package connections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats(t *testing.T) {
	c := newTestConnections(t, 4, 0.5)
	s0 := mustSegment(t, c, 0)
	s1 := mustSegment(t, c, 0)
	s2 := mustSegment(t, c, 2)
	mustSynapse(t, c, s0, 1, 1.0)
	mustSynapse(t, c, s0, 2, 0.5)
	mustSynapse(t, c, s0, 3, 0.0)
	mustSynapse(t, c, s1, 1, 0.25)
	mustSynapse(t, c, s2, 9, 0.75)

	s := c.Stats()
	assert.Equal(t, 4, s.NumCells)
	assert.Equal(t, 10, s.UniverseSize)
	assert.Equal(t, 3, s.NumSegments)
	assert.Equal(t, 5, s.NumSynapses)

	assert.Equal(t, 0, s.SegmentsPerCellMin)
	assert.Equal(t, 2, s.SegmentsPerCellMax)
	assert.InDelta(t, 0.75, s.SegmentsPerCellMean, 1e-9)

	assert.Equal(t, 1, s.PotentialMin)
	assert.Equal(t, 3, s.PotentialMax)
	assert.InDelta(t, 5.0/3, s.PotentialMean, 1e-9)
	assert.Equal(t, 0, s.ConnectedMin)
	assert.Equal(t, 2, s.ConnectedMax)
	assert.InDelta(t, 1.0, s.ConnectedMean, 1e-9)

	assert.InDelta(t, 0.2, s.DeadFraction, 1e-9)
	assert.InDelta(t, 0.2, s.SaturatedFraction, 1e-9)
	assert.Equal(t, 0.0, s.PermanenceMin)
	assert.Equal(t, 1.0, s.PermanenceMax)
	assert.InDelta(t, 0.5, s.PermanenceMean, 1e-9)

	assert.Equal(t, map[int]int{0: 2, 1: 1, 2: 1}, s.DistSegmentsPerCell)
	assert.Equal(t, map[int]int{1: 2, 3: 1}, s.DistSegmentSizes)
	assert.Equal(t, map[int]int{10: 1, 5: 1, 0: 1, 2: 1, 7: 1}, s.DistPermanences)

	out := c.String()
	assert.Contains(t, out, "Inputs (10) ~> Outputs (4) via Segments (3)")
	assert.Contains(t, out, "Segments on Cell Min/Mean/Max 0 / 0.750 / 2")
	assert.Contains(t, out, "Synapses Dead (20.000%) Saturated (20.000%)")
	assert.Contains(t, out, "Segment sizes: 1:2 3:1")
}

func TestStatsEmpty(t *testing.T) {
	c := newTestConnections(t, 3, 0.5)
	s := c.Stats()
	assert.Equal(t, 0, s.SegmentsPerCellMin)
	assert.Equal(t, 0, s.PotentialMin)
	assert.Equal(t, 0, s.ConnectedMin)
	assert.Equal(t, 0.0, s.PermanenceMean)
	assert.Equal(t, map[int]int{0: 3}, s.DistSegmentsPerCell)
	assert.NotPanics(t, func() { _ = c.String() })
}
