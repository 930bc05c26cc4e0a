package plsolver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosineBoundsMonotonicWindow(t *testing.T) {
	trail := NewTrail()
	c := NewCosine(trail, 0, 1)
	lo, hi, phase := c.bounds(0.1, math.Pi/4)
	require.Equal(t, CosineMonotonic, phase)
	require.InDelta(t, math.Cos(math.Pi/4), lo, 1e-9)
	require.InDelta(t, math.Cos(0.1), hi, 1e-9)
}

func TestCosineBoundsContainingMax(t *testing.T) {
	trail := NewTrail()
	c := NewCosine(trail, 0, 1)
	lo, hi, phase := c.bounds(-0.1, 0.1)
	require.Equal(t, CosineContainsMax, phase)
	require.Equal(t, 1.0, hi)
	require.InDelta(t, math.Cos(0.1), lo, 1e-9)
}

func TestCosineBoundsContainingMin(t *testing.T) {
	trail := NewTrail()
	c := NewCosine(trail, 0, 1)
	lo, hi, phase := c.bounds(math.Pi-0.1, math.Pi+0.1)
	require.Equal(t, CosineContainsMin, phase)
	require.Equal(t, -1.0, lo)
	require.InDelta(t, math.Cos(math.Pi-0.1), hi, 1e-9)
}

func TestCosinePropagatesBoundsOnF(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	c := NewCosine(trail, 0, 1)
	bm.TightenLower(0, -0.1)
	bm.TightenUpper(0, 0.1)
	c.NotifyLowerBound(bm, 0, -0.1)

	require.Equal(t, 1.0, bm.Upper(1))
	require.True(t, bm.Lower(1) < 1.0)
}

func TestCosineNeverPhaseFixed(t *testing.T) {
	trail := NewTrail()
	c := NewCosine(trail, 0, 1)
	require.False(t, c.PhaseFixed())
	c.MarkInfeasible(CosineMonotonic) // no-op, must not panic or fix a phase
	require.False(t, c.PhaseFixed())
}

func TestCosineSatisfied(t *testing.T) {
	trail := NewTrail()
	c := NewCosine(trail, 0, 1)
	require.True(t, c.Satisfied([]float64{0, 1}))
	require.False(t, c.Satisfied([]float64{0, 0}))
}

func TestCosineRefineTangentLineTightensBound(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	c := NewCosine(trail, 0, 1)
	b0 := math.Pi - 0.1
	bm.TightenLower(0, math.Pi-0.3)
	bm.TightenUpper(0, math.Pi+0.1)
	bm.TightenLower(1, -2)
	bm.TightenUpper(1, 2)

	split, ok := c.Refine(bm, []float64{b0, -0.8})
	require.True(t, ok)
	require.Len(t, split.Tightenings, 1)
	tt := split.Tightenings[0]
	require.Equal(t, Lower, tt.Kind)
	require.Equal(t, 1, tt.Variable)
	require.InDelta(t, -1.0149708, tt.Value, 1e-6)
}

func TestCosineRefineNoOpWhenIntervalUnbounded(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	c := NewCosine(trail, 0, 1)
	_, ok := c.Refine(bm, []float64{0, 1})
	require.False(t, ok)
}

func TestCosineRefineNoOpAcrossConcavityChange(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	c := NewCosine(trail, 0, 1)
	bm.TightenLower(0, 0)
	bm.TightenUpper(0, math.Pi) // straddles pi/2
	bm.TightenLower(1, -2)
	bm.TightenUpper(1, 2)
	_, ok := c.Refine(bm, []float64{0.1, 0.9})
	require.False(t, ok)
}
