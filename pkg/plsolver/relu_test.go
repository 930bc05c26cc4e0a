package plsolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newReluFixture() (*Trail, *BoundManager, *Relu) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	r := NewRelu(trail, 0, 1)
	return trail, bm, r
}

func TestReluActivePhaseForcesEquality(t *testing.T) {
	_, bm, r := newReluFixture()
	r.NotifyLowerBound(bm, 0, 1) // b >= 1 implies active
	require.Equal(t, ReluActive, r.Phase())
	require.Equal(t, 1.0, bm.Lower(1), "active phase must propagate f >= b's lower bound")
}

func TestReluInactivePhaseForcesZero(t *testing.T) {
	_, bm, r := newReluFixture()
	r.NotifyUpperBound(bm, 0, -1) // b <= -1 implies inactive
	require.Equal(t, ReluInactive, r.Phase())
	require.Equal(t, 0.0, bm.Upper(1))
}

func TestReluSatisfied(t *testing.T) {
	_, _, r := newReluFixture()
	require.True(t, r.Satisfied([]float64{3, 3}))
	require.True(t, r.Satisfied([]float64{-1, 0}))
	require.False(t, r.Satisfied([]float64{3, 0}))
	require.False(t, r.Satisfied([]float64{-1, 2}))
}

func TestReluCaseSplitsOrderedByPolarity(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	r := NewRelu(trail, 0, 1)
	bm.TightenLower(0, 5)
	bm.TightenUpper(0, 10) // centered positive: polarity > 0

	ordered := r.OrderedCaseSplits(bm)
	require.Len(t, ordered, 2)
	require.Equal(t, r.CaseSplits()[0], ordered[0], "positive polarity tries Active first")
}

func TestReluValidSplitMatchesFixedPhase(t *testing.T) {
	_, bm, r := newReluFixture()
	r.NotifyLowerBound(bm, 0, 1)
	require.True(t, r.PhaseFixed())
	split := r.ValidSplit()
	require.Equal(t, r.CaseSplits()[0], split)
}

func TestReluSerializeRoundTrip(t *testing.T) {
	trail := NewTrail()
	r := NewRelu(trail, 3, 4)
	line := r.Serialize()
	require.Equal(t, "relu,4,3", line)

	parsed, err := ParseConstraintLine(NewTrail(), []string{"relu", "4", "3"})
	require.NoError(t, err)
	got := parsed.(*Relu)
	require.Equal(t, 3, got.B)
	require.Equal(t, 4, got.F)
	require.False(t, got.HasAux)
}

func TestReluWithAuxSerializeRoundTrip(t *testing.T) {
	trail := NewTrail()
	r := NewReluWithAux(trail, 3, 4, 5)
	line := r.Serialize()
	require.Equal(t, "relu,4,3,5", line)

	parsed, err := ParseConstraintLine(NewTrail(), []string{"relu", "4", "3", "5"})
	require.NoError(t, err)
	got := parsed.(*Relu)
	require.True(t, got.HasAux)
	require.Equal(t, 5, got.Aux)
}

func TestReluDuplicateIsIndependent(t *testing.T) {
	_, bm, r := newReluFixture()
	r.NotifyLowerBound(bm, 0, 1)
	clone := r.Duplicate().(*Relu)
	require.Equal(t, ReluActive, clone.Phase())

	// mutating the original's trail-backed state must not affect the clone
	r.Deactivate()
	require.False(t, r.Active())
	require.True(t, clone.Active())
	require.Equal(t, ReluActive, clone.Phase())
}
