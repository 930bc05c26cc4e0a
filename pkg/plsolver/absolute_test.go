package plsolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAbsSatisfied(t *testing.T) {
	trail := NewTrail()
	a := NewAbs(trail, 0, 1)
	require.True(t, a.Satisfied([]float64{-4, 4}))
	require.True(t, a.Satisfied([]float64{4, 4}))
	require.False(t, a.Satisfied([]float64{4, 3}))
}

func TestAbsPhaseFixingAndEntailment(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 4)
	a := NewAbs(trail, 0, 1)

	a.NotifyUpperBound(bm, 0, -2)
	require.Equal(t, AbsNegative, a.Phase())
	require.Equal(t, 2.0, bm.Lower(1))

	out := a.EntailedTightenings(nil)
	require.Equal(t, []Tightening{{Variable: 1, Value: 0, Kind: Lower}}, out)
}

func TestAbsSerializeRoundTrip(t *testing.T) {
	trail := NewTrail()
	a := NewAbs(trail, 1, 2)
	require.Equal(t, "absoluteValue,2,1", a.Serialize())

	parsed, err := ParseConstraintLine(NewTrail(), []string{"absoluteValue", "2", "1"})
	require.NoError(t, err)
	got := parsed.(*Abs)
	require.Equal(t, 1, got.B)
	require.Equal(t, 2, got.F)
}

func TestSignSatisfiedAndCaseSplits(t *testing.T) {
	trail := NewTrail()
	s := NewSign(trail, 0, 1)
	require.True(t, s.Satisfied([]float64{3, 1}))
	require.True(t, s.Satisfied([]float64{-3, -1}))
	require.False(t, s.Satisfied([]float64{3, -1}))

	splits := s.CaseSplits()
	require.Len(t, splits, 2)
}

func TestSignPhasePropagation(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	s := NewSign(trail, 0, 1)
	s.NotifyLowerBound(bm, 0, 0)
	require.Equal(t, SignPositive, s.Phase())
	require.Equal(t, 1.0, bm.Lower(1))
}

func TestClipSaturatesAtFloorAndCeiling(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	c := NewClip(trail, 0, 1, -1, 1)

	require.True(t, c.Satisfied([]float64{-5, -1}))
	require.True(t, c.Satisfied([]float64{5, 1}))
	require.True(t, c.Satisfied([]float64{0.5, 0.5}))
	require.False(t, c.Satisfied([]float64{5, 0.9}))

	c.NotifyLowerBound(bm, 0, 2) // b >= 2 > ceiling: fixes ceiling
	require.Equal(t, ClipCeiling, c.Phase())
	require.Equal(t, 1.0, bm.Lower(1))
	require.Equal(t, 1.0, bm.Upper(1))
}

func TestClipMiddlePropagatesLinearly(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	c := NewClip(trail, 0, 1, -1, 1)

	bm.TightenLower(0, -0.5)
	bm.TightenUpper(0, 0.5)
	c.NotifyLowerBound(bm, 0, -0.5)
	c.NotifyUpperBound(bm, 0, 0.5)

	require.Equal(t, ClipMiddle, c.Phase())
	require.Equal(t, -0.5, bm.Lower(1))
	require.Equal(t, 0.5, bm.Upper(1))
}

func TestClipSerializeRoundTrip(t *testing.T) {
	trail := NewTrail()
	c := NewClip(trail, 2, 3, -2, 6)
	line := c.Serialize()

	parsed, err := ParseConstraintLine(NewTrail(), strings.Split(line, ","))
	require.NoError(t, err)
	got := parsed.(*Clip)
	require.Equal(t, 2, got.B)
	require.Equal(t, 3, got.F)
	require.InDelta(t, -2.0, got.Floor, 1e-9)
	require.InDelta(t, 6.0, got.Ceiling, 1e-9)
}
