package plsolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func twoWayDisjunction(trail *Trail) *Disjunction {
	left := CaseSplit{Tightenings: []Tightening{{Variable: 0, Value: -1, Kind: Upper}}}
	right := CaseSplit{Tightenings: []Tightening{{Variable: 0, Value: 1, Kind: Lower}}}
	return NewDisjunction(trail, []CaseSplit{left, right})
}

func TestDisjunctionPhaseFixesWhenOneDisjunctSurvives(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 1)
	d := twoWayDisjunction(trail)

	bm.TightenLower(0, 0) // rules out the "x0 <= -1" disjunct
	d.NotifyLowerBound(bm, 0, 0)

	require.True(t, d.PhaseFixed())
	require.Equal(t, Phase(2), d.Phase())
}

func TestDisjunctionSatisfied(t *testing.T) {
	trail := NewTrail()
	d := twoWayDisjunction(trail)
	require.True(t, d.Satisfied([]float64{-2}))
	require.True(t, d.Satisfied([]float64{2}))
	require.False(t, d.Satisfied([]float64{0}))
}

func TestDisjunctionValidSplitAfterFixing(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 1)
	d := twoWayDisjunction(trail)
	bm.TightenLower(0, 0)
	d.NotifyLowerBound(bm, 0, 0)

	split := d.ValidSplit()
	require.Equal(t, d.Disjuncts[1], split)
}

func TestDisjunctionSerializeRoundTrip(t *testing.T) {
	trail := NewTrail()
	d := twoWayDisjunction(trail)
	line := d.Serialize()

	parsed, err := ParseConstraintLine(NewTrail(), strings.Split(line, ","))
	require.NoError(t, err)
	got := parsed.(*Disjunction)
	require.Equal(t, d.Disjuncts, got.Disjuncts)
}

func TestDisjunctionWithEquationsSerializeRoundTrip(t *testing.T) {
	trail := NewTrail()
	a := CaseSplit{Equations: []Equation{NewEquation(RelEQ, 3, Addend{1, 0}, Addend{-1, 1})}}
	b := CaseSplit{Tightenings: []Tightening{{Variable: 2, Value: 4, Kind: Lower}}}
	d := NewDisjunction(trail, []CaseSplit{a, b})
	line := d.Serialize()

	parsed, err := ParseConstraintLine(NewTrail(), strings.Split(line, ","))
	require.NoError(t, err)
	got := parsed.(*Disjunction)
	require.Equal(t, d.Disjuncts, got.Disjuncts)
}
