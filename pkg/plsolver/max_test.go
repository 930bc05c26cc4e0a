package plsolver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaxSatisfied(t *testing.T) {
	trail := NewTrail()
	m := NewMax(trail, 0, []int{1, 2, 3})
	require.True(t, m.Satisfied([]float64{5, 1, 5, 2}))
	require.False(t, m.Satisfied([]float64{4, 1, 5, 2}))
}

func TestMaxPhaseFixesWhenOneInputDominates(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 4)
	m := NewMax(trail, 0, []int{1, 2, 3})

	bm.TightenLower(1, 10)
	bm.TightenUpper(2, 5)
	bm.TightenUpper(3, 5)
	m.NotifyLowerBound(bm, 1, 10)

	require.True(t, m.PhaseFixed())
	require.Equal(t, Phase(1), m.Phase())
}

func TestMaxEliminatedInputNeverMarkedInfeasible(t *testing.T) {
	trail := NewTrail()
	m := NewMax(trail, 0, []int{1, 2})
	m.Eliminate(0, 7)
	m.MarkInfeasible(Phase(1))
	require.False(t, m.isInfeasible(Phase(1)), "an eliminated input's phase must never be marked infeasible")

	m.MarkInfeasible(Phase(2))
	require.True(t, m.isInfeasible(Phase(2)))
}

func TestMaxCostComponent(t *testing.T) {
	trail := NewTrail()
	m := NewMax(trail, 0, []int{1, 2})
	expr := NewLinearExpr()
	m.CostComponent(expr, Phase(2))
	// phase 2 -> F - Inputs[1] == x0 - x2
	require.Equal(t, 5.0, expr.Evaluate([]float64{8, 0, 3, 0, 0}))
}

func TestMaxSerializeRoundTrip(t *testing.T) {
	trail := NewTrail()
	m := NewMax(trail, 0, []int{1, 2})
	m.Eliminate(1, 9)
	line := m.Serialize()

	parsed, err := ParseConstraintLine(NewTrail(), strings.Split(line, ","))
	require.NoError(t, err)
	got := parsed.(*Max)
	require.Equal(t, 0, got.F)
	require.Equal(t, []int{1, 2}, got.Inputs)
	require.Equal(t, 9.0, got.eliminated[1])
}
