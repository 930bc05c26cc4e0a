package plsolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newSoIFixture() (*Trail, []PLConstraint, *SoIManager) {
	trail := NewTrail()
	r := NewRelu(trail, 0, 1)
	constraints := []PLConstraint{r}
	soi := NewSoIManager(constraints, 2, 4.0, 1)
	return trail, constraints, soi
}

func TestSoIInitializeSkipsFixedAndInactiveConstraints(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	active := NewRelu(trail, 0, 1)
	fixed := NewRelu(trail, 0, 1)
	fixed.NotifyLowerBound(bm, 0, 1) // forces ReluActive
	inactive := NewRelu(trail, 0, 1)
	inactive.Deactivate()

	soi := NewSoIManager([]PLConstraint{active, fixed, inactive}, 2, 4.0, 1)
	soi.Initialize(SoIInitCurrentAssignment, []float64{5, 5})

	pattern := soi.Pattern()
	require.Len(t, pattern, 1)
	_, ok := pattern[0]
	require.True(t, ok)
}

func TestSoIExprSumsCostComponents(t *testing.T) {
	_, _, soi := newSoIFixture()
	soi.Initialize(SoIInitCurrentAssignment, []float64{5, 5}) // b>=0 -> ReluActive phase in pattern
	expr := soi.SoIExpr()
	require.Equal(t, 0.0, expr.Evaluate([]float64{5, 5}), "f == b at the active phase: cost is 0")
}

func TestSoIProposeMCMCPicksAnAlternative(t *testing.T) {
	_, _, soi := newSoIFixture()
	soi.Initialize(SoIInitCurrentAssignment, []float64{5, 5})
	ok := soi.proposeMCMC()
	require.True(t, ok)
	c, has := soi.PendingConstraint()
	require.True(t, has)
	require.Equal(t, 0, c)
}

func TestSoICommitAndDiscardProposal(t *testing.T) {
	_, _, soi := newSoIFixture()
	soi.Initialize(SoIInitCurrentAssignment, []float64{5, 5})
	before := soi.Pattern()[0]
	soi.proposeMCMC()
	soi.DiscardProposal()
	require.Equal(t, before, soi.Pattern()[0], "discard must leave the pattern untouched")

	soi.proposeMCMC()
	soi.CommitProposal()
	require.NotEqual(t, before, soi.Pattern()[0], "commit must apply the proposed flip")
}

func TestSoIAcceptAlwaysTakesImprovingMoves(t *testing.T) {
	_, _, soi := newSoIFixture()
	require.True(t, soi.Accept(10, 5))
}

func TestSoIRemoveDropsFromPatternAndOrder(t *testing.T) {
	_, _, soi := newSoIFixture()
	soi.Initialize(SoIInitCurrentAssignment, []float64{5, 5})
	soi.Remove(0)
	require.Empty(t, soi.Pattern())
	require.False(t, soi.ProposeUpdate(SoISearchMCMC, []float64{5, 5}))
}
