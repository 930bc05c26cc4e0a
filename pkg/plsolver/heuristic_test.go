package plsolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// A Sign constraint observing b=5, f=-5 starts its pattern at Positive
// (PhaseInAssignment follows b's sign alone) but Negative strictly lowers
// the SoI cost at this assignment (cost(Positive) = -f = 5 versus
// cost(Negative) = f = -5), giving Walksat a genuine descent to propose.
func newDescendableSignFixture() (*SoIManager, []float64) {
	trail := NewTrail()
	s := NewSign(trail, 0, 1)
	soi := NewSoIManager([]PLConstraint{s}, 2, 4.0, 1)
	assignment := []float64{5, -5}
	soi.Initialize(SoIInitCurrentAssignment, assignment)
	return soi, assignment
}

func TestHeuristicCostManagerWalksatDescentIsGuaranteed(t *testing.T) {
	soi, assignment := newDescendableSignFixture()
	cost := NewHeuristicCostManager(soi, SoISearchWalksat, SoIInitCurrentAssignment)
	proposed, guaranteed := cost.UpdateCost(assignment)
	require.True(t, proposed)
	require.True(t, guaranteed)
}

func TestHeuristicCostManagerMCMCDescentNotGuaranteed(t *testing.T) {
	soi, assignment := newDescendableSignFixture()
	cost := NewHeuristicCostManager(soi, SoISearchMCMC, SoIInitCurrentAssignment)
	_, guaranteed := cost.UpdateCost(assignment)
	require.False(t, guaranteed, "MCMC proposals are never reported as a guaranteed descent")
}

func TestHeuristicCostManagerUndoLastUpdate(t *testing.T) {
	soi, assignment := newDescendableSignFixture()
	cost := NewHeuristicCostManager(soi, SoISearchWalksat, SoIInitCurrentAssignment)
	before := soi.Pattern()[0]
	cost.UpdateCost(assignment)
	cost.UndoLastUpdate()
	require.Equal(t, before, soi.Pattern()[0])
}
