package plsolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newSmtCoreFixture gives b a positive-polarity interval ([-1,5], centered
// on the positive side) so PerformSplit's polarity-ordered split tries
// Active first, matching the assertions below; -1 keeps the Active
// split's b >= 0 tightening a real (non-no-op) change.
func newSmtCoreFixture() (*Trail, *BoundManager, *SmtCore, []PLConstraint) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	bm.TightenLower(0, -1)
	bm.TightenUpper(0, 5)
	eqs := NewEquationPool(trail)
	r := NewRelu(trail, 0, 1)
	constraints := []PLConstraint{r}
	core := NewSmtCore(trail, bm, eqs, constraints, 5)
	return trail, bm, core, constraints
}

func TestPerformSplitAppliesFirstAlternative(t *testing.T) {
	trail, bm, core, constraints := newSmtCoreFixture()
	core.ReportRandomFlip()
	for i := 0; i < 5; i++ {
		core.ReportRandomFlip()
	}
	require.True(t, core.NeedToSplit())

	core.SetSplitConstraint(0)
	core.PerformSplit()

	require.False(t, constraints[0].Active())
	require.Equal(t, 1, core.Depth())
	require.Equal(t, 1, trail.Depth())
	require.Equal(t, 0.0, bm.Lower(0), "Active phase's first tightening (b >= 0) must be applied")
}

func TestPopSplitTriesNextAlternative(t *testing.T) {
	trail, bm, core, _ := newSmtCoreFixture()
	for i := 0; i <= 5; i++ {
		core.ReportRandomFlip()
	}
	core.SetSplitConstraint(0)
	core.PerformSplit()
	require.Equal(t, 0.0, bm.Lower(0))

	ok := core.PopSplit()
	require.True(t, ok)
	require.Equal(t, 1, trail.Depth(), "popping to the alternative should still be one level deep")
	require.Equal(t, 0.0, bm.Upper(0), "Inactive phase tightens b's upper bound to 0")
}

func TestPopSplitExhaustsToUnsat(t *testing.T) {
	_, _, core, _ := newSmtCoreFixture()
	for i := 0; i <= 5; i++ {
		core.ReportRandomFlip()
	}
	core.SetSplitConstraint(0)
	core.PerformSplit()

	require.True(t, core.PopSplit(), "first alternative (Inactive) remains")
	require.False(t, core.PopSplit(), "no alternatives left: tree exhausted")
	require.Equal(t, 0, core.Depth())
}

func TestRecordImpliedValidSplitRootVsFrame(t *testing.T) {
	_, _, core, _ := newSmtCoreFixture()
	split := CaseSplit{Tightenings: []Tightening{{Variable: 1, Value: 3, Kind: Lower}}}
	core.RecordImpliedValidSplit(split)
	require.Equal(t, []CaseSplit{split}, core.AllSplitsSoFar())

	for i := 0; i <= 5; i++ {
		core.ReportRandomFlip()
	}
	core.SetSplitConstraint(0)
	core.PerformSplit()
	core.RecordImpliedValidSplit(split)

	all := core.AllSplitsSoFar()
	require.Len(t, all, 3) // root implied + active split + frame implied
}
