package plsolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLargestIntervalDividerBisectsWidestVariable(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 2)
	bm.TightenLower(0, 0)
	bm.TightenUpper(0, 10)
	bm.TightenLower(1, 0)
	bm.TightenUpper(1, 2)

	children := LargestIntervalDivider{}.ChooseSplit(&overrideBounds{bm: bm}, nil, []int{0, 1})
	require.Len(t, children, 2)
	require.Equal(t, 0, children[0].Tightenings[0].Variable)
	require.Equal(t, 5.0, children[0].Tightenings[0].Value)
}

func TestLargestIntervalDividerReturnsNilWhenUnbounded(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 1)
	children := LargestIntervalDivider{}.ChooseSplit(&overrideBounds{bm: bm}, nil, []int{0})
	require.Nil(t, children)
}

func TestEarliestReLUDividerPicksFirstUnfixedRelu(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 4)
	bm.TightenLower(2, 1)
	bm.TightenUpper(2, 5) // positive polarity: ordered splits match the canonical order
	r1 := NewRelu(trail, 0, 1)
	r2 := NewRelu(trail, 2, 3)
	r1.Deactivate()
	constraints := []PLConstraint{r1, r2}

	children := EarliestReLUDivider{}.ChooseSplit(&overrideBounds{bm: bm}, constraints, nil)
	require.Equal(t, r2.CaseSplits(), children)
}

func TestPolarityDividerSkipsNonScoringConstraints(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 4)
	s := NewSign(trail, 0, 1)
	r := NewRelu(trail, 2, 3)
	bm.TightenLower(2, -1)
	bm.TightenUpper(2, 1) // polarity 0, smallest |score|
	constraints := []PLConstraint{s, r}

	children := PolarityDivider{K: 10}.ChooseSplit(&overrideBounds{bm: bm}, constraints, nil)
	require.Equal(t, r.OrderedCaseSplits(bm), children)
}

func TestGenerateSubQueriesProducesTwoToTheLevels(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 1)
	bm.TightenLower(0, 0)
	bm.TightenUpper(0, 8)

	subs := GenerateSubQueries(LargestIntervalDivider{}, bm, nil, []int{0}, 2, 1.0)
	require.Len(t, subs, 4)
	for i, sq := range subs {
		require.Equal(t, i, sq.ID)
		require.Equal(t, 1.0, sq.TimeoutSeconds)
	}
}

func TestGenerateSubQueriesDoesNotMutateSharedBoundManager(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 1)
	bm.TightenLower(0, 0)
	bm.TightenUpper(0, 8)

	_ = GenerateSubQueries(LargestIntervalDivider{}, bm, nil, []int{0}, 2, 1.0)
	require.Equal(t, 0.0, bm.Lower(0))
	require.Equal(t, 8.0, bm.Upper(0))
}

func TestRepartitionTimeoutBisectsDeeper(t *testing.T) {
	trail := NewTrail()
	bm := NewBoundManager(trail, 1)
	bm.TightenLower(0, 0)
	bm.TightenUpper(0, 8)

	parent := SubQuery{ID: 3, Split: CaseSplit{}, TimeoutSeconds: 1}
	children := RepartitionTimeout(LargestIntervalDivider{}, bm, nil, []int{0}, parent, 1, 2.0)
	require.Len(t, children, 2)
	for _, c := range children {
		require.Equal(t, 2.0, c.TimeoutSeconds)
		require.True(t, c.ID >= 3000 && c.ID < 4000)
	}
}
