package plsolver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// Layout: input x0 (var 0) -> affine y = 2*x0 - 3 (var 1, pre-activation)
// -> no activation (nil constraint, identity) -> var 2 (output).
func newSingleIdentityReasoner() *LayeredReasoner {
	r := NewLayeredReasoner([]int{0}, 3)
	r.AddLayer(
		[]int{0},
		[][]float64{{2}},
		[]float64{-3},
		[]int{1},
		[]PLConstraint{nil}, // nil: the output copies the pre-activation value
		[]int{2},
	)
	return r
}

func TestLayeredReasonerIdentityLayerPassesPreActThrough(t *testing.T) {
	r := newSingleIdentityReasoner()
	assignment := r.Evaluate(map[int]float64{0: 1})
	require.Equal(t, 1.0, assignment[0])
	require.Equal(t, -1.0, assignment[1]) // 2*1-3 = -1
	require.Equal(t, -1.0, assignment[2]) // no constraint wired: identity pass-through
}

func TestLayeredReasonerAppliesReluActivation(t *testing.T) {
	trail := NewTrail()
	relu := NewRelu(trail, 1, 2)
	r := NewLayeredReasoner([]int{0}, 3)
	r.AddLayer([]int{0}, [][]float64{{2}}, []float64{-3}, []int{1}, []PLConstraint{relu}, []int{2})

	positive := r.Evaluate(map[int]float64{0: 5}) // pre-act = 2*5-3 = 7
	require.Equal(t, 7.0, positive[1])
	require.Equal(t, 7.0, positive[2])

	negative := r.Evaluate(map[int]float64{0: 1}) // pre-act = 2*1-3 = -1
	require.Equal(t, -1.0, negative[1])
	require.Equal(t, 0.0, negative[2])
}

func TestForwardActivationPerConstraintKind(t *testing.T) {
	trail := NewTrail()
	require.Equal(t, 0.0, forwardActivation(NewRelu(trail, 0, 1), -3))
	require.Equal(t, 3.0, forwardActivation(NewRelu(trail, 0, 1), 3))

	require.Equal(t, 3.0, forwardActivation(NewAbs(trail, 0, 1), -3))
	require.Equal(t, 3.0, forwardActivation(NewAbs(trail, 0, 1), 3))

	require.Equal(t, 1.0, forwardActivation(NewSign(trail, 0, 1), 0))
	require.Equal(t, -1.0, forwardActivation(NewSign(trail, 0, 1), -0.5))

	clip := NewClip(trail, 0, 1, -2, 2)
	require.Equal(t, -2.0, forwardActivation(clip, -10))
	require.Equal(t, 2.0, forwardActivation(clip, 10))
	require.Equal(t, 0.5, forwardActivation(clip, 0.5))

	require.InDelta(t, math.Cos(1.2), forwardActivation(NewCosine(trail, 0, 1), 1.2), 1e-12)
}

func TestLayeredReasonerInputVariables(t *testing.T) {
	r := NewLayeredReasoner([]int{0, 3}, 5)
	require.Equal(t, []int{0, 3}, r.InputVariables())
}
