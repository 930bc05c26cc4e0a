package plsolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEquationPoolAddAccumulates(t *testing.T) {
	trail := NewTrail()
	pool := NewEquationPool(trail)
	require.Empty(t, pool.All())

	eq1 := NewEquation(RelEQ, 1, Addend{Coefficient: 1, Variable: 0})
	eq2 := NewEquation(RelEQ, 2, Addend{Coefficient: 1, Variable: 1})
	pool.Add(eq1)
	pool.Add(eq2)

	require.Equal(t, []Equation{eq1, eq2}, pool.All())
}

func TestEquationPoolAddIsReversibleOnTrailPop(t *testing.T) {
	trail := NewTrail()
	pool := NewEquationPool(trail)
	eq := NewEquation(RelEQ, 1, Addend{Coefficient: 1, Variable: 0})
	pool.Add(eq)

	trail.Push()
	pool.Add(NewEquation(RelEQ, 2, Addend{Coefficient: 1, Variable: 1}))
	require.Len(t, pool.All(), 2)

	trail.Pop()
	require.Equal(t, []Equation{eq}, pool.All())
}

func TestEquationPoolAddNoopOnEmpty(t *testing.T) {
	trail := NewTrail()
	pool := NewEquationPool(trail)
	pool.Add()
	require.Nil(t, pool.All())
}

func TestEquationEvaluateSatisfiesRelation(t *testing.T) {
	eq := NewEquation(RelEQ, 3, Addend{Coefficient: 2, Variable: 0}, Addend{Coefficient: -1, Variable: 1})
	sum, holds := eq.Evaluate([]float64{3, 3})
	require.Equal(t, 3.0, sum)
	require.True(t, holds)
}
