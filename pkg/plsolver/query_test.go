package plsolver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteQueryThenParseQueryRoundTrips(t *testing.T) {
	writeTrail := NewTrail()
	r := NewRelu(writeTrail, 0, 1)
	q := &Query{
		NumVariables: 2,
		Bounds: []Tightening{
			{Variable: 0, Value: -5, Kind: Lower},
			{Variable: 1, Value: 5, Kind: Upper},
		},
		Equations: []Equation{
			NewEquation(RelEQ, 1, Addend{Coefficient: 1, Variable: 0}, Addend{Coefficient: -1, Variable: 1}),
		},
		Constraints: []PLConstraint{r},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteQuery(&buf, q))

	readTrail := NewTrail()
	got, err := ParseQuery(&buf, readTrail)
	require.NoError(t, err)

	require.Equal(t, 2, got.NumVariables)
	require.Equal(t, q.Bounds, got.Bounds)
	require.Equal(t, q.Equations, got.Equations)
	require.Len(t, got.Constraints, 1)
	gotRelu, ok := got.Constraints[0].(*Relu)
	require.True(t, ok)
	require.Equal(t, r.B, gotRelu.B)
	require.Equal(t, r.F, gotRelu.F)
}

func TestLooksLikeBoundRejectsEquationAndConstraintLines(t *testing.T) {
	require.True(t, looksLikeBound([]string{"0", "l", "1.5"}))
	require.True(t, looksLikeBound([]string{"0", "u", "1.5"}))
	require.False(t, looksLikeBound([]string{"e", "2", "1", "0", "1"}))
	require.False(t, looksLikeBound([]string{"relu", "0", "1"}))
	require.False(t, looksLikeBound([]string{"0", "l"}))
}

func TestParseBoundLineParsesLowerAndUpper(t *testing.T) {
	lo, err := parseBoundLine([]string{"3", "l", "-2.5"})
	require.NoError(t, err)
	require.Equal(t, Tightening{Variable: 3, Value: -2.5, Kind: Lower}, lo)

	hi, err := parseBoundLine([]string{"3", "u", "2.5"})
	require.NoError(t, err)
	require.Equal(t, Tightening{Variable: 3, Value: 2.5, Kind: Upper}, hi)
}

func TestParseEquationLineParsesAddendsAndScalar(t *testing.T) {
	eq, err := parseEquationLine([]string{"e", "2", "1", "0", "-1", "1", "3"})
	require.NoError(t, err)
	require.Equal(t, RelEQ, eq.Relation)
	require.Equal(t, 3.0, eq.Scalar)
	require.Equal(t, []Addend{{Coefficient: 1, Variable: 0}, {Coefficient: -1, Variable: 1}}, eq.Addends)
}

func TestParseQueryRejectsEmptyFile(t *testing.T) {
	_, err := ParseQuery(bytes.NewReader(nil), NewTrail())
	require.Error(t, err)
}
