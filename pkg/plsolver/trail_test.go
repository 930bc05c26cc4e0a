package plsolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellPushPopRestoresPriorValue(t *testing.T) {
	trail := NewTrail()
	c := NewCell(trail, 1)

	trail.Push()
	c.Set(2)
	require.Equal(t, 2, c.Get())

	trail.Pop()
	require.Equal(t, 1, c.Get())
}

func TestCellNestedDepthRestoresEachLevel(t *testing.T) {
	trail := NewTrail()
	c := NewCell(trail, "root")

	trail.Push()
	c.Set("d1")
	trail.Push()
	c.Set("d2")
	trail.Push()
	c.Set("d3")
	require.Equal(t, "d3", c.Get())

	trail.Pop()
	require.Equal(t, "d2", c.Get())
	trail.Pop()
	require.Equal(t, "d1", c.Get())
	trail.Pop()
	require.Equal(t, "root", c.Get())
}

func TestCellSetAtRootIsPermanent(t *testing.T) {
	trail := NewTrail()
	c := NewCell(trail, 0)
	c.Set(5)
	trail.Push()
	c.Set(9)
	trail.Pop()
	require.Equal(t, 5, c.Get(), "a Pop back to depth 0 must not undo root-level writes")
}

func TestCellMultipleCellsUnwindIndependently(t *testing.T) {
	trail := NewTrail()
	a := NewCell(trail, 1)
	b := NewCell(trail, "x")

	trail.Push()
	a.Set(2)
	trail.Push()
	b.Set("y")
	a.Set(3)

	trail.Pop()
	require.Equal(t, 2, a.Get())
	require.Equal(t, "x", b.Get())

	trail.Pop()
	require.Equal(t, 1, a.Get())
	require.Equal(t, "x", b.Get())
}

func TestPopAtRootIsNoop(t *testing.T) {
	trail := NewTrail()
	c := NewCell(trail, 7)
	trail.Pop()
	require.Equal(t, 0, trail.Depth())
	require.Equal(t, 7, c.Get())
}
