package plsolver

import "fmt"

// Clip phases.
const (
	ClipFloor Phase = iota + 1
	ClipMiddle
	ClipCeiling
)

// Clip implements f = min(ceiling, max(floor, b)). Floor and ceiling are
// fixed constants (not variables), per spec.md §4.2.
type Clip struct {
	base
	B, F           int
	Floor, Ceiling float64
}

// NewClip creates f = clip(b, floor, ceiling).
func NewClip(trail *Trail, b, f int, floor, ceiling float64) *Clip {
	return &Clip{base: newBase(trail), B: b, F: f, Floor: floor, Ceiling: ceiling}
}

func (c *Clip) Kind() string { return "clip" }

func (c *Clip) ParticipatingVariables() []int { return []int{c.B, c.F} }

func (c *Clip) NotifyLowerBound(bm *BoundManager, variable int, x float64) {
	if variable == c.B && x >= c.Ceiling {
		c.setPhase(ClipCeiling)
	} else if variable == c.B && x >= c.Floor {
		// b cannot go below floor anymore; combined with an upper bound
		// <= ceiling this fixes Middle (checked again on upper notify).
		if bm.Upper(c.B) <= c.Ceiling {
			c.setPhase(ClipMiddle)
		}
	}
	if !c.Active() {
		return
	}
	switch c.Phase() {
	case ClipMiddle:
		if variable == c.B {
			bm.TightenLower(c.F, x)
		}
	case ClipCeiling:
		bm.TightenLower(c.F, c.Ceiling)
		bm.TightenUpper(c.F, c.Ceiling)
	}
}

func (c *Clip) NotifyUpperBound(bm *BoundManager, variable int, x float64) {
	if variable == c.B && x <= c.Floor {
		c.setPhase(ClipFloor)
	} else if variable == c.B && x <= c.Ceiling {
		if bm.Lower(c.B) >= c.Floor {
			c.setPhase(ClipMiddle)
		}
	}
	if !c.Active() {
		return
	}
	switch c.Phase() {
	case ClipMiddle:
		if variable == c.B {
			bm.TightenUpper(c.F, x)
		}
	case ClipFloor:
		bm.TightenLower(c.F, c.Floor)
		bm.TightenUpper(c.F, c.Floor)
	}
}

func (c *Clip) Satisfied(assignment []float64) bool {
	b := assignment[c.B]
	want := b
	if want < c.Floor {
		want = c.Floor
	}
	if want > c.Ceiling {
		want = c.Ceiling
	}
	return floatsEqual(assignment[c.F], want)
}

func (c *Clip) CaseSplits() []CaseSplit {
	floor := CaseSplit{
		Tightenings: []Tightening{{Variable: c.B, Value: c.Floor, Kind: Upper}},
		Equations:   []Equation{NewEquation(RelEQ, c.Floor, Addend{1, c.F})},
	}
	middle := CaseSplit{
		Tightenings: []Tightening{
			{Variable: c.B, Value: c.Floor, Kind: Lower},
			{Variable: c.B, Value: c.Ceiling, Kind: Upper},
		},
		Equations: []Equation{NewEquation(RelEQ, 0, Addend{1, c.F}, Addend{-1, c.B})},
	}
	ceiling := CaseSplit{
		Tightenings: []Tightening{{Variable: c.B, Value: c.Ceiling, Kind: Lower}},
		Equations:   []Equation{NewEquation(RelEQ, c.Ceiling, Addend{1, c.F})},
	}
	return []CaseSplit{floor, middle, ceiling}
}

func (c *Clip) PhaseFixed() bool { return c.base.PhaseFixed() }

func (c *Clip) ValidSplit() CaseSplit {
	switch c.Phase() {
	case ClipFloor:
		return c.CaseSplits()[0]
	case ClipCeiling:
		return c.CaseSplits()[2]
	default:
		return c.CaseSplits()[1]
	}
}

func (c *Clip) AllCases() []Phase { return []Phase{ClipFloor, ClipMiddle, ClipCeiling} }

func (c *Clip) EntailedTightenings(out []Tightening) []Tightening {
	switch c.Phase() {
	case ClipFloor:
		out = append(out,
			Tightening{Variable: c.F, Value: c.Floor, Kind: Lower},
			Tightening{Variable: c.F, Value: c.Floor, Kind: Upper})
	case ClipCeiling:
		out = append(out,
			Tightening{Variable: c.F, Value: c.Ceiling, Kind: Lower},
			Tightening{Variable: c.F, Value: c.Ceiling, Kind: Upper})
	}
	return out
}

func (c *Clip) CostComponent(expr *LinearExpr, phase Phase) {
	switch phase {
	case ClipFloor:
		expr.Add(c.F, 1)
	case ClipCeiling:
		expr.Add(c.F, -1)
	case ClipMiddle:
		expr.Add(c.F, 1)
		expr.Add(c.B, -1)
	}
}

func (c *Clip) PhaseInAssignment(assignment []float64) Phase {
	b := assignment[c.B]
	switch {
	case b <= c.Floor:
		return ClipFloor
	case b >= c.Ceiling:
		return ClipCeiling
	default:
		return ClipMiddle
	}
}

func (c *Clip) Duplicate() PLConstraint {
	clone := &Clip{base: newBase(c.trail), B: c.B, F: c.F, Floor: c.Floor, Ceiling: c.Ceiling}
	clone.active.Set(c.Active())
	clone.phase.Set(c.Phase())
	return clone
}

func (c *Clip) RestoreFrom(other PLConstraint) {
	o := other.(*Clip)
	c.active.Set(o.Active())
	c.phase.Set(o.Phase())
}

func (c *Clip) MarkInfeasible(phase Phase) { c.markInfeasible(phase) }

func (c *Clip) Serialize() string {
	return fmt.Sprintf("clip,%d,%d,%.8f,%.8f", c.F, c.B, c.Floor, c.Ceiling)
}
