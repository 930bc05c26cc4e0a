package plsolver

import (
	"fmt"
	"math"
)

// Abs phases.
const (
	AbsNegative Phase = iota + 1
	AbsPositive
)

// Abs implements f = |b|. Unlike Relu, each phase's CaseSplit already
// pins the exact defining equation (f-b=0 or f+b=0), so there is no
// auxiliary variable needed to let the LP relaxation represent both
// phases (spec.md §4.2).
type Abs struct {
	base
	B, F int
}

// NewAbs creates f = |b|.
func NewAbs(trail *Trail, b, f int) *Abs {
	return &Abs{base: newBase(trail), B: b, F: f}
}

func (a *Abs) Kind() string { return "absoluteValue" }

func (a *Abs) ParticipatingVariables() []int {
	return []int{a.B, a.F}
}

func (a *Abs) NotifyLowerBound(bm *BoundManager, variable int, x float64) {
	if variable == a.B && x >= 0 {
		a.setPhase(AbsPositive)
	}
	if !a.Active() {
		return
	}
	switch a.Phase() {
	case AbsPositive:
		if variable == a.B {
			bm.TightenLower(a.F, x)
		}
	case AbsNegative:
		if variable == a.B {
			bm.TightenUpper(a.F, -x)
		}
	}
}

func (a *Abs) NotifyUpperBound(bm *BoundManager, variable int, x float64) {
	if variable == a.B && x <= 0 {
		a.setPhase(AbsNegative)
	}
	if !a.Active() {
		return
	}
	switch a.Phase() {
	case AbsPositive:
		if variable == a.B {
			bm.TightenUpper(a.F, x)
		}
	case AbsNegative:
		if variable == a.B {
			bm.TightenLower(a.F, -x)
		}
	}
}

func (a *Abs) Satisfied(assignment []float64) bool {
	return floatsEqual(assignment[a.F], math.Abs(assignment[a.B]))
}

func (a *Abs) CaseSplits() []CaseSplit {
	positive := CaseSplit{
		Tightenings: []Tightening{{Variable: a.B, Value: 0, Kind: Lower}},
		Equations:   []Equation{NewEquation(RelEQ, 0, Addend{1, a.F}, Addend{-1, a.B})},
	}
	negative := CaseSplit{
		Tightenings: []Tightening{{Variable: a.B, Value: 0, Kind: Upper}},
		Equations:   []Equation{NewEquation(RelEQ, 0, Addend{1, a.F}, Addend{1, a.B})},
	}
	return []CaseSplit{positive, negative}
}

func (a *Abs) PhaseFixed() bool { return a.base.PhaseFixed() }

func (a *Abs) ValidSplit() CaseSplit {
	if a.Phase() == AbsPositive {
		return a.CaseSplits()[0]
	}
	return a.CaseSplits()[1]
}

func (a *Abs) AllCases() []Phase { return []Phase{AbsPositive, AbsNegative} }

func (a *Abs) EntailedTightenings(out []Tightening) []Tightening {
	switch a.Phase() {
	case AbsPositive:
		out = append(out, Tightening{Variable: a.F, Value: 0, Kind: Lower})
	case AbsNegative:
		out = append(out, Tightening{Variable: a.F, Value: 0, Kind: Lower})
	}
	return out
}

func (a *Abs) CostComponent(expr *LinearExpr, phase Phase) {
	switch phase {
	case AbsPositive:
		expr.Add(a.F, 1)
		expr.Add(a.B, -1)
	case AbsNegative:
		expr.Add(a.F, 1)
		expr.Add(a.B, 1)
	}
}

func (a *Abs) PhaseInAssignment(assignment []float64) Phase {
	if assignment[a.B] >= 0 {
		return AbsPositive
	}
	return AbsNegative
}

func (a *Abs) Duplicate() PLConstraint {
	clone := &Abs{base: newBase(a.trail), B: a.B, F: a.F}
	clone.active.Set(a.Active())
	clone.phase.Set(a.Phase())
	return clone
}

func (a *Abs) RestoreFrom(other PLConstraint) {
	o := other.(*Abs)
	a.active.Set(o.Active())
	a.phase.Set(o.Phase())
}

func (a *Abs) MarkInfeasible(phase Phase) { a.markInfeasible(phase) }

func (a *Abs) Serialize() string {
	return fmt.Sprintf("absoluteValue,%d,%d", a.F, a.B)
}
