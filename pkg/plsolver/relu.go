package plsolver

import (
	"fmt"
	"math"
)

// ReLU phases.
const (
	ReluInactive Phase = iota + 1
	ReluActive
)

// Relu implements f = max(b, 0), with an optional auxiliary variable
// aux = f - b >= 0 used to let the LP relaxation represent both phases
// without a disjunction. Ported from original_source/src/activation/
// ReluConstraint.cpp's notifyLowerBound/notifyUpperBound bound-propagation
// rules.
type Relu struct {
	base
	B, F   int
	Aux    int
	HasAux bool
}

// NewRelu creates f = max(b, 0) with no auxiliary variable.
func NewRelu(trail *Trail, b, f int) *Relu {
	return &Relu{base: newBase(trail), B: b, F: f}
}

// NewReluWithAux creates f = max(b, 0) with an auxiliary slack aux = f - b.
func NewReluWithAux(trail *Trail, b, f, aux int) *Relu {
	return &Relu{base: newBase(trail), B: b, F: f, Aux: aux, HasAux: true}
}

func (r *Relu) Kind() string { return "relu" }

func (r *Relu) ParticipatingVariables() []int {
	if r.HasAux {
		return []int{r.B, r.F, r.Aux}
	}
	return []int{r.B, r.F}
}

func (r *Relu) NotifyLowerBound(bm *BoundManager, variable int, x float64) {
	if variable == r.F && x > 0 {
		r.setPhase(ReluActive)
	} else if variable == r.B && x >= 0 {
		r.setPhase(ReluActive)
	} else if r.HasAux && variable == r.Aux && x > 0 {
		r.setPhase(ReluInactive)
	}

	if !r.Active() {
		return
	}

	switch {
	case (variable == r.F || variable == r.B) && x > 0:
		partner := r.B
		if variable == r.B {
			partner = r.F
		}
		bm.TightenLower(partner, x)
		if r.HasAux {
			bm.TightenUpper(r.Aux, 0)
		}
	case r.HasAux && variable == r.B && x == 0:
		bm.TightenUpper(r.Aux, 0)
	case r.HasAux && variable == r.Aux && x > 0:
		bm.TightenUpper(r.B, -x)
		bm.TightenUpper(r.F, 0)
	case r.HasAux && variable == r.B && x < 0:
		bm.TightenUpper(r.Aux, -x)
	case variable == r.F && x < 0:
		bm.TightenLower(r.F, 0)
	}
}

func (r *Relu) NotifyUpperBound(bm *BoundManager, variable int, x float64) {
	if (variable == r.F || variable == r.B) && x <= 0 {
		r.setPhase(ReluInactive)
	}
	if r.HasAux && variable == r.Aux && x == 0 {
		r.setPhase(ReluActive)
	}

	if !r.Active() {
		return
	}

	switch {
	case variable == r.F:
		bm.TightenUpper(r.B, x)
	case variable == r.B && x <= 0:
		bm.TightenUpper(r.F, 0)
		if r.HasAux {
			bm.TightenLower(r.Aux, -x)
		}
	case variable == r.B:
		bm.TightenUpper(r.F, x)
	case r.HasAux && variable == r.Aux:
		bm.TightenLower(r.B, -x)
	}
}

func (r *Relu) Satisfied(assignment []float64) bool {
	b, f := assignment[r.B], assignment[r.F]
	if f < -Tolerance {
		return false
	}
	if f > Tolerance {
		return floatsEqual(b, f)
	}
	return b <= Tolerance
}

// polarity measures how centered b's interval is around zero, in [-1, 1].
func (r *Relu) polarity(bm *BoundManager) float64 {
	lo, hi := bm.Lower(r.B), bm.Upper(r.B)
	if math.IsInf(lo, -1) || math.IsInf(hi, 1) || hi == lo {
		return 0
	}
	return (hi + lo) / (hi - lo)
}

// Score returns the branching score |polarity|, consulted by
// PolarityDivider and by the engine's polarity branch strategy.
func (r *Relu) Score(bm *BoundManager) float64 {
	p := r.polarity(bm)
	if p < 0 {
		return -p
	}
	return p
}

func (r *Relu) CaseSplits() []CaseSplit {
	active := CaseSplit{
		Tightenings: []Tightening{{Variable: r.B, Value: 0, Kind: Lower}},
		Equations:   []Equation{NewEquation(RelEQ, 0, Addend{1, r.F}, Addend{-1, r.B})},
	}
	if r.HasAux {
		active.Tightenings = append(active.Tightenings, Tightening{Variable: r.Aux, Value: 0, Kind: Upper})
	}

	inactive := CaseSplit{Tightenings: []Tightening{
		{Variable: r.B, Value: 0, Kind: Upper},
		{Variable: r.F, Value: 0, Kind: Upper},
	}}

	// direction chosen by polarity: caller supplies bm-derived order via
	// OrderedCaseSplits; CaseSplits() alone returns the canonical
	// Active-then-Inactive order used whenever polarity is unavailable
	// (e.g. Duplicate snapshots).
	return []CaseSplit{active, inactive}
}

// OrderedCaseSplits returns CaseSplits() reordered by polarity, as spec.md
// requires: p>0 tries Active first, else Inactive first.
func (r *Relu) OrderedCaseSplits(bm *BoundManager) []CaseSplit {
	splits := r.CaseSplits()
	if r.polarity(bm) > 0 {
		return splits // active, inactive
	}
	return []CaseSplit{splits[1], splits[0]}
}

func (r *Relu) ValidSplit() CaseSplit {
	if r.Phase() == ReluActive {
		return r.CaseSplits()[0]
	}
	return r.CaseSplits()[1]
}

func (r *Relu) AllCases() []Phase { return []Phase{ReluActive, ReluInactive} }

func (r *Relu) EntailedTightenings(out []Tightening) []Tightening {
	switch r.Phase() {
	case ReluActive:
		out = append(out, Tightening{Variable: r.F, Value: 0, Kind: Lower})
	case ReluInactive:
		out = append(out, Tightening{Variable: r.F, Value: 0, Kind: Upper})
	}
	return out
}

func (r *Relu) CostComponent(expr *LinearExpr, phase Phase) {
	switch phase {
	case ReluInactive:
		expr.Add(r.F, 1)
	case ReluActive:
		expr.Add(r.F, 1)
		expr.Add(r.B, -1)
	}
}

func (r *Relu) PhaseInAssignment(assignment []float64) Phase {
	if assignment[r.B] >= 0 {
		return ReluActive
	}
	return ReluInactive
}

func (r *Relu) Duplicate() PLConstraint {
	clone := &Relu{base: newBase(r.trail), B: r.B, F: r.F, Aux: r.Aux, HasAux: r.HasAux}
	clone.active.Set(r.Active())
	clone.phase.Set(r.Phase())
	return clone
}

func (r *Relu) RestoreFrom(other PLConstraint) {
	o := other.(*Relu)
	r.active.Set(o.Active())
	r.phase.Set(o.Phase())
}

func (r *Relu) MarkInfeasible(phase Phase) { r.markInfeasible(phase) }

func (r *Relu) Serialize() string {
	if r.HasAux {
		return fmt.Sprintf("relu,%d,%d,%d", r.F, r.B, r.Aux)
	}
	return fmt.Sprintf("relu,%d,%d", r.F, r.B)
}

func floatsEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}
