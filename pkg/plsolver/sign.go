package plsolver

import "fmt"

// Sign phases.
const (
	SignNegative Phase = iota + 1
	SignPositive
)

// Sign implements f = +1 if b >= 0, else f = -1, clamped to [-1, 1].
// Ported from spec.md §4.2's description of
// original_source/src/activation/SignConstraint.cpp.
type Sign struct {
	base
	B, F int
}

// NewSign creates f = sign(b).
func NewSign(trail *Trail, b, f int) *Sign {
	return &Sign{base: newBase(trail), B: b, F: f}
}

func (s *Sign) Kind() string { return "sign" }

func (s *Sign) ParticipatingVariables() []int { return []int{s.B, s.F} }

func (s *Sign) NotifyLowerBound(bm *BoundManager, variable int, x float64) {
	if (variable == s.B && x >= 0) || (variable == s.F && x > -1) {
		s.setPhase(SignPositive)
	}
	if !s.Active() {
		return
	}
	if s.Phase() == SignPositive && variable == s.B {
		bm.TightenLower(s.F, 1)
	}
}

func (s *Sign) NotifyUpperBound(bm *BoundManager, variable int, x float64) {
	if (variable == s.B && x < 0) || (variable == s.F && x < 1) {
		s.setPhase(SignNegative)
	}
	if !s.Active() {
		return
	}
	if s.Phase() == SignNegative && variable == s.B {
		bm.TightenUpper(s.F, -1)
	}
}

func (s *Sign) Satisfied(assignment []float64) bool {
	b, f := assignment[s.B], assignment[s.F]
	if b >= 0 {
		return floatsEqual(f, 1)
	}
	return floatsEqual(f, -1)
}

func (s *Sign) CaseSplits() []CaseSplit {
	positive := CaseSplit{
		Tightenings: []Tightening{
			{Variable: s.B, Value: 0, Kind: Lower},
			{Variable: s.F, Value: 1, Kind: Lower},
			{Variable: s.F, Value: 1, Kind: Upper},
		},
	}
	negative := CaseSplit{
		Tightenings: []Tightening{
			{Variable: s.B, Value: 0, Kind: Upper},
			{Variable: s.F, Value: -1, Kind: Lower},
			{Variable: s.F, Value: -1, Kind: Upper},
		},
	}
	return []CaseSplit{positive, negative}
}

func (s *Sign) PhaseFixed() bool { return s.base.PhaseFixed() }

func (s *Sign) ValidSplit() CaseSplit {
	if s.Phase() == SignPositive {
		return s.CaseSplits()[0]
	}
	return s.CaseSplits()[1]
}

func (s *Sign) AllCases() []Phase { return []Phase{SignPositive, SignNegative} }

func (s *Sign) EntailedTightenings(out []Tightening) []Tightening {
	switch s.Phase() {
	case SignPositive:
		out = append(out, Tightening{Variable: s.F, Value: 1, Kind: Lower})
	case SignNegative:
		out = append(out, Tightening{Variable: s.F, Value: -1, Kind: Upper})
	}
	return out
}

func (s *Sign) CostComponent(expr *LinearExpr, phase Phase) {
	switch phase {
	case SignPositive:
		expr.Add(s.F, -1)
	case SignNegative:
		expr.Add(s.F, 1)
	}
}

func (s *Sign) PhaseInAssignment(assignment []float64) Phase {
	if assignment[s.B] >= 0 {
		return SignPositive
	}
	return SignNegative
}

func (s *Sign) Duplicate() PLConstraint {
	clone := &Sign{base: newBase(s.trail), B: s.B, F: s.F}
	clone.active.Set(s.Active())
	clone.phase.Set(s.Phase())
	return clone
}

func (s *Sign) RestoreFrom(other PLConstraint) {
	o := other.(*Sign)
	s.active.Set(o.Active())
	s.phase.Set(o.Phase())
}

func (s *Sign) MarkInfeasible(phase Phase) { s.markInfeasible(phase) }

func (s *Sign) Serialize() string { return fmt.Sprintf("sign,%d,%d", s.F, s.B) }
