package plsolver

import (
	"fmt"
	"strconv"
	"strings"
)

// maxEliminated is a sentinel Phase value: the input at that index was
// statically eliminated (its value is a fixed witness, never ruled out as
// infeasible, per spec.md's Open Question on Max's eliminated phase).
const maxEliminated Phase = -1

// Max implements f = max_i(e_i). Phase i's CaseSplit directly pins
// f-e_i=0 plus e_j<=e_i for every other live input j, so (unlike Relu)
// no auxiliary variable is needed to represent an unfixed phase in the
// LP relaxation. Phase i becomes fixed once every other input is ruled
// out, either because some other input's upper bound can no longer
// reach e_i's lower bound, or because the input was eliminated.
type Max struct {
	base
	F          int
	Inputs     []int
	eliminated map[int]float64 // input index -> witness value, never marked infeasible
}

// NewMax creates f = max(inputs...).
func NewMax(trail *Trail, f int, inputs []int) *Max {
	return &Max{base: newBase(trail), F: f, Inputs: inputs, eliminated: map[int]float64{}}
}

func (m *Max) Kind() string { return "max" }

func (m *Max) ParticipatingVariables() []int {
	vars := make([]int, 0, len(m.Inputs)+1)
	vars = append(vars, m.F)
	vars = append(vars, m.Inputs...)
	return vars
}

// Eliminate statically removes inputs[i] from consideration, recording its
// value as a witness. Per spec.md's Design Notes on Max's "eliminated"
// phase, this never marks the phase infeasible and the value is preserved.
func (m *Max) Eliminate(i int, value float64) {
	m.eliminated[i] = value
}

func (m *Max) activeInputs() []int {
	idx := make([]int, 0, len(m.Inputs))
	for i := range m.Inputs {
		if _, gone := m.eliminated[i]; !gone && !m.isInfeasible(Phase(i+1)) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (m *Max) recomputeFixed(bm *BoundManager) {
	if m.PhaseFixed() {
		return
	}
	live := m.activeInputs()
	if len(live) == 1 {
		m.setPhase(Phase(live[0] + 1))
		return
	}
	// phase i fixed when for every other live input j, hi(e_j) < lo(e_i).
	for _, i := range live {
		allDominated := true
		for _, j := range live {
			if j == i {
				continue
			}
			if bm.Upper(m.Inputs[j]) >= bm.Lower(m.Inputs[i]) {
				allDominated = false
				break
			}
		}
		if allDominated {
			m.setPhase(Phase(i + 1))
			return
		}
	}
}

func (m *Max) NotifyLowerBound(bm *BoundManager, variable int, x float64) {
	m.recomputeFixed(bm)
	if !m.Active() {
		return
	}
	for i, in := range m.Inputs {
		if variable == in {
			bm.TightenLower(m.F, x)
			_ = i
		}
	}
}

func (m *Max) NotifyUpperBound(bm *BoundManager, variable int, x float64) {
	m.recomputeFixed(bm)
	if !m.Active() {
		return
	}
	if variable == m.F {
		for _, in := range m.Inputs {
			bm.TightenUpper(in, x)
		}
	}
}

func (m *Max) Satisfied(assignment []float64) bool {
	best := assignment[m.Inputs[0]]
	for _, in := range m.Inputs[1:] {
		if assignment[in] > best {
			best = assignment[in]
		}
	}
	return floatsEqual(assignment[m.F], best)
}

func (m *Max) CaseSplits() []CaseSplit {
	splits := make([]CaseSplit, 0, len(m.Inputs))
	for i, in := range m.Inputs {
		cs := CaseSplit{Equations: []Equation{NewEquation(RelEQ, 0, Addend{1, m.F}, Addend{-1, in})}}
		for j, other := range m.Inputs {
			if j == i {
				continue
			}
			cs.Equations = append(cs.Equations, NewEquation(RelLE, 0, Addend{1, other}, Addend{-1, in}))
		}
		splits = append(splits, cs)
	}
	return splits
}

func (m *Max) PhaseFixed() bool { return m.base.PhaseFixed() }

func (m *Max) ValidSplit() CaseSplit {
	return m.CaseSplits()[int(m.Phase())-1]
}

func (m *Max) AllCases() []Phase {
	cases := make([]Phase, len(m.Inputs))
	for i := range m.Inputs {
		cases[i] = Phase(i + 1)
	}
	return cases
}

func (m *Max) EntailedTightenings(out []Tightening) []Tightening {
	if m.PhaseFixed() {
		i := int(m.Phase()) - 1
		out = append(out, Tightening{Variable: m.Inputs[i], Value: 0, Kind: Lower})
	}
	return out
}

func (m *Max) CostComponent(expr *LinearExpr, phase Phase) {
	i := int(phase) - 1
	if i < 0 || i >= len(m.Inputs) {
		return
	}
	expr.Add(m.F, 1)
	expr.Add(m.Inputs[i], -1)
}

func (m *Max) PhaseInAssignment(assignment []float64) Phase {
	bestIdx := 0
	best := assignment[m.Inputs[0]]
	for i, in := range m.Inputs[1:] {
		if assignment[in] > best {
			best = assignment[in]
			bestIdx = i + 1
		}
	}
	return Phase(bestIdx + 1)
}

func (m *Max) Duplicate() PLConstraint {
	clone := &Max{base: newBase(m.trail), F: m.F, Inputs: append([]int(nil), m.Inputs...),
		eliminated: map[int]float64{}}
	for k, v := range m.eliminated {
		clone.eliminated[k] = v
	}
	clone.active.Set(m.Active())
	clone.phase.Set(m.Phase())
	return clone
}

func (m *Max) RestoreFrom(other PLConstraint) {
	o := other.(*Max)
	m.active.Set(o.Active())
	m.phase.Set(o.Phase())
	m.eliminated = map[int]float64{}
	for k, v := range o.eliminated {
		m.eliminated[k] = v
	}
}

// MarkInfeasible excludes phase i, unless input i was statically
// eliminated, per the Design Notes' resolution of the source's
// inconsistent updateVariableIndex handling: an eliminated input's
// witness value must never be treated as ruled out.
func (m *Max) MarkInfeasible(phase Phase) {
	i := int(phase) - 1
	if i < 0 || i >= len(m.Inputs) {
		return
	}
	if _, gone := m.eliminated[i]; gone {
		return
	}
	m.markInfeasible(phase)
}

func (m *Max) Serialize() string {
	parts := []string{"max", strconv.Itoa(m.F), strconv.Itoa(len(m.Inputs))}
	for _, in := range m.Inputs {
		parts = append(parts, strconv.Itoa(in))
	}
	for i, v := range m.eliminated {
		parts = append(parts, fmt.Sprintf("%d:%g", i, v))
	}
	return strings.Join(parts, ",")
}
