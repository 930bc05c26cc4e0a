package plsolver

import (
	"strconv"
	"strings"
)

// Disjunction is a non-activation constraint: (split_1) OR ... OR
// (split_k). Unlike the activation variants, a disjunct does not "hold" at
// particular variable values computed from a formula — it holds when its
// bound tightenings and equations are consistent with the current bounds.
// Ported from spec.md §4.2 / original_source/src/engine/
// DisjunctionConstraint.cpp.
type Disjunction struct {
	base
	Disjuncts []CaseSplit
}

// NewDisjunction creates a disjunction over the given case splits.
func NewDisjunction(trail *Trail, disjuncts []CaseSplit) *Disjunction {
	return &Disjunction{base: newBase(trail), Disjuncts: disjuncts}
}

func (d *Disjunction) Kind() string { return "disj" }

func (d *Disjunction) ParticipatingVariables() []int {
	seen := map[int]bool{}
	var vars []int
	add := func(v int) {
		if !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	for _, disj := range d.Disjuncts {
		for _, t := range disj.Tightenings {
			add(t.Variable)
		}
		for _, e := range disj.Equations {
			for _, a := range e.Addends {
				add(a.Variable)
			}
		}
	}
	return vars
}

// feasible reports whether disjunct i's tightenings are still consistent
// with bm's current bounds (an equation is not checked against bounds
// alone — only tightenings gate feasibility, per spec.md's "conflict with
// current bounds" wording).
func (d *Disjunction) feasible(bm *BoundManager, i int) bool {
	if d.isInfeasible(Phase(i + 1)) {
		return false
	}
	for _, t := range d.Disjuncts[i].Tightenings {
		switch t.Kind {
		case Lower:
			if t.Value > bm.Upper(t.Variable) {
				return false
			}
		case Upper:
			if t.Value < bm.Lower(t.Variable) {
				return false
			}
		}
	}
	return true
}

func (d *Disjunction) recomputeFixed(bm *BoundManager) {
	if d.PhaseFixed() {
		return
	}
	liveIdx, count := -1, 0
	for i := range d.Disjuncts {
		if d.feasible(bm, i) {
			count++
			liveIdx = i
		} else {
			d.markInfeasible(Phase(i + 1))
		}
	}
	if count == 1 {
		d.setPhase(Phase(liveIdx + 1))
	}
}

func (d *Disjunction) NotifyLowerBound(bm *BoundManager, _ int, _ float64) {
	d.recomputeFixed(bm)
}

func (d *Disjunction) NotifyUpperBound(bm *BoundManager, _ int, _ float64) {
	d.recomputeFixed(bm)
}

func (d *Disjunction) Satisfied(assignment []float64) bool {
	for _, disj := range d.Disjuncts {
		ok := true
		for _, e := range disj.Equations {
			if _, holds := e.Evaluate(assignment); !holds {
				ok = false
				break
			}
		}
		if ok {
			for _, t := range disj.Tightenings {
				switch t.Kind {
				case Lower:
					if assignment[t.Variable] < t.Value-Tolerance {
						ok = false
					}
				case Upper:
					if assignment[t.Variable] > t.Value+Tolerance {
						ok = false
					}
				}
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (d *Disjunction) CaseSplits() []CaseSplit { return d.Disjuncts }

func (d *Disjunction) PhaseFixed() bool { return d.base.PhaseFixed() }

func (d *Disjunction) ValidSplit() CaseSplit {
	return d.Disjuncts[int(d.Phase())-1]
}

func (d *Disjunction) AllCases() []Phase {
	cases := make([]Phase, len(d.Disjuncts))
	for i := range d.Disjuncts {
		cases[i] = Phase(i + 1)
	}
	return cases
}

func (d *Disjunction) EntailedTightenings(out []Tightening) []Tightening {
	if d.PhaseFixed() {
		out = append(out, d.Disjuncts[int(d.Phase())-1].Tightenings...)
	}
	return out
}

// CostComponent for a disjunction counts how far the assignment is from
// satisfying disjunct phase's tightenings, summing the violation of each
// as a linear term; this is a reasonable SoI analog for a non-activation
// constraint (the original treats disjunctions primarily as branch points,
// not SoI contributors, but the spec requires every PLConstraint to expose
// CostComponent uniformly).
func (d *Disjunction) CostComponent(expr *LinearExpr, phase Phase) {
	i := int(phase) - 1
	if i < 0 || i >= len(d.Disjuncts) {
		return
	}
	for _, t := range d.Disjuncts[i].Tightenings {
		switch t.Kind {
		case Lower:
			expr.Add(t.Variable, -1)
		case Upper:
			expr.Add(t.Variable, 1)
		}
	}
}

func (d *Disjunction) PhaseInAssignment(assignment []float64) Phase {
	for i, disj := range d.Disjuncts {
		ok := true
		for _, t := range disj.Tightenings {
			switch t.Kind {
			case Lower:
				if assignment[t.Variable] < t.Value-Tolerance {
					ok = false
				}
			case Upper:
				if assignment[t.Variable] > t.Value+Tolerance {
					ok = false
				}
			}
		}
		if ok {
			return Phase(i + 1)
		}
	}
	return PhaseNotFixed
}

func (d *Disjunction) Duplicate() PLConstraint {
	clone := &Disjunction{base: newBase(d.trail), Disjuncts: append([]CaseSplit(nil), d.Disjuncts...)}
	clone.active.Set(d.Active())
	clone.phase.Set(d.Phase())
	return clone
}

func (d *Disjunction) RestoreFrom(other PLConstraint) {
	o := other.(*Disjunction)
	d.active.Set(o.Active())
	d.phase.Set(o.Phase())
}

func (d *Disjunction) MarkInfeasible(phase Phase) { d.markInfeasible(phase) }

// Serialize renders the disjunction per spec.md §6's
// "disj,k,nbounds1,l|u,v,val,...,neqs1,e|l|g,naddends,coef,v,...,scalar,..."
// token sequence.
func (d *Disjunction) Serialize() string {
	parts := []string{"disj", strconv.Itoa(len(d.Disjuncts))}
	for _, disj := range d.Disjuncts {
		parts = append(parts, strconv.Itoa(len(disj.Tightenings)))
		for _, t := range disj.Tightenings {
			kind := "l"
			if t.Kind == Upper {
				kind = "u"
			}
			parts = append(parts, kind, strconv.Itoa(t.Variable), strconv.FormatFloat(t.Value, 'g', -1, 64))
		}
		parts = append(parts, strconv.Itoa(len(disj.Equations)))
		for _, e := range disj.Equations {
			rel := map[Relation]string{RelEQ: "e", RelLE: "l", RelGE: "g"}[e.Relation]
			parts = append(parts, rel, strconv.Itoa(len(e.Addends)))
			for _, a := range e.Addends {
				parts = append(parts, strconv.FormatFloat(a.Coefficient, 'g', -1, 64), strconv.Itoa(a.Variable))
			}
			parts = append(parts, strconv.FormatFloat(e.Scalar, 'g', -1, 64))
		}
	}
	return strings.Join(parts, ",")
}
