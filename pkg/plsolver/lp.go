package plsolver

import (
	"math"
	"time"
)

// LPStatus is the outcome of one LP relaxation solve.
type LPStatus int

const (
	LPOptimal LPStatus = iota
	LPInfeasible
	LPUnbounded
	LPError
)

// LPBackend is the external collaborator described in spec.md §1/§6: a
// solver for the linear relaxation over the current equations and
// bounds. The engine depends only on this interface; production
// deployments wire in a real simplex/interior-point backend (e.g. via
// Gurobi or GLPK bindings), which is out of this module's scope per the
// spec's Non-goals.
type LPBackend interface {
	// Solve returns an assignment satisfying equations within bounds
	// that minimizes objective (nil objective means any feasible point),
	// or LPInfeasible/LPUnbounded/LPError with no assignment.
	Solve(equations []Equation, bounds *BoundManager, objective *LinearExpr) (assignment []float64, status LPStatus, pivotTime time.Duration, err error)
}

// ReferenceLPBackend is a minimal, dependency-free LP backend used as the
// Engine's default collaborator in tests and examples: it does not
// optimize an objective, it only searches for *a* point respecting every
// equation and bound via coordinate descent from the bounds' midpoints.
// Only RelEQ equations are adjusted, each by moving the variable of its
// last addend; RelLE/RelGE equations are only checked. LPInfeasible is
// reported whenever the search ends with some equation still violated,
// whether or not a feasible point exists.
// This intentionally trades optimality for simplicity — a real deployment
// supplies an LPBackend backed by an actual solver.
type ReferenceLPBackend struct {
	MaxIterations int
}

// NewReferenceLPBackend creates a backend with a default iteration cap.
func NewReferenceLPBackend() *ReferenceLPBackend {
	return &ReferenceLPBackend{MaxIterations: 200}
}

func (b *ReferenceLPBackend) Solve(equations []Equation, bm *BoundManager, _ *LinearExpr) ([]float64, LPStatus, time.Duration, error) {
	start := time.Now()
	n := bm.NumVariables()
	assignment := make([]float64, n)
	for v := 0; v < n; v++ {
		assignment[v] = midpoint(bm.Lower(v), bm.Upper(v))
	}

	for iter := 0; iter < b.MaxIterations; iter++ {
		moved := false
		for _, eq := range equations {
			if fixEquation(eq, assignment, bm) {
				moved = true
			}
		}
		if !moved {
			for _, eq := range equations {
				if _, holds := eq.Evaluate(assignment); !holds {
					return nil, LPInfeasible, time.Since(start), nil
				}
			}
			return assignment, LPOptimal, time.Since(start), nil
		}
	}
	for _, eq := range equations {
		if _, holds := eq.Evaluate(assignment); !holds {
			return nil, LPInfeasible, time.Since(start), nil
		}
	}
	return assignment, LPOptimal, time.Since(start), nil
}

// fixEquation adjusts the last addend's variable in eq to satisfy the
// equation given every other variable's current value, clamped to that
// variable's bounds. Reports whether it moved the assignment.
func fixEquation(eq Equation, assignment []float64, bm *BoundManager) bool {
	if len(eq.Addends) == 0 || eq.Relation != RelEQ {
		return false
	}
	last := eq.Addends[len(eq.Addends)-1]
	if last.Coefficient == 0 {
		return false
	}
	sum := eq.Scalar
	for _, a := range eq.Addends[:len(eq.Addends)-1] {
		sum -= a.Coefficient * assignment[a.Variable]
	}
	target := sum / last.Coefficient
	lo, hi := bm.Lower(last.Variable), bm.Upper(last.Variable)
	if target < lo {
		target = lo
	}
	if target > hi {
		target = hi
	}
	if floatsEqual(assignment[last.Variable], target) {
		return false
	}
	assignment[last.Variable] = target
	return true
}

func midpoint(lo, hi float64) float64 {
	loInf := math.IsInf(lo, -1)
	hiInf := math.IsInf(hi, 1)
	switch {
	case loInf && hiInf:
		return 0
	case loInf:
		return hi
	case hiInf:
		return lo
	default:
		return (lo + hi) / 2
	}
}
