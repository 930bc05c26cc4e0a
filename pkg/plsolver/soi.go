package plsolver

import (
	"math"
	"math/rand"
)

// proposal is the pending delta to a SoIManager's phase pattern: flip
// constraint index Constraint from its current pattern phase to To.
type proposal struct {
	constraint int
	from       Phase
	to         Phase
}

// SoIManager maintains the sum-of-infeasibilities phase pattern described
// in spec.md §4.4, grounded on original_source/src/engine/
// SumOfInfeasibilitiesManager.cpp and, for the pattern/proposal/accept
// shape, the teacher's labeling-choice backtracking in
// pkg/minikanren/fd.go.
type SoIManager struct {
	constraints []PLConstraint
	numVars     int
	pattern     map[int]Phase
	order       []int // insertion order, for walksat's deterministic tie-break
	pending     *proposal
	rng         *rand.Rand
	beta        float64
}

// NewSoIManager creates a manager over the given constraint arena.
func NewSoIManager(constraints []PLConstraint, numVars int, beta float64, seed int64) *SoIManager {
	return &SoIManager{
		constraints: constraints,
		numVars:     numVars,
		pattern:     map[int]Phase{},
		rng:         rand.New(rand.NewSource(seed)),
		beta:        beta,
	}
}

// Initialize (re)builds the phase pattern from scratch over every active,
// non-phase-fixed constraint, using the configured strategy. assignment is
// a full concrete variable assignment: under InputAssignment it is the
// result of concretizing inputs and forward-propagating through the
// network-level reasoner; under CurrentAssignment it is the latest LP
// solution. It is unused under Random.
func (m *SoIManager) Initialize(strategy SoIInitStrategy, assignment []float64) {
	m.pattern = map[int]Phase{}
	m.order = nil
	for i, c := range m.constraints {
		if !c.Active() || c.PhaseFixed() {
			continue
		}
		var phase Phase
		switch strategy {
		case SoIInitRandom:
			cases := c.AllCases()
			phase = cases[m.rng.Intn(len(cases))]
		default:
			phase = c.PhaseInAssignment(assignment)
		}
		m.pattern[i] = phase
		m.order = append(m.order, i)
	}
}

// Remove drops constraint i from the pattern, called when the engine
// observes its phase has become fixed during search.
func (m *SoIManager) Remove(i int) {
	delete(m.pattern, i)
	for k, idx := range m.order {
		if idx == i {
			m.order = append(m.order[:k], m.order[k+1:]...)
			break
		}
	}
}

// SoIExpr concretizes the current pattern into a LinearExpr by summing
// each pattern entry's cost component.
func (m *SoIManager) SoIExpr() *LinearExpr {
	expr := NewLinearExpr()
	for i, phase := range m.pattern {
		m.constraints[i].CostComponent(expr, phase)
	}
	return expr
}

// ProposedSoIExpr applies the pending proposal on top of SoIExpr, per
// spec.md §4.4.
func (m *SoIManager) ProposedSoIExpr() *LinearExpr {
	expr := m.SoIExpr()
	if m.pending == nil {
		return expr
	}
	undo := NewLinearExpr()
	m.constraints[m.pending.constraint].CostComponent(undo, m.pending.from)
	expr.AddExpr(undo, -1)
	redo := NewLinearExpr()
	m.constraints[m.pending.constraint].CostComponent(redo, m.pending.to)
	expr.AddExpr(redo, 1)
	return expr
}

// ProposeUpdate picks the next candidate flip per the configured search
// strategy. assignment is the current LP solution, used by Walksat to
// evaluate reduced cost. Returns false if there is nothing left to flip
// (empty pattern).
func (m *SoIManager) ProposeUpdate(strategy SoISearchStrategy, assignment []float64) bool {
	if len(m.order) == 0 {
		return false
	}
	switch strategy {
	case SoISearchWalksat:
		if m.proposeWalksat(assignment) {
			return true
		}
		fallthrough
	default:
		return m.proposeMCMC()
	}
}

func (m *SoIManager) proposeMCMC() bool {
	i := m.order[m.rng.Intn(len(m.order))]
	cur := m.pattern[i]
	cases := m.constraints[i].AllCases()
	alternatives := make([]Phase, 0, len(cases)-1)
	for _, p := range cases {
		if p != cur {
			alternatives = append(alternatives, p)
		}
	}
	if len(alternatives) == 0 {
		return false
	}
	next := alternatives[m.rng.Intn(len(alternatives))]
	m.pending = &proposal{constraint: i, from: cur, to: next}
	return true
}

// proposeWalksat picks the constraint with the largest reduced cost
// (current-phase cost minus best-alternative cost, evaluated at
// assignment), tie-broken by ascending constraint index. Falls back to
// MCMC if no positive reduced cost exists.
func (m *SoIManager) proposeWalksat(assignment []float64) bool {
	bestIdx, bestAlt := -1, PhaseNotFixed
	bestReduced := 0.0
	for _, i := range m.order {
		cur := m.pattern[i]
		curExpr := NewLinearExpr()
		m.constraints[i].CostComponent(curExpr, cur)
		curCost := curExpr.Evaluate(assignment)

		cases := m.constraints[i].AllCases()
		for _, alt := range cases {
			if alt == cur {
				continue
			}
			altExpr := NewLinearExpr()
			m.constraints[i].CostComponent(altExpr, alt)
			altCost := altExpr.Evaluate(assignment)
			reduced := curCost - altCost
			if reduced > bestReduced {
				bestReduced = reduced
				bestIdx = i
				bestAlt = alt
			}
		}
	}
	if bestIdx == -1 || bestReduced <= 0 {
		return false
	}
	m.pending = &proposal{constraint: bestIdx, from: m.pattern[bestIdx], to: bestAlt}
	return true
}

// Accept implements the Metropolis-Hastings criterion of spec.md §4.4:
// deterministic accept if proposed < current, else accept with
// probability exp(-beta*(proposed-current)).
func (m *SoIManager) Accept(currentCost, proposedCost float64) bool {
	if proposedCost < currentCost {
		return true
	}
	p := math.Exp(-m.beta * (proposedCost - currentCost))
	return m.rng.Float64() < p
}

// CommitProposal folds the pending proposal into the pattern.
func (m *SoIManager) CommitProposal() {
	if m.pending == nil {
		return
	}
	m.pattern[m.pending.constraint] = m.pending.to
	m.pending = nil
}

// DiscardProposal clears the pending proposal without applying it.
func (m *SoIManager) DiscardProposal() {
	m.pending = nil
}

// RefreshForSatisfiedConstraints lowers the cost "for free": any pattern
// entry whose constraint is actually satisfied by assignment is updated
// to the phase observed in that assignment.
func (m *SoIManager) RefreshForSatisfiedConstraints(assignment []float64) {
	for _, i := range m.order {
		c := m.constraints[i]
		if c.Satisfied(assignment) {
			m.pattern[i] = c.PhaseInAssignment(assignment)
		}
	}
}

// PendingConstraint returns the constraint index the current proposal
// would flip, if any.
func (m *SoIManager) PendingConstraint() (int, bool) {
	if m.pending == nil {
		return -1, false
	}
	return m.pending.constraint, true
}

// Pattern exposes a read-only snapshot of the current phase pattern, for
// statistics and testing.
func (m *SoIManager) Pattern() map[int]Phase {
	snap := make(map[int]Phase, len(m.pattern))
	for k, v := range m.pattern {
		snap[k] = v
	}
	return snap
}
