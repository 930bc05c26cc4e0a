package plsolver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Result is what Engine.Solve returns: the verdict, and on Sat a concrete
// assignment.
type Result struct {
	Exit       ExitCode
	Assignment []float64
	Stats      *Statistics
}

// Engine is the main solve-loop orchestrator (C7), wiring together the
// Bound Manager, PL-constraint arena, Trail, SoI Manager, Case-Split
// Controller, Pseudo-Impact Tracker, and the LP/network-reasoner
// collaborators, per spec.md §4.7's pseudocode.
type Engine struct {
	cfg         Config
	trail       *Trail
	bm          *BoundManager
	eqs         *EquationPool
	constraints []PLConstraint
	watchers    map[int][]int // variable -> constraint indices watching it

	smt    *SmtCore
	cost   *HeuristicCostManager
	impact *PseudoImpactTracker

	lp  LPBackend
	nlr NetworkLevelReasoner

	appliedImplied []*Cell[bool]

	stats    *Statistics
	deadline time.Time
	logger   *zap.Logger

}

// newPseudoImpactTrackerFor resolves cfg.PseudoImpactVariant to a tracker
// built with the matching ScoreUpdater.
func newPseudoImpactTrackerFor(cfg Config) *PseudoImpactTracker {
	if cfg.PseudoImpactVariant == PseudoImpactPseudoCost {
		return NewPseudoImpactTrackerWithUpdater(cfg.PseudoImpactAlpha, PseudoCostScoreUpdater)
	}
	return NewPseudoImpactTrackerWithUpdater(cfg.PseudoImpactAlpha, EWMAScoreUpdater)
}

// NewEngine wires a fresh Engine over the given query. trail must be the
// same Trail the constraints were constructed on (e.g. via ParseQuery),
// since every constraint's active/phase/infeasible cells are registered
// slots on it and backtracking only works if the Engine pushes/pops that
// same trail (spec.md §4.3). nlr (optional) seeds SoIInitInputAssignment
// via its own InputVariables/Evaluate.
func NewEngine(cfg Config, trail *Trail, numVars int, equations []Equation, constraints []PLConstraint, nlr NetworkLevelReasoner, lp LPBackend) *Engine {
	bm := NewBoundManager(trail, numVars)
	eqs := NewEquationPool(trail)
	eqs.Add(equations...)

	watchers := map[int][]int{}
	applied := make([]*Cell[bool], len(constraints))
	for i, c := range constraints {
		applied[i] = NewCell(trail, false)
		for _, v := range c.ParticipatingVariables() {
			watchers[v] = append(watchers[v], i)
		}
	}

	soi := NewSoIManager(constraints, numVars, cfg.MCMCBeta, cfg.Seed)
	cost := NewHeuristicCostManager(soi, cfg.SoISearchStrategy, cfg.SoIInitStrategy)
	smt := NewSmtCore(trail, bm, eqs, constraints, cfg.ReluplexSplitThreshold)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		cfg:            cfg,
		trail:          trail,
		bm:             bm,
		eqs:            eqs,
		constraints:    constraints,
		watchers:       watchers,
		smt:            smt,
		cost:           cost,
		impact:         newPseudoImpactTrackerFor(cfg),
		lp:             lp,
		nlr:            nlr,
		appliedImplied: applied,
		stats:          NewStatistics(cfg.Registry),
		logger:         logger,
	}
}

// SetDeadline bounds this Engine's wall-clock budget (per-subquery
// timeout under divide-and-conquer, or the global --timeout otherwise).
func (e *Engine) SetDeadline(d time.Time) { e.deadline = d }

// ApplyInitialSplit seeds the bound manager and equation pool with a
// divide-and-conquer subquery's accumulated split before Solve runs.
func (e *Engine) ApplyInitialSplit(split CaseSplit) {
	for _, t := range split.Tightenings {
		switch t.Kind {
		case Lower:
			e.bm.TightenLower(t.Variable, t.Value)
		case Upper:
			e.bm.TightenUpper(t.Variable, t.Value)
		}
	}
	e.eqs.Add(split.Equations...)
}

// BoundManager exposes the engine's bound manager, for divider strategies
// and tests that need to inspect current bounds.
func (e *Engine) BoundManager() *BoundManager { return e.bm }

// Constraints exposes the constraint arena, for dividers/tests.
func (e *Engine) Constraints() []PLConstraint { return e.constraints }

// Solve runs the main loop of spec.md §4.7 to completion, a terminal
// verdict, a timeout, or ctx cancellation (QuitRequested).
func (e *Engine) Solve(ctx context.Context) (Result, error) {
	e.eqs.Replace(mergeEquations(eliminateFixedVariables(e.eqs.All(), e.bm)))
	e.propagateInitialBounds()
	e.seedCostManager()

	for {
		if ctx.Err() != nil {
			return Result{Exit: ExitQuitRequested, Stats: e.stats}, nil
		}
		if !e.deadline.IsZero() && time.Now().After(e.deadline) {
			return Result{Exit: ExitTimeout, Stats: e.stats}, nil
		}
		e.stats.RecordVisit()
		e.stats.RecordBoundManagerStats(e.bm)

		if !e.bm.Consistent() {
			if !e.smt.PopSplit() {
				return Result{Exit: ExitUnsat, Stats: e.stats}, nil
			}
			continue
		}

		e.propagateTighteningsUntilFixedpoint()
		if !e.bm.Consistent() {
			if !e.smt.PopSplit() {
				return Result{Exit: ExitUnsat, Stats: e.stats}, nil
			}
			continue
		}
		e.applyImpliedCaseSplits()

		assignment, status, pivot, err := e.lp.Solve(e.eqs.All(), e.bm, nil)
		e.stats.RecordPivot(pivot)
		if err != nil {
			return Result{Exit: ExitError, Stats: e.stats}, err
		}
		if ctx.Err() != nil {
			return Result{Exit: ExitQuitRequested, Stats: e.stats}, nil
		}
		if status == LPError {
			return Result{Exit: ExitError, Stats: e.stats}, errors.Wrap(ErrBackend, "plsolver: LP solve")
		}
		if status != LPOptimal {
			if !e.smt.PopSplit() {
				return Result{Exit: ExitUnsat, Stats: e.stats}, nil
			}
			continue
		}

		if e.allSatisfied(assignment) {
			return Result{Exit: ExitSat, Assignment: assignment, Stats: e.stats}, nil
		}

		if e.refineLinearizations(assignment) {
			continue
		}

		e.soiStep(assignment)

		if e.smt.NeedToSplit() {
			c := e.pickSplitConstraint(assignment)
			if c < 0 {
				return Result{Exit: ExitUnsat, Stats: e.stats}, nil
			}
			e.smt.SetSplitConstraint(c)
			e.smt.PerformSplit()
			e.cost.SoI().Remove(c)
		}
	}
}

// eliminateFixedVariables substitutes every addend whose variable's
// bounds have already collapsed to a point into the equation's scalar,
// per spec.md §4.7's preprocessing step. PL-constraint-requested
// auxiliary variables are not a separate injection step here: each
// constraint variant declares its own aux variable(s) at construction
// (e.g. NewReluWithAux), so there is nothing left for preprocessing to
// add once the constraint arena is built.
func eliminateFixedVariables(equations []Equation, bm *BoundManager) []Equation {
	out := make([]Equation, len(equations))
	for i, eq := range equations {
		scalar := eq.Scalar
		var kept []Addend
		for _, a := range eq.Addends {
			lo, hi := bm.Lower(a.Variable), bm.Upper(a.Variable)
			if lo == hi && !math.IsInf(lo, 0) {
				scalar -= a.Coefficient * lo
				continue
			}
			kept = append(kept, a)
		}
		out[i] = Equation{Addends: kept, Scalar: scalar, Relation: eq.Relation}
	}
	return out
}

// mergeEquations drops equations left empty by eliminateFixedVariables
// (a fully-substituted equation is a constant identity, checked once and
// never again) and structurally-duplicate equations, per spec.md §4.7's
// preprocessing step.
func mergeEquations(equations []Equation) []Equation {
	seen := map[string]bool{}
	out := make([]Equation, 0, len(equations))
	for _, eq := range equations {
		if len(eq.Addends) == 0 {
			continue
		}
		key := equationKey(eq)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, eq)
	}
	return out
}

func equationKey(eq Equation) string {
	addends := append([]Addend(nil), eq.Addends...)
	sort.Slice(addends, func(i, j int) bool { return addends[i].Variable < addends[j].Variable })
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%g|", eq.Relation, eq.Scalar)
	for _, a := range addends {
		fmt.Fprintf(&b, "%d:%g,", a.Variable, a.Coefficient)
	}
	return b.String()
}

func (e *Engine) propagateInitialBounds() {
	e.propagateTighteningsUntilFixedpoint()
	e.applyImpliedCaseSplits()
}

func (e *Engine) seedCostManager() {
	var seed []float64
	if e.nlr != nil {
		inputs := map[int]float64{}
		for _, v := range e.nlr.InputVariables() {
			inputs[v] = midpoint(e.bm.Lower(v), e.bm.Upper(v))
		}
		seed = e.nlr.Evaluate(inputs)
	} else {
		seed = make([]float64, e.bm.NumVariables())
		for v := range seed {
			seed[v] = midpoint(e.bm.Lower(v), e.bm.Upper(v))
		}
	}
	e.cost.Initialize(seed)
}

// propagateTighteningsUntilFixedpoint drains the bound manager's pending
// tightenings, notifying every watcher, until no new tightenings arrive.
func (e *Engine) propagateTighteningsUntilFixedpoint() {
	for {
		pending := e.bm.DrainTightenings()
		if len(pending) == 0 {
			return
		}
		if !e.bm.Consistent() {
			return
		}
		for _, t := range pending {
			for _, ci := range e.watchers[t.Variable] {
				c := e.constraints[ci]
				if !c.Active() {
					continue
				}
				switch t.Kind {
				case Lower:
					c.NotifyLowerBound(e.bm, t.Variable, t.Value)
				case Upper:
					c.NotifyUpperBound(e.bm, t.Variable, t.Value)
				}
			}
		}
	}
}

// applyImpliedCaseSplits applies the valid split of every active,
// newly-phase-fixed constraint, then removes it from the SoI pattern
// (spec.md §4.4's remove(c)).
func (e *Engine) applyImpliedCaseSplits() {
	for i, c := range e.constraints {
		if !c.Active() || !c.PhaseFixed() || e.appliedImplied[i].Get() {
			continue
		}
		split := c.ValidSplit()
		for _, t := range split.Tightenings {
			switch t.Kind {
			case Lower:
				e.bm.TightenLower(t.Variable, t.Value)
			case Upper:
				e.bm.TightenUpper(t.Variable, t.Value)
			}
		}
		e.eqs.Add(split.Equations...)
		e.appliedImplied[i].Set(true)
		e.smt.RecordImpliedValidSplit(split)
		e.cost.SoI().Remove(i)
	}
}

// refineLinearizations looks for an active Linearizer-capable constraint
// violated by assignment and applies its one-round tightening directly
// to the bound manager, mirroring original_source's incremental
// linearization (SPEC_FULL.md SUPPLEMENTED FEATURES). Returns true if any
// tightening was applied, signaling the caller to re-propagate and
// re-solve the LP instead of falling through to the SoI search.
func (e *Engine) refineLinearizations(assignment []float64) bool {
	applied := false
	for _, c := range e.constraints {
		lz, ok := c.(Linearizer)
		if !ok || !c.Active() || c.Satisfied(assignment) {
			continue
		}
		split, ok := lz.Refine(e.bm, assignment)
		if !ok {
			continue
		}
		for _, t := range split.Tightenings {
			switch t.Kind {
			case Lower:
				e.bm.TightenLower(t.Variable, t.Value)
			case Upper:
				e.bm.TightenUpper(t.Variable, t.Value)
			}
		}
		applied = true
	}
	return applied
}

func (e *Engine) allSatisfied(assignment []float64) bool {
	for _, c := range e.constraints {
		if !c.Satisfied(assignment) {
			return false
		}
	}
	return true
}

// soiStep proposes and (maybe) commits one local-search flip, mirroring
// spec.md §4.7's propose/evaluate/accept-or-undo step.
func (e *Engine) soiStep(assignment []float64) {
	e.cost.SoI().RefreshForSatisfiedConstraints(assignment)
	proposed, guaranteed := e.cost.UpdateCost(assignment)
	if !proposed {
		e.smt.ReportRandomFlip()
		return
	}
	currentCost := e.cost.SoI().SoIExpr().Evaluate(assignment)
	proposedCost := e.cost.SoI().ProposedSoIExpr().Evaluate(assignment)
	if e.cost.Accept(currentCost, proposedCost) {
		if c, ok := e.cost.SoI().PendingConstraint(); ok {
			e.impact.Update(c, currentCost-proposedCost)
		}
		e.cost.CommitProposal()
	} else {
		e.cost.UndoLastUpdate()
	}
	if !guaranteed {
		e.smt.ReportRandomFlip()
	}
}

// pickSplitConstraint resolves Config.BranchStrategy to a concrete
// constraint index, or -1 if none qualify (tree genuinely has nothing
// left to split, i.e. Unsat).
func (e *Engine) pickSplitConstraint(assignment []float64) int {
	eligible := func(i int) bool {
		return e.constraints[i].Active() && !e.constraints[i].PhaseFixed()
	}
	switch e.cfg.BranchStrategy {
	case BranchPseudoImpact:
		if c := e.impact.TopUnfixed(eligible); c >= 0 {
			return c
		}
		return e.firstEligible(eligible)
	case BranchPolarity:
		return e.pickByPolarity(eligible)
	case BranchLargestInterv:
		return e.pickByLargestInterval(eligible)
	case BranchReLUViolation:
		return e.pickByReluViolation(assignment, eligible)
	default:
		return e.firstReLU(eligible)
	}
}

func (e *Engine) firstEligible(eligible func(int) bool) int {
	for i := range e.constraints {
		if eligible(i) {
			return i
		}
	}
	return -1
}

func (e *Engine) firstReLU(eligible func(int) bool) int {
	for i, c := range e.constraints {
		if eligible(i) && c.Kind() == "relu" {
			return i
		}
	}
	return e.firstEligible(eligible)
}

func (e *Engine) pickByPolarity(eligible func(int) bool) int {
	best, bestAbs, scanned := -1, math.Inf(1), 0
	for i, c := range e.constraints {
		if !eligible(i) {
			continue
		}
		scanned++
		if scanned > e.cfg.PolaritySplitCandidates {
			break
		}
		scorer, ok := c.(polarityScorer)
		if !ok {
			continue
		}
		s := math.Abs(scorer.Score(e.bm))
		if s < bestAbs {
			bestAbs, best = s, i
		}
	}
	if best >= 0 {
		return best
	}
	return e.firstEligible(eligible)
}

func (e *Engine) pickByLargestInterval(eligible func(int) bool) int {
	best, bestWidth := -1, -1.0
	for i, c := range e.constraints {
		if !eligible(i) {
			continue
		}
		vars := c.ParticipatingVariables()
		if len(vars) == 0 {
			continue
		}
		lo, hi := e.bm.Lower(vars[0]), e.bm.Upper(vars[0])
		if math.IsInf(lo, -1) || math.IsInf(hi, 1) {
			continue
		}
		if w := hi - lo; w > bestWidth {
			bestWidth, best = w, i
		}
	}
	if best >= 0 {
		return best
	}
	return e.firstEligible(eligible)
}

func (e *Engine) pickByReluViolation(assignment []float64, eligible func(int) bool) int {
	best, bestViolation := -1, -1.0
	for i, c := range e.constraints {
		if !eligible(i) || c.Kind() != "relu" {
			continue
		}
		r := c.(*Relu)
		want := math.Max(assignment[r.B], 0)
		v := math.Abs(assignment[r.F] - want)
		if v > bestViolation {
			bestViolation, best = v, i
		}
	}
	if best >= 0 {
		return best
	}
	return e.firstEligible(eligible)
}
