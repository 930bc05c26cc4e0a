package plsolver

// PLConstraint is the uniform contract every piecewise-linear activation
// constraint honors: bound watching, phase tracking, case-split
// enumeration, entailed tightenings, and cost contribution for local
// search. This is the Go realization of spec.md §4.2 — a sealed set of
// concrete structs implement it rather than a class hierarchy, per the
// Design Notes' re-architecture of the original's virtual inheritance.
type PLConstraint interface {
	// ParticipatingVariables returns the stable set of variables this
	// constraint watches.
	ParticipatingVariables() []int

	// NotifyLowerBound is called by the BoundManager when a watched
	// variable's lower bound tightens to x. May push entailed tightenings
	// back onto bm and may transition phase. Must be a no-op if x is not
	// strictly tighter than the bound the constraint last observed.
	NotifyLowerBound(bm *BoundManager, variable int, x float64)

	// NotifyUpperBound is the symmetric counterpart of NotifyLowerBound.
	NotifyUpperBound(bm *BoundManager, variable int, x float64)

	// Satisfied reports whether assignment satisfies the constraint's
	// relation within Tolerance.
	Satisfied(assignment []float64) bool

	// CaseSplits enumerates every phase as a CaseSplit. Callers must not
	// invoke this when PhaseFixed() is true.
	CaseSplits() []CaseSplit

	// PhaseFixed reports whether exactly one phase is consistent with the
	// constraint's current bounds.
	PhaseFixed() bool

	// ValidSplit returns the unique implied split. Precondition:
	// PhaseFixed().
	ValidSplit() CaseSplit

	// AllCases enumerates every phase this constraint can take. Order
	// matters: the first-listed phase is tried first when branching.
	AllCases() []Phase

	// EntailedTightenings appends the deductive closure of the current
	// bounds under the constraint's relation to out.
	EntailedTightenings(out []Tightening) []Tightening

	// CostComponent adds the linear cost term realizing "distance to
	// phase" for the given phase into expr.
	CostComponent(expr *LinearExpr, phase Phase)

	// PhaseInAssignment classifies a concrete assignment into a phase.
	PhaseInAssignment(assignment []float64) Phase

	// Duplicate returns an independent copy for divide-and-conquer
	// subquery construction. The copy's state lives in new cells
	// registered on the same Trail as the original; it carries the active
	// flag and the phase, not the set of phases marked infeasible.
	Duplicate() PLConstraint

	// RestoreFrom overwrites this constraint's active flag and phase from
	// a duplicate previously produced by Duplicate; the set of phases
	// marked infeasible is left as it is.
	RestoreFrom(other PLConstraint)

	// MarkInfeasible records that phase has been excluded on the current
	// branch.
	MarkInfeasible(phase Phase)

	// Active reports whether this constraint still participates in
	// search (false once branched on or eliminated).
	Active() bool

	// Activate/Deactivate toggle participation.
	Activate()
	Deactivate()

	// Phase returns the constraint's currently known phase (PhaseNotFixed
	// if undetermined).
	Phase() Phase

	// Serialize renders the constraint as one "kind,f,b[,extra...]" text
	// line per spec.md §6.
	Serialize() string

	// Kind names the constraint variant, e.g. "relu", "absoluteValue".
	Kind() string
}

// base holds the bookkeeping every concrete variant shares: the active
// flag, current phase, and the set of phases ruled out on this branch. It
// is embedded (not inherited from) by each variant, matching the "sealed
// sum type via a small fixed method set" re-architecture in the Design
// Notes. Its three fields are Trail cells so branch/backtrack (B2, B3) is
// automatic.
type base struct {
	trail      *Trail
	active     *Cell[bool]
	phase      *Cell[Phase]
	infeasible *Cell[map[Phase]bool]
}

func newBase(trail *Trail) base {
	return base{
		trail:      trail,
		active:     NewCell(trail, true),
		phase:      NewCell(trail, PhaseNotFixed),
		infeasible: NewCell(trail, map[Phase]bool{}),
	}
}

func (b *base) Active() bool    { return b.active.Get() }
func (b *base) Activate()       { b.active.Set(true) }
func (b *base) Deactivate()     { b.active.Set(false) }
func (b *base) Phase() Phase    { return b.phase.Get() }
func (b *base) PhaseFixed() bool {
	return b.phase.Get() != PhaseNotFixed
}

// setPhase enforces invariant B3: NotFixed->P or P->P within a branch,
// never P->Q or P->NotFixed. Setting the same phase again is a no-op.
func (b *base) setPhase(p Phase) {
	cur := b.phase.Get()
	if cur == p {
		return
	}
	if cur != PhaseNotFixed {
		// Already fixed to a different phase: ignore rather than violate
		// B3. Callers only ever call setPhase with the phase implied by
		// current bounds, so this should not happen in practice; treating
		// it as a no-op keeps the invariant airtight against bugs in a
		// variant's bound-notification logic.
		return
	}
	b.phase.Set(p)
}

// markInfeasible records phase as excluded on this branch. Copies the map
// (Cell values must not be mutated in place, or Trail restoration would
// observe the mutation rather than the recorded snapshot).
func (b *base) markInfeasible(phase Phase) {
	cur := b.infeasible.Get()
	next := make(map[Phase]bool, len(cur)+1)
	for k := range cur {
		next[k] = true
	}
	next[phase] = true
	b.infeasible.Set(next)
}

func (b *base) isInfeasible(phase Phase) bool {
	return b.infeasible.Get()[phase]
}

// infeasibleCount reports how many phases have been excluded on this
// branch, for invariant B4 (unsat once this equals the full case count).
func (b *base) infeasibleCount() int {
	return len(b.infeasible.Get())
}
