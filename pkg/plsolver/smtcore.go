package plsolver

// StackFrame is one level of the case-split search tree, ported from
// spec.md §4.6 and original_source/src/engine/SmtCore.cpp's
// performSplit/popSplit pair, in the same spirit as the teacher's
// DFSSearch.Search() iterative stack of choice points.
type StackFrame struct {
	ConstraintIndex    int
	ActiveSplit        CaseSplit
	AlternativeSplits  []CaseSplit
	ImpliedValidSplits []CaseSplit
}

// SmtCore is the case-split controller (C6).
type SmtCore struct {
	trail       *Trail
	bm          *BoundManager
	eqs         *EquationPool
	constraints []PLConstraint

	stack       []*StackFrame
	rootImplied []CaseSplit

	needToSplit     bool
	splitConstraint int

	randomFlipCount     int
	violationThreshold  int
}

// NewSmtCore creates a controller over the given trail/bound
// manager/equation pool/constraint arena.
func NewSmtCore(trail *Trail, bm *BoundManager, eqs *EquationPool, constraints []PLConstraint, violationThreshold int) *SmtCore {
	return &SmtCore{
		trail:              trail,
		bm:                 bm,
		eqs:                eqs,
		constraints:        constraints,
		splitConstraint:    -1,
		violationThreshold: violationThreshold,
	}
}

func (s *SmtCore) NeedToSplit() bool { return s.needToSplit }

// ReportRandomFlip records that the SoI search just took an unguaranteed
// (random) flip, which signals stalled progress; once more than
// violationThreshold such flips accumulate without an intervening split,
// need_to_split is raised.
func (s *SmtCore) ReportRandomFlip() {
	s.randomFlipCount++
	if s.randomFlipCount > s.violationThreshold {
		s.needToSplit = true
	}
}

// SetSplitConstraint records which constraint the engine chose to branch
// on (via a BranchStrategy / the pseudo-impact tracker), for the next
// PerformSplit call.
func (s *SmtCore) SetSplitConstraint(c int) { s.splitConstraint = c }

func (s *SmtCore) applySplit(split CaseSplit) {
	for _, t := range split.Tightenings {
		switch t.Kind {
		case Lower:
			s.bm.TightenLower(t.Variable, t.Value)
		case Upper:
			s.bm.TightenUpper(t.Variable, t.Value)
		}
	}
	s.eqs.Add(split.Equations...)
}

// PerformSplit deactivates the chosen constraint, applies its first case
// split, and pushes a new stack frame, per spec.md §4.6 steps 1-6.
// Preconditions: NeedToSplit() and a chosen constraint (SetSplitConstraint
// called since the last PerformSplit).
func (s *SmtCore) PerformSplit() {
	if !s.needToSplit || s.splitConstraint < 0 {
		return
	}
	c := s.constraints[s.splitConstraint]
	c.Deactivate()
	splits := caseSplitsFor(c, s.bm)

	s.trail.Push()
	s.applySplit(splits[0])
	s.stack = append(s.stack, &StackFrame{
		ConstraintIndex:   s.splitConstraint,
		ActiveSplit:       splits[0],
		AlternativeSplits: append([]CaseSplit(nil), splits[1:]...),
	})

	s.needToSplit = false
	s.splitConstraint = -1
	s.randomFlipCount = 0
}

// PopSplit backtracks to the nearest frame with an untried alternative and
// applies it, per spec.md §4.6 steps 1-6. Returns false when the tree is
// exhausted (signaling Unsat).
func (s *SmtCore) PopSplit() bool {
	for len(s.stack) > 0 && len(s.stack[len(s.stack)-1].AlternativeSplits) == 0 {
		s.stack = s.stack[:len(s.stack)-1]
		s.trail.Pop()
	}
	if len(s.stack) == 0 {
		return false
	}
	s.trail.Pop()

	top := s.stack[len(s.stack)-1]
	alt := top.AlternativeSplits[0]
	top.AlternativeSplits = top.AlternativeSplits[1:]
	top.ImpliedValidSplits = nil

	s.trail.Push()
	s.applySplit(alt)
	top.ActiveSplit = alt
	return true
}

// RecordImpliedValidSplit appends split to the current top frame's implied
// list, or to the root-level list if the stack is empty.
func (s *SmtCore) RecordImpliedValidSplit(split CaseSplit) {
	if len(s.stack) == 0 {
		s.rootImplied = append(s.rootImplied, split)
		return
	}
	top := s.stack[len(s.stack)-1]
	top.ImpliedValidSplits = append(top.ImpliedValidSplits, split)
}

// AllSplitsSoFar returns the ordered concatenation of root-implied splits,
// then for each frame, its active split followed by its implied splits.
func (s *SmtCore) AllSplitsSoFar() []CaseSplit {
	out := append([]CaseSplit(nil), s.rootImplied...)
	for _, frame := range s.stack {
		out = append(out, frame.ActiveSplit)
		out = append(out, frame.ImpliedValidSplits...)
	}
	return out
}

// Depth reports how many case splits are currently active on this branch.
func (s *SmtCore) Depth() int { return len(s.stack) }
