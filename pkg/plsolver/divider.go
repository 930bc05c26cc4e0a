package plsolver

import "math"

// SubQuery is a plain owned value describing one leaf of the
// divide-and-conquer tree: the combined case split accumulated from the
// root down to this leaf, and the per-subquery timeout budget. Passed
// across worker boundaries by value, replacing the source's unique_ptr
// handoff through a Boost lock-free queue (spec.md §9).
type SubQuery struct {
	ID             int
	Split          CaseSplit
	TimeoutSeconds float64
}

// overrideBounds lets a Divider consult the bounds a branch would have
// without mutating the shared BoundManager, since sibling branches must
// see the parent's bounds, not each other's.
type overrideBounds struct {
	bm  *BoundManager
	lo  map[int]float64
	hi  map[int]float64
}

func (o *overrideBounds) Lower(v int) float64 {
	if x, ok := o.lo[v]; ok {
		return x
	}
	return o.bm.Lower(v)
}

func (o *overrideBounds) Upper(v int) float64 {
	if x, ok := o.hi[v]; ok {
		return x
	}
	return o.bm.Upper(v)
}

func (o *overrideBounds) withTightening(t Tightening) *overrideBounds {
	next := &overrideBounds{bm: o.bm, lo: o.lo, hi: o.hi}
	switch t.Kind {
	case Lower:
		next.lo = cloneFloatMap(o.lo)
		next.lo[t.Variable] = t.Value
	case Upper:
		next.hi = cloneFloatMap(o.hi)
		next.hi[t.Variable] = t.Value
	}
	return next
}

func cloneFloatMap(m map[int]float64) map[int]float64 {
	next := make(map[int]float64, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	return next
}

// Divider chooses the next splitting decision given the bounds a branch
// would observe at that point in the divide tree, per spec.md §4.8.
type Divider interface {
	// ChooseSplit returns the case splits (one per child) to branch the
	// current node on, given the overridden bounds and constraint arena.
	// Returns nil if nothing further can be split (e.g. no input
	// variables left with positive width).
	ChooseSplit(bounds *overrideBounds, constraints []PLConstraint, inputVars []int) []CaseSplit
}

// LargestIntervalDivider bisects the input variable with the widest
// hi-lo at the midpoint.
type LargestIntervalDivider struct{}

func (LargestIntervalDivider) ChooseSplit(bounds *overrideBounds, _ []PLConstraint, inputVars []int) []CaseSplit {
	best, bestWidth := -1, 0.0
	for _, v := range inputVars {
		lo, hi := bounds.Lower(v), bounds.Upper(v)
		if math.IsInf(lo, -1) || math.IsInf(hi, 1) {
			continue
		}
		if w := hi - lo; w > bestWidth {
			bestWidth = w
			best = v
		}
	}
	if best == -1 || bestWidth <= Tolerance {
		return nil
	}
	mid := (bounds.Lower(best) + bounds.Upper(best)) / 2
	return []CaseSplit{
		{Tightenings: []Tightening{{Variable: best, Value: mid, Kind: Upper}}},
		{Tightenings: []Tightening{{Variable: best, Value: mid, Kind: Lower}}},
	}
}

// polarityScorer is implemented by PL constraint variants (currently
// Relu) that expose a branching polarity score.
type polarityScorer interface {
	Score(bm *BoundManager) float64
}

// orderedSplitter is implemented by PL constraint variants (currently
// Relu) that can reorder their CaseSplits by polarity, per spec.md
// §4.6's "try the side current bounds favor first" rule.
type orderedSplitter interface {
	OrderedCaseSplits(bm *BoundManager) []CaseSplit
}

// caseSplitsFor returns c's ordered CaseSplits when it supports
// polarity-based ordering, falling back to its canonical order
// otherwise.
func caseSplitsFor(c PLConstraint, bm *BoundManager) []CaseSplit {
	if o, ok := c.(orderedSplitter); ok {
		return o.OrderedCaseSplits(bm)
	}
	return c.CaseSplits()
}

// PolarityDivider scans the first K unfixed PL constraints in arena order
// (a stand-in for topological order, since the arena is populated in
// construction/dependency order) and picks the one with the smallest
// |polarity|. Polarity is read from the shared BoundManager (bounds.bm),
// not from the tightenings accumulated along the divide tree, so
// successive levels can pick the same constraint again.
type PolarityDivider struct {
	K int
}

func (p PolarityDivider) ChooseSplit(bounds *overrideBounds, constraints []PLConstraint, _ []int) []CaseSplit {
	best := -1
	bestAbs := math.Inf(1)
	scanned := 0
	for i, c := range constraints {
		if !c.Active() || c.PhaseFixed() {
			continue
		}
		scanned++
		if scanned > p.K {
			break
		}
		scorer, ok := c.(polarityScorer)
		if !ok {
			continue
		}
		score := scorer.Score(bounds.bm)
		if math.Abs(score) < bestAbs {
			bestAbs = math.Abs(score)
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	return caseSplitsFor(constraints[best], bounds.bm)
}

// EarliestReLUDivider takes the first unfixed relu-kind constraint in
// arena order. Constraints split at shallower levels of the divide tree
// are not excluded, so with more than one level the same constraint is
// split again.
type EarliestReLUDivider struct{}

func (EarliestReLUDivider) ChooseSplit(bounds *overrideBounds, constraints []PLConstraint, _ []int) []CaseSplit {
	for _, c := range constraints {
		if c.Active() && !c.PhaseFixed() && c.Kind() == "relu" {
			return caseSplitsFor(c, bounds.bm)
		}
	}
	return nil
}

// NewDivider resolves a configured SplitStrategy to its Divider.
func NewDivider(strategy SplitStrategy, polarityCandidates int) Divider {
	switch strategy {
	case SplitPolarity:
		return PolarityDivider{K: polarityCandidates}
	case SplitEarliestReLU:
		return EarliestReLUDivider{}
	default:
		return LargestIntervalDivider{}
	}
}

// GenerateSubQueries bisects levels times from the root, producing up to
// 2^levels subqueries (fewer if a branch runs out of splitting
// candidates). Each subquery's Split is the conjunction of tightenings
// accumulated from root to leaf.
func GenerateSubQueries(divider Divider, bm *BoundManager, constraints []PLConstraint, inputVars []int, levels int, timeoutSeconds float64) []SubQuery {
	root := &overrideBounds{bm: bm}
	leaves := divideNode(divider, root, constraints, inputVars, levels, CaseSplit{})
	out := make([]SubQuery, len(leaves))
	for i, split := range leaves {
		out[i] = SubQuery{ID: i, Split: split, TimeoutSeconds: timeoutSeconds}
	}
	return out
}

func divideNode(divider Divider, bounds *overrideBounds, constraints []PLConstraint, inputVars []int, levelsLeft int, accumulated CaseSplit) []CaseSplit {
	if levelsLeft <= 0 {
		return []CaseSplit{accumulated}
	}
	children := divider.ChooseSplit(bounds, constraints, inputVars)
	if len(children) == 0 {
		return []CaseSplit{accumulated}
	}
	var out []CaseSplit
	for _, child := range children {
		combined := CaseSplit{
			Tightenings: append(append([]Tightening(nil), accumulated.Tightenings...), child.Tightenings...),
			Equations:   append(append([]Equation(nil), accumulated.Equations...), child.Equations...),
		}
		nextBounds := bounds
		for _, t := range child.Tightenings {
			nextBounds = nextBounds.withTightening(t)
		}
		out = append(out, divideNode(divider, nextBounds, constraints, inputVars, levelsLeft-1, combined)...)
	}
	return out
}

// RepartitionTimeout produces the children a timed-out subquery is split
// into for re-enqueueing: bisect its own remaining split onlineDivides
// levels deeper using the same divider, per spec.md §4.8.
func RepartitionTimeout(divider Divider, bm *BoundManager, constraints []PLConstraint, inputVars []int, parent SubQuery, onlineDivides int, childTimeout float64) []SubQuery {
	bounds := &overrideBounds{bm: bm}
	for _, t := range parent.Split.Tightenings {
		bounds = bounds.withTightening(t)
	}
	leaves := divideNode(divider, bounds, constraints, inputVars, onlineDivides, parent.Split)
	out := make([]SubQuery, len(leaves))
	for i, split := range leaves {
		out[i] = SubQuery{ID: parent.ID*1000 + i, Split: split, TimeoutSeconds: childTimeout}
	}
	return out
}
