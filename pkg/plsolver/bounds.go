package plsolver

import "math"

// BoundManagerStats tracks counters the Engine and CLI summary report on.
// It mirrors the role of the teacher's SolverMonitor, but scoped to just
// the bound manager's own bookkeeping; broader engine statistics live in
// Statistics (stats.go).
type BoundManagerStats struct {
	NoopTightenings int64
	Tightenings     int64
}

// BoundManager is the single source of truth for every variable's
// lower/upper bound. It is context-dependent: Push/Pop on the shared Trail
// snapshot and restore every bound, exactly as the teacher's FDStore
// snapshots/undoes domains, generalized from discrete BitSets to real
// intervals.
type BoundManager struct {
	trail *Trail

	lo, hi       []*Cell[float64]
	tightenedLow []*Cell[bool]
	tightenedUp  []*Cell[bool]

	consistent          *Cell[bool]
	firstInconsistency  *Tightening
	firstInconsistentAt int // depth at which the inconsistency was recorded; -1 if none

	pending []Tightening

	Stats BoundManagerStats
}

// NewBoundManager returns a manager with n variables, all bounded
// [-Inf, +Inf], attached to trail.
func NewBoundManager(trail *Trail, n int) *BoundManager {
	bm := &BoundManager{
		trail:               trail,
		lo:                  make([]*Cell[float64], n),
		hi:                  make([]*Cell[float64], n),
		tightenedLow:        make([]*Cell[bool], n),
		tightenedUp:         make([]*Cell[bool], n),
		consistent:          NewCell(trail, true),
		firstInconsistentAt: -1,
	}
	for i := 0; i < n; i++ {
		bm.lo[i] = NewCell(trail, math.Inf(-1))
		bm.hi[i] = NewCell(trail, math.Inf(1))
		bm.tightenedLow[i] = NewCell(trail, false)
		bm.tightenedUp[i] = NewCell(trail, false)
	}
	return bm
}

// NumVariables returns how many variables this manager tracks.
func (bm *BoundManager) NumVariables() int {
	return len(bm.lo)
}

// Lower returns the current lower bound of v.
func (bm *BoundManager) Lower(v int) float64 { return bm.lo[v].Get() }

// Upper returns the current upper bound of v.
func (bm *BoundManager) Upper(v int) float64 { return bm.hi[v].Get() }

// TightenLower sets lo[v] := x if x is strictly greater than the current
// lower bound. Returns whether a change occurred. A no-op call still
// increments Stats.NoopTightenings (matching the spec's requirement that
// no-ops are counted for statistics even though they change nothing).
func (bm *BoundManager) TightenLower(v int, x float64) bool {
	bm.Stats.Tightenings++
	if x <= bm.lo[v].Get() {
		bm.Stats.NoopTightenings++
		return false
	}
	bm.lo[v].Set(x)
	bm.tightenedLow[v].Set(true)
	bm.pending = append(bm.pending, Tightening{Variable: v, Value: x, Kind: Lower})
	if x > bm.hi[v].Get() {
		bm.recordInconsistency(Tightening{Variable: v, Value: x, Kind: Lower})
	}
	return true
}

// TightenUpper sets hi[v] := x if x is strictly less than the current upper
// bound. Symmetric to TightenLower.
func (bm *BoundManager) TightenUpper(v int, x float64) bool {
	bm.Stats.Tightenings++
	if x >= bm.hi[v].Get() {
		bm.Stats.NoopTightenings++
		return false
	}
	bm.hi[v].Set(x)
	bm.tightenedUp[v].Set(true)
	bm.pending = append(bm.pending, Tightening{Variable: v, Value: x, Kind: Upper})
	if x < bm.lo[v].Get() {
		bm.recordInconsistency(Tightening{Variable: v, Value: x, Kind: Upper})
	}
	return true
}

func (bm *BoundManager) recordInconsistency(t Tightening) {
	if !bm.consistent.Get() {
		return
	}
	bm.consistent.Set(false)
	cp := t
	bm.firstInconsistency = &cp
	bm.firstInconsistentAt = bm.trail.Depth()
}

// Consistent reports whether every variable currently has lo <= hi.
func (bm *BoundManager) Consistent() bool {
	return bm.consistent.Get()
}

// ConsistentVar reports whether a single variable's bounds are sane.
func (bm *BoundManager) ConsistentVar(v int) bool {
	return bm.lo[v].Get() <= bm.hi[v].Get()
}

// FirstInconsistency returns the tightening that first produced lo>hi on
// the current branch, or nil if bounds are consistent. It is restored (set
// back to nil) by the Trail like any other reversible state, because the
// flag that gates it is itself a Cell — callers should not assume the
// pointer across a Pop.
func (bm *BoundManager) FirstInconsistency() *Tightening {
	if bm.consistent.Get() {
		return nil
	}
	return bm.firstInconsistency
}

// DrainTightenings moves every pending tightening record out of the
// manager (e.g. for consumption by the LP tableau) and clears the pending
// list. It does not affect consistency tracking.
func (bm *BoundManager) DrainTightenings() []Tightening {
	out := bm.pending
	bm.pending = nil
	return out
}

// Snapshot returns a copy of every current bound, used by PLConstraint
// Duplicate/RestoreFrom implementations and by divide-and-conquer subquery
// construction, which need a plain value rather than a live manager.
func (bm *BoundManager) Snapshot() (lo, hi []float64) {
	n := len(bm.lo)
	lo = make([]float64, n)
	hi = make([]float64, n)
	for i := 0; i < n; i++ {
		lo[i] = bm.lo[i].Get()
		hi[i] = bm.hi[i].Get()
	}
	return lo, hi
}
