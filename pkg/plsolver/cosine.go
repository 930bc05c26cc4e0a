package plsolver

import (
	"fmt"
	"math"
)

// Cosine phases split [lo(b), hi(b)] around the nearest extrema of cos: a
// window containing a maximum (cos = 1 achievable), one containing a
// minimum (cos = -1 achievable), and the general monotonic window where
// cos is increasing or decreasing throughout and the range is bounded by
// its endpoints. bounds also reports CosineMonotonic for an unbounded
// window and for one containing both a maximum and a minimum; the range
// there is the full [-1, 1]. This is a supplemented constraint (not in spec.md's base
// set): original_source computes f's bounds by scanning b's range in
// 0.0005 steps, which the REDESIGN FLAGS call out as needlessly imprecise;
// here bounds come from the closed form of where cos' sign changes within
// [lo, hi].
const (
	CosineMonotonic Phase = iota + 1
	CosineContainsMax
	CosineContainsMin
)

// Cosine implements f = cos(b).
type Cosine struct {
	base
	B, F int
}

// NewCosine creates f = cos(b).
func NewCosine(trail *Trail, b, f int) *Cosine {
	return &Cosine{base: newBase(trail), B: b, F: f}
}

func (c *Cosine) Kind() string { return "cosine" }

func (c *Cosine) ParticipatingVariables() []int { return []int{c.B, c.F} }

// bounds returns the tightest [lo, hi] for cos(x) over x in [lo, hi],
// computed by checking whether the range contains a multiple of 2*pi
// (cos = 1) or pi + 2*pi*k (cos = -1); absent either, cos is monotonic on
// the interval and its image is bounded by the endpoint values.
func (c *Cosine) bounds(lo, hi float64) (float64, float64, Phase) {
	if math.IsInf(lo, -1) || math.IsInf(hi, 1) {
		return -1, 1, CosineMonotonic
	}
	containsMultiple := func(period, phaseOffset float64) bool {
		k := math.Floor((lo - phaseOffset) / period)
		for ; k*period+phaseOffset <= hi+Tolerance; k++ {
			x := k*period + phaseOffset
			if x >= lo-Tolerance && x <= hi+Tolerance {
				return true
			}
		}
		return false
	}
	hasMax := containsMultiple(2*math.Pi, 0)
	hasMin := containsMultiple(2*math.Pi, math.Pi)
	fLo, fHi := math.Cos(lo), math.Cos(hi)
	if fLo > fHi {
		fLo, fHi = fHi, fLo
	}
	switch {
	case hasMax && hasMin:
		return -1, 1, CosineMonotonic
	case hasMax:
		return fLo, 1, CosineContainsMax
	case hasMin:
		return -1, fHi, CosineContainsMin
	default:
		return fLo, fHi, CosineMonotonic
	}
}

func (c *Cosine) NotifyLowerBound(bm *BoundManager, variable int, _ float64) {
	c.propagate(bm, variable)
}

func (c *Cosine) NotifyUpperBound(bm *BoundManager, variable int, _ float64) {
	c.propagate(bm, variable)
}

func (c *Cosine) propagate(bm *BoundManager, variable int) {
	if !c.Active() || variable != c.B {
		return
	}
	lo, hi := c.bounds(bm.Lower(c.B), bm.Upper(c.B))
	bm.TightenLower(c.F, lo)
	bm.TightenUpper(c.F, hi)
}

func (c *Cosine) Satisfied(assignment []float64) bool {
	return floatsEqual(assignment[c.F], math.Cos(assignment[c.B]))
}

// containsZeroOfCos reports whether [lo, hi] contains a point where cos
// changes concavity (cos(x) = 0, i.e. x = pi/2 + k*pi). Outside such a
// point, cos'' has a constant sign on the interval, so a tangent line at
// any point within it bounds cos over the whole interval.
func containsZeroOfCos(lo, hi float64) bool {
	const period = math.Pi
	const phase = math.Pi / 2
	k := math.Floor((lo - phase) / period)
	for x := k*period + phase; x <= hi+Tolerance; x += period {
		if x >= lo-Tolerance && x <= hi+Tolerance {
			return true
		}
	}
	return false
}

// Refine implements Linearizer: a single tangent-line refinement of f's
// bounds around assignment[b], ported from original_source/src/cegar/
// IncrementalLinearization.cpp's per-iteration tightening step. Valid only
// when [lo(b), hi(b)] doesn't straddle a concavity change, since a tangent
// line only bounds cos over a region of constant curvature: concave
// (cos(b0) > 0) means the tangent is an upper bound on f there, convex
// (cos(b0) < 0) means it's a lower bound.
func (c *Cosine) Refine(bm *BoundManager, assignment []float64) (CaseSplit, bool) {
	lo, hi := bm.Lower(c.B), bm.Upper(c.B)
	if math.IsInf(lo, -1) || math.IsInf(hi, 1) || containsZeroOfCos(lo, hi) {
		return CaseSplit{}, false
	}
	b0 := assignment[c.B]
	cos0, sin0 := math.Cos(b0), math.Sin(b0)
	tangent := func(x float64) float64 { return cos0 - sin0*(x-b0) }
	tLo, tHi := tangent(lo), tangent(hi)

	if cos0 < 0 {
		lb := math.Min(tLo, tHi)
		if lb > bm.Lower(c.F)+Tolerance {
			return CaseSplit{Tightenings: []Tightening{{Variable: c.F, Value: lb, Kind: Lower}}}, true
		}
		return CaseSplit{}, false
	}
	ub := math.Max(tLo, tHi)
	if ub < bm.Upper(c.F)-Tolerance {
		return CaseSplit{Tightenings: []Tightening{{Variable: c.F, Value: ub, Kind: Upper}}}, true
	}
	return CaseSplit{}, false
}

// CaseSplits offers no useful branch for a transcendental constraint under
// linear case-split machinery; it contributes a single empty split (no
// tightenings, no equations), deferring to incremental linearization
// (see SPEC_FULL.md's SUPPLEMENTED FEATURES) to refine f's bounds further.
func (c *Cosine) CaseSplits() []CaseSplit {
	return []CaseSplit{{}}
}

func (c *Cosine) PhaseFixed() bool { return false }

func (c *Cosine) ValidSplit() CaseSplit { return CaseSplit{} }

func (c *Cosine) AllCases() []Phase { return []Phase{CosineMonotonic} }

func (c *Cosine) EntailedTightenings(out []Tightening) []Tightening { return out }

// CostComponent contributes nothing: Cosine is never phase-fixed, so it
// stays in the SoI pattern (which holds the active, unfixed constraints),
// but its summand is empty.
func (c *Cosine) CostComponent(_ *LinearExpr, _ Phase) {}

func (c *Cosine) PhaseInAssignment(_ []float64) Phase { return CosineMonotonic }

func (c *Cosine) Duplicate() PLConstraint {
	clone := &Cosine{base: newBase(c.trail), B: c.B, F: c.F}
	clone.active.Set(c.Active())
	return clone
}

func (c *Cosine) RestoreFrom(other PLConstraint) {
	o := other.(*Cosine)
	c.active.Set(o.Active())
}

func (c *Cosine) MarkInfeasible(_ Phase) {}

func (c *Cosine) Serialize() string { return fmt.Sprintf("cosine,%d,%d", c.F, c.B) }
