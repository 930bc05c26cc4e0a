package plsolver

import "sort"

// ScoreUpdater computes constraint c's next tracked score given its
// previous score, the latest observed delta, the tracker's alpha, and how
// many updates c has received so far (including this one). Folding
// original_source's separate PseudoCostTracker.h in as an alternate
// ScoreUpdater keeps it the same data structure as PseudoImpactTracker
// rather than a second component (SPEC_FULL.md SUPPLEMENTED FEATURES).
type ScoreUpdater func(prevScore, delta, alpha float64, count int) float64

// EWMAScoreUpdater is the default: an exponential moving average with
// smoothing factor alpha, per spec.md §4.9.
func EWMAScoreUpdater(prevScore, delta, alpha float64, _ int) float64 {
	return (1-alpha)*prevScore + alpha*delta
}

// PseudoCostScoreUpdater is the original's PseudoCostTracker.h variant: a
// plain running mean of delta, with no decay, so one large early impact
// isn't washed out by alpha the way EWMA would.
func PseudoCostScoreUpdater(prevScore, delta, _ float64, count int) float64 {
	return prevScore + (delta-prevScore)/float64(count)
}

// PseudoImpactTracker keeps a running score of how much branching on each
// PL constraint has historically reduced the SoI cost, and exposes the
// engine's default branch-selection strategy (§4.9): among the currently
// active, non-phase-fixed constraints, prefer the one with the highest
// historical impact. The scoring rule itself is pluggable via ScoreUpdater.
type PseudoImpactTracker struct {
	alpha   float64
	updater ScoreUpdater
	scores  map[int]float64
	counts  map[int]int
	order   []int // constraint indices in insertion order, for stable tie-breaks
	present map[int]bool
}

// NewPseudoImpactTracker creates a tracker with the given EWMA smoothing
// factor (Config.PseudoImpactAlpha), using EWMAScoreUpdater.
func NewPseudoImpactTracker(alpha float64) *PseudoImpactTracker {
	return NewPseudoImpactTrackerWithUpdater(alpha, EWMAScoreUpdater)
}

// NewPseudoImpactTrackerWithUpdater creates a tracker using updater in
// place of the default EWMA rule, e.g. PseudoCostScoreUpdater.
func NewPseudoImpactTrackerWithUpdater(alpha float64, updater ScoreUpdater) *PseudoImpactTracker {
	return &PseudoImpactTracker{
		alpha:   alpha,
		updater: updater,
		scores:  map[int]float64{},
		counts:  map[int]int{},
		present: map[int]bool{},
	}
}

// Update folds delta (the SoI cost reduction observed from branching on or
// flipping constraint index c) into its running score.
func (t *PseudoImpactTracker) Update(c int, delta float64) {
	t.counts[c]++
	if !t.present[c] {
		t.present[c] = true
		t.order = append(t.order, c)
		t.scores[c] = delta
		return
	}
	t.scores[c] = t.updater(t.scores[c], delta, t.alpha, t.counts[c])
}

// Score returns constraint c's current tracked score (0 if never updated).
func (t *PseudoImpactTracker) Score(c int) float64 {
	return t.scores[c]
}

// TopUnfixed scans tracked constraints in descending score order (ties
// broken by ascending constraint index, a stand-in for the source's
// pointer-identity tie-break since constraints here are arena indices
// rather than pointers) and returns the first whose predicate reports it
// active and not phase-fixed. Returns -1 if none qualify.
func (t *PseudoImpactTracker) TopUnfixed(eligible func(c int) bool) int {
	ranked := append([]int(nil), t.order...)
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := t.scores[ranked[i]], t.scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})
	for _, c := range ranked {
		if eligible(c) {
			return c
		}
	}
	return -1
}
