package plsolver

// Linearizer is implemented by nonlinear, non-PL constraint variants
// (currently Cosine) that can tighten their own bounds around a
// candidate assignment that violates them. The Engine consults it on each
// main-loop iteration whose LP assignment leaves some constraint
// unsatisfied, before the SoI step. Ported from original_source/src/cegar/
// IncrementalLinearization.cpp, kept to a single refinement round per
// SPEC_FULL.md's SUPPLEMENTED FEATURES — full CEGAR iteration (refining
// until a tolerance or giving up after N rounds with a separate status)
// is out of the stated core scope.
type Linearizer interface {
	// Refine returns a CaseSplit tightening the constraint's output
	// variable around assignment, or false if no further tightening
	// applies (e.g. the interval straddles a concavity change, or the
	// bound is already as tight as the linearization allows).
	Refine(bm *BoundManager, assignment []float64) (CaseSplit, bool)
}
