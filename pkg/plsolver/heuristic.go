package plsolver

// HeuristicCostManager is the thin wrapper around the SoIManager described
// in spec.md §4.5: it pins down the search/init strategies from Config and
// remembers enough about the last proposal to undo a rejected flip.
type HeuristicCostManager struct {
	soi               *SoIManager
	searchStrategy    SoISearchStrategy
	initStrategy      SoIInitStrategy
	lastFlipGuaranteed bool
}

// NewHeuristicCostManager wraps soi with the configured strategies.
func NewHeuristicCostManager(soi *SoIManager, search SoISearchStrategy, init SoIInitStrategy) *HeuristicCostManager {
	return &HeuristicCostManager{soi: soi, searchStrategy: search, initStrategy: init}
}

// Initialize (re)builds the phase pattern using the configured init
// strategy.
func (h *HeuristicCostManager) Initialize(assignment []float64) {
	h.soi.Initialize(h.initStrategy, assignment)
}

// UpdateCost proposes the next flip under the configured search strategy
// and evaluates it against assignment, returning whether a descent step
// was proposed (true) and whether that descent is *guaranteed* — true
// when Walksat selected a strictly cost-reducing flip, false when MCMC's
// random fallback was used (spec.md §4.5).
func (h *HeuristicCostManager) UpdateCost(assignment []float64) (proposed bool, descentGuaranteed bool) {
	currentCost := h.soi.SoIExpr().Evaluate(assignment)
	if !h.soi.ProposeUpdate(h.searchStrategy, assignment) {
		return false, false
	}
	proposedCost := h.soi.ProposedSoIExpr().Evaluate(assignment)
	h.lastFlipGuaranteed = h.searchStrategy == SoISearchWalksat && proposedCost < currentCost
	return true, h.lastFlipGuaranteed
}

// Accept/Commit/Discard delegate to the wrapped SoIManager.
func (h *HeuristicCostManager) Accept(currentCost, proposedCost float64) bool {
	return h.soi.Accept(currentCost, proposedCost)
}

func (h *HeuristicCostManager) CommitProposal() { h.soi.CommitProposal() }

// UndoLastUpdate discards the pending proposal after a rejection, leaving
// the pattern as it was before UpdateCost was called.
func (h *HeuristicCostManager) UndoLastUpdate() { h.soi.DiscardProposal() }

func (h *HeuristicCostManager) SoI() *SoIManager { return h.soi }
