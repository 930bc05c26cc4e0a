package plsolver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// SplitStrategy names a divide-and-conquer bisection strategy (§4.8).
type SplitStrategy string

const (
	SplitLargestInterval SplitStrategy = "largest-interval"
	SplitPolarity        SplitStrategy = "polarity"
	SplitEarliestReLU    SplitStrategy = "earliest-relu"
)

// BranchStrategy names how the engine picks a PL constraint to branch on
// when the SoI search stalls (§4.6, §4.9).
type BranchStrategy string

const (
	BranchEarliestReLU  BranchStrategy = "earliest-relu"
	BranchPolarity      BranchStrategy = "polarity"
	BranchLargestInterv BranchStrategy = "largest-interval"
	BranchReLUViolation BranchStrategy = "relu-violation"
	BranchPseudoImpact  BranchStrategy = "pseudo-impact"
)

// SoISearchStrategy names the local-search proposal rule (§4.4).
type SoISearchStrategy string

const (
	SoISearchMCMC     SoISearchStrategy = "mcmc"
	SoISearchWalksat  SoISearchStrategy = "walksat"
)

// SoIInitStrategy names the phase-pattern initialization rule (§4.4).
type SoIInitStrategy string

const (
	SoIInitInputAssignment   SoIInitStrategy = "input-assignment"
	SoIInitCurrentAssignment SoIInitStrategy = "current-assignment"
	SoIInitRandom            SoIInitStrategy = "random"
)

// PseudoImpactVariant names the ScoreUpdater rule PseudoImpactTracker uses
// (§4.9, SPEC_FULL.md SUPPLEMENTED FEATURES).
type PseudoImpactVariant string

const (
	PseudoImpactEWMA       PseudoImpactVariant = "ewma"
	PseudoImpactPseudoCost PseudoImpactVariant = "pseudo-cost"
)

// Config is the immutable configuration passed into an Engine and its
// collaborators, replacing the source's GlobalConfiguration static state
// per spec.md §9's Design Notes: each derived component receives only the
// fields it uses rather than reaching into a global.
type Config struct {
	Timeout        time.Duration
	InitialTimeout time.Duration
	NumWorkers     int

	SNC              bool
	SplitStrategy    SplitStrategy
	InitialDivides   int
	NumOnlineDivides int

	BranchStrategy BranchStrategy

	SoISearchStrategy SoISearchStrategy
	SoIInitStrategy   SoIInitStrategy
	MCMCBeta          float64

	ReluplexSplitThreshold int
	SoISplitThreshold      int

	Seed int64

	// PolaritySplitCandidates bounds how many leading unfixed PL
	// constraints the Polarity divider strategy scans (§4.8).
	PolaritySplitCandidates int

	// PseudoImpactAlpha is the EWMA smoothing factor used by the
	// pseudo-impact tracker (§4.9).
	PseudoImpactAlpha float64

	// PseudoImpactVariant selects the tracker's ScoreUpdater rule.
	PseudoImpactVariant PseudoImpactVariant

	Logger   *zap.Logger
	Registry *prometheus.Registry
}

// DefaultConfig returns the configuration the CLI falls back to when a
// flag is not supplied.
func DefaultConfig() Config {
	logger, _ := zap.NewProduction()
	return Config{
		Timeout:                 0,
		InitialTimeout:          5 * time.Second,
		NumWorkers:              1,
		SNC:                     false,
		SplitStrategy:           SplitEarliestReLU,
		InitialDivides:          0,
		NumOnlineDivides:        2,
		BranchStrategy:          BranchEarliestReLU,
		SoISearchStrategy:       SoISearchWalksat,
		SoIInitStrategy:         SoIInitInputAssignment,
		MCMCBeta:                4.0,
		ReluplexSplitThreshold:  5,
		SoISplitThreshold:       10,
		Seed:                    1,
		PolaritySplitCandidates: 10,
		PseudoImpactAlpha:       0.2,
		PseudoImpactVariant:     PseudoImpactEWMA,
		Logger:                  logger,
		Registry:                prometheus.NewRegistry(),
	}
}
