// Command plsolver loads a piecewise-linear constraint query, solves it,
// and reports the verdict, mirroring the CLI surface of spec.md §6.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gitrdm/plsolver/pkg/plsolver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err.Error())
		os.Exit(int(plsolver.ExitError))
	}
}

func newRootCmd() *cobra.Command {
	var (
		timeout                time.Duration
		initialTimeout         time.Duration
		numWorkers             int
		snc                    bool
		splitStrategy          string
		initialDivides         int
		numOnlineDivides       int
		branchStrategy         string
		soiSearchStrategy      string
		soiInitStrategy        string
		mcmcBeta               float64
		reluplexSplitThreshold int
		soiSplitThreshold      int
		seed                   int64
		pseudoImpactVariant    string
	)

	cmd := &cobra.Command{
		Use:   "plsolver [query-file]",
		Short: "Solve a piecewise-linear constraint satisfaction query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := plsolver.DefaultConfig()
			cfg.Timeout = timeout
			cfg.InitialTimeout = initialTimeout
			cfg.NumWorkers = numWorkers
			cfg.SNC = snc
			cfg.SplitStrategy = plsolver.SplitStrategy(splitStrategy)
			cfg.InitialDivides = initialDivides
			cfg.NumOnlineDivides = numOnlineDivides
			cfg.BranchStrategy = plsolver.BranchStrategy(branchStrategy)
			cfg.SoISearchStrategy = plsolver.SoISearchStrategy(soiSearchStrategy)
			cfg.SoIInitStrategy = plsolver.SoIInitStrategy(soiInitStrategy)
			cfg.MCMCBeta = mcmcBeta
			cfg.ReluplexSplitThreshold = reluplexSplitThreshold
			cfg.SoISplitThreshold = soiSplitThreshold
			cfg.Seed = seed
			cfg.PseudoImpactVariant = plsolver.PseudoImpactVariant(pseudoImpactVariant)

			logger, _ := zap.NewProduction()
			cfg.Logger = logger
			defer logger.Sync() // nolint:errcheck

			runID := uuid.New()
			logger.Info("starting solve", zap.String("run_id", runID.String()), zap.String("query", args[0]))

			return runQuery(cmd.Context(), cfg, args[0])
		},
	}

	flags := cmd.Flags()
	flags.SetNormalizeFunc(normalizeUnderscoreFlags)
	flags.DurationVar(&timeout, "timeout", 0, "global time budget (0 = unbounded)")
	flags.DurationVar(&initialTimeout, "initial-timeout", 5*time.Second, "per-subquery time budget")
	flags.IntVar(&numWorkers, "num-workers", 1, "divide-and-conquer worker count")
	flags.BoolVar(&snc, "snc", false, "enable divide-and-conquer mode")
	flags.StringVar(&splitStrategy, "split-strategy", string(plsolver.SplitEarliestReLU), "largest-interval|polarity|earliest-relu")
	flags.IntVar(&initialDivides, "initial-divides", 0, "levels to bisect before starting workers")
	flags.IntVar(&numOnlineDivides, "num-online-divides", 2, "levels to bisect a timed-out subquery into")
	flags.StringVar(&branchStrategy, "branch", string(plsolver.BranchEarliestReLU), "earliest-relu|polarity|largest-interval|relu-violation|pseudo-impact")
	flags.StringVar(&soiSearchStrategy, "soi-search-strategy", string(plsolver.SoISearchWalksat), "mcmc|walksat")
	flags.StringVar(&soiInitStrategy, "soi-init-strategy", string(plsolver.SoIInitInputAssignment), "input-assignment|current-assignment")
	flags.Float64Var(&mcmcBeta, "mcmc-beta", 4.0, "Metropolis-Hastings beta parameter")
	flags.IntVar(&reluplexSplitThreshold, "reluplex-split-threshold", 5, "random flips tolerated before forcing a split")
	flags.IntVar(&soiSplitThreshold, "soi-split-threshold", 10, "reserved for SoI-driven split heuristics")
	flags.Int64Var(&seed, "seed", 1, "PRNG seed for SoI search")
	flags.StringVar(&pseudoImpactVariant, "pseudo-impact-variant", string(plsolver.PseudoImpactEWMA), "ewma|pseudo-cost")

	cmd.AddCommand(newSummaryCmd())
	return cmd
}

func runQuery(ctx context.Context, cfg plsolver.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	trail := plsolver.NewTrail()
	q, err := plsolver.ParseQuery(f, trail)
	if err != nil {
		return err
	}

	start := time.Now()
	var result plsolver.Result
	if cfg.SNC {
		result, err = solveDivideAndConquer(ctx, cfg, q)
	} else {
		engine := plsolver.NewEngine(cfg, trail, q.NumVariables, q.Equations, q.Constraints, nil, plsolver.NewReferenceLPBackend())
		for _, b := range q.Bounds {
			switch b.Kind {
			case plsolver.Lower:
				engine.BoundManager().TightenLower(b.Variable, b.Value)
			case plsolver.Upper:
				engine.BoundManager().TightenUpper(b.Variable, b.Value)
			}
		}
		if cfg.Timeout > 0 {
			engine.SetDeadline(time.Now().Add(cfg.Timeout))
		}
		result, err = engine.Solve(ctx)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	printResult(result, elapsed)
	if err := plsolver.WriteSummary(os.Stdout, result.Exit, elapsed, result.Stats, result.Assignment); err != nil {
		return err
	}
	os.Exit(int(result.Exit))
	return nil
}

func printResult(result plsolver.Result, elapsed time.Duration) {
	c := color.New(color.FgGreen)
	if result.Exit != plsolver.ExitSat {
		c = color.New(color.FgRed)
	}
	c.Printf("%s", result.Exit.String())
	fmt.Printf(" in %.3fs\n", elapsed.Seconds())

	if result.Exit != plsolver.ExitSat || len(result.Assignment) == 0 {
		return
	}
	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"variable", "value"})
	for v, x := range result.Assignment {
		table.Append([]string{fmt.Sprintf("x%d", v), fmt.Sprintf("%.6g", x)})
	}
	table.Render()
}

func newSummaryCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "summary [query-file]",
		Short: "Solve a query and write only the summary-file format to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := plsolver.DefaultConfig()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			trail := plsolver.NewTrail()
			q, err := plsolver.ParseQuery(f, trail)
			if err != nil {
				return err
			}
			engine := plsolver.NewEngine(cfg, trail, q.NumVariables, q.Equations, q.Constraints, nil, plsolver.NewReferenceLPBackend())
			for _, b := range q.Bounds {
				switch b.Kind {
				case plsolver.Lower:
					engine.BoundManager().TightenLower(b.Variable, b.Value)
				case plsolver.Upper:
					engine.BoundManager().TightenUpper(b.Variable, b.Value)
				}
			}
			start := time.Now()
			result, err := engine.Solve(cmd.Context())
			if err != nil {
				return err
			}
			w := os.Stdout
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				return plsolver.WriteSummary(file, result.Exit, time.Since(start), result.Stats, result.Assignment)
			}
			return plsolver.WriteSummary(w, result.Exit, time.Since(start), result.Stats, result.Assignment)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the summary to this file instead of stdout")
	return cmd
}

// normalizeUnderscoreFlags lets --num_workers etc. resolve to the
// registered --num-workers flag, for users coming from the original
// underscored CLI surface.
func normalizeUnderscoreFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}
