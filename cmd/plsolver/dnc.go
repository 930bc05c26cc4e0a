package main

import (
	"context"
	"strings"
	"time"

	"github.com/gitrdm/plsolver/internal/workerpool"
	"github.com/gitrdm/plsolver/pkg/plsolver"
)

// solveDivideAndConquer implements --snc (§4.8): bisect the root query
// into an initial batch of subqueries, then drain them across
// cfg.NumWorkers goroutines, repartitioning any subquery that exceeds its
// timeout into smaller subqueries rather than abandoning it. A Sat
// verdict, a canceled context or an error ends the run; an Unsat subquery only closes its own
// region, and the overall verdict is Unsat once the queue drains with no
// Sat.
func solveDivideAndConquer(ctx context.Context, cfg plsolver.Config, q *plsolver.Query) (plsolver.Result, error) {
	trail := plsolver.NewTrail()
	bm := plsolver.NewBoundManager(trail, q.NumVariables)
	for _, b := range q.Bounds {
		switch b.Kind {
		case plsolver.Lower:
			bm.TightenLower(b.Variable, b.Value)
		case plsolver.Upper:
			bm.TightenUpper(b.Variable, b.Value)
		}
	}

	vars := make([]int, q.NumVariables)
	for i := range vars {
		vars[i] = i
	}
	divider := plsolver.NewDivider(cfg.SplitStrategy, cfg.PolaritySplitCandidates)
	subqueries := plsolver.GenerateSubQueries(divider, bm, q.Constraints, vars, cfg.InitialDivides, cfg.InitialTimeout.Seconds())
	if len(subqueries) == 0 {
		subqueries = []plsolver.SubQuery{{ID: 0, TimeoutSeconds: cfg.InitialTimeout.Seconds()}}
	}

	pool := workerpool.NewPool[plsolver.Result](cfg.NumWorkers, len(subqueries)*4)
	for _, sub := range subqueries {
		pool.Push(&subqueryJob{cfg: cfg, q: q, divider: divider, vars: vars, sub: sub})
	}

	found, result := pool.Run(ctx)
	if !found {
		return plsolver.Result{Exit: plsolver.ExitUnsat}, nil
	}
	return result.Value, result.Err
}

// subqueryJob solves one divide-and-conquer leaf in its own Trail and
// Engine, fully independent of every other worker's state: the arena's
// PLConstraints are rebuilt from their Query serialization rather than
// shared, since a Trail (and every Cell registered on it) belongs to
// exactly one goroutine's search.
type subqueryJob struct {
	cfg     plsolver.Config
	q       *plsolver.Query
	divider plsolver.Divider
	vars    []int
	sub     plsolver.SubQuery
}

func (j *subqueryJob) Run(ctx context.Context) (plsolver.Result, []workerpool.Job[plsolver.Result], bool, error) {
	trail := plsolver.NewTrail()
	constraints := make([]plsolver.PLConstraint, len(j.q.Constraints))
	for i, c := range j.q.Constraints {
		parsed, err := plsolver.ParseConstraintLine(trail, strings.Split(c.Serialize(), ","))
		if err != nil {
			return plsolver.Result{}, nil, true, err
		}
		constraints[i] = parsed
	}

	engine := plsolver.NewEngine(j.cfg, trail, j.q.NumVariables, j.q.Equations, constraints, nil, plsolver.NewReferenceLPBackend())
	for _, b := range j.q.Bounds {
		switch b.Kind {
		case plsolver.Lower:
			engine.BoundManager().TightenLower(b.Variable, b.Value)
		case plsolver.Upper:
			engine.BoundManager().TightenUpper(b.Variable, b.Value)
		}
	}
	engine.ApplyInitialSplit(j.sub.Split)
	if j.sub.TimeoutSeconds > 0 {
		engine.SetDeadline(time.Now().Add(time.Duration(j.sub.TimeoutSeconds * float64(time.Second))))
	}

	result, err := engine.Solve(ctx)
	if err != nil {
		return result, nil, true, err
	}
	switch result.Exit {
	case plsolver.ExitSat, plsolver.ExitQuitRequested:
		// Sat is conclusive immediately (first Sat wins); a canceled
		// context applies to every worker alike, so surface it now
		// instead of letting siblings silently finish into a false Unsat.
		return result, nil, true, nil
	case plsolver.ExitUnsat:
		// This leaf's region is infeasible, not the whole query: let the
		// pool keep draining: overall Unsat only holds once every leaf
		// has reported the same.
		return plsolver.Result{}, nil, false, nil
	}

	children := plsolver.RepartitionTimeout(j.divider, engine.BoundManager(), constraints, j.vars, j.sub, j.cfg.NumOnlineDivides, j.cfg.InitialTimeout.Seconds())
	jobs := make([]workerpool.Job[plsolver.Result], len(children))
	for i, c := range children {
		jobs[i] = &subqueryJob{cfg: j.cfg, q: j.q, divider: j.divider, vars: j.vars, sub: c}
	}
	return plsolver.Result{}, jobs, false, nil
}
