package plsolver

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Statistics accumulates the counters the engine needs for its summary
// file and Prometheus exposition (spec.md §6). Two sinks read one
// struct: WriteSummary renders the flat text format the CLI writes
// alongside a solved query, and NewStatistics registers the same counters
// into a prometheus.Registry for services embedding the engine long-running.
type Statistics struct {
	VisitedTreeStates   int64
	PivotCount          int64
	TotalPivotMicros    int64
	NoopTightenings     int64
	Tightenings         int64
	StartedAt           time.Time

	visitedStates prometheus.Counter
	pivotTime     prometheus.Histogram
	noopRatio     prometheus.Gauge
}

// NewStatistics creates a Statistics, registering its gauges/counters
// into reg if non-nil.
func NewStatistics(reg *prometheus.Registry) *Statistics {
	s := &Statistics{StartedAt: time.Time{}}
	s.visitedStates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plsolver_visited_tree_states_total",
		Help: "Number of search-tree states visited by the engine.",
	})
	s.pivotTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "plsolver_lp_pivot_seconds",
		Help: "Wall-clock duration of each LP pivot.",
	})
	s.noopRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plsolver_noop_tightening_ratio",
		Help: "Fraction of tightening calls that were no-ops.",
	})
	if reg != nil {
		reg.MustRegister(s.visitedStates, s.pivotTime, s.noopRatio)
	}
	return s
}

// RecordVisit increments the visited-tree-state counter (called once per
// Engine main-loop iteration, per spec.md §4.7's statistics.record()).
func (s *Statistics) RecordVisit() {
	s.VisitedTreeStates++
	if s.visitedStates != nil {
		s.visitedStates.Inc()
	}
}

// RecordPivot folds one LP pivot's duration into the running average.
func (s *Statistics) RecordPivot(d time.Duration) {
	s.PivotCount++
	s.TotalPivotMicros += d.Microseconds()
	if s.pivotTime != nil {
		s.pivotTime.Observe(d.Seconds())
	}
}

// RecordBoundManagerStats folds a BoundManager's running counters in, and
// updates the noop-tightening-ratio gauge.
func (s *Statistics) RecordBoundManagerStats(bm *BoundManager) {
	s.NoopTightenings = bm.Stats.NoopTightenings
	s.Tightenings = bm.Stats.Tightenings
	if s.noopRatio != nil && s.Tightenings > 0 {
		s.noopRatio.Set(float64(s.NoopTightenings) / float64(s.Tightenings))
	}
}

// AvgPivotMicros returns the mean pivot duration in microseconds, 0 if no
// pivots were recorded.
func (s *Statistics) AvgPivotMicros() float64 {
	if s.PivotCount == 0 {
		return 0
	}
	return float64(s.TotalPivotMicros) / float64(s.PivotCount)
}

// WriteSummary renders the one-line result/timing summary plus, on Sat,
// one "\tvar,value" line per assigned variable, per spec.md §6's summary
// file format.
func WriteSummary(w io.Writer, result ExitCode, elapsed time.Duration, stats *Statistics, assignment []float64) error {
	_, err := fmt.Fprintf(w, "%s %.3f %d %.3f\n", result, elapsed.Seconds(), stats.VisitedTreeStates, stats.AvgPivotMicros())
	if err != nil || result != ExitSat {
		return err
	}
	for v, x := range assignment {
		if _, err := fmt.Fprintf(w, "\t%d,%g\n", v, x); err != nil {
			return err
		}
	}
	return nil
}
