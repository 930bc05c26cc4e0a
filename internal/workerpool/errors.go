package workerpool

import "github.com/pkg/errors"

// ErrQueueFull is surfaced as a job result when a worker's repartitioned
// children cannot be pushed back because the bounded queue is at
// capacity.
var ErrQueueFull = errors.New("workerpool: queue full")
