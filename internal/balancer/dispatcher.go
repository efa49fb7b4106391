package balancer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/solvernet/internal/logging"
	"github.com/dreamware/solvernet/internal/metrics"
)

// DefaultSolveTimeout bounds the forwarded Solve call.
const DefaultSolveTimeout = 30 * time.Second

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSolveTimeout sets the deadline for the forwarded Solve call.
func WithSolveTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.solveTimeout = d
		}
	}
}

// WithHistory sets the routing history the dispatcher appends to.
func WithHistory(h *History) Option {
	return func(disp *Dispatcher) { disp.history = h }
}

// WithCounters sets the request counters (usually registered on Prometheus).
func WithCounters(c *metrics.Counters) Option {
	return func(disp *Dispatcher) { disp.counters = c }
}

// WithRoutingMetrics sets the per-worker selection metrics.
func WithRoutingMetrics(m *metrics.Balancer) Option {
	return func(disp *Dispatcher) { disp.routing = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(disp *Dispatcher) { disp.log = l }
}

// Dispatcher routes each solve request to the worker judged least loaded at
// that instant: most available memory, then lowest CPU load.
//
// Every call to Dispatch queries all workers afresh. A single attempt is
// made against the selected worker; a failure is reported, never retried on
// another worker.
//
// Thread-safe: Dispatch may be called concurrently; requests are independent.
type Dispatcher struct {
	prober       *Prober
	history      *History
	counters     *metrics.Counters
	routing      *metrics.Balancer
	log          logging.Logger
	solveTimeout time.Duration
	newID        func() string
	now          func() time.Time
}

// NewDispatcher creates a dispatcher that probes workers through prober.
//
// Example:
//
//	prober := balancer.NewProber(roster, 2*time.Second, routing, log)
//	d := balancer.NewDispatcher(prober, balancer.WithLogger(log))
//	x, err := d.Dispatch(ctx, [][]float64{{2, 1, 5}, {1, -1, 1}})
func NewDispatcher(prober *Prober, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		prober:       prober,
		solveTimeout: DefaultSolveTimeout,
		newID:        func() string { return uuid.NewString() },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.history == nil {
		d.history = NewHistory(DefaultHistorySize)
	}
	if d.counters == nil {
		d.counters = metrics.MustNewCounters(nil, "solvernet", "balancer")
	}
	if d.routing == nil {
		d.routing = prober.routing
	}
	if d.log == nil {
		d.log = logging.NewNop()
	}
	return d
}

// Dispatch solves matrix on the best available worker.
//
// Steps:
//  1. Mark the request active (undone on every return path)
//  2. Survey all workers concurrently, each call isolated and time-bounded
//  3. Fail with *ServiceUnavailableError when none answered
//  4. Select the top-ranked worker and append a RequestRecord to the history
//  5. Forward Solve once; count success or failure
//
// Returns:
//   - []float64: The worker's solution
//   - error: *ServiceUnavailableError or *SolveFailedError
func (d *Dispatcher) Dispatch(ctx context.Context, matrix [][]float64) ([]float64, error) {
	start := time.Now()
	d.counters.Begin()
	defer d.counters.End()

	requestID := d.newID()
	log := d.log.With("request_id", requestID)

	available := d.prober.Survey(ctx)
	if len(available) == 0 {
		log.Warn("no healthy workers", "configured", len(d.prober.Roster()))
		return nil, &ServiceUnavailableError{Configured: len(d.prober.Roster())}
	}

	selected := available[0]
	d.routing.Selected(selected.Member.Info.ID)

	c := d.counters.Snapshot()
	d.history.Append(RequestRecord{
		RequestID:           requestID,
		WorkerID:            selected.Member.Info.ID,
		Addr:                selected.Member.Info.Addr,
		Timestamp:           d.now(),
		ActiveProcesses:     c.Active,
		SuccessfulProcesses: c.Successful,
		FailedProcesses:     c.Failed,
	})
	log.Info("dispatching solve",
		"worker_id", selected.Member.Info.ID,
		"available", len(available),
		"memory_available_mb", selected.Status.MemoryAvailableMB,
		"cpu_load", selected.Status.CPULoad,
		"rows", len(matrix))

	solveCtx, cancel := context.WithTimeout(ctx, d.solveTimeout)
	defer cancel()

	solution, err := selected.Member.Worker.Solve(solveCtx, matrix)
	if err != nil {
		d.counters.Fail(time.Since(start))
		serr := newSolveFailedError(selected.Member.Info.ID, err)
		log.Error("solve failed", "worker_id", selected.Member.Info.ID, "error", err)
		return nil, serr
	}

	d.counters.Succeed(time.Since(start))
	log.Debug("solve succeeded", "worker_id", selected.Member.Info.ID, "duration", time.Since(start))
	return solution, nil
}

// Survey runs one fresh ranked health fan-out.
func (d *Dispatcher) Survey(ctx context.Context) []Candidate {
	return d.prober.Survey(ctx)
}

// History returns the routing history.
func (d *Dispatcher) History() *History { return d.history }

// Counters returns the dispatcher's request counters.
func (d *Dispatcher) Counters() metrics.Snapshot { return d.counters.Snapshot() }
