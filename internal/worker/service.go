package worker

import (
	"context"
	"time"

	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/logging"
	"github.com/dreamware/solvernet/internal/metrics"
	"github.com/dreamware/solvernet/internal/solver"
)

// Option configures a Service.
type Option func(*Service)

// WithSampler replaces the default /proc sampler.
func WithSampler(s Sampler) Option {
	return func(svc *Service) { svc.sampler = s }
}

// WithCounters uses counters created by the caller (typically registered
// on a Prometheus registry) instead of private, unexported ones.
func WithCounters(c *metrics.Counters) Option {
	return func(svc *Service) { svc.counters = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(svc *Service) { svc.log = l }
}

// Service is the worker's request-handling core. It wraps the solver and
// owns the worker's process-local counters.
//
// Thread-safe: Solve and GetStatus may be called concurrently.
type Service struct {
	id       string
	sampler  Sampler
	counters *metrics.Counters
	log      logging.Logger
}

var _ cluster.Worker = (*Service)(nil)

// NewService creates the worker core for the worker named id.
//
// Example:
//
//	svc := worker.NewService("worker-1", worker.WithLogger(log))
//	sol, err := svc.Solve(ctx, [][]float64{{2, 1, 5}, {1, -1, 1}})
func NewService(id string, opts ...Option) *Service {
	svc := &Service{id: id}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.sampler == nil {
		svc.sampler = NewProcSampler()
	}
	if svc.counters == nil {
		svc.counters = metrics.MustNewCounters(nil, "solvernet", "worker")
	}
	if svc.log == nil {
		svc.log = logging.NewNop()
	}
	svc.log = svc.log.With("worker_id", id)
	return svc
}

// ID returns the worker's identifier.
func (s *Service) ID() string { return s.id }

// Solve runs Gauss-Jordan elimination on matrix. The matrix is consumed.
//
// processesActive is raised for the duration of the call and lowered on
// every exit path. Validation and singularity failures both count as failed
// processes and are returned to the caller unchanged.
func (s *Service) Solve(ctx context.Context, matrix [][]float64) ([]float64, error) {
	start := time.Now()
	s.counters.Begin()
	defer s.counters.End()

	if err := ctx.Err(); err != nil {
		s.counters.Fail(time.Since(start))
		return nil, err
	}

	solution, err := solver.Solve(matrix)
	if err != nil {
		s.counters.Fail(time.Since(start))
		s.log.Warn("solve failed", "rows", len(matrix), "error", err)
		return nil, err
	}

	s.counters.Succeed(time.Since(start))
	s.log.Debug("solve succeeded", "rows", len(matrix), "duration", time.Since(start))
	return solution, nil
}

// GetStatus samples the host and combines the reading with this worker's
// counters. Samples are never cached. A sampler failure is returned as-is
// (normally *ObservabilityError) and no snapshot is produced.
func (s *Service) GetStatus(ctx context.Context) (cluster.StatusResponse, error) {
	host, err := s.sampler.Sample(ctx)
	if err != nil {
		s.log.Error("host sampling failed", "error", err)
		return cluster.StatusResponse{}, err
	}
	c := s.counters.Snapshot()
	return cluster.StatusResponse{
		CPULoad:             host.CPULoad,
		MemoryAvailableMB:   host.MemoryAvailableMB,
		ProcessesActive:     c.Active,
		ProcessesSuccessful: c.Successful,
		ProcessesFailed:     c.Failed,
	}, nil
}

// Counters returns the current counter values.
func (s *Service) Counters() metrics.Snapshot { return s.counters.Snapshot() }
