// Package worker implements the solving side of solvernet: a Service that
// wraps the Gauss-Jordan solver, keeps the worker's own request counters,
// and reports host health; plus the HTTP handler that exposes it.
//
// # Operations
//
//	Solve(ctx, matrix)  - solve, counting active/successful/failed processes
//	GetStatus(ctx)      - 1-minute load average, available memory, counters
//
// # Counters
//
// processesActive is incremented when Solve starts and decremented when it
// returns, on every path. Exactly one of processesSuccessful or
// processesFailed is incremented per call. Counters live for the process
// lifetime and reset only on restart.
//
// # Host Sampling
//
// ProcSampler reads /proc/loadavg and /proc/meminfo. When either cannot be
// read GetStatus fails with *ObservabilityError and the HTTP handler answers
// 503 without a snapshot; the balancer treats that exactly like a worker it
// cannot reach.
package worker
