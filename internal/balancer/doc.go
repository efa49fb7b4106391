// Package balancer implements the load-aware front end of a solvernet
// cluster: it routes each solve request to the worker judged least loaded at
// that instant and streams the ranked roster to observers.
//
// # Routing
//
// For every request the Dispatcher asks all configured workers for a fresh
// status snapshot at once (Prober.Survey). Each call has its own deadline and
// a failing worker only removes itself from the available set. The set is
// ranked by available memory, most first, then by CPU load, least first;
// workers that tie keep their configuration order. The request goes to the
// first worker exactly once:
//
//	client ──POST /solve──▶ Dispatcher
//	                          │ GetStatus ×N (concurrent, time-bounded)
//	                          ▼
//	                        Rank ──▶ History.Append
//	                          │
//	                          ▼ Solve ×1
//	                        worker
//
// Nothing is cached between requests and no failed request is retried on a
// different worker.
//
// # Observers
//
// The Broadcaster repeats the same survey on a ticker while anyone is
// subscribed and hands the ranked list to each subscriber without blocking.
// StreamServer turns TCP connections into subscribers (newline-delimited JSON)
// and NATSPublisher republishes each round on a subject.
//
// # Errors
//
// Dispatch fails with *ServiceUnavailableError (ErrServiceUnavailable) when
// no worker answered and with *SolveFailedError (ErrSolveFailed) when the
// selected worker did not return a solution. The HTTP API maps them to 503
// and 500.
package balancer
