// Package cluster defines what travels between the balancer, the workers
// and clients: the JSON wire envelopes, the static roster entry, and the
// Worker capability interface with its HTTP adapter.
//
// # Overview
//
// The balancer never cares how a worker is reached. It holds a list of
// Worker values and calls two operations on them:
//
//	Solve(ctx, matrix) -> solution
//	GetStatus(ctx)     -> StatusResponse
//
// HTTPWorker implements the interface over the worker's JSON API; the rpc
// package provides a gRPC implementation; worker.Service implements it
// in-process, which is what most tests use.
//
// # Wire Format
//
//	POST /solve   {"matrix": [[2,1,5],[1,-1,1]]}  ->  {"solution": [2,1]}
//	GET  /status                                  ->  {"cpuLoad": 0.42,
//	                                                   "memoryAvailableMB": 812.5,
//	                                                   "processesActive": 1,
//	                                                   "processesSuccessful": 17,
//	                                                   "processesFailed": 2}
//
// Every error response is {"error": "<message>"} with a non-2xx status.
//
// # Error Classification
//
// Adapters distinguish two kinds of failure:
//   - the worker answered with an error: RemoteError, whatever the transport;
//     the message is passed through to the caller
//   - the worker could not be reached or did not answer in time:
//     WorkerUnreachableError, matching ErrWorkerUnreachable
//
// The balancer treats both as "no snapshot" during health fan-out and as a
// failed solve when forwarding.
package cluster
