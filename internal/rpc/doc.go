// Package rpc carries the worker API over gRPC.
//
// The service is solvernet.Worker with two unary methods, Solve and
// GetStatus. Messages are the JSON envelopes of package cluster, encoded by a
// JSON codec forced on both ends, so no generated code is involved.
//
// Server-side errors become status codes (InvalidArgument for malformed
// matrices, FailedPrecondition for singular ones, Unavailable when host
// metrics cannot be read). On the client, Unavailable, DeadlineExceeded and
// Canceled become *cluster.WorkerUnreachableError; every other code becomes
// *cluster.RemoteError carrying the worker's message.
package rpc
