package cluster

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// HTTPWorker talks to a worker's JSON HTTP API (POST /solve, GET /status).
type HTTPWorker struct {
	info WorkerInfo
	base string
}

var _ Worker = (*HTTPWorker)(nil)

// NewHTTPWorker creates an adapter for the worker described by info.
// Addr may be a full URL or host:port; "http://" is assumed for the latter.
func NewHTTPWorker(info WorkerInfo) *HTTPWorker {
	return &HTTPWorker{info: info, base: BaseURL(info.Addr)}
}

// BaseURL normalizes addr into a URL without trailing slash.
func BaseURL(addr string) string {
	url := addr
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		url = fmt.Sprintf("http://%s", addr)
	}
	return strings.TrimRight(url, "/")
}

// Info returns the roster entry this adapter was built from.
func (w *HTTPWorker) Info() WorkerInfo { return w.info }

// Solve implements Worker.
func (w *HTTPWorker) Solve(ctx context.Context, matrix [][]float64) ([]float64, error) {
	var resp SolveResponse
	if err := PostJSON(ctx, w.base+"/solve", SolveRequest{Matrix: matrix}, &resp); err != nil {
		return nil, w.classify(err)
	}
	return resp.Solution, nil
}

// GetStatus implements Worker.
func (w *HTTPWorker) GetStatus(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	if err := GetJSON(ctx, w.base+"/status", &resp); err != nil {
		return StatusResponse{}, w.classify(err)
	}
	return resp, nil
}

// classify turns answers from the worker (error replies and incomplete status
// snapshots) into *RemoteError and everything else (dial, timeout, broken
// body) into *WorkerUnreachableError.
func (w *HTTPWorker) classify(err error) error {
	if errors.Is(err, ErrIncompleteStatus) {
		return &RemoteError{WorkerID: w.info.ID, Message: err.Error(), Err: err}
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		msg := herr.Message
		if msg == "" {
			msg = herr.Error()
		}
		return &RemoteError{WorkerID: w.info.ID, Message: msg, Err: herr}
	}
	return &WorkerUnreachableError{WorkerID: w.info.ID, Err: err}
}
