package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
)

// Transport names accepted in WorkerInfo.Transport.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// WorkerInfo identifies one worker in the static roster.
type WorkerInfo struct {
	ID        string `json:"id" mapstructure:"id"`
	Addr      string `json:"addr" mapstructure:"addr"`
	Transport string `json:"transport,omitempty" mapstructure:"transport"`
}

// SolveRequest carries an augmented matrix, n rows of n+1 numbers.
type SolveRequest struct {
	Matrix [][]float64 `json:"matrix"`
}

// SolveResponse carries the solution vector, one value per unknown.
type SolveResponse struct {
	Solution []float64 `json:"solution"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a worker's health snapshot. It is computed fresh for
// every request and never cached.
type StatusResponse struct {
	CPULoad             float64 `json:"cpuLoad"`
	MemoryAvailableMB   float64 `json:"memoryAvailableMB"`
	ProcessesActive     int64   `json:"processesActive"`
	ProcessesSuccessful uint64  `json:"processesSuccessful"`
	ProcessesFailed     uint64  `json:"processesFailed"`
}

// Validate reports whether the snapshot is usable for a routing decision.
func (s StatusResponse) Validate() error {
	if !nonNegative(s.CPULoad) {
		return fmt.Errorf("malformed snapshot: cpuLoad=%v", s.CPULoad)
	}
	if !nonNegative(s.MemoryAvailableMB) {
		return fmt.Errorf("malformed snapshot: memoryAvailableMB=%v", s.MemoryAvailableMB)
	}
	if s.ProcessesActive < 0 {
		return fmt.Errorf("malformed snapshot: processesActive=%d", s.ProcessesActive)
	}
	return nil
}

// ErrIncompleteStatus is returned when decoding a status reply that lacks
// cpuLoad or memoryAvailableMB.
var ErrIncompleteStatus = errors.New("incomplete status snapshot")

// UnmarshalJSON decodes a status reply, rejecting one that omits a load
// field.
func (s *StatusResponse) UnmarshalJSON(data []byte) error {
	var present struct {
		CPULoad           *float64 `json:"cpuLoad"`
		MemoryAvailableMB *float64 `json:"memoryAvailableMB"`
	}
	if err := json.Unmarshal(data, &present); err != nil {
		return err
	}
	switch {
	case present.CPULoad == nil:
		return fmt.Errorf("%w: missing cpuLoad", ErrIncompleteStatus)
	case present.MemoryAvailableMB == nil:
		return fmt.Errorf("%w: missing memoryAvailableMB", ErrIncompleteStatus)
	}

	type plain StatusResponse
	return json.Unmarshal(data, (*plain)(s))
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// RankedWorker is one entry of the health broadcast.
type RankedWorker struct {
	ID                string  `json:"id"`
	MemoryAvailableMB float64 `json:"memoryAvailableMB"`
	CPULoad           float64 `json:"cpuLoad"`
}

// Worker is the capability set every transport adapter exposes. The
// dispatcher and the broadcaster depend only on this interface.
type Worker interface {
	// Solve forwards an augmented matrix and returns the solution.
	Solve(ctx context.Context, matrix [][]float64) ([]float64, error)

	// GetStatus returns a freshly sampled health snapshot.
	GetStatus(ctx context.Context) (StatusResponse, error)
}

// HTTPError is returned by PostJSON and GetJSON when the peer answered with
// a non-2xx status. Message holds the peer's "error" field when present.
type HTTPError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %s: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("http %s: %d: %s", e.URL, e.StatusCode, e.Message)
}

// RemoteError is a failure the worker itself reported: it was reached and
// answered, but the operation failed. Message is the worker's own text.
type RemoteError struct {
	WorkerID string
	Message  string
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("worker %s: %s", e.WorkerID, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ErrWorkerUnreachable matches every WorkerUnreachableError.
var ErrWorkerUnreachable = errors.New("worker unreachable")

// WorkerUnreachableError reports a network-level failure (connection refused,
// deadline exceeded, reset) talking to a worker.
type WorkerUnreachableError struct {
	WorkerID string
	Err      error
}

func (e *WorkerUnreachableError) Error() string {
	return fmt.Sprintf("worker %s unreachable: %v", e.WorkerID, e.Err)
}

// Is lets errors.Is(err, ErrWorkerUnreachable) succeed.
func (e *WorkerUnreachableError) Is(target error) bool { return target == ErrWorkerUnreachable }

func (e *WorkerUnreachableError) Unwrap() error { return e.Err }

// httpClient carries no client-wide timeout. Every call is bounded by the
// deadline of its context.
var httpClient = &http.Client{}

// PostJSON marshals body, POSTs it to url and decodes the response into out
// (skipped when out is nil). Non-2xx answers return *HTTPError.
func PostJSON(ctx context.Context, url string, body any, out any) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req, out)
}

// GetJSON GETs url and decodes the response into out. Non-2xx answers
// return *HTTPError.
func GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return do(req, out)
}

func do(req *http.Request, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		herr := &HTTPError{URL: req.URL.String(), StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var e ErrorResponse
		if json.Unmarshal(raw, &e) == nil {
			herr.Message = e.Error
		}
		return herr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorResponse with the given status code.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}
