package balancer

import (
	"errors"
	"fmt"

	"github.com/dreamware/solvernet/internal/cluster"
)

// Sentinel errors returned (wrapped) by the dispatcher.
var (
	// ErrServiceUnavailable is returned when no worker answered the status fan-out.
	ErrServiceUnavailable = errors.New("no healthy workers")

	// ErrSolveFailed is returned when the selected worker's Solve failed.
	ErrSolveFailed = errors.New("solve failed")
)

// ServiceUnavailableError reports an empty available set.
// It matches ErrServiceUnavailable with errors.Is.
type ServiceUnavailableError struct {
	Configured int // roster size at the time of the request
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%v (0 of %d workers answered)", ErrServiceUnavailable, e.Configured)
}

// Is lets errors.Is(err, ErrServiceUnavailable) succeed.
func (e *ServiceUnavailableError) Is(target error) bool { return target == ErrServiceUnavailable }

// SolveFailedError reports that the selected worker could not produce a
// solution. Message is the worker's own text when it answered, or the
// transport error otherwise. It matches ErrSolveFailed with errors.Is and
// unwraps to the adapter error (*cluster.RemoteError or
// *cluster.WorkerUnreachableError).
type SolveFailedError struct {
	WorkerID string
	Message  string
	Err      error
}

func newSolveFailedError(workerID string, err error) *SolveFailedError {
	msg := err.Error()
	var rerr *cluster.RemoteError
	if errors.As(err, &rerr) {
		msg = rerr.Message
	}
	return &SolveFailedError{WorkerID: workerID, Message: msg, Err: err}
}

func (e *SolveFailedError) Error() string {
	return fmt.Sprintf("%v on worker %s: %s", ErrSolveFailed, e.WorkerID, e.Message)
}

// Is lets errors.Is(err, ErrSolveFailed) succeed.
func (e *SolveFailedError) Is(target error) bool { return target == ErrSolveFailed }

func (e *SolveFailedError) Unwrap() error { return e.Err }
