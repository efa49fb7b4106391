package balancer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dreamware/solvernet/internal/cluster"
)

// fakeWorker is a scriptable cluster.Worker.
type fakeWorker struct {
	mu          sync.Mutex
	status      cluster.StatusResponse
	statusErr   error
	statusDelay time.Duration
	solution    []float64
	solveErr    error

	statusCalls atomic.Int64
	solveCalls  atomic.Int64
}

func (f *fakeWorker) GetStatus(ctx context.Context) (cluster.StatusResponse, error) {
	f.statusCalls.Add(1)
	f.mu.Lock()
	status, err, delay := f.status, f.statusErr, f.statusDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return cluster.StatusResponse{}, &cluster.WorkerUnreachableError{WorkerID: "fake", Err: ctx.Err()}
		}
	}
	return status, err
}

func (f *fakeWorker) Solve(_ context.Context, matrix [][]float64) ([]float64, error) {
	f.solveCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.solveErr != nil {
		return nil, f.solveErr
	}
	if f.solution != nil {
		return f.solution, nil
	}
	return make([]float64, len(matrix)), nil
}

func (f *fakeWorker) setStatus(s cluster.StatusResponse, err error) {
	f.mu.Lock()
	f.status, f.statusErr = s, err
	f.mu.Unlock()
}

func healthy(mem, cpu float64) *fakeWorker {
	return &fakeWorker{status: cluster.StatusResponse{MemoryAvailableMB: mem, CPULoad: cpu}}
}

func down() *fakeWorker {
	return &fakeWorker{statusErr: &cluster.WorkerUnreachableError{WorkerID: "fake", Err: errors.New("connection refused")}}
}

// testRoster builds members named w1, w2, ... around the given workers.
func testRoster(workers ...cluster.Worker) []Member {
	roster := make([]Member, len(workers))
	for i, w := range workers {
		id := "w" + string(rune('1'+i))
		roster[i] = Member{
			Info:   cluster.WorkerInfo{ID: id, Addr: "localhost:400" + string(rune('1'+i)), Transport: cluster.TransportHTTP},
			Worker: w,
		}
	}
	return roster
}
