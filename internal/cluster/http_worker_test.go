package cluster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"localhost:4001", "http://localhost:4001"},
		{"http://localhost:4001", "http://localhost:4001"},
		{"http://localhost:4001/", "http://localhost:4001"},
		{"https://solver.example.com", "https://solver.example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseURL(tt.in), tt.in)
	}
}

// newFakeWorkerServer serves /solve and /status the way a real worker does.
func newFakeWorkerServer(t *testing.T, solveStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/solve", func(w http.ResponseWriter, r *http.Request) {
		var req SolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if solveStatus != http.StatusOK {
			WriteError(w, solveStatus, "singular matrix: no non-zero pivot in column 0")
			return
		}
		WriteJSON(w, http.StatusOK, SolveResponse{Solution: make([]float64, len(req.Matrix))})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, StatusResponse{CPULoad: 0.3, MemoryAvailableMB: 900, ProcessesSuccessful: 4})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPWorkerSolve(t *testing.T) {
	srv := newFakeWorkerServer(t, http.StatusOK)
	w := NewHTTPWorker(WorkerInfo{ID: "w1", Addr: strings.TrimPrefix(srv.URL, "http://")})
	assert.Equal(t, "w1", w.Info().ID)

	sol, err := w.Solve(context.Background(), [][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Len(t, sol, 2)
}

func TestHTTPWorkerSolveFailureKeepsMessage(t *testing.T) {
	srv := newFakeWorkerServer(t, http.StatusInternalServerError)
	w := NewHTTPWorker(WorkerInfo{ID: "w1", Addr: srv.URL})

	_, err := w.Solve(context.Background(), [][]float64{{0, 0, 1}, {0, 0, 2}})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrWorkerUnreachable)

	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "w1", rerr.WorkerID)
	assert.Equal(t, "singular matrix: no non-zero pivot in column 0", rerr.Message)

	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusInternalServerError, herr.StatusCode)
}

func TestHTTPWorkerGetStatus(t *testing.T) {
	srv := newFakeWorkerServer(t, http.StatusOK)
	w := NewHTTPWorker(WorkerInfo{ID: "w1", Addr: srv.URL})

	s, err := w.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 900.0, s.MemoryAvailableMB)
	assert.Equal(t, uint64(4), s.ProcessesSuccessful)
}

func TestHTTPWorkerIncompleteStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cpuLoad":0.1}`))
	}))
	t.Cleanup(srv.Close)
	w := NewHTTPWorker(WorkerInfo{ID: "w1", Addr: srv.URL})

	_, err := w.GetStatus(context.Background())
	assert.ErrorIs(t, err, ErrIncompleteStatus)
	assert.NotErrorIs(t, err, ErrWorkerUnreachable)

	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "missing memoryAvailableMB")
}

func TestHTTPWorkerUnreachable(t *testing.T) {
	srv := newFakeWorkerServer(t, http.StatusOK)
	addr := srv.URL
	srv.Close()

	w := NewHTTPWorker(WorkerInfo{ID: "gone", Addr: addr})

	_, err := w.GetStatus(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkerUnreachable)

	var uerr *WorkerUnreachableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "gone", uerr.WorkerID)

	_, err = w.Solve(context.Background(), [][]float64{{1, 1}})
	assert.ErrorIs(t, err, ErrWorkerUnreachable)
}
