package worker

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/solvernet/internal/cluster"
)

// maxBodyBytes bounds a solve request body (a 1000-unknown system is ~20MB).
const maxBodyBytes = 32 << 20

// NewHandler returns the worker's HTTP API:
//
//	POST /solve    - solve an augmented matrix
//	GET  /status   - fresh health snapshot
//	GET  /health   - liveness
//	GET  /metrics  - Prometheus metrics from gatherer (omitted when nil)
func NewHandler(svc *Service, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/solve", func(w http.ResponseWriter, r *http.Request) {
		handleSolve(svc, w, r)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		handleStatus(svc, w, r)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// handleSolve processes POST /solve.
//
// Response:
//   - 200 OK: {"solution": [...]}
//   - 400 Bad Request: body is not a JSON solve request
//   - 405 Method Not Allowed: not a POST
//   - 500 Internal Server Error: {"error": "..."} for invalid or singular matrices
func handleSolve(svc *Service, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cluster.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cluster.SolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		cluster.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}

	solution, err := svc.Solve(r.Context(), req.Matrix)
	if err != nil {
		cluster.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	cluster.WriteJSON(w, http.StatusOK, cluster.SolveResponse{Solution: solution})
}

// handleStatus processes GET /status. When host sampling fails the snapshot
// is omitted and 503 is returned, so callers treat the worker as unreachable.
func handleStatus(svc *Service, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		cluster.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	status, err := svc.GetStatus(r.Context())
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrObservability) {
			code = http.StatusServiceUnavailable
		}
		cluster.WriteError(w, code, err.Error())
		return
	}
	cluster.WriteJSON(w, http.StatusOK, status)
}
