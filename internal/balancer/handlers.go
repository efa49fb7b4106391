package balancer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/solvernet/internal/cluster"
)

// maxBodyBytes bounds a solve request body.
const maxBodyBytes = 32 << 20

// NewHandler returns the balancer's HTTP API:
//
//	POST /solve    - route a solve request to the best worker
//	GET  /history  - routing records, oldest first
//	GET  /stats    - request counters
//	GET  /workers  - one fresh ranked health survey
//	GET  /health   - liveness
//	GET  /metrics  - Prometheus metrics from gatherer (omitted when nil)
func NewHandler(d *Dispatcher, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/solve", func(w http.ResponseWriter, r *http.Request) {
		handleSolve(d, w, r)
	})
	mux.HandleFunc("/history", getOnly(func(w http.ResponseWriter, _ *http.Request) {
		cluster.WriteJSON(w, http.StatusOK, d.History().Records())
	}))
	mux.HandleFunc("/stats", getOnly(func(w http.ResponseWriter, _ *http.Request) {
		cluster.WriteJSON(w, http.StatusOK, d.Counters())
	}))
	mux.HandleFunc("/workers", getOnly(func(w http.ResponseWriter, r *http.Request) {
		cluster.WriteJSON(w, http.StatusOK, Ranked(d.Survey(r.Context())))
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			cluster.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h(w, r)
	}
}

// handleSolve processes POST /solve.
//
// Response:
//   - 200 OK: {"solution": [...]}
//   - 400 Bad Request: body is not a JSON solve request
//   - 503 Service Unavailable: no worker answered its status query
//   - 500 Internal Server Error: the selected worker failed
func handleSolve(d *Dispatcher, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		cluster.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cluster.SolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		cluster.WriteError(w, http.StatusBadRequest, "bad json")
		return
	}

	solution, err := d.Dispatch(r.Context(), req.Matrix)
	switch {
	case err == nil:
		cluster.WriteJSON(w, http.StatusOK, cluster.SolveResponse{Solution: solution})
	case errors.Is(err, ErrServiceUnavailable):
		cluster.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		cluster.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
