package main

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/config"
	"github.com/dreamware/solvernet/internal/logging/logtest"
	"github.com/dreamware/solvernet/internal/rpc"
	"github.com/dreamware/solvernet/internal/worker"
)

var fixedSampler = worker.SamplerFunc(func(context.Context) (worker.HostSample, error) {
	return worker.HostSample{CPULoad: 0.75, MemoryAvailableMB: 3000}, nil
})

func TestNewNodeRequiresID(t *testing.T) {
	_, err := newNode(config.WorkerConfig{Listen: ":0"}, logtest.New(t), prometheus.NewRegistry(), fixedSampler)
	assert.EqualError(t, err, "worker.id is required")
}

func TestNodeServesHTTPAndGRPC(t *testing.T) {
	cfg := config.WorkerConfig{ID: "w9", Listen: "127.0.0.1:0", GRPCListen: "127.0.0.1:0"}
	n, err := newNode(cfg, logtest.New(t), prometheus.NewRegistry(), fixedSampler)
	require.NoError(t, err)
	require.NoError(t, n.listen())

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- n.serve(ctx) }()

	httpWorker := cluster.NewHTTPWorker(cluster.WorkerInfo{ID: "w9", Addr: n.httpLn.Addr().String()})
	sol, err := httpWorker.Solve(context.Background(), [][]float64{{2, 1, 5}, {1, -1, 1}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 1}, sol, 1e-9)

	grpcWorker, err := rpc.NewClient(cluster.WorkerInfo{ID: "w9", Addr: n.grpcLn.Addr().String(), Transport: cluster.TransportGRPC})
	require.NoError(t, err)
	defer grpcWorker.Close()

	st, err := grpcWorker.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cluster.StatusResponse{CPULoad: 0.75, MemoryAvailableMB: 3000, ProcessesSuccessful: 1}, st)

	resp, err := http.Get("http://" + n.httpLn.Addr().String() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestNodeHTTPOnly(t *testing.T) {
	n, err := newNode(config.WorkerConfig{ID: "w1", Listen: "127.0.0.1:0"}, logtest.New(t), prometheus.NewRegistry(), fixedSampler)
	require.NoError(t, err)
	assert.Nil(t, n.grpcSrv)
	require.NoError(t, n.listen())
	assert.Nil(t, n.grpcLn)
	require.NoError(t, n.httpLn.Close())
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"config", "worker.id", "worker.listen", "worker.grpc_listen", "log.level"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.True(t, strings.HasPrefix(cmd.Use, "worker"))
}
