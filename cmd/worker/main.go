// Package main implements a solvernet worker, which solves the linear
// systems the balancer forwards to it and reports its own load.
//
// The worker is responsible for:
//   - Solving augmented matrices by Gauss-Jordan elimination
//   - Reporting CPU load and available memory read from /proc
//   - Counting active, successful and failed solves
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                Worker                    │
//	├─────────────────────────────────────────┤
//	│  HTTP API (worker.listen):               │
//	│    POST /solve    - Solve a system       │
//	│    GET  /status   - Load snapshot        │
//	│    GET  /health   - Liveness             │
//	│    GET  /metrics  - Prometheus           │
//	├─────────────────────────────────────────┤
//	│  gRPC (worker.grpc_listen, optional):    │
//	│    solvernet.Worker/Solve                │
//	│    solvernet.Worker/GetStatus            │
//	└─────────────────────────────────────────┘
//
// Example usage:
//
//	SOLVERNET_WORKER_ID=worker-2 SOLVERNET_WORKER_LISTEN=:4002 ./worker
//
//	# Also serve gRPC
//	./worker --worker.id worker-4 --worker.listen :4004 --worker.grpc_listen :5004
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/dreamware/solvernet/internal/config"
	"github.com/dreamware/solvernet/internal/logging"
	"github.com/dreamware/solvernet/internal/metrics"
	"github.com/dreamware/solvernet/internal/rpc"
	"github.com/dreamware/solvernet/internal/worker"
)

// shutdownTimeout bounds the graceful shutdown of both servers.
const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "worker",
		Short:        "Solve linear systems forwarded by the solvernet balancer",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.New(cfgFile)
			if err != nil {
				return err
			}
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			log, err := logging.New(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			n, err := newNode(cfg.Worker, log, prometheus.NewRegistry(), worker.NewProcSampler())
			if err != nil {
				return err
			}
			if err := n.listen(); err != nil {
				return err
			}
			return n.serve(ctx)
		},
	}
	defaults := config.Default().Worker
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./solvernet.yaml or /etc/solvernet/solvernet.yaml)")
	cmd.Flags().String("worker.id", defaults.ID, "worker identifier")
	cmd.Flags().String("worker.listen", defaults.Listen, "HTTP API address")
	cmd.Flags().String("worker.grpc_listen", defaults.GRPCListen, "gRPC address (disabled when empty)")
	cmd.Flags().String("log.level", config.Default().Log.Level, "log level (debug, info, warn, error)")
	return cmd
}

// node is one worker process: the solve service and its servers.
type node struct {
	cfg     config.WorkerConfig
	log     logging.Logger
	svc     *worker.Service
	httpSrv *http.Server
	grpcSrv *grpc.Server

	httpLn net.Listener
	grpcLn net.Listener
}

// newNode wires a worker from configuration. Metrics are registered on reg.
func newNode(cfg config.WorkerConfig, log logging.Logger, reg *prometheus.Registry, sampler worker.Sampler) (*node, error) {
	if cfg.ID == "" {
		return nil, errors.New("worker.id is required")
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	counters, err := metrics.NewCounters(reg, "solvernet", "worker")
	if err != nil {
		return nil, err
	}
	svc := worker.NewService(cfg.ID,
		worker.WithSampler(sampler),
		worker.WithCounters(counters),
		worker.WithLogger(log),
	)

	n := &node{
		cfg: cfg,
		log: log.With("worker_id", cfg.ID),
		svc: svc,
		httpSrv: &http.Server{
			Handler:           worker.NewHandler(svc, reg),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	if cfg.GRPCListen != "" {
		n.grpcSrv = rpc.NewServer(svc, log.With("component", "grpc"))
	}
	return n, nil
}

// listen binds the HTTP address and, when configured, the gRPC address.
func (n *node) listen() error {
	httpLn, err := net.Listen("tcp", n.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", n.cfg.Listen, err)
	}
	n.httpLn = httpLn
	if n.grpcSrv != nil {
		grpcLn, err := net.Listen("tcp", n.cfg.GRPCListen)
		if err != nil {
			_ = httpLn.Close()
			return fmt.Errorf("listen %s: %w", n.cfg.GRPCListen, err)
		}
		n.grpcLn = grpcLn
	}
	return nil
}

// serve runs the servers until ctx is canceled, then shuts them down.
func (n *node) serve(ctx context.Context) error {
	g := pool.New().WithContext(ctx).WithCancelOnError()

	g.Go(func(context.Context) error {
		n.log.Info("worker listening", "addr", n.httpLn.Addr().String())
		if err := n.httpSrv.Serve(n.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if n.grpcSrv != nil {
		g.Go(func(context.Context) error {
			n.log.Info("worker grpc listening", "addr", n.grpcLn.Addr().String())
			return n.grpcSrv.Serve(n.grpcLn)
		})
	}

	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		n.log.Info("worker shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if n.grpcSrv != nil {
			n.grpcSrv.GracefulStop()
		}
		return n.httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	n.log.Info("worker stopped", "counters", n.svc.Counters())
	return err
}
