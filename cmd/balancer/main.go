// Package main implements the solvernet balancer, the single entry point
// clients send linear systems to.
//
// The balancer is responsible for:
//   - Routing every solve request to the least loaded worker
//   - Recording each routing decision in a bounded history
//   - Counting active, successful and failed requests
//   - Pushing the ranked worker roster to observers
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│               Balancer                   │
//	├─────────────────────────────────────────┤
//	│  HTTP API (balancer.listen):             │
//	│    POST /solve    - Route a system       │
//	│    GET  /history  - Routing records      │
//	│    GET  /stats    - Request counters     │
//	│    GET  /workers  - Ranked survey        │
//	│    GET  /health   - Liveness             │
//	│    GET  /metrics  - Prometheus           │
//	├─────────────────────────────────────────┤
//	│  Health stream (balancer.stream_addr):   │
//	│    TCP, one JSON array per line          │
//	│  NATS (balancer.nats_url, optional)      │
//	└─────────────────────────────────────────┘
//
// Example usage:
//
//	# Three local HTTP workers on :4001-:4003 (the default roster)
//	./balancer
//
//	# Explicit roster through the environment
//	SOLVERNET_WORKERS="a=10.0.0.1:4001,b=grpc://10.0.0.2:5001" ./balancer
//
//	curl -X POST localhost:3000/solve -d '{"matrix":[[2,1,5],[1,-1,1]]}'
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

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/dreamware/solvernet/internal/balancer"
	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/config"
	"github.com/dreamware/solvernet/internal/logging"
	"github.com/dreamware/solvernet/internal/metrics"
	"github.com/dreamware/solvernet/internal/rpc"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "balancer",
		Short:        "Route linear systems to the least loaded solvernet worker",
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

			a, err := newApp(cfg, log, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			if err := a.listen(); err != nil {
				return err
			}
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./solvernet.yaml or /etc/solvernet/solvernet.yaml)")
	cmd.Flags().String("balancer.listen", config.Default().Balancer.Listen, "HTTP API address")
	cmd.Flags().String("balancer.stream_addr", config.Default().Balancer.StreamAddr, "health stream TCP address")
	cmd.Flags().String("log.level", config.Default().Log.Level, "log level (debug, info, warn, error)")
	return cmd
}

// app is one balancer process: dispatcher, broadcaster and their servers.
type app struct {
	cfg         *config.Config
	log         logging.Logger
	dispatcher  *balancer.Dispatcher
	broadcaster *balancer.Broadcaster
	stream      *balancer.StreamServer
	httpSrv     *http.Server
	nc          *nats.Conn

	httpLn   net.Listener
	streamLn net.Listener
}

// dialers maps each roster transport to its adapter constructor.
func dialers() map[string]balancer.Dialer {
	return map[string]balancer.Dialer{
		cluster.TransportHTTP: balancer.HTTPDialer,
		cluster.TransportGRPC: rpc.Dialer,
	}
}

// newApp wires the balancer from configuration. Metrics are registered on reg.
func newApp(cfg *config.Config, log logging.Logger, reg *prometheus.Registry) (*app, error) {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	counters, err := metrics.NewCounters(reg, "solvernet", "balancer")
	if err != nil {
		return nil, err
	}
	routing, err := metrics.NewBalancer(reg, "solvernet")
	if err != nil {
		return nil, err
	}

	roster, err := balancer.NewRoster(cfg.Workers, dialers())
	if err != nil {
		return nil, err
	}
	for _, m := range roster {
		log.Info("worker configured", "worker_id", m.Info.ID, "addr", m.Info.Addr, "transport", m.Info.Transport)
	}

	prober := balancer.NewProber(roster, cfg.Balancer.StatusTimeout, routing, log.With("component", "prober"))
	dispatcher := balancer.NewDispatcher(prober,
		balancer.WithSolveTimeout(cfg.Balancer.SolveTimeout),
		balancer.WithHistory(balancer.NewHistory(cfg.Balancer.HistorySize)),
		balancer.WithCounters(counters),
		balancer.WithRoutingMetrics(routing),
		balancer.WithLogger(log.With("component", "dispatcher")),
	)
	broadcaster := balancer.NewBroadcaster(prober, cfg.Balancer.BroadcastInterval, log.With("component", "broadcaster"))

	a := &app{
		cfg:         cfg,
		log:         log,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		stream:      balancer.NewStreamServer(broadcaster, log.With("component", "stream")),
		httpSrv: &http.Server{
			Handler:           balancer.NewHandler(dispatcher, reg),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	if cfg.Balancer.NATSURL != "" {
		nc, err := balancer.ConnectNATS(cfg.Balancer.NATSURL, log.With("component", "nats"))
		if err != nil {
			return nil, err
		}
		a.nc = nc
	}
	return a, nil
}

// listen binds the HTTP and stream addresses.
func (a *app) listen() error {
	httpLn, err := net.Listen("tcp", a.cfg.Balancer.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Balancer.Listen, err)
	}
	streamLn, err := net.Listen("tcp", a.cfg.Balancer.StreamAddr)
	if err != nil {
		_ = httpLn.Close()
		return fmt.Errorf("listen %s: %w", a.cfg.Balancer.StreamAddr, err)
	}
	a.httpLn, a.streamLn = httpLn, streamLn
	return nil
}

// serve runs every component until ctx is canceled, then shuts down.
func (a *app) serve(ctx context.Context) error {
	g := pool.New().WithContext(ctx).WithCancelOnError()

	g.Go(func(ctx context.Context) error {
		a.broadcaster.Start(ctx)
		return nil
	})
	g.Go(func(context.Context) error {
		return a.stream.Serve(a.streamLn)
	})
	g.Go(func(context.Context) error {
		a.log.Info("balancer listening", "addr", a.httpLn.Addr().String(), "workers", len(a.cfg.Workers))
		if err := a.httpSrv.Serve(a.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if a.nc != nil {
		updates, unsubscribe := a.broadcaster.Subscribe()
		publisher := balancer.NewNATSPublisher(a.nc, a.cfg.Balancer.NATSSubject, a.log.With("component", "nats"))
		g.Go(func(ctx context.Context) error {
			defer unsubscribe()
			publisher.Run(ctx, updates)
			return nil
		})
	}

	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		a.log.Info("balancer shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := a.httpSrv.Shutdown(shutdownCtx)
		a.broadcaster.Stop()
		if cerr := a.stream.Close(); err == nil {
			err = cerr
		}
		if a.nc != nil {
			a.nc.Close()
		}
		return err
	})

	err := g.Wait()
	a.log.Info("balancer stopped")
	return err
}
