// Package config loads solvernet settings from defaults, an optional YAML
// file and SOLVERNET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dreamware/solvernet/internal/cluster"
)

// EnvPrefix is prepended to every environment override, e.g.
// SOLVERNET_BALANCER_LISTEN for balancer.listen.
const EnvPrefix = "SOLVERNET"

// Config represents the complete solvernet configuration
type Config struct {
	Balancer BalancerConfig       `mapstructure:"balancer"`
	Workers  []cluster.WorkerInfo `mapstructure:"workers"`
	Worker   WorkerConfig         `mapstructure:"worker"`
	Log      LogConfig            `mapstructure:"log"`
}

// BalancerConfig controls the balancer process
type BalancerConfig struct {
	// Listen is the HTTP API address
	Listen string `mapstructure:"listen"`
	// StreamAddr is the TCP address observers connect to for health pushes
	StreamAddr string `mapstructure:"stream_addr"`
	// StatusTimeout bounds each GetStatus call of a fan-out
	StatusTimeout time.Duration `mapstructure:"status_timeout"`
	// SolveTimeout bounds the forwarded Solve call
	SolveTimeout time.Duration `mapstructure:"solve_timeout"`
	// BroadcastInterval is the health push period
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval"`
	// HistorySize is the number of routing records retained
	HistorySize int `mapstructure:"history_size"`
	// NATSURL enables the NATS publisher when set
	NATSURL string `mapstructure:"nats_url"`
	// NATSSubject is where ranked rosters are published
	NATSSubject string `mapstructure:"nats_subject"`
}

// WorkerConfig controls a worker process
type WorkerConfig struct {
	ID string `mapstructure:"id"`
	// Listen is the HTTP API address
	Listen string `mapstructure:"listen"`
	// GRPCListen enables the gRPC server when set
	GRPCListen string `mapstructure:"grpc_listen"`
}

// LogConfig controls logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Balancer: BalancerConfig{
			Listen:            ":3000",
			StreamAddr:        ":5000",
			StatusTimeout:     2 * time.Second,
			SolveTimeout:      30 * time.Second,
			BroadcastInterval: 2 * time.Second,
			HistorySize:       1024,
			NATSSubject:       "solvernet.health",
		},
		Workers: []cluster.WorkerInfo{
			{ID: "worker-1", Addr: "localhost:4001", Transport: cluster.TransportHTTP},
			{ID: "worker-2", Addr: "localhost:4002", Transport: cluster.TransportHTTP},
			{ID: "worker-3", Addr: "localhost:4003", Transport: cluster.TransportHTTP},
		},
		Worker: WorkerConfig{
			ID:     "worker-1",
			Listen: ":4001",
		},
		Log: LogConfig{Level: "info"},
	}
}

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("balancer.listen", defaults.Balancer.Listen)
	v.SetDefault("balancer.stream_addr", defaults.Balancer.StreamAddr)
	v.SetDefault("balancer.status_timeout", defaults.Balancer.StatusTimeout)
	v.SetDefault("balancer.solve_timeout", defaults.Balancer.SolveTimeout)
	v.SetDefault("balancer.broadcast_interval", defaults.Balancer.BroadcastInterval)
	v.SetDefault("balancer.history_size", defaults.Balancer.HistorySize)
	v.SetDefault("balancer.nats_url", defaults.Balancer.NATSURL)
	v.SetDefault("balancer.nats_subject", defaults.Balancer.NATSSubject)

	v.SetDefault("workers", defaults.Workers)

	v.SetDefault("worker.id", defaults.Worker.ID)
	v.SetDefault("worker.listen", defaults.Worker.Listen)
	v.SetDefault("worker.grpc_listen", defaults.Worker.GRPCListen)

	v.SetDefault("log.level", defaults.Log.Level)
}

// New returns a viper instance with defaults and environment overrides set
// up, reading cfgFile when it is non-empty. A missing default config file is
// not an error; a missing explicit one is.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// SOLVERNET_BALANCER_SOLVE_TIMEOUT for balancer.solve_timeout
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return v, nil
	}

	v.SetConfigName("solvernet")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/solvernet")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	// SOLVERNET_WORKERS="w1=localhost:4001,w2=grpc://localhost:5001"
	if s, ok := v.Get("workers").(string); ok {
		workers, err := ParseWorkers(s)
		if err != nil {
			return nil, err
		}
		v.Set("workers", workers)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	for i := range cfg.Workers {
		if cfg.Workers[i].Transport == "" {
			cfg.Workers[i].Transport = cluster.TransportHTTP
		}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ParseWorkers parses the compact roster form "id=addr,id=addr". An address
// prefixed with grpc:// selects the gRPC transport; http:// or no scheme
// selects HTTP.
func ParseWorkers(s string) ([]cluster.WorkerInfo, error) {
	var workers []cluster.WorkerInfo
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, addr, ok := strings.Cut(entry, "=")
		if !ok || id == "" || addr == "" {
			return nil, fmt.Errorf("workers: malformed entry %q, want id=addr", entry)
		}
		info := cluster.WorkerInfo{ID: strings.TrimSpace(id), Addr: strings.TrimSpace(addr), Transport: cluster.TransportHTTP}
		if rest, found := strings.CutPrefix(info.Addr, "grpc://"); found {
			info.Addr, info.Transport = rest, cluster.TransportGRPC
		}
		workers = append(workers, info)
	}
	return workers, nil
}
