package balancer

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/dreamware/solvernet/internal/cluster"
)

// Member is one configured worker and the adapter used to reach it.
type Member struct {
	Info   cluster.WorkerInfo
	Worker cluster.Worker
}

// Dialer builds the transport adapter for a roster entry.
type Dialer func(info cluster.WorkerInfo) (cluster.Worker, error)

// HTTPDialer builds cluster.HTTPWorker adapters.
func HTTPDialer(info cluster.WorkerInfo) (cluster.Worker, error) {
	return cluster.NewHTTPWorker(info), nil
}

// NewRoster validates the configured workers and dials each one with the
// dialer registered for its transport (empty transport means http).
//
// Parameters:
//   - infos: Static worker list, in configuration order
//   - dialers: Adapter constructors keyed by transport name
//
// Returns:
//   - []Member: Roster in configuration order
//   - error: Empty/duplicate IDs, missing address, or unknown transport
//
// Example:
//
//	roster, err := balancer.NewRoster(cfg.Workers, map[string]balancer.Dialer{
//	    cluster.TransportHTTP: balancer.HTTPDialer,
//	    cluster.TransportGRPC: rpc.Dialer,
//	})
func NewRoster(infos []cluster.WorkerInfo, dialers map[string]Dialer) ([]Member, error) {
	roster := make([]Member, 0, len(infos))
	for i, info := range infos {
		if info.ID == "" || info.Addr == "" {
			return nil, fmt.Errorf("worker %d: missing id/addr", i)
		}
		if slices.IndexFunc(roster, func(m Member) bool { return m.Info.ID == info.ID }) >= 0 {
			return nil, fmt.Errorf("worker %d: duplicate id %q", i, info.ID)
		}
		if info.Transport == "" {
			info.Transport = cluster.TransportHTTP
		}
		dial, ok := dialers[info.Transport]
		if !ok {
			return nil, fmt.Errorf("worker %s: unknown transport %q", info.ID, info.Transport)
		}
		w, err := dial(info)
		if err != nil {
			return nil, fmt.Errorf("worker %s: %w", info.ID, err)
		}
		roster = append(roster, Member{Info: info, Worker: w})
	}
	return roster, nil
}
