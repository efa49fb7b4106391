package balancer

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/dreamware/solvernet/internal/logging"
	"github.com/dreamware/solvernet/internal/metrics"
)

// DefaultStatusTimeout bounds each GetStatus call during a fan-out.
const DefaultStatusTimeout = 2 * time.Second

// Prober queries every roster member's health concurrently and ranks the
// ones that answered. Both the dispatcher and the broadcaster use it.
// Thread-safe: Survey may be called concurrently.
type Prober struct {
	roster  []Member
	timeout time.Duration
	routing *metrics.Balancer
	log     logging.Logger
}

// NewProber creates a prober over roster. A non-positive timeout selects
// DefaultStatusTimeout; nil routing metrics and logger are replaced by
// unexported and no-op ones.
func NewProber(roster []Member, timeout time.Duration, routing *metrics.Balancer, log logging.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultStatusTimeout
	}
	if routing == nil {
		routing, _ = metrics.NewBalancer(nil, "solvernet")
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Prober{roster: roster, timeout: timeout, routing: routing, log: log}
}

// Roster returns the members being probed.
func (p *Prober) Roster() []Member { return p.roster }

// Survey calls GetStatus on every member at once and returns the available
// set ranked best first. Each call runs under its own deadline; a member that
// errors, times out or returns a malformed snapshot is left out without
// affecting the others. Nothing is cached between calls.
func (p *Prober) Survey(ctx context.Context) []Candidate {
	mapper := iter.Mapper[Member, *Candidate]{MaxGoroutines: len(p.roster)}
	results := mapper.Map(p.roster, func(m *Member) *Candidate {
		return p.probe(ctx, *m)
	})

	available := make([]Candidate, 0, len(results))
	for _, c := range results {
		if c != nil {
			available = append(available, *c)
		}
	}
	Rank(available)
	p.routing.Available(len(available))
	return available
}

func (p *Prober) probe(ctx context.Context, m Member) *Candidate {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, err := m.Worker.GetStatus(ctx)
	if err == nil {
		err = status.Validate()
	}
	if err != nil {
		p.routing.HealthCheckFailed(m.Info.ID)
		p.log.Warn("status query failed", "worker_id", m.Info.ID, "addr", m.Info.Addr, "error", err)
		return nil
	}
	return &Candidate{Member: m, Status: status}
}
