package balancer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/logging"
)

// DefaultNATSSubject is the subject ranked rosters are published on.
const DefaultNATSSubject = "solvernet.health"

// NATSPublisher is a broadcast observer that republishes every round as a
// JSON array on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     logging.Logger
}

// NewNATSPublisher creates a publisher over an established connection.
// An empty subject selects DefaultNATSSubject.
func NewNATSPublisher(conn *nats.Conn, subject string, log logging.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &NATSPublisher{conn: conn, subject: subject, log: log}
}

// ConnectNATS dials url with reconnects enabled and the connection named
// after the balancer.
func ConnectNATS(url string, log logging.Logger) (*nats.Conn, error) {
	if log == nil {
		log = logging.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("solvernet-balancer"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

// Publish sends one ranked roster.
func (p *NATSPublisher) Publish(ranked []cluster.RankedWorker) error {
	if ranked == nil {
		ranked = []cluster.RankedWorker{}
	}
	data, err := json.Marshal(ranked)
	if err != nil {
		return fmt.Errorf("encode ranked workers: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Run publishes every update until ctx is done or updates is closed.
// Publish failures are logged and the next round is tried.
//
// Example:
//
//	updates, unsubscribe := broadcaster.Subscribe()
//	defer unsubscribe()
//	go publisher.Run(ctx, updates)
func (p *NATSPublisher) Run(ctx context.Context, updates <-chan []cluster.RankedWorker) {
	for {
		select {
		case <-ctx.Done():
			return
		case ranked, ok := <-updates:
			if !ok {
				return
			}
			if err := p.Publish(ranked); err != nil {
				p.log.Warn("nats publish failed", "subject", p.subject, "error", err)
			}
		}
	}
}
