package balancer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/logging/logtest"
)

// startEmbeddedNATS runs an in-process NATS server on a random port.
func startEmbeddedNATS(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:  "127.0.0.1",
		Port:  -1,
		NoLog: true,
	})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("embedded NATS server not ready within timeout")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns
}

func TestNATSPublisherRun(t *testing.T) {
	ns := startEmbeddedNATS(t)

	pubConn, err := ConnectNATS(ns.ClientURL(), logtest.New(t))
	require.NoError(t, err)
	defer pubConn.Close()

	subConn, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer subConn.Close()

	sub, err := subConn.SubscribeSync(DefaultNATSSubject)
	require.NoError(t, err)
	require.NoError(t, subConn.Flush())

	p := NewNATSPublisher(pubConn, "", logtest.New(t))
	updates := make(chan []cluster.RankedWorker, 2)
	updates <- []cluster.RankedWorker{{ID: "w3", MemoryAvailableMB: 800, CPULoad: 0.1}}
	updates <- nil

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.Run(ctx, updates)
		close(done)
	}()

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	var ranked []cluster.RankedWorker
	require.NoError(t, json.Unmarshal(msg.Data, &ranked))
	assert.Equal(t, []cluster.RankedWorker{{ID: "w3", MemoryAvailableMB: 800, CPULoad: 0.1}}, ranked)

	msg, err = sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(msg.Data))

	close(updates)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after updates closed")
	}
}

func TestNATSPublisherCustomSubjectAndCancel(t *testing.T) {
	ns := startEmbeddedNATS(t)
	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	p := NewNATSPublisher(nc, "cluster.a.health", nil)
	assert.Equal(t, "cluster.a.health", p.subject)

	sub, err := nc.SubscribeSync("cluster.a.health")
	require.NoError(t, err)
	require.NoError(t, p.Publish([]cluster.RankedWorker{{ID: "w1"}}))
	_, err = sub.NextMsg(2 * time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx, make(chan []cluster.RankedWorker))
}

func TestNATSPublisherClosedConnection(t *testing.T) {
	ns := startEmbeddedNATS(t)
	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	nc.Close()

	p := NewNATSPublisher(nc, "", nil)
	err = p.Publish([]cluster.RankedWorker{})
	assert.ErrorIs(t, err, nats.ErrConnectionClosed)
}
