package balancer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/logging"
)

// DefaultBroadcastInterval is how often the ranked roster is pushed to observers.
const DefaultBroadcastInterval = 2 * time.Second

// subscriberBuffer is how many undelivered rounds an observer may fall behind.
const subscriberBuffer = 4

// Broadcaster periodically surveys the workers and pushes the ranked
// available set to every subscribed observer.
//
// Rounds run only while at least one observer is subscribed. Delivery never
// blocks: an observer whose buffer is full misses that round and receives
// the next one.
// Thread-safe: All methods are safe for concurrent access.
type Broadcaster struct {
	prober      *Prober
	log         logging.Logger
	subscribers *xsync.Map[uint64, *subscriber]
	nextID      atomic.Uint64
	rounds      atomic.Uint64
	ctx         context.Context
	cancel      context.CancelFunc
	interval    time.Duration
	wg          sync.WaitGroup

	mu      sync.Mutex // guards stopped and wg.Add
	stopped bool
}

// NewBroadcaster creates a broadcaster that surveys through prober every
// interval (DefaultBroadcastInterval when non-positive).
//
// Example:
//
//	b := balancer.NewBroadcaster(prober, 2*time.Second, log)
//	go b.Start(ctx)
//	defer b.Stop()
func NewBroadcaster(prober *Prober, interval time.Duration, log logging.Logger) *Broadcaster {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	if log == nil {
		log = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Broadcaster{
		prober:      prober,
		log:         log,
		subscribers: xsync.NewMap[uint64, *subscriber](),
		ctx:         ctx,
		cancel:      cancel,
		interval:    interval,
	}
}

// Subscribe registers an observer. The returned channel receives one ranked
// list per round and is closed by the unsubscribe function or by Stop.
//
// Example:
//
//	updates, unsubscribe := b.Subscribe()
//	defer unsubscribe()
//	for ranked := range updates {
//	    render(ranked)
//	}
func (b *Broadcaster) Subscribe() (<-chan []cluster.RankedWorker, func()) {
	id := b.nextID.Add(1)
	sub := &subscriber{ch: make(chan []cluster.RankedWorker, subscriberBuffer)}
	b.subscribers.Store(id, sub)
	b.log.Debug("observer subscribed", "subscriber_id", id)

	return sub.ch, func() { b.unsubscribe(id) }
}

func (b *Broadcaster) unsubscribe(id uint64) {
	if sub, ok := b.subscribers.LoadAndDelete(id); ok {
		sub.close()
		b.log.Debug("observer unsubscribed", "subscriber_id", id)
	}
}

// Subscribers returns the number of subscribed observers.
func (b *Broadcaster) Subscribers() int {
	return b.subscribers.Size()
}

// Rounds returns how many survey rounds have been broadcast.
func (b *Broadcaster) Rounds() uint64 {
	return b.rounds.Load()
}

// Start runs the broadcast loop in the current goroutine until ctx or the
// broadcaster is canceled. A round runs immediately, then every interval.
// Start returns at once when Stop has already been called.
func (b *Broadcaster) Start(ctx context.Context) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(b.ctx, cancel)
	defer stop()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.log.Info("health broadcaster started", "interval", b.interval)
	b.broadcast(ctx)

	for {
		select {
		case <-ticker.C:
			b.broadcast(ctx)
		case <-ctx.Done():
			b.log.Info("health broadcaster stopped")
			return
		}
	}
}

// Stop cancels the loop, waits for it to exit and closes every subscriber channel.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	b.subscribers.Range(func(id uint64, _ *subscriber) bool {
		b.unsubscribe(id)
		return true
	})
}

// broadcast runs one survey and delivers it, skipping the survey entirely
// when nobody is listening.
func (b *Broadcaster) broadcast(ctx context.Context) {
	if b.subscribers.Size() == 0 {
		return
	}

	ranked := Ranked(b.prober.Survey(ctx))
	b.rounds.Add(1)

	b.subscribers.Range(func(id uint64, sub *subscriber) bool {
		if !sub.trySend(ranked) {
			b.log.Debug("observer lagging, round dropped", "subscriber_id", id)
		}
		return true
	})
}

// subscriber wraps an observer channel so sends and close never race.
type subscriber struct {
	ch     chan []cluster.RankedWorker
	mu     sync.Mutex
	closed bool
}

// trySend delivers without blocking and reports whether it did.
func (s *subscriber) trySend(ranked []cluster.RankedWorker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- ranked:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
