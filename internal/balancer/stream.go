package balancer

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/dreamware/solvernet/internal/cluster"
	"github.com/dreamware/solvernet/internal/logging"
)

// DefaultStreamAddr is where observers connect for the health stream.
const DefaultStreamAddr = ":5000"

// DefaultWriteTimeout bounds each push to an observer connection.
const DefaultWriteTimeout = 5 * time.Second

// StreamServer pushes every broadcast round to connected TCP observers.
//
// Each message is one JSON array of cluster.RankedWorker followed by a
// newline. Observers never send anything; reading from the connection only
// detects that the observer went away. A failed or timed-out write closes the
// connection and unsubscribes it.
// Thread-safe: Serve may be called once; Close may be called concurrently.
type StreamServer struct {
	broadcaster  *Broadcaster
	log          logging.Logger
	writeTimeout time.Duration

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewStreamServer creates a stream server fed by b.
func NewStreamServer(b *Broadcaster, log logging.Logger) *StreamServer {
	if log == nil {
		log = logging.NewNop()
	}
	return &StreamServer{
		broadcaster:  b,
		log:          log,
		writeTimeout: DefaultWriteTimeout,
		conns:        make(map[net.Conn]struct{}),
	}
}

// ListenAndServe listens on addr and serves observers until Close.
func (s *StreamServer) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts observer connections on ln until Close. It returns nil after
// Close and the accept error otherwise.
func (s *StreamServer) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.log.Info("health stream listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if !s.track(conn) {
			_ = conn.Close()
			return nil
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

// Addr returns the listening address, or nil before Serve.
func (s *StreamServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops accepting, disconnects every observer and waits for their
// handlers to return.
func (s *StreamServer) Close() error {
	s.mu.Lock()
	s.closed = true
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *StreamServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *StreamServer) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *StreamServer) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	remote := conn.RemoteAddr().String()
	updates, unsubscribe := s.broadcaster.Subscribe()
	defer unsubscribe()
	s.log.Info("observer connected", "remote", remote)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_, _ = io.Copy(io.Discard, conn)
	}()

	enc := json.NewEncoder(conn)
	for {
		select {
		case ranked, ok := <-updates:
			if !ok {
				return
			}
			if err := s.write(conn, enc, ranked); err != nil {
				s.log.Warn("observer write failed", "remote", remote, "error", err)
				return
			}
		case <-gone:
			s.log.Info("observer disconnected", "remote", remote)
			return
		}
	}
}

// write sends one self-delimited message; json.Encoder terminates it with '\n'.
func (s *StreamServer) write(conn net.Conn, enc *json.Encoder, ranked []cluster.RankedWorker) error {
	if ranked == nil {
		ranked = []cluster.RankedWorker{}
	}
	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return enc.Encode(ranked)
}
