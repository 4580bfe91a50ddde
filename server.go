package qcat

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kardianos/qcat/qstore"
)

var (
	// ErrNoStore is returned when a server is created without a record store.
	ErrNoStore = errors.New("qcat: store is required")

	// ErrNoAuth is returned when a server is created without an authenticator.
	ErrNoAuth = errors.New("qcat: authenticator is required")

	// ErrServerClosed is returned by ServeConn once the server is shutting down.
	ErrServerClosed = errors.New("qcat: server closed")
)

const (
	defaultKeepalivePeriod = 15 * time.Second
	maxAcceptDelay         = time.Second
)

// ServerOpt configures a Server.
type ServerOpt struct {
	Store *qstore.Store
	Auth  Authenticator

	// Observer receives session logs. May be nil.
	Observer Observer

	// KeepalivePeriod sets the QUIC keepalive interval.
	KeepalivePeriod time.Duration
}

// Server accepts client connections and runs one Session per connection.
type Server struct {
	store     *qstore.Store
	auth      Authenticator
	obs       Observer
	keepAlive time.Duration

	nextID atomic.Uint64

	mu     sync.Mutex
	conns  map[uint64]io.Closer
	closed bool

	wg sync.WaitGroup
}

// NewServer creates a new Server.
func NewServer(opt ServerOpt) (*Server, error) {
	if opt.Store == nil {
		return nil, ErrNoStore
	}
	if opt.Auth == nil {
		return nil, ErrNoAuth
	}
	obs := opt.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	keepalive := opt.KeepalivePeriod
	if keepalive <= 0 {
		keepalive = defaultKeepalivePeriod
	}
	return &Server{
		store:     opt.Store,
		auth:      opt.Auth,
		obs:       obs,
		keepAlive: keepalive,
		conns:     make(map[uint64]io.Closer),
	}, nil
}

// Serve accepts connections on l until ctx is done or l fails.
// When ctx is done, or the listener is closed, open connections are closed
// and Serve waits for their sessions to return.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.Close()
	})
	defer stop()

	var delay time.Duration
	for {
		c, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.shutdown()
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				s.shutdown()
				return err
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			s.obs.Logf(0, "accept: %v; retrying in %v", err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = s.ServeConn(ctx, c)
		}()
	}
}

// ServeConn runs one session on rwc and closes it when the session ends.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) error {
	id := s.nextID.Add(1)
	if !s.track(id, rwc) {
		_ = rwc.Close()
		return ErrServerClosed
	}
	defer s.untrack(id)
	defer rwc.Close()

	if c, ok := rwc.(interface{ RemoteAddr() net.Addr }); ok {
		s.obs.Logf(id, "connected from %s", c.RemoteAddr())
	} else {
		s.obs.Logf(id, "connected")
	}

	sess := NewSession(id, rwc, s.store, s.auth, s.obs)
	err := sess.Run(ctx)
	if err != nil && ctx.Err() == nil {
		s.obs.Logf(id, "session ended: %v", err)
	} else {
		s.obs.Logf(id, "disconnected")
	}
	return err
}

func (s *Server) track(id uint64, c io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[id] = c
	return true
}

func (s *Server) untrack(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

// shutdown closes every open connection and waits for the sessions.
func (s *Server) shutdown() {
	s.mu.Lock()
	s.closed = true
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
