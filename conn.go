package qcat

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/quic-go/quic-go"
)

// streamCloseGrace bounds how long the server waits for a QUIC client to
// close its connection after the session stream has been closed.
const streamCloseGrace = 5 * time.Second

// quicStream carries one session over the first stream of a QUIC connection.
type quicStream struct {
	*quic.Stream
	conn  *quic.Conn
	grace time.Duration
	done  <-chan struct{}
}

// Close finishes the stream and closes the connection once the peer has
// gone or the grace period passes. Data already written is flushed first.
func (s *quicStream) Close() error {
	s.Stream.CancelRead(0)
	err := s.Stream.Close()
	if s.grace > 0 {
		t := time.NewTimer(s.grace)
		select {
		case <-s.conn.Context().Done():
		case <-s.done:
		case <-t.C:
		}
		t.Stop()
	}
	_ = s.conn.CloseWithError(0, "session closed")
	return err
}

func (s *quicStream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// ServeQUIC accepts QUIC connections on pc and runs one session on the first
// stream each client opens. It returns when ctx is done or the listener fails.
func (s *Server) ServeQUIC(ctx context.Context, pc net.PacketConn, tlsConf *tls.Config) error {
	quicConfig := &quic.Config{
		KeepAlivePeriod: s.keepAlive,
	}

	listener, err := quic.Listen(pc, tlsConf, quicConfig)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.shutdown()
				return nil
			}
			s.shutdown()
			return err
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			stream, err := conn.AcceptStream(ctx)
			if err != nil {
				_ = conn.CloseWithError(1, "no stream")
				return
			}
			_ = s.ServeConn(ctx, &quicStream{Stream: stream, conn: conn, grace: streamCloseGrace, done: ctx.Done()})
		}()
	}
}
