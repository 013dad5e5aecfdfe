// Package control hosts the line-oriented frequency protocol: a TCP
// listener where every connection is an independent command session, and a
// reader loop for feeding the same protocol from stdin.
package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/command"
	"github.com/spectrodyne/tonegen/internal/metrics"
)

// Target is the engine surface the control hosts drive. Apply reports
// whether the outcome retuned the oscillator; Done closes when the engine
// has faulted and no further commands will be honored.
type Target interface {
	Apply(out command.Outcome) bool
	Done() <-chan struct{}
}

const banner = "tonegen: send a frequency in Hz per line\n"

// Server accepts control connections and feeds each one through its own
// accumulator.
type Server struct {
	addr   string
	target Target
	logger *zap.Logger

	mu    sync.Mutex
	conns map[string]net.Conn
}

// NewServer creates a control server listening on addr once started.
func NewServer(addr string, target Target, logger *zap.Logger) *Server {
	return &Server{
		addr:   addr,
		target: target,
		logger: logger,
		conns:  make(map[string]net.Conn),
	}
}

// Start listens and serves until ctx is cancelled or the target faults,
// then closes the listener and every open session before returning.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen control: %w", err)
	}
	s.logger.Info("control listening", zap.String("addr", ln.Addr().String()))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-s.target.Done():
		case <-done:
		}
		ln.Close()
		s.closeAll()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || targetDone(s.target) {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept control: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(conn)
		}()
	}
}

func targetDone(t Target) bool {
	select {
	case <-t.Done():
		return true
	default:
		return false
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *Server) track(id string, conn net.Conn) {
	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}

// serveConn runs one control session: bytes in, one status line out per
// finished command. The session ends when the peer hangs up or the server
// shuts down.
func (s *Server) serveConn(conn net.Conn) {
	id := uuid.New().String()
	logger := s.logger.With(zap.String("session", id))
	s.track(id, conn)
	metrics.ControlSessionsActive.Inc()
	defer func() {
		s.untrack(id)
		metrics.ControlSessionsActive.Dec()
		conn.Close()
		logger.Info("control session closed")
	}()

	logger.Info("control session opened", zap.String("remote", conn.RemoteAddr().String()))
	if _, err := conn.Write([]byte(banner)); err != nil {
		return
	}

	acc := command.NewAccumulator()
	r := bufio.NewReader(conn)
	for {
		c, err := r.ReadByte()
		if err != nil {
			return
		}
		out, ok := acc.Feed(c)
		if !ok {
			continue
		}
		if err := s.respond(conn, out, s.target.Apply(out)); err != nil {
			return
		}
	}
}

// respond answers a finished line on the socket. An outcome that arrived
// after a fault is answered with the halt notice.
func (s *Server) respond(conn net.Conn, out command.Outcome, applied bool) error {
	var reply string
	switch {
	case applied:
		reply = fmt.Sprintf("ok %g\n", out.Frequency)
	case out.Verdict == command.VerdictApplied:
		reply = "err engine halted\n"
	default:
		reply = fmt.Sprintf("err %s\n", out.Reason)
	}
	_, err := conn.Write([]byte(reply))
	return err
}
