package control

import (
	"bufio"
	"context"
	"net"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/command"
	"github.com/spectrodyne/tonegen/internal/testutil"
)

// fakeTarget records applied outcomes and can be faulted by closing done.
type fakeTarget struct {
	mu       sync.Mutex
	applied  []command.Outcome
	rejected []command.Outcome
	done     chan struct{}
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{done: make(chan struct{})}
}

func (f *fakeTarget) Apply(out command.Outcome) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return false
	default:
	}
	if out.Verdict == command.VerdictApplied {
		f.applied = append(f.applied, out)
		return true
	}
	f.rejected = append(f.rejected, out)
	return false
}

func (f *fakeTarget) Done() <-chan struct{} { return f.done }

func (f *fakeTarget) appliedFreqs() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	freqs := make([]float64, len(f.applied))
	for i, out := range f.applied {
		freqs[i] = out.Frequency
	}
	return freqs
}

// startServer runs a control server on a loopback port and returns its
// address plus a shutdown func that waits for Start to return.
func startServer(t *testing.T, target Target) (string, func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(addr, target, zap.NewNop())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	// Wait for the listener to come up.
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("control server never came up: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	return addr, func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Start returned %v", err)
		}
	}
}

func dialControl(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial control: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	r := bufio.NewReader(conn)
	if _, err := r.ReadString('\n'); err != nil { // banner
		t.Fatalf("read banner: %v", err)
	}
	return conn, r
}

func TestSessionAppliesAndRejects(t *testing.T) {
	target := newFakeTarget()
	addr, shutdown := startServer(t, target)
	defer shutdown()

	conn, r := dialControl(t, addr)

	if _, err := conn.Write([]byte("100\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply != "ok 100\n" {
		t.Errorf("reply = %q, want ok 100", reply)
	}

	if _, err := conn.Write([]byte("999999\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err = r.ReadString('\n')
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if !strings.HasPrefix(reply, "err ") {
		t.Errorf("reply = %q, want err prefix", reply)
	}

	freqs := target.appliedFreqs()
	if len(freqs) != 1 || freqs[0] != 100 {
		t.Errorf("applied = %v, want [100]", freqs)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	target := newFakeTarget()
	addr, shutdown := startServer(t, target)
	defer shutdown()

	a, ra := dialControl(t, addr)
	b, rb := dialControl(t, addr)

	// a leaves a partial line pending; b's complete line must not see it.
	if _, err := a.Write([]byte("44")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := b.Write([]byte("100\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if reply, err := rb.ReadString('\n'); err != nil || reply != "ok 100\n" {
		t.Fatalf("b reply = %q, %v", reply, err)
	}

	if _, err := a.Write([]byte("0\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if reply, err := ra.ReadString('\n'); err != nil || reply != "ok 440\n" {
		t.Fatalf("a reply = %q, %v; pending bytes leaked across sessions", reply, err)
	}
}

func TestFaultClosesSessions(t *testing.T) {
	target := newFakeTarget()
	addr, shutdown := startServer(t, target)
	defer shutdown()

	conn, r := dialControl(t, addr)
	close(target.done)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := r.ReadString('\n'); err == nil {
		t.Error("session still open after fault")
	}
}

func TestShutdownLeavesNoGoroutines(t *testing.T) {
	baseline := runtime.NumGoroutine()

	target := newFakeTarget()
	addr, shutdown := startServer(t, target)
	conn, _ := dialControl(t, addr)
	conn.Write([]byte("30"))
	shutdown()

	testutil.AssertNoGoroutineLeaks(t, baseline, 2, 2*time.Second)
}
