package control

import (
	"context"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestRunReaderFeedsUntilEOF(t *testing.T) {
	target := newFakeTarget()
	in := strings.NewReader("abc 100\nnonsense\n440.5\n\n\n")

	if err := RunReader(context.Background(), in, target, zap.NewNop()); err != nil {
		t.Fatalf("RunReader: %v", err)
	}

	freqs := target.appliedFreqs()
	if len(freqs) != 2 || freqs[0] != 100 || freqs[1] != 440.5 {
		t.Errorf("applied = %v, want [100 440.5]", freqs)
	}
}

func TestRunReaderStopsOnFault(t *testing.T) {
	target := newFakeTarget()
	close(target.done)

	// An endless stream; RunReader must return anyway.
	pr, pw := io.Pipe()
	defer pw.Close()

	done := make(chan error, 1)
	go func() { done <- RunReader(context.Background(), pr, target, zap.NewNop()) }()

	go pw.Write([]byte("100\n"))
	if err := <-done; err != nil {
		t.Fatalf("RunReader: %v", err)
	}
	if len(target.appliedFreqs()) != 0 {
		t.Error("command applied after fault")
	}
}

func TestRunReaderStopsOnCancel(t *testing.T) {
	target := newFakeTarget()
	ctx, cancel := context.WithCancel(context.Background())

	pr, _ := io.Pipe() // never produces bytes
	done := make(chan error, 1)
	go func() { done <- RunReader(ctx, pr, target, zap.NewNop()) }()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunReader: %v", err)
	}
}
