package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/audio"
)

// Sink is an output stage. Start blocks draining PCM from src until ctx is
// cancelled or the stage fails. Close releases whatever Start left open and
// is safe to call after Start has returned.
type Sink interface {
	Name() string
	Start(ctx context.Context, src io.Reader) error
	Close() error
}

// chunkInterval is the wall-clock duration of one render chunk, used by
// paced sinks to consume at device rate.
const chunkInterval = time.Second * ChunkFrames / audio.SampleRate

// DiscardSink consumes PCM at device rate and throws it away. Useful for
// headless runs.
type DiscardSink struct {
	logger *zap.Logger
}

func NewDiscardSink(logger *zap.Logger) *DiscardSink {
	return &DiscardSink{logger: logger}
}

func (s *DiscardSink) Name() string { return "discard" }

func (s *DiscardSink) Start(ctx context.Context, src io.Reader) error {
	s.logger.Info("discard output started")
	return pump(ctx, src, io.Discard)
}

func (s *DiscardSink) Close() error { return nil }

// pump copies chunk-sized slices of PCM from src to w at real-time pace:
// one chunk up front, then one per chunk interval until ctx is cancelled.
func pump(ctx context.Context, src io.Reader, w io.Writer) error {
	buf := make([]byte, ChunkBytes)
	ticker := time.NewTicker(chunkInterval)
	defer ticker.Stop()

	for {
		if _, err := io.ReadFull(src, buf); err != nil {
			return fmt.Errorf("read pcm: %w", err)
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write pcm: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
