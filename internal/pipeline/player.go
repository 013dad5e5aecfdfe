package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/audio"
	"github.com/spectrodyne/tonegen/internal/metrics"
	"github.com/spectrodyne/tonegen/internal/ringbuffer"
)

// Player connects a Handler to a Sink. Rendered chunks are staged in a FIFO
// ring so the sink can pull arbitrary byte counts; once the handler reports
// it is terminal the player stops requesting samples and serves silence.
type Player struct {
	handler Handler
	logger  *zap.Logger
	ring    *ringbuffer.Buffer
	chunk   []int16
	scratch []byte
	stopped atomic.Bool
}

// NewPlayer stages up to ringChunks render chunks ahead of the sink.
func NewPlayer(h Handler, ringChunks int, logger *zap.Logger) *Player {
	if ringChunks < 1 {
		ringChunks = 1
	}
	return &Player{
		handler: h,
		logger:  logger,
		ring:    ringbuffer.New(ringChunks * ChunkBytes),
		chunk:   make([]int16, ChunkFrames*audio.Channels),
		scratch: make([]byte, ChunkBytes),
	}
}

// Read implements io.Reader for pull-mode sinks. It always fills p, topping
// the ring up from the handler as needed and zero-filling once the handler
// has gone terminal. Read never returns an error; a halted pipeline keeps
// the device fed with silence until the sink is closed.
func (p *Player) Read(buf []byte) (int, error) {
	served := 0
	for served < len(buf) {
		if p.ring.Buffered() == 0 && !p.renderChunk() {
			break
		}
		served += p.ring.Read(buf[served:])
	}
	for i := served; i < len(buf); i++ {
		buf[i] = 0
	}
	if served > 0 {
		p.handler.OnMixDone(served / audio.BytesPerFrame)
	}
	return len(buf), nil
}

// renderChunk asks the handler for one chunk and stages it, returning false
// once the handler is terminal.
func (p *Player) renderChunk() bool {
	if p.stopped.Load() {
		return false
	}

	start := time.Now()
	ok := p.handler.OnDecodeRequest(p.chunk)
	metrics.ChunkRenderSeconds.Observe(time.Since(start).Seconds())
	if !ok {
		p.stopped.Store(true)
		p.logger.Info("sample source terminal, serving silence")
		return false
	}

	p.ring.Write(audio.Int16ToBytesInto(p.chunk, p.scratch))
	return true
}

// Serve runs the sink against this player until ctx is cancelled or the
// output stage fails. A failure while the context is still live is reported
// to the handler as an error-severity attention before Serve returns.
func (p *Player) Serve(ctx context.Context, sink Sink) error {
	if !p.handler.OnPlaybackEvent(PlaybackEvent{Type: PlaybackStarted, Detail: sink.Name()}) {
		p.logger.Warn("playback vetoed by handler", zap.String("sink", sink.Name()))
		return nil
	}

	err := sink.Start(ctx, p)
	p.handler.OnPlaybackEvent(PlaybackEvent{Type: PlaybackStopped, Detail: sink.Name()})

	if err != nil && ctx.Err() == nil {
		p.handler.OnError(Attention{Severity: SeverityError, Code: CodeOutputFailure, Err: err})
		return err
	}
	return nil
}
