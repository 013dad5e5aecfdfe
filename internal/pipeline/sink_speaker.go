package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/audio"
)

// SpeakerSink plays PCM on the default audio device via oto. The device
// pulls samples through the player's Read on oto's render goroutine, which
// makes the device callback the decode-request cadence.
type SpeakerSink struct {
	logger *zap.Logger

	mu     sync.Mutex
	player *oto.Player
}

func NewSpeakerSink(logger *zap.Logger) *SpeakerSink {
	return &SpeakerSink{logger: logger}
}

func (s *SpeakerSink) Name() string { return "speaker" }

// Start opens the device and plays src until ctx is cancelled. The oto
// context is process-global and cannot be torn down, so it is created here
// rather than at construction to keep unused sinks free.
func (s *SpeakerSink) Start(ctx context.Context, src io.Reader) error {
	op := &oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: audio.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   2 * chunkInterval,
	}
	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return nil
	}

	player := otoCtx.NewPlayer(src)
	player.Play()
	s.mu.Lock()
	s.player = player
	s.mu.Unlock()
	s.logger.Info("speaker output started",
		zap.Int("sampleRate", audio.SampleRate),
		zap.Int("channels", audio.Channels),
	)

	<-ctx.Done()
	return s.Close()
}

// Close stops the device player. Idempotent.
func (s *SpeakerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	if err != nil {
		return fmt.Errorf("close audio device: %w", err)
	}
	return nil
}
