package pipeline

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/audio"
)

// wavHeaderLen is the size of the canonical 44-byte PCM header.
const wavHeaderLen = 44

// WAVSink records the tone to a RIFF/WAVE file, consuming at device pace so
// the recording length tracks wall-clock time. The header is written with
// zero sizes up front and patched on Close, since the stream length is
// unknown until the pipeline stops.
type WAVSink struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	f       *os.File
	dataLen uint32
}

func NewWAVSink(path string, logger *zap.Logger) *WAVSink {
	return &WAVSink{path: path, logger: logger}
}

func (s *WAVSink) Name() string { return "wav" }

func (s *WAVSink) Start(ctx context.Context, src io.Reader) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	s.mu.Lock()
	s.f = f
	s.mu.Unlock()

	if err := writeWAVHeader(f, 0); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	s.logger.Info("wav output started", zap.String("path", s.path))
	return pump(ctx, src, s)
}

// Write appends payload bytes, counting them for the Close-time size patch.
func (s *WAVSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, os.ErrClosed
	}
	n, err := s.f.Write(p)
	s.dataLen += uint32(n)
	return n, err
}

// Close patches the RIFF and data chunk sizes and closes the file.
// Idempotent.
func (s *WAVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return fmt.Errorf("rewind wav: %w", err)
	}
	if err := writeWAVHeader(f, s.dataLen); err != nil {
		f.Close()
		return fmt.Errorf("patch wav header: %w", err)
	}
	s.logger.Info("wav output closed",
		zap.String("path", s.path),
		zap.Uint32("dataBytes", s.dataLen),
	)
	return f.Close()
}

// wavHeader is the canonical PCM layout: RIFF chunk descriptor, fmt chunk,
// data chunk descriptor.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

func writeWAVHeader(w io.Writer, dataLen uint32) error {
	h := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     wavHeaderLen - 8 + dataLen,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // integer PCM
		NumChannels:   audio.Channels,
		SampleRate:    audio.SampleRate,
		ByteRate:      audio.BytesPerSecond,
		BlockAlign:    audio.BytesPerFrame,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataLen,
	}
	return binary.Write(w, binary.LittleEndian, &h)
}
