// Package pipeline pumps synthesized PCM from a sample source to an output
// stage. The source is anything implementing Handler; the output stage is
// anything implementing Sink.
package pipeline

import "github.com/spectrodyne/tonegen/internal/audio"

// ChunkBytes is the fixed render granularity: 8 KiB, 2048 stereo frames,
// about 43 ms at 48 kHz.
const (
	ChunkBytes  = 8192
	ChunkFrames = ChunkBytes / audio.BytesPerFrame
)

// Severity grades an attention signal from the output stage. The engine
// treats anything above SeverityWarning as fatal.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Attention codes reported alongside a severity.
const (
	CodeOutputFailure = "output_failure"
	CodeDeviceInit    = "device_init"
)

// Attention is a fault report from the output stage.
type Attention struct {
	Severity Severity
	Code     string
	Err      error
}

// PlaybackEventType distinguishes output-stage lifecycle notifications.
type PlaybackEventType int

const (
	PlaybackStarted PlaybackEventType = iota
	PlaybackStopped
)

func (t PlaybackEventType) String() string {
	if t == PlaybackStarted {
		return "started"
	}
	return "stopped"
}

// PlaybackEvent notifies the handler that the output stage started or
// stopped consuming.
type PlaybackEvent struct {
	Type   PlaybackEventType
	Detail string
}

// Handler is the contract the pipeline drives. The engine implements it;
// the pipeline never sees the engine type itself.
type Handler interface {
	// OnDecodeRequest fills dst with interleaved stereo samples. Returning
	// false marks the handler terminal: the pipeline stops requesting and
	// serves silence from then on.
	OnDecodeRequest(dst []int16) bool

	// OnMixDone reports frames handed to the output stage.
	OnMixDone(frames int)

	// OnError delivers an attention signal.
	OnError(att Attention)

	// OnPlaybackEvent announces output-stage start and stop. Returning
	// false from a start event vetoes playback.
	OnPlaybackEvent(ev PlaybackEvent) bool
}
