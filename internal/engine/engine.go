// Package engine owns the oscillator and the running/faulted state machine,
// and implements the pipeline callback contract.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/audio"
	"github.com/spectrodyne/tonegen/internal/command"
	"github.com/spectrodyne/tonegen/internal/metrics"
	"github.com/spectrodyne/tonegen/internal/pipeline"
)

// Engine states. Faulted is absorbing: once entered the engine renders
// silence, ignores commands, and never recovers within the process.
const (
	StateRunning int32 = iota
	StateFaulted
)

// Engine gathers oscillator, counters, and fault state into one context
// object shared by the synthesis path, the command paths, and the status
// surface.
type Engine struct {
	logger *zap.Logger
	osc    *audio.Oscillator

	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once

	startedAt      time.Time
	framesRendered atomic.Uint64
	deliveries     atomic.Uint64
}

// New creates a running engine tuned to the trusted default frequency.
func New(defaultFreq float64, logger *zap.Logger) *Engine {
	e := &Engine{
		logger:    logger,
		osc:       audio.NewOscillator(audio.SampleRate, audio.DefaultAmplitude, defaultFreq),
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	metrics.EngineState.Set(0)
	metrics.FrequencyHz.Set(defaultFreq)
	return e
}

// Running reports whether the engine still accepts commands and renders
// audio.
func (e *Engine) Running() bool { return e.state.Load() == StateRunning }

// Done is closed when the engine enters the faulted state.
func (e *Engine) Done() <-chan struct{} { return e.done }

// OnDecodeRequest fills dst with the next interleaved stereo samples,
// advancing the oscillator phase. A faulted engine writes silence and
// returns false.
func (e *Engine) OnDecodeRequest(dst []int16) bool {
	if !e.Running() {
		for i := range dst {
			dst[i] = 0
		}
		return false
	}
	e.osc.Synthesize(dst)
	frames := len(dst) / audio.Channels
	e.framesRendered.Add(uint64(frames))
	metrics.FramesRenderedTotal.Add(float64(frames))
	return true
}

// OnMixDone records that the output stage consumed the given number of
// frames.
func (e *Engine) OnMixDone(frames int) {
	e.deliveries.Add(1)
	metrics.MixDeliveriesTotal.Inc()
}

// OnError handles an attention signal from the output stage. Severities
// above warning fault the engine permanently; anything else is logged and
// survived.
func (e *Engine) OnError(att pipeline.Attention) {
	metrics.AttentionsTotal.WithLabelValues(att.Severity.String()).Inc()
	if att.Severity <= pipeline.SeverityWarning {
		e.logger.Warn("audio attention",
			zap.String("severity", att.Severity.String()),
			zap.String("code", att.Code),
			zap.Error(att.Err),
		)
		return
	}
	e.fault(att)
}

// OnPlaybackEvent acknowledges lifecycle notifications from the output
// stage. Playback is never vetoed.
func (e *Engine) OnPlaybackEvent(ev pipeline.PlaybackEvent) bool {
	e.logger.Info("playback event",
		zap.String("event", ev.Type.String()),
		zap.String("sink", ev.Detail),
	)
	return true
}

func (e *Engine) fault(att pipeline.Attention) {
	if !e.state.CompareAndSwap(StateRunning, StateFaulted) {
		return // already faulted
	}
	metrics.EngineState.Set(1)
	e.logger.Error("audio halted",
		zap.String("severity", att.Severity.String()),
		zap.String("code", att.Code),
		zap.Error(att.Err),
	)
	e.closeOnce.Do(func() { close(e.done) })
}

// Apply feeds a finished command line into the engine and reports whether
// it retuned the oscillator. Rejected outcomes and anything arriving after
// a fault leave the frequency untouched.
func (e *Engine) Apply(out command.Outcome) bool {
	if !e.Running() {
		return false
	}
	if out.Verdict != command.VerdictApplied {
		metrics.CommandsTotal.WithLabelValues(out.Verdict.String()).Inc()
		e.logger.Warn("frequency command rejected",
			zap.String("line", out.Line),
			zap.String("reason", out.Reason),
		)
		return false
	}
	e.osc.SetFrequency(out.Frequency)
	metrics.CommandsTotal.WithLabelValues(out.Verdict.String()).Inc()
	metrics.FrequencyHz.Set(out.Frequency)
	e.logger.Info("frequency changed", zap.Float64("frequencyHz", out.Frequency))
	return true
}

// Status is a point-in-time snapshot served by the status API.
type Status struct {
	State          string  `json:"state"`
	FrequencyHz    float64 `json:"frequencyHz"`
	Phase          float64 `json:"phase"`
	SampleRate     int     `json:"sampleRate"`
	FramesRendered uint64  `json:"framesRendered"`
	UptimeSec      float64 `json:"uptimeSec"`
}

// Snapshot captures the engine state without touching the synthesis path.
func (e *Engine) Snapshot() Status {
	state := "running"
	if !e.Running() {
		state = "faulted"
	}
	return Status{
		State:          state,
		FrequencyHz:    e.osc.Frequency(),
		Phase:          e.osc.Phase(),
		SampleRate:     audio.SampleRate,
		FramesRendered: e.framesRendered.Load(),
		UptimeSec:      time.Since(e.startedAt).Seconds(),
	}
}
