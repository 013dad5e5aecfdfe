// Package metrics defines the Prometheus instruments exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FrequencyHz tracks the oscillator frequency currently in effect.
	FrequencyHz = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_frequency_hz",
		Help: "Oscillator frequency currently in effect",
	})

	// OscillatorPhase tracks the phase accumulator as of the last report.
	OscillatorPhase = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_oscillator_phase_radians",
		Help: "Oscillator phase accumulator at the last status report",
	})

	// EngineState is 0 while running and 1 once faulted.
	EngineState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_engine_state",
		Help: "Engine state (0 running, 1 faulted)",
	})

	// ControlSessionsActive counts open control connections.
	ControlSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tonegen_control_sessions_active",
		Help: "Open control protocol connections",
	})
)

var (
	// CommandsTotal counts finished command lines by outcome.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegen_commands_total",
		Help: "Frequency command lines by outcome",
	}, []string{"outcome"})

	// FramesRenderedTotal counts stereo frames synthesized.
	FramesRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonegen_frames_rendered_total",
		Help: "Stereo frames synthesized",
	})

	// MixDeliveriesTotal counts buffer deliveries to the output stage.
	MixDeliveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tonegen_mix_deliveries_total",
		Help: "PCM buffer deliveries to the output stage",
	})

	// AttentionsTotal counts output-stage attention signals by severity.
	AttentionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tonegen_attentions_total",
		Help: "Output-stage attention signals by severity",
	}, []string{"severity"})
)

var (
	// ChunkRenderSeconds observes the time spent synthesizing one PCM chunk.
	ChunkRenderSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tonegen_chunk_render_seconds",
		Help:    "Time to synthesize one PCM chunk",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})
)
