package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spectrodyne/tonegen/internal/metrics"
)

// RunReporter logs the oscillator phase and frequency at the given interval
// and refreshes the matching gauges. It returns when ctx is cancelled or
// the engine faults.
func (e *Engine) RunReporter(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-ticker.C:
			s := e.Snapshot()
			metrics.OscillatorPhase.Set(s.Phase)
			e.logger.Info("oscillator status",
				zap.Float64("phase", s.Phase),
				zap.Float64("frequencyHz", s.FrequencyHz),
				zap.Uint64("framesRendered", s.FramesRendered),
			)
		}
	}
}
