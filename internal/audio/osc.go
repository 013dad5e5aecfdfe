package audio

import (
	"math"
	"sync/atomic"
)

// DefaultAmplitude is the peak sample value of the synthesized tone. It must
// stay at or below math.MaxInt16 so sin(phase)*amplitude cannot leave the
// 16-bit sample range.
const DefaultAmplitude = 15000

const twoPi = 2 * math.Pi

// Oscillator is a single sine voice: a phase accumulator, a tunable
// frequency, and a fixed sample rate and amplitude.
//
// Synthesize has a single owner; the phase accumulator is never shared
// between concurrent renders. Frequency is stored as atomic bits so command
// handlers on other goroutines can retune at any time, and a value stored
// before a Synthesize call begins is visible to that call.
type Oscillator struct {
	sampleRate float64
	amplitude  float64

	freqBits  atomic.Uint64
	phaseBits atomic.Uint64
}

// NewOscillator creates an oscillator at the given starting frequency.
// The starting value is trusted and bypasses command validation.
func NewOscillator(sampleRate float64, amplitude int, freq float64) *Oscillator {
	o := &Oscillator{
		sampleRate: sampleRate,
		amplitude:  float64(amplitude),
	}
	o.freqBits.Store(math.Float64bits(freq))
	return o
}

// SetFrequency retunes the oscillator. Takes effect on the next Synthesize
// call; an in-flight call keeps the increment it started with.
func (o *Oscillator) SetFrequency(hz float64) {
	o.freqBits.Store(math.Float64bits(hz))
}

// Frequency returns the current frequency in Hz.
func (o *Oscillator) Frequency() float64 {
	return math.Float64frombits(o.freqBits.Load())
}

// Phase returns the phase accumulator in [0, 2*pi) as of the last
// Synthesize call.
func (o *Oscillator) Phase() float64 {
	return math.Float64frombits(o.phaseBits.Load())
}

// Synthesize fills dst with len(dst)/Channels frames of interleaved stereo
// samples. Each frame is v = int16(sin(phase)*amplitude), truncated toward
// zero, written to both channel slots. dst length must be a multiple of
// Channels.
//
// The phase increment is read once per call, so a retune never splits a
// buffer. The wrap is a single subtraction, which holds while the increment
// stays below 2*pi; the command validation ceiling keeps it far below.
func (o *Oscillator) Synthesize(dst []int16) {
	phase := o.Phase()
	phaseInc := twoPi * o.Frequency() / o.sampleRate

	frames := len(dst) / Channels
	for i := 0; i < frames; i++ {
		v := int16(math.Sin(phase) * o.amplitude)
		dst[i*2] = v
		dst[i*2+1] = v
		phase += phaseInc
		if phase >= twoPi {
			phase -= twoPi
		}
	}
	o.phaseBits.Store(math.Float64bits(phase))
}
