package audio

// Stream format produced by the oscillator and consumed by every sink:
// interleaved 16-bit signed little-endian stereo PCM at 48 kHz.
const (
	SampleRate = 48000
	Channels   = 2

	// BytesPerFrame covers one time-step across all channels (int16 left + right).
	BytesPerFrame = Channels * 2

	// BytesPerSecond is the byte rate of the PCM stream.
	BytesPerSecond = SampleRate * BytesPerFrame
)
