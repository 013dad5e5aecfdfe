// Package config assembles process configuration from environment variables.
// The binary takes no flags and reads no files.
package config

import (
	"os"
	"strconv"
)

// Output stage selectors for the OUTPUT variable.
const (
	OutputSpeaker = "speaker"
	OutputWAV     = "wav"
	OutputDiscard = "discard"
)

// Config carries everything the binary needs to start.
type Config struct {
	// ControlAddr is the TCP listen address of the command protocol.
	ControlAddr string

	// APIAddr is the HTTP listen address of the status API.
	APIAddr string

	// Output selects the sink: speaker, wav, or discard.
	Output string

	// WAVPath is the recording destination when Output is wav.
	WAVPath string

	// DefaultFreq is the trusted startup frequency in Hz.
	DefaultFreq float64

	// ReportIntervalSec is how often the oscillator status is logged.
	ReportIntervalSec int

	// RingChunks is how many render chunks the pipeline stages ahead of
	// the output device.
	RingChunks int
}

// Load reads the environment, falling back to defaults for anything unset
// or unparsable.
func Load() *Config {
	return &Config{
		ControlAddr:       getEnv("CONTROL_ADDR", ":7040"),
		APIAddr:           getEnv("API_ADDR", ":8080"),
		Output:            getEnv("OUTPUT", OutputSpeaker),
		WAVPath:           getEnv("WAV_PATH", "tone.wav"),
		DefaultFreq:       getEnvFloat("DEFAULT_FREQ", 440),
		ReportIntervalSec: getEnvInt("REPORT_INTERVAL_SEC", 1),
		RingChunks:        getEnvInt("RING_CHUNKS", 4),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
