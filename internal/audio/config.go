package audio

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmpty is returned when Play is given no samples.
	ErrEmpty = errors.New("audio data is empty")

	// ErrClosed is returned by a player that has been closed.
	ErrClosed = errors.New("player is closed")

	// ErrUnavailable is returned when the binary was built without audio.
	ErrUnavailable = errors.New("audio not available in this build")
)

// Config describes the PCM format handed to Play.
type Config struct {
	SampleRate int // Hz
	Channels   int // 1 = mono, 2 = stereo
	BitDepth   int // only 16 is supported
	BufferSize int // bytes
}

// DefaultConfig matches piper's raw output: 16-bit mono at 22050 Hz.
func DefaultConfig() Config {
	return Config{
		SampleRate: 22050,
		Channels:   1,
		BitDepth:   16,
		BufferSize: 4096,
	}
}

var supportedRates = map[int]bool{
	16000: true,
	22050: true,
	24000: true,
	44100: true,
	48000: true,
}

func validateConfig(c Config) error {
	if !supportedRates[c.SampleRate] {
		return fmt.Errorf("unsupported sample rate %d Hz", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if c.BitDepth != 16 {
		return fmt.Errorf("bit depth must be 16, got %d", c.BitDepth)
	}
	if c.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// Duration returns how long n bytes of PCM in this format play for.
func (c Config) Duration(n int) time.Duration {
	frame := c.Channels * c.BitDepth / 8
	if frame <= 0 || c.SampleRate <= 0 {
		return 0
	}
	samples := n / frame
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// bufferDuration converts BufferSize into the duration oto expects.
func (c Config) bufferDuration() time.Duration {
	return c.Duration(c.BufferSize)
}

// State is the playback state of a player.
type State int32

const (
	StateStopped State = iota
	StatePlaying
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
