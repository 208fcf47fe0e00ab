package audio

import (
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer records what it is asked to play without touching an audio
// device. Playback lasts for the duration of the PCM scaled by DelayFactor.
type MockPlayer struct {
	cfg Config

	mu     sync.Mutex
	played [][]byte
	stop   chan struct{}
	err    error

	// DelayFactor scales simulated playback time. Zero plays instantly.
	DelayFactor float64

	state     atomic.Int32
	playCount atomic.Int64
	stopCount atomic.Int64
}

// NewMockPlayer returns a mock that plays instantly.
func NewMockPlayer(cfg Config) *MockPlayer {
	mp := &MockPlayer{cfg: cfg}
	mp.state.Store(int32(StateStopped))
	return mp
}

// FailWith makes every following Play return err.
func (mp *MockPlayer) FailWith(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.err = err
}

func (mp *MockPlayer) Play(pcm []byte) error {
	if len(pcm) == 0 {
		return ErrEmpty
	}

	mp.mu.Lock()
	if State(mp.state.Load()) == StateClosed {
		mp.mu.Unlock()
		return ErrClosed
	}
	if mp.err != nil {
		err := mp.err
		mp.mu.Unlock()
		return err
	}
	data := make([]byte, len(pcm))
	copy(data, pcm)
	mp.played = append(mp.played, data)
	stop := make(chan struct{})
	mp.stop = stop
	mp.state.Store(int32(StatePlaying))
	mp.mu.Unlock()
	mp.playCount.Add(1)

	d := time.Duration(float64(mp.cfg.Duration(len(pcm))) * mp.DelayFactor)
	select {
	case <-stop:
	case <-time.After(d):
	}

	mp.mu.Lock()
	if mp.stop == stop {
		mp.stop = nil
		mp.state.CompareAndSwap(int32(StatePlaying), int32(StateStopped))
	}
	mp.mu.Unlock()
	return nil
}

func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.stopCount.Add(1)
	if mp.stop != nil {
		close(mp.stop)
		mp.stop = nil
		mp.state.CompareAndSwap(int32(StatePlaying), int32(StateStopped))
	}
	return nil
}

func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.stop != nil {
		close(mp.stop)
		mp.stop = nil
	}
	mp.state.Store(int32(StateClosed))
	return nil
}

func (mp *MockPlayer) State() State {
	return State(mp.state.Load())
}

func (mp *MockPlayer) Config() Config {
	return mp.cfg
}

// Played returns a copy of every buffer passed to Play, in order.
func (mp *MockPlayer) Played() [][]byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	out := make([][]byte, len(mp.played))
	copy(out, mp.played)
	return out
}

// PlayCount returns the number of successful Play calls.
func (mp *MockPlayer) PlayCount() int64 { return mp.playCount.Load() }

// StopCount returns the number of Stop calls.
func (mp *MockPlayer) StopCount() int64 { return mp.stopCount.Load() }
