//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// pollInterval is how often Play checks whether oto has drained the buffer.
const pollInterval = 10 * time.Millisecond

// oto allows a single context per process.
var (
	contextOnce sync.Once
	otoContext  *oto.Context
	contextCfg  Config
	contextErr  error
)

func sharedContext(cfg Config) (*oto.Context, error) {
	contextOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   cfg.bufferDuration(),
		}
		c, ready, err := oto.NewContext(op)
		if err != nil {
			contextErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoContext, contextCfg = c, cfg
	})
	if contextErr != nil {
		return nil, contextErr
	}
	if contextCfg != cfg {
		return nil, fmt.Errorf("audio context already open at %d Hz, %d channel(s)",
			contextCfg.SampleRate, contextCfg.Channels)
	}
	return otoContext, nil
}

// Player plays PCM buffers one at a time.
type Player struct {
	cfg     Config
	context *oto.Context

	mu      sync.Mutex
	current *oto.Player
	stop    chan struct{}

	state atomic.Int32
}

// NewPlayer opens the audio device for the given format.
func NewPlayer(cfg Config) (*Player, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c, err := sharedContext(cfg)
	if err != nil {
		return nil, err
	}

	p := &Player{cfg: cfg, context: c}
	p.state.Store(int32(StateStopped))
	return p, nil
}

// Play plays pcm and blocks until it has finished. Anything already playing
// is stopped first. If Stop is called while Play is blocked, Play returns
// nil early.
func (p *Player) Play(pcm []byte) error {
	if len(pcm) == 0 {
		return ErrEmpty
	}

	p.mu.Lock()
	if State(p.state.Load()) == StateClosed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.stopLocked()

	// oto reads from the buffer on its own goroutine; keep our own copy.
	data := make([]byte, len(pcm))
	copy(data, pcm)

	player := p.context.NewPlayer(bytes.NewReader(data))
	stop := make(chan struct{})
	p.current, p.stop = player, stop
	player.Play()
	p.state.Store(int32(StatePlaying))
	p.mu.Unlock()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

loop:
	for player.IsPlaying() {
		select {
		case <-stop:
			break loop
		case <-ticker.C:
		}
	}

	p.mu.Lock()
	if p.current == player {
		p.stopLocked()
	}
	p.mu.Unlock()

	runtime.KeepAlive(data)
	return nil
}

// Stop cuts off the current playback, if any.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	p.current.Pause()
	_ = p.current.Close()
	close(p.stop)
	p.current, p.stop = nil, nil

	if State(p.state.Load()) != StateClosed {
		p.state.Store(int32(StateStopped))
	}
}

// Close stops playback and marks the player closed. The shared oto context
// stays open for the life of the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.state.Store(int32(StateClosed))
	return nil
}

// State returns the current playback state.
func (p *Player) State() State {
	return State(p.state.Load())
}

// Config returns the PCM format the player was opened with.
func (p *Player) Config() Config {
	return p.cfg
}
