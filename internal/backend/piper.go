package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/herald/internal/audio"
	"github.com/dgnsrekt/herald/internal/cache"
)

// player is the playback side of the piper backend.
type player interface {
	Play(pcm []byte) error
	Stop() error
	Close() error
}

// pcmCache stores synthesized audio between runs.
type pcmCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Close() error
}

// newPlayer is replaced in tests.
var newPlayer = func(cfg audio.Config) (player, error) {
	return audio.NewPlayer(cfg)
}

// Piper synthesizes raw PCM with piper and plays it locally.
type Piper struct {
	binary string
	model  string
	voice  string

	run    runner
	player player
	cache  pcmCache
	logger *log.Logger
}

// NewPiper returns the piper backend. It needs the piper binary, a model
// file and a working audio device.
func NewPiper(cfg Config) (*Piper, error) {
	bin := cfg.Piper.Binary
	if bin == "" {
		bin = "piper"
	}
	path, err := lookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", bin, err)
	}

	if cfg.Piper.Model == "" {
		return nil, errors.New("piper model path is required")
	}
	if _, err := os.Stat(cfg.Piper.Model); err != nil {
		return nil, fmt.Errorf("piper model not found: %w", err)
	}

	p, err := newPlayer(audio.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}

	b := &Piper{
		binary: path,
		model:  cfg.Piper.Model,
		voice:  strings.TrimSuffix(filepath.Base(cfg.Piper.Model), filepath.Ext(cfg.Piper.Model)),
		run:    newExecRunner(cfg.Timeout),
		player: p,
		logger: cfg.logger(),
	}

	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		cc := cache.DefaultConfig(cfg.Cache.Dir)
		if cfg.Cache.MaxSize > 0 {
			cc.Capacity = cfg.Cache.MaxSize
		}
		dc, err := cache.NewDiskCache(cc)
		if err != nil {
			// Speech still works without the cache.
			b.logger.Warn("Failed to open audio cache", "dir", cfg.Cache.Dir, "error", err)
		} else {
			b.cache = dc
		}
	}

	return b, nil
}

func (p *Piper) Name() string { return NamePiper }

// Voice returns the model name piper speaks with.
func (p *Piper) Voice() string { return p.voice }

func (p *Piper) Speak(text string, interrupt bool) error {
	if interrupt {
		if err := p.player.Stop(); err != nil {
			p.logger.Debug("Failed to stop playback", "error", err)
		}
	}

	pcm, err := p.synthesize(text)
	if err != nil {
		return err
	}
	return p.player.Play(pcm)
}

func (p *Piper) synthesize(text string) ([]byte, error) {
	key := cache.Key(p.voice, text)
	if p.cache != nil {
		if pcm, ok := p.cache.Get(key); ok {
			return pcm, nil
		}
	}

	pcm, err := p.run.Run(context.Background(), text, p.binary,
		"--model", p.model,
		"--output-raw",
	)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, &CommandError{Command: filepath.Base(p.binary), Err: errors.New("no audio produced")}
	}

	if p.cache != nil {
		if err := p.cache.Put(key, pcm); err != nil {
			p.logger.Debug("Failed to cache audio", "error", err)
		}
	}
	return pcm, nil
}

// Close releases the audio device and saves the cache index.
func (p *Piper) Close() error {
	err := p.player.Close()
	if p.cache != nil {
		if cerr := p.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
