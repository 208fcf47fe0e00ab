package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/herald/internal/backend"
	"github.com/dgnsrekt/herald/internal/speech"
	"github.com/dgnsrekt/herald/internal/watch"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// closeTimeout bounds how long the TUI waits for queued speech on exit.
const closeTimeout = 3 * time.Second

func validateBackendName(name string) error {
	if _, err := backend.Canonical(name); err != nil {
		return fmt.Errorf("invalid backend: %w", err)
	}
	return nil
}

// backendConfig builds the backend configuration from viper.
func backendConfig(logger *log.Logger) backend.Config {
	cfg := backend.DefaultConfig()
	cfg.Name = viper.GetString("backend")
	cfg.Logger = logger
	if d := viper.GetDuration("timeout"); d > 0 {
		cfg.Timeout = d
	}
	cfg.Piper.Binary = viper.GetString("piper.binary")
	cfg.Piper.Model = expandPath(viper.GetString("piper.model"))
	cfg.Cache = backend.CacheConfig{
		Enabled: viper.GetBool("cache.enabled"),
		Dir:     cacheDir(),
		MaxSize: viper.GetInt64("cache.max_size") * 1024 * 1024,
	}
	return cfg
}

func cacheDir() string {
	if dir := viper.GetString("cache.dir"); dir != "" {
		return expandPath(dir)
	}
	dir, err := gap.NewScope(gap.User, "herald").CacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "audio")
}

// startSpeech initializes speech once for the process. It returns nil when
// speech is unavailable; the reason has been logged.
func startSpeech(logger *log.Logger) *speech.Handle {
	cfg := backendConfig(logger)
	return speech.Init(
		speech.WithBackend(func() (speech.Backend, error) {
			return backend.Default(cfg)
		}),
		speech.WithGreeting(viper.GetString("greeting")),
		speech.WithLogger(logger),
	)
}

// drainSpeech closes h and waits up to timeout for queued speech to finish.
func drainSpeech(h *speech.Handle, timeout time.Duration) {
	if h == nil {
		return
	}
	_ = h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := h.Wait(ctx); err != nil {
		log.Warn("Speech did not finish in time", "timeout", timeout, "queued", h.Stats().Queued)
	}
}

func watchConfig(dirs []string) watch.Config {
	cfg := watch.DefaultConfig()
	if len(dirs) > 0 {
		cfg.Dirs = dirs
	}
	if p := viper.GetStringSlice("watch.patterns"); len(p) > 0 {
		cfg.Patterns = p
	}
	cfg.Rate = viper.GetFloat64("watch.rate")
	cfg.All = viper.GetBool("watch.all")
	return cfg
}
