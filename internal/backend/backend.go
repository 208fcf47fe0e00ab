// Package backend provides the speech capabilities herald can drive:
// speech-dispatcher, espeak, piper with local playback, and a log-only
// backend for headless use.
package backend

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
)

// Backend names accepted by Open.
const (
	NameAuto   = "auto"
	NamePiper  = "piper"
	NameSpd    = "spd"
	NameEspeak = "espeak"
	NameLog    = "log"
)

// Names lists every backend name in auto-detection order, followed by the
// ones auto never picks.
var Names = []string{NameAuto, NamePiper, NameSpd, NameEspeak, NameLog}

// ErrNoBackend is returned by auto-detection when nothing is installed.
var ErrNoBackend = errors.New("no speech backend found (tried piper, spd-say, espeak-ng, espeak)")

// Speaker is a speech backend. Speak blocks until the text has been spoken.
type Speaker interface {
	Speak(text string, interrupt bool) error
	Name() string
}

// Config selects and configures a backend.
type Config struct {
	Name    string
	Timeout time.Duration // per subprocess call

	Piper PiperConfig
	Cache CacheConfig

	Logger *log.Logger
}

// PiperConfig configures the piper backend.
type PiperConfig struct {
	Binary string
	Model  string
}

// CacheConfig configures the PCM cache used by piper.
type CacheConfig struct {
	Enabled bool
	Dir     string
	MaxSize int64 // bytes
}

// DefaultConfig returns auto-detection with piper looked up on PATH.
func DefaultConfig() Config {
	return Config{
		Name:    NameAuto,
		Timeout: 2 * time.Minute,
		Piper: PiperConfig{
			Binary: "piper",
		},
	}
}

func (c Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// UnknownError is returned by Open for a name it does not know.
type UnknownError struct {
	Name       string
	Suggestion string
}

func (e *UnknownError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown backend %q, did you mean %q?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown backend %q (choose one of %s)", e.Name, strings.Join(Names, ", "))
}

// aliases maps other common spellings onto backend names.
var aliases = map[string]string{
	"speech-dispatcher": NameSpd,
	"spd-say":           NameSpd,
	"espeak-ng":         NameEspeak,
	"":                  NameAuto,
}

// Default acquires the backend named in cfg.
func Default(cfg Config) (Speaker, error) {
	return Open(cfg.Name, cfg)
}

// Open acquires the named backend.
func Open(name string, cfg Config) (Speaker, error) {
	name, err := Canonical(name)
	if err != nil {
		return nil, err
	}

	switch name {
	case NameAuto:
		return detect(cfg)
	case NamePiper:
		return NewPiper(cfg)
	case NameSpd:
		return NewSpd(cfg)
	case NameEspeak:
		return NewEspeak(cfg)
	default:
		return NewLog(cfg.logger()), nil
	}
}

// suggest returns the closest backend name to a mistyped one.
func suggest(name string) string {
	if name == "" {
		return ""
	}
	matches := fuzzy.Find(name, Names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// detect tries each installed backend in order and returns the first that
// opens.
func detect(cfg Config) (Speaker, error) {
	l := cfg.logger()

	openers := []struct {
		name string
		open func(Config) (Speaker, error)
	}{
		{NamePiper, func(c Config) (Speaker, error) { return NewPiper(c) }},
		{NameSpd, func(c Config) (Speaker, error) { return NewSpd(c) }},
		{NameEspeak, func(c Config) (Speaker, error) { return NewEspeak(c) }},
	}

	for _, o := range openers {
		s, err := o.open(cfg)
		if err == nil {
			l.Debug("Selected speech backend", "backend", s.Name())
			return s, nil
		}
		l.Debug("Speech backend unavailable", "backend", o.name, "error", err)
	}
	return nil, ErrNoBackend
}

// Canonical resolves aliases and reports an *UnknownError for names Open
// would reject. It does not touch the system.
func Canonical(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	for _, n := range Names {
		if n == name {
			return name, nil
		}
	}
	return "", &UnknownError{Name: name, Suggestion: suggest(name)}
}
