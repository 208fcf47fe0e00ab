// Package speech turns text events into spoken audio without blocking the
// code that produces them.
//
// A single worker goroutine owns the speech backend and drains a small
// bounded queue. Producers hold a *Handle and enqueue utterances with a
// non-blocking send; when the queue is full the utterance is dropped.
//
//	h := speech.Init(speech.WithBackend(factory))
//	if h == nil {
//		// speech is unavailable; Say and Close on a nil handle are no-ops
//	}
//	defer h.Close()
//	_ = h.Say("Build finished")
package speech

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/herald/internal/backend"
)

const (
	// Capacity is the number of utterances that may wait in the queue.
	Capacity = 4

	// DefaultGreeting is spoken once when the worker starts.
	DefaultGreeting = "Welcome to herald"
)

// Backend is a speech capability. Speak blocks until the text has been
// synthesized and played, or fails. When interrupt is true any speech that
// is currently playing is cut off first.
//
// A Backend is only ever called from the speech worker. If it also
// implements io.Closer it is closed when the worker exits.
type Backend interface {
	Speak(text string, interrupt bool) error
}

// BackendFactory acquires a Backend.
type BackendFactory func() (Backend, error)

// Option configures Init and Start.
type Option func(*options)

type options struct {
	factory  BackendFactory
	greeting string
	platform Platform
	logger   *log.Logger
}

// WithBackend sets the factory used to acquire the backend.
func WithBackend(f BackendFactory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithGreeting sets the text spoken when the worker starts. An empty
// greeting keeps DefaultGreeting.
func WithGreeting(greeting string) Option {
	return func(o *options) {
		if greeting != "" {
			o.greeting = greeting
		}
	}
}

// WithPlatform overrides platform detection.
func WithPlatform(p Platform) Option {
	return func(o *options) {
		o.platform = p
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		factory:  defaultBackend,
		greeting: DefaultGreeting,
		platform: CurrentPlatform(),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func defaultBackend() (Backend, error) {
	return backend.Default(backend.DefaultConfig())
}

// Init starts the speech subsystem and returns a producer handle, or nil
// when speech is unavailable. The reason for unavailability is logged as a
// warning. Init must be called at most once per process.
func Init(opts ...Option) *Handle {
	o := newOptions(opts)
	h, err := start(o)
	if err != nil {
		if errors.Is(err, ErrPlatformUnsupported) {
			o.logger.Warn("Speech is not supported yet on this platform", "platform", o.platform)
		} else {
			o.logger.Warn("Failed to initialize speech", "error", err)
		}
		return nil
	}
	return h
}

// Start is Init returning the reason speech is unavailable instead of
// logging it. The error is ErrPlatformUnsupported or a *BackendInitError.
func Start(opts ...Option) (*Handle, error) {
	return start(newOptions(opts))
}

func start(o *options) (*Handle, error) {
	if !o.platform.Supported() {
		return nil, ErrPlatformUnsupported
	}

	b, err := o.factory()
	if err != nil {
		return nil, &BackendInitError{Err: err}
	}
	if b == nil {
		return nil, &BackendInitError{}
	}

	q := newQueue(Capacity)
	if n, ok := b.(interface{ Name() string }); ok {
		q.backendName = n.Name()
	}

	w := &worker{
		backend:  b,
		rx:       q.ch,
		greeting: o.greeting,
		logger:   o.logger,
		q:        q,
	}
	go w.run()

	return &Handle{q: q}, nil
}
