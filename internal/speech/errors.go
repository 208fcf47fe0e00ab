package speech

import (
	"errors"
	"fmt"
)

var (
	// ErrFull is returned by Enqueue when the dispatch queue is at capacity.
	// The utterance is dropped.
	ErrFull = errors.New("speech queue is full")

	// ErrClosed is returned when enqueueing on a released handle or on a
	// queue whose worker has shut down.
	ErrClosed = errors.New("speech queue is closed")

	// ErrPlatformUnsupported is returned by Start on platforms where speech
	// is known not to work.
	ErrPlatformUnsupported = errors.New("speech is not supported on this platform")

	// ErrBackendInit matches any *BackendInitError via errors.Is.
	ErrBackendInit = errors.New("failed to initialize speech backend")
)

// BackendInitError reports that the backend factory failed.
type BackendInitError struct {
	Err error
}

func (e *BackendInitError) Error() string {
	if e.Err == nil {
		return ErrBackendInit.Error()
	}
	return fmt.Sprintf("%s: %v", ErrBackendInit, e.Err)
}

// Unwrap returns the underlying factory error.
func (e *BackendInitError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrBackendInit.
func (e *BackendInitError) Is(target error) bool {
	return target == ErrBackendInit
}
