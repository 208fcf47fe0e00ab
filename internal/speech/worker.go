package speech

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// worker owns the backend. Nothing else may call it once the worker runs.
type worker struct {
	backend  Backend
	rx       <-chan Utterance
	greeting string
	logger   *log.Logger
	q        *queue
}

func (w *worker) run() {
	defer close(w.q.done)
	defer w.q.state.Store(int32(StateTerminated))
	defer w.closeBackend()

	w.q.state.Store(int32(StateGreeting))
	if err := w.speak(w.greeting); err != nil {
		w.logger.Warn("TTS greeting failed", "error", err)
	}

	w.q.state.Store(int32(StateDraining))
	for u := range w.rx {
		if err := w.speak(u.Text()); err != nil {
			w.q.failed.Add(1)
			w.logger.Warn("TTS failed", "error", err)
			continue
		}
		w.q.spoken.Add(1)
	}

	w.logger.Debug("Speech worker finished")
}

// speak calls the backend, turning a panic into an error so one bad
// utterance cannot take the worker down.
func (w *worker) speak(text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panicked: %v", r)
		}
	}()
	return w.backend.Speak(text, true)
}

func (w *worker) closeBackend() {
	c, ok := w.backend.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		w.logger.Warn("Failed to close speech backend", "error", err)
	}
}
