package backend

import (
	"context"
	"fmt"
	"path/filepath"
)

var espeakBinaries = []string{"espeak-ng", "espeak"}

// Espeak speaks through espeak-ng or espeak. Each call runs to completion,
// so there is never anything playing to interrupt.
type Espeak struct {
	path string
	run  runner
}

// NewEspeak returns the espeak backend, preferring espeak-ng.
func NewEspeak(cfg Config) (*Espeak, error) {
	for _, bin := range espeakBinaries {
		if path, err := lookPath(bin); err == nil {
			return &Espeak{path: path, run: newExecRunner(cfg.Timeout)}, nil
		}
	}
	return nil, fmt.Errorf("neither espeak-ng nor espeak found in PATH")
}

func (e *Espeak) Name() string { return NameEspeak }

// Binary returns the base name of the espeak binary in use.
func (e *Espeak) Binary() string { return filepath.Base(e.path) }

func (e *Espeak) Speak(text string, _ bool) error {
	_, err := e.run.Run(context.Background(), text, e.path, "--stdin")
	return err
}
