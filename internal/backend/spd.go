package backend

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

const spdBinary = "spd-say"

// Spd speaks through speech-dispatcher's spd-say client.
type Spd struct {
	path   string
	run    runner
	logger *log.Logger
}

// NewSpd returns the speech-dispatcher backend if spd-say is installed.
func NewSpd(cfg Config) (*Spd, error) {
	path, err := lookPath(spdBinary)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", spdBinary, err)
	}
	return &Spd{
		path:   path,
		run:    newExecRunner(cfg.Timeout),
		logger: cfg.logger(),
	}, nil
}

func (s *Spd) Name() string { return NameSpd }

// Speak cancels whatever speech-dispatcher is saying when interrupt is set
// and then waits for text to be spoken.
func (s *Spd) Speak(text string, interrupt bool) error {
	ctx := context.Background()
	if interrupt {
		if _, err := s.run.Run(ctx, "", s.path, "--cancel"); err != nil {
			s.logger.Debug("spd-say cancel failed", "error", err)
		}
	}
	_, err := s.run.Run(ctx, "", s.path, "--wait", "--", text)
	return err
}
