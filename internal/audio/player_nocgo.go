//go:build nocgo
// +build nocgo

package audio

// Player is a stub for builds without cgo.
type Player struct{}

// NewPlayer always fails in builds without cgo.
func NewPlayer(cfg Config) (*Player, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}

func (p *Player) Play(pcm []byte) error { return ErrUnavailable }
func (p *Player) Stop() error           { return nil }
func (p *Player) Close() error          { return nil }
func (p *Player) State() State          { return StateClosed }
func (p *Player) Config() Config        { return Config{} }
