package ui

import "github.com/dgnsrekt/herald/internal/text"

// Config contains TUI-specific configuration.
type Config struct {
	// Text preparation applied to everything the TUI speaks.
	Text text.Options

	// Number of log entries kept in memory.
	MaxLogEntries int `env:"HERALD_LOG_ENTRIES" envDefault:"200"`

	// For debugging the UI
	AltScreen   bool `env:"HERALD_ALT_SCREEN"   envDefault:"true"`
	EnableMouse bool `env:"HERALD_ENABLE_MOUSE" envDefault:"false"`
}
