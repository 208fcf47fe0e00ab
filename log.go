package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/muesli/termenv"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "herald").CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "herald.log"), nil
}

// setupLog points the default logger at the log file. The TUI owns the
// terminal, so nothing is written to stderr.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	log.SetColorProfile(termenv.Ascii)
	log.SetReportTimestamp(true)
	log.SetLevel(log.InfoLevel)
	return f.Close, nil
}

// cliLogger logs to stderr for the headless commands.
func cliLogger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "herald",
	})
	if !term.IsTerminal(int(os.Stderr.Fd())) { //nolint:gosec
		l.SetColorProfile(termenv.Ascii)
	}
	if viper.GetBool("debug") {
		l.SetLevel(log.DebugLevel)
	}
	return l
}
