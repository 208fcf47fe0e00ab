package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/herald/internal/speech"
	"github.com/dgnsrekt/herald/internal/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchCmd = &cobra.Command{
	Use:     "watch [DIR...]",
	Short:   "Announce changes to files",
	Long:    paragraph(fmt.Sprintf("\n%s created, changed and removed files in the given directories (default: the working directory). Files ignored by git are skipped unless --all is set.", keyword("Announce"))),
	Example: paragraph("herald watch\nherald watch --pattern '*.go' ./cmd ./internal"),
	RunE:    runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := cliLogger()

	w, err := watch.New(watchConfig(args), logger)
	if err != nil {
		return err
	}

	h := startSpeech(logger)
	if h == nil {
		return errors.New("speech is unavailable, see the warning above")
	}
	defer drainSpeech(h, closeTimeout)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Watching for changes", "dirs", len(w.Dirs()), "backend", h.BackendName())
	return w.Run(ctx, func(e watch.Event) {
		announce(h, e, logger)
	})
}

// announce never blocks the watcher; a full queue drops the event.
func announce(h *speech.Handle, e watch.Event, logger *log.Logger) {
	msg := e.Message()
	switch err := h.Say(msg); {
	case err == nil:
		logger.Debug("Announced", "message", msg)
	case errors.Is(err, speech.ErrFull):
		logger.Warn("Speech queue full, dropped", "message", msg)
	default:
		logger.Warn("Could not announce change", "message", msg, "error", err)
	}
}

func init() {
	f := watchCmd.Flags()
	f.StringSlice("pattern", []string{"*"}, "only announce files matching these globs")
	f.Float64("rate", 0.5, "announcements per second")
	f.BoolP("all", "a", false, "include files ignored by git")

	_ = viper.BindPFlag("watch.patterns", f.Lookup("pattern"))
	_ = viper.BindPFlag("watch.rate", f.Lookup("rate"))
	_ = viper.BindPFlag("watch.all", f.Lookup("all"))
}
