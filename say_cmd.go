package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dgnsrekt/herald/internal/speech"
	"github.com/dgnsrekt/herald/internal/text"
	"github.com/spf13/cobra"
)

var (
	sayTimeout time.Duration
	sayPlain   bool

	sayCmd = &cobra.Command{
		Use:   "say [TEXT...]",
		Short: "Speak text and wait for it to finish",
		Long: paragraph(fmt.Sprintf("\n%s the arguments as one utterance. Without arguments every line read from stdin is spoken.", keyword("Speak"))),
		Example: paragraph("herald say \"Build finished\"\nmake 2>&1 | tail -n 3 | herald say"),
		RunE:    runSay,
	}
)

func runSay(cmd *cobra.Command, args []string) error {
	logger := cliLogger()

	h := startSpeech(logger)
	if h == nil {
		return errors.New("speech is unavailable, see the warning above")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sayTimeout)
	defer cancel()

	opts := text.DefaultOptions()
	opts.Markdown = !sayPlain

	var sayErr error
	if len(args) > 0 {
		sayErr = sayOne(ctx, h, strings.Join(args, " "), opts)
	} else {
		sayErr = sayLines(ctx, h, cmd.InOrStdin(), opts)
	}

	_ = h.Close()
	if err := h.Wait(ctx); err != nil {
		return fmt.Errorf("speech did not finish within %s: %w", sayTimeout, err)
	}
	if sayErr != nil {
		return sayErr
	}

	st := h.Stats()
	if st.Failed > 0 {
		return fmt.Errorf("%d of %d utterances failed", st.Failed, st.Enqueued)
	}
	return nil
}

func sayOne(ctx context.Context, h *speech.Handle, s string, opts text.Options) error {
	s = text.Prepare(s, opts)
	if s == "" {
		return nil
	}
	return h.EnqueueWait(ctx, speech.NewUtterance(s))
}

// sayLines speaks each non-empty line of r, waiting for room in the queue.
func sayLines(ctx context.Context, h *speech.Handle, r io.Reader, opts text.Options) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := sayOne(ctx, h, scanner.Text(), opts); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("unable to read stdin: %w", err)
	}
	return nil
}

func init() {
	sayCmd.Flags().DurationVar(&sayTimeout, "timeout", 5*time.Minute, "give up after this long")
	sayCmd.Flags().BoolVar(&sayPlain, "plain", false, "speak text as is, without stripping markdown")
}
