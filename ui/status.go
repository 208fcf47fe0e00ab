package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/herald/internal/speech"
	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

func (m model) statusBarView() string {
	var left string
	if m.speaker == nil {
		left = unavailableStyle.Render("speech off")
	} else {
		name := m.speaker.BackendName()
		if name == "" {
			name = "speech"
		}
		left = backendStyle.Render(name)
	}

	var busy string
	if m.busy() {
		busy = " " + m.spinner.View()
	}

	note := m.statusMessage
	if note == "" {
		note = m.statsNote()
	}

	avail := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(busy))
	note = truncate.StringWithTail(" "+note, uint(avail), "…") //nolint:gosec
	pad := max(0, avail-runewidth.StringWidth(note))

	return left + statusBarStyle.Render(busy+note+strings.Repeat(" ", pad))
}

func (m model) busy() bool {
	if m.speaker == nil {
		return false
	}
	return m.stats.Queued > 0 || m.stats.State == speech.StateGreeting
}

// statsNote is plain text; the status bar measures it with runewidth.
func (m model) statsNote() string {
	if m.speaker == nil {
		return fmt.Sprintf("%s logged", humanize.Comma(int64(len(m.entries))))
	}

	s := m.stats
	note := fmt.Sprintf("%s · %d queued · %s spoken · %s dropped",
		s.State, s.Queued,
		humanize.Comma(int64(s.Spoken)),
		humanize.Comma(int64(s.Dropped)))
	if s.Failed > 0 {
		note += fmt.Sprintf(" · %s failed", humanize.Comma(int64(s.Failed)))
	}
	if n := len(m.entries); n > 0 {
		note += " · last " + humanize.Time(m.entries[n-1].at)
	}
	return note
}
