// Package ui provides the interactive terminal host for herald.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/herald/internal/speech"
	"github.com/dgnsrekt/herald/internal/text"
	"github.com/muesli/reflow/wordwrap"
)

const (
	statsInterval        = 500 * time.Millisecond
	statusMessageTimeout = 3 * time.Second
)

// Speaker is the producer side of the speech queue. A nil Speaker means
// speech is unavailable and the TUI only logs what it would have said.
type Speaker interface {
	Say(text string) error
	Stats() speech.Stats
	BackendName() string
}

// readClipboard is replaced in tests.
var readClipboard = clipboard.ReadAll

// NewProgram returns a new Tea program. Each string received on events is
// spoken as if it had been typed; events may be nil.
func NewProgram(cfg Config, sp Speaker, events <-chan string) *tea.Program {
	log.Debug("Starting herald TUI", "speech", sp != nil, "alt_screen", cfg.AltScreen)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, sp, events), opts...)
}

type (
	eventMsg         string
	eventsClosedMsg  struct{}
	statsTickMsg     time.Time
	statusTimeoutMsg struct{}
	clipboardMsg     struct {
		text string
		err  error
	}
)

// source is where an utterance came from.
type source int

const (
	sourceInput source = iota
	sourceClipboard
	sourceRepeat
	sourceEvent
)

func (s source) String() string {
	return map[source]string{
		sourceInput:     "typed",
		sourceClipboard: "clipboard",
		sourceRepeat:    "repeat",
		sourceEvent:     "event",
	}[s]
}

type outcome int

const (
	outcomeQueued outcome = iota
	outcomeDropped
	outcomeRejected
	outcomeUnavailable
)

type logEntry struct {
	at      time.Time
	text    string
	source  source
	outcome outcome
}

type model struct {
	cfg     Config
	speaker Speaker
	events  <-chan string
	keys    keyMap

	input    textinput.Model
	viewport viewport.Model
	help     help.Model
	spinner  spinner.Model

	entries []logEntry
	last    string
	stats   speech.Stats

	statusMessage string
	width         int
	height        int
	ready         bool
}

func newModel(cfg Config, sp Speaker, events <-chan string) model {
	if cfg.MaxLogEntries <= 0 {
		cfg.MaxLogEntries = 200
	}

	ti := textinput.New()
	ti.Placeholder = "Type something to say"
	ti.Prompt = "› "
	ti.CharLimit = 1000
	ti.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = queuedStyle

	return model{
		cfg:      cfg,
		speaker:  sp,
		events:   events,
		keys:     defaultKeyMap(),
		input:    ti,
		viewport: viewport.New(0, 0),
		help:     help.New(),
		spinner:  spin,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, statsTick()}
	if m.events != nil {
		cmds = append(cmds, waitForEvent(m.events))
	}
	return tea.Batch(cmds...)
}

func waitForEvent(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(s)
	}
}

func statsTick() tea.Cmd {
	return tea.Tick(statsInterval, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

func readClipboardCmd() tea.Msg {
	s, err := readClipboard()
	return clipboardMsg{text: s, err: err}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, msg.Width-4)
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = m.logHeight()
		m.ready = true
		m.refreshLog()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Speak):
			v := m.input.Value()
			m.input.Reset()
			m.say(v, sourceInput)
			return m, nil

		case key.Matches(msg, m.keys.Clipboard):
			return m, readClipboardCmd

		case key.Matches(msg, m.keys.Repeat):
			if m.last == "" {
				return m, m.setStatus("Nothing to repeat")
			}
			m.say(m.last, sourceRepeat)
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.entries = nil
			m.refreshLog()
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.viewport.Height = m.logHeight()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case clipboardMsg:
		if msg.err != nil {
			log.Debug("Failed to read clipboard", "error", msg.err)
			return m, m.setStatus("Clipboard unavailable")
		}
		m.say(msg.text, sourceClipboard)
		return m, nil

	case eventMsg:
		m.say(string(msg), sourceEvent)
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		m.events = nil
		return m, nil

	case statsTickMsg:
		if m.speaker != nil {
			m.stats = m.speaker.Stats()
		}
		return m, statsTick()

	case statusTimeoutMsg:
		m.statusMessage = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// say prepares s and enqueues it without blocking. Whatever happens is
// recorded in the log.
func (m *model) say(s string, src source) {
	opts := m.cfg.Text
	switch src {
	case sourceEvent, sourceRepeat:
		// File names and already prepared text are not markdown.
		opts.Markdown = false
	}
	prepared := text.Prepare(s, opts)
	if prepared == "" {
		return
	}

	e := logEntry{at: time.Now(), text: prepared, source: src}
	switch {
	case m.speaker == nil:
		e.outcome = outcomeUnavailable
	default:
		err := m.speaker.Say(prepared)
		switch {
		case err == nil:
			e.outcome = outcomeQueued
		case errors.Is(err, speech.ErrFull):
			e.outcome = outcomeDropped
		default:
			e.outcome = outcomeRejected
		}
		m.stats = m.speaker.Stats()
	}

	m.last = prepared
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.cfg.MaxLogEntries; over > 0 {
		m.entries = m.entries[over:]
	}
	m.refreshLog()
}

func (m *model) setStatus(s string) tea.Cmd {
	m.statusMessage = s
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusTimeoutMsg{}
	})
}

// logHeight is the space left for the log after the title, input, status
// bar and help.
func (m model) logHeight() int {
	h := m.height - 4 - lipgloss.Height(m.helpView())
	return max(1, h)
}

func (m *model) refreshLog() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderEntry(e, m.width))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func renderEntry(e logEntry, width int) string {
	var mark string
	switch e.outcome {
	case outcomeQueued:
		mark = queuedStyle.Render("●")
	case outcomeDropped:
		mark = droppedStyle.Render("○ dropped")
	case outcomeRejected:
		mark = rejectedStyle.Render("✗ closed")
	case outcomeUnavailable:
		mark = rejectedStyle.Render("✗ muted")
	}

	prefix := fmt.Sprintf("%s %s ", timeStyle.Render(e.at.Format("15:04:05")), mark)
	body := e.text + " " + sourceStyle.Render("("+e.source.String()+")")
	if width <= 0 {
		return prefix + body
	}
	indent := lipgloss.Width(prefix)
	wrapped := wordwrap.String(body, max(10, width-indent))
	return prefix + strings.ReplaceAll(wrapped, "\n", "\n"+strings.Repeat(" ", indent))
}

func (m model) helpView() string {
	return helpViewStyle.Render(m.help.View(m.keys))
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	title := titleStyle.Render("herald")
	return strings.Join([]string{
		title,
		m.viewport.View(),
		m.input.View(),
		m.statusBarView(),
		m.helpView(),
	}, "\n")
}
