package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stepseq/debug"
	"stepseq/project"
	"stepseq/sequencer"
	"stepseq/theme"
)

const (
	MinTempo  = 20.0
	MaxTempo  = 300.0
	TempoStep = 5.0

	refreshInterval = 50 * time.Millisecond
)

type Model struct {
	Seq      *sequencer.Sequencer
	Theme    *theme.Theme
	Song     string // name used when saving
	cursor   int
	status   string
	quitting bool
	events   chan TransportMsg
}

// TransportMsg reports the outcome of an asynchronous play
type TransportMsg struct {
	Err error
}

// TickMsg redraws the playhead
type TickMsg time.Time

func NewModel(seq *sequencer.Sequencer, th *theme.Theme, song string) Model {
	return Model{
		Seq:    seq,
		Theme:  th,
		Song:   song,
		events: make(chan TransportMsg, 8),
	}
}

func ListenForTransport(events <-chan TransportMsg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForTransport(m.events),
		tick(),
	)
}

// play starts playback off the UI goroutine. The completion callback runs
// on the engine executor so it only hands the result over.
func (m Model) play() {
	events := m.events
	m.Seq.PlayAsync(func(err error) {
		select {
		case events <- TransportMsg{Err: err}:
		default:
			debug.Log("tui", "transport result dropped: %v", err)
		}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case TransportMsg:
		switch {
		case errors.Is(msg.Err, sequencer.ErrSuperseded):
			// a newer play or stop already took over
		case msg.Err != nil:
			m.status = "play failed: " + msg.Err.Error()
		default:
			m.status = ""
		}
		return m, ListenForTransport(m.events)

	case TickMsg:
		return m, tick()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tracks := m.Seq.Tracks()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.Seq.Stop()
		return m, tea.Quit

	case "p", " ":
		if m.Seq.IsPlaying() {
			m.Seq.Stop()
		} else {
			m.play()
		}

	case "r":
		m.play()

	case "+", "=":
		m.setTempo(m.Seq.Tempo() + TempoStep)

	case "-", "_":
		m.setTempo(m.Seq.Tempo() - TempoStep)

	case "d":
		m.Seq.SetDuration(m.Seq.Duration().Next(tracks.Snapshot()))

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < tracks.Len()-1 {
			m.cursor++
		}

	case "m":
		if t := tracks.At(m.cursor); t != nil {
			tracks.SetMute(t, !tracks.Snapshot()[m.cursor].Mute)
		}

	case "s":
		if t := tracks.At(m.cursor); t != nil {
			tracks.SetSolo(t, !tracks.Snapshot()[m.cursor].Solo)
		}

	case "w":
		m.status = m.save()
	}

	return m, nil
}

func (m Model) setTempo(bpm float64) {
	bpm = min(max(bpm, MinTempo), MaxTempo)
	if err := m.Seq.SetTempo(bpm); err != nil {
		debug.Log("tui", "set tempo: %v", err)
	}
}

func (m Model) save() string {
	path, err := project.Path(m.Song)
	if err != nil {
		return "save failed: " + err.Error()
	}
	if err := project.FromSequencer(m.Song, m.Seq).Save(path); err != nil {
		return "save failed: " + err.Error()
	}
	return "saved " + path
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sym := m.Theme.Symbols
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor()).Bold(true)
	activeStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	// Header
	playState := fmt.Sprintf("%c STOP", sym.Stopped)
	length := m.Seq.Compile().Length
	if tl, ok := m.Seq.Timeline(); ok {
		playState = fmt.Sprintf("%c PLAY", sym.Playing)
		length = tl.Length
	}
	header := headerStyle.Render(fmt.Sprintf("%s  %s  %5.1fbpm  beat %5.2f/%-5g  loop:%s",
		m.Seq.Name(), playState, m.Seq.Tempo(), m.Seq.Position(), length, m.Seq.Duration()))

	// Tracks
	var rows strings.Builder
	snap := m.Seq.Tracks().Snapshot()
	anySolo := false
	for _, t := range snap {
		anySolo = anySolo || t.Solo
	}
	if len(snap) == 0 {
		rows.WriteString(dimStyle.Render("  no tracks"))
		rows.WriteString("\n")
	}
	for i, t := range snap {
		cur := ' '
		if i == m.cursor {
			cur = sym.Cursor
		}
		state, style := sym.Audible, activeStyle
		if t.Mute || (anySolo && !t.Solo) {
			state, style = sym.Silent, dimStyle
		}
		mute, solo := sym.Off, sym.Off
		if t.Mute {
			mute = sym.Mute
		}
		if t.Solo {
			solo = sym.Solo
		}

		line := fmt.Sprintf("%c %c %2d %-16s %c%c  ch %-12s %3d steps  %5g beats",
			cur, state, i+1, t.Name, mute, solo, channels(t.Channels), len(t.Steps), t.Duration())
		if i == m.cursor {
			rows.WriteString(cursorStyle.Render(line))
		} else {
			rows.WriteString(style.Render(line))
		}
		rows.WriteString("\n")
	}

	help := dimStyle.Render("j/k:select  m:mute  s:solo  p/space:play  r:restart  +/-:tempo  d:length  w:save  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(rows.String())
	out.WriteString("\n")
	out.WriteString(help)
	if m.status != "" {
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(m.status))
	}

	return out.String()
}

func channels(chs []uint8) string {
	parts := make([]string, len(chs))
	for i, c := range chs {
		parts[i] = fmt.Sprint(c + 1)
	}
	return strings.Join(parts, ",")
}
