package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-jamtyper/sequencer"
	"go-jamtyper/song"
	"go-jamtyper/theme"
	"go-jamtyper/widgets"
)

const (
	labelWidth = 10
	laneWidth  = 48
	barsBehind = 3.0 // history shown left of the clock
)

// ReloadFunc reinstalls the song from its source
type ReloadFunc func() error

// layoutBounds holds cached layout info
type layoutBounds struct {
	lanesTop int
	tracks   []song.TrackID
}

type Model struct {
	Engine   *sequencer.Engine
	Theme    *theme.Theme
	Title    string
	reload   ReloadFunc
	message  string
	failed   bool
	quitting bool
	showHelp bool
	tooltip  string
	bounds   *layoutBounds
}

// UpdateMsg is sent whenever the engine state changed
type UpdateMsg struct{}

// ReloadMsg reports the outcome of an install from outside the TUI,
// such as the file watcher
type ReloadMsg struct {
	Source string
	Err    error
}

func NewModel(engine *sequencer.Engine, th *theme.Theme, title string, reload ReloadFunc) Model {
	return Model{
		Engine: engine,
		Theme:  th,
		Title:  title,
		reload: reload,
		bounds: &layoutBounds{},
	}
}

func ListenForUpdates(engine *sequencer.Engine) tea.Cmd {
	return func() tea.Msg {
		<-engine.UpdateChan()
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Engine)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.quitting = true
			m.Engine.Pause()
			return m, tea.Quit

		case " ", "space":
			m.Engine.Toggle()

		case "s":
			m.Engine.Start()

		case "?":
			m.showHelp = !m.showHelp

		case "p":
			m.Engine.Pause()

		case "r":
			if m.reload != nil {
				m = m.withResult("reload", m.reload())
			}

		case "[":
			m.Engine.Seek(math.Max(0, m.Engine.Scheduler.Clock()-1))

		case "]":
			m.Engine.Seek(m.Engine.Scheduler.Clock() + 1)

		case "0":
			m.Engine.Seek(0)

		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			m.toggleMute(int(key[0] - '1'))
		}

	case tea.MouseMsg:
		row := msg.Y - m.bounds.lanesTop
		m.tooltip = ""
		if row >= 0 && row < len(m.bounds.tracks) {
			id := m.bounds.tracks[row]
			m.tooltip = fmt.Sprintf("track %s - click to mute", id)
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
				m.toggleMute(row)
			}
		}

	case ReloadMsg:
		m = m.withResult(msg.Source, msg.Err)

	case UpdateMsg:
		return m, ListenForUpdates(m.Engine)
	}

	return m, nil
}

func (m Model) withResult(source string, err error) Model {
	if err != nil {
		m.message = fmt.Sprintf("%s failed: %v", source, err)
		m.failed = true
		return m
	}
	m.message = source + " ok"
	m.failed = false
	return m
}

// toggleMute mutes the track at position i in the current session
func (m Model) toggleMute(i int) {
	sess := m.Engine.Store.Current()
	if sess == nil || i < 0 || i >= len(sess.Tracks) {
		return
	}
	m.Engine.Scheduler.ToggleMute(sess.Tracks[i].ID)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Engine.Status()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	okStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())
	tooltipStyle := lipgloss.NewStyle().
		Foreground(m.Theme.FG()).
		Background(m.Theme.Muted()).
		Padding(0, 1)

	playState := "PAUSE"
	if st.Playing {
		playState = "PLAY"
	}
	session := "no song"
	if st.SessionID != "" {
		session = st.SessionID[:8]
	}
	header := headerStyle.Render(fmt.Sprintf("%s  %s  %3.0fbpm  bar %6.2f  %s",
		m.Title, playState, st.BPM, st.Clock, session))

	from := st.Clock - barsBehind
	to := st.Clock + math.Max(st.Lookahead, 1)

	var lanes []string
	m.bounds.tracks = m.bounds.tracks[:0]
	for i, tr := range st.Tracks {
		hits := make([]widgets.Hit, len(tr.Recent))
		for j, ev := range tr.Recent {
			hits[j] = widgets.Hit{Time: ev.Time, Notes: len(ev.Params.Chord())}
		}
		label := string(tr.ID)
		if i < 9 {
			label = fmt.Sprintf("%d %s", i+1, tr.ID)
		}
		lanes = append(lanes, widgets.RenderLane(m.Theme, widgets.Lane{
			Label:    label,
			Hits:     hits,
			From:     from,
			To:       to,
			Playhead: st.Clock,
			Muted:    tr.Muted,
			Color:    m.Theme.TrackColor(i, len(st.Tracks)),
		}, labelWidth, laneWidth))
		m.bounds.tracks = append(m.bounds.tracks, tr.ID)
	}
	if len(lanes) == 0 {
		lanes = append(lanes, dimStyle.Render("  (no tracks)"))
	}

	stats := dimStyle.Render(fmt.Sprintf("dispatched %d  failed %d  retiring %d  vol %.2f",
		st.Dispatched, st.Failed, st.Pending, st.Volume))

	help := widgets.RenderKeyLine(m.Theme, []widgets.KeyBinding{
		{Key: "space", Desc: "play/pause"},
		{Key: "s/p", Desc: "start/pause"},
		{Key: "[ ]", Desc: "seek"},
		{Key: "0", Desc: "rewind"},
		{Key: "1-9", Desc: "mute"},
		{Key: "r", Desc: "reload"},
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	})

	if m.showHelp {
		help = m.helpView()
	}

	m.bounds.lanesTop = 1 + lipgloss.Height(header) + 1

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(lanes, "\n"))
	out.WriteString("\n\n")
	out.WriteString(stats)
	if m.message != "" {
		out.WriteString("\n")
		if m.failed {
			out.WriteString(errStyle.Render(m.message))
		} else {
			out.WriteString(okStyle.Render(m.message))
		}
	}
	out.WriteString("\n\n")
	out.WriteString(help)

	if m.tooltip != "" {
		out.WriteString("\n")
		out.WriteString(tooltipStyle.Render(m.tooltip))
	}

	return out.String()
}

func (m Model) helpView() string {
	help := widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "Transport", Keys: []widgets.KeyBinding{
			{Key: "space", Desc: "play/pause"},
			{Key: "s", Desc: "start"},
			{Key: "p", Desc: "pause"},
			{Key: "[ / ]", Desc: "seek one bar back/forward"},
			{Key: "0", Desc: "back to bar 0"},
		}},
		{Title: "Tracks", Keys: []widgets.KeyBinding{
			{Key: "1-9", Desc: "mute/unmute track"},
			{Key: "click", Desc: "mute/unmute track under the mouse"},
		}},
		{Title: "Song", Keys: []widgets.KeyBinding{
			{Key: "r", Desc: "reload the song file"},
			{Key: "?", Desc: "close help"},
			{Key: "q", Desc: "quit"},
		}},
	})
	legend := []string{
		"Lanes",
		widgets.RenderLegendItem(m.Theme.Active(), string(m.Theme.Symbols.LaneHit), "note"),
		widgets.RenderLegendItem(m.Theme.Active(), string(m.Theme.Symbols.LaneChord), "chord or several notes"),
		widgets.RenderLegendItem(m.Theme.Cursor(), string(m.Theme.Symbols.LanePlayhead), "clock"),
		widgets.RenderLegendItem(m.Theme.Muted(), string(m.Theme.Symbols.LaneMuted), "muted"),
	}
	return help + "\n" + strings.Join(legend, "\n")
}
