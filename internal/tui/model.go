// Package tui provides the terminal front end of the player.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tapedeck/internal/app/notification"
	"github.com/osa030/tapedeck/internal/app/playback"
	"github.com/osa030/tapedeck/internal/app/selection"
)

const (
	// Left margin of every line
	margin = 2

	// Screen row of the progress bar
	barRow = 6

	minBarWidth = 10
	volumeStep  = 5
)

// Player is the part of the session the UI drives.
type Player interface {
	Post(e playback.Event) error
	Select(ctx context.Context, paths []string) (selection.Result, error)
	View() notification.View
}

// Messages
type selectedMsg struct {
	result selection.Result
	err    error
}
type errMsg error

// Model is the bubbletea model of the now-playing screen.
type Model struct {
	player  Player
	initial []string

	view   notification.View
	width  int
	height int

	// Path prompt
	prompting bool
	prompt    textinput.Model

	lastError error
	quitting  bool
}

// NewModel creates a model that selects paths once the program starts.
func NewModel(player Player, paths []string) Model {
	ti := textinput.New()
	ti.Placeholder = "File or folder to play..."
	ti.CharLimit = 4096
	ti.Width = 50

	return Model{
		player:  player,
		initial: paths,
		view:    player.View(),
		prompt:  ti,
	}
}

// Init runs the initial selection.
func (m Model) Init() tea.Cmd {
	if len(m.initial) == 0 {
		return nil
	}
	return m.selectPaths(m.initial)
}

// Commands
func (m Model) post(e playback.Event) tea.Cmd {
	return func() tea.Msg {
		if err := m.player.Post(e); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

func (m Model) selectPaths(paths []string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.player.Select(context.Background(), paths)
		return selectedMsg{result: result, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case updateMsg:
		m.view.Apply(notification.Update(msg))
		return m, nil

	case selectedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		for _, r := range msg.result.Rejected {
			zlog.Debug().Msgf("tui: path rejected: path=%s code=%s", r.Path, r.Code)
		}
		return m, nil

	case errMsg:
		m.lastError = msg
		return m, nil
	}

	if m.prompting {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.prompting {
		return m.handlePromptKeyPress(msg)
	}

	switch key := msg.String(); key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case " ":
		return m, m.post(playback.Command(playback.EventTogglePlay))
	case "b", "left":
		return m, m.post(playback.Command(playback.EventPrevious))
	case "n", "right":
		return m, m.post(playback.Command(playback.EventNext))
	case "s":
		return m, m.post(playback.Command(playback.EventToggleShuffle))
	case "r":
		return m, m.post(playback.Command(playback.EventToggleRepeat))
	case "+", "=":
		return m, m.post(playback.SetVolume(float64(min(m.view.Volume+volumeStep, 100))))
	case "-":
		return m, m.post(playback.SetVolume(float64(max(m.view.Volume-volumeStep, 0))))
	case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return m, m.post(playback.SetVolume(float64(int(key[0]-'0') * 10)))
	case "o":
		m.prompting = true
		m.prompt.SetValue("")
		m.prompt.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) handlePromptKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.prompt.Value())
		m.prompting = false
		m.prompt.Blur()
		if path == "" {
			return m, nil
		}
		return m, m.selectPaths([]string{path})
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// handleMouse turns a left click on the progress bar into a seek.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.prompting || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if msg.Y != barRow {
		return m, nil
	}

	x, width := m.barBounds()
	if msg.X < x || msg.X >= x+width {
		return m, nil
	}
	return m, m.post(playback.Seek(float64(msg.X-x), float64(width)))
}

// barBounds returns the first column and the width of the progress bar.
func (m Model) barBounds() (int, int) {
	elapsed, total := m.timeLabels()
	x := margin + lipgloss.Width(elapsed) + 1
	width := m.width - x - lipgloss.Width(total) - 1 - margin
	return x, max(width, minBarWidth)
}

func (m Model) timeLabels() (string, string) {
	elapsed := m.view.Elapsed
	if elapsed == "" {
		elapsed = playback.FormatTime(0)
	}
	total := m.view.Total
	if total == "" {
		total = "-:--"
	}
	return elapsed, total
}

// View renders the UI. The progress bar must stay on barRow.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.prompting {
		return m.renderPrompt()
	}

	v := m.view
	pad := strings.Repeat(" ", margin)

	title := v.Title
	if title == "" {
		title = "Nothing loaded"
	}

	elapsed, total := m.timeLabels()
	_, barWidth := m.barBounds()

	lines := []string{
		pad + headerStyle.Render("tapedeck"),
		"",
		pad + glyphIcon(v.Glyph) + " " + titleStyle.Render(title),
		pad + "  " + artistStyle.Render(v.Artist),
		pad + "  " + dimStyle.Render(v.Artwork),
		"",
		pad + elapsed + " " + progressBar(v.Progress, barWidth) + " " + total,
		"",
		pad + m.renderControls(),
		pad + m.renderStatus(),
		"",
		pad + dimStyle.Render("space:play/pause  b/n:prev/next  s:shuffle  r:repeat  +/-/0-9:volume  o:open  q:quit"),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderControls() string {
	v := m.view
	return strings.Join([]string{
		dimStyle.Render("⏮"),
		glyphIcon(v.Glyph),
		dimStyle.Render("⏭"),
		"  " + toggle("shuffle", v.Shuffle),
		toggle("repeat", v.Repeat),
		"  " + artistStyle.Render(fmt.Sprintf("vol %d%%", v.Volume)),
	}, " ")
}

func (m Model) renderStatus() string {
	if m.lastError != nil {
		return statusStyle.Render("Error: " + m.lastError.Error())
	}
	return statusStyle.Render(m.view.Status)
}

func (m Model) renderPrompt() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Open"))
	b.WriteString("\n\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Enter:play  Esc:cancel"))

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(promptStyle.Render(b.String()))
}

// Run starts the program and blocks until the user quits or ctx is done.
// subscribe is called with the program's display stream before any
// selection is made and returns the matching unsubscribe.
func Run(ctx context.Context, player Player, paths []string, subscribe func(notification.Stream) func()) error {
	p := tea.NewProgram(NewModel(player, paths),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	unsubscribe := subscribe(NewStream(p.Send))
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return errors.Wrap(err, "terminal ui failed")
}
