// Package tui provides a Bubble Tea terminal user interface for vidconv.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/vidconv/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// Controller is the part of session.Controller the UI drives.
type Controller interface {
	Start(url string, creds *model.Credentials) (generation uint64, started bool)
	Cancel() bool
	Reset()
	State() model.ConversionState
	Subscribe(fn func(model.ConversionState)) (cancel func())
	TargetFormat() model.TargetFormat
	SetTargetFormat(f model.TargetFormat)
}

// Level classifies a log line.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   Level
}

// StateMsg carries a published controller state into the update loop.
type StateMsg struct {
	State model.ConversionState
}

const maxLogs = 10

// Model is the Bubble Tea model for the TUI.
type Model struct {
	ctl       Controller
	creds     *model.Credentials
	outputDir string

	states chan model.ConversionState
	done   chan struct{}
	unsub  func()

	state     model.ConversionState
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	logs      []LogEntry

	width  int
	height int
}

// NewModel creates a TUI model subscribed to ctl. outputDir is only shown.
func NewModel(ctl Controller, creds *model.Credentials, outputDir string) Model {
	ti := textinput.New()
	ti.Placeholder = "https://www.youtube.com/watch?v=..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	m := Model{
		ctl:       ctl,
		creds:     creds,
		outputDir: outputDir,
		states:    make(chan model.ConversionState, 64),
		done:      make(chan struct{}),
		state:     model.Idle{},
		textInput: ti,
		spinner:   sp,
		progress:  prog,
	}

	states, done := m.states, m.done
	m.unsub = ctl.Subscribe(func(s model.ConversionState) {
		select {
		case states <- s:
		case <-done:
		}
	})
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForState())
}

// waitForState turns the next published state into a StateMsg.
func (m Model) waitForState() tea.Cmd {
	states, done := m.states, m.done
	return func() tea.Msg {
		select {
		case s := <-states:
			return StateMsg{State: s}
		case <-done:
			return nil
		}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.ctl.Cancel()
			return m, tea.Quit

		case "esc":
			if m.inputting() {
				return m, tea.Quit
			}
			if _, ok := m.state.(model.InProgress); ok {
				m.ctl.Cancel()
			}
			return m, nil

		case "enter":
			if m.inputting() {
				if url := strings.TrimSpace(m.textInput.Value()); url != "" {
					m.logs = nil
					m.ctl.Start(url, m.creds)
					m.textInput.Blur()
				}
				return m, nil
			}

		case "tab":
			if m.inputting() {
				next := model.FormatMP4
				if m.ctl.TargetFormat() == model.FormatMP4 {
					next = model.FormatMP3
				}
				m.ctl.SetTargetFormat(next)
				return m, nil
			}

		case "q":
			if model.IsTerminal(m.state) {
				return m, tea.Quit
			}

		case "r":
			if model.IsTerminal(m.state) {
				m.ctl.Reset()
				m.logs = nil
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		}

	case StateMsg:
		m.state = msg.State
		m.appendLog(msg.State)
		if p, ok := msg.State.(model.InProgress); ok && !p.Progress.IsIndeterminate() {
			cmds = append(cmds, m.progress.SetPercent(p.Progress.Fraction))
		}
		if _, ok := msg.State.(model.Idle); ok {
			m.textInput.Focus()
		}
		cmds = append(cmds, m.waitForState())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.inputting() {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// inputting reports whether the URL prompt is shown.
func (m Model) inputting() bool {
	_, idle := m.state.(model.Idle)
	return idle
}

func (m *Model) appendLog(s model.ConversionState) {
	var entry LogEntry
	switch s := s.(type) {
	case model.InProgress:
		entry = LogEntry{Message: s.Progress.Message, Level: LevelInfo}
	case model.Succeeded:
		entry = LogEntry{Message: "Saved " + s.Result.FileName, Level: LevelSuccess}
	case model.Failed:
		entry = LogEntry{Message: s.Reason, Level: LevelError}
	case model.Cancelled:
		entry = LogEntry{Message: "Cancelled", Level: LevelWarning}
	default:
		return
	}
	if entry.Message == "" {
		return
	}
	if n := len(m.logs); n > 0 && m.logs[n-1] == entry {
		return
	}
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎬 Video Converter"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Convert video links to MP3 or MP4"))
	b.WriteString("\n\n")

	switch s := m.state.(type) {
	case model.Idle:
		b.WriteString(m.viewInput())
	case model.InProgress:
		b.WriteString(m.viewProgress(s))
	case model.Succeeded:
		b.WriteString(m.viewComplete(s))
	case model.Failed:
		b.WriteString(m.viewError(s))
	case model.Cancelled:
		b.WriteString(warningStyle.Render("Conversion cancelled."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter video URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf("Format: %s (tab to switch)", strings.ToUpper(m.ctl.TargetFormat().String()))))
	b.WriteString("\n")
	if m.outputDir != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Output path: %s", m.outputDir)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewProgress(s model.InProgress) string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(s.Progress.Message))
	b.WriteString("\n\n")

	if s.Progress.IsIndeterminate() {
		b.WriteString(dimStyle.Render("size unknown"))
	} else {
		b.WriteString(m.progress.ViewAs(model.Clamp01(s.Progress.Fraction)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete(s model.Succeeded) string {
	r := s.Result
	summary := fmt.Sprintf("✨ Conversion Complete!\n\n"+
		"Title: %s\n"+
		"File: %s\n"+
		"Size: %.2f MB",
		r.Title,
		r.FilePath,
		float64(r.FileSizeBytes)/1024/1024,
	)
	if r.IsPlaylist() {
		summary += fmt.Sprintf("\nItems: %d", len(r.Items))
	}
	return boxStyle.Render(summary)
}

func (m Model) viewError(s model.Failed) string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Conversion failed:"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s", s.Reason))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (%s)", s.Kind)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case LevelError:
			style = errorStyle
			prefix = "✗"
		case LevelWarning:
			style = warningStyle
			prefix = "!"
		case LevelSuccess:
			style = successStyle
			prefix = "✓"
		default:
			style = infoStyle
			prefix = "›"
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state.(type) {
	case model.Idle:
		return "enter: convert • tab: format • esc: quit"
	case model.InProgress:
		return "esc: cancel • ctrl+c: quit"
	default:
		return "r: new conversion • q: quit"
	}
}

// Close ends the subscription.
func (m Model) Close() {
	close(m.done)
	if m.unsub != nil {
		m.unsub()
	}
}

// Run starts the TUI against ctl and blocks until the user quits.
func Run(ctl Controller, creds *model.Credentials, outputDir string) error {
	m := NewModel(ctl, creds, outputDir)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
