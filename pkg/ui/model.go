package ui

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
	"github.com/go-go-golems/gatecrash/pkg/wire"
)

// Submitter relays one line of user input. *session.Controller satisfies
// this.
type Submitter interface {
	Submit(ctx context.Context, text string) error
}

type sendResultMsg struct {
	text string
	err  error
}

// Model is the interactive conversation screen: a viewport of rendered
// entries over an input box that follows the session's input gate. The
// model never talks to the network directly; entries and gate changes
// arrive as messages from the feed forwarder, and outgoing text goes
// through the Submitter.
type Model struct {
	ctx    context.Context
	submit Submitter

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	md       *Markdown

	entries        []dispatch.Rendered
	lines          []string
	lastSecret     string
	inputEnabled   bool
	secretUnlocked bool
	done           bool
	doneErr        error

	width  int
	height int
}

func NewModel(ctx context.Context, submit Submitter) Model {
	ti := textinput.New()
	ti.Placeholder = "Say something to the gatekeeper..."
	ti.Prompt = "> "
	ti.PromptStyle = promptStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)

	return Model{
		ctx:      ctx,
		submit:   submit,
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
		md:       NewMarkdown(76),
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 3)
		m.input.Width = max(msg.Width-4, 20)
		m.md.Resize(max(msg.Width-4, 20))
		m.rebuildLines()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.done {
				return m, tea.Quit
			}
			if !m.inputEnabled {
				return m, nil
			}
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			return m, m.submitCmd(text)
		case "ctrl+y":
			m.copySecret()
			return m, nil
		case "q":
			if m.done || !m.input.Focused() {
				return m, tea.Quit
			}
		}

	case AppendMsg:
		m.appendEntry(msg.Entry)
		return m, nil

	case GateMsg:
		m.inputEnabled = msg.Enabled
		if msg.Enabled {
			return m, m.input.Focus()
		}
		m.input.Blur()
		return m, nil

	case SecretMsg:
		m.secretUnlocked = m.secretUnlocked || msg.Unlocked
		return m, nil

	case SessionDoneMsg:
		m.done = true
		m.doneErr = msg.Err
		m.inputEnabled = false
		m.input.Blur()
		return m, nil

	case sendResultMsg:
		// Failed text stays in the box for another try; the controller has
		// already surfaced the failure as a status entry.
		if msg.err == nil {
			m.input.Reset()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var b strings.Builder

	header := headerStyle.Render("AI Gatekeeper")
	if m.secretUnlocked {
		header += " " + badgeStyle.Render("SECRET UNLOCKED")
	}
	b.WriteString(header + "\n")
	b.WriteString(m.viewport.View() + "\n")

	switch {
	case m.done:
		b.WriteString(statusStyle.Render("Session ended.") + " " + helpStyle.Render("enter: quit"))
	case m.inputEnabled:
		b.WriteString(m.input.View() + "\n" + helpStyle.Render("enter: send · ctrl+y: copy secret · esc: quit"))
	default:
		b.WriteString(m.spinner.View() + statusStyle.Render(" waiting for the gatekeeper...") + "\n" + helpStyle.Render("esc: quit"))
	}
	return b.String()
}

// submitCmd relays text off the UI loop. The input box is cleared only once
// the send is acknowledged, so failed text stays put for another try.
func (m Model) submitCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{text: text, err: m.submit.Submit(m.ctx, text)}
	}
}

func (m *Model) appendEntry(e dispatch.Rendered) {
	if e.Kind == dispatch.KindSecret {
		m.lastSecret = e.Content
	}
	m.entries = append(m.entries, e)
	m.lines = append(m.lines, m.renderEntry(e))
	m.refreshViewport()
}

func (m *Model) renderEntry(e dispatch.Rendered) string {
	switch e.Kind {
	case dispatch.KindStatus:
		return statusStyle.Render("· " + e.Content)
	case dispatch.KindSecret:
		return secretStyle.Render(e.Content)
	default:
		label := RoleLabel(e.Role)
		body := m.md.Render(e.Content)
		if label == "" {
			return body
		}
		style := labelStyle
		if e.Role == wire.RoleCandidate {
			style = youLabelStyle
		}
		return style.Render(label) + "\n" + body
	}
}

func (m *Model) rebuildLines() {
	m.lines = m.lines[:0]
	for _, e := range m.entries {
		m.lines = append(m.lines, m.renderEntry(e))
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.lines, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) copySecret() {
	if m.lastSecret == "" {
		m.appendEntry(dispatch.Rendered{Kind: dispatch.KindStatus, Content: "nothing to copy yet"})
		return
	}
	if err := clipboard.WriteAll(m.lastSecret); err != nil {
		m.appendEntry(dispatch.Rendered{Kind: dispatch.KindStatus, Content: "clipboard unavailable"})
		return
	}
	m.appendEntry(dispatch.Rendered{Kind: dispatch.KindStatus, Content: "secret copied to clipboard"})
}
