package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	voicechat "github.com/coffeechat/voicecore/core"
	"github.com/coffeechat/voicecore/core/sessions"
)

const (
	keyQuit  = "q"
	keyCtrlC = "ctrl+c"
	keySpace = " "
)

// snapshotUpdatedMsg signals that the transcript or the order changed and
// the model should take a fresh snapshot.
type snapshotUpdatedMsg struct{}

// conversationErrMsg carries a session, device or order error into the UI.
type conversationErrMsg struct{ err error }

type model struct {
	conversation *voicechat.Conversation
	updates      chan tea.Msg

	snapshot voicechat.ConversationSnapshot
	spinner  spinner.Model
	lastErr  error

	width  int
	height int
}

func newModel(conversation *voicechat.Conversation, updates chan tea.Msg) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorCoffee)

	return model{
		conversation: conversation,
		updates:      updates,
		snapshot:     conversation.Snapshot(),
		spinner:      s,
	}
}

// waitForUpdate blocks on the conversation's message channel and delivers
// the next message. It is re-armed after every delivery.
func waitForUpdate(updates chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case keyQuit, keyCtrlC:
			return m, tea.Quit
		case keySpace:
			m.lastErr = m.toggleMicrophone()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotUpdatedMsg:
		m.snapshot = m.conversation.Snapshot()
		return m, waitForUpdate(m.updates)

	case conversationErrMsg:
		m.lastErr = msg.err
		return m, waitForUpdate(m.updates)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) toggleMicrophone() error {
	if m.conversation.IsRecording() {
		return m.conversation.StopRecording()
	}
	return m.conversation.StartRecording()
}

func (m model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	sections := []string{
		m.headerView(),
		m.transcriptView(width),
		m.orderView(width),
	}
	if m.lastErr != nil {
		sections = append(sections, errorStyle.Render("error: "+m.lastErr.Error()))
	}
	sections = append(sections, m.footerView())

	return strings.Join(sections, "\n")
}

func (m model) headerView() string {
	title := titleStyle.Render(" coffeechat ")

	var status string
	switch state := m.conversation.State(); state {
	case sessions.StateConnecting:
		status = m.spinner.View() + " connecting"
	case sessions.StateActive:
		if m.conversation.IsRecording() {
			status = recordingStyle.Render("● listening")
		} else {
			status = idleStyle.Render("○ mic off")
		}
	default:
		status = idleStyle.Render(string(state))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", status)
}

func (m model) transcriptView(width int) string {
	innerWidth := width - 4
	if innerWidth < 20 {
		innerWidth = 20
	}

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Conversation") + "\n")

	if len(m.snapshot.Transcript) == 0 {
		b.WriteString(idleStyle.Render("Press space to open the mic and ask for a coffee."))
	}
	for i, entry := range m.snapshot.Transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		speaker := userStyle.Render("you")
		if entry.Role == voicechat.RoleAssistant {
			speaker = assistantStyle.Render("barista")
		}
		b.WriteString(speaker + " " + wordwrap.String(entry.Text, innerWidth))
	}

	return panelStyle.Width(width - 2).Render(b.String())
}

func (m model) orderView(width int) string {
	summary := m.snapshot.Order

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Order") + "\n")

	if len(summary.Lines) == 0 {
		b.WriteString(idleStyle.Render("Nothing ordered yet."))
	}
	for _, line := range summary.Lines {
		b.WriteString(fmt.Sprintf("%dx %-32s %8.2f\n",
			line.Quantity, line.DisplayLabel, line.UnitPrice*float64(line.Quantity)))
	}
	if len(summary.Lines) > 0 {
		b.WriteString(idleStyle.Render(strings.Repeat("─", 44)) + "\n")
		b.WriteString(fmt.Sprintf("   %-32s %8.2f\n", "Subtotal", summary.Subtotal))
		b.WriteString(fmt.Sprintf("   %-32s %8.2f\n", "Tax", summary.Tax))
		b.WriteString(totalStyle.Render(fmt.Sprintf("   %-32s %8.2f", "Total", summary.Total)))
	}

	return panelStyle.Width(width - 2).Render(b.String())
}

func (m model) footerView() string {
	keys := []struct{ key, desc string }{
		{"space", "toggle mic"},
		{"q", "quit"},
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k.key)+" "+footerDescStyle.Render(k.desc))
	}
	return strings.Join(parts, footerDescStyle.Render("  •  "))
}
