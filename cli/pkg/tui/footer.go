package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/hilthontt/parley/internal/realtime"
)

type footerCommand struct {
	key   string
	value string
}

type footerState struct {
	commands []footerCommand
}

func (m model) FooterView() string {
	bold := m.theme.TextAccent().Bold(true).Render
	base := m.theme.Base().Render

	table := m.theme.Base().
		Width(m.widthContent).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(m.theme.Border()).
		PaddingBottom(1).
		Align(lipgloss.Center)

	if m.size == small {
		return table.Render(bold("^g") + base(" menu"))
	}

	commands := []string{}
	for _, cmd := range m.state.footer.commands {
		commands = append(commands, bold(" "+cmd.key+" ")+base(cmd.value+"  "))
	}

	var content string
	if m.error != nil {
		hint := "esc"

		maxErrorWidth := m.widthContent - lipgloss.Width(hint) - 6

		errorMsg := m.error.message
		if lipgloss.Width(errorMsg) > maxErrorWidth {
			errorMsg = wordWrap(errorMsg, maxErrorWidth)
		}

		msg := m.theme.PanelError().Padding(0, 1).Render(errorMsg)

		space := max(m.widthContent-lipgloss.Width(msg)-lipgloss.Width(hint)-2, 0)

		height := lipgloss.Height(msg)

		content = lipgloss.JoinHorizontal(
			lipgloss.Top,
			msg,
			m.theme.PanelError().Width(space).Height(height).Render(),
			m.theme.PanelError().Bold(true).Padding(0, 1).Height(height).Render(hint),
		)
	} else {
		content = m.theme.Base().Faint(true).Render(m.statusLine())
	}

	footer := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		content,
		table.Render(
			lipgloss.JoinHorizontal(
				lipgloss.Center,
				commands...,
			),
		))

	return lipgloss.Place(
		m.widthContainer,
		lipgloss.Height(footer),
		lipgloss.Center,
		lipgloss.Center,
		footer,
	)
}

func (m model) statusLine() string {
	switch m.connection() {
	case realtime.StatusConnected:
		return "connected • live updates on"
	case realtime.StatusConnecting:
		return "connecting…"
	default:
		return "offline • showing cached data"
	}
}
