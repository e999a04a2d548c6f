package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hilthontt/parley/internal/realtime"
)

func (m model) HeaderUpdate(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Menu):
			if m.page != menuPage && m.page != splashPage && !isAuthPath(m.path) {
				return m.Navigate(MenuPath)
			}
		}
	}

	return m, nil
}

func (m model) HeaderView() string {
	bold := m.theme.TextAccent().Bold(true).Render
	accent := m.theme.TextAccent().Render
	base := m.theme.Base().Render

	menu := bold("^g") + base(" ☰")
	logo := bold("parley")

	snap := m.deps.Client.Session().Snapshot()

	var status string
	switch m.connection() {
	case realtime.StatusConnected:
		status = m.theme.TextOnline().Render("● online")
	case realtime.StatusConnecting:
		status = m.theme.TextHighlight().Render("● connecting")
	default:
		status = m.theme.TextError().Render("● offline")
	}

	user := base("signed out")
	if snap.User != nil {
		user = accent(snap.User.Name())
	}

	location := base(m.pageTitle())

	var tabs []string

	switch m.size {
	case small:
		tabs = []string{
			logo,
			status,
		}
	case medium:
		tabs = []string{
			menu,
			logo,
			status,
		}
	default:
		tabs = []string{
			menu,
			logo,
			location,
			user,
			status,
		}
	}

	var table = table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(m.renderer.NewStyle().Foreground(m.theme.Border())).
		Row(tabs...).
		Width(m.widthContent).
		StyleFunc(func(row, col int) lipgloss.Style {
			return m.theme.Base().
				Padding(0, 1).
				AlignHorizontal(lipgloss.Center)
		}).
		Render()

	return lipgloss.Place(
		m.widthContainer,
		lipgloss.Height(table),
		lipgloss.Center,
		lipgloss.Center,
		table,
	)
}

func (m model) pageTitle() string {
	switch m.page {
	case loginPage:
		return "sign in"
	case registerPage:
		return "register"
	case roomsPage:
		return "rooms"
	case chatPage:
		if room, ok := m.state.chat.conversation.Room(); ok && room.Name != "" {
			return "#" + room.Name
		}
		return "chat"
	case adminPage:
		return "admin"
	case profilePage:
		return "profile"
	case profileEditPage:
		return "edit profile"
	case settingsPage:
		return "settings"
	}
	return ""
}

// connection is the realtime status shown by both the header and the footer.
// Without a source the session's online flag is all there is.
func (m model) connection() realtime.Status {
	if m.deps.Source != nil {
		return m.deps.Source.Status()
	}
	if m.deps.Client.Session().Snapshot().Online {
		return realtime.StatusConnected
	}
	return realtime.StatusDisconnected
}
