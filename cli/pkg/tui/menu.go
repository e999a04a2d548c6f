package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
)

type menuState struct {
	lastPath string
}

type menuItem struct {
	key   string
	label string
	path  string
}

type loggedOutMsg struct {
	err error
}

func (m model) MenuSwitch() (model, tea.Cmd) {
	last := m.path
	m = m.SwitchPage(menuPage, MenuPath)
	if last == "" || last == MenuPath {
		last = client.RoomsPath
	}
	m.state.menu.lastPath = last
	return m, nil
}

func (m model) menuItems() []menuItem {
	items := []menuItem{
		{key: "r", label: "rooms", path: client.RoomsPath},
	}
	if user, ok := m.deps.Client.Session().CurrentUser(); ok && user.IsAdmin() {
		items = append(items, menuItem{key: "a", label: "admin dashboard", path: AdminPath})
	}
	items = append(items,
		menuItem{key: "p", label: "profile", path: ProfilePath},
		menuItem{key: "e", label: "edit profile", path: ProfileEditPath},
		menuItem{key: "s", label: "settings", path: SettingsPath},
		menuItem{key: "l", label: "sign out"},
		menuItem{key: "q", label: "quit"},
	)
	return items
}

func (m model) MenuUpdate(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case loggedOutMsg:
		if msg.err != nil {
			m.deps.Logger.Warn(logging.Auth, logging.Logout, "logout request failed", map[logging.ExtraKey]any{
				logging.ErrorMessage: msg.err.Error(),
			})
		}
		return m.Navigate(client.LoginPath)
	case tea.KeyMsg:
		if key.Matches(msg, keys.Back) {
			return m.Navigate(m.state.menu.lastPath)
		}

		switch msg.String() {
		case "l":
			return m.openLogoutModal(), nil
		case "q":
			return m.Quit()
		}

		for _, item := range m.menuItems() {
			if item.path != "" && item.key == msg.String() {
				return m.Navigate(item.path)
			}
		}
	}

	return m, nil
}

func (m model) logout() (model, tea.Cmd) {
	c := m.deps.Client
	return m, func() tea.Msg {
		return loggedOutMsg{err: c.Logout(context.Background())}
	}
}

func (m model) MenuView() string {
	base := m.theme.Base().Render
	bold := m.theme.TextAccent().Bold(true).Render

	menu :=
		table.New().
			Border(lipgloss.HiddenBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				return m.theme.Base().
					Padding(0, 1).
					AlignHorizontal(lipgloss.Left)
			})

	for _, item := range m.menuItems() {
		menu.Row(bold(item.key), base(item.label))
	}

	modal := m.theme.Base().
		Padding(1).
		Border(lipgloss.NormalBorder(), true, false).
		BorderForeground(m.theme.Border()).
		Render

	body := modal(menu.Render())
	if m.state.notify.open {
		body = m.RenderModal()
	}

	return m.renderer.Place(
		m.viewportWidth,
		m.viewportHeight,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(
			lipgloss.Center,
			m.LogoView(),
			body,
			m.theme.TextAccent().
				Width(m.widthContent).
				Padding(0, 1).
				AlignHorizontal(lipgloss.Center).
				Render("press esc to close"),
		),
	)
}
