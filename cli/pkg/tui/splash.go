package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
)

const logo = `┌─┐┌─┐┬─┐┬  ┌─┐┬ ┬
├─┘├─┤├┬┘│  ├┤ └┬┘
┴  ┴ ┴┴└─┴─┘└─┘ ┴ `

type splashState struct {
	data  bool
	delay bool
	err   error
}

type bootstrapDoneMsg struct {
	err error
}

type DelayCompleteMsg struct{}

func (m model) LoadCmds() []tea.Cmd {
	cmds := []tea.Cmd{}

	cmds = append(cmds, tea.Tick(time.Millisecond*800, func(t time.Time) tea.Msg {
		return DelayCompleteMsg{}
	}))

	c, ctx := m.deps.Client, m.context
	cmds = append(cmds, func() tea.Msg {
		return bootstrapDoneMsg{err: c.Bootstrap(ctx)}
	})

	return cmds
}

func (m model) IsLoadingComplete() bool {
	return m.state.splash.data && m.state.splash.delay
}

func (m model) SplashInit() tea.Cmd {
	return tea.Batch(m.LoadCmds()...)
}

func (m model) SplashUpdate(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case DelayCompleteMsg:
		m.state.splash.delay = true
	case bootstrapDoneMsg:
		m.state.splash.data = true
		m.state.splash.err = msg.err
	}

	if !m.IsLoadingComplete() {
		return m, nil
	}

	err := m.state.splash.err
	m, cmd := m.Navigate(client.RoomsPath)
	if err != nil && !apisdk.IsUnauthorized(err) {
		m = m.showError(apisdk.ErrorMessage(err, "Could not reach the server. Sign in again when it is back."))
	}
	return m, cmd
}

func (m model) LogoView() string {
	return m.theme.TextBrand().Bold(true).Render(logo)
}

func (m model) SplashView() string {
	return m.renderer.Place(
		m.viewportWidth,
		m.viewportHeight,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(
			lipgloss.Center,
			m.LogoView(),
			"",
			m.theme.TextMuted().Render("connecting…"),
		),
	)
}
