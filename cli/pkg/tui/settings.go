package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hilthontt/parley/cli/pkg/settings_manager"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
)

type settingOption struct {
	value       string
	title       string
	description string
}

type setting struct {
	title   string
	options []settingOption
	get     func(*settings_manager.UserConfig) string
	set     func(*settings_manager.UserConfig, string)
}

var settingsList = []setting{
	{
		title: "Auto-scroll",
		options: []settingOption{
			{
				value:       settings_manager.AutoScrollSticky,
				title:       "Sticky",
				description: "Follow new messages only while you are at the bottom.",
			},
			{
				value:       settings_manager.AutoScrollAlways,
				title:       "Always",
				description: "Jump to every new message.",
			},
		},
		get: func(c *settings_manager.UserConfig) string { return c.AutoScroll },
		set: func(c *settings_manager.UserConfig, v string) { c.AutoScroll = v },
	},
	{
		title: "Clock",
		options: []settingOption{
			{value: settings_manager.Clock24h, title: "24-hour", description: "15:04"},
			{value: settings_manager.Clock12h, title: "12-hour", description: "3:04 PM"},
		},
		get: func(c *settings_manager.UserConfig) string { return c.ClockFormat },
		set: func(c *settings_manager.UserConfig, v string) { c.ClockFormat = v },
	},
}

type settingsState struct {
	config  settings_manager.UserConfig
	focused int
}

func (m model) SettingsSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(settingsPage, SettingsPath)

	config := settings_manager.DefaultUserConfig()
	if m.deps.Settings != nil {
		config = m.deps.Settings.GetUserConfig()
	}
	if config.AutoScroll == "" {
		config.AutoScroll = m.deps.Chat.AutoScroll
	}

	m.state.settings = settingsState{config: *config}
	m.state.footer.commands = []footerCommand{
		{key: "↑/↓", value: "select"},
		{key: "enter", value: "change"},
		{key: "esc", value: "menu"},
	}
	return m, nil
}

func (m model) SettingsUpdate(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		s := &m.state.settings
		switch {
		case key.Matches(msg, keys.Back):
			return m.Navigate(MenuPath)
		case key.Matches(msg, keys.Up):
			s.focused = (s.focused - 1 + len(settingsList)) % len(settingsList)
		case key.Matches(msg, keys.Down), key.Matches(msg, keys.Tab):
			s.focused = (s.focused + 1) % len(settingsList)
		case key.Matches(msg, keys.Enter), msg.String() == " ", msg.String() == "right":
			return m.cycleSetting(1), nil
		case msg.String() == "left":
			return m.cycleSetting(-1), nil
		}
	}

	return m, nil
}

// cycleSetting moves the focused setting to its next option and saves the
// result.
func (m model) cycleSetting(step int) model {
	s := &m.state.settings
	st := settingsList[s.focused]

	current := slices.IndexFunc(st.options, func(o settingOption) bool {
		return o.value == st.get(&s.config)
	})
	next := ((max(current, 0)+step)%len(st.options) + len(st.options)) % len(st.options)
	st.set(&s.config, st.options[next].value)

	if m.deps.Settings == nil {
		return m
	}

	config := s.config
	if err := m.deps.Settings.SetUserConfig(&config); err != nil {
		m.deps.Logger.Error(logging.UI, logging.Settings, "error saving user config", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return m.showError("Settings could not be saved")
	}
	return m
}

func (m model) SettingsView() string {
	var content strings.Builder

	titleStyle := m.theme.Base().
		Bold(true).
		Foreground(m.theme.Brand()).
		MarginBottom(1).
		MarginTop(1)

	content.WriteString(titleStyle.Render("Settings"))
	content.WriteString("\n")

	instructionStyle := m.theme.Base().
		Foreground(m.theme.Body()).
		Italic(true).
		MarginBottom(1)

	content.WriteString(instructionStyle.Render("Changes are saved as soon as you make them"))
	content.WriteString("\n")

	for i, st := range settingsList {
		content.WriteString(m.renderSetting(st, i == m.state.settings.focused))
		content.WriteString("\n")
	}

	return content.String()
}

func (m model) renderSetting(st setting, focused bool) string {
	containerStyle := m.theme.Base().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Border()).
		Padding(0, 1).
		Width(m.widthContent - 4)
	titleStyle := m.theme.Base().Bold(true)
	if focused {
		containerStyle = containerStyle.BorderForeground(m.theme.Highlight())
		titleStyle = titleStyle.Foreground(m.theme.Highlight())
	}

	descStyle := m.theme.Base().
		Foreground(m.theme.Body()).
		Italic(true)

	selected := st.get(&m.state.settings.config)

	lines := []string{titleStyle.Render(st.title)}
	for _, option := range st.options {
		marker, style := "  ", m.theme.TextBody()
		if option.value == selected {
			marker, style = "✓ ", m.theme.TextHighlight()
		}
		lines = append(lines, style.Render(marker+option.title)+"  "+descStyle.Render(option.description))
	}

	return containerStyle.Render(strings.Join(lines, "\n"))
}
