package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/cli/pkg/tui/validate"
	"github.com/hilthontt/parley/internal/client"
)

type authState struct {
	form       form
	submitting bool
}

type authDoneMsg struct {
	gen  uint64
	user *apisdk.User
	err  error
}

var toggleAuth = key.NewBinding(
	key.WithKeys("ctrl+t"),
	key.WithHelp("ctrl+t", "switch"),
)

func (m model) LoginSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(loginPage, client.LoginPath)
	m.state.auth = authState{
		form: newForm(
			formField{
				label:    "Email or username",
				input:    m.newInput("you@example.com", 254, false),
				validate: validate.NotEmpty("email or username"),
			},
			formField{
				label:    "Password",
				input:    m.newInput("password", 128, true),
				validate: validate.NotEmpty("password"),
			},
		),
	}
	m.state.footer.commands = []footerCommand{
		{key: "enter", value: "sign in"},
		{key: "tab", value: "next field"},
		{key: "ctrl+t", value: "register"},
	}
	return m, textinput.Blink
}

func (m model) RegisterSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(registerPage, client.RegisterPath)
	m.state.auth = authState{
		form: newForm(
			formField{
				label:    "Email",
				input:    m.newInput("you@example.com", 254, false),
				validate: validate.NotEmpty("email"),
			},
			formField{
				label:    "Username",
				input:    m.newInput("username", 32, false),
				validate: validate.WithinLen(3, 32, "username"),
			},
			formField{
				label:    "Display name",
				input:    m.newInput("optional", 64, false),
				validate: validate.MaxLen(64, "display name"),
			},
			formField{
				label:    "Password",
				input:    m.newInput("at least 6 characters", 128, true),
				validate: validate.MinLen(6, "password"),
			},
		),
	}
	m.state.footer.commands = []footerCommand{
		{key: "enter", value: "create account"},
		{key: "tab", value: "next field"},
		{key: "ctrl+t", value: "sign in"},
	}
	return m, textinput.Blink
}

func (m model) AuthUpdate(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.state.auth.submitting = false
		if msg.err != nil {
			fallback := "Sign in failed"
			if m.page == registerPage {
				fallback = "Registration failed"
			}
			return m.showError(errorText(msg.err, fallback)), nil
		}

		next := m.deps.Client.Session().TakeRedirectAfterLogin()
		if next == "" || isAuthPath(next) {
			next = client.RoomsPath
		}
		return m.Navigate(next)

	case tea.KeyMsg:
		if m.state.auth.submitting {
			return m, nil
		}

		switch {
		case key.Matches(msg, toggleAuth):
			if m.page == loginPage {
				return m.Navigate(client.RegisterPath)
			}
			return m.Navigate(client.LoginPath)
		case msg.String() == "tab" || msg.String() == "down":
			m.state.auth.form = m.state.auth.form.Next()
			return m, nil
		case msg.String() == "shift+tab" || msg.String() == "up":
			m.state.auth.form = m.state.auth.form.Prev()
			return m, nil
		case key.Matches(msg, keys.Enter):
			if !m.state.auth.form.OnLast() {
				m.state.auth.form = m.state.auth.form.Next()
				return m, nil
			}
			return m.submitAuth()
		case key.Matches(msg, keys.Submit):
			return m.submitAuth()
		}
	}

	var cmd tea.Cmd
	m.state.auth.form, cmd = m.state.auth.form.Update(msg)
	return m, cmd
}

func (m model) submitAuth() (model, tea.Cmd) {
	f, err := m.state.auth.form.Validate()
	m.state.auth.form = f
	if err != nil {
		return m.showError(err.Error()), nil
	}

	m.error = nil
	m.state.auth.submitting = true

	c, ctx, gen := m.deps.Client, m.context, m.gen
	if m.page == registerPage {
		params := apisdk.RegisterParams{
			Email:       trimmed(f.Value(0)),
			Username:    trimmed(f.Value(1)),
			DisplayName: trimmed(f.Value(2)),
			Password:    f.Value(3),
		}
		return m, func() tea.Msg {
			user, err := c.Register(ctx, params)
			return authDoneMsg{gen: gen, user: user, err: err}
		}
	}

	params := apisdk.LoginParams{
		EmailOrUsername: trimmed(f.Value(0)),
		Password:        f.Value(1),
	}
	return m, func() tea.Msg {
		user, err := c.Login(ctx, params)
		return authDoneMsg{gen: gen, user: user, err: err}
	}
}

func (m model) AuthView() string {
	s := m.state.auth

	var sections []string

	title, intro := "Sign in", "Sign in with your email address or username."
	if m.page == registerPage {
		title, intro = "Create account", "Pick a username others will see in rooms."
	}

	sections = append(sections, m.theme.TextBrand().Bold(true).Render(title))
	sections = append(sections, "")
	sections = append(sections, m.theme.TextBody().Render(intro))
	sections = append(sections, "")
	sections = append(sections, m.formView(s.form)...)

	if s.submitting {
		sections = append(sections, m.theme.TextHighlight().Render("Signing in..."))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	containerStyle := m.theme.Base().
		Width(m.widthContent).
		AlignHorizontal(lipgloss.Center)

	return containerStyle.Render(content)
}
