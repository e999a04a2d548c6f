package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/cli/pkg/tui/validate"
	"github.com/hilthontt/parley/internal/client"
)

const (
	displayNameField = iota
	statusField
	currentPasswordField
	newPasswordField
	confirmPasswordField
)

var editProfile = key.NewBinding(
	key.WithKeys("e"),
	key.WithHelp("e", "edit"),
)

type profileState struct {
	user      apisdk.User
	loading   bool
	form      form
	saving    bool
	uploading bool
}

type profileLoadedMsg struct {
	gen  uint64
	user *apisdk.User
	err  error
}

type profileSavedMsg struct {
	gen             uint64
	passwordChanged bool
	err             error
}

type avatarUploadedMsg struct {
	gen  uint64
	user *apisdk.User
	err  error
}

func (m model) ProfileSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(profilePage, ProfilePath)

	me, _ := m.deps.Client.Session().CurrentUser()
	m.state.profile = profileState{user: me, loading: true}
	m.state.footer.commands = []footerCommand{
		{key: "e", value: "edit"},
		{key: "esc", value: "rooms"},
	}

	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		user, err := c.Me(ctx)
		return profileLoadedMsg{gen: gen, user: user, err: err}
	}
}

func (m model) ProfileEditSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(profileEditPage, ProfileEditPath)

	me, _ := m.deps.Client.Session().CurrentUser()

	f := newForm(
		formField{
			label:    "Display name",
			input:    m.newInput("display name", 64, false),
			validate: validate.Compose(validate.NotEmpty("display name"), validate.MaxLen(64, "display name")),
		},
		formField{
			label:    "Status",
			input:    m.newInput("what are you up to?", 140, false),
			validate: validate.MaxLen(140, "status"),
		},
		formField{
			label: "Current password",
			input: m.newInput("leave blank to keep your password", 128, true),
		},
		formField{
			label:    "New password",
			input:    m.newInput("at least 6 characters", 128, true),
			validate: validate.Optional(validate.MinLen(6, "new password")),
		},
		formField{
			label: "Confirm new password",
			input: m.newInput("repeat the new password", 128, true),
		},
	)
	f = f.SetValue(displayNameField, me.Name()).SetValue(statusField, me.StatusMessage)

	m.state.profile = profileState{user: me, form: f}
	m.state.footer.commands = []footerCommand{
		{key: "tab", value: "next field"},
		{key: "^s", value: "save"},
		{key: "^o", value: "avatar"},
		{key: "esc", value: "cancel"},
	}
	return m, textinput.Blink
}

func (m model) ProfileUpdate(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.profile

	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		s.loading = false
		if msg.err != nil {
			return m.showError(errorText(msg.err, "Could not load your profile")), nil
		}
		if msg.user != nil {
			s.user = *msg.user
		}
		return m, nil

	case profileSavedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		s.saving = false
		if msg.err != nil {
			return m.showError(errorText(msg.err, "Could not save your profile")), nil
		}
		notice := "Your profile was updated."
		if msg.passwordChanged {
			notice = "Your profile and password were updated."
		}
		m, cmd := m.Navigate(ProfilePath)
		return m.openNotice("Saved", notice), cmd

	case avatarUploadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		s.uploading = false
		if msg.err != nil {
			return m.showError(errorText(msg.err, "Could not upload the avatar")), nil
		}
		if msg.user != nil {
			s.user = *msg.user
		}
		return m.openNotice("Avatar updated", "Your new avatar is visible to everyone."), nil

	case tea.KeyMsg:
		if m.page == profilePage {
			switch {
			case key.Matches(msg, keys.Back):
				return m.Navigate(client.RoomsPath)
			case key.Matches(msg, editProfile):
				return m.Navigate(ProfileEditPath)
			}
			return m, nil
		}

		if s.saving || s.uploading {
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Back):
			return m.Navigate(ProfilePath)
		case key.Matches(msg, keys.Attach):
			return m.openFileExplorer(avatarPurpose), nil
		case msg.String() == "tab" || msg.String() == "down":
			s.form = s.form.Next()
			return m, nil
		case msg.String() == "shift+tab" || msg.String() == "up":
			s.form = s.form.Prev()
			return m, nil
		case key.Matches(msg, keys.Enter):
			if !s.form.OnLast() {
				s.form = s.form.Next()
				return m, nil
			}
			return m.saveProfile()
		case key.Matches(msg, keys.Submit):
			return m.saveProfile()
		}
	}

	if m.page != profileEditPage {
		return m, nil
	}

	var cmd tea.Cmd
	s.form, cmd = s.form.Update(msg)
	return m, cmd
}

// saveProfile updates the profile and, when a new password was typed,
// changes the password after it.
func (m model) saveProfile() (model, tea.Cmd) {
	s := &m.state.profile

	f, err := s.form.Validate()
	s.form = f
	if err != nil {
		return m.showError(err.Error()), nil
	}

	newPassword := f.Value(newPasswordField)
	changePassword := newPassword != "" || f.Value(currentPasswordField) != ""
	if changePassword {
		if err := validate.NotEmpty("current password")(f.Value(currentPasswordField)); err != nil {
			s.form = f.focusOn(currentPasswordField)
			return m.showError(err.Error()), nil
		}
		if err := validate.NotEmpty("new password")(newPassword); err != nil {
			s.form = f.focusOn(newPasswordField)
			return m.showError(err.Error()), nil
		}
		matches := validate.Matches(func() string { return newPassword }, "password confirmation")
		if err := matches(f.Value(confirmPasswordField)); err != nil {
			s.form = f.focusOn(confirmPasswordField)
			return m.showError(err.Error()), nil
		}
	}

	m.error = nil
	s.saving = true

	profile := apisdk.UpdateProfileParams{
		DisplayName:   trimmed(f.Value(displayNameField)),
		StatusMessage: trimmed(f.Value(statusField)),
	}
	password := apisdk.ChangePasswordParams{
		CurrentPassword: f.Value(currentPasswordField),
		NewPassword:     newPassword,
		ConfirmPassword: f.Value(confirmPasswordField),
	}

	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		if _, err := c.UpdateProfile(ctx, profile); err != nil {
			return profileSavedMsg{gen: gen, err: err}
		}
		if changePassword {
			if err := c.ChangePassword(ctx, password); err != nil {
				return profileSavedMsg{gen: gen, err: err}
			}
		}
		return profileSavedMsg{gen: gen, passwordChanged: changePassword}
	}
}

func (m model) uploadAvatar(path string) (model, tea.Cmd) {
	m.error = nil
	m.state.profile.uploading = true

	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		user, err := c.UploadAvatar(ctx, path)
		return avatarUploadedMsg{gen: gen, user: user, err: err}
	}
}

func (m model) ProfileView() string {
	if m.page == profileEditPage {
		return m.profileEditView()
	}

	s := m.state.profile
	u := s.user

	dash := func(v string) string {
		if v == "" {
			return m.theme.TextMuted().Render("-")
		}
		return v
	}

	joined := ""
	if !u.CreatedAt.IsZero() {
		joined = humanize.Time(u.CreatedAt)
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return m.theme.TextAccent().PaddingRight(2)
			}
			return m.theme.Base()
		}).
		Row("Display name", dash(u.DisplayName)).
		Row("Username", "@"+u.Username).
		Row("Email", dash(u.Email)).
		Row("Role", string(u.Role)).
		Row("Status", dash(u.StatusMessage)).
		Row("Avatar", dash(truncate(u.AvatarURL, m.widthContent-20))).
		Row("Joined", dash(joined))

	sections := []string{m.theme.TextBrand().Bold(true).Render(u.Name()), t.Render()}
	if s.loading {
		sections = append(sections, m.theme.TextHighlight().Render("Refreshing..."))
	}

	return m.theme.Base().
		Width(m.widthContent).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m model) profileEditView() string {
	s := m.state.profile

	sections := []string{m.theme.TextBrand().Bold(true).Render("Edit profile"), ""}
	sections = append(sections, m.formView(s.form)...)

	switch {
	case s.saving:
		sections = append(sections, m.theme.TextHighlight().Render("Saving..."))
	case s.uploading:
		sections = append(sections, m.theme.TextHighlight().Render("Uploading avatar..."))
	default:
		sections = append(sections, m.theme.TextMuted().Render(
			"Passwords are only changed when a new one is entered.",
		))
	}

	return m.theme.Base().
		Width(m.widthContent).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
