package tui

import (
	"context"
	"math"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hilthontt/parley/cli/pkg/generator"
	"github.com/hilthontt/parley/cli/pkg/settings_manager"
	"github.com/hilthontt/parley/cli/pkg/tui/theme"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/infrastructure/configs"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"github.com/hilthontt/parley/internal/realtime"
	"github.com/hilthontt/parley/internal/viewmodel"
)

type page = int
type size = int

const (
	splashPage page = iota
	loginPage
	registerPage
	roomsPage
	chatPage
	adminPage
	profilePage
	profileEditPage
	settingsPage
	menuPage
)

const (
	undersized size = iota
	small
	medium
	large
)

// Deps is everything the UI needs from the rest of the application. It is
// built once in main and never replaced.
type Deps struct {
	Client    *client.Client
	Source    realtime.Source
	Rooms     *realtime.RoomSubscriptions
	Lifecycle *realtime.Lifecycle
	Navigator *Navigator
	Settings  settings_manager.SettingsManager
	Names     *generator.Generator
	Chat      configs.ChatConfig
	Logger    logging.Logger
}

type state struct {
	splash   splashState
	footer   footerState
	notify   notifyState
	explorer fileExplorerState
	menu     menuState
	auth     authState
	rooms    roomsState
	chat     chatState
	admin    adminState
	profile  profileState
	settings settingsState
}

type visibleError struct {
	message string
}

type model struct {
	deps            Deps
	renderer        *lipgloss.Renderer
	page            page
	path            string
	gen             uint64
	state           state
	context         context.Context
	listener        *realtime.Listener
	release         func()
	error           *visibleError
	viewportWidth   int
	viewportHeight  int
	widthContainer  int
	heightContainer int
	widthContent    int
	heightContent   int
	size            size
	theme           theme.Theme
}

func NewModel(renderer *lipgloss.Renderer, deps Deps) (tea.Model, error) {
	return newModel(context.Background(), renderer, deps), nil
}

func newModel(ctx context.Context, renderer *lipgloss.Renderer, deps Deps) model {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Navigator == nil {
		deps.Navigator = NewNavigator()
	}
	if deps.Names == nil {
		deps.Names = generator.NewGenerator()
	}

	return model{
		deps:     deps,
		context:  ctx,
		page:     splashPage,
		renderer: renderer,
		state: state{
			footer: footerState{
				commands: []footerCommand{},
			},
		},
		theme: theme.BasicTheme(renderer, nil),
	}
}

func (m model) Init() tea.Cmd {
	return m.SplashInit()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case visibleError:
		m.error = &msg
		return m, nil
	case navigateMsg:
		return m.Navigate(msg.path)
	case fileSelectedMsg:
		return m.fileSelected(msg)
	case realtimeMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		var cmd tea.Cmd
		m, cmd = m.RealtimeUpdate(msg.message)
		return m, tea.Batch(cmd, m.waitForEvent())
	case tea.WindowSizeMsg:
		m.viewportWidth = msg.Width
		m.viewportHeight = msg.Height

		switch {
		case m.viewportWidth < 20 || m.viewportHeight < 10:
			m.size = undersized
			m.widthContainer = m.viewportWidth
			m.heightContainer = m.viewportHeight
		case m.viewportWidth < 50:
			m.size = small
			m.widthContainer = m.viewportWidth
			m.heightContainer = m.viewportHeight
		case m.viewportWidth < 80:
			m.size = medium
			m.widthContainer = 50
			m.heightContainer = int(math.Min(float64(msg.Height), 30))
		default:
			m.size = large
			m.widthContainer = 80
			m.heightContainer = int(math.Min(float64(msg.Height), 30))
		}

		m.widthContent = m.widthContainer - 2
		m.heightContent = m.heightContainer
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m.Quit()
		case key.Matches(msg, keys.Back):
			if m.error != nil {
				if m.page == splashPage {
					return m.Quit()
				}
				m.error = nil
				return m, nil
			}
		}
		if m.state.notify.open {
			return m.NotifyUpdate(msg)
		}
	}

	var cmd tea.Cmd
	switch m.page {
	case splashPage:
		m, cmd = m.SplashUpdate(msg)
	case loginPage, registerPage:
		m, cmd = m.AuthUpdate(msg)
	case roomsPage:
		m, cmd = m.RoomsUpdate(msg)
	case chatPage:
		m, cmd = m.ChatUpdate(msg)
	case adminPage:
		m, cmd = m.AdminUpdate(msg)
	case profilePage, profileEditPage:
		m, cmd = m.ProfileUpdate(msg)
	case settingsPage:
		m, cmd = m.SettingsUpdate(msg)
	case menuPage:
		m, cmd = m.MenuUpdate(msg)
	}

	var headerCmd tea.Cmd
	m, headerCmd = m.HeaderUpdate(msg)

	return m, tea.Batch(cmd, headerCmd)
}

func (m model) View() string {
	if m.size == undersized {
		return m.ResizeView()
	}

	switch m.page {
	case splashPage:
		return m.SplashView()
	case menuPage:
		return m.MenuView()
	}

	header := m.HeaderView()
	footer := m.FooterView()

	content := m.getContent()
	if m.state.notify.open {
		content = m.renderer.Place(
			m.widthContainer,
			lipgloss.Height(content),
			lipgloss.Center,
			lipgloss.Center,
			m.RenderModal(),
		)
	}

	height := m.heightContainer
	height -= lipgloss.Height(header)
	height -= lipgloss.Height(footer)

	body := m.theme.Base().Width(m.widthContainer).Height(height).Render(content)

	child := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		footer,
	)

	return m.renderer.Place(
		m.viewportWidth,
		m.viewportHeight,
		lipgloss.Center,
		lipgloss.Center,
		m.theme.Base().
			MaxWidth(m.widthContainer).
			MaxHeight(m.heightContainer).
			Render(child),
	)
}

func (m model) ResizeView() string {
	return m.renderer.Place(
		m.viewportWidth,
		m.viewportHeight,
		lipgloss.Center,
		lipgloss.Center,
		m.theme.TextAccent().Render("terminal too small"),
	)
}

// Navigate routes path onto a page. Pages behind sign-in remember the path
// and send the viewer to the login page; the dashboard sends non-admins to
// the room list.
func (m model) Navigate(path string) (model, tea.Cmd) {
	r, ok := parseRoute(path)
	if !ok {
		path, r = client.RoomsPath, route{page: roomsPage}
	}

	store := m.deps.Client.Session()
	snap := store.Snapshot()

	switch {
	case r.page == loginPage || r.page == registerPage:
		if snap.Authenticated() {
			return m.Navigate(client.RoomsPath)
		}
	case !snap.Authenticated():
		if r.page != menuPage {
			store.SetRedirectAfterLogin(path)
		}
		return m.Navigate(client.LoginPath)
	case r.page == adminPage:
		if redirect := viewmodel.AdminRedirect(snap.User); redirect != "" {
			return m.Navigate(redirect)
		}
	}

	switch r.page {
	case loginPage:
		return m.LoginSwitch()
	case registerPage:
		return m.RegisterSwitch()
	case chatPage:
		return m.ChatSwitch(r.roomID)
	case adminPage:
		return m.AdminSwitch()
	case profilePage:
		return m.ProfileSwitch()
	case profileEditPage:
		return m.ProfileEditSwitch()
	case settingsPage:
		return m.SettingsSwitch()
	case menuPage:
		return m.MenuSwitch()
	default:
		return m.RoomsSwitch()
	}
}

// SwitchPage unmounts the current page: its listener is closed, its room
// subscription released and results still in flight for it are ignored.
func (m model) SwitchPage(p page, path string) model {
	m = m.unmount()

	m.gen++
	m.page = p
	m.path = path
	m.error = nil
	m.state.notify = notifyState{}
	m.state.footer.commands = []footerCommand{}
	m.deps.Navigator.setPath(path)

	m.deps.Logger.Debug(logging.UI, logging.Navigation, "page switched", map[logging.ExtraKey]any{
		logging.Page: path,
	})

	return m
}

func (m model) unmount() model {
	if m.listener != nil {
		m.listener.Close()
		m.listener = nil
	}
	if m.release != nil {
		m.release()
		m.release = nil
	}
	return m
}

// Quit unmounts the current page before the program exits.
func (m model) Quit() (model, tea.Cmd) {
	m = m.unmount()
	return m, tea.Quit
}

func (m model) showError(message string) model {
	m.error = &visibleError{message: message}
	return m
}

func (m model) getContent() string {
	page := "unknown"
	switch m.page {
	case loginPage, registerPage:
		page = m.AuthView()
	case roomsPage:
		page = m.RoomsView()
	case chatPage:
		page = m.ChatView()
	case adminPage:
		page = m.AdminView()
	case profilePage, profileEditPage:
		page = m.ProfileView()
	case settingsPage:
		page = m.SettingsView()
	}
	return page
}
