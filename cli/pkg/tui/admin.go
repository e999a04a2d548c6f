package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/realtime"
	"github.com/hilthontt/parley/internal/viewmodel"
)

type adminTab int

const (
	usersTab adminTab = iota
	roomsTab
)

type adminState struct {
	dashboard viewmodel.Dashboard
	tab       adminTab
	cursor    int
	busy      bool
}

type dashboardLoadedMsg struct {
	gen  uint64
	data viewmodel.DashboardData
	err  error
}

type adminRoomMsg struct {
	gen     uint64
	id      string
	room    *apisdk.AdminRoom
	deleted bool
	err     error
}

func (m model) AdminSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(adminPage, AdminPath)
	m.state.admin = adminState{dashboard: viewmodel.NewDashboard()}
	m = m.adminFooter()

	m, listenCmd := m.listen(realtime.AdminEvents...)
	return m, tea.Batch(listenCmd, m.loadDashboard())
}

func (m model) adminFooter() model {
	m.state.footer.commands = []footerCommand{
		{key: "tab", value: "users/rooms"},
		{key: "↑/↓", value: "select"},
		{key: "^r", value: "refresh"},
	}
	if m.state.admin.tab == usersTab {
		m.state.footer.commands = append(m.state.footer.commands, footerCommand{key: "^f", value: "filter"})
	} else {
		m.state.footer.commands = append(m.state.footer.commands,
			footerCommand{key: "^p", value: "private"},
			footerCommand{key: "^x", value: "delete"},
		)
	}
	return m
}

// loadDashboard fetches the parts named by tags, or everything. Sequences are
// taken before the request like the room lists.
func (m model) loadDashboard(tags ...querycache.Tag) tea.Cmd {
	c, ctx, gen := m.deps.Client, m.context, m.gen
	since := m.state.admin.dashboard.Seqs()
	return func() tea.Msg {
		data, err := viewmodel.LoadDashboard(ctx, c, since, tags...)
		return dashboardLoadedMsg{gen: gen, data: data, err: err}
	}
}

func (m model) AdminEvent(msg realtime.Message) (model, tea.Cmd) {
	d, eff, err := m.state.admin.dashboard.Apply(msg)
	if err != nil {
		m.logEventError(msg, err)
		return m, nil
	}
	m.state.admin.dashboard = d
	m = m.clampAdminCursor()
	return m.applyEffects(eff)
}

func (m model) adminRowCount() int {
	if m.state.admin.tab == usersTab {
		return len(m.state.admin.dashboard.Users())
	}
	return len(m.state.admin.dashboard.Rooms())
}

func (m model) clampAdminCursor() model {
	m.state.admin.cursor = max(min(m.state.admin.cursor, m.adminRowCount()-1), 0)
	return m
}

func (m model) selectedAdminRoom() (apisdk.AdminRoom, bool) {
	rooms := m.state.admin.dashboard.Rooms()
	if m.state.admin.tab != roomsTab || m.state.admin.cursor >= len(rooms) {
		return apisdk.AdminRoom{}, false
	}
	return rooms[m.state.admin.cursor], true
}

func (m model) AdminUpdate(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.admin

	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			return m.showError(errorText(msg.err, "Could not load the dashboard")), nil
		}
		s.dashboard = s.dashboard.Loaded(msg.data)
		return m.clampAdminCursor(), nil

	case adminRoomMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		s.busy = false
		switch {
		case msg.err != nil:
			return m.showError(errorText(msg.err, "Room action failed")), nil
		case msg.deleted:
			s.dashboard = s.dashboard.RoomRemoved(msg.id)
		case msg.room != nil:
			s.dashboard = s.dashboard.RoomChanged(*msg.room)
		}
		return m.clampAdminCursor(), nil

	case tea.KeyMsg:
		if s.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Back):
			return m.Navigate(client.RoomsPath)
		case key.Matches(msg, keys.Switch):
			s.tab = 1 - s.tab
			s.cursor = 0
			return m.adminFooter(), nil
		case key.Matches(msg, keys.Up):
			s.cursor = max(s.cursor-1, 0)
		case key.Matches(msg, keys.Down):
			s.cursor = min(s.cursor+1, max(m.adminRowCount()-1, 0))
		case key.Matches(msg, keys.Refresh):
			return m, m.loadDashboard()
		case key.Matches(msg, keys.Filter):
			if s.tab == usersTab {
				s.dashboard = s.dashboard.CycleFilter()
				return m.clampAdminCursor(), nil
			}
		case key.Matches(msg, keys.Delete):
			if room, ok := m.selectedAdminRoom(); ok {
				return m.openAdminDeleteRoomModal(room.ID, room.Name), nil
			}
		case key.Matches(msg, keys.Private):
			if room, ok := m.selectedAdminRoom(); ok {
				return m.toggleAdminRoomPrivacy(room)
			}
		}
	}

	return m, nil
}

func (m model) adminDeleteRoom(id string) (model, tea.Cmd) {
	m.state.admin.busy = true
	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		return adminRoomMsg{gen: gen, id: id, deleted: true, err: c.AdminDeleteRoom(ctx, id)}
	}
}

func (m model) toggleAdminRoomPrivacy(room apisdk.AdminRoom) (model, tea.Cmd) {
	m.state.admin.busy = true
	private := !room.IsPrivate
	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		updated, err := c.AdminUpdateRoom(ctx, room.ID, apisdk.RoomUpdateParams{IsPrivate: &private})
		return adminRoomMsg{gen: gen, id: room.ID, room: updated, err: err}
	}
}

func (m model) AdminView() string {
	s := m.state.admin
	if !s.dashboard.IsLoaded() {
		return m.theme.TextHighlight().Render("Loading dashboard...")
	}

	sections := []string{m.statsView(), ""}

	usersTitle, roomsTitle := m.theme.TextBody().Render("Users"), m.theme.TextBody().Render("Rooms")
	if s.tab == usersTab {
		usersTitle = m.theme.Selected().Underline(true).Render("Users")
	} else {
		roomsTitle = m.theme.Selected().Underline(true).Render("Rooms")
	}
	sections = append(sections, usersTitle+"   "+roomsTitle, "")

	rows := max(m.heightContent-16, 3)
	if s.tab == usersTab {
		sections = append(sections, m.adminUsersView(rows)...)
	} else {
		sections = append(sections, m.adminRoomsView(rows)...)
	}

	return m.theme.Base().
		Width(m.widthContent).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m model) statsView() string {
	stats, ok := m.state.admin.dashboard.Stats()
	if !ok {
		return m.theme.TextMuted().Render("Statistics unavailable")
	}

	cell := func(label string, n int) string {
		return m.theme.TextBrand().Bold(true).Render(humanize.Comma(int64(n))) + "\n" +
			m.theme.TextBody().Render(label)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(m.renderer.NewStyle().Foreground(m.theme.Border())).
		BorderColumn(true).
		StyleFunc(func(row, col int) lipgloss.Style {
			return m.theme.Base().Padding(0, 1).AlignHorizontal(lipgloss.Center)
		}).
		Row(
			cell("users", stats.TotalUsers),
			cell("online", stats.OnlineUsers),
			cell("rooms", stats.TotalRooms),
			cell("messages", stats.TotalMessages),
			cell("today", stats.MessagesToday),
		).
		Render()
}

func (m model) adminUsersView(rows int) []string {
	s := m.state.admin
	total, online, offline := s.dashboard.Counts()

	lines := []string{m.theme.TextBody().Render(fmt.Sprintf(
		"filter: %s · %d total · %d online · %d offline",
		s.dashboard.Filter(), total, online, offline,
	))}

	users := s.dashboard.Users()
	if len(users) == 0 {
		return append(lines, m.theme.TextMuted().Render("  No users match the filter."))
	}

	start := max(min(s.cursor-rows/2, len(users)-rows), 0)
	end := min(start+rows, len(users))
	for i := start; i < end; i++ {
		u := users[i]

		status := m.theme.TextMuted().Render("○")
		if u.IsOnline {
			status = m.theme.TextOnline().Render("●")
		}

		name := m.theme.TextAccent().Render(u.Name())
		prefix := "  "
		if i == s.cursor {
			prefix = m.theme.Selected().Render("▶ ")
			name = m.theme.Selected().Render(u.Name())
		}

		roomNames := make([]string, 0, len(u.Rooms))
		for _, r := range u.Rooms {
			roomNames = append(roomNames, "#"+r.Name)
		}
		detail := m.theme.TextMuted().Render(
			" @" + u.Username + " · " + plural(len(u.Rooms), "room", "rooms") + " " + strings.Join(roomNames, " "),
		)

		lines = append(lines, truncate(prefix+status+" "+name+detail, m.widthContent-2))
	}
	if end < len(users) {
		lines = append(lines, m.theme.TextMuted().Render(fmt.Sprintf("  … %d more", len(users)-end)))
	}
	return lines
}

func (m model) adminRoomsView(rows int) []string {
	s := m.state.admin
	rooms := s.dashboard.Rooms()
	if len(rooms) == 0 {
		return []string{m.theme.TextMuted().Render("  No rooms.")}
	}

	now := time.Now()
	var lines []string

	start := max(min(s.cursor-rows/2, len(rooms)-rows), 0)
	end := min(start+rows, len(rooms))
	for i := start; i < end; i++ {
		r := rooms[i]

		name := m.theme.TextAccent().Render("#" + r.Name)
		prefix := "  "
		if i == s.cursor {
			prefix = m.theme.Selected().Render("▶ ")
			name = m.theme.Selected().Render("#" + r.Name)
		}

		details := []string{
			plural(r.TotalMembers, "member", "members"),
			m.theme.TextOnline().Render(fmt.Sprintf("%d online", r.OnlineMembers)),
			plural(r.MessagesCount, "message", "messages"),
		}
		if r.LastMessageAt != nil {
			details = append(details, "last "+humanize.RelTime(*r.LastMessageAt, now, "ago", "from now"))
		}
		if r.IsPrivate {
			details = append(details, "private")
		}

		lines = append(lines, truncate(
			prefix+name+m.theme.TextBody().Render(" "+strings.Join(details, " · ")),
			m.widthContent-2,
		))
	}
	if end < len(rooms) {
		lines = append(lines, m.theme.TextMuted().Render(fmt.Sprintf("  … %d more", len(rooms)-end)))
	}
	return lines
}
