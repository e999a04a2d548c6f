package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/cli/pkg/tui/validate"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"github.com/hilthontt/parley/internal/realtime"
	"github.com/hilthontt/parley/internal/reconcile"
	"github.com/hilthontt/parley/internal/viewmodel"
)

type roomSection int

const (
	joinedSection roomSection = iota
	publicSection
)

type roomsState struct {
	list      viewmodel.RoomList
	filter    textinput.Model
	filtering bool
	section   roomSection
	cursor    int
	creating  bool
	form      form
	private   bool
	busy      bool
	loading   bool
}

type roomsLoadedMsg struct {
	gen  uint64
	data viewmodel.RoomListData
	err  error
}

type roomAction int

const (
	roomCreated roomAction = iota
	roomJoined
	roomLeft
	roomDeleted
)

type roomActionMsg struct {
	gen    uint64
	action roomAction
	id     string
	room   *apisdk.Room
	err    error
}

func (m model) RoomsSwitch() (model, tea.Cmd) {
	m = m.SwitchPage(roomsPage, client.RoomsPath)

	viewer := reconcile.Viewer{}
	if me, ok := m.deps.Client.Session().CurrentUser(); ok {
		viewer.UserID = me.ID
	}

	filter := m.newInput("filter by name, id or description", 64, false)
	filter.Prompt = "/ "

	m.state.rooms = roomsState{
		list:    viewmodel.NewRoomList(viewer),
		filter:  filter,
		loading: true,
	}
	m = m.roomsFooter()

	m, listenCmd := m.listen(realtime.RoomListEvents...)
	return m, tea.Batch(listenCmd, m.loadRooms())
}

func (m model) roomsFooter() model {
	s := m.state.rooms
	switch {
	case s.creating:
		m.state.footer.commands = []footerCommand{
			{key: "enter", value: "create"},
			{key: "ctrl+p", value: "private"},
			{key: "ctrl+r", value: "suggest name"},
			{key: "esc", value: "cancel"},
		}
	case s.filtering:
		m.state.footer.commands = []footerCommand{
			{key: "enter", value: "done"},
			{key: "esc", value: "clear"},
		}
	default:
		m.state.footer.commands = []footerCommand{
			{key: "enter", value: "open/join"},
			{key: "tab", value: "switch list"},
			{key: "/", value: "filter"},
			{key: "^n", value: "new"},
			{key: "^l", value: "leave"},
			{key: "^x", value: "delete"},
		}
	}
	return m
}

// loadRooms fetches both lists. The sequences are taken now so that events
// applied while the request is in flight survive its result.
func (m model) loadRooms() tea.Cmd {
	c, ctx, gen := m.deps.Client, m.context, m.gen
	since := m.state.rooms.list.Seqs()
	return func() tea.Msg {
		data, err := viewmodel.LoadRoomLists(ctx, c, since)
		return roomsLoadedMsg{gen: gen, data: data, err: err}
	}
}

func (m model) RoomsEvent(msg realtime.Message) (model, tea.Cmd) {
	list, eff, err := m.state.rooms.list.Apply(msg)
	if err != nil {
		m.logEventError(msg, err)
		return m, nil
	}
	m.state.rooms.list = list
	m = m.clampRoomCursor()
	return m.applyEffects(eff)
}

func (m model) roomEntries(section roomSection) []viewmodel.RoomEntry {
	if section == joinedSection {
		return m.state.rooms.list.Joined()
	}
	return m.state.rooms.list.Public()
}

func (m model) selectedRoom() (viewmodel.RoomEntry, bool) {
	entries := m.roomEntries(m.state.rooms.section)
	if m.state.rooms.cursor < 0 || m.state.rooms.cursor >= len(entries) {
		return viewmodel.RoomEntry{}, false
	}
	return entries[m.state.rooms.cursor], true
}

func (m model) clampRoomCursor() model {
	n := len(m.roomEntries(m.state.rooms.section))
	m.state.rooms.cursor = max(min(m.state.rooms.cursor, n-1), 0)
	return m
}

func (m model) RoomsUpdate(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case roomsLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.state.rooms.loading = false
		if msg.err != nil {
			return m.showError(errorText(msg.err, "Could not load rooms")), nil
		}
		m.state.rooms.list = m.state.rooms.list.Loaded(msg.data)
		return m.clampRoomCursor(), nil

	case roomActionMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m.roomActionDone(msg)

	case tea.KeyMsg:
		if m.state.rooms.busy {
			return m, nil
		}
		switch {
		case m.state.rooms.creating:
			return m.newRoomUpdate(msg)
		case m.state.rooms.filtering:
			return m.roomFilterUpdate(msg)
		}
		return m.roomListUpdate(msg)
	}

	return m, nil
}

func (m model) roomListUpdate(msg tea.KeyMsg) (model, tea.Cmd) {
	s := &m.state.rooms

	switch {
	case key.Matches(msg, keys.Up):
		s.cursor = max(s.cursor-1, 0)
	case key.Matches(msg, keys.Down):
		s.cursor++
		m = m.clampRoomCursor()
	case key.Matches(msg, keys.Switch):
		if s.section == joinedSection {
			s.section = publicSection
		} else {
			s.section = joinedSection
		}
		s.cursor = 0
	case msg.String() == "/" || key.Matches(msg, keys.Filter):
		s.filtering = true
		s.filter.Focus()
		return m.roomsFooter(), textinput.Blink
	case key.Matches(msg, keys.NewRoom):
		return m.openNewRoomForm()
	case key.Matches(msg, keys.Refresh):
		m.deps.Client.Refetch(client.TagRoomLists)
		s.loading = true
		return m, m.loadRooms()
	case key.Matches(msg, keys.Enter):
		entry, ok := m.selectedRoom()
		if !ok {
			return m, nil
		}
		if entry.CanJoin() {
			return m.joinRoomCmd(entry.Room)
		}
		return m.Navigate(roomPath(entry.Room.ID))
	case key.Matches(msg, keys.Leave):
		entry, ok := m.selectedRoom()
		if !ok || !entry.Joined {
			return m, nil
		}
		return m.openLeaveRoomModal(entry.Room.ID, entry.Room.Name), nil
	case key.Matches(msg, keys.Delete):
		entry, ok := m.selectedRoom()
		if !ok {
			return m, nil
		}
		if !entry.Room.IsCreator {
			return m.showError("Only the creator can delete this room"), nil
		}
		return m.openDeleteRoomModal(entry.Room.ID, entry.Room.Name), nil
	}

	return m, nil
}

func (m model) roomFilterUpdate(msg tea.KeyMsg) (model, tea.Cmd) {
	s := &m.state.rooms

	switch {
	case key.Matches(msg, keys.Back):
		s.filter.SetValue("")
		s.list = s.list.SetFilter("")
		fallthrough
	case key.Matches(msg, keys.Enter):
		s.filtering = false
		s.filter.Blur()
		return m.clampRoomCursor().roomsFooter(), nil
	}

	var cmd tea.Cmd
	s.filter, cmd = s.filter.Update(msg)
	s.list = s.list.SetFilter(s.filter.Value())
	s.cursor = 0
	return m, cmd
}

func (m model) openNewRoomForm() (model, tea.Cmd) {
	m.state.rooms.creating = true
	m.state.rooms.private = false
	m.state.rooms.form = newForm(
		formField{
			label:    "Name",
			input:    m.newInput(m.deps.Names.Generate(), 100, false),
			validate: validate.Compose(validate.NotEmpty("name"), validate.MaxLen(100, "name")),
		},
		formField{
			label:    "Description",
			input:    m.newInput("optional", 500, false),
			validate: validate.MaxLen(500, "description"),
		},
	)
	return m.roomsFooter(), textinput.Blink
}

func (m model) newRoomUpdate(msg tea.KeyMsg) (model, tea.Cmd) {
	s := &m.state.rooms

	switch {
	case key.Matches(msg, keys.Back):
		s.creating = false
		return m.roomsFooter(), nil
	case key.Matches(msg, keys.Private):
		s.private = !s.private
		return m, nil
	case key.Matches(msg, keys.Refresh):
		s.form = s.form.SetValue(0, m.deps.Names.Generate())
		return m, nil
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
		return m.createRoomCmd()
	}

	var cmd tea.Cmd
	s.form, cmd = s.form.Update(msg)
	return m, cmd
}

func (m model) createRoomCmd() (model, tea.Cmd) {
	f, err := m.state.rooms.form.Validate()
	m.state.rooms.form = f
	if err != nil {
		return m.showError(err.Error()), nil
	}

	params := apisdk.RoomNewParams{
		Name:        trimmed(f.Value(0)),
		Description: trimmed(f.Value(1)),
		IsPrivate:   m.state.rooms.private,
	}

	m.error = nil
	m.state.rooms.busy = true
	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		room, err := c.CreateRoom(ctx, params)
		return roomActionMsg{gen: gen, action: roomCreated, room: room, err: err}
	}
}

func (m model) joinRoomCmd(room apisdk.Room) (model, tea.Cmd) {
	m.state.rooms.busy = true
	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		err := c.JoinRoom(ctx, room.ID)
		return roomActionMsg{gen: gen, action: roomJoined, id: room.ID, room: &room, err: err}
	}
}

func (m model) leaveRoom(id string) (model, tea.Cmd) {
	m.state.rooms.busy = true
	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		return roomActionMsg{gen: gen, action: roomLeft, id: id, err: c.LeaveRoom(ctx, id)}
	}
}

func (m model) deleteRoom(id string) (model, tea.Cmd) {
	m.state.rooms.busy = true
	c, ctx, gen := m.deps.Client, m.context, m.gen
	return m, func() tea.Msg {
		return roomActionMsg{gen: gen, action: roomDeleted, id: id, err: c.DeleteRoom(ctx, id)}
	}
}

func (m model) roomActionDone(msg roomActionMsg) (model, tea.Cmd) {
	s := &m.state.rooms
	s.busy = false

	if msg.err != nil {
		fallback := map[roomAction]string{
			roomCreated: "Could not create the room",
			roomJoined:  "Could not join the room",
			roomLeft:    "Could not leave the room",
			roomDeleted: "Could not delete the room",
		}[msg.action]
		return m.showError(errorText(msg.err, fallback)), nil
	}

	m.deps.Logger.Info(logging.UI, logging.Action, "room action completed", map[logging.ExtraKey]any{
		logging.RoomID: msg.id,
		"Action":       int(msg.action),
	})

	switch msg.action {
	case roomCreated:
		s.creating = false
		if msg.room == nil {
			return m.roomsFooter(), m.loadRooms()
		}
		s.list = s.list.MarkJoined(*msg.room)
		return m.Navigate(roomPath(msg.room.ID))
	case roomJoined:
		s.list = s.list.MarkJoined(*msg.room)
		return m.Navigate(roomPath(msg.id))
	case roomLeft:
		s.list = s.list.MarkLeft(msg.id)
	case roomDeleted:
		s.list = s.list.MarkDeleted(msg.id)
	}

	return m.clampRoomCursor(), nil
}

func (m model) RoomsView() string {
	s := m.state.rooms

	if s.creating {
		return m.newRoomView()
	}

	var sections []string

	filter := s.filter.View()
	if !s.filtering && s.list.Filter() == "" {
		filter = m.theme.TextMuted().Render("/ filter rooms")
	}
	sections = append(sections, filter, "")

	if s.loading && !s.list.IsLoaded() {
		sections = append(sections, m.theme.TextHighlight().Render("Loading rooms..."))
		return m.theme.Base().Width(m.widthContent).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	}

	rows := max((m.heightContent-12)/2, 3)
	sections = append(sections, m.roomSectionView(joinedSection, "Your rooms", rows)...)
	sections = append(sections, "")
	sections = append(sections, m.roomSectionView(publicSection, "Public rooms", rows)...)

	return m.theme.Base().
		Width(m.widthContent).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m model) roomSectionView(section roomSection, title string, rows int) []string {
	s := m.state.rooms
	entries := m.roomEntries(section)
	active := section == s.section

	heading := m.theme.TextAccent().Bold(true).Render(fmt.Sprintf("%s (%d)", title, len(entries)))
	if active {
		heading = m.theme.Selected().Render(fmt.Sprintf("%s (%d)", title, len(entries)))
	}
	lines := []string{heading}

	if len(entries) == 0 {
		empty := "No rooms yet. Press ctrl+n to create one."
		if section == publicSection {
			empty = "No public rooms."
		}
		if s.list.Filter() != "" {
			empty = "No rooms match the filter."
		}
		return append(lines, m.theme.TextMuted().Render("  "+empty))
	}

	start := 0
	if active {
		start = max(min(s.cursor-rows/2, len(entries)-rows), 0)
	}
	end := min(start+rows, len(entries))

	for i := start; i < end; i++ {
		lines = append(lines, m.roomRow(entries[i], active && i == s.cursor))
	}
	if end < len(entries) {
		lines = append(lines, m.theme.TextMuted().Render(fmt.Sprintf("  … %d more", len(entries)-end)))
	}
	return lines
}

func (m model) roomRow(entry viewmodel.RoomEntry, selected bool) string {
	room := entry.Room

	name := m.theme.TextAccent().Render("#" + room.Name)
	prefix := "  "
	if selected {
		prefix = m.theme.Selected().Render("▶ ")
		name = m.theme.Selected().Render("#" + room.Name)
	}

	details := []string{plural(room.Count.Memberships, "member", "members")}
	if room.OnlineMembers > 0 {
		details = append(details, m.theme.TextOnline().Render(fmt.Sprintf("%d online", room.OnlineMembers)))
	}
	if room.IsPrivate {
		details = append(details, "private")
	}

	badge := ""
	if entry.CanJoin() {
		badge = " " + m.theme.TextBrand().Render("[join]")
	}

	row := prefix + name + badge + m.theme.TextBody().Render("  "+strings.Join(details, " · "))
	if room.Description != "" && m.size == large {
		row += "\n    " + m.theme.TextMuted().Render(truncate(room.Description, m.widthContent-8))
	}
	return row
}

func (m model) newRoomView() string {
	s := m.state.rooms

	var sections []string
	sections = append(sections, m.theme.TextBrand().Bold(true).Render("New Room"))
	sections = append(sections, "")
	sections = append(sections, m.formView(s.form)...)

	visibility := "public: anyone can find and join it"
	if s.private {
		visibility = "private: only invited members"
	}
	sections = append(sections, m.theme.TextAccent().Render("Visibility: ")+m.theme.TextBody().Render(visibility))

	if s.busy {
		sections = append(sections, "", m.theme.TextHighlight().Render("Creating room..."))
	}

	return m.theme.Base().
		Width(m.widthContent).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
