package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
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

const chatTickInterval = 500 * time.Millisecond

var editRoom = key.NewBinding(
	key.WithKeys("ctrl+e"),
	key.WithHelp("ctrl+e", "edit room"),
)

type chatState struct {
	conversation viewmodel.Conversation
	viewport     viewport.Model
	input        textarea.Model
	emitter      viewmodel.TypingEmitter
	attachment   string
	sending      bool
	editing      bool
	form         form
	busy         bool
}

type conversationLoadedMsg struct {
	gen  uint64
	data viewmodel.ConversationData
	err  error
}

type olderLoadedMsg struct {
	gen  uint64
	page *apisdk.MessagePage
	err  error
}

type messageSentMsg struct {
	gen uint64
	err error
}

type roomEditedMsg struct {
	gen  uint64
	room *apisdk.Room
	err  error
}

type chatLeftMsg struct {
	gen     uint64
	deleted bool
	err     error
}

type chatTickMsg struct {
	gen uint64
	t   time.Time
}

// scrollPolicy prefers the saved setting over the config file.
func (m model) scrollPolicy() viewmodel.ScrollPolicy {
	if m.deps.Settings != nil {
		if cfg := m.deps.Settings.GetUserConfig(); cfg != nil && cfg.AutoScroll != "" {
			return viewmodel.ParseScrollPolicy(cfg.AutoScroll)
		}
	}
	return viewmodel.ParseScrollPolicy(m.deps.Chat.AutoScroll)
}

func (m model) timeLayout() string {
	if m.deps.Settings == nil {
		return "15:04"
	}
	return m.deps.Settings.GetUserConfig().TimeLayout()
}

func (m model) ChatSwitch(roomID string) (model, tea.Cmd) {
	m = m.SwitchPage(chatPage, roomPath(roomID))

	me, _ := m.deps.Client.Session().CurrentUser()

	ta := textarea.New()
	ta.Placeholder = "Write a message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.Prompt = "┃ "
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	ta.Focus()

	m.state.chat = chatState{
		conversation: viewmodel.NewConversation(roomID, me, m.scrollPolicy(), m.deps.Chat.TypingExpiry),
		viewport:     viewport.New(m.widthContent, 10),
		input:        ta,
		emitter:      viewmodel.NewTypingEmitter(m.deps.Chat.TypingIdle),
	}
	m = m.chatFooter().resizeChat()

	m = m.joinRoom(roomID)
	m, listenCmd := m.listen(realtime.ChatEvents...)

	return m, tea.Batch(listenCmd, m.loadConversation(), m.chatTick(), textarea.Blink)
}

func (m model) chatFooter() model {
	if m.state.chat.editing {
		m.state.footer.commands = []footerCommand{
			{key: "enter", value: "save"},
			{key: "esc", value: "cancel"},
		}
		return m
	}

	m.state.footer.commands = []footerCommand{
		{key: "enter", value: "send"},
		{key: "pgup", value: "older"},
		{key: "^o", value: "attach"},
		{key: "^l", value: "leave"},
		{key: "esc", value: "rooms"},
	}
	if m.state.chat.conversation.CanModerate() {
		m.state.footer.commands = append(m.state.footer.commands, footerCommand{key: "^e", value: "edit"})
	}
	return m
}

// resizeChat fits the viewport between the room line and the composer.
func (m model) resizeChat() model {
	s := &m.state.chat

	body := m.heightContainer - lipgloss.Height(m.HeaderView()) - lipgloss.Height(m.FooterView())
	composer := 3
	if s.attachment != "" {
		composer++
	}

	s.viewport.Width = m.widthContent
	s.viewport.Height = max(body-composer-3, 3)
	s.input.SetWidth(max(m.widthContent-2, 10))
	s.input.SetHeight(2)

	return m.refreshViewport(viewmodel.ScrollNone)
}

func (m model) loadConversation() tea.Cmd {
	c, ctx, gen := m.deps.Client, m.context, m.gen
	roomID := m.state.chat.conversation.RoomID()
	return func() tea.Msg {
		data, err := viewmodel.LoadConversation(ctx, c, roomID)
		return conversationLoadedMsg{gen: gen, data: data, err: err}
	}
}

func (m model) loadOlder() (model, tea.Cmd) {
	cursor, ok := m.state.chat.conversation.OlderCursor()
	if !ok {
		return m, nil
	}
	m.state.chat.conversation = m.state.chat.conversation.BeginOlder()

	c, ctx, gen := m.deps.Client, m.context, m.gen
	roomID := m.state.chat.conversation.RoomID()
	return m.refreshViewport(viewmodel.ScrollKeepAnchor), func() tea.Msg {
		page, err := c.Messages(ctx, roomID, cursor)
		return olderLoadedMsg{gen: gen, page: page, err: err}
	}
}

func (m model) chatTick() tea.Cmd {
	gen := m.gen
	return tea.Tick(chatTickInterval, func(t time.Time) tea.Msg {
		return chatTickMsg{gen: gen, t: t}
	})
}

// emit sends a typing signal for the open room. Failures only get logged:
// typing indicators are best effort.
func (m model) emit(event realtime.Event) tea.Cmd {
	src := m.deps.Source
	if src == nil {
		return nil
	}
	roomID, logger := m.state.chat.conversation.RoomID(), m.deps.Logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := src.Emit(ctx, event, roomID); err != nil {
			logger.Debug(logging.Realtime, logging.Outbound, "typing signal skipped", map[logging.ExtraKey]any{
				logging.Event:        string(event),
				logging.RoomID:       roomID,
				logging.ErrorMessage: err.Error(),
			})
		}
		return nil
	}
}

func (m model) ChatEvent(msg realtime.Message) (model, tea.Cmd) {
	conv, eff, action, err := m.state.chat.conversation.Apply(msg, time.Now())
	if err != nil {
		m.logEventError(msg, err)
		return m, nil
	}
	m.state.chat.conversation = conv
	m = m.refreshViewport(action)
	return m.applyEffects(eff)
}

func (m model) ChatUpdate(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.chat

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resizeChat(), nil

	case conversationLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			text := errorText(msg.err, "Could not open the room")
			m, cmd := m.Navigate(client.RoomsPath)
			return m.showError(text), cmd
		}
		conv, action := s.conversation.Loaded(msg.data)
		s.conversation = conv
		return m.chatFooter().refreshViewport(action), nil

	case olderLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil || msg.page == nil {
			s.conversation = s.conversation.OlderFailed()
			m = m.refreshViewport(viewmodel.ScrollKeepAnchor)
			if msg.err != nil {
				return m.showError(errorText(msg.err, "Could not load older messages")), nil
			}
			return m, nil
		}
		conv, action := s.conversation.OlderLoaded(*msg.page)
		s.conversation = conv
		if action == viewmodel.ScrollNone {
			action = viewmodel.ScrollKeepAnchor
		}
		return m.refreshViewport(action), nil

	case messageSentMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		s.sending = false
		if msg.err != nil {
			return m.showError(errorText(msg.err, "Message could not be sent")), nil
		}
		s.input.Reset()
		s.attachment = ""
		return m.resizeChat(), nil

	case roomEditedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		s.busy = false
		if msg.err != nil {
			return m.showError(errorText(msg.err, "Could not update the room")), nil
		}
		s.editing = false
		return m.chatFooter(), nil

	case chatLeftMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		s.busy = false
		if msg.err != nil {
			fallback := "Could not leave the room"
			if msg.deleted {
				fallback = "Could not delete the room"
			}
			return m.showError(errorText(msg.err, fallback)), nil
		}
		return m.Navigate(client.RoomsPath)

	case chatTickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		s.conversation, _ = s.conversation.Prune(msg.t)

		cmds := []tea.Cmd{m.chatTick()}
		emitter, stop := s.emitter.Tick(msg.t)
		s.emitter = emitter
		if stop {
			cmds = append(cmds, m.emit(realtime.TypingStop))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		return m.scrollChat(msg)

	case tea.KeyMsg:
		if s.busy {
			return m, nil
		}
		if s.editing {
			return m.editRoomUpdate(msg)
		}
		return m.chatKeyUpdate(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return m, cmd
}

func (m model) chatKeyUpdate(msg tea.KeyMsg) (model, tea.Cmd) {
	s := &m.state.chat
	room, _ := s.conversation.Room()

	switch {
	case key.Matches(msg, keys.Back):
		if s.attachment != "" {
			s.attachment = ""
			return m.resizeChat(), nil
		}
		return m.Navigate(client.RoomsPath)
	case key.Matches(msg, keys.PageUp), key.Matches(msg, keys.PageDown):
		return m.scrollChat(msg)
	case key.Matches(msg, keys.Enter):
		return m.send()
	case key.Matches(msg, keys.Attach):
		return m.openFileExplorer(attachPurpose), nil
	case key.Matches(msg, keys.Leave):
		return m.openLeaveRoomModal(room.ID, room.Name), nil
	case key.Matches(msg, keys.Delete):
		if !room.IsCreator {
			return m, nil
		}
		return m.openDeleteRoomModal(room.ID, room.Name), nil
	case key.Matches(msg, editRoom):
		if !s.conversation.CanModerate() {
			return m, nil
		}
		return m.openEditRoomForm(room)
	case key.Matches(msg, keys.Private):
		if !s.conversation.CanModerate() {
			return m, nil
		}
		private := !room.IsPrivate
		return m.updateRoomCmd(apisdk.RoomUpdateParams{IsPrivate: &private})
	}

	before := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if s.input.Value() == before {
		return m, cmd
	}

	emitter, start := s.emitter.Keystroke(time.Now())
	s.emitter = emitter
	if start {
		return m, tea.Batch(cmd, m.emit(realtime.TypingStart))
	}
	return m, cmd
}

// scrollChat moves the viewport and records whether it rests at the bottom.
// Reaching the top asks for the next older page.
func (m model) scrollChat(msg tea.Msg) (model, tea.Cmd) {
	s := &m.state.chat

	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	s.conversation = s.conversation.SetAtBottom(s.viewport.AtBottom())

	if s.viewport.AtTop() {
		var older tea.Cmd
		m, older = m.loadOlder()
		return m, tea.Batch(cmd, older)
	}
	return m, cmd
}

// send posts the composer once. The list is left alone: the message:new
// event appends the message.
func (m model) send() (model, tea.Cmd) {
	s := &m.state.chat
	if s.sending {
		return m, nil
	}

	content := strings.TrimSpace(s.input.Value())
	if content == "" && s.attachment == "" {
		return m, nil
	}

	s.sending = true
	m.error = nil

	emitter, stop := s.emitter.Sent()
	s.emitter = emitter

	c, ctx, gen := m.deps.Client, m.context, m.gen
	roomID, path := s.conversation.RoomID(), s.attachment

	sendCmd := func() tea.Msg {
		var err error
		if path != "" {
			_, err = c.SendWithFile(ctx, roomID, content, path)
		} else {
			_, err = c.SendMessage(ctx, roomID, content, nil)
		}
		return messageSentMsg{gen: gen, err: err}
	}

	if stop {
		return m, tea.Batch(sendCmd, m.emit(realtime.TypingStop))
	}
	return m, sendCmd
}

func (m model) leaveOpenRoom() (model, tea.Cmd) {
	m.state.chat.busy = true
	c, ctx, gen := m.deps.Client, m.context, m.gen
	roomID := m.state.chat.conversation.RoomID()
	return m, func() tea.Msg {
		return chatLeftMsg{gen: gen, err: c.LeaveRoom(ctx, roomID)}
	}
}

func (m model) deleteOpenRoom() (model, tea.Cmd) {
	m.state.chat.busy = true
	c, ctx, gen := m.deps.Client, m.context, m.gen
	roomID := m.state.chat.conversation.RoomID()
	return m, func() tea.Msg {
		return chatLeftMsg{gen: gen, deleted: true, err: c.DeleteRoom(ctx, roomID)}
	}
}

func (m model) openEditRoomForm(room apisdk.Room) (model, tea.Cmd) {
	s := &m.state.chat
	s.editing = true
	s.input.Blur()
	s.form = newForm(
		formField{
			label:    "Name",
			input:    m.newInput("room name", 100, false),
			validate: validate.Compose(validate.NotEmpty("name"), validate.MaxLen(100, "name")),
		},
		formField{
			label:    "Description",
			input:    m.newInput("optional", 500, false),
			validate: validate.MaxLen(500, "description"),
		},
	).SetValue(0, room.Name).SetValue(1, room.Description)
	return m.chatFooter(), nil
}

func (m model) editRoomUpdate(msg tea.KeyMsg) (model, tea.Cmd) {
	s := &m.state.chat

	switch {
	case key.Matches(msg, keys.Back):
		s.editing = false
		s.input.Focus()
		return m.chatFooter(), nil
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
		f, err := s.form.Validate()
		s.form = f
		if err != nil {
			return m.showError(err.Error()), nil
		}
		name, description := trimmed(f.Value(0)), trimmed(f.Value(1))
		s.input.Focus()
		return m.updateRoomCmd(apisdk.RoomUpdateParams{Name: &name, Description: &description})
	}

	var cmd tea.Cmd
	s.form, cmd = s.form.Update(msg)
	return m, cmd
}

// updateRoomCmd patches the open room. The room:updated event refreshes the
// header.
func (m model) updateRoomCmd(params apisdk.RoomUpdateParams) (model, tea.Cmd) {
	m.state.chat.busy = true
	c, ctx, gen := m.deps.Client, m.context, m.gen
	roomID := m.state.chat.conversation.RoomID()
	return m, func() tea.Msg {
		room, err := c.UpdateRoom(ctx, roomID, params)
		return roomEditedMsg{gen: gen, room: room, err: err}
	}
}

// refreshViewport re-renders the history and positions the viewport for
// action.
func (m model) refreshViewport(action viewmodel.ScrollAction) model {
	s := &m.state.chat

	oldOffset, oldTotal := s.viewport.YOffset, s.viewport.TotalLineCount()
	s.viewport.SetContent(m.renderMessages())

	switch action {
	case viewmodel.ScrollToBottom:
		s.viewport.GotoBottom()
		s.conversation = s.conversation.SetAtBottom(true)
	case viewmodel.ScrollKeepAnchor:
		s.viewport.SetYOffset(reconcile.BottomAnchoredOffset(oldOffset, oldTotal, s.viewport.TotalLineCount()))
	}
	return m
}

func (m model) renderMessages() string {
	s := m.state.chat
	width := max(m.widthContent-2, 10)

	var lines []string

	switch {
	case !s.conversation.IsLoaded():
		return m.theme.TextHighlight().Render("Loading messages...")
	case s.conversation.LoadingOlder():
		lines = append(lines, m.theme.TextMuted().Width(width).Align(lipgloss.Center).Render("loading older messages…"))
	default:
		if _, ok := s.conversation.OlderCursor(); ok {
			lines = append(lines, m.theme.TextMuted().Width(width).Align(lipgloss.Center).Render("pgup for older messages"))
		}
	}

	messages := s.conversation.Messages()
	if len(messages) == 0 {
		lines = append(lines, m.theme.TextMuted().Render("No messages yet. Say hello!"))
	}

	now := time.Now()
	me, _ := m.deps.Client.Session().CurrentUser()
	for _, msg := range messages {
		if msg.IsSystem() {
			lines = append(lines, m.renderSystemMessage(msg, now, width))
			continue
		}
		lines = append(lines, m.renderMessage(msg, msg.SenderID == me.ID, now, width))
	}

	return strings.Join(lines, "\n")
}

func (m model) renderSystemMessage(msg apisdk.Message, now time.Time, width int) string {
	icon := "→"
	if msg.Action == "leave" || msg.Action == "USER_LEFT" {
		icon = "←"
	}
	text := fmt.Sprintf("%s %s · %s", icon, msg.Content, formatTimestamp(msg.CreatedAt, now, m.timeLayout()))
	return m.theme.SystemNotice().Width(width).Render(wordWrap(text, width))
}

func (m model) renderMessage(msg apisdk.Message, own bool, now time.Time, width int) string {
	name := m.theme.TextAccent().Bold(true).Render(msg.Sender.Name())
	if own {
		name = m.theme.Selected().Render(msg.Sender.Name())
	}
	if m.state.chat.conversation.Online(msg.SenderID) {
		name += m.theme.TextOnline().Render(" ●")
	}

	header := name + m.theme.TextMuted().Render(" · "+formatTimestamp(msg.CreatedAt, now, m.timeLayout()))
	if !msg.UpdatedAt.IsZero() && msg.UpdatedAt.After(msg.CreatedAt.Add(time.Second)) {
		header += m.theme.TextMuted().Render(" (edited)")
	}

	parts := []string{header}
	if msg.Content != "" {
		parts = append(parts, m.theme.Base().Render(wordWrap(msg.Content, width)))
	}
	if att := msg.Attachment; att != nil {
		label := att.FileName
		if label == "" {
			label = filepath.Base(att.URL)
		}
		if size := formatBytes(att.FileSize); size != "" {
			label += " (" + size + ")"
		}
		icon := "📎 "
		if att.Type == apisdk.AttachmentImage {
			icon = "🖼  "
		}
		parts = append(parts,
			m.theme.TextBrand().Render(icon+label),
			m.theme.TextMuted().Render(truncate(att.URL, width)),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func typingLine(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + " is typing…"
	case 2:
		return names[0] + " and " + names[1] + " are typing…"
	}
	return fmt.Sprintf("%d people are typing…", len(names))
}

func (m model) ChatView() string {
	s := m.state.chat

	if s.editing {
		var sections []string
		sections = append(sections, m.theme.TextBrand().Bold(true).Render("Edit Room"), "")
		sections = append(sections, m.formView(s.form)...)
		return m.theme.Base().Width(m.widthContent).Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	}

	room, _ := s.conversation.Room()
	info := []string{m.theme.TextBrand().Bold(true).Render("#" + room.Name)}
	if s.conversation.IsLoaded() {
		info = append(info,
			m.theme.TextBody().Render(plural(len(s.conversation.Members()), "member", "members")),
			m.theme.TextOnline().Render(fmt.Sprintf("%d online", s.conversation.OnlineCount())),
		)
	}
	if room.IsPrivate {
		info = append(info, m.theme.TextBody().Render("private"))
	}
	if n := s.conversation.Unread(); n > 0 {
		info = append(info, m.theme.Selected().Render(fmt.Sprintf("↓ %d new", n)))
	}
	roomLine := truncate(strings.Join(info, m.theme.TextBody().Render(" · ")), m.widthContent)

	typing := m.theme.TextMuted().Italic(true).Render(typingLine(s.conversation.Typing()))

	composer := []string{s.input.View()}
	if s.attachment != "" {
		label := "📎 " + filepath.Base(s.attachment)
		if info, err := os.Stat(s.attachment); err == nil {
			label += " (" + formatBytes(info.Size()) + ")"
		}
		composer = append([]string{m.theme.TextBrand().Render(label + "  esc to remove")}, composer...)
	}
	if s.sending {
		typing = m.theme.TextHighlight().Render("Sending…")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		roomLine,
		s.viewport.View(),
		typing,
		lipgloss.JoinVertical(lipgloss.Left, composer...),
	)
}
