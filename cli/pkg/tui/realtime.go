package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/infrastructure/logging"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/realtime"
	"github.com/hilthontt/parley/internal/reconcile"
)

// realtimeMsg carries one event from the page's listener. gen is the page
// generation the listener was opened for.
type realtimeMsg struct {
	gen     uint64
	message realtime.Message
}

// listen opens the page's listener. Every page also receives avatar
// changes so the header stays current.
func (m model) listen(events ...realtime.Event) (model, tea.Cmd) {
	if m.deps.Source == nil {
		return m, nil
	}
	if m.deps.Lifecycle != nil {
		m.deps.Lifecycle.Resync()
	}

	events = append(events, realtime.AvatarUpdated)
	m.listener = realtime.Listen(m.deps.Source, m.deps.Logger, events...)
	return m, m.waitForEvent()
}

// joinRoom takes a reference on the room channel until the page unmounts.
func (m model) joinRoom(roomID string) model {
	if m.deps.Rooms == nil {
		return m
	}
	m.release = m.deps.Rooms.Acquire(roomID)
	return m
}

func (m model) waitForEvent() tea.Cmd {
	l, gen, ctx := m.listener, m.gen, m.context
	if l == nil {
		return nil
	}

	return func() tea.Msg {
		msg, ok := l.Next(ctx)
		if !ok {
			return nil
		}
		return realtimeMsg{gen: gen, message: msg}
	}
}

func (m model) RealtimeUpdate(msg realtime.Message) (model, tea.Cmd) {
	switch msg.Event {
	case realtime.StatusChanged:
		return m, nil
	case realtime.AvatarUpdated:
		payload, err := realtime.Decode[realtime.AvatarPayload](msg)
		if err == nil {
			m.deps.Client.SetAvatar(payload.UserID, payload.AvatarURL)
		}
		return m, nil
	}

	switch m.page {
	case roomsPage:
		return m.RoomsEvent(msg)
	case chatPage:
		return m.ChatEvent(msg)
	case adminPage:
		return m.AdminEvent(msg)
	}
	return m, nil
}

// applyEffects runs what a reconciler asked for: cache refetches, then a
// page change, then a notice that survives the change.
func (m model) applyEffects(eff reconcile.Effects) (model, tea.Cmd) {
	if eff.Empty() {
		return m, nil
	}

	cmds := []tea.Cmd{}
	if len(eff.Refetch) > 0 {
		m.deps.Client.Refetch(eff.Refetch...)
		cmds = append(cmds, m.reload(eff.Refetch...))
	}

	if eff.Navigate != "" && eff.Navigate != m.path {
		var cmd tea.Cmd
		m, cmd = m.Navigate(eff.Navigate)
		cmds = append(cmds, cmd)
	}

	if eff.Notice != "" {
		m = m.openNotice("Notice", eff.Notice)
	}

	return m, tea.Batch(cmds...)
}

// reload refreshes the parts of the current page covered by tags.
func (m model) reload(tags ...querycache.Tag) tea.Cmd {
	switch m.page {
	case roomsPage:
		if querycache.Intersects(tags, []querycache.Tag{client.TagRoomLists}) {
			return m.loadRooms()
		}
	case adminPage:
		return m.loadDashboard(tags...)
	}
	return nil
}

func (m model) logEventError(msg realtime.Message, err error) {
	m.deps.Logger.Warn(logging.Realtime, logging.Inbound, "dropping malformed event", map[logging.ExtraKey]any{
		logging.Event:        string(msg.Event),
		logging.ErrorMessage: err.Error(),
	})
}
