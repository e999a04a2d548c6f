package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/realtime"
	"github.com/hilthontt/parley/internal/reconcile"
	"github.com/hilthontt/parley/internal/viewmodel"
)

func chatMessage(id, senderID, username, content string, at time.Time) apisdk.Message {
	return apisdk.Message{
		ID:        id,
		RoomID:    "r1",
		SenderID:  senderID,
		Sender:    apisdk.MessageSender{ID: senderID, Username: username},
		Content:   content,
		CreatedAt: at,
	}
}

func pushEvent(t *testing.T, ev realtime.Event, payload any) realtime.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return realtime.Message{Event: ev, Data: raw}
}

// openChat shows room r1 seeded with n messages from another member.
func openChat(t *testing.T, h *harness, n int) {
	t.Helper()
	h.signIn(member)
	h.navigate(roomPath("r1"))
	require.Equal(t, chatPage, h.m.page)

	start := time.Now().Add(-time.Hour)
	page := apisdk.MessagePage{}
	for i := range n {
		page.Messages = append(page.Messages, chatMessage(
			fmt.Sprintf("m%d", i), "u2", "grace", fmt.Sprintf("message number %d", i), start.Add(time.Duration(i)*time.Second),
		))
	}

	h.update(t, conversationLoadedMsg{gen: h.m.gen, data: viewmodel.ConversationData{
		Room: apisdk.Room{ID: "r1", Name: "general", IsMember: true},
		Page: page,
		Members: []apisdk.RoomMember{
			{UserID: "u1", RoomID: "r1", Role: apisdk.RoleMember},
			{UserID: "u2", RoomID: "r1", Role: apisdk.RoleMember},
		},
	}})
	require.True(t, h.m.state.chat.conversation.IsLoaded())
}

func TestChatLoadedScrollsToBottom(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	openChat(t, h, 40)

	assert.True(t, h.m.state.chat.viewport.AtBottom())
	assert.Contains(t, h.m.View(), "#general")
}

func TestChatLoadFailureReturnsToRooms(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)
	h.navigate(roomPath("missing"))

	h.update(t, conversationLoadedMsg{gen: h.m.gen, err: &client.ValidationError{Messages: []string{"Room not found"}}})

	assert.Equal(t, roomsPage, h.m.page)
	require.NotNil(t, h.m.error)
	assert.Equal(t, "Room not found", h.m.error.message)
}

func TestChatStickyScrollCountsUnread(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	openChat(t, h, 40)

	h.m.state.chat.viewport.GotoTop()
	h.m.state.chat.conversation = h.m.state.chat.conversation.SetAtBottom(false)

	incoming := chatMessage("m-new", "u2", "grace", "are you there?", time.Now())
	var cmd tea.Cmd
	h.m, cmd = h.m.ChatEvent(pushEvent(t, realtime.MessageNew, incoming))
	assert.Nil(t, cmd)

	assert.Equal(t, 1, h.m.state.chat.conversation.Unread())
	assert.False(t, h.m.state.chat.viewport.AtBottom())
	assert.Contains(t, h.m.View(), "↓ 1 new")

	own := chatMessage("m-own", "u1", "ada", "yes", time.Now())
	h.m, _ = h.m.ChatEvent(pushEvent(t, realtime.MessageNew, own))

	assert.Zero(t, h.m.state.chat.conversation.Unread())
	assert.True(t, h.m.state.chat.viewport.AtBottom())
}

func TestChatEventFromListener(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	openChat(t, h, 2)

	delivered := h.source.Push(realtime.MessageNew, chatMessage("m9", "u2", "grace", "fresh", time.Now()))
	require.Equal(t, 1, delivered)

	msg := h.m.waitForEvent()()
	require.IsType(t, realtimeMsg{}, msg)
	h.update(t, msg)

	messages := h.m.state.chat.conversation.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "m9", messages[len(messages)-1].ID)
}

func TestChatRoomDeletedLeavesWithNotice(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	openChat(t, h, 2)

	h.m, _ = h.m.ChatEvent(pushEvent(t, realtime.RoomDeleted, map[string]string{"roomId": "other"}))
	assert.Equal(t, chatPage, h.m.page)

	h.m, _ = h.m.ChatEvent(pushEvent(t, realtime.RoomDeleted, map[string]string{"roomId": "r1"}))

	assert.Equal(t, roomsPage, h.m.page)
	assert.True(t, h.m.state.notify.open)
	assert.Equal(t, reconcile.RoomDeletedNotice, h.m.state.notify.content)
}

func TestChatSendPostsOnce(t *testing.T) {
	var posts atomic.Int32
	r := chi.NewRouter()
	r.Post("/api/messages", func(w http.ResponseWriter, req *http.Request) {
		posts.Add(1)
		writeJSON(w, http.StatusCreated, ok(map[string]any{"message": map[string]any{"id": "m-sent", "roomId": "r1", "content": "hello"}}))
	})

	h := newHarness(t, r)
	openChat(t, h, 2)

	h.m.state.chat.input.SetValue("hello")
	h.m.state.chat.emitter, _ = h.m.state.chat.emitter.Keystroke(time.Now())

	cmd := h.update(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, h.m.state.chat.sending)

	again := h.update(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, run(again))

	for _, msg := range run(cmd) {
		h.update(t, msg)
	}

	assert.Equal(t, int32(1), posts.Load())
	assert.False(t, h.m.state.chat.sending)
	assert.Empty(t, h.m.state.chat.input.Value())
	assert.Len(t, h.m.state.chat.conversation.Messages(), 2)

	emitted := h.source.Emitted()
	require.Len(t, emitted, 1)
	assert.Equal(t, realtime.TypingStop, emitted[0].Event)
	assert.Equal(t, "r1", emitted[0].Payload)
}

func TestChatSendFailureKeepsInput(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/messages", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"status": "error", "message": "You are not a member of this room"})
	})

	h := newHarness(t, r)
	openChat(t, h, 1)

	h.m.state.chat.input.SetValue("hello")
	_, cmd := h.m.send()
	for _, msg := range run(cmd) {
		h.update(t, msg)
	}

	assert.Equal(t, "hello", h.m.state.chat.input.Value())
	require.NotNil(t, h.m.error)
	assert.Equal(t, "You are not a member of this room", h.m.error.message)
}

func TestChatBlankInputIsNotSent(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	openChat(t, h, 1)

	h.m.state.chat.input.SetValue("   ")
	m, cmd := h.m.send()

	assert.Nil(t, cmd)
	assert.False(t, m.state.chat.sending)
}

func TestChatTypingStopsAfterIdle(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	openChat(t, h, 1)

	start := time.Now()
	h.m.state.chat.emitter, _ = h.m.state.chat.emitter.Keystroke(start)

	cmd := h.update(t, chatTickMsg{gen: h.m.gen, t: start.Add(500 * time.Millisecond)})
	require.NotNil(t, cmd)
	assert.True(t, h.m.state.chat.emitter.Active())

	h.update(t, chatTickMsg{gen: h.m.gen, t: start.Add(3 * time.Second)})
	assert.False(t, h.m.state.chat.emitter.Active())

	h.m.emit(realtime.TypingStop)()
	emitted := h.source.Emitted()
	require.Len(t, emitted, 1)
	assert.Equal(t, realtime.TypingStop, emitted[0].Event)
}

func TestChatTypingLine(t *testing.T) {
	assert.Empty(t, typingLine(nil))
	assert.Equal(t, "grace is typing…", typingLine([]string{"grace"}))
	assert.Equal(t, "grace and linus are typing…", typingLine([]string{"grace", "linus"}))
	assert.Equal(t, "3 people are typing…", typingLine([]string{"a", "b", "c"}))
}

func TestChatAttachmentSelected(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	openChat(t, h, 1)
	height := h.m.state.chat.viewport.Height

	h.update(t, fileSelectedMsg{path: "/tmp/report.pdf", purpose: attachPurpose})

	assert.Equal(t, "/tmp/report.pdf", h.m.state.chat.attachment)
	assert.Equal(t, height-1, h.m.state.chat.viewport.Height)

	h.update(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, h.m.state.chat.attachment)
	assert.Equal(t, chatPage, h.m.page)
}
