package viewmodel

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/reconcile"
	"github.com/hilthontt/parley/internal/realtime"
)

func event(t *testing.T, ev realtime.Event, payload any) realtime.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return realtime.Message{Event: ev, Data: raw}
}

func roomIDs(entries []RoomEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Room.ID)
	}
	return out
}

func TestRoomList_FilterAndJoinAction(t *testing.T) {
	v := NewRoomList(reconcile.Viewer{UserID: "u1"})
	v = v.Loaded(RoomListData{
		Joined: []apisdk.Room{{ID: "r1", Name: "General"}},
		Public: []apisdk.Room{
			{ID: "r1", Name: "General"},
			{ID: "r2", Name: "Random", Description: "off topic"},
		},
	})
	require.True(t, v.IsLoaded())

	public := v.Public()
	require.Len(t, public, 2)
	assert.False(t, public[0].CanJoin(), "joined room offers entry only")
	assert.True(t, public[1].CanJoin())

	v = v.SetFilter("TOPIC")
	assert.Equal(t, []string{"r2"}, roomIDs(v.Public()))
	assert.Empty(t, v.Joined())

	v = v.SetFilter("r1")
	assert.Equal(t, []string{"r1"}, roomIDs(v.Joined()))
}

func TestRoomList_EventDuringFetchSurvives(t *testing.T) {
	v := NewRoomList(reconcile.Viewer{UserID: "u1"})
	since := v.Seqs()

	// the fetch is slow; a creation event lands first
	v, _, err := v.Apply(event(t, realtime.RoomCreated, apisdk.Room{ID: "fresh", Name: "Fresh", CreatedByID: "u1"}))
	require.NoError(t, err)

	v = v.Loaded(RoomListData{
		Joined: []apisdk.Room{{ID: "old"}},
		Public: []apisdk.Room{{ID: "old"}},
		Since:  since,
	})

	assert.Equal(t, []string{"fresh", "old"}, roomIDs(v.Joined()))
	assert.Equal(t, []string{"fresh", "old"}, roomIDs(v.Public()))
}

func TestRoomList_JoinLeave(t *testing.T) {
	v := NewRoomList(reconcile.Viewer{UserID: "u1"}).Loaded(RoomListData{
		Public: []apisdk.Room{{ID: "r2"}},
	})

	v = v.MarkJoined(apisdk.Room{ID: "r2"})
	assert.True(t, v.JoinedIDs().Contains("r2"))
	assert.False(t, v.Public()[0].CanJoin())

	v = v.MarkLeft("r2")
	assert.False(t, v.JoinedIDs().Contains("r2"))
	assert.True(t, v.Public()[0].CanJoin())
}

func TestRoomList_DeleteOpenRoom(t *testing.T) {
	v := NewRoomList(reconcile.Viewer{UserID: "u1", OpenRoomID: "r1"}).Loaded(RoomListData{
		Joined: []apisdk.Room{{ID: "r1"}},
	})

	v, eff, err := v.Apply(event(t, realtime.RoomDeleted, "r1"))
	require.NoError(t, err)
	assert.Empty(t, v.Joined())
	assert.Equal(t, client.RoomsPath, eff.Navigate)
	assert.Equal(t, reconcile.RoomDeletedNotice, eff.Notice)
}

var (
	me  = apisdk.User{ID: "u1", Username: "alice"}
	now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

func newMessage(id, sender string) apisdk.Message {
	return apisdk.Message{ID: id, RoomID: "r1", SenderID: sender, Sender: apisdk.MessageSender{ID: sender, Username: sender}}
}

func loadedConversation(policy ScrollPolicy) Conversation {
	c := NewConversation("r1", me, policy, 3*time.Second)
	c, _ = c.Loaded(ConversationData{
		Room: apisdk.Room{ID: "r1", Name: "General"},
		Page: apisdk.MessagePage{Messages: []apisdk.Message{newMessage("m1", "bob")}, NextCursor: "c1", HasMore: true},
	})
	return c
}

func TestConversation_StickyScroll(t *testing.T) {
	c := NewConversation("r1", me, ScrollSticky, 0)
	c, action := c.Loaded(ConversationData{})
	assert.Equal(t, ScrollToBottom, action, "initial load scrolls")

	c = loadedConversation(ScrollSticky)

	c, _, action, err := c.Apply(event(t, realtime.MessageNew, newMessage("m2", "bob")), now)
	require.NoError(t, err)
	assert.Equal(t, ScrollToBottom, action, "at bottom follows")

	c = c.SetAtBottom(false)
	c, _, action, err = c.Apply(event(t, realtime.MessageNew, newMessage("m3", "bob")), now)
	require.NoError(t, err)
	assert.Equal(t, ScrollNone, action)
	assert.Equal(t, 1, c.Unread())

	c, _, action, err = c.Apply(event(t, realtime.MessageNew, newMessage("m4", "u1")), now)
	require.NoError(t, err)
	assert.Equal(t, ScrollToBottom, action, "own message always follows")
	assert.Zero(t, c.Unread())

	c = c.SetAtBottom(false)
	c, _, _, _ = c.Apply(event(t, realtime.MessageNew, newMessage("m5", "bob")), now)
	require.Equal(t, 1, c.Unread())
	c = c.SetAtBottom(true)
	assert.Zero(t, c.Unread())
}

func TestConversation_AlwaysScroll(t *testing.T) {
	c := loadedConversation(ParseScrollPolicy(" Always "))
	c = c.SetAtBottom(false)

	c, _, action, err := c.Apply(event(t, realtime.MessageNew, newMessage("m2", "bob")), now)
	require.NoError(t, err)
	assert.Equal(t, ScrollToBottom, action)
	assert.Zero(t, c.Unread())
	assert.Equal(t, ScrollSticky, ParseScrollPolicy("bogus"))
}

func TestConversation_EventsBeforeFirstPageSurvive(t *testing.T) {
	c := NewConversation("r1", me, ScrollSticky, 0)

	edited := newMessage("m1", "bob")
	edited.Content = "edited"

	for _, ev := range []realtime.Message{
		event(t, realtime.MessageNew, newMessage("m9", "bob")),
		event(t, realtime.MessageDeleted, "m2"),
		event(t, realtime.MessageUpdated, edited),
	} {
		var (
			action ScrollAction
			err    error
		)
		c, _, action, err = c.Apply(ev, now)
		require.NoError(t, err)
		assert.Equal(t, ScrollNone, action)
	}
	assert.Zero(t, c.Unread())

	c, action := c.Loaded(ConversationData{
		Room: apisdk.Room{ID: "r1"},
		Page: apisdk.MessagePage{Messages: []apisdk.Message{newMessage("m1", "bob"), newMessage("m2", "bob")}},
	})
	assert.Equal(t, ScrollToBottom, action)

	var ids []string
	for _, m := range c.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m1", "m9"}, ids)
	assert.Equal(t, "edited", c.Messages()[0].Content)

	c, _, action, err := c.Apply(event(t, realtime.MessageNew, newMessage("m10", "bob")), now)
	require.NoError(t, err)
	assert.Equal(t, ScrollToBottom, action)
	assert.Len(t, c.Messages(), 3)
}

func TestConversation_OlderPages(t *testing.T) {
	c := loadedConversation(ScrollSticky)

	cursor, ok := c.OlderCursor()
	require.True(t, ok)
	assert.Equal(t, "c1", cursor)

	c = c.BeginOlder()
	_, ok = c.OlderCursor()
	assert.False(t, ok, "one older request at a time")

	c, action := c.OlderLoaded(apisdk.MessagePage{Messages: []apisdk.Message{newMessage("m0", "bob"), newMessage("m1", "bob")}})
	assert.Equal(t, ScrollKeepAnchor, action)
	require.Len(t, c.Messages(), 2)
	assert.Equal(t, "m0", c.Messages()[0].ID)

	_, ok = c.OlderCursor()
	assert.False(t, ok, "no more pages")
}

func TestConversation_TypingAndPresence(t *testing.T) {
	c := loadedConversation(ScrollSticky)

	c, _, _, err := c.Apply(event(t, realtime.UserTyping, realtime.TypingPayload{Username: "bob"}), now)
	require.NoError(t, err)
	c, _, _, err = c.Apply(event(t, realtime.UserTyping, realtime.TypingPayload{Username: "alice"}), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, c.Typing())

	// bob's message ends his typing indicator
	c, _, _, err = c.Apply(event(t, realtime.MessageNew, newMessage("m2", "bob")), now)
	require.NoError(t, err)
	assert.Empty(t, c.Typing())

	c, _, _, err = c.Apply(event(t, realtime.UserTyping, realtime.TypingPayload{Username: "carol"}), now)
	require.NoError(t, err)
	c, changed := c.Prune(now.Add(3 * time.Second))
	assert.True(t, changed)
	assert.Empty(t, c.Typing())

	c, _, _, err = c.Apply(event(t, realtime.UserOnline, realtime.UserPayload{UserID: "bob"}), now)
	require.NoError(t, err)
	assert.True(t, c.Online("bob"))
}

func TestConversation_RoomDeleted(t *testing.T) {
	c := loadedConversation(ScrollSticky)

	_, eff, _, err := c.Apply(event(t, realtime.RoomDeleted, "other"), now)
	require.NoError(t, err)
	assert.True(t, eff.Empty())

	_, eff, _, err = c.Apply(event(t, realtime.RoomDeleted, map[string]string{"id": "r1"}), now)
	require.NoError(t, err)
	assert.Equal(t, client.RoomsPath, eff.Navigate)
	assert.Equal(t, reconcile.RoomDeletedNotice, eff.Notice)
}

func TestConversation_RoomUpdated(t *testing.T) {
	c := loadedConversation(ScrollSticky)
	name := "Renamed"

	c, _, _, err := c.Apply(event(t, realtime.RoomUpdated, apisdk.RoomPatch{ID: "r1", Name: &name}), now)
	require.NoError(t, err)
	room, ok := c.Room()
	require.True(t, ok)
	assert.Equal(t, "Renamed", room.Name)
}

func TestTypingEmitter(t *testing.T) {
	e := NewTypingEmitter(2 * time.Second)

	e, start := e.Keystroke(now)
	assert.True(t, start)
	e, start = e.Keystroke(now.Add(500 * time.Millisecond))
	assert.False(t, start, "start is sent once per burst")

	e, stop := e.Tick(now.Add(2 * time.Second))
	assert.False(t, stop, "quiet period counts from the last keystroke")
	e, stop = e.Tick(now.Add(2500 * time.Millisecond))
	assert.True(t, stop)
	assert.False(t, e.Active())

	e, _ = e.Keystroke(now.Add(3 * time.Second))
	e, stop = e.Sent()
	assert.True(t, stop)
	_, stop = e.Sent()
	assert.False(t, stop)
}

func TestAdminRedirect(t *testing.T) {
	assert.Equal(t, client.LoginPath, AdminRedirect(nil))
	assert.Equal(t, client.RoomsPath, AdminRedirect(&apisdk.User{Role: apisdk.RoleMember}))
	assert.Empty(t, AdminRedirect(&apisdk.User{Role: apisdk.RoleAdmin}))
}

func TestDashboard(t *testing.T) {
	d := NewDashboard()
	since := d.Seqs()

	d, _, err := d.Apply(event(t, realtime.AdminUserStatusChanged, realtime.AdminUserStatusPayload{UserID: "u2", IsOnline: true}))
	require.NoError(t, err)

	d = d.Loaded(DashboardData{
		Stats: &apisdk.AdminStats{TotalUsers: 3},
		Users: []apisdk.AdminUser{{ID: "u1", IsOnline: true}, {ID: "u2"}, {ID: "u3"}},
		Rooms: []apisdk.AdminRoom{{ID: "r1"}},
		Since: since,
	})

	total, online, offline := d.Counts()
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, online, "status change during the fetch is kept")
	assert.Equal(t, 1, offline)

	d = d.CycleFilter()
	assert.Equal(t, reconcile.FilterOnline, d.Filter())
	assert.Len(t, d.Users(), 2)
	d = d.CycleFilter()
	assert.Len(t, d.Users(), 1)

	d = d.Loaded(DashboardData{Stats: &apisdk.AdminStats{TotalUsers: 4}, Since: d.Seqs()})
	stats, ok := d.Stats()
	require.True(t, ok)
	assert.Equal(t, 4, stats.TotalUsers)
	assert.Len(t, d.Rooms(), 1, "a stats-only refresh keeps the lists")

	d = d.RoomRemoved("r1")
	assert.Empty(t, d.Rooms())
}

type fakeQueries struct {
	joined, public []apisdk.Room
	failPublic     bool
	membersErr     error
	statsCalls     atomic.Int32
	usersCalls     atomic.Int32
	roomsCalls     atomic.Int32
}

func (f *fakeQueries) JoinedRooms(context.Context) ([]apisdk.Room, error) { return f.joined, nil }

func (f *fakeQueries) PublicRooms(context.Context) ([]apisdk.Room, error) {
	if f.failPublic {
		return nil, &apisdk.Error{StatusCode: 500, Message: "boom"}
	}
	return f.public, nil
}

func (f *fakeQueries) Room(_ context.Context, id string) (*apisdk.Room, error) {
	return &apisdk.Room{ID: id}, nil
}

func (f *fakeQueries) Messages(_ context.Context, roomID, _ string) (*apisdk.MessagePage, error) {
	return &apisdk.MessagePage{Messages: []apisdk.Message{{ID: "m1", RoomID: roomID}}}, nil
}

func (f *fakeQueries) Members(context.Context, string) ([]apisdk.RoomMember, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return []apisdk.RoomMember{{ID: "mem1", UserID: "u1"}}, nil
}

func (f *fakeQueries) AdminStats(context.Context) (*apisdk.AdminStats, error) {
	f.statsCalls.Add(1)
	return &apisdk.AdminStats{TotalRooms: 1}, nil
}

func (f *fakeQueries) AdminUsers(context.Context) ([]apisdk.AdminUser, error) {
	f.usersCalls.Add(1)
	return nil, nil
}

func (f *fakeQueries) AdminRooms(context.Context) ([]apisdk.AdminRoom, error) {
	f.roomsCalls.Add(1)
	return []apisdk.AdminRoom{{ID: "r1"}}, nil
}

func TestLoadRoomLists(t *testing.T) {
	q := &fakeQueries{joined: []apisdk.Room{{ID: "a"}}, public: []apisdk.Room{{ID: "b"}}}
	data, err := LoadRoomLists(context.Background(), q, RoomListSeqs{Joined: 2})
	require.NoError(t, err)
	assert.Len(t, data.Joined, 1)
	assert.Len(t, data.Public, 1)
	assert.Equal(t, uint64(2), data.Since.Joined)

	q.failPublic = true
	_, err = LoadRoomLists(context.Background(), q, RoomListSeqs{})
	require.Error(t, err)
	assert.Equal(t, "boom", apisdk.ErrorMessage(err, ""))
}

func TestLoadConversation(t *testing.T) {
	q := &fakeQueries{}
	data, err := LoadConversation(context.Background(), q, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", data.Room.ID)
	assert.Len(t, data.Page.Messages, 1)
	assert.Len(t, data.Members, 1)

	q.membersErr = errors.New("forbidden")
	data, err = LoadConversation(context.Background(), q, "r1")
	require.NoError(t, err, "members are optional")
	assert.Empty(t, data.Members)
}

func TestLoadDashboard_SelectsByTag(t *testing.T) {
	q := &fakeQueries{}
	data, err := LoadDashboard(context.Background(), q, DashboardSeqs{}, client.TagAdminStats)
	require.NoError(t, err)
	assert.NotNil(t, data.Stats)
	assert.Nil(t, data.Users)
	assert.Nil(t, data.Rooms)
	assert.Equal(t, int32(0), q.usersCalls.Load())

	data, err = LoadDashboard(context.Background(), q, DashboardSeqs{})
	require.NoError(t, err)
	assert.NotNil(t, data.Users, "an empty user list is still a result")
	assert.Len(t, data.Rooms, 1)
	assert.Equal(t, int32(2), q.statsCalls.Load())
}
