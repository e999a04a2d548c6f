package realtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/realtime"
	"github.com/hilthontt/parley/internal/realtime/realtimetest"
	"github.com/hilthontt/parley/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnector struct {
	*realtime.Bus

	mu      sync.Mutex
	calls   []string
	running bool
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{Bus: realtime.NewBus()}
}

func (f *fakeConnector) Connect(token string) {
	f.mu.Lock()
	f.calls = append(f.calls, "connect:"+token)
	f.running = true
	f.mu.Unlock()
	f.SetStatus(realtime.StatusConnected)
}

func (f *fakeConnector) Disconnect() {
	f.mu.Lock()
	f.calls = append(f.calls, "disconnect")
	f.running = false
	f.mu.Unlock()
	f.SetStatus(realtime.StatusDisconnected)
}

func (f *fakeConnector) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeConnector) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeConnector) drop() {
	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
	f.SetStatus(realtime.StatusDisconnected)
}

func TestLifecycleOpensOnlyWithTokenAndUser(t *testing.T) {
	store := session.NewStore(nil, nil)
	conn := newFakeConnector()
	lc := realtime.NewLifecycle(store, conn, nil)
	lc.Start()
	defer lc.Stop()

	store.SetToken("tok")
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, conn.Calls())

	store.SetCurrentUser(apisdk.User{ID: "u1"})
	require.Eventually(t, func() bool { return len(conn.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"connect:tok"}, conn.Calls())
	require.Eventually(t, func() bool { return store.Snapshot().Online }, time.Second, 5*time.Millisecond)

	store.SetOnline(true)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, conn.Calls(), 1)

	store.Clear()
	require.Eventually(t, func() bool { return len(conn.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "disconnect", conn.Calls()[1])
	assert.False(t, store.Snapshot().Online)
}

func TestLifecycleStartsConnectedWhenRestored(t *testing.T) {
	store := session.NewStore(nil, nil)
	store.SetToken("tok")
	store.SetCurrentUser(apisdk.User{ID: "u1"})

	conn := newFakeConnector()
	lc := realtime.NewLifecycle(store, conn, nil)
	lc.Start()
	defer lc.Stop()

	assert.Equal(t, []string{"connect:tok"}, conn.Calls())
}

func TestLifecycleResyncAfterGivingUp(t *testing.T) {
	store := session.NewStore(nil, nil)
	store.SetToken("tok")
	store.SetCurrentUser(apisdk.User{ID: "u1"})

	conn := newFakeConnector()
	lc := realtime.NewLifecycle(store, conn, nil)
	lc.Start()
	defer lc.Stop()

	lc.Resync()
	assert.Len(t, conn.Calls(), 1)

	conn.drop()
	lc.Resync()
	assert.Equal(t, []string{"connect:tok", "connect:tok"}, conn.Calls())
}

func TestRoomSubscriptionsRefCount(t *testing.T) {
	src := realtimetest.NewSource()
	subs := realtime.NewRoomSubscriptions(src, nil)
	defer subs.Close()

	releaseA := subs.Acquire("r1")
	releaseB := subs.Acquire("r1")
	assert.Equal(t, 2, subs.Count("r1"))

	releaseA()
	releaseA()
	assert.Equal(t, 1, subs.Count("r1"))

	releaseB()
	assert.Equal(t, 0, subs.Count("r1"))

	assert.Equal(t, []realtimetest.Emitted{
		{Event: realtime.RoomJoin, Payload: "r1"},
		{Event: realtime.RoomLeave, Payload: "r1"},
	}, src.Emitted())
}

func TestRoomSubscriptionsRejoinOnReconnect(t *testing.T) {
	src := realtimetest.NewSource()
	subs := realtime.NewRoomSubscriptions(src, nil)
	defer subs.Close()

	release := subs.Acquire("r1")
	defer release()
	src.Reset()

	src.SetStatus(realtime.StatusDisconnected)
	src.SetStatus(realtime.StatusConnected)

	require.Eventually(t, func() bool { return len(src.Emitted()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, realtime.RoomJoin, src.Emitted()[0].Event)
}

func TestListenerForwardsAndCloses(t *testing.T) {
	src := realtimetest.NewSource()
	l := realtime.Listen(src, nil, realtime.MessageNew, realtime.MessageDeleted)

	assert.True(t, l.Handles(realtime.MessageNew))
	assert.False(t, l.Handles(realtime.RoomCreated))
	assert.Equal(t, 1, src.Subscribers(realtime.MessageNew))

	src.Push(realtime.MessageDeleted, "m1")
	src.Push(realtime.RoomCreated, map[string]any{"id": "r1"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	m, ok := l.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, realtime.MessageDeleted, m.Event)
	id, err := realtime.DecodeID(m)
	require.NoError(t, err)
	assert.Equal(t, "m1", id)

	src.SetStatus(realtime.StatusDisconnected)
	m, ok = l.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, realtime.StatusChanged, m.Event)
	assert.Equal(t, realtime.StatusDisconnected, m.Status)

	l.Close()
	l.Close()
	assert.Equal(t, 0, src.Subscribers(realtime.MessageNew))

	_, ok = l.Next(ctx)
	assert.False(t, ok)
}

func TestDecodeID(t *testing.T) {
	cases := map[string]string{
		`"r1"`:               "r1",
		`{"id":"r2"}`:        "r2",
		`{"roomId":"r3"}`:    "r3",
		`{"messageId":"m4"}`: "m4",
	}
	for raw, want := range cases {
		id, err := realtime.DecodeID(realtime.Message{Event: realtime.RoomDeleted, Data: []byte(raw)})
		require.NoError(t, err, raw)
		assert.Equal(t, want, id)
	}

	_, err := realtime.DecodeID(realtime.Message{Event: realtime.RoomDeleted, Data: []byte(`{}`)})
	assert.ErrorIs(t, err, realtime.ErrEmptyID)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := realtime.NewBus()

	var n int
	unsubscribe := bus.Subscribe(realtime.UserOnline, func(realtime.Message) { n++ })
	assert.Equal(t, 1, bus.Dispatch(realtime.Message{Event: realtime.UserOnline}))

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, bus.Dispatch(realtime.Message{Event: realtime.UserOnline}))
	assert.Equal(t, 1, n)

	assert.False(t, bus.SetStatus(realtime.StatusDisconnected))
	assert.True(t, bus.SetStatus(realtime.StatusConnected))
}
