package tui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-chi/chi/v5"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/api-sdk/option"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/infrastructure/configs"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/realtime"
	"github.com/hilthontt/parley/internal/realtime/realtimetest"
	"github.com/hilthontt/parley/internal/session"
)

type harness struct {
	m       model
	source  *realtimetest.Source
	session *session.Store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(data map[string]any) map[string]any {
	return map[string]any{"status": "success", "data": data}
}

func newHarness(t *testing.T, r chi.Router) *harness {
	t.Helper()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	opts := querycache.DefaultOptions()
	opts.CleanupInterval = 0
	cache := querycache.New(opts)
	t.Cleanup(cache.Close)

	store := session.NewStore(session.NewMemoryTokenStore(), nil)
	c := client.New(store, cache, nil, client.DefaultLimits(), option.WithBaseURL(srv.URL+"/api"))

	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(termenv.Ascii)

	source := realtimetest.NewSource()
	m := newModel(context.Background(), renderer, Deps{
		Client: c,
		Source: source,
		Chat: configs.ChatConfig{
			PageSize:     50,
			TypingExpiry: 3 * time.Second,
			TypingIdle:   2 * time.Second,
			AutoScroll:   "sticky",
		},
	})

	h := &harness{m: m, source: source, session: store}
	h.update(t, tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) signIn(user apisdk.User) {
	h.session.SetToken("tok")
	h.session.SetCurrentUser(user)
}

func (h *harness) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.m.Update(msg)
	m, isModel := next.(model)
	require.True(t, isModel)
	h.m = m
	return cmd
}

func (h *harness) navigate(path string) tea.Cmd {
	var cmd tea.Cmd
	h.m, cmd = h.m.Navigate(path)
	return cmd
}

// run executes cmd and any batch it expands to. Only use it with commands
// that return without waiting on a timer or a listener.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, isBatch := msg.(tea.BatchMsg); isBatch {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

var member = apisdk.User{ID: "u1", Username: "ada", Role: apisdk.RoleMember}

func TestNavigateRequiresSession(t *testing.T) {
	h := newHarness(t, chi.NewRouter())

	h.navigate(roomPath("r1"))

	assert.Equal(t, loginPage, h.m.page)
	assert.Equal(t, client.LoginPath, h.m.path)
	assert.Equal(t, roomPath("r1"), h.session.TakeRedirectAfterLogin())
}

func TestNavigateMenuDoesNotBecomeRedirect(t *testing.T) {
	h := newHarness(t, chi.NewRouter())

	h.navigate(MenuPath)

	assert.Equal(t, loginPage, h.m.page)
	assert.Empty(t, h.session.TakeRedirectAfterLogin())
}

func TestNavigateAuthPagesWhenSignedIn(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)

	for _, path := range []string{client.LoginPath, client.RegisterPath} {
		h.navigate(path)
		assert.Equal(t, roomsPage, h.m.page, path)
	}
}

func TestNavigateAdminGuard(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)

	h.navigate(AdminPath)
	assert.Equal(t, roomsPage, h.m.page)

	admin := member
	admin.Role = apisdk.RoleAdmin
	h.session.SetCurrentUser(admin)

	h.navigate(AdminPath)
	assert.Equal(t, adminPage, h.m.page)
}

func TestNavigateUnknownPathShowsRooms(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)

	h.navigate("/nowhere/at/all")

	assert.Equal(t, roomsPage, h.m.page)
	assert.Equal(t, client.RoomsPath, h.m.deps.Navigator.CurrentPath())
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		path string
		want route
		ok   bool
	}{
		{path: client.LoginPath, want: route{page: loginPage}, ok: true},
		{path: client.RoomsPath + "/", want: route{page: roomsPage}, ok: true},
		{path: client.RoomsPath + "/abc", want: route{page: chatPage, roomID: "abc"}, ok: true},
		{path: client.RoomsPath + "/abc/extra", ok: false},
		{path: ProfileEditPath, want: route{page: profileEditPage}, ok: true},
		{path: "/", ok: false},
	}

	for _, tt := range tests {
		got, ok := parseRoute(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.path)
		}
	}
}

func TestSwitchPageIgnoresStaleResults(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)

	h.navigate(roomPath("r1"))
	chatGen := h.m.gen

	h.navigate(client.RoomsPath)
	require.Greater(t, h.m.gen, chatGen)

	h.update(t, conversationLoadedMsg{gen: chatGen, err: errors.New("boom")})
	assert.Equal(t, roomsPage, h.m.page)
	assert.Nil(t, h.m.error)

	h.update(t, realtimeMsg{gen: chatGen, message: realtime.Message{
		Event: realtime.RoomDeleted,
		Data:  json.RawMessage(`{"roomId":"r1"}`),
	}})
	assert.False(t, h.m.state.notify.open)
}

func TestSwitchPageClosesListener(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)

	h.navigate(roomPath("r1"))
	require.Positive(t, h.source.Subscribers(realtime.MessageNew))

	h.navigate(ProfilePath)
	assert.Zero(t, h.source.Subscribers(realtime.MessageNew))
}

func TestNavigatorSendsWithoutBlocking(t *testing.T) {
	n := NewNavigator()
	n.Navigate("/ignored")

	got := make(chan tea.Msg, 1)
	n.bind(func(msg tea.Msg) { got <- msg })
	n.Navigate(client.RoomsPath)

	select {
	case msg := <-got:
		assert.Equal(t, navigateMsg{path: client.RoomsPath}, msg)
	case <-time.After(time.Second):
		t.Fatal("navigation was not delivered")
	}
}

func TestNavigateMsgMovesPage(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)

	h.update(t, navigateMsg{path: SettingsPath})

	assert.Equal(t, settingsPage, h.m.page)
	assert.Equal(t, SettingsPath, h.m.deps.Navigator.CurrentPath())
}

func TestUndersizedTerminal(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.update(t, tea.WindowSizeMsg{Width: 15, Height: 5})

	assert.Equal(t, undersized, h.m.size)
	assert.Contains(t, h.m.View(), "terminal too small")
}

func TestSplashWaitsForDelayAndBootstrap(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)

	h.update(t, bootstrapDoneMsg{})
	assert.Equal(t, splashPage, h.m.page)

	h.update(t, DelayCompleteMsg{})
	assert.Equal(t, roomsPage, h.m.page)
	assert.Nil(t, h.m.error)
}

func TestSplashSignedOutGoesToLogin(t *testing.T) {
	h := newHarness(t, chi.NewRouter())

	h.update(t, DelayCompleteMsg{})
	h.update(t, bootstrapDoneMsg{})

	assert.Equal(t, loginPage, h.m.page)
	assert.Equal(t, client.RoomsPath, h.session.TakeRedirectAfterLogin())
}

func TestMenuReturnsToLastPage(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)
	h.navigate(ProfilePath)

	h.update(t, tea.KeyMsg{Type: tea.KeyCtrlG})
	require.Equal(t, menuPage, h.m.page)
	assert.NotContains(t, h.m.View(), "admin dashboard")

	h.update(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, profilePage, h.m.page)
}

func TestMenuSignOut(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]any{}))
	})

	h := newHarness(t, r)
	h.signIn(member)
	h.navigate(MenuPath)

	h.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	require.True(t, h.m.state.notify.open)

	cmd := h.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	for _, msg := range run(cmd) {
		h.update(t, msg)
	}

	assert.False(t, h.session.IsAuthenticated())
	assert.Equal(t, loginPage, h.m.page)
}

func TestViewKeepsFirstLineOfPage(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	openChat(t, h, 40)

	view := h.m.View()
	assert.Contains(t, view, "#general")
	assert.Contains(t, view, "2 members")
}

func TestHeaderAndFooterAgreeOnConnection(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.signIn(member)
	h.navigate(ProfilePath)

	view := h.m.View()
	assert.Contains(t, view, "● online")
	assert.Contains(t, view, "connected • live updates on")

	h.source.SetStatus(realtime.StatusDisconnected)

	view = h.m.View()
	assert.Contains(t, view, "● offline")
	assert.Contains(t, view, "offline • showing cached data")
	assert.NotContains(t, view, "● online")
}
