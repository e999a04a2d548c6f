package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/api-sdk/option"
	"github.com/hilthontt/parley/internal/client"
	"github.com/hilthontt/parley/internal/querycache"
	"github.com/hilthontt/parley/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNavigator struct {
	mu      sync.Mutex
	path    string
	visited []string
}

func (n *fakeNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *fakeNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
	n.visited = append(n.visited, path)
}

func (n *fakeNavigator) Visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.visited...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(data map[string]any) map[string]any {
	return map[string]any{"status": "success", "data": data}
}

type harness struct {
	client  *client.Client
	session *session.Store
	cache   *querycache.Cache
	nav     *fakeNavigator
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

	nav := &fakeNavigator{}
	c.SetNavigator(nav)

	return &harness{client: c, session: store, cache: cache, nav: nav}
}

func TestUnauthorizedSignsOutOnce(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/rooms/joined", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "error", "message": "Token expired"})
	})

	h := newHarness(t, r)
	h.session.SetToken("stale")
	h.session.SetCurrentUser(apisdk.User{ID: "u1"})
	h.nav.Navigate("/chat/rooms/r1")

	_, err := h.client.JoinedRooms(context.Background())
	require.Error(t, err)
	assert.True(t, apisdk.IsUnauthorized(err))

	snap := h.session.Snapshot()
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	assert.True(t, snap.Initialized)

	assert.Equal(t, []string{"/chat/rooms/r1", "/auth/login"}, h.nav.Visited())
	assert.Equal(t, "/chat/rooms/r1", h.session.TakeRedirectAfterLogin())
}

func TestUnauthorizedOnAuthPageDoesNotRedirect(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "error", "message": "Invalid credentials"})
	})

	h := newHarness(t, r)
	h.nav.Navigate("/auth/login")

	_, err := h.client.Login(context.Background(), apisdk.LoginParams{EmailOrUsername: "ada", Password: "wrong-pass"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", apisdk.ErrorMessage(err, ""))

	assert.Equal(t, []string{"/auth/login"}, h.nav.Visited())
	assert.Empty(t, h.session.TakeRedirectAfterLogin())
}

func TestLoginStoresTokenThenProfile(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]any{"accessToken": "tok-1"}))
	})
	r.Get("/api/users/me", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, ok(map[string]any{"user": map[string]any{"id": "u1", "username": "ada", "role": "ADMIN"}}))
	})

	h := newHarness(t, r)

	me, err := h.client.Login(context.Background(), apisdk.LoginParams{EmailOrUsername: "ada", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)

	snap := h.session.Snapshot()
	assert.Equal(t, "tok-1", snap.Token)
	require.NotNil(t, snap.User)
	assert.True(t, snap.User.IsAdmin())
	assert.True(t, snap.Initialized)
}

func TestLoginValidation(t *testing.T) {
	h := newHarness(t, chi.NewRouter())

	_, err := h.client.Login(context.Background(), apisdk.LoginParams{})
	require.Error(t, err)
	assert.True(t, client.IsValidationError(err))
}

func TestChangePasswordValidation(t *testing.T) {
	h := newHarness(t, chi.NewRouter())

	err := h.client.ChangePassword(context.Background(), apisdk.ChangePasswordParams{
		CurrentPassword: "old-secret",
		NewPassword:     "new-secret",
		ConfirmPassword: "other",
	})
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match", err.Error())

	err = h.client.ChangePassword(context.Background(), apisdk.ChangePasswordParams{
		CurrentPassword: "old-secret",
		NewPassword:     "abc",
		ConfirmPassword: "abc",
	})
	require.Error(t, err)
	assert.Equal(t, "New password must be at least 6 characters", err.Error())
}

func TestLogoutClearsEvenOnFailure(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error", "message": "boom"})
	})

	h := newHarness(t, r)
	h.session.SetToken("tok")
	h.session.SetCurrentUser(apisdk.User{ID: "u1"})
	h.cache.Set("rooms:joined", []apisdk.Room{{ID: "r1"}}, client.TagRoomLists)

	err := h.client.Logout(context.Background())
	require.Error(t, err)

	assert.False(t, h.session.IsAuthenticated())
	assert.Equal(t, 0, h.cache.Count())
}

func TestSendMessageSinglePost(t *testing.T) {
	var posts atomic.Int32
	var body map[string]any

	r := chi.NewRouter()
	r.Post("/api/messages", func(w http.ResponseWriter, req *http.Request) {
		posts.Add(1)
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, ok(map[string]any{"message": map[string]any{"id": "m1", "roomId": "r1", "content": "hello"}}))
	})

	h := newHarness(t, r)
	h.cache.Set("room:r1", &apisdk.Room{ID: "r1"}, client.TagRoom("r1"))

	msg, err := h.client.SendMessage(context.Background(), "r1", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)

	assert.Equal(t, int32(1), posts.Load())
	assert.Equal(t, map[string]any{"roomId": "r1", "content": "hello", "attachment": nil}, body)
	assert.Equal(t, 1, h.cache.Count())
}

func TestSendWithFileUploadsFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("quarterly numbers"), 0o600))

	var order []string
	var sent map[string]any

	r := chi.NewRouter()
	r.Post("/api/messages/upload", func(w http.ResponseWriter, req *http.Request) {
		order = append(order, "upload")
		writeJSON(w, http.StatusOK, ok(map[string]any{"attachment": map[string]any{
			"type": "FILE", "url": "/uploads/report.txt", "fileName": "report.txt", "fileSize": 17,
		}}))
	})
	r.Post("/api/messages", func(w http.ResponseWriter, req *http.Request) {
		order = append(order, "send")
		require.NoError(t, json.NewDecoder(req.Body).Decode(&sent))
		writeJSON(w, http.StatusCreated, ok(map[string]any{"message": map[string]any{"id": "m2"}}))
	})

	h := newHarness(t, r)

	_, err := h.client.SendWithFile(context.Background(), "r1", "  ", path)
	require.NoError(t, err)

	assert.Equal(t, []string{"upload", "send"}, order)
	assert.Equal(t, "Sent report.txt", sent["content"])
	att, _ := sent["attachment"].(map[string]any)
	assert.Equal(t, "/uploads/report.txt", att["url"])
}

func TestSendWithFileUploadFailureSendsNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	var sends atomic.Int32
	r := chi.NewRouter()
	r.Post("/api/messages/upload", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"status": "error", "message": "File too large"})
	})
	r.Post("/api/messages", func(w http.ResponseWriter, req *http.Request) {
		sends.Add(1)
	})

	h := newHarness(t, r)

	_, err := h.client.SendWithFile(context.Background(), "r1", "", path)
	require.Error(t, err)
	assert.Equal(t, "File too large", apisdk.ErrorMessage(err, ""))
	assert.Zero(t, sends.Load())
}

func TestUploadAvatarRejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	h := newHarness(t, chi.NewRouter())

	_, err := h.client.UploadAvatar(context.Background(), path)
	assert.ErrorIs(t, err, client.ErrNotAnImage)
}

func TestMutationInvalidatesRoomLists(t *testing.T) {
	var joinedCalls atomic.Int32
	r := chi.NewRouter()
	r.Get("/api/rooms/joined", func(w http.ResponseWriter, req *http.Request) {
		joinedCalls.Add(1)
		writeJSON(w, http.StatusOK, ok(map[string]any{"rooms": []map[string]any{{"id": "r1"}}}))
	})
	r.Post("/api/rooms/{id}/leave", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]any{}))
	})

	h := newHarness(t, r)
	ctx := context.Background()

	_, err := h.client.JoinedRooms(ctx)
	require.NoError(t, err)
	_, err = h.client.JoinedRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), joinedCalls.Load())

	require.NoError(t, h.client.LeaveRoom(ctx, "r1"))

	_, err = h.client.JoinedRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), joinedCalls.Load())
}

func TestSetAvatarOnlyForSelf(t *testing.T) {
	h := newHarness(t, chi.NewRouter())
	h.session.SetCurrentUser(apisdk.User{ID: "u1"})

	assert.False(t, h.client.SetAvatar("u2", "/b.png"))
	assert.True(t, h.client.SetAvatar("u1", "/a.png"))

	me, _ := h.session.CurrentUser()
	assert.Equal(t, "/a.png", me.AvatarURL)
}
