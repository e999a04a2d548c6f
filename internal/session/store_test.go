package session_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestSetCurrentUserLatchesInitialized(t *testing.T) {
	store := session.NewStore(nil, nil)

	store.SetToken("tok")
	snap := store.Snapshot()
	assert.False(t, snap.Initialized)
	assert.False(t, snap.Authenticated())

	store.SetCurrentUser(apisdk.User{ID: "u1", Username: "ada"})
	snap = store.Snapshot()
	assert.True(t, snap.Initialized)
	assert.True(t, snap.Authenticated())
}

func TestClearResetsEverything(t *testing.T) {
	persist := session.NewMemoryTokenStore()
	store := session.NewStore(persist, nil)

	store.SetToken("tok")
	store.SetCurrentUser(apisdk.User{ID: "u1"})
	store.SetOnline(true)

	store.Clear()

	snap := store.Snapshot()
	assert.Equal(t, session.Snapshot{}, snap)

	persisted, err := persist.Load()
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestSnapshotIsACopy(t *testing.T) {
	store := session.NewStore(nil, nil)
	store.SetCurrentUser(apisdk.User{ID: "u1", AvatarURL: "/a.png"})

	snap := store.Snapshot()
	snap.User.AvatarURL = "/changed.png"

	u, ok := store.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "/a.png", u.AvatarURL)
}

func TestUpdateCurrentUser(t *testing.T) {
	store := session.NewStore(nil, nil)

	store.UpdateCurrentUser(func(u apisdk.User) apisdk.User {
		u.AvatarURL = "/x.png"
		return u
	})
	_, ok := store.CurrentUser()
	assert.False(t, ok)

	store.SetCurrentUser(apisdk.User{ID: "u1"})
	store.UpdateCurrentUser(func(u apisdk.User) apisdk.User {
		u.AvatarURL = "/x.png"
		return u
	})
	u, _ := store.CurrentUser()
	assert.Equal(t, "/x.png", u.AvatarURL)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := session.NewStore(nil, nil)

	var seen []session.Snapshot
	unsubscribe := store.Subscribe(func(s session.Snapshot) { seen = append(seen, s) })

	store.SetToken("tok")
	store.SetOnline(true)
	store.SetOnline(true)

	require.Len(t, seen, 2)
	assert.Equal(t, "tok", seen[0].Token)
	assert.True(t, seen[1].Online)

	unsubscribe()
	unsubscribe()
	store.SetOnline(false)
	assert.Len(t, seen, 2)
}

func TestRedirectIsTakenOnce(t *testing.T) {
	store := session.NewStore(nil, nil)

	store.SetRedirectAfterLogin("/chat/r1")
	assert.Equal(t, "/chat/r1", store.TakeRedirectAfterLogin())
	assert.Empty(t, store.TakeRedirectAfterLogin())
}

func TestRestore(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nothing stored", func(t *testing.T) {
		store := session.NewStore(nil, nil)
		assert.False(t, store.Restore(now))
		assert.True(t, store.Snapshot().Initialized)
	})

	t.Run("valid token", func(t *testing.T) {
		persist := session.NewMemoryTokenStore()
		tok := signedToken(t, now.Add(time.Hour))
		require.NoError(t, persist.Save(tok))

		store := session.NewStore(persist, nil)
		assert.True(t, store.Restore(now))
		assert.Equal(t, tok, store.Token())
		assert.False(t, store.Snapshot().Initialized)
	})

	t.Run("expired token", func(t *testing.T) {
		persist := session.NewMemoryTokenStore()
		require.NoError(t, persist.Save(signedToken(t, now.Add(-time.Minute))))

		store := session.NewStore(persist, nil)
		assert.False(t, store.Restore(now))
		assert.Empty(t, store.Token())

		persisted, _ := persist.Load()
		assert.Empty(t, persisted)
	})

	t.Run("opaque token", func(t *testing.T) {
		persist := session.NewMemoryTokenStore()
		require.NoError(t, persist.Save("not-a-jwt"))

		store := session.NewStore(persist, nil)
		assert.True(t, store.Restore(now))
	})
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	fs := session.NewFileTokenStore(path)

	tok, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, fs.Save("abc"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
