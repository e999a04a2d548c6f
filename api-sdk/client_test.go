package apisdk_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	apisdk "github.com/hilthontt/parley/api-sdk"
	"github.com/hilthontt/parley/api-sdk/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, r chi.Router, opts ...option.RequestOption) *apisdk.Client {
	t.Helper()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	opts = append([]option.RequestOption{option.WithBaseURL(srv.URL + "/api")}, opts...)
	return apisdk.NewClient(opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestJoinedRoomsUnwrapsEnvelope(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/rooms/joined", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
		assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"data": map[string]any{"rooms": []map[string]any{
				{"id": "r1", "name": "general", "isMember": true, "_count": map[string]int{"memberships": 3, "messages": 10}},
			}},
		})
	})

	client := newTestClient(t, r, option.WithTokenSource(func() string { return "tok-1" }))

	rooms, err := client.Rooms.Joined(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "general", rooms[0].Name)
	assert.Equal(t, 3, rooms[0].Count.Memberships)
}

func TestErrorCarriesServerMessage(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/rooms", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"status": "error", "message": "Room name already taken"})
	})

	client := newTestClient(t, r)

	_, err := client.Rooms.New(context.Background(), apisdk.RoomNewParams{Name: "general"})
	require.Error(t, err)

	var apiErr *apisdk.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Room name already taken", apisdk.ErrorMessage(err, "fallback"))
	assert.False(t, apisdk.IsUnauthorized(err))
}

func TestSendMessageBody(t *testing.T) {
	var body map[string]any
	r := chi.NewRouter()
	r.Post("/api/messages", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{"status": "success", "data": map[string]any{"message": map[string]any{"id": "m1"}}})
	})

	client := newTestClient(t, r)

	msg, err := client.Messages.Send(context.Background(), apisdk.MessageNewParams{RoomID: "r1", Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)

	assert.Equal(t, map[string]any{"roomId": "r1", "content": "hello", "attachment": nil}, body)
}

func TestListMessagesQuery(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/messages/{roomID}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "r1", chi.URLParam(req, "roomID"))
		assert.Equal(t, "c-9", req.URL.Query().Get("cursor"))
		assert.Equal(t, "15", req.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{
			"messages":   []map[string]any{{"id": "m1"}, {"id": "m2"}},
			"nextCursor": "c-8",
			"hasMore":    true,
		}})
	})

	client := newTestClient(t, r)

	page, err := client.Messages.List(context.Background(), "r1", apisdk.MessageListParams{Cursor: "c-9", Limit: 15})
	require.NoError(t, err)
	assert.Len(t, page.Messages, 2)
	assert.Equal(t, "c-8", page.NextCursor)
	assert.True(t, page.HasMore)
}

func TestUploadIsMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello there"), 0o600))

	r := chi.NewRouter()
	r.Post("/api/messages/upload", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, req.ParseMultipartForm(1<<20))
		assert.Equal(t, "r1", req.FormValue("roomId"))

		f, hdr, err := req.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "hello there", string(data))
		assert.Equal(t, "notes.txt", hdr.Filename)

		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": map[string]any{
			"attachment": map[string]any{"type": "FILE", "url": "/uploads/notes.txt", "fileName": "notes.txt", "fileSize": 11},
		}})
	})

	client := newTestClient(t, r)

	att, err := client.Messages.Upload(context.Background(), "r1", path)
	require.NoError(t, err)
	assert.Equal(t, apisdk.AttachmentFile, att.Type)
	assert.Equal(t, int64(11), att.FileSize)
}

func TestMissingIDs(t *testing.T) {
	client := apisdk.NewClient()

	_, err := client.Rooms.Get(context.Background(), "")
	assert.ErrorIs(t, err, apisdk.ErrMissingIDParameter)

	err = client.Rooms.Members.Remove(context.Background(), "r1", "")
	assert.ErrorIs(t, err, apisdk.ErrMissingMemberIDParameter)

	_, err = client.Messages.List(context.Background(), "", apisdk.MessageListParams{})
	assert.ErrorIs(t, err, apisdk.ErrMissingRoomIDParameter)
}

func TestUpdateProfileOmitsEmptyStatus(t *testing.T) {
	raw, err := apisdk.UpdateProfileParams{DisplayName: "  Ada "}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayName":"Ada"}`, string(raw))

	raw, err = apisdk.UpdateProfileParams{DisplayName: "Ada", StatusMessage: "busy"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"displayName":"Ada","statusMessage":"busy"}`, string(raw))
}

func TestRealtimeURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:5001/api":     "ws://localhost:5001/ws",
		"https://chat.example.com/api/": "wss://chat.example.com/ws",
		"http://host:8080":              "ws://host:8080/ws",
	}

	for base, want := range cases {
		u, err := apisdk.RealtimeURL(base, "/ws")
		require.NoError(t, err)
		assert.Equal(t, want, u.String(), base)
	}
}
