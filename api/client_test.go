package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-console/domain"
	"chat-console/errors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newStubServer(t *testing.T) (*chi.Mux, *Client) {
	t.Helper()
	router := chi.NewRouter()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return router, NewClient(server.URL, slog.Default())
}

func TestClient_History_DirectVsGroup(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	var gotUser, gotGroup string
	router.Get("/history", func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.URL.Query().Get("user")
		gotGroup = r.URL.Query().Get("group_id")
		_ = json.NewEncoder(w).Encode([]domain.Message{
			{ID: 1, Sender: "bob", Recipients: "alice", Content: "hi", Status: "sent"},
		})
	})

	messages, err := client.History(context.Background(), "bob")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("bob", gotUser)
	req.Empty(gotGroup)

	_, err = client.History(context.Background(), domain.GroupConversation(9))
	req.NoError(err)
	req.Equal("9", gotGroup)
}

func TestClient_UsersStatus(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	router.Get("/users_status", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.RosterEntry{
			{Username: "bob", Online: true},
			{Username: "carol", Online: false},
		})
	})

	entries, err := client.UsersStatus(context.Background())
	req.NoError(err)
	req.Len(entries, 2)
	req.True(entries[0].Online)
}

func TestClient_CreateGroup(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	var received map[string]any
	router.Post("/groups", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "group_id": 31})
	})

	cmd := domain.CreateGroupCommand{Name: "team", Members: []string{"bob"}}
	cmd.Normalize("alice")
	id, err := client.CreateGroup(context.Background(), cmd)
	req.NoError(err)
	req.Equal(int64(31), id)
	req.Equal("team", received["name"])
	req.ElementsMatch([]any{"bob", "alice"}, received["members"])
}

func TestClient_GroupAction_ErrorSurfaces(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	router.Post("/groups/{id}/delete", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "not an admin"})
	})
	// A reply without any success flag is still a failure.
	router.Post("/groups/{id}/mute", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	err := client.DeleteGroup(context.Background(), 5)
	req.ErrorIs(err, errors.ErrServerRejected)
	req.Contains(err.Error(), "not an admin")

	err = client.MuteGroup(context.Background(), 5)
	req.ErrorIs(err, errors.ErrServerRejected)
	req.Contains(err.Error(), "unknown error")
}

func TestClient_Upload(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	var gotName, gotType string
	router.Post("/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		req.NoError(err)
		defer file.Close()
		gotName = header.Filename
		gotType = header.Header.Get("Content-Type")
		data, _ := io.ReadAll(file)
		req.NotEmpty(data)
		_ = json.NewEncoder(w).Encode(UploadResult{
			FileID: 123, Filename: "a_1.webm", OriginalName: header.Filename, Mimetype: gotType,
		})
	})

	result, err := client.Upload(context.Background(), &domain.PendingFile{
		Name:     "audio_message.webm",
		Mimetype: "audio/webm",
		Data:     []byte("RIFFxxxx"),
	})
	req.NoError(err)
	req.Equal(int64(123), result.FileID)
	req.Equal("audio_message.webm", gotName)
	req.Equal("audio/webm", gotType)
}

func TestClient_Upload_SniffsMissingMimetype(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	var gotType string
	router.Post("/upload", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		req.NoError(err)
		gotType = header.Header.Get("Content-Type")
		_ = json.NewEncoder(w).Encode(UploadResult{FileID: 1})
	})

	// PNG magic bytes, no declared mimetype.
	png := append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 16)...)
	_, err := client.Upload(context.Background(), &domain.PendingFile{Name: "x.png", Data: png})
	req.NoError(err)
	req.Equal("image/png", gotType)
}

func TestClient_Upload_FailureModes(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	router.Post("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid file"})
	})

	_, err := client.Upload(context.Background(), &domain.PendingFile{Name: "x", Data: []byte("y")})
	req.ErrorIs(err, errors.ErrUploadFailed)
	req.Contains(err.Error(), "Invalid file")
}

func TestClient_Upload_MissingFileID(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	router.Post("/upload", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	_, err := client.Upload(context.Background(), &domain.PendingFile{Name: "x", Data: []byte("y")})
	req.ErrorIs(err, errors.ErrUploadFailed)
}

func TestClient_DeleteMessage(t *testing.T) {
	req := require.New(t)
	router, client := newStubServer(t)

	router.Post("/delete_message/{id}", func(w http.ResponseWriter, r *http.Request) {
		req.Equal("17", chi.URLParam(r, "id"))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	req.NoError(client.DeleteMessage(context.Background(), 17))
}
