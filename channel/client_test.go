package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"chat-console/domain/event"
	gerrors "chat-console/errors"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// stubServer accepts websocket connections, records every envelope the
// client sends and lets tests push frames or kill the connection.
type stubServer struct {
	t  *testing.T
	mu sync.Mutex

	server   *httptest.Server
	conns    []*websocket.Conn
	received []event.Envelope
}

func newStubServer(t *testing.T) *stubServer {
	s := &stubServer{t: t}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env event.Envelope
			if err := json.Unmarshal(raw, &env); err == nil {
				s.mu.Lock()
				s.received = append(s.received, env)
				s.mu.Unlock()
			}
		}
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *stubServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func (s *stubServer) push(t *testing.T, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.conns)
	conn := s.conns[len(s.conns)-1]
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func (s *stubServer) dropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

func (s *stubServer) events() []event.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event.Envelope, len(s.received))
	copy(out, s.received)
	return out
}

func (s *stubServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// recordingSink collects every event fanned out by the client.
type recordingSink struct {
	mu     sync.Mutex
	names  []string
	loaded []any
}

func (r *recordingSink) Consume(_ context.Context, name string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.loaded = append(r.loaded, payload)
	return nil
}

func (r *recordingSink) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestClient_JoinsOwnRoomOnConnect(t *testing.T) {
	req := require.New(t)
	server := newStubServer(t)

	client := NewClient(server.wsURL(), "alice", slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	waitFor(t, func() bool { return len(server.events()) >= 1 })

	first := server.events()[0]
	req.Equal("join", first.Event)
	var join event.Join
	req.NoError(json.Unmarshal(first.Data, &join))
	req.Equal("alice", join.Room)
}

func TestClient_FansEventsIntoSinks(t *testing.T) {
	req := require.New(t)
	server := newStubServer(t)
	sink := &recordingSink{}

	client := NewClient(server.wsURL(), "alice", slog.Default()).AddSinks(sink)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	waitFor(t, func() bool { return server.connCount() > 0 && len(server.events()) > 0 })

	server.push(t, `{"event":"message_read","data":{"msg_id":4}}`)
	server.push(t, `{"event":"no_such_event","data":{}}`) // dropped, channel survives
	server.push(t, `{"event":"group_deleted","data":{"group_id":2}}`)

	waitFor(t, func() bool { return len(sink.snapshot()) == 2 })
	req.Equal([]string{"message_read", "group_deleted"}, sink.snapshot())
}

func TestClient_ReconnectsAndResyncs(t *testing.T) {
	req := require.New(t)
	server := newStubServer(t)

	var resyncs int32
	var mu sync.Mutex
	client := NewClient(server.wsURL(), "alice", slog.Default(),
		WithResync(func(ctx context.Context) error {
			mu.Lock()
			resyncs++
			mu.Unlock()
			return nil
		}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	waitFor(t, func() bool { return server.connCount() == 1 })
	server.dropConnections()
	waitFor(t, func() bool { return server.connCount() == 1 })

	// Both connects joined and resynced.
	waitFor(t, func() bool {
		joins := 0
		for _, e := range server.events() {
			if e.Event == "join" {
				joins++
			}
		}
		return joins == 2
	})
	mu.Lock()
	req.GreaterOrEqual(resyncs, int32(2))
	mu.Unlock()
}

func TestClient_ReconnectsLeaveNoWatchersBehind(t *testing.T) {
	req := require.New(t)
	server := newStubServer(t)

	client := NewClient(server.wsURL(), "alice", slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = client.Run(ctx) }()

	waitFor(t, func() bool { return server.connCount() == 1 })
	baseline := runtime.NumGoroutine()

	for range 5 {
		server.dropConnections()
		waitFor(t, func() bool { return server.connCount() == 1 })
	}

	// One watcher per live connection, not one per reconnect.
	req.Eventually(func() bool {
		return runtime.NumGoroutine() <= baseline+2
	}, 3*time.Second, 20*time.Millisecond)
}

func TestClient_SendWhileDisconnected(t *testing.T) {
	req := require.New(t)

	client := NewClient("ws://127.0.0.1:0/nowhere", "alice", slog.Default())
	err := client.Send(event.TypingName, event.Typing{To: "bob"})
	req.ErrorIs(err, gerrors.ErrChannelClosed)
}

func TestClient_RunStopsOnCancel(t *testing.T) {
	req := require.New(t)
	server := newStubServer(t)

	client := NewClient(server.wsURL(), "alice", slog.Default())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	waitFor(t, func() bool { return server.connCount() == 1 })
	cancel()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.Fail("Run should return once the context is canceled")
	}
}
