package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatrelay/internal/catalog"
	"chatrelay/internal/presence"
	"chatrelay/internal/room"
	"chatrelay/pkg/interfaces"
)

type fakeStore struct {
	channels  []string
	createErr error
}

func (s *fakeStore) List(ctx context.Context) ([]string, error) { return s.channels, nil }

func (s *fakeStore) Create(ctx context.Context, name string) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.channels = append(s.channels, name)
	return nil
}

func (s *fakeStore) Close() error { return nil }

type fakeRegistry struct {
	count int
}

func (r *fakeRegistry) Register(conn interfaces.Connection) error         { return nil }
func (r *fakeRegistry) Remove(id string) (interfaces.Connection, bool)    { return nil, false }
func (r *fakeRegistry) Get(id string) (interfaces.Connection, bool)       { return nil, false }
func (r *fakeRegistry) All() []interfaces.Connection                      { return nil }
func (r *fakeRegistry) Count() int                                        { return r.count }

func newTestServer(store interfaces.ChannelStore) (*Server, *presence.Registry, *room.Table) {
	pres := presence.NewRegistry()
	rooms := room.NewTable()
	return NewServer(store, pres, &fakeRegistry{count: 2}, rooms), pres, rooms
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder
}

func TestServer_Health(t *testing.T) {
	server, _, _ := newTestServer(&fakeStore{})

	recorder := doRequest(t, server, http.MethodGet, "/health", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestServer_ListChannels(t *testing.T) {
	server, _, _ := newTestServer(&fakeStore{channels: []string{"general", "random"}})

	recorder := doRequest(t, server, http.MethodGet, "/api/channels", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	var resp struct {
		Channels []string `json:"channels"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Channels) != 2 || resp.Channels[0] != "general" {
		t.Errorf("channels = %v, want [general random]", resp.Channels)
	}
}

func TestServer_CreateChannel(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
	}{
		{name: "created", body: `{"name":"announcements"}`, wantStatus: http.StatusCreated},
		{name: "invalid json", body: `{"name":`, wantStatus: http.StatusBadRequest},
		{name: "invalid name", body: `{"name":"has space"}`, createErr: catalog.ErrInvalidChannelName, wantStatus: http.StatusBadRequest},
		{name: "duplicate", body: `{"name":"general"}`, createErr: catalog.ErrChannelExists, wantStatus: http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, _, _ := newTestServer(&fakeStore{createErr: tc.createErr})

			recorder := doRequest(t, server, http.MethodPost, "/api/channels", tc.body)
			if recorder.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
		})
	}
}

func TestServer_Stats(t *testing.T) {
	server, pres, rooms := newTestServer(&fakeStore{})
	pres.Join("c1", "alice")
	pres.Join("c2", "bob")
	rooms.AddMember("general", "c1")
	rooms.AddMember("general", "c2")
	rooms.AddMember("random", "c1")

	recorder := doRequest(t, server, http.MethodGet, "/api/stats", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	var resp struct {
		Connections int      `json:"connections"`
		OnlineUsers []string `json:"online_users"`
		ActiveRooms int      `json:"active_rooms"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Connections != 2 {
		t.Errorf("connections = %d, want 2", resp.Connections)
	}
	if len(resp.OnlineUsers) != 2 || resp.OnlineUsers[0] != "alice" {
		t.Errorf("online_users = %v, want [alice bob]", resp.OnlineUsers)
	}
	if resp.ActiveRooms != 2 {
		t.Errorf("active_rooms = %d, want 2", resp.ActiveRooms)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	server, _, _ := newTestServer(&fakeStore{})

	recorder := doRequest(t, server, http.MethodOptions, "/api/channels", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if origin := recorder.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", origin)
	}
}
