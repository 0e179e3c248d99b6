package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/app/orch"
	"github.com/dkeye/Mesh/internal/config"
	"github.com/dkeye/Mesh/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func newRouter(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>mesh</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(static, "app.js"), []byte("// mesh client"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Mode:           "test",
		StaticPath:     static,
		Secret:         "test-secret",
		AllowedOrigins: []string{"*"},
		PongWait:       time.Minute,
		PingPeriod:     time.Minute / 2,
		WriteWait:      time.Second,
		SendBuffer:     16,
		ICEServers:     []config.ICEServer{{URLs: []string{"stun:stun.example.com:3478"}}},
	}
	o := &orch.Orchestrator{Registry: app.NewRegistry(), Policy: app.SimplePolicy{Action: app.DropFrame}}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, cfg, o), o
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterPingAndClientToken(t *testing.T) {
	r, _ := newRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("GET /ping = %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get(headerRequestID) == "" {
		t.Error("missing request id header")
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "MeshSessions" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("session cookie not set")
	}

	// A returning browser keeps its token, so no new cookie is issued.
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(session)
	for _, c := range serve(r, req).Result().Cookies() {
		if c.Name == "MeshSessions" {
			t.Errorf("session cookie reissued for a known client")
		}
	}
}

func TestRouterKeepsRequestID(t *testing.T) {
	r, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-42")
	if got := serve(r, req).Header().Get(headerRequestID); got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}

func TestRouterServesClientBundle(t *testing.T) {
	r, _ := newRouter(t)
	for _, path := range []string{"/", "/static/app.js"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "mesh") {
			t.Errorf("GET %s = %d %q", path, w.Code, w.Body.String())
		}
	}
}

func TestRouterICEServers(t *testing.T) {
	r, _ := newRouter(t)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/ice-servers", nil))
	if !strings.Contains(w.Body.String(), "stun:stun.example.com:3478") {
		t.Errorf("GET /api/ice-servers = %s", w.Body.String())
	}
}

func TestRouterWebSocketJoinShowsInRooms(t *testing.T) {
	r, _ := newRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	for _, path := range []string{"/ws", "/api/ws/signal"} {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
		if err != nil {
			t.Fatalf("dial %s: %v", path, err)
		}
		defer conn.Close()

		frame, _ := core.EncodeEvent(core.EventJoinRoom, "lobby", "ann")
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			t.Fatal(err)
		}
		// welcome, then existing-peers
		for _, want := range []string{core.EventWelcome, core.EventExistingPeers} {
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, data, err := conn.ReadMessage()
			if err != nil {
				t.Fatal(err)
			}
			ev, err := core.DecodeEvent(data)
			if err != nil || ev.Name != want {
				t.Fatalf("%s: got %s, want %s", path, data, want)
			}
		}
	}

	resp, err := http.Get(srv.URL + "/api/rooms")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Rooms []core.RoomInfo `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Rooms) != 1 || body.Rooms[0] != (core.RoomInfo{Name: "lobby", MemberCount: 2}) {
		t.Errorf("rooms = %+v", body.Rooms)
	}
}
