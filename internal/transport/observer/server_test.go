package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"terrania.game/internal/observerproto"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/tuning"
)

func startedGame(t *testing.T, hooks game.Hooks) *game.Game {
	t.Helper()
	g, err := game.New(game.Config{ID: "g", Seed: 3, Tuning: tuning.Defaults()}, catalogs.Default(), hooks)
	if err != nil {
		t.Fatal(err)
	}
	if res, err := g.StartGame([]game.PlayerInfo{{Name: "Ada"}, {Name: "Bo"}}); err != nil || !res.OK {
		t.Fatalf("start: %+v %v", res, err)
	}
	return g
}

func TestHub_FilterAndLastState(t *testing.T) {
	h := NewHub()
	g := startedGame(t, h.Hooks())
	if err := h.PublishState(g.ID(), g.State(), g.Digest()); err != nil {
		t.Fatal(err)
	}

	id, out := h.Subscribe(8, []string{observerproto.KindState})
	select {
	case b := <-out:
		var m protocol.StateMsg
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatal(err)
		}
		if m.Type != protocol.TypeState || len(m.Players) != 2 || m.Players[0].Regions != 1 {
			t.Fatalf("state = %+v", m)
		}
	default:
		t.Fatal("new subscriber did not get the last state")
	}

	// Notices are filtered out.
	_ = h.Publish(observerproto.KindNotice, protocol.NoticeMsg{Type: protocol.TypeNotice})
	select {
	case b := <-out:
		t.Fatalf("unexpected message %s", b)
	default:
	}

	h.Unsubscribe(id)
	if _, ok := <-out; ok {
		t.Fatal("channel not closed on unsubscribe")
	}
	if h.Subscribers() != 0 {
		t.Fatalf("subscribers = %d", h.Subscribers())
	}
}

func TestHub_DropsForSlowSubscribers(t *testing.T) {
	h := NewHub()
	_, _ = h.Subscribe(1, nil)
	for i := 0; i < 3; i++ {
		_ = h.Publish(observerproto.KindNotice, protocol.NoticeMsg{Type: protocol.TypeNotice})
	}
	if h.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", h.Dropped())
	}
}

func TestServer_WSStreamsActivity(t *testing.T) {
	h := NewHub()
	var g *game.Game
	srv := NewServer(h, func() (observerproto.BootstrapResponse, error) { return Bootstrap(g), nil }, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/observe", srv.WSHandler())
	mux.HandleFunc("/admin/v1/observer/bootstrap", srv.BootstrapHandler())
	ts := httptest.NewServer(mux)
	defer ts.Close()

	g = startedGame(t, h.Hooks())

	resp, err := http.Get(ts.URL + "/admin/v1/observer/bootstrap")
	if err != nil {
		t.Fatal(err)
	}
	var boot observerproto.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if boot.GameID != "g" || len(boot.Regions) != boot.GridWidth*boot.GridHeight || len(boot.Biomes) == 0 {
		t.Fatalf("bootstrap = %+v", boot)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/observe"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := conn.WriteJSON(observerproto.SubscribeMsg{
		Type:            "SUBSCRIBE",
		ProtocolVersion: observerproto.Version,
		Kinds:           []string{observerproto.KindActivity},
	}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	// Actions -> Negotiation -> next player's turn.
	for i := 0; i < 2; i++ {
		if res, err := g.EndTurn(); err != nil || !res.OK {
			t.Fatalf("end turn: %+v %v", res, err)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m protocol.ActivityMsg
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatal(err)
	}
	if m.Type != protocol.TypeActivity {
		t.Fatalf("got %+v", m)
	}
}

func TestServer_RejectsBadHandshake(t *testing.T) {
	srv := NewServer(NewHub(), nil, nil)
	ts := httptest.NewServer(srv.WSHandler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.WriteJSON(map[string]string{"type": "PERFORM_ACTION"})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy violation close, got %v", err)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := IsLoopbackRemote(addr); got != want {
			t.Errorf("IsLoopbackRemote(%q) = %v, want %v", addr, got, want)
		}
	}
}
