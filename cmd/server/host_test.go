package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"terrania.game/internal/config"
	"terrania.game/internal/persistence/indexdb"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/tables"
	"terrania.game/internal/sim/tuning"
	"terrania.game/internal/transport/observer"
)

type testHost struct {
	*host
	buf *bytes.Buffer
	idx *indexdb.SQLiteIndex
}

func newTestHost(t *testing.T) testHost {
	t.Helper()
	dir := t.TempDir()
	buf := &bytes.Buffer{}
	out := newEmitter(buf)
	hub := observer.NewHub()
	hooks := multiHooks{stdoutHooks(out), hub.Hooks()}
	mgr, err := tables.NewManager(catalogs.Default(), tuning.Defaults(), filepath.Join(dir, "tables.json"), func(string) game.Hooks { return hooks })
	if err != nil {
		t.Fatal(err)
	}
	id, err := mgr.Create(11)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := indexdb.OpenSQLite(filepath.Join(dir, "index.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := mgr.Do(id, func(g *game.Game) error {
		g.SetActivityLogger(multiActivityLogger{idx})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	dec, err := protocol.NewDecoder()
	if err != nil {
		t.Fatal(err)
	}
	return testHost{
		host: &host{
			mgr:     mgr,
			id:      id,
			dec:     dec,
			out:     out,
			idx:     idx,
			hub:     hub,
			saveDir: filepath.Join(dir, "saves"),
			log:     log.New(io.Discard, "", 0),
		},
		buf: buf,
		idx: idx,
	}
}

// messages decodes every emitted line and resets the buffer.
func (th testHost) messages(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(th.buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	th.buf.Reset()
	return out
}

func lastResult(t *testing.T, msgs []map[string]any) map[string]any {
	t.Helper()
	if len(msgs) == 0 {
		t.Fatal("no output")
	}
	last := msgs[len(msgs)-1]
	if last["type"] != protocol.TypeResult {
		t.Fatalf("last message is %v, want RESULT", last["type"])
	}
	return last
}

func TestHost_StartAndPlay(t *testing.T) {
	th := newTestHost(t)
	th.handleLine([]byte(`{"type":"START_GAME","id":"r1","players":[{"name":"Ada"},{"name":"Bo"}]}`))
	msgs := th.messages(t)
	res := lastResult(t, msgs)
	if res["ok"] != true || res["ref"] != "r1" {
		t.Fatalf("start result = %v", res)
	}
	var sawNotice bool
	for _, m := range msgs {
		if m["type"] == protocol.TypeNotice {
			sawNotice = true
		}
	}
	if !sawNotice {
		t.Fatal("expected notices before the result")
	}

	// Unknown structures are rejected with a code, not an error.
	th.handleLine([]byte(`{"type":"PERFORM_ACTION","action":"build","structure":"castle"}`))
	res = lastResult(t, th.messages(t))
	if res["ok"] != false || res["code"] == "" {
		t.Fatalf("expected rejection, got %v", res)
	}

	th.handleLine([]byte(`{"type":"END_TURN"}`))
	if res := lastResult(t, th.messages(t)); res["ok"] != true {
		t.Fatalf("end turn = %v", res)
	}
}

func TestHost_SchemaRejection(t *testing.T) {
	th := newTestHost(t)
	for _, tc := range []struct {
		line string
		ref  string
	}{
		{`not json`, ""},
		{`{"type":"LAUNCH_MISSILES"}`, ""},
		{`{"type":"SELECT_REGION","region_id":"three"}`, ""},
		{`{"type":"SELECT_REGION","id":"r-7","region_id":"three"}`, "r-7"},
		{`{"type":"LAUNCH_MISSILES","id":"r-8"}`, "r-8"},
	} {
		th.handleLine([]byte(tc.line))
		res := lastResult(t, th.messages(t))
		if res["ok"] != false || res["code"] != protocol.ErrBadRequest {
			t.Fatalf("%s: result = %v", tc.line, res)
		}
		if ref, _ := res["ref"].(string); ref != tc.ref {
			t.Fatalf("%s: ref = %q, want %q", tc.line, ref, tc.ref)
		}
	}
	th.handleLine([]byte("   "))
	if msgs := th.messages(t); len(msgs) != 0 {
		t.Fatalf("blank line produced output: %v", msgs)
	}
}

func TestHost_SaveIsConfinedToSaveDir(t *testing.T) {
	th := newTestHost(t)
	th.handleLine([]byte(`{"type":"START_GAME","players":[{"name":"Ada"},{"name":"Bo"}]}`))
	th.messages(t)

	th.handleLine([]byte(`{"type":"SAVE","path":"../../etc/evil"}`))
	res := lastResult(t, th.messages(t))
	if res["ok"] != true {
		t.Fatalf("save = %v", res)
	}
	want := filepath.Join(th.saveDir, "evil.snap.zst")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("save not written to %s: %v", want, err)
	}

	th.handleLine([]byte(`{"type":"SAVE"}`))
	if res := lastResult(t, th.messages(t)); res["ok"] != true {
		t.Fatalf("default save = %v", res)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := th.idx.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	saves, err := th.idx.Saves(ctx, th.id)
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 2 {
		t.Fatalf("indexed saves = %+v", saves)
	}
	acts, err := th.idx.Activity(ctx, th.id, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) == 0 {
		t.Fatal("no activity indexed")
	}
}

func TestObserveMux_AdminStateIsLoopbackOnly(t *testing.T) {
	th := newTestHost(t)
	th.handleLine([]byte(`{"type":"START_GAME","players":[{"name":"Ada"},{"name":"Bo"}]}`))
	mux := newObserveMux(th.host, config.Env{}, log.New(io.Discard, "", 0))

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("remote admin status = %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rw = httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK || !strings.Contains(rw.Body.String(), `"digest"`) {
		t.Fatalf("loopback admin = %d %s", rw.Code, rw.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rw = httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if !strings.Contains(rw.Body.String(), `terrania_player_victory_points{game=`) {
		t.Fatalf("metrics missing player gauge:\n%s", rw.Body.String())
	}
}
