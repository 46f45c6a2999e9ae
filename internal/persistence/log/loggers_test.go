package log

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/game/kernel/model"
)

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "x")
	now := time.Date(2026, 1, 2, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	files, err := Files(dir, "x")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "x-2026-01-02-10.jsonl.zst"),
		filepath.Join(dir, "x-2026-01-02-11.jsonl.zst"),
	}
	if len(files) != 2 || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("files = %v, want %v", files, want)
	}
}

func TestJSONLZstdWriter_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		w := NewJSONLZstdWriter(dir, "x")
		w.now = func() time.Time { return now }
		if err := w.Write(map[string]int{"n": i}); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}
	var lines int
	if err := ReadJSONL(filepath.Join(dir, "x-2026-01-02-10.jsonl.zst"), func([]byte) error {
		lines++
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if lines != 2 {
		t.Fatalf("lines = %d, want 2", lines)
	}
}

func TestJournal_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	j := NewJournal(dir)
	region := 4
	entries := []game.JournalEntry{
		{Header: &game.JournalHeader{GameID: "g", Seed: 7, Digest: "d0"}},
		{Seq: 1, Request: &protocol.Request{Type: protocol.TypeSelectRegion, RegionID: &region}, OK: true, Digest: "d1"},
		{Seq: 2, Request: &protocol.Request{Type: protocol.TypeEndTurn}, Code: protocol.ErrPhase, Digest: "d1"},
	}
	for _, e := range entries {
		if err := j.WriteCommand(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadJournal(filepath.Join(dir, "journal"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(entries) {
		t.Fatalf("read %d entries, want %d", len(got), len(entries))
	}
	if got[0].Header == nil || got[0].Header.Seed != 7 {
		t.Fatalf("header = %+v", got[0].Header)
	}
	if r := got[1].Request; r == nil || r.RegionID == nil || *r.RegionID != 4 {
		t.Fatalf("request = %+v", got[1].Request)
	}
	if got[2].Code != protocol.ErrPhase || got[2].OK {
		t.Fatalf("entry 2 = %+v", got[2])
	}
}

func TestReadJournal_SegmentsInOrder(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		j := NewJournal(dir)
		at := base.Add(time.Duration(i) * time.Second)
		j.w.now = func() time.Time { return at }
		if err := j.WriteCommand(game.JournalEntry{Header: &game.JournalHeader{Seq: uint64(i * 10)}}); err != nil {
			t.Fatal(err)
		}
		if err := j.Close(); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ReadJournal(filepath.Join(dir, "journal"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Header.Seq != 0 || got[1].Header.Seq != 10 {
		t.Fatalf("segments out of order: %+v", got)
	}
}

func TestActivityLogger(t *testing.T) {
	dir := t.TempDir()
	l := NewActivityLogger(dir)
	rec := game.ActivityRecord{GameID: "g", Seq: 3, ActivityEntry: model.ActivityEntry{Type: "action", PlayerName: "Ada", Action: "explore", Turn: 2}}
	if err := l.WriteActivity(rec); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	got, err := ReadActivity(filepath.Join(dir, "activity"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != rec {
		t.Fatalf("got %+v", got)
	}
}

func TestReadJournal_Missing(t *testing.T) {
	if _, err := ReadJournal(filepath.Join(t.TempDir(), "nope")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
