package snapshot

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/tuning"
)

func testSnapshot() SnapshotV1 {
	st := &model.GameState{
		GridWidth:  2,
		GridHeight: 1,
		Players: []*model.Player{{
			ID:         0,
			Name:       "Ada",
			Resources:  model.Resources{Wood: 5, Stone: 3},
			Regions:    []int{0},
			HomeRegion: 0,
		}},
		Regions: []*model.Region{
			{ID: 0, Name: "Forest A1", Biome: "Forest", ExplorationLevel: 1, Controller: 0},
			{ID: 1, Name: "Desert B1", Biome: "Desert", Controller: model.Unclaimed, Resources: model.Resources{Gold: 4}},
		},
		Turn:              3,
		Phase:             model.PhaseActions,
		ActionsLeft:       2,
		SelectedRegion:    model.NoRegion,
		NegotiationTarget: model.NoRegion,
		Winner:            -1,
	}
	return SnapshotV1{
		Header: Header{GameID: "g1", Turn: 3, Phase: string(model.PhaseActions), Players: 1, Winner: -1, Digest: "abc"},
		Seed:   42,
		RNG:    []byte{1, 2, 3},
		Seq:    17,
		Tuning: tuning.Defaults(),
		State:  st,
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "g1.snap.zst")
	in := testSnapshot()
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Header.Version != Version || out.Header.SavedAt == "" {
		t.Fatalf("header not stamped: %+v", out.Header)
	}
	if out.Seed != 42 || out.Seq != 17 || !reflect.DeepEqual(out.RNG, in.RNG) {
		t.Fatalf("scalars: seed=%d seq=%d rng=%v", out.Seed, out.Seq, out.RNG)
	}
	if !reflect.DeepEqual(out.State, in.State) {
		t.Fatalf("state mismatch:\n got %+v\nwant %+v", out.State, in.State)
	}
	if !reflect.DeepEqual(out.Tuning, in.Tuning) {
		t.Fatalf("tuning mismatch")
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h.GameID != "g1" || h.Turn != 3 || h.Digest != "abc" {
		t.Fatalf("header = %+v", h)
	}
}

func TestWriteSnapshot_RejectsNilState(t *testing.T) {
	snap := testSnapshot()
	snap.State = nil
	if err := WriteSnapshot(filepath.Join(t.TempDir(), "x.snap.zst"), snap); err == nil {
		t.Fatal("expected error for nil state")
	}
}

func TestReadSnapshot_NotZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	if err := os.WriteFile(path, []byte("{\"version\":1}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatal("expected error for plain json file")
	}
}
