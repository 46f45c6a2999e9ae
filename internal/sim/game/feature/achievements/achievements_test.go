package achievements

import (
	"testing"

	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/kernel/model"
)

func ids(defs []catalogs.AchievementDef) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.ID)
	}
	return out
}

func TestEvaluate_ThresholdsAndIdempotence(t *testing.T) {
	cat := catalogs.Default().Achievements
	p := &model.Player{Counters: model.Counters{Explored: 1, Built: 1, PeakResource: 30}}

	got := ids(Record(p, false, cat))
	want := []string{"first_steps", "builder", "hoarder"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if again := Evaluate(p.Counters, p.Unlocked, false, cat); len(again) != 0 {
		t.Fatalf("second evaluation unlocked %v", ids(again))
	}
}

func TestEvaluate_VictoryOnlyNeedsWin(t *testing.T) {
	cat := catalogs.Default().Achievements
	c := model.Counters{VictoryTurn: 12}
	for _, d := range Evaluate(c, nil, false, cat) {
		if d.ID == "speedrunner" || d.ID == "lone_wolf" {
			t.Fatalf("%s unlocked before victory", d.ID)
		}
	}
	got := map[string]bool{}
	for _, d := range Evaluate(c, nil, true, cat) {
		got[d.ID] = true
	}
	if !got["speedrunner"] || !got["lone_wolf"] {
		t.Fatalf("victory achievements missing: %v", got)
	}

	c.Negotiated = true
	c.VictoryTurn = 16
	for _, d := range Evaluate(c, nil, true, cat) {
		if d.ID == "speedrunner" || d.ID == "lone_wolf" {
			t.Fatalf("%s should not unlock", d.ID)
		}
	}
}

func TestValue_Flag(t *testing.T) {
	if Value(model.Counters{Negotiated: true}, catalogs.CounterNegotiated) != 1 {
		t.Fatal("negotiated flag should read 1")
	}
	if Value(model.Counters{}, catalogs.CounterNegotiated) != 0 {
		t.Fatal("unset flag should read 0")
	}
}
