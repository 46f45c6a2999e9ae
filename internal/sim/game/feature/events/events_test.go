package events

import (
	"testing"

	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/rng"
)

func twoPlayerState() *model.GameState {
	return &model.GameState{
		Players: []*model.Player{
			{ID: 0, Name: "A", Resources: model.Resources{Wood: 1, Gold: 4}, VictoryPoints: 3},
			{ID: 1, Name: "B", Resources: model.Resources{Wood: 5}, VictoryPoints: 0},
		},
		Winner: -1,
	}
}

func TestApplyRemove_RoundTripForEveryEvent(t *testing.T) {
	cats := catalogs.Default()
	for _, id := range cats.Events.Order {
		def := cats.Events.ByID[id]
		st := twoPlayerState()
		Apply(st, def)
		if def.Duration > 0 && len(def.Modifiers) > 0 && len(st.Modifiers) != len(def.Modifiers) {
			t.Fatalf("%s: expected %d modifiers, got %d", id, len(def.Modifiers), len(st.Modifiers))
		}
		Remove(st, def.ID)
		if len(st.Modifiers) != 0 {
			t.Fatalf("%s: leaked modifiers after remove: %+v", id, st.Modifiers)
		}
	}
}

func TestRemove_KeepsOtherSources(t *testing.T) {
	st := twoPlayerState()
	st.Modifiers = model.Modifiers{{Source: "other", Kind: model.ModBuildBonusPV, Amount: 1}}
	cats := catalogs.Default()
	Apply(st, cats.Events.ByID["drought"])
	Remove(st, "drought")
	if len(st.Modifiers) != 1 || st.Modifiers[0].Source != "other" {
		t.Fatalf("unexpected modifiers: %+v", st.Modifiers)
	}
}

func TestActivate_ReplacesActiveEventWithoutLeaks(t *testing.T) {
	cats := catalogs.Default()
	st := twoPlayerState()
	Activate(st, cats.Events.ByID["gold_rush"], 3)
	if st.Modifiers.IncomeFactor(model.Gold) != 2 {
		t.Fatalf("gold rush not applied: %+v", st.Modifiers)
	}
	out := Activate(st, cats.Events.ByID["drought"], 3)
	if out.Ended == nil || out.Ended.ID != "gold_rush" {
		t.Fatalf("expected gold_rush ended, got %+v", out.Ended)
	}
	if f := st.Modifiers.IncomeFactor(model.Gold); f != 1 {
		t.Fatalf("stale gold modifier: %v", f)
	}
	if f := st.Modifiers.IncomeFactor(model.Water); f != 0.5 {
		t.Fatalf("drought not applied: %v", f)
	}
	if st.CurrentEvent == nil || st.CurrentEvent.ID != "drought" || st.EventTurnsLeft != 2 {
		t.Fatalf("unexpected current event: %+v left=%d", st.CurrentEvent, st.EventTurnsLeft)
	}
}

func TestActivate_InstantEventIsNeverActive(t *testing.T) {
	cats := catalogs.Default()
	st := twoPlayerState()
	out := Activate(st, cats.Events.ByID["storm"], 3)
	if !out.Instant {
		t.Fatalf("storm should be instant")
	}
	if st.CurrentEvent != nil || st.EventTurnsLeft != 0 || len(st.Modifiers) != 0 {
		t.Fatalf("instant event tracked as active: %+v", st)
	}
	if st.Players[0].Resources.Wood != 0 || st.Players[1].Resources.Wood != 3 {
		t.Fatalf("storm should remove 2 wood flooring at zero: %+v %+v", st.Players[0].Resources, st.Players[1].Resources)
	}

	Activate(st, cats.Events.ByID["festival"], 3)
	if st.Players[0].VictoryPoints != 5 || st.Players[1].VictoryPoints != 2 {
		t.Fatalf("festival PV not granted: %d %d", st.Players[0].VictoryPoints, st.Players[1].VictoryPoints)
	}
}

func TestAdvanceRound_DurationTwoEventEndsAfterTwoRounds(t *testing.T) {
	cats := catalogs.Default()
	st := twoPlayerState()
	Activate(st, cats.Events.ByID["drought"], 5)

	if out := AdvanceRound(st, cats.Events, rng.New(1), 5); out.Changed() {
		t.Fatalf("round 1 should not change the event: %+v", out)
	}
	if st.EventTurnsLeft != 1 || st.Modifiers.IncomeFactor(model.Water) != 0.5 {
		t.Fatalf("unexpected state after round 1: left=%d mods=%+v", st.EventTurnsLeft, st.Modifiers)
	}
	out := AdvanceRound(st, cats.Events, rng.New(1), 5)
	if out.Ended == nil || out.Ended.ID != "drought" || out.Started != nil {
		t.Fatalf("round 2 should end drought only: %+v", out)
	}
	if st.CurrentEvent != nil || len(st.Modifiers) != 0 || st.Modifiers.IncomeFactor(model.Water) != 1 {
		t.Fatalf("residual event state: %+v", st)
	}
	if st.TurnsUntilNextEvent != 5 {
		t.Fatalf("countdown not reset: %d", st.TurnsUntilNextEvent)
	}
}

func TestAdvanceRound_CountdownTriggersRandomEvent(t *testing.T) {
	cats := catalogs.Default()
	st := twoPlayerState()
	st.TurnsUntilNextEvent = 2

	if out := AdvanceRound(st, cats.Events, &rng.Fixed{}, 4); out.Changed() {
		t.Fatalf("unexpected event at countdown 1: %+v", out)
	}
	idx := 0
	for i, id := range cats.Events.Order {
		if id == "gold_rush" {
			idx = i
		}
	}
	out := AdvanceRound(st, cats.Events, &rng.Fixed{Ints: []int{idx}}, 4)
	if out.Started == nil || out.Started.ID != "gold_rush" {
		t.Fatalf("expected gold_rush, got %+v", out)
	}
	if st.TurnsUntilNextEvent != 4 || st.CurrentEvent == nil {
		t.Fatalf("unexpected clock: %+v", st)
	}
}
