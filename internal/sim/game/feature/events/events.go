// Package events runs the global random-event clock. At most one event is
// active at a time; its modifiers are tagged with the event id so removal
// is the exact inverse of application.
package events

import (
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/rng"
)

// Outcome reports what a clock step or activation changed.
type Outcome struct {
	Ended   *model.EventRef
	Started *catalogs.EventDef
	// Instant is set when Started was applied once and is not tracked.
	Instant bool
}

func (o Outcome) Changed() bool { return o.Ended != nil || o.Started != nil }

func ref(def catalogs.EventDef) *model.EventRef {
	return &model.EventRef{ID: def.ID, Name: def.Name, Category: def.Category, Duration: def.Duration}
}

// Apply installs def's modifiers.
func Apply(st *model.GameState, def catalogs.EventDef) {
	for _, m := range def.Modifiers {
		st.Modifiers = append(st.Modifiers, model.Modifier{
			Source:   def.ID,
			Kind:     m.Kind,
			Resource: m.Resource,
			Factor:   m.Factor,
			Amount:   m.Amount,
		})
	}
}

// Remove drops every modifier installed by eventID.
func Remove(st *model.GameState, eventID string) {
	st.Modifiers = st.Modifiers.Without(eventID)
	if len(st.Modifiers) == 0 {
		st.Modifiers = nil
	}
}

// ApplyInstant applies a zero-duration event to every player once.
func ApplyInstant(st *model.GameState, def catalogs.EventDef) {
	for _, p := range st.Players {
		for _, k := range model.ResourceKinds {
			p.Resources.Add(k, def.Instant.Resources.Get(k))
		}
		p.AddPV(def.Instant.PV)
		p.TrackPeak()
	}
}

// End clears the active event, if any.
func End(st *model.GameState) *model.EventRef {
	if st.CurrentEvent == nil {
		return nil
	}
	ended := st.CurrentEvent
	Remove(st, ended.ID)
	st.CurrentEvent = nil
	st.EventTurnsLeft = 0
	st.Modifiers = nil
	return ended
}

// Activate starts def, first removing a still-active event so no
// modifier leaks across events. The countdown to the next random event
// restarts at interval.
func Activate(st *model.GameState, def catalogs.EventDef, interval int) Outcome {
	out := Outcome{Ended: End(st)}
	out.Started = &def
	st.TurnsUntilNextEvent = interval
	if def.Duration == 0 {
		ApplyInstant(st, def)
		out.Instant = true
		return out
	}
	st.CurrentEvent = ref(def)
	st.EventTurnsLeft = def.Duration
	st.Modifiers = nil
	Apply(st, def)
	return out
}

// Pick draws a uniform-random event from the catalog.
func Pick(cat catalogs.EventCatalog, src rng.Source) (catalogs.EventDef, bool) {
	if len(cat.Order) == 0 || src == nil {
		return catalogs.EventDef{}, false
	}
	id := cat.Order[src.IntN(len(cat.Order))]
	def, ok := cat.ByID[id]
	return def, ok
}

// AdvanceRound ticks the event clock once per completed full round. An
// active event counts down and ends at zero; otherwise the countdown to
// the next event decrements and a random event starts when it reaches
// zero. The round an event ends never starts another.
func AdvanceRound(st *model.GameState, cat catalogs.EventCatalog, src rng.Source, interval int) Outcome {
	if st.CurrentEvent != nil {
		st.EventTurnsLeft--
		if st.EventTurnsLeft > 0 {
			return Outcome{}
		}
		ended := End(st)
		st.TurnsUntilNextEvent = interval
		return Outcome{Ended: ended}
	}
	if st.TurnsUntilNextEvent > 0 {
		st.TurnsUntilNextEvent--
	}
	if st.TurnsUntilNextEvent > 0 {
		return Outcome{}
	}
	def, ok := Pick(cat, src)
	if !ok {
		st.TurnsUntilNextEvent = interval
		return Outcome{}
	}
	return Activate(st, def, interval)
}
