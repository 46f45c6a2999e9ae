package model

import (
	"fmt"
)

type Phase string

const (
	PhaseIncome      Phase = "Income"
	PhaseActions     Phase = "Actions"
	PhaseNegotiation Phase = "Negotiation"
)

type EventCategory string

const (
	EventPositive EventCategory = "positive"
	EventNegative EventCategory = "negative"
	EventMixed    EventCategory = "mixed"
)

// EventRef identifies the currently active global event.
type EventRef struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category EventCategory `json:"category"`
	Duration int           `json:"duration"`
}

// ActivityEntry is one line of the rolling activity log.
type ActivityEntry struct {
	Type       string `json:"type"`
	PlayerName string `json:"player_name,omitempty"`
	Action     string `json:"action"`
	Details    string `json:"details,omitempty"`
	Turn       int    `json:"turn"`
}

// GameState is the whole mutable game. It owns players and regions;
// Region.Controller is a back-reference kept in sync by TransferRegion.
type GameState struct {
	GridWidth  int       `json:"grid_width"`
	GridHeight int       `json:"grid_height"`
	Players    []*Player `json:"players"`
	Regions    []*Region `json:"regions"`

	CurrentPlayer  int   `json:"current_player"`
	Turn           int   `json:"turn"`
	Phase          Phase `json:"phase"`
	ActionsLeft    int   `json:"actions_left"`
	SelectedRegion int   `json:"selected_region"`

	CurrentEvent        *EventRef `json:"current_event,omitempty"`
	EventTurnsLeft      int       `json:"event_turns_left"`
	Modifiers           Modifiers `json:"modifiers,omitempty"`
	TurnsUntilNextEvent int       `json:"turns_until_next_event"`

	Pending           []*Proposal `json:"pending,omitempty"`
	ActiveNegotiation string      `json:"active_negotiation,omitempty"`
	NegotiationTarget int         `json:"negotiation_target"`
	NextProposal      uint64      `json:"next_proposal"`

	Winner   int             `json:"winner"`
	Activity []ActivityEntry `json:"activity,omitempty"`
}

func (s *GameState) Halted() bool { return s.Winner >= 0 }

func (s *GameState) Player(id int) (*Player, bool) {
	if id < 0 || id >= len(s.Players) {
		return nil, false
	}
	return s.Players[id], true
}

func (s *GameState) Region(id int) (*Region, bool) {
	if id < 0 || id >= len(s.Regions) {
		return nil, false
	}
	return s.Regions[id], true
}

func (s *GameState) Current() *Player {
	p, _ := s.Player(s.CurrentPlayer)
	return p
}

// TransferRegion is the single update path for region control. It moves
// regionID to player to (or Unclaimed), keeping the controller field and
// both players' region sets consistent.
func (s *GameState) TransferRegion(regionID, to int) error {
	r, ok := s.Region(regionID)
	if !ok {
		return fmt.Errorf("transfer: region %d out of range", regionID)
	}
	var dst *Player
	if to != Unclaimed {
		if dst, ok = s.Player(to); !ok {
			return fmt.Errorf("transfer: player %d out of range", to)
		}
	}
	if r.Controller != Unclaimed {
		src, ok := s.Player(r.Controller)
		if !ok {
			return fmt.Errorf("transfer: region %d has dangling controller %d", regionID, r.Controller)
		}
		src.removeRegion(regionID)
	}
	r.Controller = to
	if dst != nil {
		dst.addRegion(regionID)
	}
	return nil
}

// ControlledBiomes counts the distinct biomes among a player's regions.
func (s *GameState) ControlledBiomes(playerID int) int {
	p, ok := s.Player(playerID)
	if !ok {
		return 0
	}
	seen := map[Biome]bool{}
	for _, id := range p.Regions {
		if r, ok := s.Region(id); ok {
			seen[r.Biome] = true
		}
	}
	return len(seen)
}

func (s *GameState) FindProposal(id string) (*Proposal, bool) {
	for _, p := range s.Pending {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (s *GameState) RemoveProposal(id string) {
	out := s.Pending[:0]
	for _, p := range s.Pending {
		if p.ID != id {
			out = append(out, p)
		}
	}
	for i := len(out); i < len(s.Pending); i++ {
		s.Pending[i] = nil
	}
	s.Pending = out
	if s.ActiveNegotiation == id {
		s.ActiveNegotiation = ""
	}
}

// PendingFor lists pending proposals addressed to target, oldest first.
func (s *GameState) PendingFor(target int) []*Proposal {
	var out []*Proposal
	for _, p := range s.Pending {
		if p.Target == target && p.Status == ProposalPending {
			out = append(out, p)
		}
	}
	return out
}

// PushActivity appends e and keeps only the most recent limit entries.
func (s *GameState) PushActivity(e ActivityEntry, limit int) {
	s.Activity = append(s.Activity, e)
	if limit > 0 && len(s.Activity) > limit {
		s.Activity = append([]ActivityEntry(nil), s.Activity[len(s.Activity)-limit:]...)
	}
}

// CheckConsistency verifies the controller back-references against the
// players' region sets.
func (s *GameState) CheckConsistency() error {
	for i, r := range s.Regions {
		if r == nil || r.ID != i {
			return fmt.Errorf("region slot %d holds wrong id", i)
		}
		if r.Controller == Unclaimed {
			continue
		}
		p, ok := s.Player(r.Controller)
		if !ok {
			return fmt.Errorf("region %d controlled by unknown player %d", r.ID, r.Controller)
		}
		if !p.Owns(r.ID) {
			return fmt.Errorf("region %d controller %d does not list it", r.ID, r.Controller)
		}
	}
	for _, p := range s.Players {
		for _, id := range p.Regions {
			r, ok := s.Region(id)
			if !ok {
				return fmt.Errorf("player %d owns unknown region %d", p.ID, id)
			}
			if r.Controller != p.ID {
				return fmt.Errorf("player %d lists region %d controlled by %d", p.ID, id, r.Controller)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Regions = cloneInts(p.Regions)
		cp.Unlocked = append([]string(nil), p.Unlocked...)
		out.Players[i] = &cp
	}
	out.Regions = make([]*Region, len(s.Regions))
	for i, r := range s.Regions {
		cr := *r
		cr.Structures = append([]StructureKind(nil), r.Structures...)
		out.Regions[i] = &cr
	}
	if s.CurrentEvent != nil {
		ev := *s.CurrentEvent
		out.CurrentEvent = &ev
	}
	out.Modifiers = append(Modifiers(nil), s.Modifiers...)
	out.Pending = nil
	for _, p := range s.Pending {
		cp := *p
		cp.Offer.Regions = cloneInts(p.Offer.Regions)
		cp.Request.Regions = cloneInts(p.Request.Regions)
		out.Pending = append(out.Pending, &cp)
	}
	out.Activity = append([]ActivityEntry(nil), s.Activity...)
	return &out
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}
