package observer

import (
	"terrania.game/internal/observerproto"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/game/kernel/model"
)

// StateOf summarizes st for observers.
func StateOf(gameID string, st *model.GameState, digest string) protocol.StateMsg {
	m := protocol.StateMsg{
		Type:          protocol.TypeState,
		GameID:        gameID,
		Turn:          st.Turn,
		Phase:         string(st.Phase),
		CurrentPlayer: st.CurrentPlayer,
		ActionsLeft:   st.ActionsLeft,
		Winner:        st.Winner,
		Players:       make([]protocol.PlayerBrief, 0, len(st.Players)),
		Digest:        digest,
	}
	if st.CurrentEvent != nil {
		m.ActiveEvent = st.CurrentEvent.ID
		m.EventRounds = st.EventTurnsLeft
	}
	for _, p := range st.Players {
		res := make(map[string]int, len(model.ResourceKinds))
		for _, k := range model.ResourceKinds {
			res[string(k)] = p.Resources.Get(k)
		}
		m.Players = append(m.Players, protocol.PlayerBrief{
			ID:            p.ID,
			Name:          p.Name,
			VictoryPoints: p.VictoryPoints,
			Regions:       len(p.Regions),
			Resources:     res,
		})
	}
	return m
}

// Bootstrap describes g for a viewer joining mid-game.
func Bootstrap(g *game.Game) observerproto.BootstrapResponse {
	st := g.State()
	resp := observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		GameID:          g.ID(),
		Seed:            g.Seed(),
		GridWidth:       st.GridWidth,
		GridHeight:      st.GridHeight,
		Regions:         make([]observerproto.RegionInfo, 0, len(st.Regions)),
		State:           StateOf(g.ID(), st, g.Digest()),
	}
	for _, r := range st.Regions {
		ri := observerproto.RegionInfo{
			ID:               r.ID,
			Name:             r.Name,
			Biome:            string(r.Biome),
			Controller:       r.Controller,
			ExplorationLevel: r.ExplorationLevel,
		}
		for _, s := range r.Structures {
			ri.Structures = append(ri.Structures, string(s))
		}
		resp.Regions = append(resp.Regions, ri)
	}
	cats := g.Catalogs()
	for _, b := range cats.Biomes.Order {
		resp.Biomes = append(resp.Biomes, string(b))
	}
	for _, s := range cats.Structures.Order {
		resp.Structures = append(resp.Structures, string(s))
	}
	return resp
}
