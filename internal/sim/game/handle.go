package game

import (
	"fmt"

	"terrania.game/internal/persistence/snapshot"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/game/feature/actions"
	"terrania.game/internal/sim/game/kernel/model"
)

// BundleFromMsg converts a wire bundle, rejecting unknown resource names.
func BundleFromMsg(m *protocol.BundleMsg) (model.Bundle, error) {
	var b model.Bundle
	if m == nil {
		return b, nil
	}
	for name, n := range m.Resources {
		k, err := model.ParseResource(name)
		if err != nil {
			return b, err
		}
		b.Resources.Set(k, n)
	}
	if len(m.Regions) > 0 {
		b.Regions = append([]int(nil), m.Regions...)
	}
	return b, nil
}

// Handle dispatches one decoded request and journals it. SAVE is not
// handled here: the host decides where saves may be written and calls
// Save. seq advances before dispatch so activity emitted by the request
// carries the same seq as its journal entry.
func (g *Game) Handle(req protocol.Request) (Result, error) {
	g.seq++
	res, err := g.dispatch(req)
	if g.journal != nil {
		r := req
		entry := JournalEntry{Seq: g.seq, Request: &r, OK: res.OK, Code: res.Code, Digest: g.Digest()}
		if jerr := g.journal.WriteCommand(entry); jerr != nil {
			g.logger.Printf("game %s: journal: %v", g.id, jerr)
		}
	}
	return res, err
}

func (g *Game) dispatch(req protocol.Request) (Result, error) {
	var res Result
	switch req.Type {
	case protocol.TypeStartGame:
		players := make([]PlayerInfo, 0, len(req.Players))
		for _, p := range req.Players {
			players = append(players, PlayerInfo{Name: p.Name, Icon: p.Icon, Color: p.Color})
		}
		return g.StartGame(players)
	case protocol.TypeSelectRegion:
		id := model.NoRegion
		if req.RegionID != nil {
			id = *req.RegionID
		}
		return g.SelectRegion(id)
	case protocol.TypePerformAction:
		kind, ok := actions.ParseKind(req.Action)
		if !ok {
			return g.fail(res, protocol.ErrBadRequest, fmt.Sprintf("unknown action %q", req.Action)), nil
		}
		ar := actions.Request{Kind: kind, RegionID: model.NoRegion, Structure: model.StructureKind(req.Structure)}
		if req.RegionID != nil {
			ar.RegionID = *req.RegionID
		}
		return g.PerformAction(ar)
	case protocol.TypeEndTurn:
		return g.EndTurn()
	case protocol.TypeProposeNegotiation:
		if req.Target == nil {
			return g.fail(res, protocol.ErrBadRequest, "missing target"), nil
		}
		offer, err := BundleFromMsg(req.Offer)
		if err != nil {
			return g.fail(res, protocol.ErrBadRequest, "offer: "+err.Error()), nil
		}
		request, err := BundleFromMsg(req.Request)
		if err != nil {
			return g.fail(res, protocol.ErrBadRequest, "request: "+err.Error()), nil
		}
		return g.ProposeNegotiation(*req.Target, offer, request)
	case protocol.TypeRespondNegotiation:
		if req.Accept == nil {
			return g.fail(res, protocol.ErrBadRequest, "missing accept"), nil
		}
		return g.RespondNegotiation(*req.Accept)
	default:
		return g.fail(res, protocol.ErrBadRequest, fmt.Sprintf("unsupported request type %q", req.Type)), nil
	}
}

// Save writes the resumable snapshot to path.
func (g *Game) Save(path string) (snapshot.Header, error) {
	snap, err := g.Snapshot()
	if err != nil {
		return snapshot.Header{}, err
	}
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return snapshot.Header{}, fmt.Errorf("save %s: %w", g.id, err)
	}
	g.logger.Printf("game %s: saved turn %d to %s", g.id, snap.Header.Turn, path)
	return snap.Header, nil
}
