// Package negotiation implements the two-step trade handshake between
// players: a proposal is validated and paid for when created, then
// re-validated against the live state when the target accepts.
package negotiation

import (
	"fmt"

	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/game/feature/actions"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/tuning"
)

// Resolution reports how a response settled the active proposal.
type Resolution struct {
	Proposal model.Proposal
	Accepted bool
	// Stale is set when an accept failed re-validation and the proposal
	// was rejected automatically.
	Stale  bool
	Reason string
	// Next is the proposal now presented to the current player, if any.
	Next string
}

func checkBundle(st *model.GameState, b model.Bundle, side string) (bool, string, string) {
	if b.Resources.HasNegative() {
		return false, protocol.ErrBadRequest, fmt.Sprintf("%s has negative quantities", side)
	}
	seen := map[int]bool{}
	for _, id := range b.Regions {
		if _, ok := st.Region(id); !ok {
			return false, protocol.ErrInvalidTarget, fmt.Sprintf("%s names unknown region %d", side, id)
		}
		if seen[id] {
			return false, protocol.ErrBadRequest, fmt.Sprintf("%s lists region %d twice", side, id)
		}
		seen[id] = true
	}
	return true, "", ""
}

// holds reports whether player p still has every resource and region in b.
func holds(st *model.GameState, p *model.Player, b model.Bundle) (bool, string) {
	if !p.Resources.Covers(b.Resources) {
		return false, fmt.Sprintf("%s is missing %s", p.Name, p.Resources.Missing(b.Resources))
	}
	for _, id := range b.Regions {
		r, ok := st.Region(id)
		if !ok || r.Controller != p.ID {
			return false, fmt.Sprintf("%s no longer controls region %d", p.Name, id)
		}
	}
	return true, ""
}

// Validate checks a proposal from the current player to target.
func Validate(st *model.GameState, t tuning.Tuning, target int, offer, request model.Bundle) (ok bool, code string, msg string) {
	if ok, code, msg := actions.CheckTurn(st, model.PhaseNegotiation); !ok {
		return false, code, msg
	}
	from := st.Current()
	if from == nil {
		return false, protocol.ErrInternal, "no current player"
	}
	to, exists := st.Player(target)
	if !exists {
		return false, protocol.ErrInvalidTarget, fmt.Sprintf("player %d does not exist", target)
	}
	if to.ID == from.ID {
		return false, protocol.ErrInvalidTarget, "cannot negotiate with yourself"
	}
	if offer.IsEmpty() && request.IsEmpty() {
		return false, protocol.ErrBadRequest, "proposal is empty"
	}
	if ok, code, msg := checkBundle(st, offer, "offer"); !ok {
		return false, code, msg
	}
	if ok, code, msg := checkBundle(st, request, "request"); !ok {
		return false, code, msg
	}
	for _, id := range offer.Regions {
		for _, rid := range request.Regions {
			if id == rid {
				return false, protocol.ErrBadRequest, fmt.Sprintf("region %d is both offered and requested", id)
			}
		}
	}
	for _, id := range offer.Regions {
		if r, _ := st.Region(id); r.Controller != from.ID {
			return false, protocol.ErrInvalidTarget, fmt.Sprintf("you do not control %s", r.Name)
		}
	}
	for _, id := range request.Regions {
		if r, _ := st.Region(id); r.Controller != to.ID {
			return false, protocol.ErrInvalidTarget, fmt.Sprintf("%s does not control %s", to.Name, r.Name)
		}
	}
	need := offer.Resources
	need.Add(model.Gold, t.NegotiationFeeGold)
	if !from.Resources.Covers(need) {
		return false, protocol.ErrNoResource, fmt.Sprintf("offer plus the %d gold fee needs %s more", t.NegotiationFeeGold, from.Resources.Missing(need))
	}
	return true, "", ""
}

// Propose validates and records a proposal. The fee and the negotiation
// action are spent immediately; the fee is not refunded on rejection.
func Propose(st *model.GameState, t tuning.Tuning, target int, offer, request model.Bundle) (p *model.Proposal, ok bool, code string, msg string) {
	if ok, code, msg := Validate(st, t, target, offer, request); !ok {
		return nil, false, code, msg
	}
	from := st.Current()
	from.Resources.Sub(model.Gold, t.NegotiationFeeGold)
	st.ActionsLeft--
	st.NegotiationTarget = -1
	st.NextProposal++
	p = &model.Proposal{
		ID:          model.ProposalID(st.NextProposal),
		Initiator:   from.ID,
		Target:      target,
		Offer:       offer.Normalized(),
		Request:     request.Normalized(),
		Status:      model.ProposalPending,
		CreatedTurn: st.Turn,
	}
	st.Pending = append(st.Pending, p)
	return p, true, "", ""
}

// Present makes the oldest pending proposal addressed to the current
// player the active one, unless one is already active.
func Present(st *model.GameState) string {
	if st.ActiveNegotiation != "" {
		if p, ok := st.FindProposal(st.ActiveNegotiation); ok && p.Target == st.CurrentPlayer {
			return st.ActiveNegotiation
		}
		st.ActiveNegotiation = ""
	}
	if in := st.PendingFor(st.CurrentPlayer); len(in) > 0 {
		st.ActiveNegotiation = in[0].ID
	}
	return st.ActiveNegotiation
}

// Respond resolves the active proposal on behalf of the current player.
// An accept that no longer validates is rejected with E_STALE and leaves
// every ledger and region untouched.
func Respond(st *model.GameState, t tuning.Tuning, accept bool) (res Resolution, ok bool, code string, msg string, err error) {
	if st.Halted() {
		return res, false, protocol.ErrGameOver, "the game is over", nil
	}
	if st.ActiveNegotiation == "" {
		return res, false, protocol.ErrInvalidTarget, "no proposal is awaiting your answer", nil
	}
	prop, found := st.FindProposal(st.ActiveNegotiation)
	if !found {
		st.ActiveNegotiation = ""
		return res, false, protocol.ErrInvalidTarget, "the presented proposal no longer exists", nil
	}
	if prop.Target != st.CurrentPlayer {
		return res, false, protocol.ErrNoPermission, "only the addressed player may answer this proposal", nil
	}

	from, okFrom := st.Player(prop.Initiator)
	to, okTo := st.Player(prop.Target)
	if !okFrom || !okTo {
		return res, false, protocol.ErrInternal, "internal error", fmt.Errorf("proposal %s references unknown players %d/%d", prop.ID, prop.Initiator, prop.Target)
	}

	finish := func(status model.ProposalStatus) {
		prop.Status = status
		res.Proposal = *prop
		st.RemoveProposal(prop.ID)
		res.Next = Present(st)
	}

	if !accept {
		finish(model.ProposalRejected)
		return res, true, "", "", nil
	}

	if good, why := holds(st, from, prop.Offer); !good {
		res.Stale, res.Reason = true, why
		finish(model.ProposalRejected)
		return res, false, protocol.ErrStale, "proposal can no longer be executed: " + why, nil
	}
	if good, why := holds(st, to, prop.Request); !good {
		res.Stale, res.Reason = true, why
		finish(model.ProposalRejected)
		return res, false, protocol.ErrStale, "proposal can no longer be executed: " + why, nil
	}

	for _, id := range prop.Offer.Regions {
		if err := st.TransferRegion(id, to.ID); err != nil {
			return res, false, protocol.ErrInternal, "internal error", err
		}
	}
	for _, id := range prop.Request.Regions {
		if err := st.TransferRegion(id, from.ID); err != nil {
			return res, false, protocol.ErrInternal, "internal error", err
		}
	}
	from.Resources = from.Resources.Minus(prop.Offer.Resources).Plus(prop.Request.Resources)
	to.Resources = to.Resources.Minus(prop.Request.Resources).Plus(prop.Offer.Resources)
	for _, p := range []*model.Player{from, to} {
		p.AddPV(t.NegotiationPV)
		p.Counters.Negotiations++
		p.Counters.Negotiated = true
		if b := st.ControlledBiomes(p.ID); b > p.Counters.Biomes {
			p.Counters.Biomes = b
		}
		p.TrackPeak()
	}
	res.Accepted = true
	finish(model.ProposalAccepted)
	return res, true, "", "", nil
}

// Describe renders a proposal for notices and the activity log.
func Describe(st *model.GameState, p model.Proposal) string {
	name := func(id int) string {
		if pl, ok := st.Player(id); ok {
			return pl.Name
		}
		return fmt.Sprintf("player %d", id)
	}
	return fmt.Sprintf("%s offers %s to %s for %s", name(p.Initiator), p.Offer, name(p.Target), p.Request)
}
