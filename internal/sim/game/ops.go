package game

import (
	"fmt"
	"strings"

	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/game/feature/achievements"
	"terrania.game/internal/sim/game/feature/actions"
	"terrania.game/internal/sim/game/feature/events"
	"terrania.game/internal/sim/game/feature/income"
	"terrania.game/internal/sim/game/feature/mapgen"
	"terrania.game/internal/sim/game/feature/negotiation"
	"terrania.game/internal/sim/game/feature/turn"
	"terrania.game/internal/sim/game/kernel/model"
)

type PlayerInfo struct {
	Name  string
	Icon  string
	Color string
}

// StartGame seats the players on a fresh map and runs the first income
// phase, leaving player 0 in Actions.
func (g *Game) StartGame(players []PlayerInfo) (Result, error) {
	var res Result
	if g.Started() {
		return g.fail(res, protocol.ErrConflict, "the game has already started"), nil
	}
	if n := len(players); n < g.tune.MinPlayers || n > g.tune.MaxPlayers {
		return g.fail(res, protocol.ErrBadRequest, fmt.Sprintf("need %d to %d players, got %d", g.tune.MinPlayers, g.tune.MaxPlayers, n)), nil
	}
	seen := map[string]bool{}
	for _, p := range players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return g.fail(res, protocol.ErrBadRequest, "player names must not be empty"), nil
		}
		if seen[strings.ToLower(name)] {
			return g.fail(res, protocol.ErrBadRequest, fmt.Sprintf("duplicate player name %q", name)), nil
		}
		seen[strings.ToLower(name)] = true
	}

	st := &model.GameState{
		GridWidth:  g.tune.GridWidth,
		GridHeight: g.tune.GridHeight,
		Regions:    mapgen.Generate(g.tune.GridWidth, g.tune.GridHeight, g.cats.Biomes, g.rnd),
	}
	for i, info := range players {
		st.Players = append(st.Players, &model.Player{
			ID:            i,
			Name:          strings.TrimSpace(info.Name),
			Icon:          info.Icon,
			Color:         info.Color,
			Resources:     g.tune.StartingResources,
			VictoryPoints: g.tune.StartingPV,
			Regions:       []int{},
			HomeRegion:    model.NoRegion,
		})
	}
	if err := mapgen.SeatPlayers(st, g.tune.HomeExploration, g.rnd); err != nil {
		return g.internal(res, err)
	}
	for _, p := range st.Players {
		p.TrackPeak()
	}
	turn.Start(st, g.tune)
	g.state = st

	g.logger.Printf("game %s: started with %d players (seed %d)", g.id, len(players), g.seed)
	g.activity("game", nil, "start", fmt.Sprintf("%d players on a %dx%d map", len(players), g.tune.GridWidth, g.tune.GridHeight))
	g.notify(&res, protocol.SeveritySuccess, "", fmt.Sprintf("Game started. %s goes first.", st.Players[0].Name))
	if err := g.beginTurn(&res); err != nil {
		return g.internal(res, err)
	}
	res.OK = true
	return res, nil
}

// beginTurn runs the automatic Income -> Actions step for the current
// player and presents any incoming proposal.
func (g *Game) beginTurn(res *Result) error {
	st := g.state
	p := st.Current()
	if p == nil {
		return fmt.Errorf("begin turn: no current player %d", st.CurrentPlayer)
	}
	inc := income.Compute(st, p.ID, g.cats, g.tune.Income, g.rnd)
	income.Apply(p, inc)
	if !inc.IsZero() {
		details := inc.Resources.String()
		if inc.PV > 0 {
			details += fmt.Sprintf(", +%d PV", inc.PV)
		}
		g.activity("income", p, "income", details)
	}
	g.notify(res, protocol.SeverityInfo, "", fmt.Sprintf("Turn %d: %s collects %s", st.Turn, p.Name, inc.Resources))
	g.unlock(res, p)
	if g.checkVictory(res) {
		return nil
	}
	if err := turn.EnterActions(st, g.tune); err != nil {
		return err
	}
	g.present(res)
	return nil
}

func (g *Game) present(res *Result) {
	id := negotiation.Present(g.state)
	if id == "" {
		return
	}
	if p, ok := g.state.FindProposal(id); ok {
		g.notify(res, protocol.SeverityInfo, "", "Proposal "+id+": "+negotiation.Describe(g.state, *p))
	}
}

// unlock evaluates p's achievements and reports the new ones.
func (g *Game) unlock(res *Result, p *model.Player) {
	won := g.state.Winner == p.ID
	for _, def := range achievements.Record(p, won, g.cats.Achievements) {
		res.Unlocked = append(res.Unlocked, Unlock{PlayerID: p.ID, Def: def})
		g.hooks.OnAchievement(p.ID, def)
		g.activity("achievement", p, def.ID, def.Name)
		g.notify(res, protocol.SeveritySuccess, "", fmt.Sprintf("%s unlocked %s", p.Name, def.Name))
	}
}

// checkVictory halts the game when a player crossed the threshold and
// reports it. It returns true once the game is over.
func (g *Game) checkVictory(res *Result) bool {
	if g.state.Halted() {
		return true
	}
	w := turn.CheckVictory(g.state, g.tune)
	if w < 0 {
		return false
	}
	p := g.state.Players[w]
	g.logger.Printf("game %s: %s wins on turn %d with %d PV", g.id, p.Name, g.state.Turn, p.VictoryPoints)
	g.activity("victory", p, "win", fmt.Sprintf("%d PV on turn %d", p.VictoryPoints, g.state.Turn))
	g.notify(res, protocol.SeveritySuccess, "", fmt.Sprintf("%s wins with %d victory points!", p.Name, p.VictoryPoints))
	g.unlock(res, p)
	return true
}

// SelectRegion sets the transient region pointer; model.NoRegion clears it.
func (g *Game) SelectRegion(regionID int) (Result, error) {
	var res Result
	if !g.Started() {
		return g.fail(res, protocol.ErrPhase, "the game has not started"), nil
	}
	if g.state.Halted() {
		return g.fail(res, protocol.ErrGameOver, ""), nil
	}
	if regionID != model.NoRegion {
		if _, ok := g.state.Region(regionID); !ok {
			return g.fail(res, protocol.ErrInvalidTarget, fmt.Sprintf("region %d does not exist", regionID)), nil
		}
	}
	g.state.SelectedRegion = regionID
	res.OK = true
	return res, nil
}

// PerformAction runs one action for the current player.
func (g *Game) PerformAction(req actions.Request) (Result, error) {
	var res Result
	if !g.Started() {
		return g.fail(res, protocol.ErrPhase, "the game has not started"), nil
	}
	out, ok, code, msg, err := actions.Perform(g.state, g.env(), req)
	if err != nil {
		return g.internal(res, err)
	}
	if !ok {
		return g.fail(res, code, msg), nil
	}
	p := g.state.Players[out.PlayerID]
	desc := actions.Describe(g.state, out)
	res.OK = true
	res.Message = desc
	if !req.Kind.Terminal() {
		g.notify(&res, protocol.SeverityInfo, "", fmt.Sprintf("%s %s", p.Name, desc))
		return res, nil
	}
	g.activity("action", p, string(out.Kind), desc)
	g.notify(&res, protocol.SeveritySuccess, "", fmt.Sprintf("%s %s", p.Name, desc))
	g.unlock(&res, p)
	g.checkVictory(&res)
	if err := g.state.CheckConsistency(); err != nil {
		return g.internal(res, err)
	}
	return res, nil
}

// EndTurn advances the phase machine.
func (g *Game) EndTurn() (Result, error) {
	var res Result
	if !g.Started() {
		return g.fail(res, protocol.ErrPhase, "the game has not started"), nil
	}
	prev := g.state.Current()
	tr, ok, code, msg := turn.EndTurn(g.state, g.tune, g.cats, g.rnd)
	if !ok {
		return g.fail(res, code, msg), nil
	}
	res.OK = true
	if tr.Warning != "" {
		res.Warning = tr.Warning
		g.notify(&res, protocol.SeverityWarning, "", fmt.Sprintf("%s: %s", prev.Name, tr.Warning))
	}
	if tr.To == model.PhaseNegotiation {
		g.notify(&res, protocol.SeverityInfo, "", fmt.Sprintf("%s enters negotiation", prev.Name))
		return res, nil
	}
	g.activity("turn", prev, "end_turn", "")
	g.reportEvent(&res, tr.Event)
	if g.checkVictory(&res) {
		return res, nil
	}
	if err := g.beginTurn(&res); err != nil {
		return g.internal(res, err)
	}
	return res, nil
}

func (g *Game) reportEvent(res *Result, out events.Outcome) {
	if out.Ended != nil {
		g.activity("event", nil, "end", out.Ended.Name)
		g.notify(res, protocol.SeverityInfo, "", fmt.Sprintf("%s has ended", out.Ended.Name))
	}
	if out.Started == nil {
		return
	}
	def := out.Started
	sev := protocol.SeverityInfo
	switch def.Category {
	case model.EventPositive:
		sev = protocol.SeveritySuccess
	case model.EventNegative:
		sev = protocol.SeverityWarning
	}
	g.activity("event", nil, "start", def.Name)
	g.notify(res, sev, "", fmt.Sprintf("Event: %s. %s", def.Name, def.Description))
	g.logger.Printf("game %s: event %s (duration %d)", g.id, def.ID, def.Duration)
	if out.Instant {
		for _, p := range g.state.Players {
			g.unlock(res, p)
		}
	}
}

// TriggerEvent activates a catalog event immediately. Used by admin
// tooling and tests.
func (g *Game) TriggerEvent(id string) (Result, error) {
	var res Result
	if !g.Started() {
		return g.fail(res, protocol.ErrPhase, "the game has not started"), nil
	}
	if g.state.Halted() {
		return g.fail(res, protocol.ErrGameOver, ""), nil
	}
	def, ok := g.cats.Events.ByID[id]
	if !ok {
		return g.fail(res, protocol.ErrBadRequest, fmt.Sprintf("unknown event %q", id)), nil
	}
	g.reportEvent(&res, events.Activate(g.state, def, g.tune.EventIntervalRounds))
	g.checkVictory(&res)
	res.OK = true
	return res, nil
}

// ProposeNegotiation sends a proposal from the current player.
func (g *Game) ProposeNegotiation(target int, offer, request model.Bundle) (Result, error) {
	var res Result
	if !g.Started() {
		return g.fail(res, protocol.ErrPhase, "the game has not started"), nil
	}
	p, ok, code, msg := negotiation.Propose(g.state, g.tune, target, offer, request)
	if !ok {
		return g.fail(res, code, msg), nil
	}
	from := g.state.Players[p.Initiator]
	res.OK = true
	res.ProposalID = p.ID
	res.Message = negotiation.Describe(g.state, *p)
	g.activity("negotiation", from, "propose", p.ID+": "+res.Message)
	g.notify(&res, protocol.SeveritySuccess, "", fmt.Sprintf("Proposal %s sent to %s", p.ID, g.state.Players[p.Target].Name))
	return res, nil
}

// RespondNegotiation answers the proposal presented to the current player.
func (g *Game) RespondNegotiation(accept bool) (Result, error) {
	var res Result
	if !g.Started() {
		return g.fail(res, protocol.ErrPhase, "the game has not started"), nil
	}
	r, ok, code, msg, err := negotiation.Respond(g.state, g.tune, accept)
	if err != nil {
		return g.internal(res, err)
	}
	if !ok && !r.Stale {
		return g.fail(res, code, msg), nil
	}
	res.ProposalID = r.Proposal.ID
	from := g.state.Players[r.Proposal.Initiator]
	to := g.state.Players[r.Proposal.Target]
	switch {
	case r.Stale:
		g.activity("negotiation", to, "auto_reject", r.Proposal.ID+": "+r.Reason)
		res = g.fail(res, code, msg)
	case r.Accepted:
		res.OK = true
		g.activity("negotiation", to, "accept", r.Proposal.ID+": "+negotiation.Describe(g.state, r.Proposal))
		g.notify(&res, protocol.SeveritySuccess, "", fmt.Sprintf("%s accepted %s's proposal %s", to.Name, from.Name, r.Proposal.ID))
		g.unlock(&res, to)
		g.unlock(&res, from)
		g.checkVictory(&res)
		if err := g.state.CheckConsistency(); err != nil {
			return g.internal(res, err)
		}
	default:
		res.OK = true
		g.activity("negotiation", to, "reject", r.Proposal.ID)
		g.notify(&res, protocol.SeverityInfo, "", fmt.Sprintf("%s rejected %s's proposal %s", to.Name, from.Name, r.Proposal.ID))
	}
	if r.Next != "" && !g.state.Halted() {
		if p, ok := g.state.FindProposal(r.Next); ok {
			g.notify(&res, protocol.SeverityInfo, "", "Proposal "+p.ID+": "+negotiation.Describe(g.state, *p))
		}
	}
	return res, nil
}
