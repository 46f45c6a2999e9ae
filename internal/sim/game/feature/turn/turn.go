// Package turn drives the per-player phase cycle
// Income -> Actions -> Negotiation -> Income(next player).
package turn

import (
	"fmt"

	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/feature/events"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/rng"
	"terrania.game/internal/sim/tuning"
)

// Transition describes one end-turn step.
type Transition struct {
	From model.Phase
	To   model.Phase

	// Set when the negotiation phase closed.
	PreviousPlayer int
	Wrapped        bool
	Event          events.Outcome

	// Warning is non-empty when the player left incoming proposals
	// unanswered. It never blocks the transition.
	Warning    string
	Unanswered int
}

// Start puts a freshly seated game at turn 1, player 0, Income.
func Start(st *model.GameState, t tuning.Tuning) {
	st.Turn = 1
	st.CurrentPlayer = 0
	st.Phase = model.PhaseIncome
	st.ActionsLeft = 0
	st.SelectedRegion = model.NoRegion
	st.NegotiationTarget = -1
	st.TurnsUntilNextEvent = t.EventIntervalRounds
	st.Winner = -1
}

// EnterActions completes the automatic Income -> Actions step.
func EnterActions(st *model.GameState, t tuning.Tuning) error {
	if st.Phase != model.PhaseIncome {
		return fmt.Errorf("enter actions from %s", st.Phase)
	}
	st.Phase = model.PhaseActions
	st.ActionsLeft = t.ActionsPerTurn
	st.SelectedRegion = model.NoRegion
	return nil
}

// EndTurn handles an explicit end-turn request. From Actions it opens
// the negotiation phase, forfeiting unused actions. From Negotiation it
// hands over to the next player in Income; wrapping back to player 0
// starts a new turn and ticks the event clock once.
func EndTurn(st *model.GameState, t tuning.Tuning, cats *catalogs.Catalogs, src rng.Source) (tr Transition, ok bool, code string, msg string) {
	if st.Halted() {
		return tr, false, protocol.ErrGameOver, "the game is over"
	}
	if len(st.Players) == 0 {
		return tr, false, protocol.ErrPhase, "the game has not started"
	}
	tr.From = st.Phase
	switch st.Phase {
	case model.PhaseActions:
		st.Phase = model.PhaseNegotiation
		st.ActionsLeft = t.NegotiationActions
		st.SelectedRegion = model.NoRegion
		st.NegotiationTarget = -1
	case model.PhaseNegotiation:
		if in := st.PendingFor(st.CurrentPlayer); len(in) > 0 {
			tr.Unanswered = len(in)
			tr.Warning = fmt.Sprintf("%d incoming proposal(s) left unanswered", len(in))
		}
		tr.PreviousPlayer = st.CurrentPlayer
		st.CurrentPlayer = (st.CurrentPlayer + 1) % len(st.Players)
		st.Phase = model.PhaseIncome
		st.ActionsLeft = 0
		st.SelectedRegion = model.NoRegion
		st.NegotiationTarget = -1
		st.ActiveNegotiation = ""
		if st.CurrentPlayer == 0 {
			tr.Wrapped = true
			st.Turn++
			tr.Event = events.AdvanceRound(st, cats.Events, src, t.EventIntervalRounds)
		}
	default:
		return tr, false, protocol.ErrPhase, fmt.Sprintf("cannot end the %s phase", st.Phase)
	}
	tr.To = st.Phase
	return tr, true, "", ""
}

// CheckVictory halts the game once a player reaches the threshold. The
// current player wins ties, then the lowest id. It returns the winner,
// or -1.
func CheckVictory(st *model.GameState, t tuning.Tuning) int {
	if st.Halted() {
		return st.Winner
	}
	order := make([]*model.Player, 0, len(st.Players))
	if cur := st.Current(); cur != nil {
		order = append(order, cur)
	}
	for _, p := range st.Players {
		if p.ID != st.CurrentPlayer {
			order = append(order, p)
		}
	}
	for _, p := range order {
		if p.VictoryPoints >= t.VictoryThreshold {
			st.Winner = p.ID
			p.Counters.VictoryTurn = st.Turn
			return p.ID
		}
	}
	return -1
}
