// Package actions validates and executes the region actions of a turn.
//
// Validation runs every precondition in a fixed order and reports the
// first failure without touching state. Execution only runs after a
// successful validation and cannot fail, so an action is applied fully
// or not at all.
package actions

import (
	"fmt"
	"math"

	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/rng"
	"terrania.game/internal/sim/tuning"
)

type Kind string

const (
	Claim     Kind = "claim"
	Explore   Kind = "explore"
	Collect   Kind = "collect"
	Build     Kind = "build"
	Negotiate Kind = "negotiate"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case Claim, Explore, Collect, Build, Negotiate:
		return k, true
	}
	return "", false
}

// Phase is the phase in which the action kind is allowed.
func (k Kind) Phase() model.Phase {
	if k == Negotiate {
		return model.PhaseNegotiation
	}
	return model.PhaseActions
}

// Terminal kinds consume an action and complete immediately.
func (k Kind) Terminal() bool { return k != Negotiate }

type Request struct {
	Kind Kind
	// RegionID selects the region; model.NoRegion falls back to the
	// state's current selection.
	RegionID  int
	Structure model.StructureKind
}

type Env struct {
	Cats   *catalogs.Catalogs
	Tuning tuning.Tuning
	Rand   rng.Source
}

// Plan is a validated action ready to execute.
type Plan struct {
	Kind      Kind
	PlayerID  int
	RegionID  int
	Structure model.StructureKind
	Cost      model.Resources
	CostPV    int
}

// Outcome describes an executed action.
type Outcome struct {
	Kind     Kind
	PlayerID int
	RegionID int

	Paid   model.Resources
	PaidPV int
	Gained model.Resources
	PV     int

	Structure   model.StructureKind
	NewLevel    int
	Rare        bool
	BonusUnit   model.Resource
	Negotiating int
}

func fail(code, msg string) (Plan, bool, string, string) {
	return Plan{}, false, code, msg
}

// CheckTurn validates the gates shared by every action: halted game,
// phase and action budget.
func CheckTurn(st *model.GameState, phase model.Phase) (ok bool, code string, msg string) {
	if st.Halted() {
		return false, protocol.ErrGameOver, "the game is over"
	}
	if st.Phase != phase {
		return false, protocol.ErrPhase, fmt.Sprintf("only allowed during the %s phase (now %s)", phase, st.Phase)
	}
	if st.ActionsLeft <= 0 {
		return false, protocol.ErrNoActions, "no actions left this phase"
	}
	return true, "", ""
}

// Validate checks req against the current state in order: halted, phase,
// budget, region selection, ownership, action-specific rules and finally
// affordability (resources, then PV).
func Validate(st *model.GameState, env Env, req Request) (plan Plan, ok bool, code string, msg string) {
	if ok, code, msg := CheckTurn(st, req.Kind.Phase()); !ok {
		return fail(code, msg)
	}
	p := st.Current()
	if p == nil {
		return fail(protocol.ErrInternal, "no current player")
	}

	regionID := req.RegionID
	if regionID == model.NoRegion {
		regionID = st.SelectedRegion
	}
	if regionID == model.NoRegion {
		return fail(protocol.ErrInvalidTarget, "select a region first")
	}
	r, exists := st.Region(regionID)
	if !exists {
		return fail(protocol.ErrInvalidTarget, fmt.Sprintf("region %d does not exist", regionID))
	}

	plan = Plan{Kind: req.Kind, PlayerID: p.ID, RegionID: r.ID}

	switch req.Kind {
	case Claim:
		if r.Claimed() {
			return fail(protocol.ErrInvalidTarget, fmt.Sprintf("%s is already controlled", r.Name))
		}
		plan.Cost = r.Resources
		plan.CostPV = env.Tuning.Actions.ClaimPVCost
	case Explore:
		if r.Controller != p.ID {
			return fail(protocol.ErrInvalidTarget, fmt.Sprintf("you do not control %s", r.Name))
		}
		if r.ExplorationLevel >= model.MaxExplorationLevel {
			return fail(protocol.ErrInvalidTarget, fmt.Sprintf("%s is fully explored", r.Name))
		}
		plan.Cost = ExploreCost(st, env.Tuning)
	case Collect:
		if r.Controller != p.ID {
			return fail(protocol.ErrInvalidTarget, fmt.Sprintf("you do not control %s", r.Name))
		}
		if r.ExplorationLevel < 1 {
			return fail(protocol.ErrInvalidTarget, fmt.Sprintf("explore %s before collecting", r.Name))
		}
		if Harvest(r, env.Tuning).IsZero() {
			return fail(protocol.ErrNoResource, fmt.Sprintf("%s is depleted", r.Name))
		}
		plan.Cost = env.Tuning.Actions.CollectCost
	case Build:
		if r.Controller != p.ID {
			return fail(protocol.ErrInvalidTarget, fmt.Sprintf("you do not control %s", r.Name))
		}
		def, known := env.Cats.Structures.ByID[req.Structure]
		if !known {
			return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown structure %q", req.Structure))
		}
		if r.HasStructure(def.ID) {
			return fail(protocol.ErrDuplicateStructure, fmt.Sprintf("%s already has a %s", r.Name, def.Name))
		}
		if len(r.Structures) >= env.Tuning.Actions.MaxStructuresPerRegion {
			return fail(protocol.ErrStructureLimit, fmt.Sprintf("%s cannot hold more than %d structures", r.Name, env.Tuning.Actions.MaxStructuresPerRegion))
		}
		plan.Structure = def.ID
		plan.Cost = BuildCost(st, r, def, env.Tuning)
	case Negotiate:
		if !r.Claimed() || r.Controller == p.ID {
			return fail(protocol.ErrInvalidTarget, fmt.Sprintf("%s does not belong to another player", r.Name))
		}
	default:
		return fail(protocol.ErrBadRequest, fmt.Sprintf("unknown action %q", req.Kind))
	}

	if !p.Resources.Covers(plan.Cost) {
		return fail(protocol.ErrNoResource, fmt.Sprintf("not enough resources: missing %s", p.Resources.Missing(plan.Cost)))
	}
	if plan.CostPV > 0 && p.VictoryPoints < plan.CostPV {
		return fail(protocol.ErrNoPV, fmt.Sprintf("needs %d victory points, you have %d", plan.CostPV, p.VictoryPoints))
	}
	return plan, true, "", ""
}

// ExploreCost is the base explore cost minus active discounts.
func ExploreCost(st *model.GameState, t tuning.Tuning) model.Resources {
	return t.Actions.ExploreCost.Minus(st.Modifiers.ExploreDiscount())
}

// BuildCost applies the fully-explored discount, then event surcharges.
func BuildCost(st *model.GameState, r *model.Region, def catalogs.StructureDef, t tuning.Tuning) model.Resources {
	cost := def.Cost
	if r.ExplorationLevel >= model.MaxExplorationLevel && t.Actions.DeepBuildDiscount > 0 {
		for _, k := range model.ResourceKinds {
			if v := cost.Get(k); v > 0 {
				cost.Sub(k, t.Actions.DeepBuildDiscount)
			}
		}
	}
	return cost.Plus(st.Modifiers.BuildSurcharge())
}

// Harvest is what collecting r would yield now.
func Harvest(r *model.Region, t tuning.Tuning) model.Resources {
	frac := t.Actions.CollectFraction
	if r.ExplorationLevel >= model.MaxExplorationLevel {
		frac = t.Actions.CollectFractionDeep
	}
	var out model.Resources
	for _, k := range model.ResourceKinds {
		out.Set(k, int(math.Floor(float64(r.Resources.Get(k))*frac+1e-9)))
	}
	return out
}

// Execute applies a validated plan. It must only be called with a plan
// returned by Validate against the same, unchanged state.
func Execute(st *model.GameState, env Env, plan Plan) (Outcome, error) {
	p, ok := st.Player(plan.PlayerID)
	if !ok {
		return Outcome{}, fmt.Errorf("execute %s: player %d out of range", plan.Kind, plan.PlayerID)
	}
	r, ok := st.Region(plan.RegionID)
	if !ok {
		return Outcome{}, fmt.Errorf("execute %s: region %d out of range", plan.Kind, plan.RegionID)
	}
	out := Outcome{Kind: plan.Kind, PlayerID: p.ID, RegionID: r.ID}

	if plan.Kind == Negotiate {
		st.NegotiationTarget = r.Controller
		out.Negotiating = r.Controller
		return out, nil
	}

	// Claim moves ownership first: it is the only step that can fail and
	// nothing has been paid yet.
	if plan.Kind == Claim {
		if err := st.TransferRegion(r.ID, p.ID); err != nil {
			return Outcome{}, err
		}
	}

	p.Resources = p.Resources.Minus(plan.Cost)
	p.AddPV(-plan.CostPV)
	out.Paid = plan.Cost
	out.PaidPV = plan.CostPV

	switch plan.Kind {
	case Claim:
		if b := st.ControlledBiomes(p.ID); b > p.Counters.Biomes {
			p.Counters.Biomes = b
		}
	case Explore:
		r.ExplorationLevel++
		out.NewLevel = r.ExplorationLevel
		out.PV = env.Tuning.Actions.ExplorePV
		if rng.Chance(env.Rand, env.Tuning.Actions.RareDiscoveryChance) {
			out.Rare = true
			out.Gained.Add(model.Gold, env.Tuning.Actions.RareDiscoveryGold)
		}
		p.Counters.Explored++
	case Collect:
		h := Harvest(r, env.Tuning)
		r.Resources = r.Resources.Minus(h)
		out.Gained = h
		if r.ExplorationLevel >= env.Tuning.Actions.CollectBonusMinLevel && env.Rand != nil {
			k := model.ResourceKinds[env.Rand.IntN(len(model.ResourceKinds))]
			out.BonusUnit = k
			out.Gained.Add(k, 1)
		}
		out.PV = env.Tuning.Actions.CollectPV
		p.Counters.Collected++
	case Build:
		def := env.Cats.Structures.ByID[plan.Structure]
		r.AddStructure(def.ID)
		out.Structure = def.ID
		out.PV = def.BonusPV + st.Modifiers.BuildBonusPV()
		p.Counters.Built++
	}

	p.Resources = p.Resources.Plus(out.Gained)
	p.AddPV(out.PV)
	p.TrackPeak()

	st.ActionsLeft--
	st.SelectedRegion = model.NoRegion
	return out, nil
}

// Perform validates and, on success, executes req.
func Perform(st *model.GameState, env Env, req Request) (out Outcome, ok bool, code string, msg string, err error) {
	plan, ok, code, msg := Validate(st, env, req)
	if !ok {
		return Outcome{}, false, code, msg, nil
	}
	out, err = Execute(st, env, plan)
	if err != nil {
		return Outcome{}, false, protocol.ErrInternal, "internal error", err
	}
	return out, true, "", "", nil
}

// Describe renders a one-line summary of a successful outcome.
func Describe(st *model.GameState, out Outcome) string {
	name := fmt.Sprintf("region %d", out.RegionID)
	if r, ok := st.Region(out.RegionID); ok && r.Name != "" {
		name = r.Name
	}
	switch out.Kind {
	case Claim:
		return fmt.Sprintf("claimed %s for %s and %d PV", name, out.Paid, out.PaidPV)
	case Explore:
		s := fmt.Sprintf("explored %s to level %d (+%d PV)", name, out.NewLevel, out.PV)
		if out.Rare {
			s += fmt.Sprintf(", rare discovery: %s", out.Gained)
		}
		return s
	case Collect:
		return fmt.Sprintf("collected %s from %s (+%d PV)", out.Gained, name, out.PV)
	case Build:
		return fmt.Sprintf("built a %s on %s (+%d PV)", out.Structure, name, out.PV)
	case Negotiate:
		return fmt.Sprintf("opened negotiations over %s with player %d", name, out.Negotiating)
	}
	return string(out.Kind)
}
