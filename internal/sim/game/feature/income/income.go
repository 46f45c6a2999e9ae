// Package income derives a player's per-turn resource and PV gain.
//
// Per region: biome base rate x exploration multiplier, plus a chance of
// bonus gold at the bonus level, plus structure income (not multiplied).
// Totals are then scaled by event income multipliers and floored once.
// Structure PV income is kept apart and never multiplied.
package income

import (
	"math"

	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/rng"
	"terrania.game/internal/sim/tuning"
)

type Result struct {
	Resources model.Resources
	PV        int
}

func (r Result) IsZero() bool { return r.Resources.IsZero() && r.PV == 0 }

// ExplorationMultiplier returns the stepped multiplier for level.
func ExplorationMultiplier(t tuning.IncomeTuning, level int) float64 {
	if level < 0 {
		level = 0
	}
	if level >= len(t.ExplorationMultipliers) {
		level = len(t.ExplorationMultipliers) - 1
	}
	if level < 0 {
		return 1
	}
	return t.ExplorationMultipliers[level]
}

// RegionRates is one region's contribution before event multipliers.
func RegionRates(r *model.Region, cats *catalogs.Catalogs, t tuning.IncomeTuning, src rng.Source) (model.Rates, int) {
	var acc model.Rates
	pv := 0
	biome, ok := cats.Biomes.ByID[r.Biome]
	if ok {
		mult := ExplorationMultiplier(t, r.ExplorationLevel)
		for _, k := range model.ResourceKinds {
			acc.Add(k, float64(biome.Rate.Get(k))*mult)
		}
	}
	if t.BonusGold > 0 && r.ExplorationLevel == t.BonusGoldLevel && rng.Chance(src, t.BonusGoldChance) {
		acc.Add(model.Gold, float64(t.BonusGold))
	}
	for _, kind := range r.Structures {
		def, ok := cats.Structures.ByID[kind]
		if !ok {
			continue
		}
		for _, k := range model.ResourceKinds {
			acc.Add(k, float64(def.Income.Get(k)))
		}
		pv += def.IncomePV
	}
	return acc, pv
}

// Compute returns the income player would receive this turn. It reads
// state only; randomness comes from src.
func Compute(st *model.GameState, playerID int, cats *catalogs.Catalogs, t tuning.IncomeTuning, src rng.Source) Result {
	p, ok := st.Player(playerID)
	if !ok || len(p.Regions) == 0 {
		return Result{}
	}
	var total model.Rates
	pv := 0
	for _, id := range p.Regions {
		r, ok := st.Region(id)
		if !ok || r.Controller != playerID {
			continue
		}
		acc, rpv := RegionRates(r, cats, t, src)
		for _, k := range model.ResourceKinds {
			total.Add(k, acc.Get(k))
		}
		pv += rpv
	}
	var out Result
	for _, k := range model.ResourceKinds {
		v := total.Get(k) * st.Modifiers.IncomeFactor(k)
		out.Resources.Set(k, int(math.Floor(v+1e-9)))
	}
	out.PV = pv
	return out
}

// Apply credits res to the player's ledger and PV and updates the peak
// trackers.
func Apply(p *model.Player, res Result) {
	for _, k := range model.ResourceKinds {
		p.Resources.Add(k, res.Resources.Get(k))
	}
	p.AddPV(res.PV)
	p.TrackPeak()
}
