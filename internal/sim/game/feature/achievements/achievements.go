// Package achievements derives newly unlocked achievements from a
// player's cumulative counters. It never mutates game state.
package achievements

import (
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/kernel/model"
)

// Value reads the counter an achievement consumes. Flags read as 0/1.
func Value(c model.Counters, counter catalogs.Counter) int {
	switch counter {
	case catalogs.CounterExplored:
		return c.Explored
	case catalogs.CounterBuilt:
		return c.Built
	case catalogs.CounterCollected:
		return c.Collected
	case catalogs.CounterNegotiations:
		return c.Negotiations
	case catalogs.CounterBiomes:
		return c.Biomes
	case catalogs.CounterPeakResource:
		return c.PeakResource
	case catalogs.CounterPeakTotal:
		return c.PeakTotal
	case catalogs.CounterVictoryTurn:
		return c.VictoryTurn
	case catalogs.CounterNegotiated:
		if c.Negotiated {
			return 1
		}
	}
	return 0
}

// Crossed reports whether def's threshold is met. Victory-only
// definitions are never met before the player has won.
func Crossed(def catalogs.AchievementDef, c model.Counters, won bool) bool {
	if def.VictoryOnly && !won {
		return false
	}
	v := Value(c, def.Counter)
	if def.Compare == catalogs.AtMost {
		return v <= def.Threshold
	}
	return v >= def.Threshold
}

// Evaluate returns, in catalog order, the achievements whose threshold
// is crossed and that are not in unlocked. Calling it again after
// recording the result returns nothing.
func Evaluate(c model.Counters, unlocked []string, won bool, cat catalogs.AchievementCatalog) []catalogs.AchievementDef {
	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}
	var out []catalogs.AchievementDef
	for _, id := range cat.Order {
		if have[id] {
			continue
		}
		def := cat.ByID[id]
		if Crossed(def, c, won) {
			out = append(out, def)
		}
	}
	return out
}

// Record evaluates p and appends the new unlocks to p.Unlocked.
func Record(p *model.Player, won bool, cat catalogs.AchievementCatalog) []catalogs.AchievementDef {
	fresh := Evaluate(p.Counters, p.Unlocked, won, cat)
	for _, def := range fresh {
		p.Unlocked = append(p.Unlocked, def.ID)
	}
	return fresh
}
