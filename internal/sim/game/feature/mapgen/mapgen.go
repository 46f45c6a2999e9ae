// Package mapgen lays out the region grid and seats players on it.
package mapgen

import (
	"fmt"

	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/rng"
)

// RegionName labels a cell by row letter and column number, e.g. "C4".
func RegionName(biome model.Biome, width, id int) string {
	if width <= 0 {
		width = 1
	}
	row, col := id/width, id%width
	label := ""
	for row >= 0 {
		label = string(rune('A'+row%26)) + label
		row = row/26 - 1
	}
	return fmt.Sprintf("%s %s%d", biome, label, col+1)
}

// PickBiome draws a biome with probability proportional to its weight.
func PickBiome(cat catalogs.BiomeCatalog, src rng.Source) model.Biome {
	total := 0
	for _, id := range cat.Order {
		total += cat.ByID[id].Weight
	}
	if total <= 0 || len(cat.Order) == 0 {
		return model.Plains
	}
	n := src.IntN(total)
	for _, id := range cat.Order {
		w := cat.ByID[id].Weight
		if n < w {
			return id
		}
		n -= w
	}
	return cat.Order[len(cat.Order)-1]
}

// Generate builds width*height unclaimed regions with biome stock.
func Generate(width, height int, cat catalogs.BiomeCatalog, src rng.Source) []*model.Region {
	n := width * height
	out := make([]*model.Region, 0, n)
	for id := 0; id < n; id++ {
		b := PickBiome(cat, src)
		out = append(out, &model.Region{
			ID:         id,
			Name:       RegionName(b, width, id),
			Biome:      b,
			Resources:  cat.ByID[b].Stock,
			Controller: model.Unclaimed,
		})
	}
	return out
}

// SeatPlayers gives every player a distinct random home region explored
// to homeLevel. It needs at least one region per player.
func SeatPlayers(st *model.GameState, homeLevel int, src rng.Source) error {
	if len(st.Players) > len(st.Regions) {
		return fmt.Errorf("seat players: %d players on %d regions", len(st.Players), len(st.Regions))
	}
	free := make([]int, len(st.Regions))
	for i := range free {
		free[i] = i
	}
	for _, p := range st.Players {
		j := src.IntN(len(free))
		id := free[j]
		free = append(free[:j], free[j+1:]...)
		if err := st.TransferRegion(id, p.ID); err != nil {
			return err
		}
		st.Regions[id].ExplorationLevel = homeLevel
		p.HomeRegion = id
		p.Counters.Biomes = st.ControlledBiomes(p.ID)
	}
	return nil
}
