package mapgen

import (
	"testing"

	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/rng"
)

func TestRegionName(t *testing.T) {
	cases := []struct {
		id   int
		want string
	}{
		{0, "Forest A1"},
		{7, "Forest B3"},
		{24, "Forest E5"},
	}
	for _, tc := range cases {
		if got := RegionName(model.Forest, 5, tc.id); got != tc.want {
			t.Fatalf("RegionName(%d) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestGenerate_IsDeterministicAndStocked(t *testing.T) {
	cats := catalogs.Default()
	a := Generate(5, 5, cats.Biomes, rng.New(42))
	b := Generate(5, 5, cats.Biomes, rng.New(42))
	if len(a) != 25 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i].Biome != b[i].Biome {
			t.Fatalf("region %d differs between equal seeds", i)
		}
		if a[i].ID != i || a[i].Controller != model.Unclaimed {
			t.Fatalf("region %d badly initialized: %+v", i, a[i])
		}
		if a[i].Resources != cats.Biomes.ByID[a[i].Biome].Stock {
			t.Fatalf("region %d stock does not match biome", i)
		}
	}
}

func TestPickBiome_FollowsWeights(t *testing.T) {
	cats := catalogs.Default()
	// The last ticket of the weight range must land on the last biome.
	total := 0
	for _, id := range cats.Biomes.Order {
		total += cats.Biomes.ByID[id].Weight
	}
	last := cats.Biomes.Order[len(cats.Biomes.Order)-1]
	if got := PickBiome(cats.Biomes, &rng.Fixed{Ints: []int{total - 1}}); got != last {
		t.Fatalf("got %s, want %s", got, last)
	}
	if got := PickBiome(cats.Biomes, &rng.Fixed{}); got != cats.Biomes.Order[0] {
		t.Fatalf("got %s, want %s", got, cats.Biomes.Order[0])
	}
}

func TestSeatPlayers_DistinctHomes(t *testing.T) {
	cats := catalogs.Default()
	st := &model.GameState{Regions: Generate(5, 5, cats.Biomes, rng.New(3)), Winner: -1}
	for i := 0; i < 6; i++ {
		st.Players = append(st.Players, &model.Player{ID: i})
	}
	if err := SeatPlayers(st, 1, rng.New(3)); err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for _, p := range st.Players {
		if seen[p.HomeRegion] {
			t.Fatalf("home %d assigned twice", p.HomeRegion)
		}
		seen[p.HomeRegion] = true
		if st.Regions[p.HomeRegion].ExplorationLevel != 1 || len(p.Regions) != 1 {
			t.Fatalf("player %d home not prepared", p.ID)
		}
	}
	if err := st.CheckConsistency(); err != nil {
		t.Fatal(err)
	}
}

func TestSeatPlayers_TooManyPlayers(t *testing.T) {
	st := &model.GameState{Regions: Generate(1, 1, catalogs.Default().Biomes, rng.New(1))}
	st.Players = []*model.Player{{ID: 0}, {ID: 1}}
	if err := SeatPlayers(st, 1, rng.New(1)); err == nil {
		t.Fatal("expected error")
	}
}
