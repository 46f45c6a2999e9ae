package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"terrania.game/internal/sim/game/kernel/model"
)

type Tuning struct {
	GridWidth  int `yaml:"grid_width" json:"grid_width"`
	GridHeight int `yaml:"grid_height" json:"grid_height"`
	MinPlayers int `yaml:"min_players" json:"min_players"`
	MaxPlayers int `yaml:"max_players" json:"max_players"`

	ActionsPerTurn     int `yaml:"actions_per_turn" json:"actions_per_turn"`
	NegotiationActions int `yaml:"negotiation_actions" json:"negotiation_actions"`
	VictoryThreshold   int `yaml:"victory_threshold" json:"victory_threshold"`

	StartingResources model.Resources `yaml:"starting_resources" json:"starting_resources"`
	StartingPV        int             `yaml:"starting_pv" json:"starting_pv"`
	HomeExploration   int             `yaml:"home_exploration" json:"home_exploration"`

	Income  IncomeTuning  `yaml:"income" json:"income"`
	Actions ActionsTuning `yaml:"actions" json:"actions"`

	NegotiationFeeGold int `yaml:"negotiation_fee_gold" json:"negotiation_fee_gold"`
	NegotiationPV      int `yaml:"negotiation_pv" json:"negotiation_pv"`

	EventIntervalRounds int `yaml:"event_interval_rounds" json:"event_interval_rounds"`
	ActivityLogSize     int `yaml:"activity_log_size" json:"activity_log_size"`
}

type IncomeTuning struct {
	// ExplorationMultipliers is indexed by exploration level.
	ExplorationMultipliers []float64 `yaml:"exploration_multipliers" json:"exploration_multipliers"`
	BonusGoldLevel         int       `yaml:"bonus_gold_level" json:"bonus_gold_level"`
	BonusGoldChance        float64   `yaml:"bonus_gold_chance" json:"bonus_gold_chance"`
	BonusGold              int       `yaml:"bonus_gold" json:"bonus_gold"`
}

type ActionsTuning struct {
	ClaimPVCost int `yaml:"claim_pv_cost" json:"claim_pv_cost"`

	ExploreCost         model.Resources `yaml:"explore_cost" json:"explore_cost"`
	ExplorePV           int             `yaml:"explore_pv" json:"explore_pv"`
	RareDiscoveryChance float64         `yaml:"rare_discovery_chance" json:"rare_discovery_chance"`
	RareDiscoveryGold   int             `yaml:"rare_discovery_gold" json:"rare_discovery_gold"`

	CollectCost          model.Resources `yaml:"collect_cost" json:"collect_cost"`
	CollectPV            int             `yaml:"collect_pv" json:"collect_pv"`
	CollectFraction      float64         `yaml:"collect_fraction" json:"collect_fraction"`
	CollectFractionDeep  float64         `yaml:"collect_fraction_deep" json:"collect_fraction_deep"`
	CollectBonusMinLevel int             `yaml:"collect_bonus_min_level" json:"collect_bonus_min_level"`

	MaxStructuresPerRegion int `yaml:"max_structures_per_region" json:"max_structures_per_region"`
	// DeepBuildDiscount is removed from every resource of a build cost on
	// fully explored regions.
	DeepBuildDiscount int `yaml:"deep_build_discount" json:"deep_build_discount"`
}

func Defaults() Tuning {
	return Tuning{
		GridWidth:          5,
		GridHeight:         5,
		MinPlayers:         2,
		MaxPlayers:         6,
		ActionsPerTurn:     3,
		NegotiationActions: 1,
		VictoryThreshold:   25,
		StartingResources:  model.Resources{Wood: 5, Stone: 5, Gold: 5, Water: 5},
		StartingPV:         3,
		HomeExploration:    1,
		Income: IncomeTuning{
			ExplorationMultipliers: []float64{1, 1.25, 1.5, 2},
			BonusGoldLevel:         2,
			BonusGoldChance:        0.2,
			BonusGold:              1,
		},
		Actions: ActionsTuning{
			ClaimPVCost:            2,
			ExploreCost:            model.Resources{Wood: 2, Gold: 1},
			ExplorePV:              1,
			RareDiscoveryChance:    0.1,
			RareDiscoveryGold:      3,
			CollectCost:            model.Resources{Water: 1},
			CollectPV:              1,
			CollectFraction:        0.5,
			CollectFractionDeep:    0.75,
			CollectBonusMinLevel:   1,
			MaxStructuresPerRegion: 3,
			DeepBuildDiscount:      1,
		},
		NegotiationFeeGold:  1,
		NegotiationPV:       1,
		EventIntervalRounds: 3,
		ActivityLogSize:     15,
	}
}

// Load reads path over the defaults; keys missing from the file keep
// their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) GridSize() int { return t.GridWidth * t.GridHeight }

func (t Tuning) Validate() error {
	if t.GridWidth <= 0 || t.GridHeight <= 0 {
		return fmt.Errorf("grid must be at least 1x1")
	}
	if t.MinPlayers < 2 || t.MaxPlayers < t.MinPlayers {
		return fmt.Errorf("bad player bounds %d..%d", t.MinPlayers, t.MaxPlayers)
	}
	if t.MaxPlayers > t.GridSize() {
		return fmt.Errorf("grid of %d regions cannot seat %d players", t.GridSize(), t.MaxPlayers)
	}
	if t.ActionsPerTurn <= 0 || t.NegotiationActions < 0 {
		return fmt.Errorf("bad action allowance")
	}
	if t.VictoryThreshold <= 0 {
		return fmt.Errorf("victory threshold must be positive")
	}
	if len(t.Income.ExplorationMultipliers) != model.MaxExplorationLevel+1 {
		return fmt.Errorf("exploration_multipliers needs %d entries", model.MaxExplorationLevel+1)
	}
	if t.HomeExploration < 0 || t.HomeExploration > model.MaxExplorationLevel {
		return fmt.Errorf("home_exploration out of range")
	}
	if t.StartingResources.HasNegative() || t.Actions.ExploreCost.HasNegative() || t.Actions.CollectCost.HasNegative() {
		return fmt.Errorf("negative costs")
	}
	if t.Actions.CollectFraction <= 0 || t.Actions.CollectFraction > 1 || t.Actions.CollectFractionDeep <= 0 || t.Actions.CollectFractionDeep > 1 {
		return fmt.Errorf("collect fractions must be in (0,1]")
	}
	if t.Actions.MaxStructuresPerRegion <= 0 {
		return fmt.Errorf("max_structures_per_region must be positive")
	}
	if t.NegotiationFeeGold < 0 || t.EventIntervalRounds <= 0 {
		return fmt.Errorf("bad negotiation fee or event interval")
	}
	return nil
}
