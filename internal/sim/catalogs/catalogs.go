package catalogs

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"terrania.game/internal/sim/game/kernel/model"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

type Catalogs struct {
	Biomes       BiomeCatalog
	Structures   StructureCatalog
	Events       EventCatalog
	Achievements AchievementCatalog
}

type BiomeCatalog struct {
	Order  []model.Biome
	ByID   map[model.Biome]BiomeDef
	Digest string
}

type BiomeDef struct {
	ID     model.Biome     `yaml:"id" json:"id"`
	Rate   model.Resources `yaml:"rate" json:"rate"`
	Stock  model.Resources `yaml:"stock" json:"stock"`
	Weight int             `yaml:"weight" json:"weight"`
}

type StructureCatalog struct {
	Order  []model.StructureKind
	ByID   map[model.StructureKind]StructureDef
	Digest string
}

type StructureDef struct {
	ID       model.StructureKind `yaml:"id" json:"id"`
	Name     string              `yaml:"name" json:"name"`
	Cost     model.Resources     `yaml:"cost" json:"cost"`
	Income   model.Resources     `yaml:"income" json:"income"`
	IncomePV int                 `yaml:"income_pv" json:"income_pv,omitempty"`
	BonusPV  int                 `yaml:"bonus_pv" json:"bonus_pv"`
}

type EventCatalog struct {
	Order  []string
	ByID   map[string]EventDef
	Digest string
}

type EventDef struct {
	ID          string              `yaml:"id" json:"id"`
	Name        string              `yaml:"name" json:"name"`
	Category    model.EventCategory `yaml:"category" json:"category"`
	Description string              `yaml:"description" json:"description,omitempty"`
	Duration    int                 `yaml:"duration" json:"duration"`
	Modifiers   []ModifierDef       `yaml:"modifiers" json:"modifiers,omitempty"`
	Instant     InstantDef          `yaml:"instant" json:"instant,omitempty"`
}

type ModifierDef struct {
	Kind     model.ModifierKind `yaml:"kind" json:"kind"`
	Resource model.Resource     `yaml:"resource" json:"resource,omitempty"`
	Factor   float64            `yaml:"factor" json:"factor,omitempty"`
	Amount   int                `yaml:"amount" json:"amount,omitempty"`
}

// InstantDef is applied once to every player by a zero-duration event.
// Resource deltas may be negative; ledgers floor at zero.
type InstantDef struct {
	PV        int             `yaml:"pv" json:"pv,omitempty"`
	Resources model.Resources `yaml:"resources" json:"resources"`
}

type AchievementCatalog struct {
	Order  []string
	ByID   map[string]AchievementDef
	Digest string
}

type Counter string

const (
	CounterExplored     Counter = "explored"
	CounterBuilt        Counter = "built"
	CounterCollected    Counter = "collected"
	CounterNegotiations Counter = "negotiations"
	CounterBiomes       Counter = "biomes"
	CounterPeakResource Counter = "peak_resource"
	CounterPeakTotal    Counter = "peak_total"
	CounterVictoryTurn  Counter = "victory_turn"
	CounterNegotiated   Counter = "negotiated"
)

type Compare string

const (
	AtLeast Compare = "at_least"
	AtMost  Compare = "at_most"
)

type AchievementDef struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description,omitempty"`
	Counter     Counter   `yaml:"counter" json:"counter"`
	Compare     Compare   `yaml:"compare" json:"compare"`
	Threshold   int       `yaml:"threshold" json:"threshold"`
	VictoryOnly bool      `yaml:"victory_only" json:"victory_only,omitempty"`
	Reward      RewardDef `yaml:"reward" json:"reward"`
}

// RewardDef describes a reward; applying it is left to the integration
// layer.
type RewardDef struct {
	Kind     string         `yaml:"kind" json:"kind"`
	Action   string         `yaml:"action" json:"action,omitempty"`
	Resource model.Resource `yaml:"resource" json:"resource,omitempty"`
	Amount   int            `yaml:"amount" json:"amount,omitempty"`
	Title    string         `yaml:"title" json:"title,omitempty"`
}

// Load reads the catalogs from a config directory.
func Load(configDir string) (*Catalogs, error) {
	return LoadFS(os.DirFS(configDir))
}

// Default returns the catalogs compiled into the binary.
func Default() *Catalogs {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		panic(err)
	}
	c, err := LoadFS(sub)
	if err != nil {
		panic(fmt.Sprintf("embedded catalogs: %v", err))
	}
	return c
}

func LoadFS(fsys fs.FS) (*Catalogs, error) {
	var c Catalogs
	if err := loadBiomes(fsys, "biomes.yaml", &c.Biomes); err != nil {
		return nil, err
	}
	if err := loadStructures(fsys, "structures.yaml", &c.Structures); err != nil {
		return nil, err
	}
	if err := loadEvents(fsys, "events.yaml", &c.Events); err != nil {
		return nil, err
	}
	if err := loadAchievements(fsys, "achievements.yaml", &c.Achievements); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func readYAML(fsys fs.FS, name string, out any) (string, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return sha256Hex(raw), nil
}

func loadBiomes(fsys fs.FS, name string, out *BiomeCatalog) error {
	var defs []BiomeDef
	digest, err := readYAML(fsys, name, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.ByID = map[model.Biome]BiomeDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("%s: empty id", name)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("%s: duplicate biome %s", name, d.ID)
		}
		if d.Rate.HasNegative() || d.Stock.HasNegative() {
			return fmt.Errorf("%s: biome %s: negative rate or stock", name, d.ID)
		}
		if d.Weight <= 0 {
			d.Weight = 1
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	if len(out.Order) == 0 {
		return fmt.Errorf("%s: no biomes", name)
	}
	return nil
}

func loadStructures(fsys fs.FS, name string, out *StructureCatalog) error {
	var defs []StructureDef
	digest, err := readYAML(fsys, name, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.ByID = map[model.StructureKind]StructureDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("%s: empty id", name)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("%s: duplicate structure %s", name, d.ID)
		}
		if d.Cost.HasNegative() || d.Income.HasNegative() || d.BonusPV < 0 || d.IncomePV < 0 {
			return fmt.Errorf("%s: structure %s: negative values", name, d.ID)
		}
		if d.Name == "" {
			d.Name = string(d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	sort.Slice(out.Order, func(i, j int) bool { return out.Order[i] < out.Order[j] })
	return nil
}

func loadEvents(fsys fs.FS, name string, out *EventCatalog) error {
	var defs []EventDef
	digest, err := readYAML(fsys, name, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.ByID = map[string]EventDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("%s: empty id", name)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("%s: duplicate event %s", name, d.ID)
		}
		if d.Duration < 0 {
			return fmt.Errorf("%s: event %s: negative duration", name, d.ID)
		}
		switch d.Category {
		case model.EventPositive, model.EventNegative, model.EventMixed:
		default:
			return fmt.Errorf("%s: event %s: bad category %q", name, d.ID, d.Category)
		}
		if d.Duration == 0 && len(d.Modifiers) > 0 {
			return fmt.Errorf("%s: event %s: instantaneous events cannot carry modifiers", name, d.ID)
		}
		for _, m := range d.Modifiers {
			if err := validateModifier(m); err != nil {
				return fmt.Errorf("%s: event %s: %w", name, d.ID, err)
			}
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	return nil
}

func validateModifier(m ModifierDef) error {
	switch m.Kind {
	case model.ModIncomeMultiplier:
		if _, err := model.ParseResource(string(m.Resource)); err != nil {
			return err
		}
		if m.Factor <= 0 {
			return fmt.Errorf("income multiplier factor must be positive")
		}
	case model.ModBuildSurcharge, model.ModExploreDiscount:
		if _, err := model.ParseResource(string(m.Resource)); err != nil {
			return err
		}
		if m.Amount <= 0 {
			return fmt.Errorf("%s amount must be positive", m.Kind)
		}
	case model.ModBuildBonusPV:
		if m.Amount <= 0 {
			return fmt.Errorf("%s amount must be positive", m.Kind)
		}
	default:
		return fmt.Errorf("unknown modifier kind %q", m.Kind)
	}
	return nil
}

func loadAchievements(fsys fs.FS, name string, out *AchievementCatalog) error {
	var defs []AchievementDef
	digest, err := readYAML(fsys, name, &defs)
	if err != nil {
		return err
	}
	out.Digest = digest
	out.ByID = map[string]AchievementDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("%s: empty id", name)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("%s: duplicate achievement %s", name, d.ID)
		}
		switch d.Counter {
		case CounterExplored, CounterBuilt, CounterCollected, CounterNegotiations, CounterBiomes,
			CounterPeakResource, CounterPeakTotal, CounterVictoryTurn, CounterNegotiated:
		default:
			return fmt.Errorf("%s: achievement %s: unknown counter %q", name, d.ID, d.Counter)
		}
		if d.Compare == "" {
			d.Compare = AtLeast
		}
		if d.Compare != AtLeast && d.Compare != AtMost {
			return fmt.Errorf("%s: achievement %s: bad compare %q", name, d.ID, d.Compare)
		}
		if d.Counter == CounterVictoryTurn || d.Counter == CounterNegotiated {
			d.VictoryOnly = true
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	return nil
}
