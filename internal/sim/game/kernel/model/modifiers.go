package model

type ModifierKind string

const (
	// ModIncomeMultiplier scales one resource of turn income by Factor.
	ModIncomeMultiplier ModifierKind = "income_multiplier"
	// ModBuildSurcharge adds Amount of Resource to every build cost.
	ModBuildSurcharge ModifierKind = "build_surcharge"
	// ModExploreDiscount removes Amount of Resource from the explore cost.
	ModExploreDiscount ModifierKind = "explore_discount"
	// ModBuildBonusPV grants Amount extra PV per completed build.
	ModBuildBonusPV ModifierKind = "build_bonus_pv"
)

// Modifier is one active effect tagged with the event that installed it.
type Modifier struct {
	Source   string       `json:"source"`
	Kind     ModifierKind `json:"kind"`
	Resource Resource     `json:"resource,omitempty"`
	Factor   float64      `json:"factor,omitempty"`
	Amount   int          `json:"amount,omitempty"`
}

type Modifiers []Modifier

// IncomeFactor is the product of all income multipliers for k (1 when none).
func (m Modifiers) IncomeFactor(k Resource) float64 {
	f := 1.0
	for _, e := range m {
		if e.Kind == ModIncomeMultiplier && e.Resource == k {
			f *= e.Factor
		}
	}
	return f
}

func (m Modifiers) sum(kind ModifierKind) Resources {
	var out Resources
	for _, e := range m {
		if e.Kind == kind {
			out.Set(e.Resource, out.Get(e.Resource)+e.Amount)
		}
	}
	return out
}

func (m Modifiers) BuildSurcharge() Resources  { return m.sum(ModBuildSurcharge) }
func (m Modifiers) ExploreDiscount() Resources { return m.sum(ModExploreDiscount) }

func (m Modifiers) BuildBonusPV() int {
	n := 0
	for _, e := range m {
		if e.Kind == ModBuildBonusPV {
			n += e.Amount
		}
	}
	return n
}

// Without drops every entry installed by source.
func (m Modifiers) Without(source string) Modifiers {
	var out Modifiers
	for _, e := range m {
		if e.Source != source {
			out = append(out, e)
		}
	}
	return out
}
