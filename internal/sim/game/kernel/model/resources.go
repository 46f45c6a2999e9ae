package model

import (
	"fmt"
	"strings"
)

type Resource string

const (
	Wood  Resource = "wood"
	Stone Resource = "stone"
	Gold  Resource = "gold"
	Water Resource = "water"
)

// ResourceKinds lists every resource in ledger order.
var ResourceKinds = []Resource{Wood, Stone, Gold, Water}

func ParseResource(s string) (Resource, error) {
	switch Resource(strings.ToLower(strings.TrimSpace(s))) {
	case Wood:
		return Wood, nil
	case Stone:
		return Stone, nil
	case Gold:
		return Gold, nil
	case Water:
		return Water, nil
	default:
		return "", fmt.Errorf("unknown resource %q", s)
	}
}

// Resources is a fixed-shape ledger of resource quantities.
type Resources struct {
	Wood  int `json:"wood" yaml:"wood"`
	Stone int `json:"stone" yaml:"stone"`
	Gold  int `json:"gold" yaml:"gold"`
	Water int `json:"water" yaml:"water"`
}

func (r Resources) Get(k Resource) int {
	switch k {
	case Wood:
		return r.Wood
	case Stone:
		return r.Stone
	case Gold:
		return r.Gold
	case Water:
		return r.Water
	}
	return 0
}

func (r *Resources) Set(k Resource, v int) {
	switch k {
	case Wood:
		r.Wood = v
	case Stone:
		r.Stone = v
	case Gold:
		r.Gold = v
	case Water:
		r.Water = v
	}
}

// Add credits n units of k. The result never drops below zero.
func (r *Resources) Add(k Resource, n int) {
	v := r.Get(k) + n
	if v < 0 {
		v = 0
	}
	r.Set(k, v)
}

// Sub debits n units of k, flooring at zero.
func (r *Resources) Sub(k Resource, n int) {
	r.Add(k, -n)
}

func (r Resources) Plus(o Resources) Resources {
	out := r
	for _, k := range ResourceKinds {
		out.Add(k, o.Get(k))
	}
	return out
}

func (r Resources) Minus(o Resources) Resources {
	out := r
	for _, k := range ResourceKinds {
		out.Sub(k, o.Get(k))
	}
	return out
}

// Covers reports whether r holds at least cost of every kind.
func (r Resources) Covers(cost Resources) bool {
	for _, k := range ResourceKinds {
		if r.Get(k) < cost.Get(k) {
			return false
		}
	}
	return true
}

// Missing returns the shortfall of r against cost (zero where covered).
func (r Resources) Missing(cost Resources) Resources {
	var out Resources
	for _, k := range ResourceKinds {
		if d := cost.Get(k) - r.Get(k); d > 0 {
			out.Set(k, d)
		}
	}
	return out
}

func (r Resources) IsZero() bool {
	return r == Resources{}
}

func (r Resources) HasNegative() bool {
	for _, k := range ResourceKinds {
		if r.Get(k) < 0 {
			return true
		}
	}
	return false
}

func (r Resources) Total() int {
	return r.Wood + r.Stone + r.Gold + r.Water
}

// Max returns the largest single quantity held.
func (r Resources) Max() int {
	m := 0
	for _, k := range ResourceKinds {
		if v := r.Get(k); v > m {
			m = v
		}
	}
	return m
}

func (r Resources) String() string {
	parts := make([]string, 0, len(ResourceKinds))
	for _, k := range ResourceKinds {
		if v := r.Get(k); v != 0 {
			parts = append(parts, fmt.Sprintf("%d %s", v, k))
		}
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, ", ")
}

// Rates is the fractional counterpart of Resources used while income is
// accumulated, before flooring.
type Rates struct {
	Wood  float64 `json:"wood" yaml:"wood"`
	Stone float64 `json:"stone" yaml:"stone"`
	Gold  float64 `json:"gold" yaml:"gold"`
	Water float64 `json:"water" yaml:"water"`
}

func (r Rates) Get(k Resource) float64 {
	switch k {
	case Wood:
		return r.Wood
	case Stone:
		return r.Stone
	case Gold:
		return r.Gold
	case Water:
		return r.Water
	}
	return 0
}

func (r *Rates) Set(k Resource, v float64) {
	switch k {
	case Wood:
		r.Wood = v
	case Stone:
		r.Stone = v
	case Gold:
		r.Gold = v
	case Water:
		r.Water = v
	}
}

func (r *Rates) Add(k Resource, v float64) {
	r.Set(k, r.Get(k)+v)
}

func RatesOf(res Resources) Rates {
	var out Rates
	for _, k := range ResourceKinds {
		out.Set(k, float64(res.Get(k)))
	}
	return out
}
