package model

import "sort"

// Counters are the cumulative per-player statistics consumed by the
// achievement tracker.
type Counters struct {
	Explored     int  `json:"explored"`
	Built        int  `json:"built"`
	Collected    int  `json:"collected"`
	Negotiations int  `json:"negotiations"`
	Biomes       int  `json:"biomes"`
	PeakResource int  `json:"peak_resource"`
	PeakTotal    int  `json:"peak_total"`
	VictoryTurn  int  `json:"victory_turn,omitempty"`
	Negotiated   bool `json:"negotiated,omitempty"`
}

type Player struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Icon          string    `json:"icon,omitempty"`
	Color         string    `json:"color,omitempty"`
	Resources     Resources `json:"resources"`
	VictoryPoints int       `json:"victory_points"`
	Regions       []int     `json:"regions"`
	HomeRegion    int       `json:"home_region"`
	Counters      Counters  `json:"counters"`
	Unlocked      []string  `json:"unlocked,omitempty"`
}

func (p *Player) Owns(regionID int) bool {
	i := sort.SearchInts(p.Regions, regionID)
	return i < len(p.Regions) && p.Regions[i] == regionID
}

func (p *Player) addRegion(regionID int) {
	if p.Owns(regionID) {
		return
	}
	p.Regions = append(p.Regions, regionID)
	sort.Ints(p.Regions)
}

func (p *Player) removeRegion(regionID int) {
	i := sort.SearchInts(p.Regions, regionID)
	if i < len(p.Regions) && p.Regions[i] == regionID {
		p.Regions = append(p.Regions[:i], p.Regions[i+1:]...)
	}
}

// AddPV credits victory points. Negative deltas are documented penalties
// (claim cost, instantaneous events) and floor at zero.
func (p *Player) AddPV(n int) {
	p.VictoryPoints += n
	if p.VictoryPoints < 0 {
		p.VictoryPoints = 0
	}
}

func (p *Player) HasUnlocked(id string) bool {
	for _, u := range p.Unlocked {
		if u == id {
			return true
		}
	}
	return false
}

// TrackPeak records the highest resource levels ever held.
func (p *Player) TrackPeak() {
	if m := p.Resources.Max(); m > p.Counters.PeakResource {
		p.Counters.PeakResource = m
	}
	if t := p.Resources.Total(); t > p.Counters.PeakTotal {
		p.Counters.PeakTotal = t
	}
}
