package model

import "sort"

// Unclaimed is the controller value of a region no player holds.
const Unclaimed = -1

// NoRegion marks an empty region selection.
const NoRegion = -1

const MaxExplorationLevel = 3

type Biome string

const (
	Forest   Biome = "Forest"
	Mountain Biome = "Mountain"
	Savana   Biome = "Savana"
	Lake     Biome = "Lake"
	Plains   Biome = "Plains"
	Desert   Biome = "Desert"
)

type StructureKind string

type Region struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	Biome            Biome           `json:"biome"`
	ExplorationLevel int             `json:"exploration_level"`
	Resources        Resources       `json:"resources"`
	Controller       int             `json:"controller"`
	Structures       []StructureKind `json:"structures,omitempty"`
}

func (r *Region) Claimed() bool { return r.Controller != Unclaimed }

func (r *Region) HasStructure(k StructureKind) bool {
	for _, s := range r.Structures {
		if s == k {
			return true
		}
	}
	return false
}

func (r *Region) AddStructure(k StructureKind) {
	if r.HasStructure(k) {
		return
	}
	r.Structures = append(r.Structures, k)
	sort.Slice(r.Structures, func(i, j int) bool { return r.Structures[i] < r.Structures[j] })
}
