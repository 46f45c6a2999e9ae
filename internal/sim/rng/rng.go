// Package rng provides the seedable random source injected into the game
// core. Its state round-trips through saves so a resumed game continues
// the same sequence.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Source is the subset of randomness the rules consume.
type Source interface {
	IntN(n int) int
	Float64() float64
}

type Rand struct {
	pcg *rand.PCG
	r   *rand.Rand
}

func New(seed int64) *Rand {
	pcg := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	return &Rand{pcg: pcg, r: rand.New(pcg)}
}

func (r *Rand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

func (r *Rand) Float64() float64 { return r.r.Float64() }

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	if src == nil || p <= 0 {
		return false
	}
	return src.Float64() < p
}

func (r *Rand) MarshalBinary() ([]byte, error) {
	return r.pcg.MarshalBinary()
}

func (r *Rand) UnmarshalBinary(b []byte) error {
	if err := r.pcg.UnmarshalBinary(b); err != nil {
		return fmt.Errorf("rng state: %w", err)
	}
	return nil
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Fixed replays a scripted sequence of Float64 values, for tests. IntN
// returns 0 once the IntN script is exhausted.
type Fixed struct {
	Floats []float64
	Ints   []int
}

func (f *Fixed) Float64() float64 {
	if len(f.Floats) == 0 {
		return 0.999999
	}
	v := f.Floats[0]
	f.Floats = f.Floats[1:]
	return v
}

func (f *Fixed) IntN(n int) int {
	if len(f.Ints) == 0 || n <= 0 {
		return 0
	}
	v := f.Ints[0]
	f.Ints = f.Ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}
