// Package rng provides the engine's seeded random source and the shared
// weighted-selection utility used by evolution paths and mutation candidates.
package rng

import (
	"math/rand/v2"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// Source is a seeded random source. Each orchestrator owns one; outcomes are
// deterministic under a fixed seed.
type Source struct {
	seed int64
	rand *rand.Rand
	src  rand.Source
}

// New creates a source from a seed. A zero seed derives one from the clock.
func New(seed int64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := rand.NewPCG(uint64(seed), uint64(seed)>>32)
	return &Source{
		seed: seed,
		rand: rand.New(src),
		src:  src,
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 { return s.seed }

// Float64 returns a uniform value in [0,1).
func (s *Source) Float64() float64 { return s.rand.Float64() }

// IntN returns a uniform value in [0,n).
func (s *Source) IntN(n int) int { return s.rand.IntN(n) }

// Roll reports success with the given probability.
func (s *Source) Roll(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.rand.Float64() < p
}

// Pick returns a uniformly random element. Empty input returns "".
func (s *Source) Pick(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[s.rand.IntN(len(items))]
}

// SelectWeighted draws one key proportionally to its weight. Keys are visited
// in sorted order so an equal seed always yields an equal draw. Entries with
// non-positive weight are ignored; the second return is false when no entry
// is drawable.
func (s *Source) SelectWeighted(weights map[string]float64) (string, bool) {
	if len(weights) == 0 {
		return "", false
	}

	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]float64, len(keys))
	total := 0.0
	for i, k := range keys {
		w := weights[k]
		if w > 0 {
			values[i] = w
			total += w
		}
	}
	if total == 0 {
		return "", false
	}

	idx, ok := sampleuv.NewWeighted(values, s.src).Take()
	if !ok {
		return "", false
	}
	return keys[idx], true
}
