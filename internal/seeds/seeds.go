// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package seeds derives independent, reproducible random sources from a
// single run seed. Every consumer (facility construction, population
// generation, one user-day, one clone schedule) gets its own stream, so
// work can be generated in any order or in parallel without changing the
// output.
package seeds

import (
	"math/rand"
)

// Stream identifies what a derived source is used for. Values are part of
// the reproducibility contract and must never be renumbered.
type Stream uint64

const (
	StreamFacility   Stream = 1
	StreamPopulation Stream = 2
	StreamDay        Stream = 3
	StreamClone      Stream = 4
	StreamCloneDays  Stream = 5
)

// splitmix64 is the SplitMix64 finalizer.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Derive mixes the run seed, a stream and any number of coordinates
// (user index, day index) into a sub-seed.
func Derive(seed uint64, stream Stream, coords ...uint64) int64 {
	h := splitmix64(seed ^ splitmix64(uint64(stream)))
	for _, c := range coords {
		h = splitmix64(h ^ splitmix64(c+0x632be59bd9b4e019))
	}
	return int64(h)
}

// New returns a math/rand source seeded with Derive(seed, stream, coords...).
// The returned source is not safe for concurrent use.
func New(seed uint64, stream Stream, coords ...uint64) *rand.Rand {
	return rand.New(rand.NewSource(Derive(seed, stream, coords...))) //nolint:gosec // simulation randomness, not security
}
