// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package seeds

import "testing"

func TestDerive_Deterministic(t *testing.T) {
	t.Parallel()

	a := Derive(42, StreamDay, 7, 3)
	b := Derive(42, StreamDay, 7, 3)
	if a != b {
		t.Fatalf("Derive is not deterministic: %d != %d", a, b)
	}
}

func TestDerive_Distinct(t *testing.T) {
	t.Parallel()

	seen := make(map[int64]string)
	check := func(name string, v int64) {
		if prev, ok := seen[v]; ok {
			t.Errorf("%s collides with %s", name, prev)
		}
		seen[v] = name
	}

	check("seed 42 day 7/3", Derive(42, StreamDay, 7, 3))
	check("seed 42 day 3/7", Derive(42, StreamDay, 3, 7))
	check("seed 43 day 7/3", Derive(43, StreamDay, 7, 3))
	check("seed 42 clone 7/3", Derive(42, StreamClone, 7, 3))
	check("seed 42 facility", Derive(42, StreamFacility))
	check("seed 42 population", Derive(42, StreamPopulation))
}

func TestNew_SameSequence(t *testing.T) {
	t.Parallel()

	r1 := New(9, StreamPopulation)
	r2 := New(9, StreamPopulation)
	for i := 0; i < 100; i++ {
		if r1.Int63() != r2.Int63() {
			t.Fatalf("sequences diverge at %d", i)
		}
	}
}
