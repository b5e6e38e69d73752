/*
Copyright © 2025 the IsoFine authors.
This file is part of IsoFine.

IsoFine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IsoFine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IsoFine.  If not, see <http://www.gnu.org/licenses/>.
*/

package isofine

import (
	"math"
	"testing"
)

// The bound-mass engine must produce the threshold engine's set
// filtered to the mass window.
func TestBoundMassMatchesFilteredThreshold(t *testing.T) {
	cases := []struct {
		name             string
		atomCounts       []int
		masses           [][]float64
		probs            [][]float64
		threshold        float64
		minMass, maxMass float64
	}{
		{"waterAll", []int{2, 1}, [][]float64{massH, massO}, [][]float64{probH, probO}, 1e-9, 0, 100},
		{"waterHeavy", []int{2, 1}, [][]float64{massH, massO}, [][]float64{probH, probO}, 1e-9, 18.5, 23},
		{"methaneWindow", []int{1, 4}, [][]float64{massC, massH}, [][]float64{probC, probH}, 1e-7, 16.5, 19},
		{"sulfurWindow", []int{3, 2, 1}, [][]float64{massS, massO, massC}, [][]float64{probS, probO, probC}, 1e-6, 140, 143},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ref := NewIsoThresholdGenerator(mustIso(t, c.atomCounts, c.masses, c.probs),
				c.threshold, false, 0, 0)
			want := make(map[string]float64)
			for ref.Advance() {
				if c.minMass <= ref.Mass() && ref.Mass() <= c.maxMass {
					want[countsKey(ref.IsoCounts(nil))] = ref.LProb()
				}
			}

			g := NewIsoThresholdGeneratorBoundMass(mustIso(t, c.atomCounts, c.masses, c.probs),
				c.threshold, c.minMass, c.maxMass, false, 0, 0)
			got := make(map[string]float64)
			for g.Advance() {
				key := countsKey(g.IsoCounts(nil))
				if _, ok := got[key]; ok {
					t.Errorf("duplicate configuration %v", key)
				}
				got[key] = g.LProb()
				if g.Mass() < c.minMass || g.Mass() > c.maxMass {
					t.Errorf("configuration %v outside the mass window: %g", key, g.Mass())
				}
			}

			for key, lp := range want {
				glp, ok := got[key]
				if !ok {
					t.Errorf("missing configuration %v with lProb %g", key, lp)
					continue
				}
				if different(glp, lp, 1e-10) {
					t.Errorf("configuration %v: lProb %g, want %g", key, glp, lp)
				}
			}
			for key := range got {
				if _, ok := want[key]; !ok {
					t.Errorf("unexpected configuration %v", key)
				}
			}
		})
	}
}

func TestBoundMassEmptyWindow(t *testing.T) {
	iso := mustIso(t, []int{2, 1}, [][]float64{massH, massO}, [][]float64{probH, probO})
	// The window sits below the lightest possible isotopologue.
	g := NewIsoThresholdGeneratorBoundMass(iso, 1e-9, 1, 2, false, 0, 0)
	if g.Advance() {
		t.Error("advance succeeded in an empty mass window")
	}
}

func TestBoundMassAccessors(t *testing.T) {
	iso := mustIso(t, []int{2, 1}, [][]float64{massH, massO}, [][]float64{probH, probO})
	g := NewIsoThresholdGeneratorBoundMass(iso, 1e-9, 0, 100, false, 0, 0)
	for g.Advance() {
		counts := g.IsoCounts(nil)
		mass := 0.0
		for i, m := range massH {
			mass += float64(counts[i]) * m
		}
		for i, m := range massO {
			mass += float64(counts[len(massH)+i]) * m
		}
		if different(g.Mass(), mass, 1e-10) {
			t.Errorf("mass %g, recomputed %g", g.Mass(), mass)
		}
		if different(g.EProb(), math.Exp(g.LProb()), 1e-10) {
			t.Errorf("eProb %g vs exp(lProb) %g", g.EProb(), math.Exp(g.LProb()))
		}
	}
}
