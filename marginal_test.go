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

func mustMarginal(t *testing.T, masses, probs []float64, atomCnt int) *Marginal {
	t.Helper()
	m, err := NewMarginal(masses, probs, atomCnt)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// The modal partition must beat every unit-swap neighbour.
func TestMarginalModeIsLocalMaximum(t *testing.T) {
	cases := []struct {
		masses, probs []float64
		atomCnt       int
	}{
		{massH, probH, 1},
		{massH, probH, 383},
		{massC, probC, 257},
		{massO, probO, 77},
		{massS, probS, 6},
		{massS, probS, 100},
	}
	for _, c := range cases {
		m := mustMarginal(t, c.masses, c.probs, c.atomCnt)
		modeLP := m.ModeLProb()
		for i := 0; i < m.isotopeNo; i++ {
			for j := 0; j < m.isotopeNo; j++ {
				if i == j || m.modeConf[j] <= 0 {
					continue
				}
				neighbour := append([]int32(nil), m.modeConf...)
				neighbour[i]++
				neighbour[j]--
				if logProb(neighbour, m.atomLProbs) > modeLP {
					t.Errorf("atomCnt=%d: neighbour %v beats mode %v", c.atomCnt, neighbour, m.modeConf)
				}
			}
		}
	}
}

func TestMarginalModeSumsToAtomCount(t *testing.T) {
	m := mustMarginal(t, massS, probS, 123)
	var sum int32
	for _, v := range m.modeConf {
		sum += v
	}
	if sum != 123 {
		t.Errorf("mode partition sums to %d, want 123", sum)
	}
}

func TestMarginalMassBounds(t *testing.T) {
	m := mustMarginal(t, massO, probO, 7)
	if different(m.LightestConfMass(), 7*massO[0], 1e-12) {
		t.Errorf("lightest %g", m.LightestConfMass())
	}
	if different(m.HeaviestConfMass(), 7*massO[2], 1e-12) {
		t.Errorf("heaviest %g", m.HeaviestConfMass())
	}
}

// The trek must produce partitions in descending log-probability
// order, each exactly once.
func TestMarginalTrekDescendingNoDuplicates(t *testing.T) {
	m := mustMarginal(t, massS, probS, 10)
	trek := NewMarginalTrek(m, 0, 0)
	trek.ProcessUntilCutoff(0.99999)

	seen := make(map[string]bool)
	for i, part := range trek.Confs() {
		key := countsKey(part)
		if seen[key] {
			t.Errorf("duplicate partition %v", part)
		}
		seen[key] = true
		if i > 0 && trek.ConfLProbs()[i] > trek.ConfLProbs()[i-1]+1e-12 {
			t.Errorf("order violated at %d: %g > %g", i, trek.ConfLProbs()[i], trek.ConfLProbs()[i-1])
		}
		var sum int32
		for _, v := range part {
			sum += v
		}
		if sum != 10 {
			t.Errorf("partition %v does not sum to 10", part)
		}
	}
	if trek.TotalProb() < 0.99999 {
		t.Errorf("cutoff not covered: %g", trek.TotalProb())
	}
}

func TestMarginalTrekProcessUntilCutoff(t *testing.T) {
	m := mustMarginal(t, massH, probH, 2)
	trek := NewMarginalTrek(m, 0, 0)

	// The (2,0) partition alone covers 0.99977.
	idx := trek.ProcessUntilCutoff(0.9)
	if idx != 0 {
		t.Errorf("first crossing index %d, want 0", idx)
	}

	// Asking for everything drains the space: three partitions of two
	// atoms over two isotopes.
	trek.ProcessUntilCutoff(2)
	if len(trek.Confs()) != 3 {
		t.Errorf("%d partitions, want 3", len(trek.Confs()))
	}
	if different(trek.TotalProb(), 1, 1e-9) {
		t.Errorf("total probability %g, want 1", trek.TotalProb())
	}
}

func TestMarginalTrekProbe(t *testing.T) {
	m := mustMarginal(t, massH, probH, 1)
	trek := NewMarginalTrek(m, 0, 0)
	if !trek.ProbeConfigurationIdx(1) {
		t.Error("index 1 should exist for one hydrogen atom")
	}
	if trek.ProbeConfigurationIdx(2) {
		t.Error("index 2 should not exist for one hydrogen atom")
	}
}

// The eager enumerator must hold exactly the above-cutoff partitions.
func TestPrecalculatedMarginalCompleteness(t *testing.T) {
	const atomCnt = 8
	m := mustMarginal(t, massO, probO, atomCnt)
	lps := LogProbs(probO)
	cutoff := m.ModeLProb() - 5*math.Log(10)
	p := NewPrecalculatedMarginal(m, cutoff, true, 0, 0)

	want := make(map[string]float64)
	for _, part := range allPartitions(atomCnt, len(probO)) {
		if lp := logProb(part, lps); lp >= cutoff {
			want[countsKey(part)] = lp
		}
	}

	if p.NoConfs() != len(want) {
		t.Fatalf("%d partitions, want %d", p.NoConfs(), len(want))
	}
	for i := 0; i < p.NoConfs(); i++ {
		key := countsKey(p.Conf(i))
		lp, ok := want[key]
		if !ok {
			t.Errorf("unexpected partition %v", p.Conf(i))
			continue
		}
		if different(p.LProb(i), lp, 1e-12) {
			t.Errorf("partition %v: lProb %g, want %g", p.Conf(i), p.LProb(i), lp)
		}
		if different(p.EProb(i), math.Exp(lp), 1e-12) {
			t.Errorf("partition %v: eProb %g", p.Conf(i), p.EProb(i))
		}
		delete(want, key)
	}
	for i := 1; i < p.NoConfs(); i++ {
		if p.LProb(i) > p.LProb(i-1)+1e-12 {
			t.Errorf("sort violated at %d", i)
		}
	}
}

func TestPrecalculatedMarginalEmptyBand(t *testing.T) {
	m := mustMarginal(t, massH, probH, 3)
	p := NewPrecalculatedMarginal(m, 1.0, true, 0, 0) // above log-prob 0: nothing qualifies
	if p.NoConfs() != 0 {
		t.Errorf("%d partitions above impossible cutoff", p.NoConfs())
	}
	if p.InRange(0) {
		t.Error("InRange(0) on empty marginal")
	}
}

func TestSyncMarginalHandsOutDisjointIndices(t *testing.T) {
	m := mustMarginal(t, massS, probS, 5)
	s := NewSyncMarginal(m, m.ModeLProb()-10, 0, 0)
	seen := make(map[int]bool)
	for i := 0; i < 10; i++ {
		idx := s.GetNextConfIdx()
		if seen[idx] {
			t.Errorf("index %d handed out twice", idx)
		}
		seen[idx] = true
	}
}
