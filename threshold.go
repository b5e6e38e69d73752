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

import "math"

// IsoThresholdGenerator enumerates every joint configuration whose
// log-probability is at least a fixed cutoff. It runs an odometer over
// the per-element partition lists, each sorted descending by
// log-probability and pre-truncated at the tightest admissible
// per-marginal cutoff, and prunes whole odometer sub-ranges through
// the maxConfsLPSum admissibility bound: the remaining elements can
// never do better than their modes, so a partial sum that is already
// hopeless stays hopeless.
type IsoThresholdGenerator struct {
	*Iso

	lCutoff         float64
	counter         []int
	marginalResults []*PrecalculatedMarginal
	maxConfsLPSum   []float64

	partialLProbs   []float64
	partialMasses   []float64
	partialExpProbs []float64
}

// NewIsoThresholdGenerator consumes iso. threshold is a probability;
// with absolute=false it is taken relative to the modal joint
// configuration's probability.
func NewIsoThresholdGenerator(iso *Iso, threshold float64, absolute bool, tabSize, hashSize int) *IsoThresholdGenerator {
	g := &IsoThresholdGenerator{
		Iso:             iso,
		lCutoff:         math.Log(threshold),
		counter:         make([]int, iso.dimNumber),
		maxConfsLPSum:   make([]float64, iso.dimNumber),
		partialLProbs:   make([]float64, iso.dimNumber+1),
		partialMasses:   make([]float64, iso.dimNumber+1),
		partialExpProbs: make([]float64, iso.dimNumber+1),
	}
	if !absolute {
		g.lCutoff += iso.modeLProb
	}
	g.partialExpProbs[iso.dimNumber] = 1.0

	empty := false
	for ii := 0; ii < iso.dimNumber; ii++ {
		g.marginalResults = append(g.marginalResults, NewPrecalculatedMarginal(
			iso.marginals[ii],
			g.lCutoff-iso.modeLProb+iso.marginals[ii].ModeLProb(),
			true,
			tabSize,
			hashSize,
		))
		if !g.marginalResults[ii].InRange(0) {
			empty = true
		}
	}

	g.maxConfsLPSum[0] = g.marginalResults[0].ModeLProb()
	for ii := 1; ii < iso.dimNumber-1; ii++ {
		g.maxConfsLPSum[ii] = g.maxConfsLPSum[ii-1] + g.marginalResults[ii].ModeLProb()
	}

	if !empty {
		g.recalc(iso.dimNumber - 1)
		g.counter[0]--
	} else {
		g.terminateSearch()
	}
	return g
}

// recalc rebuilds the partial sums from position idx downward.
func (g *IsoThresholdGenerator) recalc(idx int) {
	for ii := idx; ii >= 0; ii-- {
		g.partialLProbs[ii] = g.partialLProbs[ii+1] + g.marginalResults[ii].LProb(g.counter[ii])
		g.partialMasses[ii] = g.partialMasses[ii+1] + g.marginalResults[ii].Mass(g.counter[ii])
		g.partialExpProbs[ii] = g.partialExpProbs[ii+1] * g.marginalResults[ii].EProb(g.counter[ii])
	}
}

// Advance steps the odometer to the next configuration above the
// cutoff, returning false when none remain.
func (g *IsoThresholdGenerator) Advance() bool {
	g.counter[0]++
	if g.marginalResults[0].InRange(g.counter[0]) {
		g.partialLProbs[0] = g.partialLProbs[1] + g.marginalResults[0].LProb(g.counter[0])
		if g.partialLProbs[0] >= g.lCutoff {
			g.partialMasses[0] = g.partialMasses[1] + g.marginalResults[0].Mass(g.counter[0])
			g.partialExpProbs[0] = g.partialExpProbs[1] * g.marginalResults[0].EProb(g.counter[0])
			return true
		}
	}

	// A carry is needed.
	idx := 0
	for idx < g.dimNumber-1 {
		g.counter[idx] = 0
		idx++
		g.counter[idx]++
		if g.marginalResults[idx].InRange(g.counter[idx]) {
			g.partialLProbs[idx] = g.partialLProbs[idx+1] + g.marginalResults[idx].LProb(g.counter[idx])
			if g.partialLProbs[idx]+g.maxConfsLPSum[idx-1] >= g.lCutoff {
				g.partialMasses[idx] = g.partialMasses[idx+1] + g.marginalResults[idx].Mass(g.counter[idx])
				g.partialExpProbs[idx] = g.partialExpProbs[idx+1] * g.marginalResults[idx].EProb(g.counter[idx])
				g.recalc(idx - 1)
				return true
			}
		}
	}

	g.terminateSearch()
	return false
}

func (g *IsoThresholdGenerator) terminateSearch() {
	for ii := 0; ii < g.dimNumber; ii++ {
		g.counter[ii] = g.marginalResults[ii].NoConfs()
	}
}

// Mass returns the mass of the current configuration.
func (g *IsoThresholdGenerator) Mass() float64 { return g.partialMasses[0] }

// LProb returns the log-probability of the current configuration.
func (g *IsoThresholdGenerator) LProb() float64 { return g.partialLProbs[0] }

// EProb returns the probability of the current configuration.
func (g *IsoThresholdGenerator) EProb() float64 { return g.partialExpProbs[0] }

// IsoCounts appends the current configuration's expanded isotope
// count vector to dst, in element order.
func (g *IsoThresholdGenerator) IsoCounts(dst []int32) []int32 {
	for ii := 0; ii < g.dimNumber; ii++ {
		dst = append(dst, g.marginalResults[ii].Conf(g.counter[ii])...)
	}
	return dst
}

// Product drains the generator into parallel arrays.
func (g *IsoThresholdGenerator) Product() *Product {
	p := &Product{AllDim: g.allDim}
	for g.Advance() {
		p.Masses = append(p.Masses, g.Mass())
		p.LogProbs = append(p.LogProbs, g.LProb())
		p.IsoCounts = g.IsoCounts(p.IsoCounts)
	}
	return p
}
