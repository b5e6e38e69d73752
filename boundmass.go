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

// IsoThresholdGeneratorBoundMass enumerates the joint configurations
// with log-probability at least the cutoff and mass inside
// [minMass, maxMass]. It runs the same odometer as the threshold
// engine, but each position is driven by a Range-Gap Tree query whose
// mass band is tightened by what the other positions can still
// contribute: the partial mass above, and per lower position the
// lightest and heaviest partitions still admissible at the remaining
// probability budget.
type IsoThresholdGeneratorBoundMass struct {
	*Iso

	lCutoff          float64
	minMass, maxMass float64
	marginalResults  []*RGTMarginal
	maxConfsLPSum    []float64
	minMassCSum      []float64
	maxMassCSum      []float64

	partialLProbs   []float64
	partialMasses   []float64
	partialExpProbs []float64
}

// NewIsoThresholdGeneratorBoundMass consumes iso. threshold is a
// probability, relative to the modal joint configuration unless
// absolute is set.
func NewIsoThresholdGeneratorBoundMass(iso *Iso, threshold, minMass, maxMass float64, absolute bool, tabSize, hashSize int) *IsoThresholdGeneratorBoundMass {
	g := &IsoThresholdGeneratorBoundMass{
		Iso:             iso,
		lCutoff:         math.Log(threshold),
		minMass:         minMass,
		maxMass:         maxMass,
		maxConfsLPSum:   make([]float64, iso.dimNumber),
		minMassCSum:     make([]float64, iso.dimNumber),
		maxMassCSum:     make([]float64, iso.dimNumber),
		partialLProbs:   make([]float64, iso.dimNumber+1),
		partialMasses:   make([]float64, iso.dimNumber+1),
		partialExpProbs: make([]float64, iso.dimNumber+1),
	}
	if !absolute {
		g.lCutoff += iso.modeLProb
	}
	g.partialExpProbs[iso.dimNumber] = 1.0

	for ii := 0; ii < iso.dimNumber; ii++ {
		g.marginalResults = append(g.marginalResults, NewRGTMarginal(iso.marginals[ii],
			g.lCutoff-iso.modeLProb+iso.marginals[ii].ModeLProb(), tabSize, hashSize))
	}

	g.maxConfsLPSum[0] = g.marginalResults[0].ModeLProb()
	g.minMassCSum[0] = g.marginalResults[0].LightestConfMass()
	g.maxMassCSum[0] = g.marginalResults[0].HeaviestConfMass()
	for ii := 1; ii < iso.dimNumber; ii++ {
		g.maxConfsLPSum[ii] = g.maxConfsLPSum[ii-1] + g.marginalResults[ii].ModeLProb()
		g.minMassCSum[ii] = g.minMassCSum[ii-1] + g.marginalResults[ii].LightestConfMass()
		g.maxMassCSum[ii] = g.maxMassCSum[ii-1] + g.marginalResults[ii].HeaviestConfMass()
	}

	g.setupIthMarginalRange(iso.dimNumber - 1)

	// Marginals below the last position start out with terminated
	// searches; the first Advance sets them up on its way down.
	return g
}

// recalc rebuilds the partial sums at position idx from the marginal's
// current partition.
func (g *IsoThresholdGeneratorBoundMass) recalc(idx int) {
	m := g.marginalResults[idx]
	cidx := m.CurrentIdx()
	g.partialLProbs[idx] = g.partialLProbs[idx+1] + m.LProb(cidx)
	g.partialMasses[idx] = g.partialMasses[idx+1] + m.Mass(cidx)
	g.partialExpProbs[idx] = g.partialExpProbs[idx+1] * m.EProb(cidx)
}

// Advance walks the odometer, alternating between advancing the
// current position and coming back up from below after a carry.
func (g *IsoThresholdGeneratorBoundMass) Advance() bool {
	if g.marginalResults[0].Next() {
		g.recalc(0)
		return true
	}

	// A carry is needed.
	idx := 1
	frombelow := true

	for idx >= 0 && idx < g.dimNumber {
		if frombelow {
			if g.marginalResults[idx].Next() {
				g.recalc(idx)
				frombelow = false
				idx--
			} else {
				idx++
			}
		} else {
			g.setupIthMarginalRange(idx)
			if g.marginalResults[idx].Next() {
				g.recalc(idx)
				idx--
			} else {
				idx++
				frombelow = true
			}
		}
	}

	return idx != g.dimNumber
}

// setupIthMarginalRange computes the (probability, mass) rectangle
// position idx may still range over, given the partial sums above it
// and the admissible extremes of the positions below it.
func (g *IsoThresholdGeneratorBoundMass) setupIthMarginalRange(idx int) {
	lowerMin := g.minMass - g.partialMasses[idx+1]
	lowerMax := g.maxMass - g.partialMasses[idx+1]
	remProb := g.lCutoff - g.partialLProbs[idx+1] - g.maxConfsLPSum[idx]

	for ii := 0; ii < idx; ii++ {
		p := remProb + g.marginalResults[ii].ModeLProb()
		lowerMin -= g.marginalResults[ii].MaxMassAboveLProb(p)
		lowerMax -= g.marginalResults[ii].MinMassAboveLProb(p)
	}

	g.marginalResults[idx].SetupSearch(remProb+g.marginalResults[idx].ModeLProb(), math.Inf(1), lowerMin, lowerMax)
	if idx > 2 {
		for g.marginalResults[idx].Next() {
		}
	}
	g.marginalResults[idx].SetupSearch(remProb+g.marginalResults[idx].ModeLProb(), math.Inf(1), lowerMin, lowerMax)
}

// Mass returns the mass of the current configuration.
func (g *IsoThresholdGeneratorBoundMass) Mass() float64 { return g.partialMasses[0] }

// LProb returns the log-probability of the current configuration.
func (g *IsoThresholdGeneratorBoundMass) LProb() float64 { return g.partialLProbs[0] }

// EProb returns the probability of the current configuration.
func (g *IsoThresholdGeneratorBoundMass) EProb() float64 { return g.partialExpProbs[0] }

// IsoCounts appends the current expanded isotope count vector to dst.
func (g *IsoThresholdGeneratorBoundMass) IsoCounts(dst []int32) []int32 {
	for ii := 0; ii < g.dimNumber; ii++ {
		dst = append(dst, g.marginalResults[ii].Conf(g.marginalResults[ii].CurrentIdx())...)
	}
	return dst
}

// Product drains the generator into parallel arrays.
func (g *IsoThresholdGeneratorBoundMass) Product() *Product {
	p := &Product{AllDim: g.allDim}
	for g.Advance() {
		p.Masses = append(p.Masses, g.Mass())
		p.LogProbs = append(p.LogProbs, g.LProb())
		p.IsoCounts = g.IsoCounts(p.IsoCounts)
	}
	return p
}
