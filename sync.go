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
	"runtime"
	"sync"
)

// MTMarginalSet builds the shared marginal tables for the
// multi-goroutine threshold engine: one sorted PrecalculatedMarginal
// per element, except the last, which is a SyncMarginal that hands out
// its indices atomically. Building the set consumes iso's marginals.
func (iso *Iso) MTMarginalSet(threshold float64, absolute bool, tabSize, hashSize int) ([]*PrecalculatedMarginal, *SyncMarginal) {
	lCutoff := math.Log(threshold)
	if !absolute {
		lCutoff += iso.modeLProb
	}
	pms := make([]*PrecalculatedMarginal, iso.dimNumber)
	for ii := 0; ii < iso.dimNumber-1; ii++ {
		pms[ii] = NewPrecalculatedMarginal(iso.marginals[ii],
			lCutoff-iso.modeLProb+iso.marginals[ii].ModeLProb(), true, tabSize, hashSize)
	}
	last := NewSyncMarginal(iso.marginals[iso.dimNumber-1],
		lCutoff-iso.modeLProb+iso.marginals[iso.dimNumber-1].ModeLProb(), tabSize, hashSize)
	pms[iso.dimNumber-1] = last.PrecalculatedMarginal
	return pms, last
}

// IsoThresholdGeneratorMT is one worker's view of a threshold
// enumeration split across goroutines. Workers share the precomputed
// marginals read-only and claim disjoint slices of the last dimension
// through the SyncMarginal, so together they emit exactly the set the
// single-goroutine engine would.
type IsoThresholdGeneratorMT struct {
	*Iso

	lCutoff         float64
	counter         []int
	marginalResults []*PrecalculatedMarginal
	lastMarginal    *SyncMarginal
	maxConfsLPSum   []float64

	partialLProbs   []float64
	partialMasses   []float64
	partialExpProbs []float64
}

// NewIsoThresholdGeneratorMT builds one worker over a shared marginal
// set produced by MTMarginalSet together with the SyncMarginal backing
// its last entry. It requires at least two elements; with one element
// there is nothing to split.
func NewIsoThresholdGeneratorMT(iso *Iso, threshold float64, pms []*PrecalculatedMarginal, lastMarginal *SyncMarginal, absolute bool) *IsoThresholdGeneratorMT {
	g := &IsoThresholdGeneratorMT{
		Iso:             iso,
		lCutoff:         math.Log(threshold),
		counter:         make([]int, iso.dimNumber),
		marginalResults: pms,
		lastMarginal:    lastMarginal,
		maxConfsLPSum:   make([]float64, iso.dimNumber-1),
		partialLProbs:   make([]float64, iso.dimNumber+1),
		partialMasses:   make([]float64, iso.dimNumber+1),
		partialExpProbs: make([]float64, iso.dimNumber+1),
	}
	if !absolute {
		g.lCutoff += iso.modeLProb
	}
	g.partialExpProbs[iso.dimNumber] = 1.0

	empty := false
	for ii := 0; ii < iso.dimNumber-1; ii++ {
		if !g.marginalResults[ii].InRange(0) {
			empty = true
		}
	}
	last := iso.dimNumber - 1
	g.counter[last] = lastMarginal.GetNextConfIdx()
	if !g.marginalResults[last].InRange(g.counter[last]) {
		empty = true
	}

	g.maxConfsLPSum[0] = g.marginalResults[0].ModeLProb()
	for ii := 1; ii < iso.dimNumber-1; ii++ {
		g.maxConfsLPSum[ii] = g.maxConfsLPSum[ii-1] + g.marginalResults[ii].ModeLProb()
	}

	if !empty {
		g.recalc(last)
		g.counter[0]--
	} else {
		g.terminateSearch()
	}
	return g
}

func (g *IsoThresholdGeneratorMT) recalc(idx int) {
	for ii := idx; ii >= 0; ii-- {
		g.partialLProbs[ii] = g.partialLProbs[ii+1] + g.marginalResults[ii].LProb(g.counter[ii])
		g.partialMasses[ii] = g.partialMasses[ii+1] + g.marginalResults[ii].Mass(g.counter[ii])
		g.partialExpProbs[ii] = g.partialExpProbs[ii+1] * g.marginalResults[ii].EProb(g.counter[ii])
	}
}

// Advance steps this worker's odometer, claiming a fresh last-dimension
// index from the SyncMarginal whenever the lower dimensions overflow.
func (g *IsoThresholdGeneratorMT) Advance() bool {
	g.counter[0]++
	if g.marginalResults[0].InRange(g.counter[0]) {
		g.partialLProbs[0] = g.partialLProbs[1] + g.marginalResults[0].LProb(g.counter[0])
		if g.partialLProbs[0] >= g.lCutoff {
			g.partialMasses[0] = g.partialMasses[1] + g.marginalResults[0].Mass(g.counter[0])
			g.partialExpProbs[0] = g.partialExpProbs[1] * g.marginalResults[0].EProb(g.counter[0])
			return true
		}
	}

	idx := 0
	for idx < g.dimNumber-2 {
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

	g.counter[idx] = 0
	idx++
	g.counter[idx] = g.lastMarginal.GetNextConfIdx()
	if g.lastMarginal.InRange(g.counter[idx]) {
		g.partialLProbs[idx] = g.partialLProbs[idx+1] + g.lastMarginal.LProb(g.counter[idx])
		if g.partialLProbs[idx]+g.maxConfsLPSum[idx-1] >= g.lCutoff {
			g.partialMasses[idx] = g.partialMasses[idx+1] + g.lastMarginal.Mass(g.counter[idx])
			g.partialExpProbs[idx] = g.partialExpProbs[idx+1] * g.lastMarginal.EProb(g.counter[idx])
			g.recalc(idx - 1)
			return true
		}
	}
	g.terminateSearch()
	return false
}

func (g *IsoThresholdGeneratorMT) terminateSearch() {
	for ii := 0; ii < g.dimNumber; ii++ {
		g.counter[ii] = g.marginalResults[ii].NoConfs()
	}
}

// Mass returns the mass of the current configuration.
func (g *IsoThresholdGeneratorMT) Mass() float64 { return g.partialMasses[0] }

// LProb returns the log-probability of the current configuration.
func (g *IsoThresholdGeneratorMT) LProb() float64 { return g.partialLProbs[0] }

// EProb returns the probability of the current configuration.
func (g *IsoThresholdGeneratorMT) EProb() float64 { return g.partialExpProbs[0] }

// IsoCounts appends the current expanded isotope count vector to dst.
func (g *IsoThresholdGeneratorMT) IsoCounts(dst []int32) []int32 {
	for ii := 0; ii < g.dimNumber; ii++ {
		dst = append(dst, g.marginalResults[ii].Conf(g.counter[ii])...)
	}
	return dst
}

// RunThresholdMT runs a threshold enumeration concurrently across
// GOMAXPROCS workers and merges the per-worker streams. It consumes
// iso. With fewer than two elements it falls back to the
// single-goroutine engine.
func RunThresholdMT(iso *Iso, threshold float64, absolute bool, tabSize, hashSize int) *Product {
	if iso.dimNumber < 2 {
		return NewIsoThresholdGenerator(iso, threshold, absolute, tabSize, hashSize).Product()
	}

	pms, last := iso.MTMarginalSet(threshold, absolute, tabSize, hashSize)

	nprocs := runtime.GOMAXPROCS(0)
	products := make([]*Product, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			g := NewIsoThresholdGeneratorMT(iso, threshold, pms, last, absolute)
			p := &Product{AllDim: iso.allDim}
			for g.Advance() {
				p.Masses = append(p.Masses, g.Mass())
				p.LogProbs = append(p.LogProbs, g.LProb())
				p.IsoCounts = g.IsoCounts(p.IsoCounts)
			}
			products[pp] = p
		}(pp)
	}
	wg.Wait()

	merged := &Product{AllDim: iso.allDim}
	for _, p := range products {
		merged.Masses = append(merged.Masses, p.Masses...)
		merged.LogProbs = append(merged.LogProbs, p.LogProbs...)
		merged.IsoCounts = append(merged.IsoCounts, p.IsoCounts...)
	}
	return merged
}
