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
	"container/heap"
	"math"

	"github.com/spectromodel/isofine/internal/hash"
)

type confHeap []*conf

func (h confHeap) Len() int           { return len(h) }
func (h confHeap) Less(i, j int) bool { return h[i].lProb > h[j].lProb }
func (h confHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *confHeap) Push(x interface{}) {
	*h = append(*h, x.(*conf))
}
func (h *confHeap) Pop() interface{} {
	old := *h
	n := len(old) - 1
	c := old[n]
	*h = old[:n]
	return c
}

// IsoOrderedGenerator emits joint configurations in strictly
// descending log-probability order, down to a fixed log-probability
// cutoff. Unlike the layered engine it keeps a global heap and an
// explicit visited set, which makes the ordering exact and the engine
// considerably slower on large fringes.
type IsoOrderedGenerator struct {
	*Iso

	lCutoff         float64
	allocator       *confAllocator
	marginalResults []*MarginalTrek
	candidate       []int32
	visited         map[string]struct{}
	pq              confHeap

	currentLProb float64
	currentMass  float64
	currentConf  []int32
}

// NewIsoOrderedGenerator consumes iso. lCutoff is an absolute joint
// log-probability; configurations below it are never produced.
func NewIsoOrderedGenerator(iso *Iso, lCutoff float64, tabSize, hashSize int) *IsoOrderedGenerator {
	if hashSize < 1 {
		hashSize = defaultHashSize
	}
	g := &IsoOrderedGenerator{
		Iso:       iso,
		lCutoff:   lCutoff,
		allocator: newConfAllocator(iso.dimNumber, tabSize),
		candidate: make([]int32, iso.dimNumber),
		visited:   make(map[string]struct{}, hashSize),
	}
	for _, m := range iso.marginals {
		g.marginalResults = append(g.marginalResults, NewMarginalTrek(m, tabSize, hashSize))
	}

	top := g.allocator.newConf()
	top.lProb = g.combinedLProb(top.idx)
	if top.lProb > g.lCutoff {
		heap.Push(&g.pq, top)
		g.visited[hash.Key(top.idx)] = struct{}{}
	}
	return g
}

func (g *IsoOrderedGenerator) combinedLProb(idx []int32) float64 {
	s := 0.0
	for j, m := range g.marginalResults {
		s += m.confLProbs[idx[j]]
	}
	return s
}

// Advance pops the most probable unvisited configuration and pushes
// its unseen neighbours. It returns false when nothing above the
// cutoff remains.
func (g *IsoOrderedGenerator) Advance() bool {
	if g.pq.Len() < 1 {
		return false
	}

	top := heap.Pop(&g.pq).(*conf)
	g.currentLProb = top.lProb
	g.currentMass = 0
	for j, m := range g.marginalResults {
		g.currentMass += m.confMasses[top.idx[j]]
	}
	g.currentConf = top.idx

	for j := 0; j < g.dimNumber; j++ {
		if !g.marginalResults[j].ProbeConfigurationIdx(int(top.idx[j]) + 1) {
			continue
		}
		copy(g.candidate, top.idx)
		g.candidate[j]++

		if _, ok := g.visited[hash.Key(g.candidate)]; ok {
			continue
		}
		lp := g.combinedLProb(g.candidate)
		if lp > g.lCutoff {
			accepted := g.allocator.newConf()
			copy(accepted.idx, g.candidate)
			accepted.lProb = lp
			heap.Push(&g.pq, accepted)
			g.visited[hash.Key(accepted.idx)] = struct{}{}
		}
	}
	return true
}

// Mass returns the mass of the current configuration.
func (g *IsoOrderedGenerator) Mass() float64 { return g.currentMass }

// LProb returns the log-probability of the current configuration.
func (g *IsoOrderedGenerator) LProb() float64 { return g.currentLProb }

// EProb returns the probability of the current configuration.
func (g *IsoOrderedGenerator) EProb() float64 { return math.Exp(g.currentLProb) }

// IsoCounts appends the current expanded isotope count vector to dst.
func (g *IsoOrderedGenerator) IsoCounts(dst []int32) []int32 {
	for j := 0; j < g.dimNumber; j++ {
		dst = append(dst, g.marginalResults[j].confs[g.currentConf[j]]...)
	}
	return dst
}

// ProductUntil drains the generator while the cumulative probability
// is below cutOff.
func (g *IsoOrderedGenerator) ProductUntil(cutOff float64) *Product {
	p := &Product{AllDim: g.allDim}
	var total summator
	for total.get() < cutOff && g.Advance() {
		p.Masses = append(p.Masses, g.Mass())
		p.LogProbs = append(p.LogProbs, g.LProb())
		p.IsoCounts = g.IsoCounts(p.IsoCounts)
		total.add(g.EProb())
	}
	return p
}
