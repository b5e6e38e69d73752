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
	"sort"
)

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func floorLog2(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

// RGTMarginal is a PrecalculatedMarginal indexed by a Range-Gap Tree:
// a perfect binary tree over the log-probability-sorted partition
// list, where at every level the entries of each 2^level block are
// kept in mass order. The index answers probability-band ∩ mass-band
// queries by emitting the band's endpoints, then walking the implicit
// tree upward and scanning whole sibling blocks through a binary
// search on their mass-sorted row. Emission order is not monotone in
// either coordinate; callers use the iterator as a set filter.
type RGTMarginal struct {
	*PrecalculatedMarginal

	tovNP2           int
	tovNP2M1         int
	massTableRowsNo  int
	massTableRowSize int
	massTableSize    int
	subintervals     []int
	massTable        []float64

	pmin, pmax, mmin, mmax float64
	lower, upper           int
	mask                   int
	gap                    int
	arridx, arrend         int
	currentLevel           int
	goingUp                bool
	cidx                   int
}

// NewRGTMarginal consumes the marginal, precalculates its sorted
// partition list at lCutOff, and erects the mass index over it.
func NewRGTMarginal(m *Marginal, lCutOff float64, tabSize, hashSize int) *RGTMarginal {
	r := &RGTMarginal{
		PrecalculatedMarginal: NewPrecalculatedMarginal(m, lCutOff, true, tabSize, hashSize),
	}
	r.tovNP2 = nextPow2(r.NoConfs())
	r.tovNP2M1 = r.tovNP2 / 2
	r.massTableRowsNo = floorLog2(max(r.tovNP2M1, 1))
	r.massTableRowSize = r.NoConfs()
	r.massTableSize = r.massTableRowSize * r.massTableRowsNo
	r.setupSubintervals()
	r.setupMassTable()
	r.terminateSearch()
	return r
}

func (r *RGTMarginal) setupSubintervals() {
	noConfs := r.NoConfs()
	r.subintervals = make([]int, r.massTableSize+4)
	step := 1
	for level := 0; level < r.massTableSize; level += r.massTableRowSize {
		step <<= 1
		stepm1 := step - 1
		counter := 0
		for ii := 0; ii < noConfs; ii++ {
			r.subintervals[level+ii] = ii
			if ii&stepm1 == 0 || ii == noConfs-1 {
				seg := r.subintervals[level+counter : level+ii]
				sort.Slice(seg, func(a, b int) bool {
					return r.masses[seg[a]] < r.masses[seg[b]]
				})
				counter = ii
			}
		}
	}
}

func (r *RGTMarginal) setupMassTable() {
	// One less pointer chase per partition during block scans.
	r.massTable = make([]float64, r.massTableSize+4)
	for level := 0; level < r.massTableSize; level += r.massTableRowSize {
		for ii := level; ii < r.NoConfs()+level; ii++ {
			r.massTable[ii] = r.masses[r.subintervals[ii]]
		}
	}
}

// SetupSearch starts a query for partitions with log-probability in
// [pmin, pmax] and mass in [mmin, mmax]. Read the results by calling
// Next until it returns false, taking CurrentIdx after each true.
func (r *RGTMarginal) SetupSearch(pmin, pmax, mmin, mmax float64) {
	r.pmin, r.pmax, r.mmin, r.mmax = pmin, pmax, mmin, mmax
	r.mask = ^1
	r.gap = 2
	r.arridx = r.massTableSize
	r.arrend = r.massTableSize

	noConfs := r.NoConfs()

	// Log-probabilities are sorted descending, so the probability band
	// [pmin, pmax] is the index interval [lower, upper].
	if pmax >= 0 {
		r.lower = 0
	} else {
		r.lower = sort.Search(noConfs, func(i int) bool { return r.lProbs[i] <= pmax })
		if r.lower == noConfs {
			r.terminateSearch()
			return
		}
	}

	if math.IsInf(pmin, -1) {
		r.upper = noConfs - 1
	} else {
		r.upper = sort.Search(noConfs, func(i int) bool { return r.lProbs[i] < pmin })
		if r.upper == 0 {
			r.terminateSearch()
			return
		}
		r.upper--
	}

	if r.lower > r.upper {
		r.terminateSearch()
		return
	}

	if r.mmin <= r.masses[r.lower] && r.masses[r.lower] <= r.mmax {
		r.emitScratch(r.lower)
	}

	if r.upper == r.lower {
		return
	}

	if r.mmin <= r.masses[r.upper] && r.masses[r.upper] <= r.mmax && r.lProbs[r.upper] >= r.pmin {
		r.emitScratch(r.upper)
	}

	if r.upper&^1 == r.lower {
		return
	}

	if r.lower&1 == 0 {
		// lower is a left child: its right sibling is in range too.
		r.lower++
		if r.lower == r.upper {
			return
		}
		if r.mmin <= r.masses[r.lower] && r.masses[r.lower] <= r.mmax {
			r.emitScratch(r.lower)
		}
	}

	if r.upper&1 == 1 {
		// upper is a right child: its left sibling is in range too.
		r.upper--
		if r.mmin <= r.masses[r.upper] && r.masses[r.upper] <= r.mmax && r.lProbs[r.upper] >= r.pmin {
			r.emitScratch(r.upper)
		}
	}

	r.lower &= r.mask
	r.upper &= r.mask

	r.currentLevel = -r.massTableRowSize
	r.goingUp = true
}

func (r *RGTMarginal) emitScratch(idx int) {
	r.subintervals[r.arrend] = idx
	r.massTable[r.arrend] = r.masses[idx]
	r.arrend++
}

// Next advances to the next partition inside the query rectangle. The
// partitions come out each exactly once but in no particular order.
func (r *RGTMarginal) Next() bool {
	if r.arridx < r.arrend && r.massTable[r.arridx] <= r.mmax {
		r.cidx = r.subintervals[r.arridx]
		r.arridx++
		return true
	}
	return r.hardNext()
}

func (r *RGTMarginal) hardNext() bool {
	if r.upper == r.lower || r.upper&r.mask == r.lower {
		r.terminateSearch()
		return false
	}
	nextmask := r.mask << 1
	if r.goingUp {
		r.goingUp = false
		r.currentLevel += r.massTableRowSize
		r.gap <<= 1
		if r.upper&nextmask == r.lower&nextmask {
			r.terminateSearch()
			return false
		}
		if r.upper&^nextmask != 0 {
			// Coming from a right child: scan the left sibling block.
			r.arrend = r.upper + r.currentLevel
			r.upper &= nextmask
			dstart := r.currentLevel + r.upper
			r.arridx = dstart + sort.SearchFloat64s(r.massTable[dstart:r.arrend], r.mmin)
			return r.Next()
		}
		// Coming from a left child: nothing new on this side.
		r.upper &= nextmask
		return r.hardNext()
	}

	r.goingUp = true
	if r.lower&^nextmask != 0 {
		// Coming from a right child: nothing new on this side.
		r.lower &= nextmask
		r.mask <<= 1
		return r.hardNext()
	}
	searchStart := r.lower + r.gap/2
	r.arrend = r.lower + r.currentLevel + r.gap
	dstart := r.currentLevel + searchStart
	r.arridx = dstart + sort.SearchFloat64s(r.massTable[dstart:r.arrend], r.mmin)
	r.lower &= nextmask
	r.mask <<= 1
	return r.Next()
}

// CurrentIdx returns the partition index emitted by the last
// successful Next.
func (r *RGTMarginal) CurrentIdx() int { return r.cidx }

func (r *RGTMarginal) terminateSearch() {
	r.arridx, r.arrend, r.lower, r.upper = 0, 0, 0, 0
	r.pmin, r.pmax, r.mmin, r.mmax = 0, 0, 0, 0
}

// MinMassAboveLProb returns the smallest mass among partitions with
// log-probability at least lProb.
func (r *RGTMarginal) MinMassAboveLProb(lProb float64) float64 {
	r.SetupSearch(lProb, math.Inf(1), math.Inf(-1), math.Inf(1))
	acc := math.Inf(1)
	for r.Next() {
		acc = math.Min(acc, r.masses[r.cidx])
	}
	return acc
}

// MaxMassAboveLProb returns the largest mass among partitions with
// log-probability at least lProb.
func (r *RGTMarginal) MaxMassAboveLProb(lProb float64) float64 {
	r.SetupSearch(lProb, math.Inf(1), math.Inf(-1), math.Inf(1))
	acc := math.Inf(-1)
	for r.Next() {
		acc = math.Max(acc, r.masses[r.cidx])
	}
	return acc
}
