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

// conf is a joint configuration record: the summed log-probability of
// the configuration together with, for each element, the index of the
// chosen partition within that element's enumerated marginal list.
// The idx slice is backed by a confAllocator slab and stays valid for
// the lifetime of the allocator that produced it.
type conf struct {
	lProb float64
	idx   []int32
}

// confAllocator hands out joint configuration records in slabs of
// tabSize records each. Records are never returned individually; the
// whole arena is dropped at once when the owning engine is garbage
// collected. Pointers returned by newConf remain valid for the
// allocator's lifetime.
type confAllocator struct {
	dim       int
	tabSize   int
	currentID int
	recs      []conf
	ints      []int32
}

func newConfAllocator(dim, tabSize int) *confAllocator {
	if tabSize < 1 {
		tabSize = defaultTabSize
	}
	a := &confAllocator{dim: dim, tabSize: tabSize}
	a.shiftTables()
	return a
}

func (a *confAllocator) shiftTables() {
	// Retired slabs stay reachable through the records handed out of
	// them, so they are simply abandoned here.
	a.recs = make([]conf, a.tabSize)
	a.ints = make([]int32, a.dim*a.tabSize)
	a.currentID = 0
}

// newConf returns a zeroed record from the current slab, retiring the
// slab and starting a new one when it is full.
func (a *confAllocator) newConf() *conf {
	if a.currentID == a.tabSize {
		a.shiftTables()
	}
	c := &a.recs[a.currentID]
	c.idx = a.ints[a.currentID*a.dim : (a.currentID+1)*a.dim : (a.currentID+1)*a.dim]
	a.currentID++
	return c
}

// makeCopy allocates a record and copies src into it.
func (a *confAllocator) makeCopy(src *conf) *conf {
	c := a.newConf()
	c.lProb = src.lProb
	copy(c.idx, src.idx)
	return c
}

// partAllocator is the same slab scheme for bare isotope partitions
// (length-isotopeNo int32 vectors) used by the marginal enumerators.
type partAllocator struct {
	dim       int
	tabSize   int
	currentID int
	ints      []int32
}

func newPartAllocator(dim, tabSize int) *partAllocator {
	if tabSize < 1 {
		tabSize = defaultTabSize
	}
	a := &partAllocator{dim: dim, tabSize: tabSize}
	a.shiftTables()
	return a
}

func (a *partAllocator) shiftTables() {
	a.ints = make([]int32, a.dim*a.tabSize)
	a.currentID = 0
}

func (a *partAllocator) newPart() []int32 {
	if a.currentID == a.tabSize {
		a.shiftTables()
	}
	p := a.ints[a.currentID*a.dim : (a.currentID+1)*a.dim : (a.currentID+1)*a.dim]
	a.currentID++
	return p
}

func (a *partAllocator) makeCopy(src []int32) []int32 {
	p := a.newPart()
	copy(p, src)
	return p
}
