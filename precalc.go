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
	"sync/atomic"

	"github.com/spectromodel/isofine/internal/hash"
)

// PrecalculatedMarginal eagerly enumerates every partition of one
// element whose log-probability is at least lCutOff, breadth-first
// from the modal partition through the unit-swap neighbourhood. The
// result is held in four parallel tables: the partitions themselves
// and their masses, log-probabilities and probabilities.
type PrecalculatedMarginal struct {
	*Marginal

	allocator *partAllocator

	confs  [][]int32
	masses []float64
	lProbs []float64
	eProbs []float64
}

// NewPrecalculatedMarginal consumes the marginal and enumerates its
// above-cutoff partitions. When sortConfs is set the tables are sorted
// descending by log-probability, so index 0 is the mode.
func NewPrecalculatedMarginal(m *Marginal, lCutOff float64, sortConfs bool, tabSize, hashSize int) *PrecalculatedMarginal {
	if hashSize < 1 {
		hashSize = defaultHashSize
	}
	p := &PrecalculatedMarginal{
		Marginal:  m,
		allocator: newPartAllocator(m.isotopeNo, tabSize),
	}

	visited := make(map[string]struct{}, hashSize)
	current := p.allocator.makeCopy(m.modeConf)
	if logProb(current, m.atomLProbs) >= lCutOff {
		p.confs = append(p.confs, p.allocator.makeCopy(current))
		visited[hash.Key(current)] = struct{}{}
	}

	// Breadth-first: a queue, not a heap. Order inside the set does
	// not matter here; the final sort establishes it.
	for idx := 0; idx < len(p.confs); idx++ {
		copy(current, p.confs[idx])
		for ii := 0; ii < m.isotopeNo; ii++ {
			for jj := 0; jj < m.isotopeNo; jj++ {
				if ii == jj || current[jj] <= 0 {
					continue
				}
				current[ii]++
				current[jj]--
				if _, ok := visited[hash.Key(current)]; !ok && logProb(current, m.atomLProbs) >= lCutOff {
					visited[hash.Key(current)] = struct{}{}
					p.confs = append(p.confs, p.allocator.makeCopy(current))
				}
				current[ii]--
				current[jj]++
			}
		}
	}

	if sortConfs {
		sort.SliceStable(p.confs, func(a, b int) bool {
			return logProb(p.confs[a], m.atomLProbs) > logProb(p.confs[b], m.atomLProbs)
		})
	}

	n := len(p.confs)
	p.lProbs = make([]float64, n)
	p.eProbs = make([]float64, n)
	p.masses = make([]float64, n)
	for i, c := range p.confs {
		p.lProbs[i] = logProb(c, m.atomLProbs)
		p.eProbs[i] = math.Exp(p.lProbs[i])
		p.masses[i] = confMass(c, m.atomMasses)
	}
	return p
}

// InRange reports whether idx indexes a stored partition.
func (p *PrecalculatedMarginal) InRange(idx int) bool {
	return 0 <= idx && idx < len(p.confs)
}

// NoConfs returns the number of stored partitions.
func (p *PrecalculatedMarginal) NoConfs() int { return len(p.confs) }

// LProb returns the log-probability of partition idx.
func (p *PrecalculatedMarginal) LProb(idx int) float64 { return p.lProbs[idx] }

// EProb returns the probability of partition idx.
func (p *PrecalculatedMarginal) EProb(idx int) float64 { return p.eProbs[idx] }

// Mass returns the mass of partition idx.
func (p *PrecalculatedMarginal) Mass(idx int) float64 { return p.masses[idx] }

// Conf returns partition idx. The returned slice is owned by the
// marginal and must not be modified.
func (p *PrecalculatedMarginal) Conf(idx int) []int32 { return p.confs[idx] }

// SyncMarginal is a PrecalculatedMarginal whose indices are handed out
// atomically, so concurrent odometers can split the enumeration of one
// dimension between them. This is the only synchronisation point of
// the multi-goroutine threshold engine: the tables themselves are
// read-only after construction.
type SyncMarginal struct {
	*PrecalculatedMarginal
	counter uint32
}

// NewSyncMarginal consumes the marginal the same way
// NewPrecalculatedMarginal does.
func NewSyncMarginal(m *Marginal, lCutOff float64, tabSize, hashSize int) *SyncMarginal {
	return &SyncMarginal{
		PrecalculatedMarginal: NewPrecalculatedMarginal(m, lCutOff, true, tabSize, hashSize),
	}
}

// GetNextConfIdx atomically claims the next unclaimed partition index.
func (s *SyncMarginal) GetNextConfIdx() int {
	return int(atomic.AddUint32(&s.counter, 1)) - 1
}
