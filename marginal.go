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
	"fmt"
	"math"

	"github.com/spectromodel/isofine/internal/hash"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultTabSize  = 1000
	defaultHashSize = 1000
)

// logProb returns the multinomial log-probability of a partition:
// log(n!) + Σᵢ (partᵢ·lProbᵢ − log(partᵢ!)) where n = Σᵢ partᵢ.
func logProb(part []int32, lProbs []float64) float64 {
	var n int32
	lp := 0.0
	for i, c := range part {
		n += c
		g, _ := math.Lgamma(float64(c) + 1)
		lp += float64(c)*lProbs[i] - g
	}
	g, _ := math.Lgamma(float64(n) + 1)
	return lp + g
}

// confMass returns the mass of a partition: Σᵢ partᵢ·massᵢ.
func confMass(part []int32, masses []float64) float64 {
	m := 0.0
	for i, c := range part {
		m += float64(c) * masses[i]
	}
	return m
}

// initialConfigure computes the modal partition of atomCnt atoms over
// isotopes with the given probabilities. The floor(n·pᵢ)+1 seed lands
// close enough to the mode that the hill-climb converges in a number
// of unit swaps that depends on the isotope count, not the atom count.
func initialConfigure(atomCnt int, probs, lProbs []float64) []int32 {
	isotopeNo := len(probs)
	res := make([]int32, isotopeNo)

	for i := 0; i < isotopeNo; i++ {
		res[i] = int32(float64(atomCnt)*probs[i]) + 1
	}

	var s int32
	for _, v := range res {
		s += v
	}
	diff := int32(atomCnt) - s

	// Too few atoms assigned: enlarge the first slot.
	if diff > 0 {
		res[0] += diff
	}
	// Too many: pull the excess out of the leading slots, spilling
	// rightward as each one empties.
	if diff < 0 {
		diff = -diff
		i := 0
		for diff > 0 {
			coordDiff := res[i] - diff
			if coordDiff >= 0 {
				res[i] -= diff
				diff = 0
			} else {
				res[i] = 0
				i++
				diff = -coordDiff
			}
		}
	}

	// Hill-climb to a local (in practice global) maximum over the
	// unit-swap neighbourhood. Ties keep the current partition.
	modified := true
	lp := logProb(res, lProbs)
	for modified {
		modified = false
		for ii := 0; ii < isotopeNo; ii++ {
			for jj := 0; jj < isotopeNo; jj++ {
				if ii == jj || res[ii] <= 0 {
					continue
				}
				res[ii]--
				res[jj]++
				nlp := logProb(res, lProbs)
				if nlp > lp {
					modified = true
					lp = nlp
				} else {
					res[ii]++
					res[jj]--
				}
			}
		}
	}
	return res
}

// Marginal holds one element's isotope model: the isotope masses, the
// natural-log abundances, the atom count, and the modal partition.
type Marginal struct {
	isotopeNo  int
	atomCnt    int
	atomMasses []float64
	atomLProbs []float64
	modeConf   []int32
}

// NewMarginal builds the isotope model for one element from its
// isotope masses and abundances. Abundances are log-transformed
// through LogProbs so that probabilities taken verbatim from a
// catalogue keep their exact tabulated logs.
func NewMarginal(masses, probs []float64, atomCnt int) (*Marginal, error) {
	if len(masses) != len(probs) {
		return nil, fmt.Errorf("isofine: %d isotope masses but %d abundances", len(masses), len(probs))
	}
	if len(masses) == 0 {
		return nil, fmt.Errorf("isofine: element with no isotopes")
	}
	if atomCnt < 0 {
		return nil, fmt.Errorf("isofine: negative atom count %d", atomCnt)
	}
	m := &Marginal{
		isotopeNo:  len(masses),
		atomCnt:    atomCnt,
		atomMasses: append([]float64(nil), masses...),
		atomLProbs: LogProbs(probs),
	}
	m.modeConf = initialConfigure(atomCnt, probs, m.atomLProbs)
	return m, nil
}

// IsotopeNo returns the number of isotopes in the element's catalogue.
func (m *Marginal) IsotopeNo() int { return m.isotopeNo }

// AtomCnt returns the number of atoms of the element.
func (m *Marginal) AtomCnt() int { return m.atomCnt }

// LightestConfMass returns the smallest mass any partition can have.
func (m *Marginal) LightestConfMass() float64 {
	return floats.Min(m.atomMasses) * float64(m.atomCnt)
}

// HeaviestConfMass returns the largest mass any partition can have.
func (m *Marginal) HeaviestConfMass() float64 {
	return floats.Max(m.atomMasses) * float64(m.atomCnt)
}

// ModeLProb returns the log-probability of the modal partition.
func (m *Marginal) ModeLProb() float64 {
	return logProb(m.modeConf, m.atomLProbs)
}

// trekHeap is a max-heap of discovered partitions keyed by
// log-probability.
type trekHeap struct {
	parts  [][]int32
	lProbs []float64
}

func (h *trekHeap) Len() int           { return len(h.parts) }
func (h *trekHeap) Less(i, j int) bool { return h.lProbs[i] > h.lProbs[j] }
func (h *trekHeap) Swap(i, j int) {
	h.parts[i], h.parts[j] = h.parts[j], h.parts[i]
	h.lProbs[i], h.lProbs[j] = h.lProbs[j], h.lProbs[i]
}
func (h *trekHeap) Push(x interface{}) {
	e := x.(trekEntry)
	h.parts = append(h.parts, e.part)
	h.lProbs = append(h.lProbs, e.lProb)
}
func (h *trekHeap) Pop() interface{} {
	n := len(h.parts) - 1
	e := trekEntry{h.parts[n], h.lProbs[n]}
	h.parts = h.parts[:n]
	h.lProbs = h.lProbs[:n]
	return e
}

type trekEntry struct {
	part  []int32
	lProb float64
}

// MarginalTrek lazily explores one element's partitions in descending
// log-probability order, starting from the modal partition and
// expanding through the unit-swap neighbourhood. Partitions are
// recorded in parallel mass, log-probability and partition tables as
// they are pulled off the heap, so index k is always the k-th most
// probable partition discovered so far.
type MarginalTrek struct {
	*Marginal

	currentCount int
	visited      map[string]int
	pq           *trekHeap
	totalProb    summator
	candidate    []int32
	allocator    *partAllocator

	confs      [][]int32
	confMasses []float64
	confLProbs []float64
}

// NewMarginalTrek starts a trek at the element's modal partition and
// pulls the first partition so that index 0 is immediately available.
func NewMarginalTrek(m *Marginal, tabSize, hashSize int) *MarginalTrek {
	if hashSize < 1 {
		hashSize = defaultHashSize
	}
	t := &MarginalTrek{
		Marginal:  m,
		visited:   make(map[string]int, hashSize),
		pq:        &trekHeap{},
		candidate: make([]int32, m.isotopeNo),
		allocator: newPartAllocator(m.isotopeNo, tabSize),
	}
	initial := t.allocator.makeCopy(m.modeConf)
	heap.Push(t.pq, trekEntry{initial, logProb(initial, m.atomLProbs)})
	t.visited[hash.Key(initial)] = 0
	t.addNextConf()
	return t
}

// addNextConf pops the most probable undiscovered partition, records
// it, and pushes its unseen unit-swap neighbours. It reports false
// when the heap is exhausted.
func (t *MarginalTrek) addNextConf() bool {
	if t.pq.Len() < 1 {
		return false
	}
	top := heap.Pop(t.pq).(trekEntry)
	t.currentCount++
	t.visited[hash.Key(top.part)] = t.currentCount

	t.confs = append(t.confs, top.part)
	t.confMasses = append(t.confMasses, confMass(top.part, t.atomMasses))
	t.confLProbs = append(t.confLProbs, top.lProb)
	t.totalProb.add(math.Exp(top.lProb))

	for i := 0; i < t.isotopeNo; i++ {
		for j := 0; j < t.isotopeNo; j++ {
			// The growing index must differ from the shrinking one and
			// the candidate must remain on the simplex.
			if i == j || top.part[j] <= 0 {
				continue
			}
			copy(t.candidate, top.part)
			t.candidate[i]++
			t.candidate[j]--
			if _, ok := t.visited[hash.Key(t.candidate)]; !ok {
				accepted := t.allocator.makeCopy(t.candidate)
				heap.Push(t.pq, trekEntry{accepted, logProb(accepted, t.atomLProbs)})
				t.visited[hash.Key(accepted)] = 0
			}
		}
	}
	return true
}

// ProbeConfigurationIdx grows the trek until index idx exists,
// reporting whether the marginal can supply that index at all.
func (t *MarginalTrek) ProbeConfigurationIdx(idx int) bool {
	for len(t.confs) <= idx {
		if !t.addNextConf() {
			return false
		}
	}
	return true
}

// ProcessUntilCutoff pulls partitions until their cumulative
// probability reaches cutoff or the space is exhausted. It returns the
// index of the first partition whose cumulative contribution crosses
// the cutoff, or the current table length if the cutoff was not
// reached.
func (t *MarginalTrek) ProcessUntilCutoff(cutoff float64) int {
	var s summator
	for i, lp := range t.confLProbs {
		s.add(math.Exp(lp))
		if s.get() >= cutoff {
			return i
		}
	}
	for t.totalProb.get() < cutoff && t.addNextConf() {
	}
	if t.totalProb.get() >= cutoff {
		return len(t.confLProbs) - 1
	}
	return len(t.confLProbs)
}

// TotalProb returns the cumulative probability of the partitions
// discovered so far.
func (t *MarginalTrek) TotalProb() float64 { return t.totalProb.get() }

// Confs returns the discovered partitions, most probable first.
func (t *MarginalTrek) Confs() [][]int32 { return t.confs }

// ConfMasses returns the masses parallel to Confs.
func (t *MarginalTrek) ConfMasses() []float64 { return t.confMasses }

// ConfLProbs returns the log-probabilities parallel to Confs.
func (t *MarginalTrek) ConfLProbs() []float64 { return t.confLProbs }
