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
	"math/rand"
)

// LayeredConfig configures the layered joint enumerator.
type LayeredConfig struct {
	// CutOff is the cumulative probability target in (0,1].
	CutOff float64
	// TabSize is the arena slab size; 0 selects the default of 1000.
	TabSize int
	// HashSize is the initial visited-set capacity of the lazy
	// marginals; 0 selects the default.
	HashSize int
	// LayerStep is the fraction of the fringe promoted per layer,
	// in (0,1). 0.3 is a good default.
	LayerStep float64
	// EstimateThresholds selects the analytic threshold update
	// instead of the quickselect one.
	EstimateThresholds bool
	// Trim truncates the last layer so that the result lands on the
	// cumulative target instead of overshooting by up to a layer.
	Trim bool
	// Rand drives pivot choice during trimming. A nil Rand selects
	// deterministic midpoint pivots.
	Rand *rand.Rand
}

// IsoLayered enumerates joint configurations in approximately
// descending probability order, one fringe layer at a time. Within a
// layer every configuration above the current log-probability
// threshold is accepted and expanded; the rest are demoted to the next
// layer, and the threshold drops between layers until the cumulative
// probability target is covered.
type IsoLayered struct {
	*Iso

	cutOff          float64
	allocator       *confAllocator
	marginalResults []*MarginalTrek
	candidate       []int32

	current     []*conf
	next        []*conf
	newaccepted []*conf
	exhausted   bool
	finished    bool

	totalProb          summator
	lprobThr           float64
	percentageToExpand float64
	estimateThresholds bool
	doTrim             bool
	layers             int
	cnt                int
	rnd                *rand.Rand
}

// NewIsoLayered consumes iso and seeds the enumerator with the modal
// joint configuration. The engine does not run until
// ProcessUntilCutoff or Advance is called.
func NewIsoLayered(iso *Iso, cfg LayeredConfig) *IsoLayered {
	l := &IsoLayered{
		Iso:                iso,
		cutOff:             cfg.CutOff,
		allocator:          newConfAllocator(iso.dimNumber, cfg.TabSize),
		candidate:          make([]int32, iso.dimNumber),
		percentageToExpand: cfg.LayerStep,
		estimateThresholds: cfg.EstimateThresholds,
		doTrim:             cfg.Trim,
		rnd:                cfg.Rand,
	}
	for _, m := range iso.marginals {
		l.marginalResults = append(l.marginalResults, NewMarginalTrek(m, cfg.TabSize, cfg.HashSize))
	}

	initial := l.allocator.newConf()
	initial.lProb = l.combinedLProb(initial.idx)
	l.current = append(l.current, initial)
	l.lprobThr = initial.lProb
	return l
}

// combinedLProb sums the per-marginal log-probabilities at the stored
// partition indices.
func (l *IsoLayered) combinedLProb(idx []int32) float64 {
	s := 0.0
	for j, m := range l.marginalResults {
		s += m.confLProbs[idx[j]]
	}
	return s
}

func (l *IsoLayered) combinedMass(idx []int32) float64 {
	s := 0.0
	for j, m := range l.marginalResults {
		s += m.confMasses[idx[j]]
	}
	return s
}

// Advance runs one layer. It returns false once the space is
// exhausted below the target or the target has been reached and the
// final layer processed.
func (l *IsoLayered) Advance() bool {
	if l.exhausted || l.finished {
		return false
	}

	l.layers++
	maxFringeLprob := math.Inf(-1)
	acceptedInThisLayer := 0
	probInThisLayer := l.totalProb

	for len(l.current) > 0 {
		top := l.current[len(l.current)-1]
		l.current = l.current[:len(l.current)-1]
		l.cnt++

		if top.lProb >= l.lprobThr {
			l.newaccepted = append(l.newaccepted, top)
			acceptedInThisLayer++
			probInThisLayer.add(math.Exp(top.lProb))
		} else {
			l.next = append(l.next, top)
			continue
		}

		for j := 0; j < l.dimNumber; j++ {
			// The candidate cannot refer past the end of the stored
			// marginal distribution; grow the lazy marginal first.
			if l.marginalResults[j].ProbeConfigurationIdx(int(top.idx[j]) + 1) {
				copy(l.candidate, top.idx)
				l.candidate[j]++

				accepted := l.allocator.newConf()
				copy(accepted.idx, l.candidate)
				accepted.lProb = l.combinedLProb(l.candidate)

				if accepted.lProb >= l.lprobThr {
					l.current = append(l.current, accepted)
				} else {
					l.next = append(l.next, accepted)
					if accepted.lProb > maxFringeLprob {
						maxFringeLprob = accepted.lProb
					}
				}
			}
			// Each configuration is generated by exactly one parent:
			// the one that differs in the first nonzero index.
			if top.idx[j] > 0 {
				break
			}
		}
	}

	if probInThisLayer.get() < l.cutOff {
		if len(l.next) == 0 {
			l.exhausted = true
			l.totalProb = probInThisLayer
			return false
		}
		l.current, l.next = l.next, l.current[:0]
		howmany := int(math.Floor(float64(len(l.current)) * l.percentageToExpand))
		if l.estimateThresholds {
			l.lprobThr += math.Log(1-l.cutOff) +
				math.Log(1-(1-l.percentageToExpand)/math.Pow(float64(l.layers), 2)) -
				math.Log(1-probInThisLayer.get())
			if l.lprobThr > maxFringeLprob {
				// The density estimate overshot everything left on the
				// fringe; fall back to quickselect from here on.
				l.lprobThr = maxFringeLprob
				l.estimateThresholds = false
				l.percentageToExpand = 0.3
				l.lprobThr = l.quickselectLProb(l.current, howmany)
			}
		} else {
			l.lprobThr = l.quickselectLProb(l.current, howmany)
		}
		l.totalProb = probInThisLayer
		return true
	}

	// Cumulative target met.
	l.finished = true
	l.current = nil
	l.next = nil

	if l.doTrim && acceptedInThisLayer > 0 {
		l.trimLastLayer(acceptedInThisLayer)
	} else {
		l.totalProb = probInThisLayer
	}
	return true
}

// quickselectLProb partially orders confs descending by
// log-probability and returns the log-probability at rank k.
func (l *IsoLayered) quickselectLProb(confs []*conf, k int) float64 {
	if k >= len(confs) {
		k = len(confs) - 1
	}
	if k < 0 {
		k = 0
	}
	start, end := 0, len(confs)
	for end-start > 1 {
		pivot := confs[start+(end-start)/2].lProb
		lo, hi := start, end-1
		for lo <= hi {
			for confs[lo].lProb > pivot {
				lo++
			}
			for confs[hi].lProb < pivot {
				hi--
			}
			if lo <= hi {
				confs[lo], confs[hi] = confs[hi], confs[lo]
				lo++
				hi--
			}
		}
		switch {
		case k <= hi:
			end = hi + 1
		case k >= lo:
			start = lo
		default:
			return confs[k].lProb
		}
	}
	return confs[k].lProb
}

// trimLastLayer partitions the last layer's accepted records
// descending by log-probability and truncates where the cumulative
// probability crosses the target.
func (l *IsoLayered) trimLastLayer(acceptedInThisLayer int) {
	lastLayer := l.newaccepted[len(l.newaccepted)-acceptedInThisLayer:]
	start, end := 0, acceptedInThisLayer
	qsprob := l.totalProb

	for start != end {
		length := end - start
		var pivot int
		if l.rnd != nil {
			pivot = l.rnd.Intn(length) + start
		} else {
			pivot = length/2 + start
		}
		pprob := lastLayer[pivot].lProb
		lastLayer[pivot], lastLayer[end-1] = lastLayer[end-1], lastLayer[pivot]
		loweridx := start
		for i := start; i < end-1; i++ {
			if lastLayer[i].lProb > pprob {
				lastLayer[i], lastLayer[loweridx] = lastLayer[loweridx], lastLayer[i]
				loweridx++
			}
		}
		lastLayer[end-1], lastLayer[loweridx] = lastLayer[loweridx], lastLayer[end-1]

		leftProb := qsprob
		for i := start; i <= loweridx; i++ {
			leftProb.add(math.Exp(lastLayer[i].lProb))
		}
		if leftProb.get() < l.cutOff {
			start = loweridx + 1
			qsprob = leftProb
		} else {
			end = loweridx
		}
	}

	// qsprob covers lastLayer[0:start]; the element at start, which
	// crosses the target, is kept too. If rounding left the whole layer
	// just short of the target, the whole layer is kept.
	if start < acceptedInThisLayer {
		qsprob.add(math.Exp(lastLayer[start].lProb))
		start++
	}
	l.totalProb = qsprob
	l.newaccepted = l.newaccepted[:len(l.newaccepted)-acceptedInThisLayer+start]
}

// ProcessUntilCutoff advances layers until the cumulative probability
// target is covered or the space is exhausted.
func (l *IsoLayered) ProcessUntilCutoff() {
	for l.cutOff > l.totalProb.get() && l.Advance() {
	}
}

// TotalProb returns the cumulative probability of the accepted set.
func (l *IsoLayered) TotalProb() float64 { return l.totalProb.get() }

// Len returns the number of accepted configurations.
func (l *IsoLayered) Len() int { return len(l.newaccepted) }

// Product runs the enumeration to the cumulative target and reads the
// accepted set back as parallel arrays.
func (l *IsoLayered) Product() *Product {
	l.ProcessUntilCutoff()
	return l.CurrentProduct()
}

// CurrentProduct reads back whatever has been accepted so far without
// advancing the enumeration.
func (l *IsoLayered) CurrentProduct() *Product {
	p := &Product{
		Masses:    make([]float64, len(l.newaccepted)),
		LogProbs:  make([]float64, len(l.newaccepted)),
		IsoCounts: make([]int32, len(l.newaccepted)*l.allDim),
		AllDim:    l.allDim,
	}
	j := 0
	for i, c := range l.newaccepted {
		p.Masses[i] = l.combinedMass(c.idx)
		p.LogProbs[i] = c.lProb
		for d := 0; d < l.dimNumber; d++ {
			part := l.marginalResults[d].confs[c.idx[d]]
			copy(p.IsoCounts[j:j+len(part)], part)
			j += len(part)
		}
	}
	return p
}
