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

// Package isofine computes the isotopic fine structure of chemical
// compounds: given a molecular formula as a multiset of elements, each
// with a catalogue of stable isotopes, it enumerates the most probable
// isotopologues together with their exact masses and
// log-probabilities, until a caller-specified cumulative probability
// is covered. The joint configuration space is far too large to
// materialise, so the enumerators work outward from the most probable
// configuration and only ever visit a thin fringe around it.
package isofine

import (
	"fmt"
	"math"

	"github.com/spectromodel/isofine/elements"
)

// Version gives the version number.
const Version = "1.0.5"

// LogProbs log-transforms isotope abundances. An abundance that
// matches a catalogue entry exactly gets the catalogue's tabulated
// log, so formulas built from catalogue data keep bit-identical
// log-probabilities.
func LogProbs(probs []float64) []float64 {
	ret := make([]float64, len(probs))
	for i, p := range probs {
		if lp, ok := elements.TabulatedLogProb(p); ok {
			ret[i] = lp
		} else {
			ret[i] = math.Log(p)
		}
	}
	return ret
}

// Iso is the isotope model of a whole compound: one Marginal per
// element, plus the bookkeeping the joint enumerators share. An Iso
// handed to an enumerator is consumed by it; the enumerator takes
// ownership of the marginals and the source Iso must not be reused.
type Iso struct {
	dimNumber      int
	isotopeNumbers []int
	atomCounts     []int
	allDim         int
	marginals      []*Marginal
	modeLProb      float64
}

// NewIso builds the compound model. atomCounts[i] is the number of
// atoms of element i; masses[i] and probs[i] are its isotope masses
// and natural abundances.
func NewIso(atomCounts []int, masses, probs [][]float64) (*Iso, error) {
	if len(atomCounts) != len(masses) || len(masses) != len(probs) {
		return nil, fmt.Errorf("isofine: %d atom counts, %d mass arrays, %d abundance arrays",
			len(atomCounts), len(masses), len(probs))
	}
	iso := &Iso{
		dimNumber:      len(atomCounts),
		isotopeNumbers: make([]int, len(atomCounts)),
		atomCounts:     append([]int(nil), atomCounts...),
	}
	for i := range masses {
		for _, m := range masses[i] {
			if !(m > 0) || math.IsInf(m, 0) {
				return nil, fmt.Errorf("isofine: element %d: isotope mass %g is not finite positive", i, m)
			}
		}
		marg, err := NewMarginal(masses[i], probs[i], atomCounts[i])
		if err != nil {
			return nil, err
		}
		iso.isotopeNumbers[i] = marg.IsotopeNo()
		iso.allDim += marg.IsotopeNo()
		iso.marginals = append(iso.marginals, marg)
		iso.modeLProb += marg.ModeLProb()
	}
	return iso, nil
}

// NewIsoFromFormula builds the compound model for a chemical formula
// such as "C6H12O6", with isotope data taken from the catalogue.
func NewIsoFromFormula(formula string, cat *elements.Catalogue) (*Iso, error) {
	atomCounts, masses, probs, err := elements.ParseFormula(formula, cat)
	if err != nil {
		return nil, err
	}
	return NewIso(atomCounts, masses, probs)
}

// Clone with full=true would deep-copy the marginals; that is not
// implemented and requesting it is a programmer error.
func (iso *Iso) Clone(full bool) *Iso {
	if full {
		panic("isofine: full copy of Iso is not implemented")
	}
	shallow := *iso
	return &shallow
}

// DimNumber returns the number of elements in the compound.
func (iso *Iso) DimNumber() int { return iso.dimNumber }

// NoIsotopesTotal returns the summed isotope count over all elements,
// which is the stride of the expanded isotope count vectors.
func (iso *Iso) NoIsotopesTotal() int { return iso.allDim }

// ModeLProb returns the log-probability of the modal joint
// configuration: the sum of the marginal mode log-probabilities.
func (iso *Iso) ModeLProb() float64 { return iso.modeLProb }

// LightestPeakMass returns the smallest mass any isotopologue of the
// compound can have.
func (iso *Iso) LightestPeakMass() float64 {
	mass := 0.0
	for _, m := range iso.marginals {
		mass += m.LightestConfMass()
	}
	return mass
}

// HeaviestPeakMass returns the largest mass any isotopologue of the
// compound can have.
func (iso *Iso) HeaviestPeakMass() float64 {
	mass := 0.0
	for _, m := range iso.marginals {
		mass += m.HeaviestConfMass()
	}
	return mass
}

// Product is the readback of an enumeration: parallel arrays of
// masses and log-probabilities, plus the expanded isotope count
// vectors, concatenated in element order with stride AllDim.
type Product struct {
	Masses    []float64
	LogProbs  []float64
	IsoCounts []int32
	AllDim    int
}

// Len returns the number of configurations in the product.
func (p *Product) Len() int { return len(p.Masses) }

// TotalProb returns the cumulative probability of the product,
// accumulated with compensated summation.
func (p *Product) TotalProb() float64 {
	var s summator
	for _, lp := range p.LogProbs {
		s.add(math.Exp(lp))
	}
	return s.get()
}
