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

// Package elements holds the catalogue of chemical elements and their
// stable isotopes, and parses molecular formulas against it. The
// built-in catalogue is process-wide immutable data; user-supplied
// catalogues can be loaded from TOML files.
package elements

import (
	"fmt"
	"math"
	"sort"
)

// Isotope is one stable isotope of an element.
type Isotope struct {
	// Mass is the atomic mass in daltons.
	Mass float64
	// Probability is the natural abundance.
	Probability float64
	// LogProbability is the natural log of the abundance, tabulated
	// once so that downstream log-probability arithmetic is
	// bit-reproducible.
	LogProbability float64
}

// Element is a chemical element with its catalogue of stable isotopes.
type Element struct {
	Symbol   string
	Name     string
	AtomicNo int
	Isotopes []Isotope
}

// Masses returns the isotope masses in catalogue order.
func (e *Element) Masses() []float64 {
	m := make([]float64, len(e.Isotopes))
	for i, iso := range e.Isotopes {
		m[i] = iso.Mass
	}
	return m
}

// Probabilities returns the isotope abundances in catalogue order.
func (e *Element) Probabilities() []float64 {
	p := make([]float64, len(e.Isotopes))
	for i, iso := range e.Isotopes {
		p[i] = iso.Probability
	}
	return p
}

// Catalogue is a set of elements addressable by symbol.
type Catalogue struct {
	elems    []*Element
	bySymbol map[string]*Element
}

// NewCatalogue builds a catalogue from the given elements, computing
// any missing tabulated logs.
func NewCatalogue(elems []*Element) (*Catalogue, error) {
	c := &Catalogue{bySymbol: make(map[string]*Element, len(elems))}
	for _, e := range elems {
		if len(e.Isotopes) == 0 {
			return nil, fmt.Errorf("elements: element %q has no isotopes", e.Symbol)
		}
		if _, ok := c.bySymbol[e.Symbol]; ok {
			return nil, fmt.Errorf("elements: duplicate element symbol %q", e.Symbol)
		}
		for i := range e.Isotopes {
			iso := &e.Isotopes[i]
			if !(iso.Mass > 0) {
				return nil, fmt.Errorf("elements: %s: isotope mass %g is not positive", e.Symbol, iso.Mass)
			}
			if !(iso.Probability > 0 && iso.Probability <= 1) {
				return nil, fmt.Errorf("elements: %s: abundance %g outside (0,1]", e.Symbol, iso.Probability)
			}
			if iso.LogProbability == 0 && iso.Probability != 1 {
				iso.LogProbability = math.Log(iso.Probability)
			}
		}
		c.elems = append(c.elems, e)
		c.bySymbol[e.Symbol] = e
	}
	return c, nil
}

// Lookup returns the element with the given symbol.
func (c *Catalogue) Lookup(symbol string) (*Element, bool) {
	e, ok := c.bySymbol[symbol]
	return e, ok
}

// Symbols returns the catalogue's element symbols, sorted.
func (c *Catalogue) Symbols() []string {
	s := make([]string, 0, len(c.elems))
	for _, e := range c.elems {
		s = append(s, e.Symbol)
	}
	sort.Strings(s)
	return s
}

// Len returns the number of elements in the catalogue.
func (c *Catalogue) Len() int { return len(c.elems) }

var defaultCatalogue *Catalogue

// Default returns the built-in catalogue.
func Default() *Catalogue { return defaultCatalogue }

// TabulatedLogProb returns the tabulated log of prob if prob matches a
// built-in catalogue abundance exactly. Substituting the tabulated
// value keeps log-probabilities bit-identical for data taken verbatim
// from the catalogue.
func TabulatedLogProb(prob float64) (float64, bool) {
	for _, e := range defaultCatalogue.elems {
		for _, iso := range e.Isotopes {
			if iso.Probability == prob {
				return iso.LogProbability, true
			}
		}
	}
	return 0, false
}

func mustCatalogue(elems []*Element) *Catalogue {
	c, err := NewCatalogue(elems)
	if err != nil {
		panic(err)
	}
	return c
}

// Isotope masses and abundances follow the 2013 IUPAC/CIAAW tables.
func init() {
	defaultCatalogue = mustCatalogue([]*Element{
		{Symbol: "H", Name: "hydrogen", AtomicNo: 1, Isotopes: []Isotope{
			{Mass: 1.00782503207, Probability: 0.999885},
			{Mass: 2.0141017778, Probability: 0.000115},
		}},
		{Symbol: "He", Name: "helium", AtomicNo: 2, Isotopes: []Isotope{
			{Mass: 3.0160293191, Probability: 0.00000134},
			{Mass: 4.00260325415, Probability: 0.99999866},
		}},
		{Symbol: "Li", Name: "lithium", AtomicNo: 3, Isotopes: []Isotope{
			{Mass: 6.015122795, Probability: 0.0759},
			{Mass: 7.01600455, Probability: 0.9241},
		}},
		{Symbol: "B", Name: "boron", AtomicNo: 5, Isotopes: []Isotope{
			{Mass: 10.0129370, Probability: 0.199},
			{Mass: 11.0093054, Probability: 0.801},
		}},
		{Symbol: "C", Name: "carbon", AtomicNo: 6, Isotopes: []Isotope{
			{Mass: 12.0, Probability: 0.9893},
			{Mass: 13.0033548378, Probability: 0.0107},
		}},
		{Symbol: "N", Name: "nitrogen", AtomicNo: 7, Isotopes: []Isotope{
			{Mass: 14.0030740048, Probability: 0.99636},
			{Mass: 15.0001088982, Probability: 0.00364},
		}},
		{Symbol: "O", Name: "oxygen", AtomicNo: 8, Isotopes: []Isotope{
			{Mass: 15.99491461956, Probability: 0.99757},
			{Mass: 16.99913170, Probability: 0.00038},
			{Mass: 17.9991610, Probability: 0.00205},
		}},
		{Symbol: "F", Name: "fluorine", AtomicNo: 9, Isotopes: []Isotope{
			{Mass: 18.99840322, Probability: 1.0},
		}},
		{Symbol: "Na", Name: "sodium", AtomicNo: 11, Isotopes: []Isotope{
			{Mass: 22.9897692809, Probability: 1.0},
		}},
		{Symbol: "Mg", Name: "magnesium", AtomicNo: 12, Isotopes: []Isotope{
			{Mass: 23.9850417, Probability: 0.7899},
			{Mass: 24.98583692, Probability: 0.1000},
			{Mass: 25.982592929, Probability: 0.1101},
		}},
		{Symbol: "Si", Name: "silicon", AtomicNo: 14, Isotopes: []Isotope{
			{Mass: 27.9769265325, Probability: 0.92223},
			{Mass: 28.9764947, Probability: 0.04685},
			{Mass: 29.97377017, Probability: 0.03092},
		}},
		{Symbol: "P", Name: "phosphorus", AtomicNo: 15, Isotopes: []Isotope{
			{Mass: 30.97376163, Probability: 1.0},
		}},
		{Symbol: "S", Name: "sulfur", AtomicNo: 16, Isotopes: []Isotope{
			{Mass: 31.972071, Probability: 0.9499},
			{Mass: 32.97145876, Probability: 0.0075},
			{Mass: 33.9678669, Probability: 0.0425},
			{Mass: 35.96708076, Probability: 0.0001},
		}},
		{Symbol: "Cl", Name: "chlorine", AtomicNo: 17, Isotopes: []Isotope{
			{Mass: 34.96885268, Probability: 0.7576},
			{Mass: 36.96590259, Probability: 0.2424},
		}},
		{Symbol: "K", Name: "potassium", AtomicNo: 19, Isotopes: []Isotope{
			{Mass: 38.96370668, Probability: 0.932581},
			{Mass: 39.96399848, Probability: 0.000117},
			{Mass: 40.96182576, Probability: 0.067302},
		}},
		{Symbol: "Ca", Name: "calcium", AtomicNo: 20, Isotopes: []Isotope{
			{Mass: 39.96259098, Probability: 0.96941},
			{Mass: 41.95861801, Probability: 0.00647},
			{Mass: 42.9587666, Probability: 0.00135},
			{Mass: 43.9554818, Probability: 0.02086},
			{Mass: 45.9536926, Probability: 0.00004},
			{Mass: 47.952534, Probability: 0.00187},
		}},
		{Symbol: "Fe", Name: "iron", AtomicNo: 26, Isotopes: []Isotope{
			{Mass: 53.9396105, Probability: 0.05845},
			{Mass: 55.9349375, Probability: 0.91754},
			{Mass: 56.935394, Probability: 0.02119},
			{Mass: 57.9332756, Probability: 0.00282},
		}},
		{Symbol: "Cu", Name: "copper", AtomicNo: 29, Isotopes: []Isotope{
			{Mass: 62.9295975, Probability: 0.6915},
			{Mass: 64.9277895, Probability: 0.3085},
		}},
		{Symbol: "Br", Name: "bromine", AtomicNo: 35, Isotopes: []Isotope{
			{Mass: 78.9183371, Probability: 0.5069},
			{Mass: 80.9162906, Probability: 0.4931},
		}},
		{Symbol: "I", Name: "iodine", AtomicNo: 53, Isotopes: []Isotope{
			{Mass: 126.904473, Probability: 1.0},
		}},
	})
}
