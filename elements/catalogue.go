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

package elements

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

type tomlIsotope struct {
	Mass      float64 `toml:"mass"`
	Abundance float64 `toml:"abundance"`
}

type tomlElement struct {
	Symbol   string        `toml:"symbol"`
	Name     string        `toml:"name"`
	AtomicNo int           `toml:"atomic_number"`
	Isotopes []tomlIsotope `toml:"isotope"`
}

type tomlCatalogue struct {
	Elements []tomlElement `toml:"element"`
}

// ReadCatalogue loads a catalogue from TOML data of the form
//
//	[[element]]
//	symbol = "X"
//	atomic_number = 119
//	  [[element.isotope]]
//	  mass = 295.0
//	  abundance = 1.0
//
// Elements in the file shadow same-symbol elements of the built-in
// catalogue; the rest of the built-in catalogue remains visible.
func ReadCatalogue(r io.Reader) (*Catalogue, error) {
	var tc tomlCatalogue
	if _, err := toml.NewDecoder(r).Decode(&tc); err != nil {
		return nil, fmt.Errorf("elements: reading catalogue: %v", err)
	}
	if len(tc.Elements) == 0 {
		return nil, fmt.Errorf("elements: catalogue file holds no elements")
	}

	fromFile := make(map[string]bool, len(tc.Elements))
	var elems []*Element
	for _, te := range tc.Elements {
		e := &Element{Symbol: te.Symbol, Name: te.Name, AtomicNo: te.AtomicNo}
		for _, ti := range te.Isotopes {
			e.Isotopes = append(e.Isotopes, Isotope{Mass: ti.Mass, Probability: ti.Abundance})
		}
		elems = append(elems, e)
		fromFile[te.Symbol] = true
	}
	for _, e := range Default().elems {
		if !fromFile[e.Symbol] {
			elems = append(elems, e)
		}
	}
	return NewCatalogue(elems)
}

// LoadCatalogue loads a catalogue from a TOML file.
func LoadCatalogue(path string) (*Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elements: %v", err)
	}
	defer f.Close()
	return ReadCatalogue(f)
}
