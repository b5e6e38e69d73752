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
	"math"
	"strings"
	"testing"

	"github.com/kr/pretty"
)

func TestDefaultCatalogueConsistency(t *testing.T) {
	cat := Default()
	if cat.Len() < 10 {
		t.Fatalf("built-in catalogue holds %d elements", cat.Len())
	}
	for _, sym := range cat.Symbols() {
		e, ok := cat.Lookup(sym)
		if !ok {
			t.Fatalf("symbol %q not found", sym)
		}
		total := 0.0
		for _, iso := range e.Isotopes {
			if !(iso.Mass > 0) {
				t.Errorf("%s: mass %g not positive", sym, iso.Mass)
			}
			if iso.LogProbability > 0 {
				t.Errorf("%s: log-abundance %g positive", sym, iso.LogProbability)
			}
			if math.Abs(iso.LogProbability-math.Log(iso.Probability)) > 1e-12 {
				t.Errorf("%s: tabulated log %g does not match abundance %g", sym, iso.LogProbability, iso.Probability)
			}
			total += iso.Probability
		}
		if math.Abs(total-1) > 1e-4 {
			t.Errorf("%s: abundances sum to %g", sym, total)
		}
	}
}

func TestTabulatedLogProb(t *testing.T) {
	if lp, ok := TabulatedLogProb(0.999885); !ok || lp != math.Log(0.999885) {
		t.Errorf("catalogue abundance not found: %g %v", lp, ok)
	}
	if _, ok := TabulatedLogProb(0.123456); ok {
		t.Error("non-catalogue abundance reported as tabulated")
	}
}

func TestParseFormula(t *testing.T) {
	atomCounts, masses, probs, err := ParseFormula("C6H12O6", nil)
	if err != nil {
		t.Fatal(err)
	}
	wantCounts := []int{6, 12, 6}
	if diff := pretty.Diff(atomCounts, wantCounts); len(diff) > 0 {
		t.Errorf("atom counts: %v", diff)
	}
	if len(masses) != 3 || len(probs) != 3 {
		t.Fatalf("%d mass arrays, %d abundance arrays", len(masses), len(probs))
	}
	if len(masses[0]) != 2 || len(masses[2]) != 3 {
		t.Errorf("isotope counts: C=%d O=%d", len(masses[0]), len(masses[2]))
	}
}

func TestParseFormulaImplicitOne(t *testing.T) {
	atomCounts, _, _, err := ParseFormula("H2O", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(atomCounts) != 2 || atomCounts[0] != 2 || atomCounts[1] != 1 {
		t.Errorf("atom counts %v, want [2 1]", atomCounts)
	}
}

func TestParseFormulaRejects(t *testing.T) {
	for _, bad := range []string{"", "12", "H0", "Xx2", "H2O3Q", "H-2"} {
		if _, _, _, err := ParseFormula(bad, nil); err == nil {
			t.Errorf("formula %q should not parse", bad)
		}
	}
}

func TestReadCatalogue(t *testing.T) {
	src := `
[[element]]
symbol = "X"
name = "unobtainium"
atomic_number = 119
  [[element.isotope]]
  mass = 295.0
  abundance = 0.75
  [[element.isotope]]
  mass = 297.0
  abundance = 0.25
`
	cat, err := ReadCatalogue(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	x, ok := cat.Lookup("X")
	if !ok {
		t.Fatal("loaded element not found")
	}
	if len(x.Isotopes) != 2 {
		t.Fatalf("%d isotopes", len(x.Isotopes))
	}
	if math.Abs(x.Isotopes[0].LogProbability-math.Log(0.75)) > 1e-15 {
		t.Errorf("log not computed on load: %g", x.Isotopes[0].LogProbability)
	}
	// The built-in elements remain visible behind the file.
	if _, ok := cat.Lookup("C"); !ok {
		t.Error("built-in carbon shadowed away")
	}
}

func TestReadCatalogueRejects(t *testing.T) {
	for _, src := range []string{
		"",
		"[[element]]\nsymbol = \"Y\"\n",
		"[[element]]\nsymbol = \"Y\"\n[[element.isotope]]\nmass = -1.0\nabundance = 0.5\n",
		"[[element]]\nsymbol = \"Y\"\n[[element.isotope]]\nmass = 1.0\nabundance = 1.5\n",
	} {
		if _, err := ReadCatalogue(strings.NewReader(src)); err == nil {
			t.Errorf("catalogue %q should not load", src)
		}
	}
}
