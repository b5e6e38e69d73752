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

package capi

import (
	"math"
	"testing"
)

// Flat input arrays for H₂O: hydrogen's two isotopes, then oxygen's
// three.
var (
	waterIsotopeNumbers = []int{2, 3}
	waterAtomCounts     = []int{2, 1}
	waterMasses         = []float64{1.00782503207, 2.0141017778, 15.99491461956, 16.99913170, 17.9991610}
	waterProbs          = []float64{0.999885, 0.000115, 0.99757, 0.00038, 0.00205}
)

func TestSetupIsoLifecycle(t *testing.T) {
	h := SetupIso(waterIsotopeNumbers, waterAtomCounts, waterMasses, waterProbs)
	if h == 0 {
		t.Fatal("setup failed on valid input")
	}
	if got := GetIsotopesNo(h); got != 5 {
		t.Errorf("isotope count %d, want 5", got)
	}
	DestroyIso(h)
	if got := GetIsotopesNo(h); got != 0 {
		t.Errorf("destroyed handle still answers: %d", got)
	}
	DestroyIso(h) // destroying twice is a no-op
}

func TestSetupIsoInvalidInput(t *testing.T) {
	if h := SetupIso([]int{2}, []int{1, 2}, waterMasses[:2], waterProbs[:2]); h != 0 {
		t.Errorf("mismatched input produced handle %d", h)
	}
}

func TestSetupIsoLayeredReadback(t *testing.T) {
	h := SetupIsoLayered(waterIsotopeNumbers, waterAtomCounts, waterMasses, waterProbs,
		0.998, 1000, 0.3, false, true)
	if h == 0 {
		t.Fatal("layered setup failed on valid input")
	}
	defer DestroyIso(h)

	n := GetIsoConfNo(h)
	if n < 2 {
		t.Fatalf("%d configurations, want at least 2", n)
	}
	allDim := GetIsotopesNo(h)
	masses := make([]float64, n)
	logProbs := make([]float64, n)
	isoCounts := make([]int32, n*allDim)
	GetIsoConfs(h, masses, logProbs, isoCounts)

	var total float64
	mono := 0
	for i := 0; i < n; i++ {
		total += math.Exp(logProbs[i])
		if logProbs[i] > logProbs[mono] {
			mono = i
		}
	}
	if total < 0.998-1e-9 {
		t.Errorf("coverage %g below target", total)
	}
	if math.Abs(masses[mono]-18.0105646837) > 1e-6 {
		t.Errorf("monoisotopic mass %.10f", masses[mono])
	}
	// The monoisotopic configuration is two light hydrogens and one
	// light oxygen.
	seg := isoCounts[mono*allDim : (mono+1)*allDim]
	want := []int32{2, 0, 1, 0, 0}
	for i := range want {
		if seg[i] != want[i] {
			t.Errorf("monoisotopic counts %v, want %v", seg, want)
			break
		}
	}
}

func TestSetupIsoOrderedReadback(t *testing.T) {
	h := SetupIsoOrdered(waterIsotopeNumbers, waterAtomCounts, waterMasses, waterProbs,
		0.999, 1000)
	if h == 0 {
		t.Fatal("ordered setup failed on valid input")
	}
	defer DestroyIso(h)

	n := GetIsoConfNo(h)
	if n < 2 {
		t.Fatalf("%d configurations, want at least 2", n)
	}
	logProbs := make([]float64, n)
	GetIsoConfs(h, nil, logProbs, nil)
	total := 0.0
	for i := 0; i < n; i++ {
		if i > 0 && logProbs[i] > logProbs[i-1]+1e-12 {
			t.Errorf("order violated at %d: %g after %g", i, logProbs[i], logProbs[i-1])
		}
		total += math.Exp(logProbs[i])
	}
	if total < 0.999-1e-9 {
		t.Errorf("coverage %g below target", total)
	}
}

func TestSetupIsoThresholdReadback(t *testing.T) {
	h := SetupIsoThreshold(waterIsotopeNumbers, waterAtomCounts, waterMasses, waterProbs,
		1e-6, false, 1000)
	if h == 0 {
		t.Fatal("threshold setup failed on valid input")
	}
	defer DestroyIso(h)
	if n := GetIsoConfNo(h); n < 3 {
		t.Errorf("%d configurations above 1e-6 of the mode, want at least 3", n)
	}
}
