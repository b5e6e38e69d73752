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

// Package capi exposes the engine through opaque integer handles, the
// shape a foreign-function binding expects: flat input arrays in, a
// handle out, parallel output arrays read back through the handle. A
// zero handle signals failure; the error itself is logged rather than
// returned, because the foreign caller has nowhere to put it.
package capi

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spectromodel/isofine"
)

// Log receives construction failures. Replace it to route them
// elsewhere.
var Log logrus.FieldLogger = logrus.StandardLogger()

var (
	mu      sync.Mutex
	nextID  int64
	engines = map[int64]*engine{}
)

type engine struct {
	iso     *isofine.Iso
	product *isofine.Product
}

func put(e *engine) int64 {
	mu.Lock()
	defer mu.Unlock()
	nextID++
	engines[nextID] = e
	return nextID
}

func get(handle int64) *engine {
	mu.Lock()
	defer mu.Unlock()
	return engines[handle]
}

// unflatten splits the flat per-isotope arrays into per-element
// arrays, the layout the engine takes.
func unflatten(isotopeNumbers []int, flat []float64) [][]float64 {
	out := make([][]float64, len(isotopeNumbers))
	idx := 0
	for i, n := range isotopeNumbers {
		out[i] = flat[idx : idx+n]
		idx += n
	}
	return out
}

// SetupIso builds a compound model from flat arrays:
// isotopeMasses and isotopeProbabilities hold each element's isotopes
// back to back, with isotopeNumbers giving the per-element lengths.
// It returns 0 on invalid input.
func SetupIso(isotopeNumbers, atomCounts []int, isotopeMasses, isotopeProbabilities []float64) int64 {
	iso, err := isofine.NewIso(atomCounts,
		unflatten(isotopeNumbers, isotopeMasses),
		unflatten(isotopeNumbers, isotopeProbabilities))
	if err != nil {
		Log.WithFields(logrus.Fields{"err": err}).Error("setupIso failed")
		return 0
	}
	return put(&engine{iso: iso})
}

// SetupIsoLayered builds a compound model and runs the layered engine
// to the cumulative probability target. The returned handle is ready
// for readback; it is 0 on invalid input.
func SetupIsoLayered(isotopeNumbers, atomCounts []int, isotopeMasses, isotopeProbabilities []float64,
	cutOff float64, tabSize int, layerStep float64, estimateThresholds, trim bool) int64 {

	iso, err := isofine.NewIso(atomCounts,
		unflatten(isotopeNumbers, isotopeMasses),
		unflatten(isotopeNumbers, isotopeProbabilities))
	if err != nil {
		Log.WithFields(logrus.Fields{"err": err}).Error("setupIsoLayered failed")
		return 0
	}
	l := isofine.NewIsoLayered(iso, isofine.LayeredConfig{
		CutOff:             cutOff,
		TabSize:            tabSize,
		LayerStep:          layerStep,
		EstimateThresholds: estimateThresholds,
		Trim:               trim,
	})
	return put(&engine{iso: iso, product: l.Product()})
}

// SetupIsoThreshold builds a compound model and runs the threshold
// engine at the given cutoff.
func SetupIsoThreshold(isotopeNumbers, atomCounts []int, isotopeMasses, isotopeProbabilities []float64,
	threshold float64, absolute bool, tabSize int) int64 {

	iso, err := isofine.NewIso(atomCounts,
		unflatten(isotopeNumbers, isotopeMasses),
		unflatten(isotopeNumbers, isotopeProbabilities))
	if err != nil {
		Log.WithFields(logrus.Fields{"err": err}).Error("setupIsoThreshold failed")
		return 0
	}
	g := isofine.NewIsoThresholdGenerator(iso, threshold, absolute, tabSize, 0)
	return put(&engine{iso: iso, product: g.Product()})
}

// SetupIsoOrdered builds a compound model and drains the ordered
// engine, in strictly descending probability order, until the
// cumulative probability target is covered.
func SetupIsoOrdered(isotopeNumbers, atomCounts []int, isotopeMasses, isotopeProbabilities []float64,
	cutOff float64, tabSize int) int64 {

	iso, err := isofine.NewIso(atomCounts,
		unflatten(isotopeNumbers, isotopeMasses),
		unflatten(isotopeNumbers, isotopeProbabilities))
	if err != nil {
		Log.WithFields(logrus.Fields{"err": err}).Error("setupIsoOrdered failed")
		return 0
	}
	g := isofine.NewIsoOrderedGenerator(iso, math.Inf(-1), tabSize, 0)
	return put(&engine{iso: iso, product: g.ProductUntil(cutOff)})
}

// GetIsotopesNo returns the summed isotope count over all elements.
func GetIsotopesNo(handle int64) int {
	if e := get(handle); e != nil {
		return e.iso.NoIsotopesTotal()
	}
	return 0
}

// GetIsoConfNo returns the number of accepted configurations.
func GetIsoConfNo(handle int64) int {
	if e := get(handle); e != nil && e.product != nil {
		return e.product.Len()
	}
	return 0
}

// GetIsoConfs copies the accepted configurations into the caller's
// buffers. Any destination may be nil to skip it. The isoCounts buffer
// takes GetIsoConfNo·GetIsotopesNo entries: per configuration, the
// concatenation of the per-element partition vectors in element order.
func GetIsoConfs(handle int64, masses, logProbs []float64, isoCounts []int32) {
	e := get(handle)
	if e == nil || e.product == nil {
		return
	}
	if masses != nil {
		copy(masses, e.product.Masses)
	}
	if logProbs != nil {
		copy(logProbs, e.product.LogProbs)
	}
	if isoCounts != nil {
		copy(isoCounts, e.product.IsoCounts)
	}
}

// DestroyIso releases the handle. Destroying an unknown handle is a
// no-op.
func DestroyIso(handle int64) {
	mu.Lock()
	defer mu.Unlock()
	delete(engines, handle)
}
