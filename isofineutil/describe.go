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

package isofineutil

import (
	"fmt"
	"io"
	"math"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/spectromodel/isofine"
	"gonum.org/v1/gonum/floats"
)

// Describe writes summary statistics of the spectrum: peak count,
// coverage, the most probable peak, the probability-weighted centroid
// mass, and the unweighted spread of the peak masses.
func Describe(w io.Writer, formula string, p *isofine.Product) error {
	if p.Len() == 0 {
		_, err := fmt.Fprintf(w, "%s: empty spectrum\n", formula)
		return err
	}

	var massStats stats.Stats
	centroid := 0.0
	top := 0
	for i := 0; i < p.Len(); i++ {
		massStats.Update(p.Masses[i])
		centroid += p.Masses[i] * math.Exp(p.LogProbs[i])
		if p.LogProbs[i] > p.LogProbs[top] {
			top = i
		}
	}
	total := p.TotalProb()
	centroid /= total

	fmt.Fprintf(w, "%s: %d configurations covering probability %.9g\n", formula, p.Len(), total)
	fmt.Fprintf(w, "most probable: mass %.8f Da, probability %.8g\n",
		p.Masses[top], math.Exp(p.LogProbs[top]))
	fmt.Fprintf(w, "centroid mass: %.8f Da\n", centroid)
	fmt.Fprintf(w, "mass range: %.8f to %.8f Da (mean %.8f, stddev %.4g)\n",
		floats.Min(p.Masses), floats.Max(p.Masses),
		massStats.Mean(), massStats.SampleStandardDeviation())
	return nil
}
