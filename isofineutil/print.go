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
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/spectromodel/isofine"
)

// PrintProduct writes one line per configuration: mass,
// log-probability, probability, and the expanded isotope count vector.
func PrintProduct(w io.Writer, p *isofine.Product) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < p.Len(); i++ {
		fmt.Fprintf(bw, "Mass = %.8f\tlog-prob = %.8g\tprob = %.8g\tand configuration =",
			p.Masses[i], p.LogProbs[i], math.Exp(p.LogProbs[i]))
		for _, c := range p.IsoCounts[i*p.AllDim : (i+1)*p.AllDim] {
			fmt.Fprintf(bw, " %d", c)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
