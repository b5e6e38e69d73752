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
	"math"

	"github.com/spectromodel/isofine"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotProduct renders the spectrum as a stick plot, one vertical line
// per isotopologue, probability against mass. The output format
// follows the extension of path.
func PlotProduct(prod *isofine.Product, title, path string) error {
	if prod.Len() == 0 {
		return fmt.Errorf("isofine: nothing to plot: empty spectrum")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "mass [Da]"
	p.Y.Label.Text = "probability"

	for i := 0; i < prod.Len(); i++ {
		stick, err := plotter.NewLine(plotter.XYs{
			{X: prod.Masses[i], Y: 0},
			{X: prod.Masses[i], Y: math.Exp(prod.LogProbs[i])},
		})
		if err != nil {
			return fmt.Errorf("isofine: building plot: %v", err)
		}
		p.Add(stick)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("isofine: saving plot: %v", err)
	}
	return nil
}
