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

// summator accumulates many small positive floats using Kahan
// compensated summation. The joint enumerators add on the order of 10⁶
// terms of magnitude 10⁻⁸ to a running sum approaching one; without
// compensation the layer cutoff test loses the tail. The zero value is
// ready to use, and a plain assignment snapshots the running state.
type summator struct {
	sum float64
	c   float64
}

func (s *summator) add(x float64) {
	y := x - s.c
	t := s.sum + y
	s.c = (t - s.sum) - y
	s.sum = t
}

func (s *summator) get() float64 {
	return s.sum
}
