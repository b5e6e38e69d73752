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
	"strconv"
)

// ParseFormula parses a molecular formula written as alternating runs
// of letters (an element symbol) and digits (its atom count), e.g.
// "C6H12O6". A missing digit run means one atom. The parser is a
// debugging aid, not a hardened input surface. The result is ready to
// hand to the engine: per-element atom counts, isotope masses and
// isotope abundances, in formula order.
func ParseFormula(formula string, cat *Catalogue) (atomCounts []int, masses, probs [][]float64, err error) {
	if cat == nil {
		cat = Default()
	}
	if formula == "" {
		return nil, nil, nil, fmt.Errorf("elements: empty formula")
	}

	var symbols []string
	var counts []int
	pos := 0
	for pos < len(formula) {
		start := pos
		for pos < len(formula) && isAlpha(formula[pos]) {
			pos++
		}
		if pos == start {
			return nil, nil, nil, fmt.Errorf("elements: invalid formula %q", formula)
		}
		symbols = append(symbols, formula[start:pos])

		start = pos
		for pos < len(formula) && isDigit(formula[pos]) {
			pos++
		}
		if pos == start {
			counts = append(counts, 1)
			continue
		}
		n, err := strconv.Atoi(formula[start:pos])
		if err != nil || n < 1 {
			return nil, nil, nil, fmt.Errorf("elements: invalid formula %q", formula)
		}
		counts = append(counts, n)
	}

	for i, sym := range symbols {
		e, ok := cat.Lookup(sym)
		if !ok {
			return nil, nil, nil, fmt.Errorf("elements: unknown element %q in formula %q", sym, formula)
		}
		atomCounts = append(atomCounts, counts[i])
		masses = append(masses, e.Masses())
		probs = append(probs, e.Probabilities())
	}
	return atomCounts, masses, probs, nil
}

func isAlpha(b byte) bool { return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' }
func isDigit(b byte) bool { return '0' <= b && b <= '9' }
