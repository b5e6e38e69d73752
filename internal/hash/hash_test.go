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

package hash

import "testing"

func TestKeyEquality(t *testing.T) {
	a := Key([]int32{1, 2, 3})
	b := Key([]int32{1, 2, 3})
	if a != b {
		t.Error("equal partitions produced different keys")
	}
}

func TestKeyDistinguishes(t *testing.T) {
	pairs := [][2][]int32{
		{{1, 2, 3}, {3, 2, 1}},
		{{0, 0}, {0}},
		{{256}, {1}},
		{{0, 1}, {1, 0}},
	}
	for _, p := range pairs {
		if Key(p[0]) == Key(p[1]) {
			t.Errorf("partitions %v and %v collide", p[0], p[1])
		}
	}
}
