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

// Package hash builds map keys for isotope partition vectors.
package hash

// Key returns a map key for the partition. Two partitions share a key
// exactly when they are componentwise equal, so visited-set lookups
// through these keys never produce false positives.
func Key(part []int32) string {
	b := make([]byte, 4*len(part))
	for i, v := range part {
		u := uint32(v)
		b[4*i] = byte(u)
		b[4*i+1] = byte(u >> 8)
		b[4*i+2] = byte(u >> 16)
		b[4*i+3] = byte(u >> 24)
	}
	return string(b)
}
