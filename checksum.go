// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package rankrect

import (
	"encoding/binary"
	"math"

	"github.com/dchest/siphash"
)

// checksumKey0/1 are fixed siphash keys. Checksum is used to detect
// accidental mutation of the index, not as a security boundary, so the
// keys are constants rather than randomized per process.
const (
	checksumKey0 = 0x526b5265637421 // "RkRect!" as a little scramble
	checksumKey1 = 0x5370617469616c // "Spatial"
)

// Checksum returns a siphash-2-4 digest of the index's point array and
// chunk bounding boxes. Two calls against the same, unmutated Index always
// return the same value; calling Checksum before and after a Search lets a
// caller independently verify the "Search never mutates the index"
// invariant without reflecting over private fields.
func (ix *Index) Checksum() uint64 {
	buf := make([]byte, 0, len(ix.pts)*16+len(ix.chunks)*32)
	var b8 [8]byte
	appendF32 := func(f float32) {
		binary.LittleEndian.PutUint32(b8[:4], math.Float32bits(f))
		buf = append(buf, b8[:4]...)
	}
	appendI32 := func(v int32) {
		binary.LittleEndian.PutUint32(b8[:4], uint32(v))
		buf = append(buf, b8[:4]...)
	}

	for _, p := range ix.pts {
		appendI32(p.rank)
		appendI32(int32(p.id))
		appendF32(p.x)
		appendF32(p.y)
	}
	for _, c := range ix.chunks {
		appendF32(c.rcInc.LX)
		appendF32(c.rcInc.LY)
		appendF32(c.rcInc.HX)
		appendF32(c.rcInc.HY)
		appendI32(c.rank)
		appendI32(int32(c.beg))
		appendI32(int32(c.end))
	}

	return siphash.Hash(checksumKey0, checksumKey1, buf)
}
