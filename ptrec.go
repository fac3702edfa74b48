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

import "math"

// sentinelRank marks an empty Results slot. It is never written to a caller's
// output buffer.
const sentinelRank int32 = math.MaxInt32

// Point is the caller-visible point record: an id tag, a rank (smaller is
// better), and planar coordinates.
type Point struct {
	ID   int8
	Rank int32
	X, Y float32
}

// ptRec is the internal, 16-byte point record the index is built from.
// Field order (rank, id, x, y) and the compiler-inserted padding between
// ID and X keep unsafe.Sizeof(ptRec{}) == 16, so a chunk's records sit on
// aligned 16-byte boundaries one after another.
type ptRec struct {
	rank int32
	id   int8
	x, y float32
}

func newPtRec(p Point) ptRec {
	return ptRec{rank: p.Rank, id: p.ID, x: p.X, y: p.Y}
}

// sentinelPtRec returns an empty ptRec, equivalent to the reference's
// PtAligned(0) constructor.
func sentinelPtRec() ptRec {
	return ptRec{rank: sentinelRank}
}

// toPoint writes the record to out and reports true, or reports false
// without writing anything if r is a sentinel.
func (r ptRec) toPoint(out *Point) bool {
	if r.rank == sentinelRank {
		return false
	}
	out.ID = r.id
	out.Rank = r.rank
	out.X = r.x
	out.Y = r.y
	return true
}
