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

import "github.com/SnellerInc/rankrect/internal/ints"

// order records which axis (if any) a chunk's points are currently sorted
// by, so the builder can skip a redundant sort.
type order uint8

const (
	orderNone order = iota
	orderX
	orderY
	orderRank
)

// chunk is a contiguous, rank-sorted run of ptRecs plus its cached bounding
// rectangles, size and best rank. beg/end are indices into the owning
// Index's point array; mirror is a same-order []XY view used by the scan.
type chunk struct {
	rcExc  Rect // tight box with next-representable-float upper bound
	rcInc  Rect // tight box with the true maxima
	width  float32
	height float32
	beg    int
	end    int
	rank   int32 // best (smallest) rank among this chunk's points
	order  order
	mirror []XY
}

func (c *chunk) size() int { return c.end - c.beg }

// updateRect recomputes rcInc, rcExc, width and height from pts[c.beg:c.end].
func (c *chunk) updateRect(pts []ptRec) {
	sub := pts[c.beg:c.end]
	lx, ly := sub[0].x, sub[0].y
	hx, hy := sub[0].x, sub[0].y
	for _, p := range sub[1:] {
		lx = ints.MinF(lx, p.x)
		hx = ints.MaxF(hx, p.x)
		ly = ints.MinF(ly, p.y)
		hy = ints.MaxF(hy, p.y)
	}
	c.rcInc = Rect{LX: lx, LY: ly, HX: hx, HY: hy}
	c.rcExc = Rect{LX: lx, LY: ly, HX: nextafter32(hx), HY: nextafter32(hy)}
	c.width = c.rcExc.HX - c.rcExc.LX
	c.height = c.rcExc.HY - c.rcExc.LY
}

// updateRank records the chunk's best rank. Callers must have already
// sorted pts[c.beg:c.end] ascending by rank.
func (c *chunk) updateRank(pts []ptRec) {
	c.rank = pts[c.beg].rank
}

// overlaps reports whether c's tight exclusive box intersects the
// half-open query rectangle queryExc. Expressed as the exact scalar form
// of the reference's single 128-bit compare+mask (onRectB).
func (c *chunk) overlaps(queryExc Rect) bool {
	return c.rcExc.LX < queryExc.HX &&
		c.rcExc.LY < queryExc.HY &&
		c.rcExc.HX > queryExc.LX &&
		c.rcExc.HY > queryExc.LY
}

// contained reports whether c's inclusive box lies entirely inside the
// half-open query rectangle queryExc (scalar form of the reference's
// inRectB). When true every point in the chunk is inside the query
// rectangle and the per-point scan can be skipped.
func (c *chunk) contained(queryExc Rect) bool {
	return c.rcInc.LX >= queryExc.LX &&
		c.rcInc.LY >= queryExc.LY &&
		c.rcInc.HX < queryExc.HX &&
		c.rcInc.HY < queryExc.HY
}
