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

import "golang.org/x/exp/slices"

// Reference split constants (spec.md S1/S2/T): five bisection passes on X,
// five on Y, applied to any chunk still larger than 64 points.
const (
	DefaultSplitPasses    = 5
	DefaultSplitThreshold = 64
)

func sortByAxis(sub []ptRec, axis order) {
	switch axis {
	case orderX:
		slices.SortFunc(sub, func(a, b ptRec) int { return cmpF(a.x, b.x) })
	case orderY:
		slices.SortFunc(sub, func(a, b ptRec) int { return cmpF(a.y, b.y) })
	case orderRank:
		slices.SortFunc(sub, func(a, b ptRec) int {
			switch {
			case a.rank < b.rank:
				return -1
			case a.rank > b.rank:
				return 1
			default:
				return 0
			}
		})
	}
}

func cmpF(a, b float32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func coord(p ptRec, axis order) float32 {
	if axis == orderX {
		return p.x
	}
	return p.y
}

// bisect splits c along axis into two sub-chunks, unless no valid split
// point exists (all values equal, or the scan from the median reaches the
// end of the chunk without finding a value change), in which case c is
// returned unchanged. The scan only checks that the points at mid and mid+1
// differ, while the split falls between mid-1 and mid, so points sharing
// one axis coordinate can end up on both sides of the split. Each
// sub-chunk's bounding box is later recomputed from its own points, so the
// overlap and containment tests stay exact either way.
func bisect(pts []ptRec, c chunk, axis order) []chunk {
	sub := pts[c.beg:c.end]
	if c.order != axis {
		sortByAxis(sub, axis)
	}
	size := len(sub)
	if size == 0 || coord(sub[0], axis) == coord(sub[size-1], axis) {
		return []chunk{c}
	}

	mid := size / 2
	next := mid + 1
	found := false
	for next < size {
		if coord(sub[mid], axis) != coord(sub[next], axis) {
			found = true
			break
		}
		mid++
		next++
	}
	if !found || mid == 0 {
		return []chunk{c}
	}

	return []chunk{
		{beg: c.beg, end: c.beg + mid, order: axis},
		{beg: c.beg + mid, end: c.end, order: axis},
	}
}

// splitPass runs bisect(axis) over every chunk larger than threshold,
// leaving smaller chunks untouched.
func splitPass(pts []ptRec, chunks []chunk, axis order, threshold int) []chunk {
	out := make([]chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.size() > threshold {
			out = append(out, bisect(pts, c, axis)...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// buildChunks bisects the whole point array into the final chunk table: up
// to splitPassesX bisections on X, then up to splitPassesY on Y, each
// restricted to chunks still larger than threshold.
func buildChunks(pts []ptRec, splitPassesX, splitPassesY, threshold int) []chunk {
	if len(pts) == 0 {
		return nil
	}
	chunks := []chunk{{beg: 0, end: len(pts), order: orderNone}}
	for i := 0; i < splitPassesX; i++ {
		chunks = splitPass(pts, chunks, orderX, threshold)
	}
	for i := 0; i < splitPassesY; i++ {
		chunks = splitPass(pts, chunks, orderY, threshold)
	}
	return chunks
}

// finalize sorts each chunk by rank, computes its bounding rectangles and
// best rank, sorts the chunk table itself ascending by best rank, and
// builds each chunk's coordinate mirror.
func finalize(pts []ptRec, chunks []chunk) {
	for i := range chunks {
		c := &chunks[i]
		sortByAxis(pts[c.beg:c.end], orderRank)
		c.order = orderRank
		c.updateRect(pts)
		c.updateRank(pts)
	}

	slices.SortFunc(chunks, func(a, b chunk) int {
		switch {
		case a.rank < b.rank:
			return -1
		case a.rank > b.rank:
			return 1
		default:
			return 0
		}
	})

	for i := range chunks {
		c := &chunks[i]
		c.mirror = make([]XY, c.size())
		for j, p := range pts[c.beg:c.end] {
			c.mirror[j] = XY{X: p.x, Y: p.y}
		}
	}
}
