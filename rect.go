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
	"math"

	"github.com/SnellerInc/rankrect/internal/simd"
)

// Rect is an axis-aligned query rectangle. Semantics are closed:
// LX <= x <= HX and LY <= y <= HY. Degenerate rectangles (LX > HX or
// LY > HY) are permitted and match no points.
type Rect struct {
	LX, LY, HX, HY float32
}

// XY is a coordinate-only pair, kept in lock step with a chunk's ptRec
// slice so the rectangle scan never has to touch the full records.
type XY = simd.XY

// exclusive converts a closed query rectangle into the half-open form
// [LX, HX') x [LY, HY') used internally by the overlap/containment/scan
// predicates, where HX'/HY' are the next representable float32 after the
// caller's closed bounds.
func (r Rect) exclusive() Rect {
	return Rect{
		LX: r.LX,
		LY: r.LY,
		HX: nextafter32(r.HX),
		HY: nextafter32(r.HY),
	}
}

// bounds converts a (typically already half-open) Rect into the simd
// package's Bounds type for the coordinate-mirror scan.
func (r Rect) bounds() simd.Bounds {
	return simd.Bounds{LX: r.LX, LY: r.LY, HX: r.HX, HY: r.HY}
}

// nextafter32 returns the next float32 representable above x, i.e. the
// direction-toward-+Inf case of C's nextafterf. math.Nextafter only exists
// for float64, so the bit pattern is adjusted directly: for finite,
// non-negative x the next float upward is bits+1; for finite negative x it
// is bits-1 (magnitude shrinks toward zero); +Inf and NaN are returned
// unchanged.
func nextafter32(x float32) float32 {
	if math.IsNaN(float64(x)) || math.IsInf(float64(x), 1) {
		return x
	}
	if x == 0 {
		return math.Float32frombits(1) // smallest positive subnormal
	}
	bits := math.Float32bits(x)
	if x > 0 {
		bits++
	} else {
		bits--
	}
	return math.Float32frombits(bits)
}
