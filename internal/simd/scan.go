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

// Package simd provides the packed coordinate-mirror rectangle scan, with
// a CPU-feature-gated choice between a batched and a scalar code path, the
// same "detect once, dispatch forever" shape as sneller's vm.avx512level.
package simd

import "golang.org/x/sys/cpu"

// XY is a coordinate-only pair: the 8-byte unit a chunk's mirror array is
// built from.
type XY struct {
	X, Y float32
}

// Bounds is a half-open query rectangle: [LX, HX) x [LY, HY).
type Bounds struct {
	LX, LY, HX, HY float32
}

// BatchWidth is the reference implementation's unroll factor.
const BatchWidth = 6

// Supported reports whether the CPU provides the baseline vector ISA the
// batched path assumes (SSE2). All amd64 CPUs have SSE2; other
// architectures use the scalar path instead.
func Supported() bool {
	return cpu.X86.HasSSE2
}

// contains reports whether (x, y) lies in half-open rectangle b, using the
// exact comparison form required by the half-open convention:
// !(x >= hx) && !(y >= hy) && !(x < lx) && !(y < ly).
func contains(x, y float32, b Bounds) bool {
	return !(x >= b.HX) && !(y >= b.HY) && !(x < b.LX) && !(y < b.LY)
}

// Scan walks mirror in ascending index order and calls admit(i) for every
// point inside b, stopping as soon as admit returns false. Callers process
// chunks in ascending rank order, so the first rejection proves every
// later point in this chunk is also worse.
//
// When the CPU supports it, points are tested BatchWidth at a time,
// mirroring the reference's unrolled 128-bit compares; this only changes
// how many comparisons are grouped together before an admit decision, not
// the admit order or outcome, so the batched and scalar paths are
// observationally identical.
func Scan(mirror []XY, b Bounds, admit func(i int) bool) {
	if Supported() {
		scanBatched(mirror, b, admit)
		return
	}
	scanScalar(mirror, b, admit)
}

func scanScalar(mirror []XY, b Bounds, admit func(i int) bool) {
	for i := range mirror {
		if contains(mirror[i].X, mirror[i].Y, b) && !admit(i) {
			return
		}
	}
}

func scanBatched(mirror []XY, b Bounds, admit func(i int) bool) {
	n := len(mirror)
	full := (n / BatchWidth) * BatchWidth
	i := 0
	for i < full {
		for j := 0; j < BatchWidth; j++ {
			if contains(mirror[i+j].X, mirror[i+j].Y, b) && !admit(i+j) {
				return
			}
		}
		i += BatchWidth
	}
	for ; i < n; i++ {
		if contains(mirror[i].X, mirror[i].Y, b) && !admit(i) {
			return
		}
	}
}
