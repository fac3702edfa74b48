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

// Package ints provides the float-related common functions the
// chunk-splitting and geometry code here needs, adapted from sneller's own
// ints package.
package ints

// MinF returns the smaller of two float32s.
func MinF(x, y float32) float32 {
	if x <= y {
		return x
	}
	return y
}

// MaxF returns the greater of two float32s.
func MaxF(x, y float32) float32 {
	if x >= y {
		return x
	}
	return y
}
