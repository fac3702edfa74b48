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
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func samplePoints() []Point {
	return []Point{
		{ID: 1, Rank: 10, X: 0, Y: 0},
		{ID: 2, Rank: 5, X: 1, Y: 1},
		{ID: 3, Rank: 7, X: 2, Y: 2},
	}
}

// scenario (a)
func TestSearchScenarioA(t *testing.T) {
	ix, err := New(samplePoints())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 10)
	n, err := ix.Search(Rect{LX: 0, LY: 0, HX: 1, HY: 1}, 10, out)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{ID: 2, Rank: 5, X: 1, Y: 1}, {ID: 1, Rank: 10, X: 0, Y: 0}}
	if n != 2 || !reflect.DeepEqual(out[:n], want) {
		t.Fatalf("got n=%d out=%v, want %v", n, out[:n], want)
	}
}

// scenario (b)
func TestSearchScenarioB(t *testing.T) {
	ix, err := New(samplePoints())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 2)
	n, err := ix.Search(Rect{LX: 0, LY: 0, HX: 2, HY: 2}, 2, out)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{ID: 2, Rank: 5, X: 1, Y: 1}, {ID: 3, Rank: 7, X: 2, Y: 2}}
	if n != 2 || !reflect.DeepEqual(out[:n], want) {
		t.Fatalf("got n=%d out=%v, want %v", n, out[:n], want)
	}
}

// scenario (c)
func TestSearchScenarioC(t *testing.T) {
	ix, err := New(samplePoints())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 5)
	n, err := ix.Search(Rect{LX: 1.0001, LY: 1.0001, HX: 2, HY: 2}, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{ID: 3, Rank: 7, X: 2, Y: 2}}
	if n != 1 || !reflect.DeepEqual(out[:n], want) {
		t.Fatalf("got n=%d out=%v, want %v", n, out[:n], want)
	}
}

// scenario (d)
func TestSearchScenarioD(t *testing.T) {
	ix, err := New([]Point{{ID: 9, Rank: 0, X: 0, Y: 0}})
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 5)
	n, err := ix.Search(Rect{LX: 0, LY: 0, HX: 0, HY: 0}, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{ID: 9, Rank: 0, X: 0, Y: 0}}
	if n != 1 || !reflect.DeepEqual(out[:n], want) {
		t.Fatalf("got n=%d out=%v, want %v", n, out[:n], want)
	}
}

// scenario (e)
func TestSearchScenarioEEmptyIndex(t *testing.T) {
	ix, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 5)
	n, err := ix.Search(Rect{LX: -1000, LY: -1000, HX: 1000, HY: 1000}, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("got n=%d, want 0 for an empty index", n)
	}
}

// scenario (f)
func TestSearchScenarioFTopKOfRandomPoints(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	n := 1024
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			ID:   int8(i % 127),
			Rank: int32(i), // unique ranks
			X:    float32(r.Intn(100000)) / 100,
			Y:    float32(r.Intn(100000)) / 100,
		}
	}
	// shuffle so rank order != input order
	r.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })

	ix, err := New(pts)
	if err != nil {
		t.Fatal(err)
	}
	bounds := ix.Bounds()
	out := make([]Point, 20)
	got, err := ix.Search(bounds, 20, out)
	if err != nil {
		t.Fatal(err)
	}
	if got != 20 {
		t.Fatalf("got %d results, want 20", got)
	}
	for i := 0; i < 20; i++ {
		if out[i].Rank != int32(i) {
			t.Fatalf("out[%d].Rank = %d, want %d", i, out[i].Rank, i)
		}
	}
}

func TestSearchInvertedRectReturnsZero(t *testing.T) {
	ix, err := New(samplePoints())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 5)
	n, err := ix.Search(Rect{LX: 5, LY: 5, HX: 0, HY: 0}, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("got n=%d, want 0 for an inverted rectangle", n)
	}
}

func TestSearchKZeroReturnsZeroWithoutError(t *testing.T) {
	ix, err := New(samplePoints())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 5)
	n, err := ix.Search(Rect{LX: -100, LY: -100, HX: 100, HY: 100}, 0, out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("got n=%d, want 0 for k=0", n)
	}
}

func TestSearchKTooLarge(t *testing.T) {
	ix, err := New(samplePoints())
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, MaxK+5)
	_, err = ix.Search(Rect{LX: -100, LY: -100, HX: 100, HY: 100}, MaxK+1, out)
	if !errors.Is(err, ErrKTooLarge) {
		t.Fatalf("got err=%v, want ErrKTooLarge", err)
	}
}

func TestSearchOnClosedIndex(t *testing.T) {
	ix, err := New(samplePoints())
	if err != nil {
		t.Fatal(err)
	}
	if err := ix.Close(); err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 5)
	_, err = ix.Search(Rect{LX: -100, LY: -100, HX: 100, HY: 100}, 5, out)
	if !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("got err=%v, want ErrIndexClosed", err)
	}
}

func TestCloseNilIsNoOp(t *testing.T) {
	var ix *Index
	if err := ix.Close(); err != nil {
		t.Fatalf("Close on a nil Index should be a no-op: %v", err)
	}
}

func TestSearchIdempotentAndDoesNotMutateIndex(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	n := 256
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{Rank: int32(i), X: float32(r.Intn(1000)), Y: float32(r.Intn(1000))}
	}
	ix, err := New(pts)
	if err != nil {
		t.Fatal(err)
	}

	before := ix.Checksum()
	rect := Rect{LX: 100, LY: 100, HX: 900, HY: 900}

	out1 := make([]Point, 15)
	n1, err := ix.Search(rect, 15, out1)
	if err != nil {
		t.Fatal(err)
	}
	after := ix.Checksum()
	if before != after {
		t.Fatalf("Search mutated the index: checksum %d before, %d after", before, after)
	}

	out2 := make([]Point, 15)
	n2, err := ix.Search(rect, 15, out2)
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 || !reflect.DeepEqual(out1[:n1], out2[:n2]) {
		t.Fatalf("repeated identical queries returned different results: %v vs %v", out1[:n1], out2[:n2])
	}
}

func TestBuildFromShuffledPermutationAnswersIdentically(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	n := 400
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{Rank: int32(i), X: float32(r.Intn(500)), Y: float32(r.Intn(500))}
	}

	ix1, err := New(pts)
	if err != nil {
		t.Fatal(err)
	}

	shuffled := make([]Point, n)
	copy(shuffled, pts)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	ix2, err := New(shuffled)
	if err != nil {
		t.Fatal(err)
	}

	rect := Rect{LX: 50, LY: 50, HX: 450, HY: 450}
	out1 := make([]Point, 20)
	out2 := make([]Point, 20)
	n1, err := ix1.Search(rect, 20, out1)
	if err != nil {
		t.Fatal(err)
	}
	n2, err := ix2.Search(rect, 20, out2)
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 || !reflect.DeepEqual(out1[:n1], out2[:n2]) {
		t.Fatalf("build from shuffled input disagreed: %v vs %v", out1[:n1], out2[:n2])
	}
}

func TestWithSplitPassesAppliesIndependentCountsPerAxis(t *testing.T) {
	// Large enough that exhausting DefaultSplitPasses X-axis passes still
	// leaves every chunk above the default split threshold, so the Y-axis
	// passes that follow have more splitting left to do.
	r := rand.New(rand.NewSource(13))
	n := 4000
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{Rank: int32(i), X: float32(r.Intn(1_000_000)), Y: float32(r.Intn(1_000_000))}
	}

	ixXOnly, err := New(pts, WithSplitPasses(DefaultSplitPasses, 0))
	if err != nil {
		t.Fatal(err)
	}
	ixBoth, err := New(pts, WithSplitPasses(DefaultSplitPasses, DefaultSplitPasses))
	if err != nil {
		t.Fatal(err)
	}
	if ixBoth.NumChunks() <= ixXOnly.NumChunks() {
		t.Fatalf("bisecting on both axes should yield more chunks than X-only: got %d vs %d",
			ixBoth.NumChunks(), ixXOnly.NumChunks())
	}

	// Both indexes must still answer the same query identically: the chunk
	// table shape differs, but every point is still accounted for.
	rect := Rect{LX: 100_000, LY: 100_000, HX: 900_000, HY: 900_000}
	out1 := make([]Point, 20)
	out2 := make([]Point, 20)
	n1, err := ixXOnly.Search(rect, 20, out1)
	if err != nil {
		t.Fatal(err)
	}
	n2, err := ixBoth.Search(rect, 20, out2)
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 || !reflect.DeepEqual(out1[:n1], out2[:n2]) {
		t.Fatalf("different split-pass tuning changed query results: %v vs %v", out1[:n1], out2[:n2])
	}
}

func TestTerminateOnGateEquivalentToSkip(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	n := 600
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{Rank: int32(i), X: float32(r.Intn(300)), Y: float32(r.Intn(300))}
	}

	ixSkip, err := New(pts, WithTerminateOnGate(false))
	if err != nil {
		t.Fatal(err)
	}
	ixTerm, err := New(pts, WithTerminateOnGate(true))
	if err != nil {
		t.Fatal(err)
	}

	rect := Rect{LX: 10, LY: 10, HX: 290, HY: 290}
	out1 := make([]Point, 20)
	out2 := make([]Point, 20)
	n1, err := ixSkip.Search(rect, 20, out1)
	if err != nil {
		t.Fatal(err)
	}
	n2, err := ixTerm.Search(rect, 20, out2)
	if err != nil {
		t.Fatal(err)
	}
	if n1 != n2 || !reflect.DeepEqual(out1[:n1], out2[:n2]) {
		t.Fatalf("skip vs terminate gate disagreed: %v vs %v", out1[:n1], out2[:n2])
	}
}

func TestPointsOnRectangleEdgesAreIncluded(t *testing.T) {
	pts := []Point{
		{ID: 1, Rank: 1, X: 10, Y: 10}, // on HX/HY edge
		{ID: 2, Rank: 2, X: 0, Y: 0},   // on LX/LY edge
	}
	ix, err := New(pts)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]Point, 5)
	n, err := ix.Search(Rect{LX: 0, LY: 0, HX: 10, HY: 10}, 5, out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("got n=%d, want both edge points included", n)
	}
}
