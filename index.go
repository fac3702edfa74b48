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

// Package rankrect is a static spatial index over 2-D points carrying a
// globally unique rank (smaller is better): it answers "find the K
// lowest-rank points inside this rectangle" queries. Construction is
// one-shot; Search is read-only and safe to call concurrently from multiple
// goroutines against the same Index, because each call builds its own
// result accumulator and Search never mutates the index. Each Search call
// allocates that accumulator (k+1 records); the query path is not
// allocation-free.
package rankrect

import (
	"errors"
	"fmt"

	"github.com/SnellerInc/rankrect/internal/ints"
	"github.com/SnellerInc/rankrect/internal/simd"
)

// ErrKTooLarge is returned by Search when k exceeds MaxK.
var ErrKTooLarge = errors.New("rankrect: k exceeds accumulator capacity")

// ErrIndexClosed is returned by Search on an Index that has been Closed.
var ErrIndexClosed = errors.New("rankrect: index is closed")

// BuildOptions tunes the splitter. The zero value is invalid; use
// DefaultBuildOptions().
type BuildOptions struct {
	// SplitPasses1 is the number of X-axis bisection passes (reference: 5).
	SplitPasses1 int
	// SplitPasses2 is the number of Y-axis bisection passes (reference: 5).
	SplitPasses2 int
	// SplitThreshold is the chunk size above which a chunk is still a
	// candidate for bisection (reference: 64).
	SplitThreshold int
	// TerminateOnGate opts into stopping chunk-table traversal the first
	// time a chunk's best rank fails the best-rank gate, instead of the
	// reference's "skip this chunk, keep scanning" behavior. Both are
	// observationally equivalent since the chunk table is rank-sorted;
	// terminating early is strictly faster.
	TerminateOnGate bool
}

// DefaultBuildOptions returns the reference splitter constants: five
// bisection passes per axis, a 64-point split threshold, and the
// reference's non-terminating gate.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		SplitPasses1:   DefaultSplitPasses,
		SplitPasses2:   DefaultSplitPasses,
		SplitThreshold: DefaultSplitThreshold,
	}
}

func (o BuildOptions) validate() error {
	if o.SplitPasses1 < 0 || o.SplitPasses2 < 0 {
		return errors.New("rankrect: split pass count must be non-negative")
	}
	if o.SplitThreshold <= 0 {
		return errors.New("rankrect: split threshold must be positive")
	}
	return nil
}

// BuildOption configures New via the functional-option pattern.
type BuildOption func(*BuildOptions)

// WithSplitPasses overrides the number of X- and Y-axis bisection passes.
func WithSplitPasses(x, y int) BuildOption {
	return func(o *BuildOptions) {
		o.SplitPasses1 = x
		o.SplitPasses2 = y
	}
}

// WithSplitThreshold overrides the chunk size above which a chunk is still
// a candidate for bisection.
func WithSplitThreshold(t int) BuildOption {
	return func(o *BuildOptions) { o.SplitThreshold = t }
}

// WithTerminateOnGate opts into terminating chunk-table traversal as soon
// as a chunk's best rank fails the best-rank gate.
func WithTerminateOnGate(terminate bool) BuildOption {
	return func(o *BuildOptions) { o.TerminateOnGate = terminate }
}

// Index is the immutable, query-answerable result of New. The zero value
// is not usable; construct one with New.
type Index struct {
	pts    []ptRec
	chunks []chunk
	opts   BuildOptions
	closed bool
}

// New builds an Index over points. Construction is one-shot: there is no
// insert, delete, or rebalance afterward. An empty points slice yields a
// valid index that always returns zero results.
func New(points []Point, opts ...BuildOption) (*Index, error) {
	o := DefaultBuildOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, fmt.Errorf("rankrect: invalid build options: %w", err)
	}

	pts := make([]ptRec, len(points))
	for i, p := range points {
		pts[i] = newPtRec(p)
	}

	chunks := buildChunks(pts, o.SplitPasses1, o.SplitPasses2, o.SplitThreshold)
	finalize(pts, chunks)

	return &Index{pts: pts, chunks: chunks, opts: o}, nil
}

// Len returns the total number of points in the index.
func (ix *Index) Len() int {
	return len(ix.pts)
}

// NumChunks returns the number of chunks in the chunk table. Exposed for
// tests and tuning; not part of the core query contract.
func (ix *Index) NumChunks() int {
	return len(ix.chunks)
}

// Bounds returns the bounding rectangle of every point in the index. It
// returns the zero Rect for an empty index.
func (ix *Index) Bounds() Rect {
	if len(ix.pts) == 0 {
		return Rect{}
	}
	lx, ly := ix.pts[0].x, ix.pts[0].y
	hx, hy := ix.pts[0].x, ix.pts[0].y
	for _, p := range ix.pts[1:] {
		lx = ints.MinF(lx, p.x)
		hx = ints.MaxF(hx, p.x)
		ly = ints.MinF(ly, p.y)
		hy = ints.MaxF(hy, p.y)
	}
	return Rect{LX: lx, LY: ly, HX: hx, HY: hy}
}

// Close marks the index closed. It is a no-op on a nil or already-closed
// Index, matching the usage contract of a C-ABI destroy() that must accept
// a null or already-destroyed handle.
func (ix *Index) Close() error {
	if ix == nil {
		return nil
	}
	ix.closed = true
	return nil
}

// Search runs one rectangle query and writes up to min(k, len(out)) Point
// records, in ascending rank order, into out. It returns the number
// written. Search never fails due to the data or geometry queried --
// degenerate rectangles and an empty index both simply return 0 -- the
// only error cases are usage errors (k too large, or the index already
// Closed), both detected before any point is examined.
//
// Search is read-only: it never mutates ix, so multiple goroutines may
// call Search on the same *Index concurrently.
func (ix *Index) Search(rect Rect, k int, out []Point) (int, error) {
	if ix.closed {
		return 0, ErrIndexClosed
	}
	if k > MaxK {
		return 0, fmt.Errorf("rankrect: k=%d: %w", k, ErrKTooLarge)
	}
	if k > len(out) {
		k = len(out)
	}
	if k <= 0 || len(ix.pts) == 0 {
		return 0, nil
	}

	queryExc := rect.exclusive()
	bounds := queryExc.bounds()
	res := newResults(k)

	for i := range ix.chunks {
		c := &ix.chunks[i]

		if c.rank > res.worstRank() {
			if ix.opts.TerminateOnGate {
				break
			}
			continue
		}
		if !c.overlaps(queryExc) {
			continue
		}

		if c.contained(queryExc) {
			n := c.size()
			if n > k {
				n = k
			}
			sub := ix.pts[c.beg:c.end]
			ok := true
			for j := 0; j < n && ok; j++ {
				ok = res.admit(sub[j])
			}
			continue
		}

		sub := ix.pts[c.beg:c.end]
		simd.Scan(c.mirror, bounds, func(idx int) bool {
			return res.admit(sub[idx])
		})
	}

	return res.drain(out), nil
}
