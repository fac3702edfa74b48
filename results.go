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

import "sort"

// MaxK is the largest K a Results accumulator (and therefore Index.Search)
// supports. Exceeding it is a usage error, not a data-dependent failure.
const MaxK = 20

// results accumulates the k best (lowest-rank) ptRecs seen so far. It keeps
// a sorted run of k+1 slots, padded on construction with sentinels; the
// first k slots are what drain returns, and the tail slot (index k) holds
// the "worst" rank, which becomes a real record once k+1 points have been
// admitted.
//
// Because chunks are walked in ascending rank order, the first admit that
// returns false proves every later point in that chunk also fails: the
// chunk's remaining points all have rank >= the rejected one.
type results struct {
	front []ptRec // len == k+1, front[:back+1] is the live sorted prefix
	back  int     // index of the last usable slot
	worst int32   // cached front[back].rank
}

func newResults(k int) *results {
	front := make([]ptRec, k+1)
	for i := range front {
		front[i] = sentinelPtRec()
	}
	back := k
	return &results{front: front, back: back, worst: front[back].rank}
}

// admit tries to add p to the accumulator. It returns false without any
// change if p.rank is no better than the current worst admitted rank.
func (r *results) admit(p ptRec) bool {
	if r.back == 0 || p.rank >= r.worst {
		return false
	}
	prefix := r.front[:r.back]
	pos := sort.Search(len(prefix), func(i int) bool {
		return prefix[i].rank >= p.rank
	})
	copy(r.front[pos+1:r.back+1], r.front[pos:r.back])
	r.front[pos] = p
	r.worst = r.front[r.back].rank
	return true
}

// worstRank returns the rank held in the tail slot in O(1). It stays
// sentinelRank until more than k real points have been admitted.
func (r *results) worstRank() int32 {
	return r.worst
}

// drain writes up to k real records (skipping sentinels) into out, in
// ascending rank order, and returns the count written.
func (r *results) drain(out []Point) int {
	n := 0
	for i := 0; i < r.back && n < len(out); i++ {
		if !r.front[i].toPoint(&out[n]) {
			break
		}
		n++
	}
	return n
}
