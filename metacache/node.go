// Copyright 2025 The MetaCache Authors
// This file is part of metacache.
//
// metacache is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// metacache is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with metacache. If not, see <http://www.gnu.org/licenses/>.

package metacache

import (
	"container/heap"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/google/btree"
)

// btreeDegree mirrors the teacher's default choice for in-memory ordered
// indexes: small enough that node splits stay cheap, large enough that tree
// height stays low for the tag/string cardinalities this cache targets.
const btreeDegree = 32

// entry is one item stored in a Node's ordered map: a Value paired with the
// most recent observation time and, for all but the deepest configured
// column, a pointer to the next level of the tree.
type entry struct {
	value      Value
	lastSeenNs int64
	child      *Node
}

func entryLess(a, b *entry) bool { return a.value.Less(b.value) }

// Node is one level of the prefix tree described in the package
// documentation: an ordered mapping from Value to (last-seen timestamp,
// optional child Node). Iteration is always in ascending Value order.
type Node struct {
	tree *btree.BTreeG[*entry]
}

func newNode() *Node {
	return &Node{tree: btree.NewG(btreeDegree, entryLess)}
}

func (n *Node) get(v Value) (*entry, bool) {
	return n.tree.Get(&entry{value: v})
}

// insert consumes the remaining suffix of a tuple, descending one level per
// value and creating entries on miss. Every entry visited on the descent
// has its lastSeenNs updated to timeNs, preserving the invariant that an
// interior entry's lastSeenNs equals the maximum over its subtree. Returns
// true iff the terminal (leaf) entry was newly created by this call.
func (n *Node) insert(values []Value, timeNs int64) bool {
	cur := n
	isNewLeaf := false
	for i, v := range values {
		hasChild := i < len(values)-1
		e, found := cur.get(v)
		if !found {
			e = &entry{value: v}
			if hasChild {
				e.child = newNode()
			} else {
				isNewLeaf = true
			}
			cur.tree.ReplaceOrInsert(e)
		}
		e.lastSeenNs = timeNs
		if hasChild {
			cur = e.child
		}
	}
	return isNewLeaf
}

// removeBefore retains entries whose lastSeenNs is still fresh (> timeNs),
// or, for interior entries whose lastSeenNs has not yet expired, whose
// child still holds something fresh after recursively pruning it. An
// interior entry whose lastSeenNs has already expired is dropped wholesale
// without descending, since the subtree-max invariant guarantees every
// leaf beneath it has also expired. Returns true iff the node is empty
// afterwards.
func (n *Node) removeBefore(timeNs int64) bool {
	var stale []Value
	n.tree.Ascend(func(e *entry) bool {
		if e.child == nil {
			if e.lastSeenNs <= timeNs {
				stale = append(stale, e.value)
			}
			return true
		}
		if e.lastSeenNs <= timeNs {
			stale = append(stale, e.value)
			return true
		}
		// Subtree max is still fresh, but individual leaves within it may
		// not be; always descend to prune those, unlike a short-circuited
		// OR that would skip the recursive pass entirely.
		if e.child.removeBefore(timeNs) {
			stale = append(stale, e.value)
		}
		return true
	})
	for _, v := range stale {
		n.tree.Delete(&entry{value: v})
	}
	return n.tree.Len() == 0
}

// cardinality counts the leaves reachable from this node, including
// expired-but-not-yet-pruned ones.
func (n *Node) cardinality() int {
	total := 0
	n.tree.Ascend(func(e *entry) bool {
		if e.child == nil {
			total++
		} else {
			total += e.child.cardinality()
		}
		return true
	})
	return total
}

// oldestTimesHeap is a bounded max-heap of int64 timestamps used by
// findNOldest: once it holds n entries, pushing a strictly smaller
// timestamp evicts the current maximum.
type oldestTimesHeap []int64

func (h oldestTimesHeap) Len() int            { return len(h) }
func (h oldestTimesHeap) Less(i, j int) bool  { return h[i] > h[j] } // max-heap
func (h oldestTimesHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *oldestTimesHeap) Push(x interface{}) { *h = append(*h, x.(int64)) }
func (h *oldestTimesHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// findNOldest populates times with up to n of the smallest leaf
// timestamps reachable from this node. Interior entries are never pushed
// directly: their lastSeenNs is redundant with their subtree's leaves.
func (n *Node) findNOldest(limit int, times *oldestTimesHeap) {
	n.tree.Ascend(func(e *entry) bool {
		if e.child != nil {
			e.child.findNOldest(limit, times)
			return true
		}
		if times.Len() < limit {
			heap.Push(times, e.lastSeenNs)
		} else if times.Len() > 0 && e.lastSeenNs < (*times)[0] {
			heap.Pop(times)
			heap.Push(times, e.lastSeenNs)
		}
		return true
	})
}

// removeNOldest computes a cutoff timestamp from the n smallest leaf
// timestamps and prunes everything at or before it via removeBefore. This
// may evict more or fewer than n leaves when timestamps tie at the
// boundary; the cardinality after a full prune pass is the authoritative
// bound, not this intermediate step.
func (n *Node) removeNOldest(count int) {
	if count <= 0 {
		return
	}
	times := make(oldestTimesHeap, 0, count)
	n.findNOldest(count, &times)
	if times.Len() == 0 {
		return
	}
	n.removeBefore(times[0])
}

// evaluatePredicates is the depth-first walk that materializes surviving
// tuples into per-column arrow string builders. predicates and builders
// must have length equal to the remaining depth. It returns the number of
// rows emitted at this level, letting the caller decide whether to repeat
// an ancestor value for each descendant row.
func (n *Node) evaluatePredicates(expiredTimeNs int64, predicates []*Predicate, builders []*array.StringBuilder) int {
	predicate, restPredicates := predicates[0], predicates[1:]
	builder, restBuilders := builders[0], builders[1:]

	total := 0
	for _, cand := range n.candidates(expiredTimeNs, predicate) {
		if cand.entry.child != nil {
			count := cand.entry.child.evaluatePredicates(expiredTimeNs, restPredicates, restBuilders)
			if count == 0 {
				continue // branch pruned: nothing survived beneath it
			}
			for i := 0; i < count; i++ {
				builder.Append(cand.value.String())
			}
			total += count
		} else {
			builder.Append(cand.value.String())
			total++
		}
	}
	return total
}

type candidate struct {
	value Value
	entry *entry
}

// candidates computes the set of (value, entry) pairs a single tree level
// contributes to evaluatePredicates, applying the optional predicate and
// always excluding expired entries, in ascending Value order.
func (n *Node) candidates(expiredTimeNs int64, predicate *Predicate) []candidate {
	if predicate == nil {
		var out []candidate
		n.tree.Ascend(func(e *entry) bool {
			if e.lastSeenNs > expiredTimeNs {
				out = append(out, candidate{value: e.value, entry: e})
			}
			return true
		})
		return out
	}
	return predicate.evaluate(n, expiredTimeNs)
}
