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

import "strings"

// PredicateKind distinguishes an inclusion predicate from an exclusion one.
type PredicateKind uint8

const (
	// In accepts only values present in the predicate's set.
	In PredicateKind = iota
	// NotIn accepts only values absent from the predicate's set.
	NotIn
)

// Predicate restricts the values considered at one column position during
// ToRecordBatch. It is either an inclusion set or an exclusion set; the
// query planner is responsible for pre-validating and consolidating
// predicates before handing them to the cache, which assumes well-formed
// input (at most one predicate per column position).
type Predicate struct {
	kind   PredicateKind
	values map[Value]struct{}
	sorted []Value // kept for deterministic String() rendering
}

// NewIn builds an inclusion predicate over the given values.
func NewIn(values ...string) *Predicate { return newPredicate(In, values) }

// NewNotIn builds an exclusion predicate over the given values.
func NewNotIn(values ...string) *Predicate { return newPredicate(NotIn, values) }

func newPredicate(kind PredicateKind, values []string) *Predicate {
	set := make(map[Value]struct{}, len(values))
	sorted := make([]Value, 0, len(values))
	for _, s := range values {
		v := NewValue(s)
		if _, dup := set[v]; dup {
			continue
		}
		set[v] = struct{}{}
		sorted = append(sorted, v)
	}
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Less(sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return &Predicate{kind: kind, values: set, sorted: sorted}
}

// String renders the predicate as "IN (v1,v2,...)" or "NOT IN (v1,v2,...)"
// with values in sorted order.
func (p *Predicate) String() string {
	var b strings.Builder
	if p.kind == In {
		b.WriteString("IN (")
	} else {
		b.WriteString("NOT IN (")
	}
	for i, v := range p.sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}

// evaluate yields the (value, entry) candidates this predicate selects from
// node, already excluding expired entries, in ascending Value order.
func (p *Predicate) evaluate(n *Node, expiredTimeNs int64) []candidate {
	switch p.kind {
	case In:
		// The inclusion set is usually much smaller than the node: look
		// each value up directly rather than scanning the whole level.
		out := make([]candidate, 0, len(p.sorted))
		for _, v := range p.sorted {
			e, ok := n.get(v)
			if !ok || e.lastSeenNs <= expiredTimeNs {
				continue
			}
			out = append(out, candidate{value: v, entry: e})
		}
		return out
	default: // NotIn
		var out []candidate
		n.tree.Ascend(func(e *entry) bool {
			if e.lastSeenNs <= expiredTimeNs {
				return true
			}
			if _, excluded := p.values[e.value]; excluded {
				return true
			}
			out = append(out, candidate{value: e.value, entry: e})
			return true
		})
		return out
	}
}
