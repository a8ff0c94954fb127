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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicateStringRendering(t *testing.T) {
	assert.Equal(t, "IN (a,b,c)", NewIn("c", "a", "b").String())
	assert.Equal(t, "NOT IN (a,b,c)", NewNotIn("b", "c", "a").String())
}

func TestPredicateMonotonicity(t *testing.T) {
	n := newNode()
	n.insert(vs("a"), 10)
	n.insert(vs("b"), 10)
	n.insert(vs("c"), 10)

	in1 := NewIn("a")
	in2 := NewIn("a", "b")
	out1 := in1.evaluate(n, 0)
	out2 := in2.evaluate(n, 0)
	assert.LessOrEqual(t, len(out1), len(out2), "In(S1) subset of In(S2) must yield fewer or equal rows")

	notIn1 := NewNotIn("a")
	notIn2 := NewNotIn("a", "b")
	rows1 := notIn1.evaluate(n, 0)
	rows2 := notIn2.evaluate(n, 0)
	assert.GreaterOrEqual(t, len(rows2), len(rows1), "NotIn(S1) subset of NotIn(S2) must yield a superset")
}
