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
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsdbkit/metacache/catalog"
	"github.com/tsdbkit/metacache/walrow"
)

const (
	colT1 catalog.ColumnID = 1
	colT2 catalog.ColumnID = 2
	colF1 catalog.ColumnID = 3 // numeric, never admissible
)

func testTable() *catalog.TableDefinition {
	return catalog.NewTableDefinition("tbl", map[catalog.ColumnID]catalog.Column{
		colT1: {Name: "t1", DataType: catalog.Tag},
		colT2: {Name: "t2", DataType: catalog.Tag},
		colF1: {Name: "f1", DataType: catalog.Float},
	})
}

// manualClock lets tests control "now" directly.
type manualClock struct{ nowNs int64 }

func (c *manualClock) NowUnixNano() int64 { return c.nowNs }

func pushRow(t *testing.T, c *MetaCache, ts int64, t1, t2 string) {
	t.Helper()
	c.Push(walrow.Row{
		TimeUnixNano: ts,
		Fields: []walrow.Field{
			{ColumnID: colT1, Value: walrow.TagValue(t1)},
			{ColumnID: colT2, Value: walrow.TagValue(t2)},
		},
	})
}

func TestNewRejectsEmptyColumns(t *testing.T) {
	_, err := New(nil, testTable(), nil, DefaultConfig())
	require.ErrorIs(t, err, ErrEmptyColumns)
}

func TestNewRejectsUnknownColumn(t *testing.T) {
	_, err := New(nil, testTable(), []catalog.ColumnID{99}, DefaultConfig())
	require.ErrorIs(t, err, ErrUnknownColumn)
}

// Scenario 6: constructing over a numeric column fails with a
// configuration error naming the offending type.
func TestNewRejectsNonStringColumn(t *testing.T) {
	_, err := New(nil, testTable(), []catalog.ColumnID{colF1}, DefaultConfig())
	require.ErrorIs(t, err, ErrUnsupportedColumnType)
	assert.Contains(t, err.Error(), "float field")
}

func newTestCache(t *testing.T, clock Clock) *MetaCache {
	t.Helper()
	c, err := New(clock, testTable(), []catalog.ColumnID{colT1, colT2}, Config{MaxCardinality: 10, MaxAge: time.Hour})
	require.NoError(t, err)
	return c
}

func TestScenario1PushAndQueryAll(t *testing.T) {
	clock := &manualClock{nowNs: int64(time.Hour)}
	c := newTestCache(t, clock)
	pushRow(t, c, 1000, "a", "x")
	pushRow(t, c, 2000, "a", "y")
	pushRow(t, c, 3000, "b", "x")

	assert.Equal(t, 3, c.Cardinality())

	rec, err := c.ToRecordBatch(nil)
	require.NoError(t, err)
	defer rec.Release()
	require.EqualValues(t, 3, rec.NumRows())
	assert.Equal(t, []string{"a", "a", "b"}, stringColumn(rec, 0))
	assert.Equal(t, []string{"x", "y", "x"}, stringColumn(rec, 1))
}

func TestScenario2Predicates(t *testing.T) {
	clock := &manualClock{nowNs: int64(time.Hour)}
	c := newTestCache(t, clock)
	pushRow(t, c, 1000, "a", "x")
	pushRow(t, c, 2000, "a", "y")
	pushRow(t, c, 3000, "b", "x")

	rec, err := c.ToRecordBatch(map[catalog.ColumnID]*Predicate{colT1: NewIn("a")})
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, []string{"a", "a"}, stringColumn(rec, 0))
	assert.Equal(t, []string{"x", "y"}, stringColumn(rec, 1))

	rec2, err := c.ToRecordBatch(map[catalog.ColumnID]*Predicate{colT2: NewNotIn("x")})
	require.NoError(t, err)
	defer rec2.Release()
	assert.Equal(t, []string{"a"}, stringColumn(rec2, 0))
	assert.Equal(t, []string{"y"}, stringColumn(rec2, 1))
}

func TestScenario3AgePrune(t *testing.T) {
	clock := &manualClock{nowNs: 10_000}
	c := newTestCache(t, clock)
	pushRow(t, c, 1000, "a", "x")
	pushRow(t, c, 2000, "a", "y")
	pushRow(t, c, 3000, "b", "x")

	clock.nowNs += int64(2 * time.Hour)
	pushRow(t, c, clock.nowNs, "b", "x")

	c.Prune()
	assert.Equal(t, 1, c.Cardinality())

	rec, err := c.ToRecordBatch(nil)
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, []string{"b"}, stringColumn(rec, 0))
	assert.Equal(t, []string{"x"}, stringColumn(rec, 1))
}

func TestScenario4CardinalityPrune(t *testing.T) {
	clock := &manualClock{nowNs: int64(time.Hour)}
	c := newTestCache(t, clock)
	for i := 1; i <= 12; i++ {
		letter := string(rune('a' + i - 1))
		pushRow(t, c, int64(i), letter, letter)
	}
	require.Equal(t, 12, c.Cardinality())

	c.Prune()
	assert.Equal(t, 10, c.Cardinality())

	rec, err := c.ToRecordBatch(map[catalog.ColumnID]*Predicate{colT1: NewIn("a", "b")})
	require.NoError(t, err)
	defer rec.Release()
	assert.EqualValues(t, 0, rec.NumRows(), "the two oldest tuples must have been evicted")
}

func TestPushIgnoresRowMissingConfiguredColumn(t *testing.T) {
	clock := &manualClock{nowNs: 100}
	c := newTestCache(t, clock)
	c.Push(walrow.Row{TimeUnixNano: 1, Fields: []walrow.Field{{ColumnID: colT1, Value: walrow.TagValue("a")}}})
	assert.Equal(t, 0, c.Cardinality())
}

func TestCompareConfig(t *testing.T) {
	a := newTestCache(t, &manualClock{})
	b := newTestCache(t, &manualClock{})
	require.NoError(t, a.CompareConfig(b))

	c, err := New(&manualClock{}, testTable(), []catalog.ColumnID{colT1, colT2}, Config{MaxCardinality: 999, MaxAge: time.Hour})
	require.NoError(t, err)
	require.ErrorIs(t, a.CompareConfig(c), ErrConfigMismatch)

	d, err := New(&manualClock{}, testTable(), []catalog.ColumnID{colT1}, Config{MaxCardinality: 10, MaxAge: time.Hour})
	require.NoError(t, err)
	require.ErrorIs(t, a.CompareConfig(d), ErrConfigMismatch)
}

// countingInterner counts calls instead of actually sharing storage, just
// enough to prove Push routes through a configured Interner.
type countingInterner struct{ calls int }

func (i *countingInterner) Intern(s string) Value {
	i.calls++
	return NewValue(s)
}

func TestPushRoutesThroughConfiguredInterner(t *testing.T) {
	clock := &manualClock{nowNs: 100}
	interner := &countingInterner{}
	c, err := New(clock, testTable(), []catalog.ColumnID{colT1, colT2}, Config{MaxCardinality: 10, MaxAge: time.Hour, Interner: interner})
	require.NoError(t, err)

	pushRow(t, c, 1, "a", "x")
	assert.Equal(t, 2, interner.calls, "one Intern call per configured column")

	pushRow(t, c, 2, "a", "y")
	assert.Equal(t, 4, interner.calls, "Push must intern every row, not just the first")
}

func stringColumn(rec arrow.Record, i int) []string {
	col := rec.Column(i).(*array.String)
	out := make([]string, col.Len())
	for j := 0; j < col.Len(); j++ {
		out[j] = col.Value(j)
	}
	return out
}
