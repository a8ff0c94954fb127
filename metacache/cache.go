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
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tsdbkit/metacache/catalog"
	"github.com/tsdbkit/metacache/walrow"
)

// DefaultMaxCardinality is the cardinality bound a cache uses when none is
// supplied.
const DefaultMaxCardinality = 100_000

// DefaultMaxAge is the age bound a cache uses when none is supplied.
const DefaultMaxAge = 24 * time.Hour

// Clock supplies the current time to a MetaCache. It must be safe to call
// concurrently: Prune reads it under exclusive access, but ToRecordBatch
// reads it under shared access, so concurrent queries against one cache
// (see package registry) call it from several goroutines at once.
type Clock interface {
	NowUnixNano() int64
}

// SystemClock is the default Clock, backed by time.Now.
type SystemClock struct{}

// NowUnixNano implements Clock.
func (SystemClock) NowUnixNano() int64 { return time.Now().UnixNano() }

// Config is the set of tunables a MetaCache is constructed with, beyond its
// column selection.
type Config struct {
	MaxCardinality int
	MaxAge         time.Duration
	// Interner, if set, backs every Value this cache pushes, so that
	// repeated column values share one backing string instead of allocating
	// per row. A nil Interner allocates independently, as package intern's
	// Pool is only useful when shared across many caches (see package
	// registry).
	Interner Interner
}

// DefaultConfig returns the cache defaults: 100,000 max distinct tuples, a
// 24 hour max age.
func DefaultConfig() Config {
	return Config{MaxCardinality: DefaultMaxCardinality, MaxAge: DefaultMaxAge}
}

type resolvedColumn struct {
	id   catalog.ColumnID
	name string
}

// state tracks the cached, incrementally-maintained cardinality counter
// described in the package's data model; Prune recomputes it from the tree,
// which is the authoritative source of truth.
type state struct {
	cardinality int
}

// MetaCache tracks the distinct combinations of values seen on an ordered
// list of a table's string columns, bounded by age and cardinality.
//
// A MetaCache is not internally synchronized: push and prune require
// exclusive access, ToRecordBatch and CompareConfig require only shared
// access. Callers (see package registry) are expected to guard a MetaCache
// with a sync.RWMutex.
type MetaCache struct {
	clock          Clock
	maxCardinality int
	maxAge         time.Duration
	schema         *arrow.Schema
	state          state
	columns        []resolvedColumn
	root           *Node
	interner       Interner
}

// New validates column selection against table and constructs a MetaCache.
// column_ids must be non-empty; each must resolve against table and be
// tag-typed or string-field-typed. On any validation failure no cache is
// constructed.
func New(clock Clock, table *catalog.TableDefinition, columnIDs []catalog.ColumnID, cfg Config) (*MetaCache, error) {
	if len(columnIDs) == 0 {
		return nil, ErrEmptyColumns
	}
	columns := make([]resolvedColumn, len(columnIDs))
	for i, id := range columnIDs {
		col, ok := table.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: column id %d while creating metadata cache for table %q", ErrUnknownColumn, id, table.Name)
		}
		if !col.DataType.IsStringCompatible() {
			return nil, fmt.Errorf("%w: column %q has type %s, only tags and string fields can be used in a metadata cache", ErrUnsupportedColumnType, col.Name, col.DataType)
		}
		columns[i] = resolvedColumn{id: id, name: col.Name}
	}
	if cfg.MaxCardinality <= 0 {
		cfg.MaxCardinality = DefaultMaxCardinality
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &MetaCache{
		clock:          clock,
		maxCardinality: cfg.MaxCardinality,
		maxAge:         cfg.MaxAge,
		schema:         buildSchema(columns),
		columns:        columns,
		root:           newNode(),
		interner:       cfg.Interner,
	}, nil
}

// ColumnIDs returns the ordered column selection this cache was configured
// with.
func (c *MetaCache) ColumnIDs() []catalog.ColumnID {
	ids := make([]catalog.ColumnID, len(c.columns))
	for i, col := range c.columns {
		ids[i] = col.id
	}
	return ids
}

// Cardinality returns the cache's cached cardinality counter. It is exact
// immediately after Prune, and may overcount (never undercount) entries
// pending eviction between Prune calls.
func (c *MetaCache) Cardinality() int { return c.state.cardinality }

// Push inserts a row into the cache if it carries a value for every
// configured column; rows missing any configured column are silently
// ignored, since caches are opportunistic and do not require every
// ingested row to contribute.
func (c *MetaCache) Push(row walrow.Row) {
	values := make([]Value, len(c.columns))
	for i, col := range c.columns {
		field, ok := row.Find(col.id)
		if !ok {
			return
		}
		values[i] = valueFromField(field.Value, c.interner)
	}
	if c.root.insert(values, row.TimeUnixNano) {
		c.state.cardinality++
	}
}

// ToRecordBatch evaluates predicates (a predicate per column id, aligned by
// the cache's column order; missing entries mean "accept everything at
// that position") and returns the surviving tuples as an Arrow record
// batch whose schema is ArrowSchema(). Row order is ascending-value
// depth-first; parent values repeat once per descendant row.
func (c *MetaCache) ToRecordBatch(predicates map[catalog.ColumnID]*Predicate) (arrow.Record, error) {
	aligned := make([]*Predicate, len(c.columns))
	for i, col := range c.columns {
		aligned[i] = predicates[col.id]
	}

	builders := make([]*array.StringBuilder, len(c.columns))
	for i := range c.columns {
		builders[i] = array.NewStringBuilder(memory.DefaultAllocator)
	}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	expiredTimeNs := c.expiredTimeNs()
	c.root.evaluatePredicates(expiredTimeNs, aligned, builders)

	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewStringArray()
		defer cols[i].Release()
	}
	rows := int64(0)
	if len(cols) > 0 {
		rows = int64(cols[0].Len())
	}
	return array.NewRecord(c.schema, cols, rows), nil
}

// Prune enforces the age and cardinality bounds: first it drops entries
// unseen since before maxAge, then, if cardinality still exceeds
// maxCardinality, it evicts the oldest entries until it does not. The
// cardinality counter is recomputed from the tree after each pass, which is
// authoritative.
func (c *MetaCache) Prune() {
	beforeTimeNs := c.expiredTimeNs()
	c.root.removeBefore(beforeTimeNs)
	c.state.cardinality = c.root.cardinality()
	if c.state.cardinality > c.maxCardinality {
		c.root.removeNOldest(c.state.cardinality - c.maxCardinality)
		c.state.cardinality = c.root.cardinality()
	}
}

// expiredTimeNs computes now() - maxAge. An operator who configures a
// maxAge larger than the wall clock has made an unrecoverable configuration
// error; this is never expected to overflow in practice and is not
// recovered from, matching the source cache's behavior.
func (c *MetaCache) expiredTimeNs() int64 {
	now := c.clock.NowUnixNano()
	expired := now - c.maxAge.Nanoseconds()
	if expired < 0 {
		panic("metacache: max_age configured for this cache exceeds the current wall clock")
	}
	return expired
}

// ArrowSchema returns the cache's fixed output schema.
func (c *MetaCache) ArrowSchema() *arrow.Schema { return c.schema }

// CompareConfig reports whether c and other share the same maxCardinality,
// maxAge and column selection (in order), returning a descriptive
// ErrConfigMismatch-wrapped error naming the first difference found
// otherwise. Used by package registry to distinguish a benign "create the
// same cache again" from a conflicting re-creation attempt.
func (c *MetaCache) CompareConfig(other *MetaCache) error {
	if c.maxCardinality != other.maxCardinality {
		return fmt.Errorf("%w: max_cardinality, expected %d, got %d", ErrConfigMismatch, c.maxCardinality, other.maxCardinality)
	}
	if c.maxAge != other.maxAge {
		return fmt.Errorf("%w: max_age, expected %s, got %s", ErrConfigMismatch, c.maxAge, other.maxAge)
	}
	if len(c.columns) != len(other.columns) {
		return fmt.Errorf("%w: column selection, expected %v, got %v", ErrConfigMismatch, c.columnNames(), other.columnNames())
	}
	for i, col := range c.columns {
		if col.id != other.columns[i].id {
			return fmt.Errorf("%w: column id selection, expected %v, got %v", ErrConfigMismatch, c.columnNames(), other.columnNames())
		}
	}
	return nil
}

func (c *MetaCache) columnNames() []string {
	names := make([]string, len(c.columns))
	for i, col := range c.columns {
		names[i] = col.name
	}
	return names
}
