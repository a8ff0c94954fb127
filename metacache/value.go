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

// Package metacache implements an in-memory, tree-shaped cache of the
// distinct value combinations seen on an ordered set of string columns of a
// single table, bounded by age and cardinality.
package metacache

import (
	"github.com/tsdbkit/metacache/catalog"
	"github.com/tsdbkit/metacache/walrow"
)

// Value is a single, immutable, totally-ordered column value. Ordering and
// equality are bytewise on the underlying string. Values are cheap to
// clone: a Value is a thin wrapper, never deep-copied, and callers that
// want cross-cache sharing of the backing string should route construction
// through an intern.Pool (see package intern) rather than this type
// allocating independently per row.
type Value struct {
	s string
}

// NewValue wraps a plain Go string as a Value.
func NewValue(s string) Value { return Value{s: s} }

// String returns the underlying string.
func (v Value) String() string { return v.s }

// Less reports whether v sorts strictly before other, bytewise.
func (v Value) Less(other Value) bool { return v.s < other.s }

// Equal reports bytewise equality.
func (v Value) Equal(other Value) bool { return v.s == other.s }

// Interner returns a shared Value for repeated strings, letting many pushed
// rows reuse one backing string per distinct column value instead of each
// Push allocating independently. package intern provides the bounded LRU
// implementation a registry.Registry configures every MetaCache with; a
// MetaCache configured with no Interner (the nil default) just allocates a
// fresh Value per push.
type Interner interface {
	Intern(s string) Value
}

// valueFromField converts an admissible WAL field value into a Value,
// routing it through interner when one is configured so the returned Value
// shares storage with any other Value already interned for the same
// string.
//
// Only walrow field values tagged Tag or StringField are admissible: this
// mirrors the source cache's behavior of treating any other kind as a
// programmer error, since construction-time validation (see New in
// cache.go) guarantees a correctly configured cache is never handed
// anything else.
func valueFromField(fv walrow.FieldValue, interner Interner) Value {
	switch fv.Kind {
	case catalog.Tag, catalog.StringField:
		if interner != nil {
			return interner.Intern(fv.String)
		}
		return Value{s: fv.String}
	default:
		panic("metacache: unexpected non-string field value pushed into cache")
	}
}
