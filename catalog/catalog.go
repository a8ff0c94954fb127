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

// Package catalog provides the minimal table/column definition contract
// that metacache.New validates a configured column selection against. It
// stands in for the enclosing database's real catalog, which owns schema
// storage, migrations and versioning; none of that is this package's
// concern.
package catalog

import "fmt"

// ColumnID identifies a column within a single table. The enclosing
// database assigns these; this package only consumes them.
type ColumnID uint32

// DataType enumerates the column kinds the catalog can describe. Only Tag
// and StringField are admissible for a metadata cache; the rest exist so
// construction can name the offending type in its error.
type DataType uint8

const (
	// Tag is a string-valued, indexed column (the time-series database's
	// "tag" concept).
	Tag DataType = iota
	// StringField is a string-valued, non-indexed column.
	StringField
	// Integer, UInteger, Float, Boolean and Timestamp are admissible table
	// columns in general but can never back a metadata cache.
	Integer
	UInteger
	Float
	Boolean
	Timestamp
)

func (t DataType) String() string {
	switch t {
	case Tag:
		return "tag"
	case StringField:
		return "string field"
	case Integer:
		return "integer field"
	case UInteger:
		return "unsigned integer field"
	case Float:
		return "float field"
	case Boolean:
		return "boolean field"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("unknown data type (%d)", uint8(t))
	}
}

// IsStringCompatible reports whether a column of this type can be a member
// of a metadata cache's column list.
func (t DataType) IsStringCompatible() bool {
	return t == Tag || t == StringField
}

// Column describes a single column of a table.
type Column struct {
	Name     string
	DataType DataType
}

// TableDefinition is the read-only column map a metacache.New call
// consults. Callers obtain one from the real catalog; this package places
// no constraints on how it got built.
type TableDefinition struct {
	Name    string
	Columns map[ColumnID]Column
}

// NewTableDefinition builds a TableDefinition from an explicit column map.
// It is a thin constructor used by tests and by cmd/metacachectl when
// loading a table shape from a file; it performs no validation.
func NewTableDefinition(name string, columns map[ColumnID]Column) *TableDefinition {
	return &TableDefinition{Name: name, Columns: columns}
}

// Lookup returns the column registered under id, or false if none exists.
func (t *TableDefinition) Lookup(id ColumnID) (Column, bool) {
	col, ok := t.Columns[id]
	return col, ok
}
