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

// Package walrow describes the shape of a row as consumed from the
// write-ahead log's ingestion pipeline. The pipeline itself — parsing line
// protocol, assigning sequence numbers, fsync'ing segments — is out of
// scope; only the contract metacache.MetaCache.Push relies on lives here.
package walrow

import "github.com/tsdbkit/metacache/catalog"

// Row is one decoded WAL entry: a timestamp and the set of fields that were
// present on the write. Not every configured cache column need appear on
// every row.
type Row struct {
	TimeUnixNano int64
	Fields       []Field
}

// Field is one column/value pair within a Row.
type Field struct {
	ColumnID catalog.ColumnID
	Value    FieldValue
}

// FieldValue is a tagged union over the admissible WAL value kinds. Only
// Kind == Tag or Kind == StringField carry a usable String; the rest are
// represented for completeness of the ingestion contract but are never
// string-convertible.
type FieldValue struct {
	Kind   catalog.DataType
	String string
}

// TagValue constructs a tag-kinded field value.
func TagValue(s string) FieldValue { return FieldValue{Kind: catalog.Tag, String: s} }

// StringFieldValue constructs a string-field-kinded field value.
func StringFieldValue(s string) FieldValue { return FieldValue{Kind: catalog.StringField, String: s} }

// Find returns the field with the given column id, if present.
func (r Row) Find(id catalog.ColumnID) (Field, bool) {
	for _, f := range r.Fields {
		if f.ColumnID == id {
			return f, true
		}
	}
	return Field{}, false
}
