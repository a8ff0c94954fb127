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
	"github.com/apache/arrow-go/v18/arrow"
)

// buildSchema constructs the fixed output schema for a cache configured
// over columns, in the given order: one non-nullable, utf8-compatible
// field per column, named after the catalog column name.
func buildSchema(columns []resolvedColumn) *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c.name, Type: arrow.BinaryTypes.String, Nullable: false}
	}
	return arrow.NewSchema(fields, nil)
}
