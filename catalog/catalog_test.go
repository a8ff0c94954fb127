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

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStringCompatible(t *testing.T) {
	assert.True(t, Tag.IsStringCompatible())
	assert.True(t, StringField.IsStringCompatible())
	assert.False(t, Integer.IsStringCompatible())
	assert.False(t, UInteger.IsStringCompatible())
	assert.False(t, Float.IsStringCompatible())
	assert.False(t, Boolean.IsStringCompatible())
	assert.False(t, Timestamp.IsStringCompatible())
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "tag", Tag.String())
	assert.Equal(t, "float field", Float.String())
}

func TestTableDefinitionLookup(t *testing.T) {
	table := NewTableDefinition("tbl", map[ColumnID]Column{
		1: {Name: "t1", DataType: Tag},
	})
	col, ok := table.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "t1", col.Name)

	_, ok = table.Lookup(2)
	assert.False(t, ok)
}
