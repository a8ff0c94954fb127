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

import "errors"

// ErrEmptyColumns is returned by New when called with no columns.
var ErrEmptyColumns = errors.New("metacache: must configure a non-empty set of columns")

// ErrUnknownColumn is wrapped by New when a configured column id does not
// resolve against the supplied table definition.
var ErrUnknownColumn = errors.New("metacache: unknown column id")

// ErrUnsupportedColumnType is wrapped by New when a configured column
// resolves to a non-string-compatible type.
var ErrUnsupportedColumnType = errors.New("metacache: unsupported column type")

// ErrConfigMismatch is returned by CompareConfig when two cache
// configurations differ in cardinality, age, or column selection.
var ErrConfigMismatch = errors.New("metacache: incompatible cache configuration")
