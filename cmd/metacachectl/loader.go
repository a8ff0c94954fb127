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

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tsdbkit/metacache/catalog"
	"github.com/tsdbkit/metacache/walrow"
)

type tableFileColumn struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type tableFile struct {
	Name    string            `json:"name"`
	Columns []tableFileColumn `json:"columns"`
}

func parseDataType(s string) (catalog.DataType, error) {
	switch s {
	case "tag":
		return catalog.Tag, nil
	case "string":
		return catalog.StringField, nil
	case "integer":
		return catalog.Integer, nil
	case "uinteger":
		return catalog.UInteger, nil
	case "float":
		return catalog.Float, nil
	case "boolean":
		return catalog.Boolean, nil
	case "timestamp":
		return catalog.Timestamp, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

func loadTableDefinition(path string) (*catalog.TableDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table definition: %w", err)
	}
	var tf tableFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing table definition: %w", err)
	}
	columns := make(map[catalog.ColumnID]catalog.Column, len(tf.Columns))
	for _, c := range tf.Columns {
		dt, err := parseDataType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		columns[catalog.ColumnID(c.ID)] = catalog.Column{Name: c.Name, DataType: dt}
	}
	return catalog.NewTableDefinition(tf.Name, columns), nil
}

type rowFileField struct {
	ID    uint32 `json:"id"`
	Value string `json:"value"`
}

type rowFileLine struct {
	Time   int64          `json:"time"`
	Fields []rowFileField `json:"fields"`
}

// loadRows reads one JSON object per line, in the style of a WAL segment
// dump, translating each into a walrow.Row. table supplies each field's
// kind so the CLI can build tag-vs-string-field values the same way the
// real ingestion pipeline would.
func loadRows(path string, table *catalog.TableDefinition) ([]walrow.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening row file: %w", err)
	}
	defer f.Close()

	var rows []walrow.Row
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rl rowFileLine
		if err := json.Unmarshal(line, &rl); err != nil {
			return nil, fmt.Errorf("row file line %d: %w", lineNum, err)
		}
		row := walrow.Row{TimeUnixNano: rl.Time, Fields: make([]walrow.Field, 0, len(rl.Fields))}
		for _, f := range rl.Fields {
			col, ok := table.Lookup(catalog.ColumnID(f.ID))
			if !ok {
				continue
			}
			var fv walrow.FieldValue
			switch col.DataType {
			case catalog.Tag:
				fv = walrow.TagValue(f.Value)
			case catalog.StringField:
				fv = walrow.StringFieldValue(f.Value)
			default:
				continue // non-string fields are irrelevant to a metadata cache
			}
			row.Fields = append(row.Fields, walrow.Field{ColumnID: catalog.ColumnID(f.ID), Value: fv})
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning row file: %w", err)
	}
	return rows, nil
}
